package ai

import (
	"context"
	"encoding/json"
	"time"

	"blueridge/models"

	"github.com/go-redis/redis/v8"
)

const (
	aiContextPrefix   = "ai:ctx:"
	DefaultContextTTL = 30 * time.Minute
)

// RedisContextStore keeps the chat state of a widget session between
// requests. A nil client stores nothing.
type RedisContextStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisContextStore(client *redis.Client, ttl time.Duration) *RedisContextStore {
	if ttl <= 0 {
		ttl = DefaultContextTTL
	}
	return &RedisContextStore{client: client, ttl: ttl}
}

func (s *RedisContextStore) enabled() bool {
	return s != nil && s.client != nil
}

func (s *RedisContextStore) Get(ctx context.Context, sessionID string) (*models.ChatContext, error) {
	if !s.enabled() || sessionID == "" {
		return &models.ChatContext{}, nil
	}
	data, err := s.client.Get(ctx, aiContextPrefix+sessionID).Result()
	if err == redis.Nil {
		return &models.ChatContext{}, nil
	}
	if err != nil {
		return nil, err
	}
	var chatCtx models.ChatContext
	if err := json.Unmarshal([]byte(data), &chatCtx); err != nil {
		return nil, err
	}
	return &chatCtx, nil
}

func (s *RedisContextStore) Set(ctx context.Context, sessionID string, chatCtx *models.ChatContext) error {
	if !s.enabled() || sessionID == "" {
		return nil
	}
	b, err := json.Marshal(chatCtx)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, aiContextPrefix+sessionID, b, s.ttl).Err()
}

func (s *RedisContextStore) Clear(ctx context.Context, sessionID string) error {
	if !s.enabled() || sessionID == "" {
		return nil
	}
	return s.client.Del(ctx, aiContextPrefix+sessionID).Err()
}
