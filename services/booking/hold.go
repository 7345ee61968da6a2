package booking

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

var ErrHeld = errors.New("slot is being booked")

// Reserver places a short-lived hold on a slot start across requests.
type Reserver interface {
	Hold(ctx context.Context, start time.Time) (release func(), err error)
}

// RedisReserver holds slots with SET NX. A nil client makes every hold
// succeed.
type RedisReserver struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisReserver(client *redis.Client, ttl time.Duration) *RedisReserver {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &RedisReserver{client: client, ttl: ttl}
}

func holdKey(start time.Time) string {
	return "booking:hold:" + strconv.FormatInt(start.Unix(), 10)
}

// releaseScript deletes the key only while it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

func (r *RedisReserver) Hold(ctx context.Context, start time.Time) (func(), error) {
	if r == nil || r.client == nil {
		return func() {}, nil
	}
	key := holdKey(start)
	token := uuid.New().String()
	ok, err := r.client.SetNX(ctx, key, token, r.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("hold %s: %w", key, err)
	}
	if !ok {
		return nil, ErrHeld
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(ctx, r.client, []string{key}, token).Err()
	}, nil
}
