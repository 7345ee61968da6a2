package tokensRepo

import (
	"context"
	"encoding/json"
	"fmt"

	"blueridge/models"
)

// Get returns the token row for provider and owner. An empty owner matches
// the row stored without one.
func (r *supabaseTokenRepo) Get(ctx context.Context, provider, ownerID string) (*models.OAuthToken, error) {
	q := r.client.From(table).
		Select("*", "", false).
		Eq("provider", provider)
	if ownerID == "" {
		q = q.Is("owner_id", "null")
	} else {
		q = q.Eq("owner_id", ownerID)
	}

	data, _, err := q.Limit(1, "").Execute()
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", table, err)
	}
	var rows []models.OAuthToken
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode %s: %w", table, err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0], nil
}

// Save upserts on provider+owner_id so each owner keeps one row.
func (r *supabaseTokenRepo) Save(ctx context.Context, token models.OAuthToken) error {
	token.ID = ""
	_, _, err := r.client.From(table).
		Insert(token, true, "provider,owner_id", "", "").
		Execute()
	if err != nil {
		return fmt.Errorf("upsert %s: %w", table, err)
	}
	return nil
}
