package tokensRepo

import (
	"context"
	"errors"

	"blueridge/models"

	supa "github.com/supabase-community/supabase-go"
)

const table = "oauth_tokens"

var ErrNotFound = errors.New("oauth token not found")

type TokenRepository interface {
	Get(ctx context.Context, provider, ownerID string) (*models.OAuthToken, error)
	Save(ctx context.Context, token models.OAuthToken) error
}

type supabaseTokenRepo struct {
	client *supa.Client
}

// NewSupabaseTokenRepo returns a TokenRepository backed by the oauth_tokens table.
func NewSupabaseTokenRepo(client *supa.Client) TokenRepository {
	return &supabaseTokenRepo{client: client}
}
