package handoffsRepo

import (
	"context"
	"fmt"
	"time"

	"blueridge/models"

	"github.com/google/uuid"
	supa "github.com/supabase-community/supabase-go"
)

const table = "handoffs"

type HandoffRepository interface {
	Create(ctx context.Context, h models.Handoff) (string, error)
}

type supabaseHandoffRepo struct {
	client *supa.Client
}

func NewSupabaseHandoffRepo(client *supa.Client) HandoffRepository {
	return &supabaseHandoffRepo{client: client}
}

// Create inserts a handoff row and returns its ID.
func (r *supabaseHandoffRepo) Create(ctx context.Context, h models.Handoff) (string, error) {
	if h.ID == "" {
		h.ID = uuid.New().String()
	}
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now().UTC()
	}
	if _, _, err := r.client.From(table).Insert(h, false, "", "", "").Execute(); err != nil {
		return "", fmt.Errorf("insert %s: %w", table, err)
	}
	return h.ID, nil
}
