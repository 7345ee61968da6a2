package meetingsRepo

import (
	"context"

	"blueridge/models"

	supa "github.com/supabase-community/supabase-go"
)

const table = "meetings"

type MeetingRepository interface {
	Create(ctx context.Context, meeting models.Meeting) (string, error)
	MarkCancelled(ctx context.Context, calendarEventID string) error
}

type supabaseMeetingRepo struct {
	client *supa.Client
}

func NewSupabaseMeetingRepo(client *supa.Client) MeetingRepository {
	return &supabaseMeetingRepo{client: client}
}
