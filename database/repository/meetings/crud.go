package meetingsRepo

import (
	"context"
	"encoding/json"
	"fmt"

	"blueridge/models"

	"github.com/google/uuid"
)

// Create inserts a meeting row and returns its ID.
func (r *supabaseMeetingRepo) Create(ctx context.Context, meeting models.Meeting) (string, error) {
	if meeting.ID == "" {
		meeting.ID = uuid.New().String()
	}
	if meeting.Status == "" {
		meeting.Status = models.MeetingBooked
	}

	data, _, err := r.client.From(table).
		Insert(meeting, false, "", "representation", "").
		Execute()
	if err != nil {
		return "", fmt.Errorf("insert %s: %w", table, err)
	}
	var rows []models.Meeting
	if err := json.Unmarshal(data, &rows); err == nil && len(rows) > 0 && rows[0].ID != "" {
		return rows[0].ID, nil
	}
	return meeting.ID, nil
}

// MarkCancelled flags every meeting linked to the calendar event.
func (r *supabaseMeetingRepo) MarkCancelled(ctx context.Context, calendarEventID string) error {
	_, _, err := r.client.From(table).
		Update(map[string]interface{}{"status": models.MeetingCancelled}, "", "").
		Eq("calendar_event_id", calendarEventID).
		Execute()
	if err != nil {
		return fmt.Errorf("update %s: %w", table, err)
	}
	return nil
}
