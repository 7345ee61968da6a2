package models

import "time"

// OAuthToken is a row of the oauth_tokens table, unique on provider+owner_id.
type OAuthToken struct {
	ID           string     `json:"id,omitempty"`
	Provider     string     `json:"provider"`
	OwnerID      *string    `json:"owner_id"`
	AccessToken  string     `json:"access_token"`
	RefreshToken *string    `json:"refresh_token"`
	Expiry       *time.Time `json:"expiry"`
	Scope        *string    `json:"scope"`
}

// Meeting statuses.
const (
	MeetingBooked    = "booked"
	MeetingCancelled = "cancelled"
)

// Meeting is a row of the meetings table.
type Meeting struct {
	ID              string `json:"id,omitempty"`
	UID             string `json:"uid"`
	CalendarEventID string `json:"calendar_event_id,omitempty"`
	ContactName     string `json:"contact_name,omitempty"`
	ContactEmail    string `json:"contact_email,omitempty"`
	StartTS         string `json:"start_ts"`
	EndTS           string `json:"end_ts"`
	Title           string `json:"title"`
	Notes           string `json:"notes,omitempty"`
	Status          string `json:"status"`
}

// Handoff is a conversation flagged for a human follow-up.
type Handoff struct {
	ID           string    `json:"id,omitempty"`
	SessionID    string    `json:"session_id,omitempty"`
	OwnerID      string    `json:"owner_id,omitempty"`
	Reason       string    `json:"reason"`
	ContactName  string    `json:"contact_name,omitempty"`
	ContactEmail string    `json:"contact_email,omitempty"`
	ContactPhone string    `json:"contact_phone,omitempty"`
	LastMessage  string    `json:"last_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
