package models

// BookingRequest is the body of POST /api/book.
type BookingRequest struct {
	Start        string `json:"start"`
	DurationMins int    `json:"durationMins"`
	Name         string `json:"name,omitempty"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Notes        string `json:"notes,omitempty"`
	// Title overrides the default "Consultation with <name>" event title.
	Title string `json:"title,omitempty"`
}

// BookingResult reports which sub-steps of a booking succeeded.
type BookingResult struct {
	OK                bool     `json:"ok"`
	UID               string   `json:"uid"`
	EventID           string   `json:"eventId,omitempty"`
	HTMLLink          string   `json:"htmlLink,omitempty"`
	Start             string   `json:"start,omitempty"`
	End               string   `json:"end,omitempty"`
	EventCreated      bool     `json:"eventCreated"`
	CustomerEmailSent bool     `json:"customerEmailSent"`
	OwnerEmailSent    bool     `json:"ownerEmailSent"`
	CalendarError     string   `json:"calendarError,omitempty"`
	EmailErrors       []string `json:"emailErrors,omitempty"`
}

// CancelEventRequest is the body of POST /api/calendar/cancel-event.
type CancelEventRequest struct {
	EventID    string `json:"eventId"`
	CalendarID string `json:"calendarId,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// EventInput describes a calendar event to create.
type EventInput struct {
	UID         string
	Title       string
	Description string
	Location    string
	Slot        Slot
	Attendees   []string
	CalendarID  string
}

// CreatedEvent is what the calendar backend returns for a new event.
type CreatedEvent struct {
	ID       string `json:"id"`
	HTMLLink string `json:"htmlLink,omitempty"`
	Start    string `json:"start"`
	End      string `json:"end"`
}

// CreateEventRequest is the body of POST /api/calendar/create-event.
type CreateEventRequest struct {
	StartISO    string          `json:"startISO" binding:"required"`
	EndISO      string          `json:"endISO" binding:"required"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Attendees   []EventAttendee `json:"attendees,omitempty"`
}

type EventAttendee struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}
