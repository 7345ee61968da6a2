package notification

import (
	"context"
	"time"
)

// Mailer delivers a fully formed message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// EmailService sends the booking emails.
type EmailService interface {
	Configured() bool
	SendBookingConfirmation(ctx context.Context, in BookingEmail) error
	SendOwnerNotification(ctx context.Context, in OwnerEmail) error
}

type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

type Message struct {
	From        string
	To          []string
	Subject     string
	HTML        string
	Attachments []Attachment
}

// BookingEmail is the customer confirmation. ICS, when set, is attached as
// an invite.
type BookingEmail struct {
	To       string
	Title    string
	Start    time.Time
	End      time.Time
	Location string
	ICS      string
}

// OwnerEmail tells the calendar owner about a new booking.
type OwnerEmail struct {
	To            string
	CustomerName  string
	CustomerEmail string
	Title         string
	Description   string
	Start         time.Time
	End           time.Time
}
