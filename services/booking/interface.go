package booking

import (
	"context"
	"time"

	"blueridge/models"
)

// BookingService books and cancels consultations.
type BookingService interface {
	Book(ctx context.Context, req models.BookingRequest) (*models.BookingResult, error)
	Cancel(ctx context.Context, req models.CancelEventRequest) error
}

type Options struct {
	// Strict turns calendar and email failures into errors instead of
	// reporting them in the result.
	Strict bool
	// Debug logs each step at info level.
	Debug bool
	// OwnerEmail receives the owner notification; OwnerNotifyEmail, when
	// set, receives a copy.
	OwnerEmail       string
	OwnerNotifyEmail string
	DefaultDuration  time.Duration
	// BusyMargin widens the conflict re-check on both sides of the slot.
	BusyMargin time.Duration
}

func (o Options) withDefaults() Options {
	if o.DefaultDuration <= 0 {
		o.DefaultDuration = 30 * time.Minute
	}
	if o.BusyMargin <= 0 {
		o.BusyMargin = 12 * time.Hour
	}
	return o
}
