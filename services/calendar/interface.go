package calendar

import (
	"context"
	"errors"
	"strings"

	"blueridge/models"
)

var (
	// ErrUnauthorized means the calendar credentials were rejected; the
	// owner has to go through the consent flow again.
	ErrUnauthorized = errors.New("calendar: needs_reauth")
	// ErrUnavailable wraps transient backend failures.
	ErrUnavailable = errors.New("calendar: unavailable")
)

// BusySource lists calendar occupancy within a window.
type BusySource interface {
	BusyIntervals(ctx context.Context, window models.TimeWindow) ([]models.BusyInterval, error)
}

// Backend is the calendar store bookings are written to.
type Backend interface {
	BusySource
	CreateEvent(ctx context.Context, in models.EventInput) (*models.CreatedEvent, error)
	CancelEvent(ctx context.Context, eventID, calendarID string) error
}

// IsBlocking classifies an event by its status and transparency values.
func IsBlocking(status, transparency string) bool {
	if strings.EqualFold(strings.TrimSpace(status), "cancelled") {
		return false
	}
	if strings.EqualFold(strings.TrimSpace(transparency), "transparent") {
		return false
	}
	return true
}

// Overlaps reports whether two half-open intervals intersect.
func Overlaps(a, b models.BusyInterval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// AnyBlocking reports whether any blocking interval overlaps [slot.Start, slot.End).
func AnyBlocking(busy []models.BusyInterval, slot models.Slot) bool {
	probe := models.BusyInterval{Start: slot.Start, End: slot.End}
	for _, b := range busy {
		if b.Blocking && Overlaps(probe, b) {
			return true
		}
	}
	return false
}
