package calendar

import (
	"context"
	"io"

	"blueridge/models"

	"go.uber.org/zap"
)

// MergedSource unions a primary backend with read-only overlays. An overlay
// failure is logged and ignored; a primary failure fails the whole fetch.
type MergedSource struct {
	Primary  Backend
	Overlays []BusySource
	Logger   *zap.Logger
}

func NewMergedSource(primary Backend, logger *zap.Logger, overlays ...BusySource) *MergedSource {
	return &MergedSource{Primary: primary, Overlays: overlays, Logger: logger}
}

func (m *MergedSource) BusyIntervals(ctx context.Context, window models.TimeWindow) ([]models.BusyInterval, error) {
	busy, err := m.Primary.BusyIntervals(ctx, window)
	if err != nil {
		return nil, err
	}
	for _, o := range m.Overlays {
		extra, err := o.BusyIntervals(ctx, window)
		if err != nil {
			m.Logger.Warn("Busy overlay failed; ignoring", zap.Error(err))
			continue
		}
		busy = append(busy, extra...)
	}
	return busy, nil
}

func (m *MergedSource) CreateEvent(ctx context.Context, in models.EventInput) (*models.CreatedEvent, error) {
	return m.Primary.CreateEvent(ctx, in)
}

func (m *MergedSource) CancelEvent(ctx context.Context, eventID, calendarID string) error {
	return m.Primary.CancelEvent(ctx, eventID, calendarID)
}

// Close tears down the primary handle when it holds one.
func (m *MergedSource) Close() error {
	switch p := m.Primary.(type) {
	case io.Closer:
		return p.Close()
	case interface{ Close() }:
		p.Close()
	}
	return nil
}
