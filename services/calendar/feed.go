package calendar

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"blueridge/models"

	"go.uber.org/zap"
)

// ICSFeed reads busy time from a published, read-only ICS URL.
type ICSFeed struct {
	URL    string
	Client *http.Client
	Loc    *time.Location
	Logger *zap.Logger
}

func NewICSFeed(url string, loc *time.Location, logger *zap.Logger) *ICSFeed {
	return &ICSFeed{
		URL:    url,
		Client: &http.Client{Timeout: 10 * time.Second},
		Loc:    loc,
		Logger: logger,
	}
}

func (f *ICSFeed) BusyIntervals(ctx context.Context, window models.TimeWindow) ([]models.BusyInterval, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("ics feed request: %w", err)
	}
	req.Header.Set("Accept", "text/calendar")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch ics feed: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: ics feed returned %d", ErrUnavailable, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read ics feed: %v", ErrUnavailable, err)
	}

	events, skipped := ParseICS(string(body), f.Loc)
	if skipped > 0 {
		f.Logger.Debug("Skipped malformed ICS records", zap.String("url", f.URL), zap.Int("skipped", skipped))
	}
	var out []models.BusyInterval
	for _, ev := range events {
		if window.Overlaps(ev.Start, ev.End) {
			out = append(out, ev.Interval())
		}
	}
	return out, nil
}
