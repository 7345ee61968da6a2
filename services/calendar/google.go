package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"blueridge/models"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// TokenSourceFactory yields credentials for the calendar owner.
type TokenSourceFactory interface {
	TokenSource(ctx context.Context) (oauth2.TokenSource, error)
}

// GoogleCalendar is the Google Calendar v3 backend. The underlying service
// is built on first use and reused until Close.
type GoogleCalendar struct {
	calendarID string
	loc        *time.Location
	tokens     TokenSourceFactory
	opts       []option.ClientOption
	logger     *zap.Logger

	mu  sync.Mutex
	svc *gcal.Service
}

// NewGoogleCalendar returns a handle; no network call happens until the
// first request. Extra client options are appended after the token source.
func NewGoogleCalendar(calendarID string, loc *time.Location, tokens TokenSourceFactory, logger *zap.Logger, opts ...option.ClientOption) *GoogleCalendar {
	if calendarID == "" {
		calendarID = "primary"
	}
	if loc == nil {
		loc = time.UTC
	}
	return &GoogleCalendar{
		calendarID: calendarID,
		loc:        loc,
		tokens:     tokens,
		opts:       opts,
		logger:     logger,
	}
}

func (g *GoogleCalendar) service(ctx context.Context) (*gcal.Service, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.svc != nil {
		return g.svc, nil
	}

	var opts []option.ClientOption
	if g.tokens != nil {
		ts, err := g.tokens.TokenSource(ctx)
		if err != nil {
			return nil, classify(err)
		}
		opts = append(opts, option.WithTokenSource(ts))
	}
	opts = append(opts, g.opts...)

	// The service outlives this request, so it is not bound to ctx.
	svc, err := gcal.NewService(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: create calendar service: %v", ErrUnavailable, err)
	}
	g.svc = svc
	g.logger.Info("Google Calendar service initialised", zap.String("calendarID", g.calendarID))
	return svc, nil
}

// Close drops the cached service so the next call rebuilds it.
func (g *GoogleCalendar) Close() {
	g.mu.Lock()
	g.svc = nil
	g.mu.Unlock()
}

// reset discards a service whose credentials were rejected.
func (g *GoogleCalendar) reset(err error) {
	if errors.Is(err, ErrUnauthorized) {
		g.Close()
	}
}

func (g *GoogleCalendar) BusyIntervals(ctx context.Context, window models.TimeWindow) ([]models.BusyInterval, error) {
	svc, err := g.service(ctx)
	if err != nil {
		return nil, err
	}

	var out []models.BusyInterval
	call := svc.Events.List(g.calendarID).
		TimeMin(window.From.UTC().Format(time.RFC3339)).
		TimeMax(window.To.UTC().Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		ShowDeleted(false).
		MaxResults(250)

	err = call.Pages(ctx, func(page *gcal.Events) error {
		for _, ev := range page.Items {
			iv, ok := g.toInterval(ev)
			if !ok {
				g.logger.Debug("Skipping calendar event with unparseable times", zap.String("eventID", ev.Id))
				continue
			}
			if !window.Overlaps(iv.Start, iv.End) {
				continue
			}
			out = append(out, iv)
		}
		return nil
	})
	if err != nil {
		err = classify(err)
		g.reset(err)
		return nil, err
	}
	return out, nil
}

func (g *GoogleCalendar) toInterval(ev *gcal.Event) (models.BusyInterval, bool) {
	if ev == nil {
		return models.BusyInterval{}, false
	}
	start, ok := g.parseEventTime(ev.Start)
	if !ok {
		return models.BusyInterval{}, false
	}
	end, ok := g.parseEventTime(ev.End)
	if !ok || !end.After(start) {
		return models.BusyInterval{}, false
	}
	return models.BusyInterval{
		Start:    start,
		End:      end,
		Blocking: IsBlocking(ev.Status, ev.Transparency),
		UID:      ev.ICalUID,
		Summary:  ev.Summary,
	}, true
}

func (g *GoogleCalendar) parseEventTime(t *gcal.EventDateTime) (time.Time, bool) {
	if t == nil {
		return time.Time{}, false
	}
	if t.DateTime != "" {
		ts, err := time.Parse(time.RFC3339, t.DateTime)
		return ts, err == nil
	}
	if t.Date != "" {
		// all-day events occupy the whole local day
		ts, err := time.ParseInLocation("2006-01-02", t.Date, g.loc)
		return ts, err == nil
	}
	return time.Time{}, false
}

func (g *GoogleCalendar) CreateEvent(ctx context.Context, in models.EventInput) (*models.CreatedEvent, error) {
	svc, err := g.service(ctx)
	if err != nil {
		return nil, err
	}

	calendarID := in.CalendarID
	if calendarID == "" {
		calendarID = g.calendarID
	}
	ev := &gcal.Event{
		Summary:     in.Title,
		Description: in.Description,
		Location:    in.Location,
		Start:       &gcal.EventDateTime{DateTime: in.Slot.Start.UTC().Format(time.RFC3339), TimeZone: g.loc.String()},
		End:         &gcal.EventDateTime{DateTime: in.Slot.End.UTC().Format(time.RFC3339), TimeZone: g.loc.String()},
	}
	for _, email := range in.Attendees {
		ev.Attendees = append(ev.Attendees, &gcal.EventAttendee{Email: email})
	}
	if in.UID != "" {
		ev.ExtendedProperties = &gcal.EventExtendedProperties{Private: map[string]string{"booking_uid": in.UID}}
	}

	created, err := svc.Events.Insert(calendarID, ev).Context(ctx).Do()
	if err != nil {
		err = classify(err)
		g.reset(err)
		return nil, err
	}
	return &models.CreatedEvent{
		ID:       created.Id,
		HTMLLink: created.HtmlLink,
		Start:    models.FormatISO(in.Slot.Start),
		End:      models.FormatISO(in.Slot.End),
	}, nil
}

func (g *GoogleCalendar) CancelEvent(ctx context.Context, eventID, calendarID string) error {
	svc, err := g.service(ctx)
	if err != nil {
		return err
	}
	if calendarID == "" {
		calendarID = g.calendarID
	}
	if err := svc.Events.Delete(calendarID, eventID).Context(ctx).Do(); err != nil {
		err = classify(err)
		g.reset(err)
		return err
	}
	return nil
}

// classify maps Google and OAuth failures onto the package sentinels.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrUnavailable) {
		return err
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		if gerr.Code == http.StatusUnauthorized || gerr.Code == http.StatusForbidden {
			return fmt.Errorf("%w: %v", ErrUnauthorized, err)
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		if rerr.ErrorCode == "invalid_grant" || (rerr.Response != nil && rerr.Response.StatusCode == http.StatusUnauthorized) {
			return fmt.Errorf("%w: %v", ErrUnauthorized, err)
		}
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
