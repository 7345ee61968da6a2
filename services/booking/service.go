package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	meetingsRepo "blueridge/database/repository/meetings"
	"blueridge/models"
	"blueridge/services/calendar"
	"blueridge/services/notification"
	"blueridge/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	eventLocation = "Online"
	eventSource   = "Source: Website chat"
)

// DefaultBookingService writes bookings to the calendar backend and sends
// the confirmation emails. Meetings and Email may be nil.
type DefaultBookingService struct {
	Calendar calendar.Backend
	Meetings meetingsRepo.MeetingRepository
	Email    notification.EmailService
	Holds    Reserver
	Opts     Options
	Logger   *zap.Logger
	Now      func() time.Time
}

func NewBookingService(
	cal calendar.Backend,
	meetings meetingsRepo.MeetingRepository,
	email notification.EmailService,
	holds Reserver,
	opts Options,
	logger *zap.Logger,
) *DefaultBookingService {
	return &DefaultBookingService{
		Calendar: cal,
		Meetings: meetings,
		Email:    email,
		Holds:    holds,
		Opts:     opts.withDefaults(),
		Logger:   logger,
		Now:      time.Now,
	}
}

func (s *DefaultBookingService) debug(msg string, fields ...zap.Field) {
	if s.Opts.Debug {
		s.Logger.Info("[booking] "+msg, fields...)
		return
	}
	s.Logger.Debug("[booking] "+msg, fields...)
}

func (s *DefaultBookingService) validate(req models.BookingRequest) (models.Slot, error) {
	raw := strings.TrimSpace(req.Start)
	if raw == "" {
		return models.Slot{}, newError(CodeValidation, "start required", nil)
	}
	start, err := models.ParseISO(raw)
	if err != nil {
		return models.Slot{}, newError(CodeValidation, "invalid start", err)
	}
	dur := s.Opts.DefaultDuration
	if req.DurationMins > 0 {
		dur = time.Duration(req.DurationMins) * time.Minute
	}
	if start.Before(s.Now()) {
		return models.Slot{}, newError(CodeValidation, "start in past", nil)
	}
	return models.Slot{Start: start.UTC(), End: start.Add(dur).UTC()}, nil
}

// Book validates the request, re-checks the calendar, creates the event
// and sends the emails. Only validation and conflicts fail a non-strict
// booking; other step failures are reported in the result.
func (s *DefaultBookingService) Book(ctx context.Context, req models.BookingRequest) (*models.BookingResult, error) {
	s.debug("incoming request", zap.String("start", req.Start), zap.Int("durationMins", req.DurationMins), zap.String("email", req.Email))

	slot, err := s.validate(req)
	if err != nil {
		utils.BookingTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	if s.Holds != nil {
		release, err := s.Holds.Hold(ctx, slot.Start)
		switch {
		case errors.Is(err, ErrHeld):
			utils.BookingTotal.WithLabelValues("conflict").Inc()
			return nil, newError(CodeConflict, "slot taken", err)
		case err != nil:
			s.Logger.Warn("Slot hold unavailable, continuing without it", zap.Error(err))
		default:
			defer release()
		}
	}

	busy, err := s.Calendar.BusyIntervals(ctx, models.TimeWindow{
		From: slot.Start.Add(-s.Opts.BusyMargin),
		To:   slot.End.Add(s.Opts.BusyMargin),
	})
	if err != nil {
		s.debug("busy check failed", zap.Error(err))
		if s.Opts.Strict {
			utils.BookingTotal.WithLabelValues("error").Inc()
			return nil, newError(CodeCalendar, "calendar availability check failed", err)
		}
	} else if calendar.AnyBlocking(busy, slot) {
		utils.BookingTotal.WithLabelValues("conflict").Inc()
		return nil, newError(CodeConflict, "slot taken", nil)
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = "Consultation with " + firstNonEmpty(req.Name, "Client")
	}
	description := describe(req)
	result := &models.BookingResult{
		OK:    true,
		UID:   uuid.New().String(),
		Start: models.FormatISO(slot.Start),
		End:   models.FormatISO(slot.End),
	}

	in := models.EventInput{
		UID:         result.UID,
		Title:       title,
		Description: description,
		Location:    eventLocation,
		Slot:        slot,
	}
	if req.Email != "" {
		in.Attendees = []string{req.Email}
	}
	created, err := s.Calendar.CreateEvent(ctx, in)
	if err != nil {
		s.debug("calendar create failed", zap.Error(err))
		if s.Opts.Strict {
			utils.BookingTotal.WithLabelValues("error").Inc()
			return nil, newError(CodeCalendar, "calendar create failed", err)
		}
		result.CalendarError = err.Error()
	} else {
		result.EventCreated = true
		result.EventID = created.ID
		result.HTMLLink = created.HTMLLink
		s.debug("calendar event created", zap.String("eventId", created.ID))
		s.recordMeeting(ctx, req, slot, title, created.ID, result.UID)
	}

	if err := s.sendEmails(ctx, req, slot, title, description, result); err != nil {
		utils.BookingTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	utils.BookingTotal.WithLabelValues("booked").Inc()
	s.debug("response", zap.Bool("eventCreated", result.EventCreated), zap.Strings("emailErrors", result.EmailErrors))
	return result, nil
}

func (s *DefaultBookingService) recordMeeting(ctx context.Context, req models.BookingRequest, slot models.Slot, title, eventID, uid string) {
	if s.Meetings == nil {
		return
	}
	_, err := s.Meetings.Create(ctx, models.Meeting{
		UID:             uid,
		CalendarEventID: eventID,
		ContactName:     req.Name,
		ContactEmail:    req.Email,
		StartTS:         models.FormatISO(slot.Start),
		EndTS:           models.FormatISO(slot.End),
		Title:           title,
		Notes:           req.Notes,
		Status:          models.MeetingBooked,
	})
	if err != nil {
		s.Logger.Warn("Failed to record meeting", zap.String("eventId", eventID), zap.Error(err))
	}
}

// sendEmails runs each email independently. In strict mode the first
// failure aborts with a CodeEmail error.
func (s *DefaultBookingService) sendEmails(ctx context.Context, req models.BookingRequest, slot models.Slot, title, description string, result *models.BookingResult) error {
	if s.Email == nil || !s.Email.Configured() || req.Email == "" {
		return nil
	}

	ics := calendar.BuildICS(calendar.Invite{
		UID:         result.UID,
		Start:       slot.Start,
		End:         slot.End,
		Title:       title,
		Description: description,
		Location:    eventLocation,
		Organizer:   s.Opts.OwnerEmail,
		Attendees:   []calendar.Attendee{{Name: req.Name, Email: req.Email}},
		Stamp:       s.Now(),
	})
	err := s.Email.SendBookingConfirmation(ctx, notification.BookingEmail{
		To: req.Email, Title: title, Start: slot.Start, End: slot.End, Location: eventLocation, ICS: ics,
	})
	if err != nil {
		s.debug("customer email failed", zap.Error(err))
		result.EmailErrors = append(result.EmailErrors, "customer:"+err.Error())
		if s.Opts.Strict {
			return newError(CodeEmail, "email send failed", err)
		}
	} else {
		result.CustomerEmailSent = true
	}

	owner := notification.OwnerEmail{
		To:            firstNonEmpty(s.Opts.OwnerEmail, req.Email),
		CustomerName:  firstNonEmpty(req.Name, req.Email),
		CustomerEmail: req.Email,
		Title:         title,
		Description:   description,
		Start:         slot.Start,
		End:           slot.End,
	}
	if err := s.Email.SendOwnerNotification(ctx, owner); err != nil {
		s.debug("owner email failed", zap.Error(err))
		result.EmailErrors = append(result.EmailErrors, "owner:"+err.Error())
		if s.Opts.Strict {
			return newError(CodeEmail, "owner email failed", err)
		}
	} else {
		result.OwnerEmailSent = true
	}

	if s.Opts.OwnerNotifyEmail != "" {
		owner.To = s.Opts.OwnerNotifyEmail
		if err := s.Email.SendOwnerNotification(ctx, owner); err != nil {
			s.debug("owner notify failed", zap.Error(err))
			result.EmailErrors = append(result.EmailErrors, "ownerNotify:"+err.Error())
			if s.Opts.Strict {
				return newError(CodeEmail, "owner notify failed", err)
			}
		}
	}
	return nil
}

// Cancel removes the event and marks its meeting row cancelled.
func (s *DefaultBookingService) Cancel(ctx context.Context, req models.CancelEventRequest) error {
	eventID := strings.TrimSpace(req.EventID)
	if eventID == "" {
		return newError(CodeValidation, "eventId required", nil)
	}
	if err := s.Calendar.CancelEvent(ctx, eventID, req.CalendarID); err != nil {
		return newError(CodeCalendar, "calendar cancel failed", err)
	}
	s.Logger.Info("Calendar event cancelled", zap.String("eventId", eventID), zap.String("reason", req.Reason))

	if s.Meetings != nil {
		if err := s.Meetings.MarkCancelled(ctx, eventID); err != nil {
			s.Logger.Warn("Failed to mark meeting cancelled", zap.String("eventId", eventID), zap.Error(err))
		}
	}
	return nil
}

func describe(req models.BookingRequest) string {
	lines := []string{eventSource}
	if req.Email != "" {
		lines = append(lines, "Client Email: "+req.Email)
	}
	if req.Phone != "" {
		lines = append(lines, "Client Phone: "+req.Phone)
	}
	if req.Notes != "" {
		lines = append(lines, "Notes: "+req.Notes)
	}
	return strings.Join(lines, "\n")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
