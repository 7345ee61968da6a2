package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"blueridge/models"
	"blueridge/services/booking"
	"blueridge/services/calendar"
	"blueridge/services/nlp"
	"blueridge/utils"

	"go.uber.org/zap"
)

const defaultHandoffReason = "Needs_Human"

// toolOutcome is what one tool call produced. reply, when set, is returned
// to the widget without another model round.
type toolOutcome struct {
	result      ToolResult
	reply       *models.ChatResponse
	contactForm bool
	followUps   []models.ConversationTurn
}

func failed(msg string) toolOutcome {
	return toolOutcome{result: ToolResult{OK: false, Error: msg}}
}

func (s *DefaultChatService) dispatch(ctx context.Context, conv *conversation, inv ToolInvocation) toolOutcome {
	if inv.Err != nil {
		s.Logger.Debug("Tool arguments rejected", zap.String("tool", inv.Name), zap.Error(inv.Err))
		return failed(inv.Err.Error() + "; resend the call with arguments matching the schema")
	}
	switch args := inv.Args.(type) {
	case *GetAvailabilityArgs:
		return s.getAvailability(ctx, conv, args)
	case *CreateAppointmentArgs:
		return s.createAppointment(ctx, conv, args)
	case *CancelAppointmentArgs:
		return s.cancelAppointment(ctx, args)
	case *FlagNeedsHumanArgs:
		return s.flagNeedsHuman(ctx, conv, args)
	case *ShowContactFormArgs:
		if conv.contact.Present() {
			return toolOutcome{result: ToolResult{OK: true, Data: map[string]any{"alreadyProvided": true}}}
		}
		return toolOutcome{result: ToolResult{OK: true, Data: map[string]any{"shown": true}}, contactForm: true}
	}
	s.Logger.Warn("Model requested unknown tool", zap.String("tool", inv.Name))
	return failed("Unknown tool: " + inv.Name)
}

func (s *DefaultChatService) getAvailability(ctx context.Context, conv *conversation, args *GetAvailabilityArgs) toolOutcome {
	duration := args.DurationMins
	if duration <= 0 {
		duration = chatDurationMins
	}

	window, parseErr := parseToolWindow(args.TimeMinISO, args.TimeMaxISO)
	target := conv.target
	if parseErr != nil && !target.Found() {
		return failed("timeMinISO and timeMaxISO must be ISO timestamps with timeMinISO before timeMaxISO")
	}
	wide := false
	if target.Found() && (parseErr != nil || !covers(window, nlp.DayWindow(target.Date))) {
		window, wide = nlp.WideWindow(target.Date), true
	}

	res, err := s.Availability.Availability(ctx, window.From, window.To, duration)
	if err != nil {
		return failed(s.availabilityError(err))
	}
	slots := res.Slots

	if target.Found() {
		slots = nlp.OnDate(slots, target.Date, s.Loc)
		if len(slots) == 0 && !wide {
			res, err = s.Availability.Availability(ctx, nlp.WideWindow(target.Date).From, nlp.WideWindow(target.Date).To, duration)
			if err != nil {
				return failed(s.availabilityError(err))
			}
			slots = nlp.OnDate(res.Slots, target.Date, s.Loc)
		}
		if len(slots) == 0 {
			out := toolOutcome{result: ToolResult{OK: true, Data: map[string]any{"slots": []string{}, "phases": res.Phases}}}
			if !s.ModelOnly {
				out.reply = &models.ChatResponse{Content: s.emptyDayReply(target)}
			}
			return out
		}
	}

	day := ""
	if target.Found() {
		day = nlp.DayLabel(target.Date, s.Loc)
	}
	var segmentBooked bool
	if target.Found() && !s.ModelOnly {
		slots, segmentBooked = pickSegment(slots, conv.segment, s.Loc)
	}
	slots = nlp.DedupeCap(slots, offerCap)
	conv.lastSlots = slots
	conv.meta.Slots = models.SlotDTOs(slots)
	ranges := nlp.FormatRanges(nlp.GroupRanges(slots, rangeCap), s.Loc)

	out := toolOutcome{result: ToolResult{OK: true, Data: map[string]any{
		"slots":      models.StartISOs(slots),
		"ranges":     ranges,
		"phases":     res.Phases,
		"fabricated": res.Fabricated,
	}}}
	if s.ModelOnly {
		return out
	}
	if segmentBooked {
		out.reply = &models.ChatResponse{Content: segmentBookedReply(day, conv.segment, ranges), Meta: conv.metaPtr()}
		return out
	}
	if len(ranges) > 0 {
		out.followUps = append(out.followUps, systemTurn(fmt.Sprintf(presentRangesDirective, strings.Join(ranges, "; "))))
	}
	return out
}

func (s *DefaultChatService) createAppointment(ctx context.Context, conv *conversation, args *CreateAppointmentArgs) toolOutcome {
	if !hasToolTurn(conv.turns, ToolGetAvailability) && len(conv.offered) == 0 {
		return failed(createGuidance)
	}
	start, err := models.ParseISO(args.StartISO)
	if err != nil {
		return failed("startISO must be an ISO timestamp")
	}
	duration := chatDurationMins
	if end, err := models.ParseISO(args.EndISO); err == nil && end.After(start) {
		duration = int(end.Sub(start) / time.Minute)
	}

	req := models.BookingRequest{Start: models.FormatISO(start), DurationMins: duration, Notes: args.Description, Title: args.Title}
	if len(args.Attendees) > 0 {
		req.Email, req.Name = args.Attendees[0].Email, args.Attendees[0].Name
	}
	if c := conv.contact; c != nil {
		req.Email = firstNonEmpty(req.Email, c.Email)
		req.Name = firstNonEmpty(req.Name, c.Name)
		req.Phone = c.Phone
	}
	if req.Email == "" {
		conv.meta.SelectedStartISO = req.Start
		out := failed("contact details required; call showContactForm")
		out.contactForm = true
		return out
	}

	res, err := s.Booking.Book(ctx, req)
	if err != nil {
		s.Logger.Warn("Chat booking failed", zap.String("start", req.Start), zap.Error(err))
		msg := "booking failed"
		if booking.CodeOf(err) != "" {
			msg = booking.MessageOf(err)
		}
		return failed(msg)
	}
	conv.booked = true
	conv.meta = models.ChatMeta{}
	out := toolOutcome{result: ToolResult{OK: true, Data: res}}
	if !s.ModelOnly {
		content := replyBookedShort
		if res.CustomerEmailSent {
			content = replyBooked
		}
		out.reply = &models.ChatResponse{Content: content}
	}
	return out
}

func (s *DefaultChatService) cancelAppointment(ctx context.Context, args *CancelAppointmentArgs) toolOutcome {
	err := s.Booking.Cancel(ctx, models.CancelEventRequest{EventID: args.EventID, CalendarID: args.CalendarID, Reason: args.Reason})
	if err != nil {
		s.Logger.Warn("Chat cancellation failed", zap.String("eventId", args.EventID), zap.Error(err))
		msg := "cancellation failed"
		if booking.CodeOf(err) != "" {
			msg = booking.MessageOf(err)
		}
		return failed(msg)
	}
	return toolOutcome{result: ToolResult{OK: true, Data: map[string]any{"cancelled": true, "eventId": args.EventID}}}
}

func (s *DefaultChatService) flagNeedsHuman(ctx context.Context, conv *conversation, args *FlagNeedsHumanArgs) toolOutcome {
	reason := firstNonEmpty(args.Reason, defaultHandoffReason)
	if s.Handoffs != nil {
		h := models.Handoff{
			SessionID:   conv.sessionID,
			OwnerID:     conv.ownerID,
			Reason:      reason,
			LastMessage: conv.lastUser,
			CreatedAt:   conv.now.UTC(),
		}
		if c := conv.contact; c != nil {
			h.ContactName, h.ContactEmail, h.ContactPhone = c.Name, c.Email, c.Phone
		}
		if _, err := s.Handoffs.Create(ctx, h); err != nil {
			s.Logger.Error("Failed to record handoff", zap.String("session", conv.sessionID), zap.Error(err))
		}
	}
	return toolOutcome{result: ToolResult{OK: true, Data: map[string]any{"flagged": true, "reason": reason}}}
}

// fallback answers without the model after every completer failed.
func (s *DefaultChatService) fallback(ctx context.Context, conv *conversation) *models.ChatResponse {
	if s.ModelOnly {
		return &models.ChatResponse{Content: replyModelOnlyRetry}
	}
	utils.ChatFallbackTotal.WithLabelValues("completion_error").Inc()

	pool := conv.lastSlots
	if len(pool) == 0 {
		pool = conv.offered
	}
	if slot, ok := nlp.MatchSlot(conv.lastUser, pool, s.Loc); ok {
		iso := models.FormatISO(slot.Start)
		if conv.contact != nil && conv.contact.Email != "" {
			conv.selected = iso
			resp := s.bookDirect(ctx, conv)
			if !conv.booked {
				resp.Content = replyFinalizeFailed
			}
			return resp
		}
		return &models.ChatResponse{
			Content: holdReply(nlp.Clock(slot.Start, s.Loc), true),
			UI:      &models.ChatUI{Type: "contact_form"},
			Meta:    &models.ChatMeta{SelectedStartISO: iso},
		}
	}
	if conv.target.Found() {
		return s.offerForDay(ctx, conv, conv.target)
	}
	return &models.ChatResponse{Content: replyAskDay}
}

// hardGuard replaces a reply that proposed times without checking the
// calendar with an offer computed from real availability.
func (s *DefaultChatService) hardGuard(ctx context.Context, conv *conversation) *models.ChatResponse {
	target := conv.target
	if !target.Found() && conv.hasWeekday {
		_, name, _ := nlp.MentionedWeekday(conv.lastUser)
		target = nlp.Target{Kind: nlp.DayWeekday, Weekday: name, Date: nlp.NextWeekday(conv.weekday, conv.now, s.Loc)}
	}
	if !target.Found() {
		return &models.ChatResponse{Content: replyAskDay}
	}
	return s.offerForDay(ctx, conv, target)
}

func (s *DefaultChatService) offerForDay(ctx context.Context, conv *conversation, target nlp.Target) *models.ChatResponse {
	day := nlp.DayLabel(target.Date, s.Loc)
	window := nlp.DayWindow(target.Date)
	res, err := s.Availability.Availability(ctx, window.From, window.To, chatDurationMins)
	if err != nil {
		s.Logger.Warn("Deterministic availability failed", zap.String("day", day), zap.Error(err))
		return &models.ChatResponse{Content: noAvailabilityReply(day)}
	}
	slots := nlp.OnDate(res.Slots, target.Date, s.Loc)
	if len(slots) == 0 {
		if target.Kind == nlp.DayWeekday {
			return &models.ChatResponse{Content: noWindowsWeekReply(day)}
		}
		return &models.ChatResponse{Content: noAvailabilityReply(day)}
	}

	slots, segmentBooked := pickSegment(slots, conv.segment, s.Loc)
	slots = nlp.DedupeCap(slots, offerCap)
	conv.lastSlots = slots
	conv.meta.Slots = models.SlotDTOs(slots)
	ranges := nlp.FormatRanges(nlp.GroupRanges(slots, rangeCap), s.Loc)

	content := offerReply(day, ranges)
	switch {
	case segmentBooked:
		content = segmentBookedReply(day, conv.segment, ranges)
	case conv.segment != nlp.SegmentNone:
		content = segmentOfferReply(day, conv.segment, ranges)
	}
	return &models.ChatResponse{Content: content, Meta: conv.metaPtr()}
}

func (s *DefaultChatService) emptyDayReply(target nlp.Target) string {
	if target.Kind == nlp.DayWeekday {
		return noWindowsNextReply(target.Weekday)
	}
	return fullyBookedReply(nlp.DayLabel(target.Date, s.Loc))
}

func (s *DefaultChatService) availabilityError(err error) string {
	s.Logger.Warn("Availability tool failed", zap.Error(err))
	if errors.Is(err, calendar.ErrUnauthorized) {
		return "calendar needs reauthorization"
	}
	return "availability is temporarily unavailable"
}

// pickSegment narrows a day's slots to the requested segment. When the
// segment is empty it falls back to the later part of the same day, then
// to the whole day, and reports booked=true.
func pickSegment(slots []models.Slot, seg nlp.Segment, loc *time.Location) ([]models.Slot, bool) {
	if seg == nlp.SegmentNone {
		return slots, false
	}
	if in := nlp.FilterSegment(slots, seg, loc); len(in) > 0 {
		return in, false
	}
	if h := seg.LaterThan(); h > 0 {
		if later := nlp.FromHour(slots, h, loc); len(later) > 0 {
			return later, true
		}
	}
	return slots, true
}

func parseToolWindow(fromRaw, toRaw string) (models.TimeWindow, error) {
	from, err := models.ParseISO(fromRaw)
	if err != nil {
		return models.TimeWindow{}, err
	}
	to, err := models.ParseISO(toRaw)
	if err != nil {
		return models.TimeWindow{}, err
	}
	w := models.TimeWindow{From: from, To: to}
	return w, w.Validate()
}

func covers(outer, inner models.TimeWindow) bool {
	return !outer.From.After(inner.From) && !outer.To.Before(inner.To)
}
