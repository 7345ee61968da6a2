package ai

import (
	"context"
	"strings"
	"time"

	handoffsRepo "blueridge/database/repository/handoffs"
	"blueridge/models"
	"blueridge/services/booking"
	"blueridge/services/nlp"
	"blueridge/services/scheduling"
	"blueridge/utils"

	"go.uber.org/zap"
)

const (
	defaultMaxRounds = 4
	offerCap         = 6
	rangeCap         = 3
	chatDurationMins = 30
)

// DefaultChatService is the tool-calling conversation loop. Handoffs and
// Contexts may be nil.
type DefaultChatService struct {
	Completer    Completer
	Availability scheduling.AvailabilityService
	Booking      booking.BookingService
	Handoffs     handoffsRepo.HandoffRepository
	Contexts     *RedisContextStore
	Loc          *time.Location
	DefaultOwner string
	// ModelOnly disables every heuristic and deterministic fallback.
	ModelOnly bool
	MaxRounds int
	Logger    *zap.Logger
	Now       func() time.Time
}

func NewChatService(
	completer Completer,
	availability scheduling.AvailabilityService,
	bookings booking.BookingService,
	handoffs handoffsRepo.HandoffRepository,
	contexts *RedisContextStore,
	loc *time.Location,
	logger *zap.Logger,
) *DefaultChatService {
	if loc == nil {
		loc = time.UTC
	}
	return &DefaultChatService{
		Completer:    completer,
		Availability: availability,
		Booking:      bookings,
		Handoffs:     handoffs,
		Contexts:     contexts,
		Loc:          loc,
		MaxRounds:    defaultMaxRounds,
		Logger:       logger,
		Now:          time.Now,
	}
}

// conversation is the per-request state of one Chat call.
type conversation struct {
	sessionID string
	ownerID   string
	now       time.Time

	history []models.ConversationTurn // widget messages
	turns   []models.ConversationTurn // full model context

	contact  *models.Contact
	offered  []models.Slot // slots the widget says it showed
	selected string

	lastUser   string
	target     nlp.Target
	targetText string
	segment    nlp.Segment
	weekday    time.Weekday
	hasWeekday bool

	lastSlots          []models.Slot
	meta               models.ChatMeta
	nudgedAvailability bool
	nudgedCreate       bool
	booked             bool
}

func (c *conversation) metaPtr() *models.ChatMeta {
	if c.meta.Empty() {
		return nil
	}
	m := c.meta
	return &m
}

func (s *DefaultChatService) tz() string {
	return s.Loc.String()
}

func (s *DefaultChatService) Chat(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
	conv := s.begin(ctx, req)
	resp := s.run(ctx, conv)
	s.saveContext(ctx, conv, resp)
	return resp, nil
}

func (s *DefaultChatService) begin(ctx context.Context, req models.ChatRequest) *conversation {
	conv := &conversation{
		sessionID: req.SessionID,
		ownerID:   firstNonEmpty(req.OwnerID, s.DefaultOwner),
		now:       s.Now(),
		contact:   req.Contact,
		offered:   models.SlotsFromDTOs(req.LastSlots),
		selected:  strings.TrimSpace(req.SelectedStartISO),
	}

	for _, m := range req.Messages {
		if m.Role != models.RoleUser && m.Role != models.RoleAssistant {
			continue
		}
		conv.history = append(conv.history, models.ConversationTurn{Role: m.Role, Content: m.Content})
	}
	if len(conv.history) == 0 {
		conv.history = []models.ConversationTurn{{Role: models.RoleUser, Content: firstNonEmpty(req.Message, "Hello")}}
	}

	if s.Contexts != nil && req.SessionID != "" {
		stored, err := s.Contexts.Get(ctx, req.SessionID)
		if err != nil {
			s.Logger.Warn("Failed to load chat context", zap.String("session", req.SessionID), zap.Error(err))
		} else {
			if conv.contact == nil {
				conv.contact = stored.Contact
			}
			if len(conv.offered) == 0 {
				conv.offered = models.SlotsFromDTOs(stored.LastSlots)
			}
			// A remembered selection only completes once fresh contact details arrive.
			if conv.selected == "" && req.Contact.Present() {
				conv.selected = stored.SelectedStartISO
			}
		}
	}

	conv.lastUser = nlp.LastUserText(conv.history)
	conv.segment = nlp.DetectSegment(conv.lastUser)
	conv.weekday, _, conv.hasWeekday = nlp.MentionedWeekday(conv.lastUser)

	tz := s.tz()
	var prefix []models.ConversationTurn
	if !s.ModelOnly {
		conv.target = nlp.ResolveDay(conv.lastUser, conv.now, s.Loc)
		if conv.target.Found() {
			conv.targetText = nlp.LongDate(conv.target.Date, s.Loc)
			prefix = append(prefix, guidanceTurn(conv.target, conv.targetText, tz, conv.segment))
		}
	}
	prefix = append(prefix,
		dateTurn(nlp.LongDate(conv.now, s.Loc), tz, s.ModelOnly),
		personaTurn(tz),
	)
	conv.turns = append(prefix, conv.history...)
	if conv.contact.Present() {
		conv.turns = append(conv.turns, contactTurn(conv.contact))
	}
	return conv
}

func (s *DefaultChatService) run(ctx context.Context, conv *conversation) *models.ChatResponse {
	if conv.selected != "" && conv.contact != nil && conv.contact.Email != "" {
		return s.bookDirect(ctx, conv)
	}

	maxRounds := s.MaxRounds
	if maxRounds <= 0 {
		maxRounds = defaultMaxRounds
	}
	tools := Tools()
	var final string

	for round := 0; round < maxRounds; round++ {
		comp, err := s.Completer.Complete(ctx, CompletionRequest{Turns: conv.turns, Tools: tools})
		if err != nil {
			s.Logger.Error("Chat completion failed after fallbacks", zap.Error(err))
			return s.fallback(ctx, conv)
		}

		if len(comp.ToolCalls) > 0 {
			if resp := s.runTools(ctx, conv, comp); resp != nil {
				return resp
			}
			continue
		}

		final = comp.Content
		resp, again := s.afterText(ctx, conv, final)
		if resp != nil {
			return resp
		}
		if !again {
			return &models.ChatResponse{Content: final, Meta: conv.metaPtr()}
		}
	}

	// Out of rounds.
	if s.ModelOnly {
		return &models.ChatResponse{Content: firstNonEmpty(final, replyModelOnlyRetry), Meta: conv.metaPtr()}
	}
	if final != "" && s.unsafe(conv, final) {
		utils.ChatFallbackTotal.WithLabelValues("hard_guard").Inc()
		return s.hardGuard(ctx, conv)
	}
	if final == "" {
		utils.ChatFallbackTotal.WithLabelValues("round_budget").Inc()
	}
	return &models.ChatResponse{Content: firstNonEmpty(final, replyDoubleCheck), Meta: conv.metaPtr()}
}

// unsafe reports assistant text that proposes times, or answers a weekday
// booking request, before getAvailability ran in this conversation.
func (s *DefaultChatService) unsafe(conv *conversation, final string) bool {
	if hasToolTurn(conv.turns, ToolGetAvailability) {
		return false
	}
	return nlp.LooksLikeSlots(final) || (conv.hasWeekday && nlp.SchedulingIntent(conv.lastUser))
}

// runTools executes one round of tool calls. A non-nil response ends
// the request.
func (s *DefaultChatService) runTools(ctx context.Context, conv *conversation, comp *Completion) *models.ChatResponse {
	conv.turns = append(conv.turns, models.ConversationTurn{
		Role:      models.RoleAssistant,
		Content:   comp.Content,
		ToolCalls: comp.ToolCalls,
	})

	var followUps []models.ConversationTurn
	wantForm := false
	for _, tc := range comp.ToolCalls {
		inv := DecodeToolCall(tc)
		out := s.dispatch(ctx, conv, inv)
		conv.turns = append(conv.turns, models.ConversationTurn{
			Role:       models.RoleTool,
			Name:       inv.Name,
			ToolCallID: inv.ID,
			Content:    out.result.JSON(),
		})
		if out.reply != nil {
			return out.reply
		}
		wantForm = wantForm || out.contactForm
		followUps = append(followUps, out.followUps...)
	}

	if wantForm {
		return &models.ChatResponse{
			Content: firstNonEmpty(comp.Content, replyContactForm),
			UI:      &models.ChatUI{Type: "contact_form"},
			Meta:    conv.metaPtr(),
		}
	}
	// System directives go after every tool turn so the tool results stay
	// adjacent to the assistant message that requested them.
	conv.turns = append(conv.turns, followUps...)
	return nil
}

// afterText applies the heuristics to a plain assistant reply. It returns a
// response to send, or again=true to run another round.
func (s *DefaultChatService) afterText(ctx context.Context, conv *conversation, final string) (*models.ChatResponse, bool) {
	if s.ModelOnly {
		return nil, false
	}

	if !conv.nudgedCreate {
		pool := conv.lastSlots
		if len(pool) == 0 {
			pool = conv.offered
		}
		if slot, ok := nlp.MatchSlot(conv.lastUser, pool, s.Loc); ok {
			iso := models.FormatISO(slot.Start)
			if !conv.contact.Present() {
				conv.meta.SelectedStartISO = iso
				return &models.ChatResponse{
					Content: holdReply(nlp.Clock(slot.Start, s.Loc), false),
					UI:      &models.ChatUI{Type: "contact_form"},
					Meta:    &models.ChatMeta{SelectedStartISO: iso},
				}, false
			}
			conv.turns = append(conv.turns, createNudge(iso))
			conv.nudgedCreate = true
			return nil, true
		}
	}

	if s.unsafe(conv, final) {
		if !conv.nudgedAvailability {
			conv.nudgedAvailability = true
			conv.turns = append(conv.turns, availabilityNudge(s.tz(), conv.targetText))
			return nil, true
		}
		utils.ChatFallbackTotal.WithLabelValues("hard_guard").Inc()
		return s.hardGuard(ctx, conv), false
	}

	if nlp.AsksForContact(final) && !conv.contact.Present() {
		return &models.ChatResponse{Content: final, UI: &models.ChatUI{Type: "contact_form"}}, false
	}
	return nil, false
}

// bookDirect books the widget's selected start without asking the model.
func (s *DefaultChatService) bookDirect(ctx context.Context, conv *conversation) *models.ChatResponse {
	_, err := s.Booking.Book(ctx, models.BookingRequest{
		Start:        conv.selected,
		DurationMins: chatDurationMins,
		Name:         conv.contact.Name,
		Email:        conv.contact.Email,
		Phone:        conv.contact.Phone,
		Notes:        "Requested via chat for " + firstNonEmpty(conv.contact.Name, conv.contact.Email) + ".",
	})
	if err != nil {
		s.Logger.Warn("Direct chat booking failed", zap.String("start", conv.selected), zap.Error(err))
		return &models.ChatResponse{Content: replyBookFailed}
	}
	conv.booked = true
	return &models.ChatResponse{Content: replyBooked}
}

func (s *DefaultChatService) saveContext(ctx context.Context, conv *conversation, resp *models.ChatResponse) {
	if s.Contexts == nil || conv.sessionID == "" {
		return
	}
	// A completed booking ends the session's offer and selection.
	if conv.booked {
		if err := s.Contexts.Clear(ctx, conv.sessionID); err != nil {
			s.Logger.Warn("Failed to clear chat context", zap.String("session", conv.sessionID), zap.Error(err))
		}
		return
	}
	next := &models.ChatContext{Contact: conv.contact}
	if resp.Meta != nil {
		next.LastSlots = resp.Meta.Slots
		next.SelectedStartISO = resp.Meta.SelectedStartISO
	}
	if len(next.LastSlots) == 0 {
		next.LastSlots = models.SlotDTOs(conv.offered)
	}
	if err := s.Contexts.Set(ctx, conv.sessionID, next); err != nil {
		s.Logger.Warn("Failed to save chat context", zap.String("session", conv.sessionID), zap.Error(err))
	}
}

func hasToolTurn(turns []models.ConversationTurn, kind ToolKind) bool {
	name := kind.String()
	for _, t := range turns {
		if t.Role == models.RoleTool && t.Name == name {
			return true
		}
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
