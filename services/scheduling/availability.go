package scheduling

import (
	"context"
	"errors"
	"strings"
	"time"

	"blueridge/models"
	"blueridge/services/calendar"
	"blueridge/utils"

	"go.uber.org/zap"
)

// Ladder phase names, in the order they are attempted.
const (
	PhasePrimary     = "primary"
	PhaseReducedLead = "reducedLead"
	PhaseExtendedDay = "extendedDay"
	PhaseFabricated  = "fabricated"
	phaseErrorPrefix = "error:"
)

const DefaultDurationMins = 30

// Settings are the ladder knobs, all sourced from configuration.
type Settings struct {
	Hours               models.BusinessHours
	Loc                 *time.Location
	BufferMins          int
	LeadTimeMins        int
	ReducedLeadTimeMins int
	FabricateLeadMins   int
	FabricateMaxSlots   int
	FabricateMaxDays    int
	AllowFabricated     bool
}

// DefaultSettings mirrors the configuration defaults.
func DefaultSettings(hours models.BusinessHours, loc *time.Location) Settings {
	return Settings{
		Hours:               hours,
		Loc:                 loc,
		BufferMins:          10,
		LeadTimeMins:        120,
		ReducedLeadTimeMins: 60,
		FabricateLeadMins:   45,
		FabricateMaxSlots:   6,
		FabricateMaxDays:    14,
		AllowFabricated:     true,
	}
}

// AvailabilityService answers "which starts are free between from and to".
type AvailabilityService interface {
	Availability(ctx context.Context, from, to time.Time, durationMins int) (models.AvailabilityResult, error)
}

// DefaultAvailabilityService runs the escalation ladder against one generator.
type DefaultAvailabilityService struct {
	Generator *Generator
	Settings  Settings
	Logger    *zap.Logger
	Now       func() time.Time
}

func NewAvailabilityService(gen *Generator, settings Settings, logger *zap.Logger) *DefaultAvailabilityService {
	return &DefaultAvailabilityService{Generator: gen, Settings: settings, Logger: logger, Now: time.Now}
}

// ParseRange validates raw from/to strings and clamps a past start to now.
func ParseRange(fromRaw, toRaw string, now time.Time) (models.TimeWindow, error) {
	if strings.TrimSpace(fromRaw) == "" || strings.TrimSpace(toRaw) == "" {
		return models.TimeWindow{}, NewValidationError("from and to required")
	}
	from, err := models.ParseISO(fromRaw)
	if err != nil {
		return models.TimeWindow{}, NewValidationError("Invalid range")
	}
	to, err := models.ParseISO(toRaw)
	if err != nil {
		return models.TimeWindow{}, NewValidationError("Invalid range")
	}
	if !from.Before(to) {
		return models.TimeWindow{}, NewValidationError("Invalid range")
	}
	if from.Before(now) {
		from = now
	}
	return models.TimeWindow{From: from, To: to}, nil
}

type attempt struct {
	phase string
	to    func(models.TimeWindow) time.Time
	lead  int
}

// Availability runs primary, reducedLead and extendedDay against the
// calendar, stopping at the first phase that yields a slot, then falls back
// to fabrication. A credentials failure is returned to the caller instead
// of fabricating.
func (s *DefaultAvailabilityService) Availability(ctx context.Context, from, to time.Time, durationMins int) (models.AvailabilityResult, error) {
	if durationMins <= 0 {
		durationMins = DefaultDurationMins
	}
	now := s.Now()
	window := models.TimeWindow{From: from, To: to}
	if window.From.Before(now) {
		window.From = now
	}

	attempts := []attempt{
		{PhasePrimary, func(w models.TimeWindow) time.Time { return w.To }, s.Settings.LeadTimeMins},
		{PhaseReducedLead, func(w models.TimeWindow) time.Time { return w.To }, s.Settings.ReducedLeadTimeMins},
		{PhaseExtendedDay, func(w models.TimeWindow) time.Time { return w.To.Add(24 * time.Hour) }, s.Settings.ReducedLeadTimeMins},
	}

	var result models.AvailabilityResult
	for _, a := range attempts {
		w := models.TimeWindow{From: window.From, To: a.to(window)}
		slots, err := s.Generator.GenerateSlots(ctx, w, durationMins, s.Settings.Hours, s.Settings.BufferMins, a.lead)
		if err != nil {
			if errors.Is(err, calendar.ErrUnauthorized) {
				s.recordPhase("needs_reauth")
				s.Logger.Warn("Calendar credentials rejected", zap.Error(err))
				return result, err
			}
			result.Phases = append(result.Phases, phaseErrorPrefix+err.Error())
			s.recordPhase("error")
			s.Logger.Warn("Availability lookup failed; falling back",
				zap.String("phase", a.phase), zap.Error(err))
			break
		}
		result.Phases = append(result.Phases, a.phase)
		s.recordPhase(a.phase)
		if len(slots) > 0 {
			result.Slots = slots
			break
		}
	}

	if len(result.Slots) == 0 && s.Settings.AllowFabricated {
		result.Slots = Fabricate(FabricateParams{
			From:         window.From,
			DurationMins: durationMins,
			Hours:        s.Settings.Hours,
			LeadMins:     s.Settings.FabricateLeadMins,
			MaxSlots:     s.Settings.FabricateMaxSlots,
			MaxDays:      s.Settings.FabricateMaxDays,
			Now:          now,
			Loc:          s.Settings.Loc,
		})
		result.Fabricated = true
		result.Phases = append(result.Phases, PhaseFabricated)
		s.recordPhase(PhaseFabricated)
	}
	if result.Slots == nil {
		result.Slots = []models.Slot{}
	}

	s.Logger.Debug("Availability computed",
		zap.Strings("phases", result.Phases),
		zap.Int("slots", len(result.Slots)),
		zap.Bool("fabricated", result.Fabricated))
	return result, nil
}

func (s *DefaultAvailabilityService) recordPhase(phase string) {
	utils.AvailabilityPhaseTotal.WithLabelValues(phase).Inc()
}
