package scheduling

import (
	"context"
	"fmt"
	"sort"
	"time"

	"blueridge/models"
	"blueridge/services/calendar"
)

// ScanStep is the granularity at which candidate starts are considered.
const ScanStep = 15 * time.Minute

// SlotParams is the full input of one slot computation.
type SlotParams struct {
	Window       models.TimeWindow
	DurationMins int
	Hours        models.BusinessHours
	BufferMins   int
	LeadTimeMins int
	Busy         []models.BusyInterval
	Now          time.Time
	Loc          *time.Location
}

// BuildSlots scans the window at ScanStep and greedily accepts candidates
// that sit inside a business-hours window on a duration boundary, respect
// the lead time, and clear every buffered blocking interval and every slot
// already accepted.
func BuildSlots(p SlotParams) []models.Slot {
	if p.DurationMins <= 0 || p.Window.Validate() != nil {
		return nil
	}
	loc := p.Loc
	if loc == nil {
		loc = time.UTC
	}
	dur := time.Duration(p.DurationMins) * time.Minute
	buffer := time.Duration(p.BufferMins) * time.Minute
	earliest := p.Now.Add(time.Duration(p.LeadTimeMins) * time.Minute)

	var accepted []models.Slot
	for cursor := alignUp(p.Window.From); cursor.Before(p.Window.To); cursor = cursor.Add(ScanStep) {
		if cursor.Before(earliest) {
			continue
		}
		local := cursor.In(loc)
		windows := p.Hours.ParseWindows(local.Weekday())
		if len(windows) == 0 {
			continue
		}
		minuteOfDay := local.Hour()*60 + local.Minute()
		for _, w := range windows {
			if minuteOfDay < w.Start || minuteOfDay >= w.End {
				continue
			}
			if (minuteOfDay-w.Start)%p.DurationMins != 0 {
				continue
			}
			slot := models.Slot{Start: cursor, End: cursor.Add(dur)}
			if slot.End.After(wallClock(local, w.End, loc)) {
				continue
			}
			if blockedByBusy(slot, p.Busy, buffer) {
				continue
			}
			if overlapsAny(slot, accepted) {
				continue
			}
			accepted = append(accepted, slot)
		}
	}
	return dedupeSorted(accepted)
}

// alignUp rounds t up to the next ScanStep boundary.
func alignUp(t time.Time) time.Time {
	a := t.Truncate(ScanStep)
	if a.Before(t) {
		a = a.Add(ScanStep)
	}
	return a
}

// wallClock returns minute-of-day m on local's calendar date.
func wallClock(local time.Time, m int, loc *time.Location) time.Time {
	return time.Date(local.Year(), local.Month(), local.Day(), m/60, m%60, 0, 0, loc)
}

func blockedByBusy(slot models.Slot, busy []models.BusyInterval, buffer time.Duration) bool {
	for _, b := range busy {
		if !b.Blocking {
			continue
		}
		if slot.Start.Before(b.End.Add(buffer)) && b.Start.Add(-buffer).Before(slot.End) {
			return true
		}
	}
	return false
}

func overlapsAny(slot models.Slot, accepted []models.Slot) bool {
	for _, s := range accepted {
		if slot.Start.Before(s.End) && s.Start.Before(slot.End) {
			return true
		}
	}
	return false
}

func dedupeSorted(slots []models.Slot) []models.Slot {
	seen := make(map[int64]bool, len(slots))
	out := make([]models.Slot, 0, len(slots))
	for _, s := range slots {
		key := s.Start.UnixNano()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

// Generator fetches busy time and runs BuildSlots over it.
type Generator struct {
	Source calendar.BusySource
	Loc    *time.Location
	Now    func() time.Time
}

func NewGenerator(source calendar.BusySource, loc *time.Location) *Generator {
	return &Generator{Source: source, Loc: loc, Now: time.Now}
}

func (g *Generator) GenerateSlots(ctx context.Context, window models.TimeWindow, durationMins int, hours models.BusinessHours, bufferMins, leadTimeMins int) ([]models.Slot, error) {
	if window.Validate() != nil {
		return nil, nil
	}
	pad := time.Duration(bufferMins+durationMins) * time.Minute
	busy, err := g.Source.BusyIntervals(ctx, models.TimeWindow{From: window.From.Add(-pad), To: window.To.Add(pad)})
	if err != nil {
		return nil, fmt.Errorf("busy intervals: %w", err)
	}
	return BuildSlots(SlotParams{
		Window:       window,
		DurationMins: durationMins,
		Hours:        hours,
		BufferMins:   bufferMins,
		LeadTimeMins: leadTimeMins,
		Busy:         busy,
		Now:          g.Now(),
		Loc:          g.Loc,
	}), nil
}
