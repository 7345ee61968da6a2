package scheduling

import (
	"time"

	"blueridge/models"
)

// FabricateParams configures degraded slot synthesis.
type FabricateParams struct {
	From         time.Time
	DurationMins int
	Hours        models.BusinessHours
	LeadMins     int
	MaxSlots     int
	MaxDays      int
	Now          time.Time
	Loc          *time.Location
}

// Fabricate derives slots from business hours alone, ignoring busy data.
// It looks at most MaxDays ahead of From and returns at most MaxSlots.
func Fabricate(p FabricateParams) []models.Slot {
	if p.DurationMins <= 0 || p.MaxSlots <= 0 || p.MaxDays <= 0 {
		return nil
	}
	loc := p.Loc
	if loc == nil {
		loc = time.UTC
	}
	dur := time.Duration(p.DurationMins) * time.Minute
	earliest := p.Now.Add(time.Duration(p.LeadMins) * time.Minute)
	start := alignUp(p.From)
	endBy := start.Add(time.Duration(p.MaxDays) * 24 * time.Hour)

	var out []models.Slot
	for cursor := start; cursor.Before(endBy) && len(out) < p.MaxSlots; cursor = cursor.Add(ScanStep) {
		if cursor.Before(earliest) {
			continue
		}
		local := cursor.In(loc)
		minuteOfDay := local.Hour()*60 + local.Minute()
		for _, w := range p.Hours.ParseWindows(local.Weekday()) {
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
			if overlapsAny(slot, out) {
				continue
			}
			out = append(out, slot)
			break
		}
	}
	out = dedupeSorted(out)
	if len(out) > p.MaxSlots {
		out = out[:p.MaxSlots]
	}
	return out
}
