package nlp

import (
	"regexp"
	"time"

	"blueridge/models"
)

// Segment is a time-of-day preference.
type Segment string

const (
	SegmentNone      Segment = ""
	SegmentMorning   Segment = "morning"
	SegmentAfternoon Segment = "afternoon"
	SegmentEvening   Segment = "evening"
)

var (
	explicitTimeRe = regexp.MustCompile(`(?i)\b\d{1,2}(?::\d{2})?\s*(am|pm)\b`)
	morningRe      = regexp.MustCompile(`(?i)(\bmorning\b|before\s*noon|early\s*(day|morning)?)`)
	afternoonRe    = regexp.MustCompile(`(?i)(\bafternoon\b|after\s*noon|mid\s*day|midday)`)
	eveningRe      = regexp.MustCompile(`(?i)(\bevening\b|after\s*work|late\s*(day|evening)?|\bnight\b)`)
)

// DetectSegment reads a segment from explicit words. A message carrying a
// concrete clock time is a selection, not a preference, and yields none.
func DetectSegment(text string) Segment {
	if text == "" || explicitTimeRe.MatchString(text) {
		return SegmentNone
	}
	switch {
	case morningRe.MatchString(text):
		return SegmentMorning
	case afternoonRe.MatchString(text):
		return SegmentAfternoon
	case eveningRe.MatchString(text):
		return SegmentEvening
	}
	return SegmentNone
}

// Bounds returns the segment's [from, to) local hours.
func (s Segment) Bounds() (int, int) {
	switch s {
	case SegmentMorning:
		return 9, 12
	case SegmentAfternoon:
		return 12, 17
	case SegmentEvening:
		return 17, 20
	}
	return 0, 24
}

// Contains reports whether t's local hour lies in the segment.
func (s Segment) Contains(t time.Time, loc *time.Location) bool {
	from, to := s.Bounds()
	h := t.In(loc).Hour()
	return h >= from && h < to
}

// LaterThan is the hour at which "later the same day" starts for a segment
// that came up empty.
func (s Segment) LaterThan() int {
	switch s {
	case SegmentMorning:
		return 12
	case SegmentAfternoon:
		return 17
	}
	return 0
}

// FilterSegment keeps slots inside the segment.
func FilterSegment(slots []models.Slot, s Segment, loc *time.Location) []models.Slot {
	if s == SegmentNone {
		return slots
	}
	var out []models.Slot
	for _, sl := range slots {
		if s.Contains(sl.Start, loc) {
			out = append(out, sl)
		}
	}
	return out
}

// FromHour keeps slots starting at or after the local hour h.
func FromHour(slots []models.Slot, h int, loc *time.Location) []models.Slot {
	var out []models.Slot
	for _, sl := range slots {
		if sl.Start.In(loc).Hour() >= h {
			out = append(out, sl)
		}
	}
	return out
}
