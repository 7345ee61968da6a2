package nlp

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"blueridge/models"
)

var selectionRe = regexp.MustCompile(`(?i)\b(\d{1,2})(?::(\d{2}))?\s*(am|pm)\b`)

// TimeKey extracts the first clock time in text as "2:00pm".
func TimeKey(text string) (string, bool) {
	m := selectionRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	h, err := strconv.Atoi(m[1])
	if err != nil || h < 1 || h > 12 {
		return "", false
	}
	mm := m[2]
	if mm == "" {
		mm = "00"
	}
	return fmt.Sprintf("%d:%s%s", h, mm, strings.ToLower(m[3])), true
}

// SlotKeys are the spellings a user might pick a slot start with:
// "2:00pm" and, on the hour, "2pm".
func SlotKeys(t time.Time, loc *time.Location) []string {
	l := t.In(loc)
	h := l.Hour() % 12
	if h == 0 {
		h = 12
	}
	ampm := "am"
	if l.Hour() >= 12 {
		ampm = "pm"
	}
	keys := []string{fmt.Sprintf("%d:%02d%s", h, l.Minute(), ampm)}
	if l.Minute() == 0 {
		keys = append(keys, fmt.Sprintf("%d%s", h, ampm))
	}
	return keys
}

// MatchSlot finds the offered slot whose start the user's text names.
func MatchSlot(text string, offered []models.Slot, loc *time.Location) (models.Slot, bool) {
	key, ok := TimeKey(text)
	if !ok {
		return models.Slot{}, false
	}
	for _, s := range offered {
		for _, k := range SlotKeys(s.Start, loc) {
			if k == key {
				return s, true
			}
		}
	}
	return models.Slot{}, false
}

// Range is a run of back-to-back slots.
type Range struct {
	Start time.Time
	End   time.Time
}

// GroupRanges merges contiguous slots (one's end equals the next start)
// and returns at most limit ranges.
func GroupRanges(slots []models.Slot, limit int) []Range {
	var out []Range
	for i := 0; i < len(slots); {
		j := i
		for j+1 < len(slots) && slots[j].End.Equal(slots[j+1].Start) {
			j++
		}
		out = append(out, Range{Start: slots[i].Start, End: slots[j].End})
		i = j + 1
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// FormatRanges renders ranges as "9:00 AM to 10:30 AM".
func FormatRanges(ranges []Range, loc *time.Location) []string {
	out := make([]string, 0, len(ranges))
	for _, r := range ranges {
		out = append(out, Clock(r.Start, loc)+" to "+Clock(r.End, loc))
	}
	return out
}

// DedupeCap drops repeated starts and keeps the first limit slots.
func DedupeCap(slots []models.Slot, limit int) []models.Slot {
	seen := make(map[int64]bool, len(slots))
	out := make([]models.Slot, 0, limit)
	for _, s := range slots {
		if s.Start.IsZero() || seen[s.Start.UnixNano()] {
			continue
		}
		seen[s.Start.UnixNano()] = true
		out = append(out, s)
		if len(out) >= limit {
			break
		}
	}
	return out
}
