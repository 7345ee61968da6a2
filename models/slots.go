package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeWindow is a half-open [From, To) range of instants.
type TimeWindow struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

var ErrInvalidWindow = errors.New("invalid range")

func (w TimeWindow) Validate() error {
	if !w.From.Before(w.To) {
		return ErrInvalidWindow
	}
	return nil
}

// Overlaps reports whether [start, end) intersects the window.
func (w TimeWindow) Overlaps(start, end time.Time) bool {
	return start.Before(w.To) && end.After(w.From)
}

// MinuteWindow is an opening window in minutes from local midnight.
type MinuteWindow struct {
	Start int `json:"start"` // e.g. 540 for 09:00
	End   int `json:"end"`
}

// BusinessHours maps weekday keys (mon..sun) to "HH:MM-HH:MM" windows.
// An empty list means closed that day.
type BusinessHours map[string][]string

var weekdayKeys = [...]string{"sun", "mon", "tue", "wed", "thu", "fri", "sat"}

// WeekdayKey returns the business-hours key for a weekday.
func WeekdayKey(d time.Weekday) string {
	return weekdayKeys[d]
}

// ParseWindows returns the well-formed windows configured for day, in order.
// Malformed entries are skipped.
func (b BusinessHours) ParseWindows(day time.Weekday) []MinuteWindow {
	var out []MinuteWindow
	for _, raw := range b[WeekdayKey(day)] {
		w, err := ParseMinuteWindow(raw)
		if err != nil {
			continue
		}
		out = append(out, w)
	}
	return out
}

// Validate rejects unknown day keys and malformed windows.
func (b BusinessHours) Validate() error {
	for key, windows := range b {
		known := false
		for _, k := range weekdayKeys {
			if k == key {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("business hours: unknown day %q", key)
		}
		for _, raw := range windows {
			if _, err := ParseMinuteWindow(raw); err != nil {
				return fmt.Errorf("business hours %s: %w", key, err)
			}
		}
	}
	return nil
}

// ParseMinuteWindow parses "HH:MM-HH:MM".
func ParseMinuteWindow(raw string) (MinuteWindow, error) {
	parts := strings.Split(strings.TrimSpace(raw), "-")
	if len(parts) != 2 {
		return MinuteWindow{}, fmt.Errorf("malformed window %q", raw)
	}
	start, err := parseClock(parts[0])
	if err != nil {
		return MinuteWindow{}, fmt.Errorf("malformed window %q: %w", raw, err)
	}
	end, err := parseClock(parts[1])
	if err != nil {
		return MinuteWindow{}, fmt.Errorf("malformed window %q: %w", raw, err)
	}
	if end <= start {
		return MinuteWindow{}, fmt.Errorf("window %q ends before it starts", raw)
	}
	return MinuteWindow{Start: start, End: end}, nil
}

func parseClock(s string) (int, error) {
	hm := strings.Split(strings.TrimSpace(s), ":")
	if len(hm) != 2 {
		return 0, fmt.Errorf("bad clock %q", s)
	}
	h, err := strconv.Atoi(hm[0])
	if err != nil || h < 0 || h > 24 {
		return 0, fmt.Errorf("bad hour %q", s)
	}
	m, err := strconv.Atoi(hm[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("bad minute %q", s)
	}
	if h == 24 && m != 0 {
		return 0, fmt.Errorf("bad clock %q", s)
	}
	return h*60 + m, nil
}

// BusyInterval is a calendar entry occupying [Start, End).
type BusyInterval struct {
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Blocking bool      `json:"blocking"`
	UID      string    `json:"uid,omitempty"`
	Summary  string    `json:"summary,omitempty"`
}

// Slot is a bookable [Start, End) pair.
type Slot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// StartISO renders the slot start as an ISO-8601 UTC string.
func (s Slot) StartISO() string {
	return FormatISO(s.Start)
}

// FormatISO renders t the way every API response does.
func FormatISO(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// ParseISO accepts RFC 3339 timestamps with or without fractional seconds.
func ParseISO(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, nil
	}
	// date-time without offset is read as UTC
	if t, err := time.Parse("2006-01-02T15:04:05", raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02T15:04", raw); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", raw)
}

// StartISOs flattens slots into their ISO start strings.
func StartISOs(slots []Slot) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.StartISO())
	}
	return out
}
