package nlp

import (
	"regexp"
	"time"

	"blueridge/models"
)

// DayKind says how a target day was expressed.
type DayKind int

const (
	DayNone DayKind = iota
	DayToday
	DayTomorrow
	DayWeekday
)

// Target is a resolved calendar date in the business timezone.
type Target struct {
	Kind    DayKind
	Weekday string    // lower-case name when Kind == DayWeekday
	Date    time.Time // local midnight
}

func (t Target) Found() bool { return t.Kind != DayNone }

var (
	todayRe    = regexp.MustCompile(`(?i)\btoday\b`)
	tomorrowRe = regexp.MustCompile(`(?i)\btomorrow\b`)
	weekdayRes = func() []*regexp.Regexp {
		out := make([]*regexp.Regexp, len(weekdayNames))
		for i, n := range weekdayNames {
			out[i] = regexp.MustCompile(`(?i)\b` + n + `\b`)
		}
		return out
	}()
)

var weekdayNames = [...]string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

// MentionedWeekday returns the first weekday named in text, scanning
// Sunday through Saturday.
func MentionedWeekday(text string) (time.Weekday, string, bool) {
	for i, re := range weekdayRes {
		if re.MatchString(text) {
			return time.Weekday(i), weekdayNames[i], true
		}
	}
	return 0, "", false
}

// LocalMidnight returns 00:00 of t's calendar date in loc.
func LocalMidnight(t time.Time, loc *time.Location) time.Time {
	l := t.In(loc)
	return time.Date(l.Year(), l.Month(), l.Day(), 0, 0, 0, 0, loc)
}

// ResolveDay maps "today", "tomorrow" or a bare weekday onto a date.
// A weekday equal to today's resolves to the following week.
func ResolveDay(text string, now time.Time, loc *time.Location) Target {
	today := LocalMidnight(now, loc)
	switch {
	case tomorrowRe.MatchString(text):
		return Target{Kind: DayTomorrow, Date: today.AddDate(0, 0, 1)}
	case todayRe.MatchString(text):
		return Target{Kind: DayToday, Date: today}
	}
	wd, name, ok := MentionedWeekday(text)
	if !ok {
		return Target{}
	}
	return Target{Kind: DayWeekday, Weekday: name, Date: NextWeekday(wd, now, loc)}
}

// NextWeekday is local midnight of the next wd strictly after today.
func NextWeekday(wd time.Weekday, now time.Time, loc *time.Location) time.Time {
	today := LocalMidnight(now, loc)
	days := (int(wd) - int(today.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	return today.AddDate(0, 0, days)
}

// WideWindow brackets a local date generously so offset and DST
// differences never push the day out of the query.
func WideWindow(date time.Time) models.TimeWindow {
	return models.TimeWindow{From: date.Add(-12 * time.Hour), To: date.Add(36 * time.Hour)}
}

// DayWindow is exactly the local calendar day starting at date.
func DayWindow(date time.Time) models.TimeWindow {
	return models.TimeWindow{From: date, To: date.AddDate(0, 0, 1)}
}

// SameDate reports whether t falls on date's calendar day in loc.
func SameDate(t, date time.Time, loc *time.Location) bool {
	a, b := t.In(loc), date.In(loc)
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// OnDate keeps the slots starting on date's calendar day.
func OnDate(slots []models.Slot, date time.Time, loc *time.Location) []models.Slot {
	var out []models.Slot
	for _, s := range slots {
		if SameDate(s.Start, date, loc) {
			out = append(out, s)
		}
	}
	return out
}

// LongDate renders "Monday, September 8, 2025".
func LongDate(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("Monday, January 2, 2006")
}

// DayLabel renders "Monday, September 8".
func DayLabel(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("Monday, January 2")
}

// Clock renders "2:00 PM".
func Clock(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("3:04 PM")
}

// LastUserText returns the content of the latest user turn.
func LastUserText(turns []models.ConversationTurn) string {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == models.RoleUser {
			return turns[i].Content
		}
	}
	return ""
}
