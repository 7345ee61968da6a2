package calendar

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"blueridge/models"
)

const icsStamp = "20060102T150405Z"

// Attendee is an ICS ATTENDEE entry.
type Attendee struct {
	Name  string
	Email string
}

// Invite is the data needed to render a standalone VEVENT.
type Invite struct {
	UID         string
	Start       time.Time
	End         time.Time
	Title       string
	Description string
	Location    string
	Organizer   string
	Attendees   []Attendee
	Stamp       time.Time
}

var icsEscaper = strings.NewReplacer(`\`, `\\`, "\r\n", `\n`, "\n", `\n`, ",", `\,`, ";", `\;`)

// EscapeText applies ICS TEXT escaping.
func EscapeText(s string) string {
	return icsEscaper.Replace(s)
}

func unescapeText(s string) string {
	return strings.NewReplacer(`\\`, `\`, `\n`, "\n", `\N`, "\n", `\,`, ",", `\;`, ";").Replace(s)
}

// BuildICS renders a VCALENDAR with one VEVENT using CRLF line endings.
func BuildICS(inv Invite) string {
	stamp := inv.Stamp
	if stamp.IsZero() {
		stamp = time.Now()
	}
	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//Blueridge AI//Booking//EN",
		"CALSCALE:GREGORIAN",
		"METHOD:REQUEST",
		"BEGIN:VEVENT",
		"UID:" + inv.UID,
		"DTSTAMP:" + stamp.UTC().Format(icsStamp),
		"DTSTART:" + inv.Start.UTC().Format(icsStamp),
		"DTEND:" + inv.End.UTC().Format(icsStamp),
		"SUMMARY:" + EscapeText(inv.Title),
	}
	if inv.Description != "" {
		lines = append(lines, "DESCRIPTION:"+EscapeText(inv.Description))
	}
	if inv.Location != "" {
		lines = append(lines, "LOCATION:"+EscapeText(inv.Location))
	}
	if inv.Organizer != "" {
		lines = append(lines, "ORGANIZER:mailto:"+inv.Organizer)
	}
	for _, at := range inv.Attendees {
		if at.Email == "" {
			continue
		}
		cn := at.Name
		if cn == "" {
			cn = at.Email
		}
		lines = append(lines, fmt.Sprintf("ATTENDEE;CN=%s:mailto:%s", EscapeText(cn), at.Email))
	}
	lines = append(lines, "END:VEVENT", "END:VCALENDAR")
	return strings.Join(lines, "\r\n") + "\r\n"
}

// ICSEvent is one parsed VEVENT.
type ICSEvent struct {
	UID          string
	Summary      string
	Status       string
	Transparency string
	Start        time.Time
	End          time.Time
}

// Interval converts the event to a BusyInterval.
func (e ICSEvent) Interval() models.BusyInterval {
	return models.BusyInterval{
		Start:    e.Start,
		End:      e.End,
		Blocking: IsBlocking(e.Status, e.Transparency),
		UID:      e.UID,
		Summary:  e.Summary,
	}
}

var icsLine = regexp.MustCompile(`^([A-Za-z0-9-]+)((?:;[^:]*)?):(.*)$`)

// ParseICS extracts VEVENTs from raw ICS text. Events without a usable
// DTSTART/DTEND are skipped; the count of skipped records is returned.
// Floating and date-only values are read in loc.
func ParseICS(raw string, loc *time.Location) ([]ICSEvent, int) {
	if loc == nil {
		loc = time.UTC
	}
	var (
		events  []ICSEvent
		skipped int
		cur     *ICSEvent
		bad     bool
	)
	for _, line := range unfold(raw) {
		switch {
		case strings.EqualFold(line, "BEGIN:VEVENT"):
			cur, bad = &ICSEvent{}, false
			continue
		case strings.EqualFold(line, "END:VEVENT"):
			if cur != nil {
				if bad || cur.Start.IsZero() || cur.End.IsZero() || !cur.End.After(cur.Start) {
					skipped++
				} else {
					events = append(events, *cur)
				}
			}
			cur = nil
			continue
		}
		if cur == nil {
			continue
		}
		m := icsLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		prop, params, value := strings.ToUpper(m[1]), m[2], strings.TrimSpace(m[3])
		switch prop {
		case "DTSTART", "DTEND":
			t, err := ParseICSTime(value, paramTZ(params, loc))
			if err != nil {
				bad = true
				continue
			}
			if prop == "DTSTART" {
				cur.Start = t
			} else {
				cur.End = t
			}
		case "UID":
			cur.UID = value
		case "SUMMARY":
			cur.Summary = unescapeText(value)
		case "STATUS":
			cur.Status = value
		case "TRANSP":
			cur.Transparency = value
		}
	}
	return events, skipped
}

func paramTZ(params string, def *time.Location) *time.Location {
	for _, p := range strings.Split(params, ";") {
		k, v, ok := strings.Cut(p, "=")
		if !ok || !strings.EqualFold(k, "TZID") {
			continue
		}
		if loc, err := time.LoadLocation(strings.Trim(v, `"`)); err == nil {
			return loc
		}
	}
	return def
}

// ParseICSTime handles 20250908, 20250908T143000Z, 20250908T143000-0500
// and floating 20250908T143000.
func ParseICSTime(v string, loc *time.Location) (time.Time, error) {
	switch {
	case len(v) == 8:
		return time.ParseInLocation("20060102", v, loc)
	case strings.HasSuffix(v, "Z"):
		return time.Parse(icsStamp, v)
	case len(v) == 20 && (v[15] == '+' || v[15] == '-'):
		return time.Parse("20060102T150405-0700", v)
	case len(v) == 15:
		return time.ParseInLocation("20060102T150405", v, loc)
	}
	return time.Time{}, fmt.Errorf("unsupported ICS time %q", v)
}

// unfold normalises line endings and joins RFC 5545 continuation lines.
// Lines have no length cap; the feed reader bounds the whole body.
func unfold(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		if (strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")) && len(out) > 0 {
			out[len(out)-1] += line[1:]
			continue
		}
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
