package calendar

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscapeText(t *testing.T) {
	assert.Equal(t, `a\\b\nc\,d\;e`, EscapeText("a\\b\nc,d;e"))
	assert.Equal(t, "plain", EscapeText("plain"))
}

func TestBuildICS(t *testing.T) {
	start := time.Date(2025, 9, 8, 14, 30, 0, 0, time.UTC)
	ics := BuildICS(Invite{
		UID:         "abc-123",
		Start:       start,
		End:         start.Add(30 * time.Minute),
		Title:       "Consultation with Ann, Co",
		Description: "Notes: call me; soon",
		Location:    "Online",
		Organizer:   "owner@example.com",
		Attendees:   []Attendee{{Name: "Ann", Email: "ann@example.com"}, {Email: "bob@example.com"}},
		Stamp:       start.Add(-time.Hour),
	})

	assert.True(t, strings.HasPrefix(ics, "BEGIN:VCALENDAR\r\nVERSION:2.0\r\n"))
	assert.Contains(t, ics, "UID:abc-123\r\n")
	assert.Contains(t, ics, "DTSTAMP:20250908T133000Z\r\n")
	assert.Contains(t, ics, "DTSTART:20250908T143000Z\r\n")
	assert.Contains(t, ics, "DTEND:20250908T150000Z\r\n")
	assert.Contains(t, ics, `SUMMARY:Consultation with Ann\, Co`)
	assert.Contains(t, ics, `DESCRIPTION:Notes: call me\; soon`)
	assert.Contains(t, ics, "ATTENDEE;CN=Ann:mailto:ann@example.com")
	assert.Contains(t, ics, "ATTENDEE;CN=bob@example.com:mailto:bob@example.com")
	assert.True(t, strings.HasSuffix(ics, "END:VEVENT\r\nEND:VCALENDAR\r\n"))
	assert.NotContains(t, strings.ReplaceAll(ics, "\r\n", ""), "\n")
}

func TestParseICS(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	raw := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"BEGIN:VEVENT",
		"UID:utc",
		"DTSTART:20250908T140000Z",
		"DTEND:20250908T143000Z",
		"SUMMARY:Stand\\, up",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:offset",
		"DTSTART:20250908T100000-0500",
		"DTEND:20250908T110000-0500",
		"TRANSP:TRANSPARENT",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:floating",
		"DTSTART;TZID=America/New_York:20250909T090000",
		"DTEND;TZID=America/New_York:20250909T093000",
		"STATUS:CANCELLED",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:allday",
		"DTSTART;VALUE=DATE:20250910",
		"DTEND;VALUE=DATE:20250911",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:corrupt",
		"DTSTART:not-a-date",
		"DTEND:20250908T143000Z",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:folded-",
		" summary",
		"DTSTART:20250911T140000Z",
		"END:VEVENT",
		"END:VCALENDAR",
	}, "\r\n")

	events, skipped := ParseICS(raw, ny)
	require.Len(t, events, 4)
	assert.Equal(t, 2, skipped)

	assert.Equal(t, "utc", events[0].UID)
	assert.Equal(t, "Stand, up", events[0].Summary)
	assert.True(t, events[0].Interval().Blocking)

	assert.Equal(t, time.Date(2025, 9, 8, 15, 0, 0, 0, time.UTC), events[1].Start.UTC())
	assert.False(t, events[1].Interval().Blocking)

	assert.Equal(t, time.Date(2025, 9, 9, 13, 0, 0, 0, time.UTC), events[2].Start.UTC())
	assert.False(t, events[2].Interval().Blocking)

	assert.Equal(t, time.Date(2025, 9, 10, 0, 0, 0, 0, ny), events[3].Start)
	assert.Equal(t, 24*time.Hour, events[3].End.Sub(events[3].Start))
}

func TestIsBlocking(t *testing.T) {
	assert.True(t, IsBlocking("confirmed", "opaque"))
	assert.True(t, IsBlocking("", ""))
	assert.False(t, IsBlocking("CANCELLED", ""))
	assert.False(t, IsBlocking("cancelled", "opaque"))
	assert.False(t, IsBlocking("confirmed", "Transparent"))
}

func TestParseICSLongLine(t *testing.T) {
	raw := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"BEGIN:VEVENT",
		"UID:big",
		"DTSTART:20250908T140000Z",
		"DTEND:20250908T150000Z",
		"DESCRIPTION:" + strings.Repeat("x", 2<<20),
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:after",
		"DTSTART:20250909T140000Z",
		"DTEND:20250909T150000Z",
		"END:VEVENT",
		"END:VCALENDAR",
	}, "\r\n")

	events, skipped := ParseICS(raw, time.UTC)
	assert.Zero(t, skipped)
	require.Len(t, events, 2)
	assert.Equal(t, "big", events[0].UID)
	assert.Equal(t, "after", events[1].UID)
}
