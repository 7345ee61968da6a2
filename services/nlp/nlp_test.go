package nlp

import (
	"testing"
	"time"

	"blueridge/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ny(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	return loc
}

func TestResolveDay(t *testing.T) {
	loc := ny(t)
	// Wednesday 23:30 in New York is already Thursday in UTC.
	now := time.Date(2025, 9, 10, 23, 30, 0, 0, loc)

	tests := []struct {
		text string
		kind DayKind
		want time.Time
	}{
		{"can we do tomorrow morning?", DayTomorrow, time.Date(2025, 9, 11, 0, 0, 0, 0, loc)},
		{"Today please", DayToday, time.Date(2025, 9, 10, 0, 0, 0, 0, loc)},
		{"how about friday", DayWeekday, time.Date(2025, 9, 12, 0, 0, 0, 0, loc)},
		{"Monday works", DayWeekday, time.Date(2025, 9, 15, 0, 0, 0, 0, loc)},
		{"wednesday?", DayWeekday, time.Date(2025, 9, 17, 0, 0, 0, 0, loc)},
	}
	for _, tc := range tests {
		got := ResolveDay(tc.text, now, loc)
		assert.Equal(t, tc.kind, got.Kind, tc.text)
		assert.True(t, tc.want.Equal(got.Date), "%s: got %s want %s", tc.text, got.Date, tc.want)
	}

	assert.False(t, ResolveDay("what do you offer?", now, loc).Found())
	assert.False(t, ResolveDay("someday", now, loc).Found())
}

func TestDetectSegment(t *testing.T) {
	assert.Equal(t, SegmentMorning, DetectSegment("tomorrow morning"))
	assert.Equal(t, SegmentMorning, DetectSegment("something before noon"))
	assert.Equal(t, SegmentAfternoon, DetectSegment("Thursday afternoon"))
	assert.Equal(t, SegmentEvening, DetectSegment("after work if possible"))
	assert.Equal(t, SegmentNone, DetectSegment("morning, say 10:30 am"))
	assert.Equal(t, SegmentNone, DetectSegment("any time"))
}

func TestTomorrowMorningFiltersToTargetDate(t *testing.T) {
	loc := ny(t)
	now := time.Date(2025, 9, 8, 15, 0, 0, 0, loc)
	text := "tomorrow morning"

	target := ResolveDay(text, now, loc)
	require.Equal(t, DayTomorrow, target.Kind)
	seg := DetectSegment(text)

	var slots []models.Slot
	for _, d := range []int{8, 9, 10} {
		for _, h := range []int{9, 11, 14} {
			s := time.Date(2025, 9, d, h, 0, 0, 0, loc)
			slots = append(slots, models.Slot{Start: s, End: s.Add(30 * time.Minute)})
		}
	}

	got := FilterSegment(OnDate(slots, target.Date, loc), seg, loc)
	require.Len(t, got, 2)
	for _, s := range got {
		local := s.Start.In(loc)
		assert.Equal(t, 9, local.Day())
		assert.True(t, local.Hour() >= 9 && local.Hour() < 12)
	}

	later := FromHour(OnDate(slots, target.Date, loc), seg.LaterThan(), loc)
	require.Len(t, later, 1)
	assert.Equal(t, 14, later[0].Start.In(loc).Hour())
}

func TestMatchSlot(t *testing.T) {
	loc := ny(t)
	two := time.Date(2025, 9, 9, 14, 0, 0, 0, loc)
	half := time.Date(2025, 9, 9, 14, 30, 0, 0, loc)
	offered := []models.Slot{{Start: two, End: two.Add(30 * time.Minute)}, {Start: half, End: half.Add(30 * time.Minute)}}

	s, ok := MatchSlot("2pm works", offered, loc)
	require.True(t, ok)
	assert.Equal(t, two, s.Start)

	s, ok = MatchSlot("Let's do 2:30 PM", offered, loc)
	require.True(t, ok)
	assert.Equal(t, half, s.Start)

	_, ok = MatchSlot("2:30", offered, loc)
	assert.False(t, ok)
	_, ok = MatchSlot("3pm", offered, loc)
	assert.False(t, ok)

	key, ok := TimeKey("12 PM please")
	require.True(t, ok)
	assert.Equal(t, "12:00pm", key)
	assert.Equal(t, []string{"12:00pm", "12pm"}, SlotKeys(time.Date(2025, 9, 9, 12, 0, 0, 0, loc), loc))
}

func TestGroupRanges(t *testing.T) {
	loc := ny(t)
	at := func(h, m int) models.Slot {
		s := time.Date(2025, 9, 9, h, m, 0, 0, loc)
		return models.Slot{Start: s, End: s.Add(30 * time.Minute)}
	}
	slots := []models.Slot{at(9, 0), at(9, 30), at(10, 0), at(11, 0), at(13, 0), at(13, 30), at(15, 0)}

	ranges := GroupRanges(slots, 3)
	require.Len(t, ranges, 3)
	assert.Equal(t, []string{"9:00 AM to 10:30 AM", "11:00 AM to 11:30 AM", "1:00 PM to 2:00 PM"}, FormatRanges(ranges, loc))
	assert.Len(t, GroupRanges(slots, 0), 4)
}

func TestDedupeCap(t *testing.T) {
	base := time.Date(2025, 9, 9, 13, 0, 0, 0, time.UTC)
	var slots []models.Slot
	for i := 0; i < 10; i++ {
		s := base.Add(time.Duration(i/2) * 30 * time.Minute)
		slots = append(slots, models.Slot{Start: s, End: s.Add(30 * time.Minute)})
	}
	got := DedupeCap(slots, 3)
	require.Len(t, got, 3)
	assert.Equal(t, base.Add(time.Hour), got[2].Start)
}

func TestIntentHeuristics(t *testing.T) {
	assert.True(t, LooksLikeSlots("I have 10:00 AM or 2:30 PM open"))
	assert.True(t, LooksLikeSlots("Here are some available times"))
	assert.False(t, LooksLikeSlots("We help businesses use AI"))

	assert.True(t, SchedulingIntent("can I book a call"))
	assert.True(t, SchedulingIntent("next Tuesday?"))
	assert.False(t, SchedulingIntent("what do you charge"))

	assert.True(t, AsksForContact("Could you share your name and email?"))
	assert.True(t, AsksForContact("Please provide your contact details."))
	assert.False(t, AsksForContact("Thanks!"))
}

func TestWideWindowCoversLocalDay(t *testing.T) {
	loc := ny(t)
	date := time.Date(2025, 11, 2, 0, 0, 0, 0, loc) // DST ends
	w := WideWindow(date)
	assert.True(t, w.From.Before(date))
	assert.True(t, w.To.After(date.AddDate(0, 0, 1)))
	assert.True(t, SameDate(time.Date(2025, 11, 2, 23, 59, 0, 0, loc), date, loc))
	assert.False(t, SameDate(time.Date(2025, 11, 3, 0, 0, 0, 0, loc), date, loc))
}
