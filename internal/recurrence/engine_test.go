package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestParseWeekday(t *testing.T) {
	t.Parallel()

	day, err := ParseWeekday(" monday ")
	require.NoError(t, err)
	assert.Equal(t, Monday, day)
	assert.Equal(t, time.Monday, day.Index())

	_, err = ParseWeekday("FUNDAY")
	assert.ErrorIs(t, err, ErrInvalidWeekday)
}

func TestWeekdayTableMatchesDayOfWeekNumbering(t *testing.T) {
	t.Parallel()

	expected := map[Weekday]int{
		Sunday: 0, Monday: 1, Tuesday: 2, Wednesday: 3, Thursday: 4, Friday: 5, Saturday: 6,
	}
	for day, index := range expected {
		assert.Equal(t, index, int(day.Index()), string(day))
		assert.Equal(t, day, WeekdayOf(time.Weekday(index)))
	}
}

func TestParseClock(t *testing.T) {
	t.Parallel()

	c, err := ParseClock("09:30")
	require.NoError(t, err)
	assert.Equal(t, 570, c.Minutes())
	assert.Equal(t, "09:30", c.String())

	for _, bad := range []string{"", "9", "25:00", "10:61", "10-30"} {
		_, err := ParseClock(bad)
		assert.ErrorIs(t, err, ErrInvalidClock, bad)
	}
}

func TestClockOnUsesUTCDay(t *testing.T) {
	t.Parallel()

	tokyo := time.FixedZone("JST", 9*60*60)
	// 2024-03-05 02:00 JST is 2024-03-04 17:00 UTC.
	day := time.Date(2024, time.March, 5, 2, 0, 0, 0, tokyo)
	got := MustParseClock("09:00").On(day)
	assert.Equal(t, time.Date(2024, time.March, 4, 9, 0, 0, 0, time.UTC), got)
}

func TestEngine_ExpandSessions(t *testing.T) {
	t.Parallel()

	monday := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)

	t.Run("two mondays in a fourteen day range", func(t *testing.T) {
		t.Parallel()

		rule := SessionRule{
			ID:        "session-1",
			CourseID:  "course-1",
			Course:    "Linear Algebra",
			Weekday:   Monday,
			StartTime: MustParseClock("09:00"),
			EndTime:   MustParseClock("10:30"),
			Room:      strPtr("B-204"),
		}

		got, err := NewEngine(0).ExpandSessions([]SessionRule{rule}, monday, monday.AddDate(0, 0, 13))
		require.NoError(t, err)
		require.Len(t, got, 2)

		assert.Equal(t, monday, got[0].Date)
		assert.Equal(t, monday.AddDate(0, 0, 7), got[1].Date)
		for _, occ := range got {
			assert.Equal(t, "session-1", occ.SessionID)
			assert.Equal(t, "09:00", occ.StartTime.String())
			assert.Equal(t, "10:30", occ.EndTime.String())
			require.NotNil(t, occ.Room)
			assert.Equal(t, "B-204", *occ.Room)
			assert.Equal(t, occ.Date.Add(9*time.Hour), occ.Start)
			assert.Equal(t, occ.Date.Add(10*time.Hour+30*time.Minute), occ.End)
		}
	})

	t.Run("range boundaries are inclusive calendar days", func(t *testing.T) {
		t.Parallel()

		rule := SessionRule{ID: "s", Weekday: Wednesday, StartTime: MustParseClock("13:00"), EndTime: MustParseClock("14:00")}
		wednesdayLate := time.Date(2024, time.March, 6, 23, 0, 0, 0, time.UTC)
		got, err := NewEngine(0).ExpandSessions([]SessionRule{rule}, wednesdayLate, wednesdayLate.Add(time.Hour))
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, time.Date(2024, time.March, 6, 0, 0, 0, 0, time.UTC), got[0].Date)
	})

	t.Run("orders same-day occurrences by start time", func(t *testing.T) {
		t.Parallel()

		rules := []SessionRule{
			{ID: "late", Weekday: Friday, StartTime: MustParseClock("15:00"), EndTime: MustParseClock("16:00")},
			{ID: "early", Weekday: Friday, StartTime: MustParseClock("08:00"), EndTime: MustParseClock("09:00")},
			{ID: "monday", Weekday: Monday, StartTime: MustParseClock("10:00"), EndTime: MustParseClock("11:00")},
		}
		got, err := NewEngine(0).ExpandSessions(rules, monday, monday.AddDate(0, 0, 6))
		require.NoError(t, err)
		ids := make([]string, 0, len(got))
		for _, occ := range got {
			ids = append(ids, occ.SessionID)
		}
		assert.Equal(t, []string{"monday", "early", "late"}, ids)
	})

	t.Run("no matching weekday yields nothing", func(t *testing.T) {
		t.Parallel()

		rule := SessionRule{ID: "s", Weekday: Sunday, StartTime: MustParseClock("10:00"), EndTime: MustParseClock("11:00")}
		got, err := NewEngine(0).ExpandSessions([]SessionRule{rule}, monday, monday.AddDate(0, 0, 5))
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("rejects inverted and oversized ranges", func(t *testing.T) {
		t.Parallel()

		_, err := NewEngine(0).ExpandSessions(nil, monday, monday.Add(-time.Hour))
		assert.ErrorIs(t, err, ErrInvalidRange)

		_, err = NewEngine(7).ExpandSessions(nil, monday, monday.AddDate(0, 0, 30))
		assert.ErrorIs(t, err, ErrRangeTooLarge)
	})
}

func TestDays(t *testing.T) {
	t.Parallel()

	from := time.Date(2024, time.February, 27, 18, 0, 0, 0, time.UTC)
	to := time.Date(2024, time.March, 2, 1, 0, 0, 0, time.UTC)
	days := Days(from, to)
	require.Len(t, days, 5) // leap year: Feb 27, 28, 29, Mar 1, 2
	assert.Equal(t, 29, days[2].Day())
	assert.Nil(t, Days(to, from))
}
