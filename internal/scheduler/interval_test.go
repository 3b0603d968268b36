package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(hour, minute int) time.Time {
	return time.Date(2024, time.March, 4, hour, minute, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }

func TestOverlaps(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	span := func(from, to int) Interval {
		return Interval{Start: base.Add(time.Duration(from) * time.Minute), End: base.Add(time.Duration(to) * time.Minute)}
	}

	cases := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"touching endpoints", span(0, 10), span(10, 20), false},
		{"disjoint", span(0, 10), span(30, 40), false},
		{"partial", span(0, 10), span(5, 15), true},
		{"contained", span(0, 60), span(10, 20), true},
		{"identical", span(0, 10), span(0, 10), true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, Overlaps(tc.a, tc.b))
			assert.Equal(t, Overlaps(tc.a, tc.b), Overlaps(tc.b, tc.a), "overlap must be symmetric")
		})
	}
}

func TestNormalizeInterval(t *testing.T) {
	t.Parallel()

	start := at(9, 0)
	assert.Equal(t, Interval{Start: start, End: at(10, 0)}, NormalizeInterval(start, nil))
	assert.Equal(t, Interval{Start: start, End: at(9, 15)}, NormalizeInterval(start, ptr(at(9, 15))))
	assert.Equal(t, Interval{Start: start, End: at(10, 0)}, NormalizeInterval(start, ptr(start)))
	assert.Equal(t, Interval{Start: start, End: at(10, 0)}, NormalizeInterval(start, ptr(at(8, 0))))
}

func TestDefaultDurations(t *testing.T) {
	t.Parallel()

	start := at(9, 0)
	assert.Equal(t, 60*time.Minute, EventInterval(start, nil).Duration())
	assert.Equal(t, 60*time.Minute, EventInterval(start, ptr(start.Add(-time.Minute))).Duration())
	assert.Equal(t, 30*time.Minute, EventInterval(start, ptr(at(9, 30))).Duration())

	assert.Equal(t, 90*time.Minute, ExamInterval(start, nil).Duration())
	assert.Equal(t, 90*time.Minute, ExamInterval(start, ptr(0)).Duration())
	assert.Equal(t, 120*time.Minute, ExamInterval(start, ptr(120)).Duration())
}

func TestPlannerInterval(t *testing.T) {
	t.Parallel()

	s := at(9, 0)
	d := at(11, 0)
	p := at(14, 0)

	t.Run("no timestamps yields no interval", func(t *testing.T) {
		t.Parallel()
		_, ok := PlannerInterval(PlannerTimes{})
		assert.False(t, ok)
		assert.Equal(t, AnchorNone, PlannerTimes{}.Anchor())
	})

	t.Run("planned only", func(t *testing.T) {
		t.Parallel()
		got, ok := PlannerInterval(PlannerTimes{PlannedFor: &p})
		assert.True(t, ok)
		assert.Equal(t, Interval{Start: p, End: p.Add(time.Hour)}, got)
	})

	t.Run("start after due collapses to min max", func(t *testing.T) {
		t.Parallel()
		got, ok := PlannerInterval(PlannerTimes{StartAt: &d, DueAt: &s})
		assert.True(t, ok)
		assert.Equal(t, Interval{Start: s, End: d}, got)
	})

	t.Run("equal start and due gets the default length", func(t *testing.T) {
		t.Parallel()
		got, ok := PlannerInterval(PlannerTimes{StartAt: &s, DueAt: &s})
		assert.True(t, ok)
		assert.Equal(t, Interval{Start: s, End: s.Add(time.Hour)}, got)
	})

	t.Run("start wins over due-less planned", func(t *testing.T) {
		t.Parallel()
		got, ok := PlannerInterval(PlannerTimes{StartAt: &s, PlannedFor: &p})
		assert.True(t, ok)
		assert.Equal(t, AnchorStart, PlannerTimes{StartAt: &s, PlannedFor: &p}.Anchor())
		assert.Equal(t, Interval{Start: s, End: s.Add(time.Hour)}, got)
	})

	t.Run("due wins over planned", func(t *testing.T) {
		t.Parallel()
		got, ok := PlannerInterval(PlannerTimes{DueAt: &d, PlannedFor: &p})
		assert.True(t, ok)
		assert.Equal(t, AnchorDue, PlannerTimes{DueAt: &d, PlannedFor: &p}.Anchor())
		assert.Equal(t, Interval{Start: d, End: d.Add(time.Hour)}, got)
	})
}
