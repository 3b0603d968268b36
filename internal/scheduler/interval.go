package scheduler

import "time"

const (
	// DefaultEventMinutes is the synthesized length of an event without a usable end.
	DefaultEventMinutes = 60
	// DefaultExamMinutes is the synthesized length of an exam without a duration.
	DefaultExamMinutes = 90
	// DefaultPlannerMinutes is the synthesized length of a single-point planner item.
	DefaultPlannerMinutes = 60
)

// Interval is a concrete occupied time range. End is always after Start.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Duration reports the length of the interval.
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// NormalizeInterval returns [start, end) when end is present and after start,
// otherwise a one hour interval starting at start.
func NormalizeInterval(start time.Time, end *time.Time) Interval {
	return normalizeWithDefault(start, end, DefaultEventMinutes)
}

func normalizeWithDefault(start time.Time, end *time.Time, minutes int) Interval {
	if end != nil && end.After(start) {
		return Interval{Start: start, End: *end}
	}
	return Interval{Start: start, End: start.Add(time.Duration(minutes) * time.Minute)}
}

// PlannerAnchor identifies which planner timestamps determine the interval.
type PlannerAnchor int

const (
	// AnchorNone means the item carries no timestamp and takes no part in scheduling.
	AnchorNone PlannerAnchor = iota
	// AnchorRange means both start and due are present.
	AnchorRange
	// AnchorStart means only the start timestamp is used.
	AnchorStart
	// AnchorDue means only the due timestamp is used.
	AnchorDue
	// AnchorPlanned means only the planned-for timestamp is used.
	AnchorPlanned
)

// String implements fmt.Stringer.
func (a PlannerAnchor) String() string {
	switch a {
	case AnchorRange:
		return "range"
	case AnchorStart:
		return "start"
	case AnchorDue:
		return "due"
	case AnchorPlanned:
		return "planned"
	default:
		return "none"
	}
}

// PlannerTimes holds the three optional planner timestamps.
type PlannerTimes struct {
	StartAt    *time.Time
	DueAt      *time.Time
	PlannedFor *time.Time
}

// Anchor resolves which branch of the planner interval policy applies.
func (p PlannerTimes) Anchor() PlannerAnchor {
	switch {
	case p.StartAt != nil && p.DueAt != nil:
		return AnchorRange
	case p.StartAt != nil:
		return AnchorStart
	case p.DueAt != nil:
		return AnchorDue
	case p.PlannedFor != nil:
		return AnchorPlanned
	default:
		return AnchorNone
	}
}

// PlannerInterval derives the interval of a planner item. The boolean is false
// when no timestamp is set; such items must be skipped by callers.
func PlannerInterval(times PlannerTimes) (Interval, bool) {
	switch times.Anchor() {
	case AnchorRange:
		lo, hi := *times.StartAt, *times.DueAt
		if hi.Before(lo) {
			lo, hi = hi, lo
		}
		return normalizeWithDefault(lo, &hi, DefaultPlannerMinutes), true
	case AnchorStart:
		return normalizeWithDefault(*times.StartAt, nil, DefaultPlannerMinutes), true
	case AnchorDue:
		return normalizeWithDefault(*times.DueAt, nil, DefaultPlannerMinutes), true
	case AnchorPlanned:
		return normalizeWithDefault(*times.PlannedFor, nil, DefaultPlannerMinutes), true
	default:
		return Interval{}, false
	}
}

// ExamInterval derives [examDate, examDate+duration). A missing or
// non-positive duration falls back to DefaultExamMinutes.
func ExamInterval(examDate time.Time, durationMinutes *int) Interval {
	minutes := DefaultExamMinutes
	if durationMinutes != nil && *durationMinutes > 0 {
		minutes = *durationMinutes
	}
	return Interval{Start: examDate, End: examDate.Add(time.Duration(minutes) * time.Minute)}
}

// EventInterval derives the interval of a student event.
func EventInterval(startAt time.Time, endAt *time.Time) Interval {
	return normalizeWithDefault(startAt, endAt, DefaultEventMinutes)
}

// Overlaps reports whether a and b share any instant. Touching endpoints do
// not overlap.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}
