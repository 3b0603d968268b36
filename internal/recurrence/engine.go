package recurrence

import (
	"errors"
	"sort"
	"time"
)

// SessionRule is one weekly class session: a weekday plus a wall-clock range.
type SessionRule struct {
	ID        string
	CourseID  string
	Course    string
	Weekday   Weekday
	StartTime ClockTime
	EndTime   ClockTime
	Room      *string
}

// Occurrence is a session rule placed on a concrete calendar date.
type Occurrence struct {
	SessionID string
	CourseID  string
	Course    string
	Date      time.Time
	StartTime ClockTime
	EndTime   ClockTime
	Room      *string
	Start     time.Time
	End       time.Time
}

var (
	// ErrInvalidRange indicates the expansion window ends before it starts.
	ErrInvalidRange = errors.New("recurrence: range end precedes range start")
	// ErrRangeTooLarge indicates the expansion window exceeds the engine bound.
	ErrRangeTooLarge = errors.New("recurrence: range exceeds the expansion limit")
)

// Engine expands weekly session rules into dated occurrences. All dates are
// UTC calendar days.
type Engine struct {
	maxDays int
}

// NewEngine constructs an Engine. maxDays bounds the number of days walked per
// expansion; zero or less means no bound.
func NewEngine(maxDays int) *Engine {
	return &Engine{maxDays: maxDays}
}

// Days lists every UTC calendar day from the day of from to the day of to,
// inclusive.
func Days(from, to time.Time) []time.Time {
	start := startOfDay(from)
	end := startOfDay(to)
	if end.Before(start) {
		return nil
	}
	days := make([]time.Time, 0, int(end.Sub(start).Hours()/24)+1)
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		days = append(days, day)
	}
	return days
}

// ExpandSessions walks each day in [from, to] and emits one occurrence for
// every rule whose weekday matches that day. Results are ordered by date, then
// start time, then rule order.
func (e *Engine) ExpandSessions(rules []SessionRule, from, to time.Time) ([]Occurrence, error) {
	if to.Before(from) {
		return nil, ErrInvalidRange
	}
	days := Days(from, to)
	if e != nil && e.maxDays > 0 && len(days) > e.maxDays {
		return nil, ErrRangeTooLarge
	}

	byDay := make(map[time.Weekday][]int, 7)
	for i, rule := range rules {
		if !rule.Weekday.Valid() {
			continue
		}
		idx := rule.Weekday.Index()
		byDay[idx] = append(byDay[idx], i)
	}

	occurrences := make([]Occurrence, 0)
	for _, day := range days {
		matches := byDay[day.Weekday()]
		if len(matches) == 0 {
			continue
		}
		dayOccurrences := make([]Occurrence, 0, len(matches))
		for _, i := range matches {
			rule := rules[i]
			dayOccurrences = append(dayOccurrences, Occurrence{
				SessionID: rule.ID,
				CourseID:  rule.CourseID,
				Course:    rule.Course,
				Date:      day,
				StartTime: rule.StartTime,
				EndTime:   rule.EndTime,
				Room:      rule.Room,
				Start:     rule.StartTime.On(day),
				End:       rule.EndTime.On(day),
			})
		}
		sort.SliceStable(dayOccurrences, func(i, j int) bool {
			return dayOccurrences[i].StartTime.Minutes() < dayOccurrences[j].StartTime.Minutes()
		})
		occurrences = append(occurrences, dayOccurrences...)
	}

	return occurrences, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
