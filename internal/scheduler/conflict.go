package scheduler

import (
	"sort"
	"time"

	"github.com/example/study-planner/internal/recurrence"
)

// TimestampLayout is the ISO-8601 UTC form used for conflict timestamps. Its
// fixed width keeps lexicographic order equal to chronological order.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// QueryPadding widens the fetch window around a candidate interval.
const QueryPadding = 24 * time.Hour

// Source tags the entity kind that produced a conflict.
type Source string

const (
	SourceClass   Source = "CLASS"
	SourcePlanner Source = "PLANNER"
	SourceEvent   Source = "EVENT"
	SourceExam    Source = "EXAM"
)

// Session is a weekly class session as seen by the detector.
type Session struct {
	ID        string
	Title     string
	Weekday   recurrence.Weekday
	StartTime recurrence.ClockTime
	EndTime   recurrence.ClockTime
}

// PlannerItem is a planner entry as seen by the detector.
type PlannerItem struct {
	ID    string
	Title string
	Times PlannerTimes
}

// Exam is an exam as seen by the detector.
type Exam struct {
	ID              string
	Title           string
	ExamDate        time.Time
	DurationMinutes *int
}

// Event is a student event as seen by the detector.
type Event struct {
	ID      string
	Title   string
	StartAt time.Time
	EndAt   *time.Time
}

// Snapshot holds the rows fetched for a single conflict check.
type Snapshot struct {
	Sessions     []Session
	PlannerItems []PlannerItem
	Events       []Event
	Exams        []Exam
}

// ConflictItem describes a stored entity overlapping the candidate interval.
type ConflictItem struct {
	Source  Source `json:"source"`
	ID      string `json:"id"`
	Title   string `json:"title"`
	StartAt string `json:"startAt"`
	EndAt   string `json:"endAt"`
}

// QueryWindow returns the padded [from, to] range used to fetch rows that may
// overlap candidate.
func QueryWindow(candidate Interval) (time.Time, time.Time) {
	return candidate.Start.Add(-QueryPadding), candidate.End.Add(QueryPadding)
}

// CandidateWeekday is the UTC weekday of the candidate start; only sessions on
// that weekday can conflict.
func CandidateWeekday(candidate Interval) recurrence.Weekday {
	return recurrence.WeekdayOf(candidate.Start.UTC().Weekday())
}

// DetectConflicts compares the candidate against every entity in snapshot and
// returns the overlapping ones sorted by start timestamp.
//
// Preconditions: candidate carries parsed, non-zero timestamps. The snapshot
// is expected to be owner scoped already; no filtering by owner happens here.
func DetectConflicts(candidate Interval, snapshot Snapshot) []ConflictItem {
	end := candidate.End
	candidate = NormalizeInterval(candidate.Start, &end)

	conflicts := make([]ConflictItem, 0)

	weekday := CandidateWeekday(candidate)
	startUTC := candidate.Start.UTC()
	candidateStart := startUTC.Hour()*60 + startUTC.Minute()
	candidateEnd := candidateStart + int(candidate.Duration()/time.Minute)

	for _, session := range snapshot.Sessions {
		if session.Weekday != weekday {
			continue
		}
		sessionStart := session.StartTime.Minutes()
		sessionEnd := session.EndTime.Minutes()
		if sessionStart < candidateEnd && candidateStart < sessionEnd {
			conflicts = append(conflicts, newConflict(SourceClass, session.ID, session.Title, Interval{
				Start: session.StartTime.On(startUTC),
				End:   session.EndTime.On(startUTC),
			}))
		}
	}

	for _, item := range snapshot.PlannerItems {
		interval, ok := PlannerInterval(item.Times)
		if !ok {
			continue
		}
		if Overlaps(candidate, interval) {
			conflicts = append(conflicts, newConflict(SourcePlanner, item.ID, item.Title, interval))
		}
	}

	for _, event := range snapshot.Events {
		interval := EventInterval(event.StartAt, event.EndAt)
		if Overlaps(candidate, interval) {
			conflicts = append(conflicts, newConflict(SourceEvent, event.ID, event.Title, interval))
		}
	}

	for _, exam := range snapshot.Exams {
		interval := ExamInterval(exam.ExamDate, exam.DurationMinutes)
		if Overlaps(candidate, interval) {
			conflicts = append(conflicts, newConflict(SourceExam, exam.ID, exam.Title, interval))
		}
	}

	sort.SliceStable(conflicts, func(i, j int) bool {
		return conflicts[i].StartAt < conflicts[j].StartAt
	})

	return conflicts
}

func newConflict(source Source, id, title string, interval Interval) ConflictItem {
	return ConflictItem{
		Source:  source,
		ID:      id,
		Title:   title,
		StartAt: FormatTimestamp(interval.Start),
		EndAt:   FormatTimestamp(interval.End),
	}
}

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
