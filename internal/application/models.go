package application

import (
	"time"

	"github.com/example/study-planner/internal/persistence"
)

// Principal identifies the owner on whose behalf a service method runs.
type Principal struct {
	UserID string
}

// Planner item enumerations.
const (
	StatusTodo       = "TODO"
	StatusInProgress = "IN_PROGRESS"
	StatusDone       = "DONE"

	PriorityLow    = "LOW"
	PriorityMedium = "MEDIUM"
	PriorityHigh   = "HIGH"

	CadenceNone    = "NONE"
	CadenceDaily   = "DAILY"
	CadenceWeekly  = "WEEKLY"
	CadenceMonthly = "MONTHLY"
)

// ConflictOptions excludes the entry being edited from a conflict check.
type ConflictOptions struct {
	IgnorePlannerID string
	IgnoreExamID    string
	IgnoreEventID   string
}

// PlannerItemInput captures caller provided planner item fields.
type PlannerItemInput struct {
	SemesterID     *string
	CourseID       *string
	Title          string
	Notes          *string
	Status         string
	Priority       string
	Cadence        string
	StartAt        *time.Time
	DueAt          *time.Time
	PlannedFor     *time.Time
	AllowConflicts bool
}

// CreatePlannerItemParams wraps the data required to create a planner item.
type CreatePlannerItemParams struct {
	Principal Principal
	Input     PlannerItemInput
}

// UpdatePlannerItemParams wraps the data required to replace a planner item.
type UpdatePlannerItemParams struct {
	Principal Principal
	ID        string
	Input     PlannerItemInput
}

// ExamInput captures caller provided exam fields.
type ExamInput struct {
	SemesterID      *string
	CourseID        *string
	Title           string
	Location        *string
	Notes           *string
	ExamDate        time.Time
	DurationMinutes *int
	AllowConflicts  bool
}

// CreateExamParams wraps the data required to create an exam.
type CreateExamParams struct {
	Principal Principal
	Input     ExamInput
}

// UpdateExamParams wraps the data required to replace an exam.
type UpdateExamParams struct {
	Principal Principal
	ID        string
	Input     ExamInput
}

// EventInput captures caller provided event fields.
type EventInput struct {
	Title          string
	Description    *string
	Location       *string
	StartAt        time.Time
	EndAt          *time.Time
	AllowConflicts bool
}

// CreateEventParams wraps the data required to create an event.
type CreateEventParams struct {
	Principal Principal
	Input     EventInput
}

// UpdateEventParams wraps the data required to replace an event.
type UpdateEventParams struct {
	Principal Principal
	ID        string
	Input     EventInput
}

// DeleteParams identifies an owned record to remove.
type DeleteParams struct {
	Principal Principal
	ID        string
}

// SemesterInput captures caller provided semester fields.
type SemesterInput struct {
	Name     string
	StartsOn time.Time
	EndsOn   time.Time
}

// SessionInput is one weekly session of a course being created.
type SessionInput struct {
	Weekday   string
	StartTime string
	EndTime   string
	Room      *string
}

// CourseInput captures caller provided course fields.
type CourseInput struct {
	SemesterID *string
	Code       string
	Title      string
	Instructor *string
	Color      *string
	Sessions   []SessionInput
}

// ListCoursesParams narrows a course listing.
type ListCoursesParams struct {
	Principal  Principal
	SemesterID *string
	Weekday    *string
	Query      string
}

// CalendarParams describes a calendar view request. From and To are inclusive.
type CalendarParams struct {
	Principal  Principal
	From       time.Time
	To         time.Time
	SemesterID *string
	CourseID   *string
	Status     *string
	Query      string
}

// CalendarView holds the raw entries intersecting a calendar range. Sessions
// are weekly rules, not dated occurrences.
type CalendarView struct {
	PlannerItems []persistence.PlannerItem
	Exams        []persistence.Exam
	Events       []persistence.StudentEvent
	Sessions     []persistence.SessionWithCourse
}
