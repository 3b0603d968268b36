package persistence

import (
	"context"
	"time"
)

// TimeRange is an inclusive [From, To] window.
type TimeRange struct {
	From time.Time
	To   time.Time
}

// SemesterRepository stores semesters.
type SemesterRepository interface {
	CreateSemester(ctx context.Context, semester Semester) error
	GetSemester(ctx context.Context, userID, id string) (Semester, error)
	ListSemesters(ctx context.Context, userID string) ([]Semester, error)
}

// CourseFilter narrows course and session queries. UserID is mandatory.
type CourseFilter struct {
	UserID     string
	SemesterID *string
	CourseID   *string
	Weekday    *string
	Query      string
}

// CourseRepository stores courses together with their weekly sessions.
type CourseRepository interface {
	CreateCourse(ctx context.Context, course Course) error
	GetCourse(ctx context.Context, userID, id string) (Course, error)
	ListCourses(ctx context.Context, filter CourseFilter) ([]Course, error)
	DeleteCourse(ctx context.Context, userID, id string) error
	ListSessions(ctx context.Context, filter CourseFilter) ([]SessionWithCourse, error)
}

// PlannerFilter narrows planner item queries. An item matches Window when any
// of its start, due or planned timestamps falls inside it.
type PlannerFilter struct {
	UserID     string
	Window     *TimeRange
	SemesterID *string
	CourseID   *string
	Status     *string
	Query      string
	ExcludeID  string
}

// PlannerRepository stores planner items.
type PlannerRepository interface {
	CreatePlannerItem(ctx context.Context, item PlannerItem) error
	UpdatePlannerItem(ctx context.Context, item PlannerItem) error
	GetPlannerItem(ctx context.Context, userID, id string) (PlannerItem, error)
	DeletePlannerItem(ctx context.Context, userID, id string) error
	ListPlannerItems(ctx context.Context, filter PlannerFilter) ([]PlannerItem, error)
}

// ExamFilter narrows exam queries by exam date.
type ExamFilter struct {
	UserID     string
	Window     *TimeRange
	SemesterID *string
	CourseID   *string
	Query      string
	ExcludeID  string
}

// ExamRepository stores exams.
type ExamRepository interface {
	CreateExam(ctx context.Context, exam Exam) error
	UpdateExam(ctx context.Context, exam Exam) error
	GetExam(ctx context.Context, userID, id string) (Exam, error)
	DeleteExam(ctx context.Context, userID, id string) error
	ListExams(ctx context.Context, filter ExamFilter) ([]Exam, error)
}

// EventFilter narrows event queries by start timestamp. Both bounds are
// inclusive and either may be nil.
type EventFilter struct {
	UserID      string
	StartsFrom  *time.Time
	StartsUntil *time.Time
	Query       string
	ExcludeID   string
}

// EventRepository stores student events.
type EventRepository interface {
	CreateEvent(ctx context.Context, event StudentEvent) error
	UpdateEvent(ctx context.Context, event StudentEvent) error
	GetEvent(ctx context.Context, userID, id string) (StudentEvent, error)
	DeleteEvent(ctx context.Context, userID, id string) error
	ListEvents(ctx context.Context, filter EventFilter) ([]StudentEvent, error)
}
