package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/study-planner/internal/application"
	"github.com/example/study-planner/internal/persistence"
)

var (
	courseCounter  uint64
	plannerCounter uint64
	examCounter    uint64
	eventCounter   uint64
)

// DefaultOwner is the owner key used by fixtures unless overridden.
const DefaultOwner = "owner-1"

// referenceTime is a Monday.
var referenceTime = time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// Monday returns the reference Monday shifted by weeks at hour:minute UTC.
func Monday(weeks, hour, minute int) time.Time {
	return referenceTime.AddDate(0, 0, 7*weeks).Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

// Principal returns the principal of the default owner.
func Principal() application.Principal {
	return application.Principal{UserID: DefaultOwner}
}

// ----------------------------- Course fixtures -----------------------------

// CourseOption configures the generated course input.
type CourseOption func(*application.CourseInput)

// NewCourseInput returns a course meeting on Mondays 09:00-10:30.
func NewCourseInput(opts ...CourseOption) application.CourseInput {
	idx := atomic.AddUint64(&courseCounter, 1)
	room := fmt.Sprintf("R-%03d", idx)
	input := application.CourseInput{
		Code:  fmt.Sprintf("CRS%03d", idx),
		Title: fmt.Sprintf("Course %03d", idx),
		Sessions: []application.SessionInput{
			{Weekday: "MONDAY", StartTime: "09:00", EndTime: "10:30", Room: &room},
		},
	}
	for _, opt := range opts {
		opt(&input)
	}
	return input
}

// WithCourseCode overrides the generated course code.
func WithCourseCode(code string) CourseOption {
	return func(c *application.CourseInput) {
		c.Code = code
	}
}

// WithCourseTitle overrides the generated course title.
func WithCourseTitle(title string) CourseOption {
	return func(c *application.CourseInput) {
		c.Title = title
	}
}

// WithCourseSemester links the course to a semester.
func WithCourseSemester(id string) CourseOption {
	return func(c *application.CourseInput) {
		c.SemesterID = &id
	}
}

// WithSessions replaces the weekly sessions.
func WithSessions(sessions ...application.SessionInput) CourseOption {
	return func(c *application.CourseInput) {
		c.Sessions = append([]application.SessionInput(nil), sessions...)
	}
}

// ----------------------------- Planner fixtures -----------------------------

// PlannerOption configures the generated planner item input.
type PlannerOption func(*application.PlannerItemInput)

// NewPlannerItemInput returns a planner item starting on the reference Monday
// at 14:00.
func NewPlannerItemInput(opts ...PlannerOption) application.PlannerItemInput {
	idx := atomic.AddUint64(&plannerCounter, 1)
	start := Monday(0, 14, 0)
	input := application.PlannerItemInput{
		Title:   fmt.Sprintf("Task %03d", idx),
		StartAt: &start,
	}
	for _, opt := range opts {
		opt(&input)
	}
	return input
}

// WithPlannerTimes sets all three optional timestamps; nil clears one.
func WithPlannerTimes(startAt, dueAt, plannedFor *time.Time) PlannerOption {
	return func(p *application.PlannerItemInput) {
		p.StartAt = startAt
		p.DueAt = dueAt
		p.PlannedFor = plannedFor
	}
}

// WithPlannerCourse links the planner item to a course.
func WithPlannerCourse(id string) PlannerOption {
	return func(p *application.PlannerItemInput) {
		p.CourseID = &id
	}
}

// WithPlannerStatus overrides the status.
func WithPlannerStatus(status string) PlannerOption {
	return func(p *application.PlannerItemInput) {
		p.Status = status
	}
}

// WithPlannerAllowConflicts skips the conflict check on write.
func WithPlannerAllowConflicts() PlannerOption {
	return func(p *application.PlannerItemInput) {
		p.AllowConflicts = true
	}
}

// ----------------------------- Exam fixtures -----------------------------

// ExamOption configures the generated exam input.
type ExamOption func(*application.ExamInput)

// NewExamInput returns a 90 minute exam on the reference Monday at 13:00.
func NewExamInput(opts ...ExamOption) application.ExamInput {
	idx := atomic.AddUint64(&examCounter, 1)
	duration := 90
	input := application.ExamInput{
		Title:           fmt.Sprintf("Exam %03d", idx),
		ExamDate:        Monday(0, 13, 0),
		DurationMinutes: &duration,
	}
	for _, opt := range opts {
		opt(&input)
	}
	return input
}

// WithExamDate overrides the exam start.
func WithExamDate(t time.Time) ExamOption {
	return func(e *application.ExamInput) {
		e.ExamDate = t
	}
}

// WithExamCourse links the exam to a course.
func WithExamCourse(id string) ExamOption {
	return func(e *application.ExamInput) {
		e.CourseID = &id
	}
}

// ----------------------------- Event fixtures -----------------------------

// EventOption configures the generated event input.
type EventOption func(*application.EventInput)

// NewEventInput returns a one hour event on the reference Monday at 18:00.
func NewEventInput(opts ...EventOption) application.EventInput {
	idx := atomic.AddUint64(&eventCounter, 1)
	end := Monday(0, 19, 0)
	input := application.EventInput{
		Title:   fmt.Sprintf("Event %03d", idx),
		StartAt: Monday(0, 18, 0),
		EndAt:   &end,
	}
	for _, opt := range opts {
		opt(&input)
	}
	return input
}

// WithEventTimes overrides the event start and end.
func WithEventTimes(start time.Time, end *time.Time) EventOption {
	return func(e *application.EventInput) {
		e.StartAt = start
		e.EndAt = end
	}
}

// ----------------------------- Stored rows -----------------------------

// SessionRow returns a stored session joined with its course, for fakes of
// the schedule reader.
func SessionRow(id, weekday, start, end string) persistence.SessionWithCourse {
	return persistence.SessionWithCourse{
		ClassSession: persistence.ClassSession{
			ID:        id,
			CourseID:  "course-" + id,
			Weekday:   weekday,
			StartTime: start,
			EndTime:   end,
		},
		CourseCode:  "CRS",
		CourseTitle: "Course " + id,
	}
}
