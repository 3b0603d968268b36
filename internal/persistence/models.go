package persistence

import "time"

// Semester groups courses and planner entries of one academic term.
type Semester struct {
	ID        string
	UserID    string
	Name      string
	StartsOn  time.Time
	EndsOn    time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Course is a subject the user attends during a semester.
type Course struct {
	ID         string
	UserID     string
	SemesterID *string
	Code       string
	Title      string
	Instructor *string
	Color      *string
	Sessions   []ClassSession
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ClassSession is a weekly recurrence rule of a course. StartTime and EndTime
// are wall-clock HH:mm values.
type ClassSession struct {
	ID        string
	CourseID  string
	Weekday   string
	StartTime string
	EndTime   string
	Room      *string
}

// SessionWithCourse is a class session joined with the course it belongs to.
type SessionWithCourse struct {
	ClassSession
	CourseCode      string
	CourseTitle     string
	SemesterID      *string
	CourseUpdatedAt time.Time
}

// PlannerItem is a task or reminder with up to three optional timestamps.
type PlannerItem struct {
	ID         string
	UserID     string
	SemesterID *string
	CourseID   *string
	Title      string
	Notes      *string
	Status     string
	Priority   string
	Cadence    string
	StartAt    *time.Time
	DueAt      *time.Time
	PlannedFor *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Exam is a fixed-point assessment.
type Exam struct {
	ID              string
	UserID          string
	SemesterID      *string
	CourseID        *string
	Title           string
	Location        *string
	Notes           *string
	ExamDate        time.Time
	DurationMinutes *int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// StudentEvent is a one-off calendar event.
type StudentEvent struct {
	ID          string
	UserID      string
	Title       string
	Description *string
	Location    *string
	StartAt     time.Time
	EndAt       *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
