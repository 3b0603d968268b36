package http

import (
	"time"

	"github.com/example/study-planner/internal/application"
	"github.com/example/study-planner/internal/persistence"
	"github.com/example/study-planner/internal/recurrence"
	"github.com/example/study-planner/internal/scheduler"
)

type semesterDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	StartsOn  string `json:"startsOn"`
	EndsOn    string `json:"endsOn"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func toSemesterDTO(semester persistence.Semester) semesterDTO {
	return semesterDTO{
		ID:        semester.ID,
		Name:      semester.Name,
		StartsOn:  semester.StartsOn.Format(dateLayout),
		EndsOn:    semester.EndsOn.Format(dateLayout),
		CreatedAt: scheduler.FormatTimestamp(semester.CreatedAt),
		UpdatedAt: scheduler.FormatTimestamp(semester.UpdatedAt),
	}
}

type sessionDTO struct {
	ID        string  `json:"id"`
	CourseID  string  `json:"courseId"`
	Weekday   string  `json:"weekday"`
	StartTime string  `json:"startTime"`
	EndTime   string  `json:"endTime"`
	Room      *string `json:"room"`
}

type courseDTO struct {
	ID         string       `json:"id"`
	SemesterID *string      `json:"semesterId"`
	Code       string       `json:"code"`
	Title      string       `json:"title"`
	Instructor *string      `json:"instructor"`
	Color      *string      `json:"color"`
	Sessions   []sessionDTO `json:"sessions"`
	CreatedAt  string       `json:"createdAt"`
	UpdatedAt  string       `json:"updatedAt"`
}

func toSessionDTO(session persistence.ClassSession) sessionDTO {
	return sessionDTO{
		ID:        session.ID,
		CourseID:  session.CourseID,
		Weekday:   session.Weekday,
		StartTime: session.StartTime,
		EndTime:   session.EndTime,
		Room:      session.Room,
	}
}

func toCourseDTO(course persistence.Course) courseDTO {
	sessions := make([]sessionDTO, 0, len(course.Sessions))
	for _, session := range course.Sessions {
		sessions = append(sessions, toSessionDTO(session))
	}
	return courseDTO{
		ID:         course.ID,
		SemesterID: course.SemesterID,
		Code:       course.Code,
		Title:      course.Title,
		Instructor: course.Instructor,
		Color:      course.Color,
		Sessions:   sessions,
		CreatedAt:  scheduler.FormatTimestamp(course.CreatedAt),
		UpdatedAt:  scheduler.FormatTimestamp(course.UpdatedAt),
	}
}

func toCourseDTOs(courses []persistence.Course) []courseDTO {
	out := make([]courseDTO, 0, len(courses))
	for _, course := range courses {
		out = append(out, toCourseDTO(course))
	}
	return out
}

type courseSessionDTO struct {
	sessionDTO
	CourseCode  string  `json:"courseCode"`
	CourseTitle string  `json:"courseTitle"`
	SemesterID  *string `json:"semesterId"`
}

type plannerItemDTO struct {
	ID         string  `json:"id"`
	SemesterID *string `json:"semesterId"`
	CourseID   *string `json:"courseId"`
	Title      string  `json:"title"`
	Notes      *string `json:"notes"`
	Status     string  `json:"status"`
	Priority   string  `json:"priority"`
	Cadence    string  `json:"cadence"`
	StartAt    *string `json:"startAt"`
	DueAt      *string `json:"dueAt"`
	PlannedFor *string `json:"plannedFor"`
	CreatedAt  string  `json:"createdAt"`
	UpdatedAt  string  `json:"updatedAt"`
}

func toPlannerItemDTO(item persistence.PlannerItem) plannerItemDTO {
	return plannerItemDTO{
		ID:         item.ID,
		SemesterID: item.SemesterID,
		CourseID:   item.CourseID,
		Title:      item.Title,
		Notes:      item.Notes,
		Status:     item.Status,
		Priority:   item.Priority,
		Cadence:    item.Cadence,
		StartAt:    formatOptional(item.StartAt),
		DueAt:      formatOptional(item.DueAt),
		PlannedFor: formatOptional(item.PlannedFor),
		CreatedAt:  scheduler.FormatTimestamp(item.CreatedAt),
		UpdatedAt:  scheduler.FormatTimestamp(item.UpdatedAt),
	}
}

type examDTO struct {
	ID              string  `json:"id"`
	SemesterID      *string `json:"semesterId"`
	CourseID        *string `json:"courseId"`
	Title           string  `json:"title"`
	Location        *string `json:"location"`
	Notes           *string `json:"notes"`
	ExamDate        string  `json:"examDate"`
	DurationMinutes *int    `json:"durationMinutes"`
	CreatedAt       string  `json:"createdAt"`
	UpdatedAt       string  `json:"updatedAt"`
}

func toExamDTO(exam persistence.Exam) examDTO {
	return examDTO{
		ID:              exam.ID,
		SemesterID:      exam.SemesterID,
		CourseID:        exam.CourseID,
		Title:           exam.Title,
		Location:        exam.Location,
		Notes:           exam.Notes,
		ExamDate:        scheduler.FormatTimestamp(exam.ExamDate),
		DurationMinutes: exam.DurationMinutes,
		CreatedAt:       scheduler.FormatTimestamp(exam.CreatedAt),
		UpdatedAt:       scheduler.FormatTimestamp(exam.UpdatedAt),
	}
}

type eventDTO struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Location    *string `json:"location"`
	StartAt     string  `json:"startAt"`
	EndAt       *string `json:"endAt"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

func toEventDTO(event persistence.StudentEvent) eventDTO {
	return eventDTO{
		ID:          event.ID,
		Title:       event.Title,
		Description: event.Description,
		Location:    event.Location,
		StartAt:     scheduler.FormatTimestamp(event.StartAt),
		EndAt:       formatOptional(event.EndAt),
		CreatedAt:   scheduler.FormatTimestamp(event.CreatedAt),
		UpdatedAt:   scheduler.FormatTimestamp(event.UpdatedAt),
	}
}

type calendarDTO struct {
	PlannerItems []plannerItemDTO   `json:"plannerItems"`
	Exams        []examDTO          `json:"exams"`
	Events       []eventDTO         `json:"events"`
	Sessions     []courseSessionDTO `json:"sessions"`
}

func toCalendarDTO(view application.CalendarView) calendarDTO {
	out := calendarDTO{
		PlannerItems: make([]plannerItemDTO, 0, len(view.PlannerItems)),
		Exams:        make([]examDTO, 0, len(view.Exams)),
		Events:       make([]eventDTO, 0, len(view.Events)),
		Sessions:     make([]courseSessionDTO, 0, len(view.Sessions)),
	}
	for _, item := range view.PlannerItems {
		out.PlannerItems = append(out.PlannerItems, toPlannerItemDTO(item))
	}
	for _, exam := range view.Exams {
		out.Exams = append(out.Exams, toExamDTO(exam))
	}
	for _, event := range view.Events {
		out.Events = append(out.Events, toEventDTO(event))
	}
	for _, session := range view.Sessions {
		out.Sessions = append(out.Sessions, courseSessionDTO{
			sessionDTO:  toSessionDTO(session.ClassSession),
			CourseCode:  session.CourseCode,
			CourseTitle: session.CourseTitle,
			SemesterID:  session.SemesterID,
		})
	}
	return out
}

type occurrenceDTO struct {
	SessionID string  `json:"sessionId"`
	CourseID  string  `json:"courseId"`
	Course    string  `json:"course"`
	Date      string  `json:"date"`
	StartTime string  `json:"startTime"`
	EndTime   string  `json:"endTime"`
	Room      *string `json:"room"`
	StartAt   string  `json:"startAt"`
	EndAt     string  `json:"endAt"`
}

func toOccurrenceDTOs(occurrences []recurrence.Occurrence) []occurrenceDTO {
	out := make([]occurrenceDTO, 0, len(occurrences))
	for _, occurrence := range occurrences {
		out = append(out, occurrenceDTO{
			SessionID: occurrence.SessionID,
			CourseID:  occurrence.CourseID,
			Course:    occurrence.Course,
			Date:      occurrence.Date.Format(dateLayout),
			StartTime: occurrence.StartTime.String(),
			EndTime:   occurrence.EndTime.String(),
			Room:      occurrence.Room,
			StartAt:   scheduler.FormatTimestamp(occurrence.Start),
			EndAt:     scheduler.FormatTimestamp(occurrence.End),
		})
	}
	return out
}

func formatOptional(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := scheduler.FormatTimestamp(*t)
	return &formatted
}
