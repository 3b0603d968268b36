package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSemester(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svcs := newServices(t)

	semester, err := svcs.courses.CreateSemester(ctx, principal, SemesterInput{
		Name:     " Spring 2024 ",
		StartsOn: time.Date(2024, time.April, 1, 15, 0, 0, 0, time.UTC),
		EndsOn:   time.Date(2024, time.July, 31, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, "Spring 2024", semester.Name)
	assert.Equal(t, time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC), semester.StartsOn)

	stored, err := svcs.storage.GetSemester(ctx, owner, semester.ID)
	require.NoError(t, err)
	assert.Equal(t, semester, stored)

	_, err = svcs.courses.CreateSemester(ctx, principal, SemesterInput{
		Name:     "Backwards",
		StartsOn: time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC),
		EndsOn:   time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC),
	})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.FieldErrors, "endsOn")

	_, err = svcs.courses.CreateSemester(ctx, Principal{}, SemesterInput{Name: "x"})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestCreateCourseNormalizesSessions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svcs := newServices(t)

	course, err := svcs.courses.CreateCourse(ctx, principal, CourseInput{
		Code:  "CS101",
		Title: "Intro to Programming",
		Sessions: []SessionInput{
			{Weekday: "tuesday", StartTime: "9:05", EndTime: "10:35"},
			{Weekday: "THURSDAY", StartTime: "14:00", EndTime: "15:30", Room: ptr(" Lab 3 ")},
		},
	})
	require.NoError(t, err)
	require.Len(t, course.Sessions, 2)
	assert.Equal(t, "TUESDAY", course.Sessions[0].Weekday)
	assert.Equal(t, "09:05", course.Sessions[0].StartTime)
	assert.Equal(t, ptr("Lab 3"), course.Sessions[1].Room)

	stored, err := svcs.storage.GetCourse(ctx, owner, course.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Sessions, 2)
}

func TestCreateCourseValidation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svcs := newServices(t)

	_, err := svcs.courses.CreateCourse(ctx, principal, CourseInput{
		Title:      "Broken",
		SemesterID: ptr("missing"),
		Sessions: []SessionInput{
			{Weekday: "FUNDAY", StartTime: "09:00", EndTime: "10:00"},
			{Weekday: "MONDAY", StartTime: "11:00", EndTime: "10:00"},
			{Weekday: "MONDAY", StartTime: "25:00", EndTime: "noon"},
		},
	})

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, map[string]string{
		"code":                  "code is required",
		"semesterId":            "semester does not exist",
		"sessions[0].weekday":   "weekday must be MONDAY through SUNDAY",
		"sessions[1].endTime":   "endTime must be after startTime",
		"sessions[2].startTime": "startTime must be HH:mm",
		"sessions[2].endTime":   "endTime must be HH:mm",
	}, vErr.FieldErrors)
}

func TestListAndDeleteCourses(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svcs := newServices(t)
	course := seedLinearAlgebra(t, svcs.courses)

	courses, err := svcs.courses.ListCourses(ctx, ListCoursesParams{Principal: principal, Weekday: ptr("monday")})
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, course.ID, courses[0].ID)

	courses, err = svcs.courses.ListCourses(ctx, ListCoursesParams{Principal: principal, Query: "LINEAR"})
	require.NoError(t, err)
	assert.Len(t, courses, 1)

	_, err = svcs.courses.ListCourses(ctx, ListCoursesParams{Principal: principal, Weekday: ptr("someday")})
	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)

	assert.ErrorIs(t, svcs.courses.DeleteCourse(ctx, DeleteParams{Principal: Principal{UserID: "intruder"}, ID: course.ID}), ErrNotFound)
	require.NoError(t, svcs.courses.DeleteCourse(ctx, DeleteParams{Principal: principal, ID: course.ID}))

	courses, err = svcs.courses.ListCourses(ctx, ListCoursesParams{Principal: principal})
	require.NoError(t, err)
	assert.Empty(t, courses)
}
