package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/study-planner/internal/persistence"
	"github.com/example/study-planner/internal/scheduler"
)

func TestDetectScheduleConflictsQueriesPaddedWindow(t *testing.T) {
	t.Parallel()

	reader := &fakeReader{}
	svc := NewConflictService(reader, discardLogger())

	candidate := scheduler.Interval{Start: monday(0, 9, 30), End: monday(0, 10, 30)}
	conflicts, err := svc.DetectScheduleConflicts(context.Background(), owner, candidate, ConflictOptions{
		IgnorePlannerID: "p-1",
		IgnoreExamID:    "x-1",
		IgnoreEventID:   "e-1",
	})
	require.NoError(t, err)
	assert.NotNil(t, conflicts)
	assert.Empty(t, conflicts)

	from, to := monday(0, 9, 30).Add(-24*time.Hour), monday(0, 10, 30).Add(24*time.Hour)

	assert.Equal(t, owner, reader.courseFilter.UserID)
	assert.Equal(t, ptr("MONDAY"), reader.courseFilter.Weekday)

	assert.Equal(t, &persistence.TimeRange{From: from, To: to}, reader.plannerFilter.Window)
	assert.Equal(t, "p-1", reader.plannerFilter.ExcludeID)

	assert.Nil(t, reader.eventFilter.StartsFrom)
	assert.Equal(t, &to, reader.eventFilter.StartsUntil)
	assert.Equal(t, "e-1", reader.eventFilter.ExcludeID)

	assert.Equal(t, &persistence.TimeRange{From: from, To: to}, reader.examFilter.Window)
	assert.Equal(t, "x-1", reader.examFilter.ExcludeID)
}

func TestDetectScheduleConflictsConvertsRows(t *testing.T) {
	t.Parallel()

	due := monday(0, 10, 0)
	reader := &fakeReader{
		sessions: []persistence.SessionWithCourse{{
			ClassSession: persistence.ClassSession{ID: "s-1", Weekday: "MONDAY", StartTime: "09:00", EndTime: "10:30"},
			CourseTitle:  "Linear Algebra",
		}},
		planner: []persistence.PlannerItem{{ID: "p-1", Title: "Essay", DueAt: &due}, {ID: "p-2", Title: "Floating"}},
		events:  []persistence.StudentEvent{{ID: "e-1", Title: "Yesterday", StartAt: monday(0, 9, 0).Add(-24 * time.Hour)}},
		exams:   []persistence.Exam{{ID: "x-1", Title: "Quiz", ExamDate: monday(0, 8, 0)}},
	}
	svc := NewConflictService(reader, nil)

	conflicts, err := svc.DetectScheduleConflicts(context.Background(), owner,
		scheduler.Interval{Start: monday(0, 9, 15), End: monday(0, 9, 45)}, ConflictOptions{})
	require.NoError(t, err)

	require.Len(t, conflicts, 2)
	assert.Equal(t, scheduler.ConflictItem{
		Source: scheduler.SourceExam, ID: "x-1", Title: "Quiz",
		StartAt: "2024-03-04T08:00:00.000Z", EndAt: "2024-03-04T09:30:00.000Z",
	}, conflicts[0])
	assert.Equal(t, scheduler.SourceClass, conflicts[1].Source)
	assert.Equal(t, "Linear Algebra", conflicts[1].Title)
}

func TestDetectScheduleConflictsFetchFailureAborts(t *testing.T) {
	t.Parallel()

	boom := errors.New("store unavailable")
	reader := &fakeReader{
		exams: []persistence.Exam{{ID: "x-1", Title: "Quiz", ExamDate: monday(0, 9, 0)}},
		err:   boom,
	}
	svc := NewConflictService(reader, discardLogger())

	conflicts, err := svc.DetectScheduleConflicts(context.Background(), owner,
		scheduler.Interval{Start: monday(0, 9, 0), End: monday(0, 10, 0)}, ConflictOptions{})
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, conflicts)
}

func TestDetectScheduleConflictsRejectsMalformedSession(t *testing.T) {
	t.Parallel()

	reader := &fakeReader{sessions: []persistence.SessionWithCourse{{
		ClassSession: persistence.ClassSession{ID: "s-1", Weekday: "MONDAY", StartTime: "9am", EndTime: "10:30"},
	}}}
	svc := NewConflictService(reader, discardLogger())

	_, err := svc.DetectScheduleConflicts(context.Background(), owner,
		scheduler.Interval{Start: monday(0, 9, 0), End: monday(0, 10, 0)}, ConflictOptions{})
	assert.Error(t, err)
}

func TestDetectScheduleConflictsIgnoresSelfAndIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svcs := newServices(t)
	seedLinearAlgebra(t, svcs.courses)

	item, err := svcs.agenda.CreatePlannerItem(ctx, CreatePlannerItemParams{Principal: principal, Input: PlannerItemInput{
		Title:          "Office hours",
		StartAt:        ptr(monday(0, 9, 30)),
		AllowConflicts: true,
	}})
	require.NoError(t, err)

	candidate := scheduler.Interval{Start: monday(0, 9, 0), End: monday(0, 11, 0)}

	first, err := svcs.conflict.DetectScheduleConflicts(ctx, owner, candidate, ConflictOptions{})
	require.NoError(t, err)
	require.Len(t, first, 2)

	second, err := svcs.conflict.DetectScheduleConflicts(ctx, owner, candidate, ConflictOptions{})
	require.NoError(t, err)
	assert.Equal(t, first, second)

	ignored, err := svcs.conflict.DetectScheduleConflicts(ctx, owner, candidate, ConflictOptions{IgnorePlannerID: item.ID})
	require.NoError(t, err)
	for _, conflict := range ignored {
		assert.False(t, conflict.Source == scheduler.SourcePlanner && conflict.ID == item.ID)
	}
	assert.Len(t, ignored, 1)

	other, err := svcs.conflict.DetectScheduleConflicts(ctx, "owner-2", candidate, ConflictOptions{})
	require.NoError(t, err)
	assert.Empty(t, other)
}
