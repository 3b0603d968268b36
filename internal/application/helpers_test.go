package application

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/example/study-planner/internal/persistence"
	"github.com/example/study-planner/internal/persistence/sqlite"
)

const owner = "owner-1"

var (
	testNow   = time.Date(2024, time.February, 1, 8, 0, 0, 0, time.UTC)
	principal = Principal{UserID: owner}
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedNow() time.Time { return testNow }

func sequentialIDs(prefix string) func() string {
	var (
		mu sync.Mutex
		n  int
	)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

// monday returns a time on Monday 2024-03-04 plus weeks.
func monday(weeks, hour, minute int) time.Time {
	return time.Date(2024, time.March, 4+7*weeks, hour, minute, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }

func newStorage(t *testing.T) *sqlite.Storage {
	t.Helper()

	storage, err := sqlite.Open(filepath.Join(t.TempDir(), "planner.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })
	require.NoError(t, storage.Migrate(context.Background(), discardLogger()))
	return storage
}

type services struct {
	storage  *sqlite.Storage
	conflict *ConflictService
	agenda   *AgendaService
	courses  *CourseService
	calendar *CalendarService
}

func newServices(t *testing.T) services {
	t.Helper()

	storage := newStorage(t)
	ids := sequentialIDs("id")
	conflict := NewConflictService(storage, discardLogger())
	return services{
		storage:  storage,
		conflict: conflict,
		agenda:   NewAgendaService(storage, storage, conflict, NewOwnerLocks(), ids, fixedNow, discardLogger()),
		courses:  NewCourseService(storage, ids, fixedNow, discardLogger()),
		calendar: NewCalendarService(storage, nil, discardLogger()),
	}
}

// seedLinearAlgebra creates a course meeting on Mondays 09:00-10:30.
func seedLinearAlgebra(t *testing.T, courses *CourseService) persistence.Course {
	t.Helper()

	course, err := courses.CreateCourse(context.Background(), principal, CourseInput{
		Code:  "MATH201",
		Title: "Linear Algebra",
		Sessions: []SessionInput{
			{Weekday: "monday", StartTime: "09:00", EndTime: "10:30", Room: ptr("B-204")},
		},
	})
	require.NoError(t, err)
	return course
}

// fakeReader records the filters it receives and serves canned rows.
type fakeReader struct {
	mu sync.Mutex

	sessions []persistence.SessionWithCourse
	planner  []persistence.PlannerItem
	events   []persistence.StudentEvent
	exams    []persistence.Exam
	err      error

	courseFilter  persistence.CourseFilter
	plannerFilter persistence.PlannerFilter
	eventFilter   persistence.EventFilter
	examFilter    persistence.ExamFilter
}

func (f *fakeReader) ListSessions(_ context.Context, filter persistence.CourseFilter) ([]persistence.SessionWithCourse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.courseFilter = filter
	return f.sessions, nil
}

func (f *fakeReader) ListPlannerItems(_ context.Context, filter persistence.PlannerFilter) ([]persistence.PlannerItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.plannerFilter = filter
	return f.planner, nil
}

func (f *fakeReader) ListEvents(_ context.Context, filter persistence.EventFilter) ([]persistence.StudentEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.eventFilter = filter
	return f.events, nil
}

func (f *fakeReader) ListExams(_ context.Context, filter persistence.ExamFilter) ([]persistence.Exam, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.examFilter = filter
	return f.exams, f.err
}
