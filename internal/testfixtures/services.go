package testfixtures

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/example/study-planner/internal/application"
	"github.com/example/study-planner/internal/recurrence"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Logger      *slog.Logger
	MaxDays     int
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// WithLogger overrides the logger handed to every service.
func WithLogger(logger *slog.Logger) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Logger = logger
	}
}

// WithMaxExpansionDays bounds calendar expansion.
func WithMaxExpansionDays(days int) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.MaxDays = days
	}
}

// Services bundles the application services wired to one storage.
type Services struct {
	Harness   *SQLiteHarness
	Conflicts *application.ConflictService
	Agenda    *application.AgendaService
	Courses   *application.CourseService
	Calendar  *application.CalendarService
}

// NewServices wires every application service onto a fresh SQLite harness.
func (f *ServiceFactory) NewServices(tb testing.TB) Services {
	tb.Helper()

	harness := NewSQLiteHarness(tb)
	ids := f.IDGenerator.NextFunc()
	now := f.Clock.NowFunc()

	conflicts := application.NewConflictService(harness.Storage, f.Logger)
	return Services{
		Harness:   harness,
		Conflicts: conflicts,
		Agenda:    application.NewAgendaService(harness.Storage, harness.Storage, conflicts, application.NewOwnerLocks(), ids, now, f.Logger),
		Courses:   application.NewCourseService(harness.Storage, ids, now, f.Logger),
		Calendar:  application.NewCalendarService(harness.Storage, recurrence.NewEngine(f.MaxDays), f.Logger),
	}
}
