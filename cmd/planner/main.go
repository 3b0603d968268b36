package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/example/study-planner/internal/application"
	"github.com/example/study-planner/internal/config"
	httptransport "github.com/example/study-planner/internal/http"
	"github.com/example/study-planner/internal/logging"
	"github.com/example/study-planner/internal/persistence/sqlite"
	"github.com/example/study-planner/internal/ratelimit"
	"github.com/example/study-planner/internal/recurrence"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// cliEnv carries what every subcommand needs after configuration is loaded.
type cliEnv struct {
	cfg    config.Config
	logger *slog.Logger
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	rt := &cliEnv{}

	root := &cobra.Command{
		Use:           "planner",
		Short:         "Study planner API with schedule conflict detection",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			level, err := logging.ParseLevel(cfg.LogLevel)
			if err != nil {
				return err
			}
			rt.cfg = cfg
			rt.logger = logging.New(stderr, level, cfg.LogFormat)
			return nil
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.AddCommand(
		newServeCmd(rt),
		newMigrateCmd(rt),
		newExportICSCmd(rt),
	)
	return root
}

func newServeCmd(rt *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), rt.cfg, rt.logger)
		},
	}
}

func newMigrateCmd(rt *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			storage, err := openStorage(cmd.Context(), rt.cfg, rt.logger)
			if err != nil {
				return err
			}
			defer closeStorage(storage, rt.logger)

			version, err := storage.SchemaVersion(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", version)
			return nil
		},
	}
}

func newExportICSCmd(rt *cliEnv) *cobra.Command {
	var (
		owner, from, to, output string
		semesterID, courseID    string
		status, query           string
	)

	cmd := &cobra.Command{
		Use:   "export-ics",
		Short: "Write an owner's calendar range as iCalendar",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fromTime, err := time.Parse(time.RFC3339, from)
			if err != nil {
				return fmt.Errorf("--from: %w", err)
			}
			toTime, err := time.Parse(time.RFC3339, to)
			if err != nil {
				return fmt.Errorf("--to: %w", err)
			}

			storage, err := openStorage(cmd.Context(), rt.cfg, rt.logger)
			if err != nil {
				return err
			}
			defer closeStorage(storage, rt.logger)

			calendar := application.NewCalendarService(storage, recurrence.NewEngine(rt.cfg.MaxExpansionDays), rt.logger)
			body, err := calendar.ExportICS(cmd.Context(), application.CalendarParams{
				Principal:  application.Principal{UserID: strings.TrimSpace(owner)},
				From:       fromTime,
				To:         toTime,
				SemesterID: flagValue(semesterID),
				CourseID:   flagValue(courseID),
				Status:     flagValue(status),
				Query:      query,
			})
			if err != nil {
				return describeServiceError(err)
			}

			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(body)
				return err
			}
			return os.WriteFile(output, body, 0o644)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&owner, "owner", "", "owner key whose calendar is exported")
	flags.StringVar(&from, "from", "", "range start (RFC 3339)")
	flags.StringVar(&to, "to", "", "range end (RFC 3339)")
	flags.StringVar(&semesterID, "semester", "", "only entries of this semester")
	flags.StringVar(&courseID, "course", "", "only entries of this course")
	flags.StringVar(&status, "status", "", "only planner items with this status")
	flags.StringVar(&query, "q", "", "text search")
	flags.StringVarP(&output, "output", "o", "-", "output file, - for stdout")
	_ = cmd.MarkFlagRequired("owner")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func serve(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	storage, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStorage(storage, logger)

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           newHandler(cfg, storage, uuid.NewString, time.Now, logger),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("planner API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server encountered error: %w", err)
	}
	return nil
}

// newHandler wires storage, services and handlers into the HTTP router.
func newHandler(cfg config.Config, storage *sqlite.Storage, idGenerator func() string, now func() time.Time, logger *slog.Logger) http.Handler {
	conflicts := application.NewConflictService(storage, logger)
	agenda := application.NewAgendaService(storage, storage, conflicts, application.NewOwnerLocks(), idGenerator, now, logger)
	courses := application.NewCourseService(storage, idGenerator, now, logger)
	calendar := application.NewCalendarService(storage, recurrence.NewEngine(cfg.MaxExpansionDays), logger)

	limiter := ratelimit.New(cfg.RateLimitRequests, cfg.RateLimitWindow, 0, now)

	return httptransport.NewRouter(httptransport.RouterConfig{
		Agenda:    httptransport.NewAgendaHandler(agenda, logger),
		Courses:   httptransport.NewCourseHandler(courses, logger),
		Conflicts: httptransport.NewConflictHandler(conflicts, logger),
		Calendar:  httptransport.NewCalendarHandler(calendar, logger),
		Health:    httptransport.NewHealthHandler(storage, logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
			httptransport.RequireOwner(cfg.OwnerHeader, logger),
			httptransport.RateLimit(limiter, logger),
		},
	})
}

func openStorage(ctx context.Context, cfg config.Config, logger *slog.Logger) (*sqlite.Storage, error) {
	storage, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	if err := storage.Migrate(ctx, logger); err != nil {
		closeStorage(storage, logger)
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}
	return storage, nil
}

func closeStorage(storage *sqlite.Storage, logger *slog.Logger) {
	if err := storage.Close(); err != nil {
		logger.Error("failed to close storage", "error", err)
	}
}

func flagValue(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

// describeServiceError turns field errors into a readable CLI message.
func describeServiceError(err error) error {
	var vErr *application.ValidationError
	if !errors.As(err, &vErr) {
		return err
	}
	parts := make([]string, 0, len(vErr.FieldErrors))
	for field, message := range vErr.FieldErrors {
		parts = append(parts, field+": "+message)
	}
	sort.Strings(parts)
	return fmt.Errorf("invalid input: %s", strings.Join(parts, "; "))
}
