package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/study-planner/internal/persistence"
)

const dateLayout = "2006-01-02"

type semesterRow struct {
	ID        string `db:"id"`
	UserID    string `db:"user_id"`
	Name      string `db:"name"`
	StartsOn  string `db:"starts_on"`
	EndsOn    string `db:"ends_on"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
}

func (r semesterRow) model() (persistence.Semester, error) {
	startsOn, err := time.Parse(dateLayout, r.StartsOn)
	if err != nil {
		return persistence.Semester{}, fmt.Errorf("parse starts_on: %w", err)
	}
	endsOn, err := time.Parse(dateLayout, r.EndsOn)
	if err != nil {
		return persistence.Semester{}, fmt.Errorf("parse ends_on: %w", err)
	}
	created, err := parseTime(r.CreatedAt)
	if err != nil {
		return persistence.Semester{}, err
	}
	updated, err := parseTime(r.UpdatedAt)
	if err != nil {
		return persistence.Semester{}, err
	}
	return persistence.Semester{
		ID:        r.ID,
		UserID:    r.UserID,
		Name:      r.Name,
		StartsOn:  startsOn,
		EndsOn:    endsOn,
		CreatedAt: created,
		UpdatedAt: updated,
	}, nil
}

// CreateSemester inserts a semester.
func (s *Storage) CreateSemester(ctx context.Context, semester persistence.Semester) error {
	return s.withTransaction(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO semesters (id, user_id, name, starts_on, ends_on, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			semester.ID,
			semester.UserID,
			semester.Name,
			semester.StartsOn.UTC().Format(dateLayout),
			semester.EndsOn.UTC().Format(dateLayout),
			formatTime(semester.CreatedAt),
			formatTime(semester.UpdatedAt),
		)
		return mapError(err)
	})
}

// GetSemester loads a semester owned by userID.
func (s *Storage) GetSemester(ctx context.Context, userID, id string) (persistence.Semester, error) {
	var row semesterRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM semesters WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return persistence.Semester{}, mapError(err)
	}
	return row.model()
}

// ListSemesters returns the semesters of userID ordered by start date.
func (s *Storage) ListSemesters(ctx context.Context, userID string) ([]persistence.Semester, error) {
	var rows []semesterRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM semesters WHERE user_id = ? ORDER BY starts_on, name`, userID); err != nil {
		return nil, mapError(err)
	}

	semesters := make([]persistence.Semester, 0, len(rows))
	for _, row := range rows {
		semester, err := row.model()
		if err != nil {
			return nil, err
		}
		semesters = append(semesters, semester)
	}
	return semesters, nil
}

var _ persistence.SemesterRepository = (*Storage)(nil)
