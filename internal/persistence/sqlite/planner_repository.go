package sqlite

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/example/study-planner/internal/persistence"
)

type plannerRow struct {
	ID         string         `db:"id"`
	UserID     string         `db:"user_id"`
	SemesterID sql.NullString `db:"semester_id"`
	CourseID   sql.NullString `db:"course_id"`
	Title      string         `db:"title"`
	Notes      sql.NullString `db:"notes"`
	Status     string         `db:"status"`
	Priority   string         `db:"priority"`
	Cadence    string         `db:"cadence"`
	StartAt    sql.NullString `db:"start_at"`
	DueAt      sql.NullString `db:"due_at"`
	PlannedFor sql.NullString `db:"planned_for"`
	CreatedAt  string         `db:"created_at"`
	UpdatedAt  string         `db:"updated_at"`
}

func (r plannerRow) model() (persistence.PlannerItem, error) {
	item := persistence.PlannerItem{
		ID:         r.ID,
		UserID:     r.UserID,
		SemesterID: stringPtr(r.SemesterID),
		CourseID:   stringPtr(r.CourseID),
		Title:      r.Title,
		Notes:      stringPtr(r.Notes),
		Status:     r.Status,
		Priority:   r.Priority,
		Cadence:    r.Cadence,
	}

	var err error
	if item.StartAt, err = parseNullTime(r.StartAt); err != nil {
		return persistence.PlannerItem{}, err
	}
	if item.DueAt, err = parseNullTime(r.DueAt); err != nil {
		return persistence.PlannerItem{}, err
	}
	if item.PlannedFor, err = parseNullTime(r.PlannedFor); err != nil {
		return persistence.PlannerItem{}, err
	}
	if item.CreatedAt, err = parseTime(r.CreatedAt); err != nil {
		return persistence.PlannerItem{}, err
	}
	if item.UpdatedAt, err = parseTime(r.UpdatedAt); err != nil {
		return persistence.PlannerItem{}, err
	}
	return item, nil
}

// CreatePlannerItem inserts a planner item.
func (s *Storage) CreatePlannerItem(ctx context.Context, item persistence.PlannerItem) error {
	return s.withTransaction(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO planner_items (id, user_id, semester_id, course_id, title, notes, status, priority, cadence,
			                           start_at, due_at, planned_for, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			item.ID,
			item.UserID,
			nullableString(item.SemesterID),
			nullableString(item.CourseID),
			item.Title,
			nullableString(item.Notes),
			item.Status,
			item.Priority,
			item.Cadence,
			nullableTime(item.StartAt),
			nullableTime(item.DueAt),
			nullableTime(item.PlannedFor),
			formatTime(item.CreatedAt),
			formatTime(item.UpdatedAt),
		)
		return mapError(err)
	})
}

// UpdatePlannerItem overwrites every mutable column of an owned planner item.
func (s *Storage) UpdatePlannerItem(ctx context.Context, item persistence.PlannerItem) error {
	return s.withTransaction(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE planner_items
			SET semester_id = ?, course_id = ?, title = ?, notes = ?, status = ?, priority = ?, cadence = ?,
			    start_at = ?, due_at = ?, planned_for = ?, updated_at = ?
			WHERE id = ? AND user_id = ?`,
			nullableString(item.SemesterID),
			nullableString(item.CourseID),
			item.Title,
			nullableString(item.Notes),
			item.Status,
			item.Priority,
			item.Cadence,
			nullableTime(item.StartAt),
			nullableTime(item.DueAt),
			nullableTime(item.PlannedFor),
			formatTime(item.UpdatedAt),
			item.ID,
			item.UserID,
		)
		if err != nil {
			return mapError(err)
		}
		return mapError(affectedOrNotFound(result))
	})
}

// GetPlannerItem loads a planner item owned by userID.
func (s *Storage) GetPlannerItem(ctx context.Context, userID, id string) (persistence.PlannerItem, error) {
	var row plannerRow
	if err := s.db.GetContext(ctx, &row, `SELECT * FROM planner_items WHERE id = ? AND user_id = ?`, id, userID); err != nil {
		return persistence.PlannerItem{}, mapError(err)
	}
	return row.model()
}

// DeletePlannerItem removes a planner item owned by userID.
func (s *Storage) DeletePlannerItem(ctx context.Context, userID, id string) error {
	return s.withTransaction(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM planner_items WHERE id = ? AND user_id = ?`, id, userID)
		if err != nil {
			return mapError(err)
		}
		return mapError(affectedOrNotFound(result))
	})
}

// ListPlannerItems returns planner items matching filter. Items without any
// timestamp sort last.
func (s *Storage) ListPlannerItems(ctx context.Context, filter persistence.PlannerFilter) ([]persistence.PlannerItem, error) {
	where := whereClause{}
	where.add("user_id = ?", filter.UserID)
	if filter.Window != nil {
		from, to := formatTime(filter.Window.From), formatTime(filter.Window.To)
		where.add("(start_at BETWEEN ? AND ? OR due_at BETWEEN ? AND ? OR planned_for BETWEEN ? AND ?)",
			from, to, from, to, from, to)
	}
	if filter.SemesterID != nil {
		where.add("semester_id = ?", *filter.SemesterID)
	}
	if filter.CourseID != nil {
		where.add("course_id = ?", *filter.CourseID)
	}
	if filter.Status != nil {
		where.add("status = ?", *filter.Status)
	}
	if filter.ExcludeID != "" {
		where.add("id <> ?", filter.ExcludeID)
	}
	where.search(filter.Query, "title", "notes")

	var rows []plannerRow
	query := `SELECT * FROM planner_items` + where.String() +
		` ORDER BY COALESCE(start_at, planned_for, due_at) IS NULL, COALESCE(start_at, planned_for, due_at), id`
	if err := s.db.SelectContext(ctx, &rows, query, where.args...); err != nil {
		return nil, mapError(err)
	}

	items := make([]persistence.PlannerItem, 0, len(rows))
	for _, row := range rows {
		item, err := row.model()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

var _ persistence.PlannerRepository = (*Storage)(nil)
