package sqlite

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/example/study-planner/internal/persistence"
)

type eventRow struct {
	ID          string         `db:"id"`
	UserID      string         `db:"user_id"`
	Title       string         `db:"title"`
	Description sql.NullString `db:"description"`
	Location    sql.NullString `db:"location"`
	StartAt     string         `db:"start_at"`
	EndAt       sql.NullString `db:"end_at"`
	CreatedAt   string         `db:"created_at"`
	UpdatedAt   string         `db:"updated_at"`
}

func (r eventRow) model() (persistence.StudentEvent, error) {
	event := persistence.StudentEvent{
		ID:          r.ID,
		UserID:      r.UserID,
		Title:       r.Title,
		Description: stringPtr(r.Description),
		Location:    stringPtr(r.Location),
	}

	var err error
	if event.StartAt, err = parseTime(r.StartAt); err != nil {
		return persistence.StudentEvent{}, err
	}
	if event.EndAt, err = parseNullTime(r.EndAt); err != nil {
		return persistence.StudentEvent{}, err
	}
	if event.CreatedAt, err = parseTime(r.CreatedAt); err != nil {
		return persistence.StudentEvent{}, err
	}
	if event.UpdatedAt, err = parseTime(r.UpdatedAt); err != nil {
		return persistence.StudentEvent{}, err
	}
	return event, nil
}

// CreateEvent inserts a student event.
func (s *Storage) CreateEvent(ctx context.Context, event persistence.StudentEvent) error {
	return s.withTransaction(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO student_events (id, user_id, title, description, location, start_at, end_at, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			event.ID,
			event.UserID,
			event.Title,
			nullableString(event.Description),
			nullableString(event.Location),
			formatTime(event.StartAt),
			nullableTime(event.EndAt),
			formatTime(event.CreatedAt),
			formatTime(event.UpdatedAt),
		)
		return mapError(err)
	})
}

// UpdateEvent overwrites every mutable column of an owned event.
func (s *Storage) UpdateEvent(ctx context.Context, event persistence.StudentEvent) error {
	return s.withTransaction(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE student_events
			SET title = ?, description = ?, location = ?, start_at = ?, end_at = ?, updated_at = ?
			WHERE id = ? AND user_id = ?`,
			event.Title,
			nullableString(event.Description),
			nullableString(event.Location),
			formatTime(event.StartAt),
			nullableTime(event.EndAt),
			formatTime(event.UpdatedAt),
			event.ID,
			event.UserID,
		)
		if err != nil {
			return mapError(err)
		}
		return mapError(affectedOrNotFound(result))
	})
}

// GetEvent loads an event owned by userID.
func (s *Storage) GetEvent(ctx context.Context, userID, id string) (persistence.StudentEvent, error) {
	var row eventRow
	if err := s.db.GetContext(ctx, &row, `SELECT * FROM student_events WHERE id = ? AND user_id = ?`, id, userID); err != nil {
		return persistence.StudentEvent{}, mapError(err)
	}
	return row.model()
}

// DeleteEvent removes an event owned by userID.
func (s *Storage) DeleteEvent(ctx context.Context, userID, id string) error {
	return s.withTransaction(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM student_events WHERE id = ? AND user_id = ?`, id, userID)
		if err != nil {
			return mapError(err)
		}
		return mapError(affectedOrNotFound(result))
	})
}

// ListEvents returns events whose start falls inside the filter bounds,
// ordered by start.
func (s *Storage) ListEvents(ctx context.Context, filter persistence.EventFilter) ([]persistence.StudentEvent, error) {
	where := whereClause{}
	where.add("user_id = ?", filter.UserID)
	if filter.StartsFrom != nil {
		where.add("start_at >= ?", formatTime(*filter.StartsFrom))
	}
	if filter.StartsUntil != nil {
		where.add("start_at <= ?", formatTime(*filter.StartsUntil))
	}
	if filter.ExcludeID != "" {
		where.add("id <> ?", filter.ExcludeID)
	}
	where.search(filter.Query, "title", "description", "location")

	var rows []eventRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM student_events`+where.String()+` ORDER BY start_at, id`, where.args...); err != nil {
		return nil, mapError(err)
	}

	events := make([]persistence.StudentEvent, 0, len(rows))
	for _, row := range rows {
		event, err := row.model()
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}

var _ persistence.EventRepository = (*Storage)(nil)
