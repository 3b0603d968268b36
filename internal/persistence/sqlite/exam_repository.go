package sqlite

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/example/study-planner/internal/persistence"
)

type examRow struct {
	ID              string         `db:"id"`
	UserID          string         `db:"user_id"`
	SemesterID      sql.NullString `db:"semester_id"`
	CourseID        sql.NullString `db:"course_id"`
	Title           string         `db:"title"`
	Location        sql.NullString `db:"location"`
	Notes           sql.NullString `db:"notes"`
	ExamDate        string         `db:"exam_date"`
	DurationMinutes sql.NullInt64  `db:"duration_minutes"`
	CreatedAt       string         `db:"created_at"`
	UpdatedAt       string         `db:"updated_at"`
}

func (r examRow) model() (persistence.Exam, error) {
	exam := persistence.Exam{
		ID:              r.ID,
		UserID:          r.UserID,
		SemesterID:      stringPtr(r.SemesterID),
		CourseID:        stringPtr(r.CourseID),
		Title:           r.Title,
		Location:        stringPtr(r.Location),
		Notes:           stringPtr(r.Notes),
		DurationMinutes: intPtr(r.DurationMinutes),
	}

	var err error
	if exam.ExamDate, err = parseTime(r.ExamDate); err != nil {
		return persistence.Exam{}, err
	}
	if exam.CreatedAt, err = parseTime(r.CreatedAt); err != nil {
		return persistence.Exam{}, err
	}
	if exam.UpdatedAt, err = parseTime(r.UpdatedAt); err != nil {
		return persistence.Exam{}, err
	}
	return exam, nil
}

// CreateExam inserts an exam.
func (s *Storage) CreateExam(ctx context.Context, exam persistence.Exam) error {
	return s.withTransaction(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO exams (id, user_id, semester_id, course_id, title, location, notes, exam_date,
			                   duration_minutes, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			exam.ID,
			exam.UserID,
			nullableString(exam.SemesterID),
			nullableString(exam.CourseID),
			exam.Title,
			nullableString(exam.Location),
			nullableString(exam.Notes),
			formatTime(exam.ExamDate),
			nullableInt(exam.DurationMinutes),
			formatTime(exam.CreatedAt),
			formatTime(exam.UpdatedAt),
		)
		return mapError(err)
	})
}

// UpdateExam overwrites every mutable column of an owned exam.
func (s *Storage) UpdateExam(ctx context.Context, exam persistence.Exam) error {
	return s.withTransaction(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE exams
			SET semester_id = ?, course_id = ?, title = ?, location = ?, notes = ?, exam_date = ?,
			    duration_minutes = ?, updated_at = ?
			WHERE id = ? AND user_id = ?`,
			nullableString(exam.SemesterID),
			nullableString(exam.CourseID),
			exam.Title,
			nullableString(exam.Location),
			nullableString(exam.Notes),
			formatTime(exam.ExamDate),
			nullableInt(exam.DurationMinutes),
			formatTime(exam.UpdatedAt),
			exam.ID,
			exam.UserID,
		)
		if err != nil {
			return mapError(err)
		}
		return mapError(affectedOrNotFound(result))
	})
}

// GetExam loads an exam owned by userID.
func (s *Storage) GetExam(ctx context.Context, userID, id string) (persistence.Exam, error) {
	var row examRow
	if err := s.db.GetContext(ctx, &row, `SELECT * FROM exams WHERE id = ? AND user_id = ?`, id, userID); err != nil {
		return persistence.Exam{}, mapError(err)
	}
	return row.model()
}

// DeleteExam removes an exam owned by userID.
func (s *Storage) DeleteExam(ctx context.Context, userID, id string) error {
	return s.withTransaction(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM exams WHERE id = ? AND user_id = ?`, id, userID)
		if err != nil {
			return mapError(err)
		}
		return mapError(affectedOrNotFound(result))
	})
}

// ListExams returns exams matching filter ordered by exam date.
func (s *Storage) ListExams(ctx context.Context, filter persistence.ExamFilter) ([]persistence.Exam, error) {
	where := whereClause{}
	where.add("user_id = ?", filter.UserID)
	if filter.Window != nil {
		where.add("exam_date BETWEEN ? AND ?", formatTime(filter.Window.From), formatTime(filter.Window.To))
	}
	if filter.SemesterID != nil {
		where.add("semester_id = ?", *filter.SemesterID)
	}
	if filter.CourseID != nil {
		where.add("course_id = ?", *filter.CourseID)
	}
	if filter.ExcludeID != "" {
		where.add("id <> ?", filter.ExcludeID)
	}
	where.search(filter.Query, "title", "location", "notes")

	var rows []examRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM exams`+where.String()+` ORDER BY exam_date, id`, where.args...); err != nil {
		return nil, mapError(err)
	}

	exams := make([]persistence.Exam, 0, len(rows))
	for _, row := range rows {
		exam, err := row.model()
		if err != nil {
			return nil, err
		}
		exams = append(exams, exam)
	}
	return exams, nil
}

var _ persistence.ExamRepository = (*Storage)(nil)
