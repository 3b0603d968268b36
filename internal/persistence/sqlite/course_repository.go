package sqlite

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/example/study-planner/internal/persistence"
)

type courseRow struct {
	ID         string         `db:"id"`
	UserID     string         `db:"user_id"`
	SemesterID sql.NullString `db:"semester_id"`
	Code       string         `db:"code"`
	Title      string         `db:"title"`
	Instructor sql.NullString `db:"instructor"`
	Color      sql.NullString `db:"color"`
	CreatedAt  string         `db:"created_at"`
	UpdatedAt  string         `db:"updated_at"`
}

func (r courseRow) model() (persistence.Course, error) {
	created, err := parseTime(r.CreatedAt)
	if err != nil {
		return persistence.Course{}, err
	}
	updated, err := parseTime(r.UpdatedAt)
	if err != nil {
		return persistence.Course{}, err
	}
	return persistence.Course{
		ID:         r.ID,
		UserID:     r.UserID,
		SemesterID: stringPtr(r.SemesterID),
		Code:       r.Code,
		Title:      r.Title,
		Instructor: stringPtr(r.Instructor),
		Color:      stringPtr(r.Color),
		CreatedAt:  created,
		UpdatedAt:  updated,
	}, nil
}

type sessionRow struct {
	ID          string         `db:"id"`
	CourseID    string         `db:"course_id"`
	Weekday     string         `db:"weekday"`
	StartTime   string         `db:"start_time"`
	EndTime     string         `db:"end_time"`
	Room        sql.NullString `db:"room"`
	CourseCode      string         `db:"course_code"`
	CourseTitle     string         `db:"course_title"`
	SemesterID      sql.NullString `db:"semester_id"`
	CourseUpdatedAt string         `db:"course_updated_at"`
}

func (r sessionRow) session() persistence.ClassSession {
	return persistence.ClassSession{
		ID:        r.ID,
		CourseID:  r.CourseID,
		Weekday:   r.Weekday,
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
		Room:      stringPtr(r.Room),
	}
}

const sessionSelect = `
	SELECT cs.id, cs.course_id, cs.weekday, cs.start_time, cs.end_time, cs.room,
	       c.code AS course_code, c.title AS course_title, c.semester_id,
	       c.updated_at AS course_updated_at
	FROM class_sessions cs
	JOIN courses c ON c.id = cs.course_id`

// CreateCourse inserts a course and its sessions atomically.
func (s *Storage) CreateCourse(ctx context.Context, course persistence.Course) error {
	return s.withTransaction(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO courses (id, user_id, semester_id, code, title, instructor, color, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			course.ID,
			course.UserID,
			nullableString(course.SemesterID),
			course.Code,
			course.Title,
			nullableString(course.Instructor),
			nullableString(course.Color),
			formatTime(course.CreatedAt),
			formatTime(course.UpdatedAt),
		)
		if err != nil {
			return mapError(err)
		}

		for _, session := range course.Sessions {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO class_sessions (id, course_id, weekday, start_time, end_time, room)
				VALUES (?, ?, ?, ?, ?, ?)`,
				session.ID,
				course.ID,
				session.Weekday,
				session.StartTime,
				session.EndTime,
				nullableString(session.Room),
			)
			if err != nil {
				return mapError(err)
			}
		}
		return nil
	})
}

// GetCourse loads a course owned by userID together with its sessions.
func (s *Storage) GetCourse(ctx context.Context, userID, id string) (persistence.Course, error) {
	var row courseRow
	if err := s.db.GetContext(ctx, &row, `SELECT * FROM courses WHERE id = ? AND user_id = ?`, id, userID); err != nil {
		return persistence.Course{}, mapError(err)
	}
	course, err := row.model()
	if err != nil {
		return persistence.Course{}, err
	}

	sessions, err := s.sessionsByCourse(ctx, []string{id})
	if err != nil {
		return persistence.Course{}, err
	}
	course.Sessions = sessions[id]
	return course, nil
}

// ListCourses returns the courses matching filter ordered by code.
func (s *Storage) ListCourses(ctx context.Context, filter persistence.CourseFilter) ([]persistence.Course, error) {
	where := whereClause{}
	where.add("c.user_id = ?", filter.UserID)
	if filter.SemesterID != nil {
		where.add("c.semester_id = ?", *filter.SemesterID)
	}
	if filter.CourseID != nil {
		where.add("c.id = ?", *filter.CourseID)
	}
	if filter.Weekday != nil {
		where.add("EXISTS (SELECT 1 FROM class_sessions cs WHERE cs.course_id = c.id AND cs.weekday = ?)", *filter.Weekday)
	}
	where.search(filter.Query, "c.code", "c.title", "c.instructor")

	var rows []courseRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT c.* FROM courses c`+where.String()+` ORDER BY c.code, c.id`, where.args...); err != nil {
		return nil, mapError(err)
	}

	courses := make([]persistence.Course, 0, len(rows))
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		course, err := row.model()
		if err != nil {
			return nil, err
		}
		courses = append(courses, course)
		ids = append(ids, course.ID)
	}

	sessions, err := s.sessionsByCourse(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range courses {
		courses[i].Sessions = sessions[courses[i].ID]
	}
	return courses, nil
}

// DeleteCourse removes a course; its sessions are removed by cascade.
func (s *Storage) DeleteCourse(ctx context.Context, userID, id string) error {
	return s.withTransaction(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM courses WHERE id = ? AND user_id = ?`, id, userID)
		if err != nil {
			return mapError(err)
		}
		return mapError(affectedOrNotFound(result))
	})
}

// ListSessions returns the weekly sessions of the courses matching filter.
func (s *Storage) ListSessions(ctx context.Context, filter persistence.CourseFilter) ([]persistence.SessionWithCourse, error) {
	where := whereClause{}
	where.add("c.user_id = ?", filter.UserID)
	if filter.SemesterID != nil {
		where.add("c.semester_id = ?", *filter.SemesterID)
	}
	if filter.CourseID != nil {
		where.add("c.id = ?", *filter.CourseID)
	}
	if filter.Weekday != nil {
		where.add("cs.weekday = ?", *filter.Weekday)
	}
	where.search(filter.Query, "c.code", "c.title", "cs.room")

	var rows []sessionRow
	if err := s.db.SelectContext(ctx, &rows,
		sessionSelect+where.String()+` ORDER BY cs.start_time, c.code, cs.id`, where.args...); err != nil {
		return nil, mapError(err)
	}

	sessions := make([]persistence.SessionWithCourse, 0, len(rows))
	for _, row := range rows {
		updated, err := parseTime(row.CourseUpdatedAt)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, persistence.SessionWithCourse{
			ClassSession:    row.session(),
			CourseCode:      row.CourseCode,
			CourseTitle:     row.CourseTitle,
			SemesterID:      stringPtr(row.SemesterID),
			CourseUpdatedAt: updated,
		})
	}
	return sessions, nil
}

func (s *Storage) sessionsByCourse(ctx context.Context, courseIDs []string) (map[string][]persistence.ClassSession, error) {
	grouped := make(map[string][]persistence.ClassSession, len(courseIDs))
	if len(courseIDs) == 0 {
		return grouped, nil
	}

	query, args, err := sqlx.In(sessionSelect+` WHERE cs.course_id IN (?) ORDER BY cs.start_time, cs.id`, courseIDs)
	if err != nil {
		return nil, err
	}

	var rows []sessionRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, mapError(err)
	}
	for _, row := range rows {
		grouped[row.CourseID] = append(grouped[row.CourseID], row.session())
	}
	return grouped, nil
}

var _ persistence.CourseRepository = (*Storage)(nil)
