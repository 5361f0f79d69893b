package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/yigit/registrar/internal/app/models"
	"github.com/yigit/registrar/internal/app/repositories"
	"github.com/yigit/registrar/internal/pkg/dberrors"
	"github.com/yigit/registrar/internal/pkg/helpers"
)

const courseColumns = `id, code, title, description, credits, capacity, enrolled_count, created_at, updated_at`

func scanCourse(row scanner) (*models.Course, error) {
	var (
		course      models.Course
		description sql.NullString
		createdAt   int64
		updatedAt   int64
	)
	if err := row.Scan(
		&course.ID,
		&course.Code,
		&course.Title,
		&description,
		&course.Credits,
		&course.Capacity,
		&course.EnrolledCount,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}
	course.Description = helpers.StringPtr(description)
	course.CreatedAt = helpers.FromMillis(createdAt)
	course.UpdatedAt = helpers.FromMillis(updatedAt)
	return &course, nil
}

func (q *queries) getCourse(ctx context.Context, query string, arg any) (*models.Course, error) {
	course, err := scanCourse(q.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("get course: %w", err)
	}
	return course, nil
}

func (q *queries) listCourses(ctx context.Context, query string) ([]*models.Course, error) {
	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()

	var courses []*models.Course
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		courses = append(courses, course)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate courses: %w", err)
	}
	return courses, nil
}

// CreateCourse inserts one course with no seats taken.
func (q *queries) CreateCourse(ctx context.Context, course *models.Course) error {
	now := q.now()
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO courses (code, title, description, credits, capacity, enrolled_count, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, 0, ?, ?)`,
		course.Code,
		course.Title,
		helpers.GetNullString(course.Description),
		course.Credits,
		course.Capacity,
		helpers.ToMillis(now),
		helpers.ToMillis(now),
	)
	if err != nil {
		if dberrors.IsUniqueViolation(err) {
			return repositories.ErrAlreadyExists
		}
		return fmt.Errorf("create course: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("course id: %w", err)
	}
	course.ID = id
	course.EnrolledCount = 0
	course.CreatedAt = now
	course.UpdatedAt = now
	return nil
}

// GetCourseByID returns one course.
func (q *queries) GetCourseByID(ctx context.Context, id int64) (*models.Course, error) {
	return q.getCourse(ctx, `SELECT `+courseColumns+` FROM courses WHERE id = ?`, id)
}

// GetCourseByCode returns the course with the given code.
func (q *queries) GetCourseByCode(ctx context.Context, code string) (*models.Course, error) {
	return q.getCourse(ctx, `SELECT `+courseColumns+` FROM courses WHERE code = ?`, code)
}

// ListCourses returns all courses ordered by id.
func (q *queries) ListCourses(ctx context.Context) ([]*models.Course, error) {
	return q.listCourses(ctx, `SELECT `+courseColumns+` FROM courses ORDER BY id`)
}

// ListCoursesWithAvailableSeats returns courses that are not full.
func (q *queries) ListCoursesWithAvailableSeats(ctx context.Context) ([]*models.Course, error) {
	return q.listCourses(ctx, `SELECT `+courseColumns+` FROM courses WHERE enrolled_count < capacity ORDER BY id`)
}

// UpdateCourse rewrites code, title, description and credits.
func (q *queries) UpdateCourse(ctx context.Context, course *models.Course) error {
	now := q.now()
	res, err := q.db.ExecContext(ctx,
		`UPDATE courses SET code = ?, title = ?, description = ?, credits = ?, updated_at = ? WHERE id = ?`,
		course.Code,
		course.Title,
		helpers.GetNullString(course.Description),
		course.Credits,
		helpers.ToMillis(now),
		course.ID,
	)
	if err != nil {
		if dberrors.IsUniqueViolation(err) {
			return repositories.ErrAlreadyExists
		}
		return fmt.Errorf("update course: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return err
	}

	if err := q.db.QueryRowContext(ctx,
		`SELECT capacity, enrolled_count FROM courses WHERE id = ?`, course.ID,
	).Scan(&course.Capacity, &course.EnrolledCount); err != nil {
		return fmt.Errorf("reload course: %w", err)
	}
	course.UpdatedAt = now
	return nil
}

// DeleteCourse removes a course. It fails with ErrAlreadyExists while another course
// still references it as a prerequisite.
func (q *queries) DeleteCourse(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM courses WHERE id = ?`, id)
	if err != nil {
		if dberrors.IsForeignKeyViolation(err) {
			return repositories.ErrAlreadyExists
		}
		return fmt.Errorf("delete course: %w", err)
	}
	return requireAffected(res)
}

func (q *queries) courseExists(ctx context.Context, id int64) (bool, error) {
	var found int
	err := q.db.QueryRowContext(ctx, `SELECT 1 FROM courses WHERE id = ?`, id).Scan(&found)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check course: %w", err)
	}
	return true, nil
}

// conditionalMiss turns a conditional update that matched no row into the right error.
func (q *queries) conditionalMiss(ctx context.Context, courseID int64) error {
	exists, err := q.courseExists(ctx, courseID)
	if err != nil {
		return err
	}
	if !exists {
		return repositories.ErrNotFound
	}
	return repositories.ErrNoCapacity
}

// IncrementEnrolledCount takes one seat if the course is not full.
func (q *queries) IncrementEnrolledCount(ctx context.Context, courseID int64) (int, error) {
	var enrolled int
	err := q.db.QueryRowContext(ctx,
		`UPDATE courses SET enrolled_count = enrolled_count + 1, updated_at = ?
		 WHERE id = ? AND enrolled_count < capacity
		 RETURNING enrolled_count`,
		helpers.ToMillis(q.now()), courseID,
	).Scan(&enrolled)
	if err == nil {
		return enrolled, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("reserve seat: %w", err)
	}
	return 0, q.conditionalMiss(ctx, courseID)
}

// DecrementEnrolledCount frees one seat, never going below zero.
func (q *queries) DecrementEnrolledCount(ctx context.Context, courseID int64) (int, error) {
	var enrolled int
	err := q.db.QueryRowContext(ctx,
		`UPDATE courses SET enrolled_count = MAX(enrolled_count - 1, 0), updated_at = ?
		 WHERE id = ?
		 RETURNING enrolled_count`,
		helpers.ToMillis(q.now()), courseID,
	).Scan(&enrolled)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, repositories.ErrNotFound
		}
		return 0, fmt.Errorf("release seat: %w", err)
	}
	return enrolled, nil
}

// UpdateCapacity sets a new capacity unless more seats are already taken.
func (q *queries) UpdateCapacity(ctx context.Context, courseID int64, capacity int) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE courses SET capacity = ?, updated_at = ? WHERE id = ? AND enrolled_count <= ?`,
		capacity, helpers.ToMillis(q.now()), courseID, capacity,
	)
	if err != nil {
		return fmt.Errorf("update capacity: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 1 {
		return nil
	}
	return q.conditionalMiss(ctx, courseID)
}

func (q *queries) listIDs(ctx context.Context, query string, arg any) ([]int64, error) {
	rows, err := q.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ids: %w", err)
	}
	return ids, nil
}

// ListPrerequisiteIDs returns the direct prerequisites of a course.
func (q *queries) ListPrerequisiteIDs(ctx context.Context, courseID int64) ([]int64, error) {
	return q.listIDs(ctx,
		`SELECT prerequisite_id FROM course_prerequisites WHERE course_id = ? ORDER BY prerequisite_id`,
		courseID)
}

// ListDependentCourseIDs returns the courses that require prerequisiteID.
func (q *queries) ListDependentCourseIDs(ctx context.Context, prerequisiteID int64) ([]int64, error) {
	return q.listIDs(ctx,
		`SELECT course_id FROM course_prerequisites WHERE prerequisite_id = ? ORDER BY course_id`,
		prerequisiteID)
}

// AddPrerequisite records one prerequisite edge.
func (q *queries) AddPrerequisite(ctx context.Context, courseID, prerequisiteID int64) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO course_prerequisites (course_id, prerequisite_id) VALUES (?, ?)`,
		courseID, prerequisiteID,
	)
	if err != nil {
		if dberrors.IsUniqueViolation(err) {
			return repositories.ErrAlreadyExists
		}
		if dberrors.IsForeignKeyViolation(err) {
			return repositories.ErrNotFound
		}
		return fmt.Errorf("add prerequisite: %w", err)
	}
	return nil
}

// RemovePrerequisite deletes one prerequisite edge.
func (q *queries) RemovePrerequisite(ctx context.Context, courseID, prerequisiteID int64) error {
	res, err := q.db.ExecContext(ctx,
		`DELETE FROM course_prerequisites WHERE course_id = ? AND prerequisite_id = ?`,
		courseID, prerequisiteID,
	)
	if err != nil {
		return fmt.Errorf("remove prerequisite: %w", err)
	}
	return requireAffected(res)
}
