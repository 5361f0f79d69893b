package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/yigit/registrar/internal/app/models"
	"github.com/yigit/registrar/internal/pkg/dberrors"
)

const courseColumns = `id, code, title, description, credits, capacity, enrolled_count, created_at, updated_at`

// CourseRepository handles database operations for courses and their prerequisites
type CourseRepository struct {
	db DBTX
}

// NewCourseRepository creates a new course repository
func NewCourseRepository(db DBTX) *CourseRepository {
	return &CourseRepository{
		db: db,
	}
}

func scanCourse(row pgx.Row) (*models.Course, error) {
	var course models.Course
	err := row.Scan(
		&course.ID,
		&course.Code,
		&course.Title,
		&course.Description,
		&course.Credits,
		&course.Capacity,
		&course.EnrolledCount,
		&course.CreatedAt,
		&course.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *CourseRepository) listCourses(ctx context.Context, query string, args ...any) ([]*models.Course, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing courses: %w", err)
	}
	defer rows.Close()

	var courses []*models.Course
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, course)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return courses, nil
}

// CreateCourse creates a new course with a zero seat count
func (r *CourseRepository) CreateCourse(ctx context.Context, course *models.Course) error {
	query := `
		INSERT INTO courses (code, title, description, credits, capacity, enrolled_count)
		VALUES ($1, $2, $3, $4, $5, 0)
		RETURNING id, enrolled_count, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		course.Code, course.Title, course.Description, course.Credits, course.Capacity,
	).Scan(&course.ID, &course.EnrolledCount, &course.CreatedAt, &course.UpdatedAt)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, "uq_courses_code") {
			return ErrAlreadyExists
		}
		return fmt.Errorf("error creating course: %w", err)
	}

	return nil
}

// GetCourseByID retrieves a course by ID
func (r *CourseRepository) GetCourseByID(ctx context.Context, id int64) (*models.Course, error) {
	course, err := scanCourse(r.db.QueryRow(ctx, `SELECT `+courseColumns+` FROM courses WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error retrieving course: %w", err)
	}

	return course, nil
}

// GetCourseByCode retrieves a course by its unique code
func (r *CourseRepository) GetCourseByCode(ctx context.Context, code string) (*models.Course, error) {
	course, err := scanCourse(r.db.QueryRow(ctx, `SELECT `+courseColumns+` FROM courses WHERE code = $1`, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error retrieving course by code: %w", err)
	}

	return course, nil
}

// ListCourses retrieves all courses
func (r *CourseRepository) ListCourses(ctx context.Context) ([]*models.Course, error) {
	return r.listCourses(ctx, `SELECT `+courseColumns+` FROM courses ORDER BY id`)
}

// ListCoursesWithAvailableSeats retrieves courses that still have free seats
func (r *CourseRepository) ListCoursesWithAvailableSeats(ctx context.Context) ([]*models.Course, error) {
	return r.listCourses(ctx, `SELECT `+courseColumns+` FROM courses WHERE enrolled_count < capacity ORDER BY id`)
}

// UpdateCourse updates the descriptive fields of a course; capacity and seats are not touched
func (r *CourseRepository) UpdateCourse(ctx context.Context, course *models.Course) error {
	query := `
		UPDATE courses
		SET code = $1, title = $2, description = $3, credits = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING capacity, enrolled_count, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		course.Code, course.Title, course.Description, course.Credits, course.ID,
	).Scan(&course.Capacity, &course.EnrolledCount, &course.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if dberrors.IsDuplicateConstraintError(err, "uq_courses_code") {
			return ErrAlreadyExists
		}
		return fmt.Errorf("error updating course: %w", err)
	}

	return nil
}

// DeleteCourse deletes a course by ID
func (r *CourseRepository) DeleteCourse(ctx context.Context, id int64) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		if dberrors.IsForeignKeyViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("error deleting course: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// courseExists distinguishes "no such course" from "condition not met" after a conditional update
func (r *CourseRepository) courseExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM courses WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking course existence: %w", err)
	}
	return exists, nil
}

// IncrementEnrolledCount reserves one seat with a single conditional update
func (r *CourseRepository) IncrementEnrolledCount(ctx context.Context, courseID int64) (int, error) {
	query := `
		UPDATE courses
		SET enrolled_count = enrolled_count + 1, updated_at = NOW()
		WHERE id = $1 AND enrolled_count < capacity
		RETURNING enrolled_count
	`

	var enrolled int
	err := r.db.QueryRow(ctx, query, courseID).Scan(&enrolled)
	if err == nil {
		return enrolled, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("error reserving seat: %w", err)
	}

	exists, err := r.courseExists(ctx, courseID)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, ErrNotFound
	}
	return 0, ErrNoCapacity
}

// DecrementEnrolledCount releases one seat, never going below zero
func (r *CourseRepository) DecrementEnrolledCount(ctx context.Context, courseID int64) (int, error) {
	query := `
		UPDATE courses
		SET enrolled_count = GREATEST(enrolled_count - 1, 0), updated_at = NOW()
		WHERE id = $1
		RETURNING enrolled_count
	`

	var enrolled int
	err := r.db.QueryRow(ctx, query, courseID).Scan(&enrolled)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("error releasing seat: %w", err)
	}

	return enrolled, nil
}

// UpdateCapacity changes capacity unless the course already holds more students
func (r *CourseRepository) UpdateCapacity(ctx context.Context, courseID int64, capacity int) error {
	cmdTag, err := r.db.Exec(ctx, `
		UPDATE courses
		SET capacity = $2, updated_at = NOW()
		WHERE id = $1 AND enrolled_count <= $2`,
		courseID, capacity)
	if err != nil {
		return fmt.Errorf("error updating capacity: %w", err)
	}
	if cmdTag.RowsAffected() == 1 {
		return nil
	}

	exists, err := r.courseExists(ctx, courseID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrNoCapacity
}

// ListPrerequisiteIDs returns the direct prerequisites of a course
func (r *CourseRepository) ListPrerequisiteIDs(ctx context.Context, courseID int64) ([]int64, error) {
	return r.listIDs(ctx, `
		SELECT prerequisite_id FROM course_prerequisites
		WHERE course_id = $1
		ORDER BY prerequisite_id`, courseID)
}

// ListDependentCourseIDs returns the courses that list prerequisiteID as a direct prerequisite
func (r *CourseRepository) ListDependentCourseIDs(ctx context.Context, prerequisiteID int64) ([]int64, error) {
	return r.listIDs(ctx, `
		SELECT course_id FROM course_prerequisites
		WHERE prerequisite_id = $1
		ORDER BY course_id`, prerequisiteID)
}

func (r *CourseRepository) listIDs(ctx context.Context, query string, args ...any) ([]int64, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing ids: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("error scanning ids: %w", err)
	}
	return ids, nil
}

// AddPrerequisite records a prerequisite edge
func (r *CourseRepository) AddPrerequisite(ctx context.Context, courseID, prerequisiteID int64) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO course_prerequisites (course_id, prerequisite_id)
		VALUES ($1, $2)`,
		courseID, prerequisiteID)
	if err != nil {
		if dberrors.IsUniqueViolation(err) {
			return ErrAlreadyExists
		}
		if dberrors.IsForeignKeyViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("error adding prerequisite: %w", err)
	}
	return nil
}

// RemovePrerequisite deletes a prerequisite edge
func (r *CourseRepository) RemovePrerequisite(ctx context.Context, courseID, prerequisiteID int64) error {
	cmdTag, err := r.db.Exec(ctx, `
		DELETE FROM course_prerequisites
		WHERE course_id = $1 AND prerequisite_id = $2`,
		courseID, prerequisiteID)
	if err != nil {
		return fmt.Errorf("error removing prerequisite: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
