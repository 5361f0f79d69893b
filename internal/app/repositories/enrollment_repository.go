package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/registrar/internal/app/models"
	"github.com/yigit/registrar/internal/pkg/dberrors"
)

const enrollmentSelect = `
	SELECT e.id, e.student_id, e.course_id, e.enrollment_date, e.status,
	       e.withdrawal_reason, e.withdrawal_date, e.created_at, e.updated_at, g.id
	FROM enrollments e
	LEFT JOIN grades g ON g.enrollment_id = e.id`

// EnrollmentRepository handles database operations for enrollments
type EnrollmentRepository struct {
	db DBTX
	sb squirrel.StatementBuilderType
}

// NewEnrollmentRepository creates a new enrollment repository
func NewEnrollmentRepository(db DBTX) *EnrollmentRepository {
	return &EnrollmentRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanEnrollment(row pgx.Row) (*models.Enrollment, error) {
	var (
		enrollment models.Enrollment
		status     string
	)
	err := row.Scan(
		&enrollment.ID,
		&enrollment.StudentID,
		&enrollment.CourseID,
		&enrollment.EnrollmentDate,
		&status,
		&enrollment.WithdrawalReason,
		&enrollment.WithdrawalDate,
		&enrollment.CreatedAt,
		&enrollment.UpdatedAt,
		&enrollment.GradeID,
	)
	if err != nil {
		return nil, err
	}
	enrollment.Status = models.EnrollmentStatus(status)
	return &enrollment, nil
}

func (r *EnrollmentRepository) getOne(ctx context.Context, query string, args ...any) (*models.Enrollment, error) {
	enrollment, err := scanEnrollment(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error retrieving enrollment: %w", err)
	}
	return enrollment, nil
}

// CreateEnrollment inserts a new enrollment row
func (r *EnrollmentRepository) CreateEnrollment(ctx context.Context, enrollment *models.Enrollment) error {
	query := `
		INSERT INTO enrollments (student_id, course_id, enrollment_date, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		enrollment.StudentID, enrollment.CourseID, enrollment.EnrollmentDate, string(enrollment.Status),
	).Scan(&enrollment.ID, &enrollment.CreatedAt, &enrollment.UpdatedAt)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, "uq_enrollments_active_pair") {
			return ErrAlreadyExists
		}
		if dberrors.IsForeignKeyViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("error creating enrollment: %w", err)
	}

	return nil
}

// GetEnrollmentByID retrieves an enrollment by ID
func (r *EnrollmentRepository) GetEnrollmentByID(ctx context.Context, id int64) (*models.Enrollment, error) {
	return r.getOne(ctx, enrollmentSelect+` WHERE e.id = $1`, id)
}

// LockEnrollment retrieves an enrollment and locks its row for the rest of the transaction
func (r *EnrollmentRepository) LockEnrollment(ctx context.Context, id int64) (*models.Enrollment, error) {
	return r.getOne(ctx, enrollmentSelect+` WHERE e.id = $1 FOR UPDATE OF e`, id)
}

// FindEnrollmentByStudentAndCourse returns the ACTIVE enrollment of the pair, or the latest one
func (r *EnrollmentRepository) FindEnrollmentByStudentAndCourse(ctx context.Context, studentID, courseID int64) (*models.Enrollment, error) {
	return r.getOne(ctx, enrollmentSelect+`
		WHERE e.student_id = $1 AND e.course_id = $2
		ORDER BY (e.status = 'ACTIVE') DESC, e.id DESC
		LIMIT 1`, studentID, courseID)
}

// ActiveEnrollmentExists checks whether the pair already holds a seat
func (r *EnrollmentRepository) ActiveEnrollmentExists(ctx context.Context, studentID, courseID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM enrollments
			WHERE student_id = $1 AND course_id = $2 AND status = 'ACTIVE'
		)`, studentID, courseID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking active enrollment: %w", err)
	}
	return exists, nil
}

// ListEnrollments retrieves enrollments matching the filter
func (r *EnrollmentRepository) ListEnrollments(ctx context.Context, filter EnrollmentFilter) ([]*models.Enrollment, error) {
	qb := r.sb.Select(
		"e.id", "e.student_id", "e.course_id", "e.enrollment_date", "e.status",
		"e.withdrawal_reason", "e.withdrawal_date", "e.created_at", "e.updated_at", "g.id",
	).
		From("enrollments e").
		LeftJoin("grades g ON g.enrollment_id = e.id").
		OrderBy("e.id")

	if filter.StudentID != 0 {
		qb = qb.Where(squirrel.Eq{"e.student_id": filter.StudentID})
	}
	if filter.CourseID != 0 {
		qb = qb.Where(squirrel.Eq{"e.course_id": filter.CourseID})
	}
	if filter.Status != "" {
		qb = qb.Where(squirrel.Eq{"e.status": string(filter.Status)})
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building enrollment query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing enrollments: %w", err)
	}
	defer rows.Close()

	var enrollments []*models.Enrollment
	for rows.Next() {
		enrollment, err := scanEnrollment(rows)
		if err != nil {
			return nil, err
		}
		enrollments = append(enrollments, enrollment)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return enrollments, nil
}

// ListCompletedCourseIDs returns the courses the student has a COMPLETED enrollment in
func (r *EnrollmentRepository) ListCompletedCourseIDs(ctx context.Context, studentID int64) ([]int64, error) {
	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT course_id FROM enrollments
		WHERE student_id = $1 AND status = 'COMPLETED'
		ORDER BY course_id`, studentID)
	if err != nil {
		return nil, fmt.Errorf("error listing completed courses: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("error scanning completed courses: %w", err)
	}
	return ids, nil
}

// UpdateEnrollmentStatus persists status and withdrawal details
func (r *EnrollmentRepository) UpdateEnrollmentStatus(ctx context.Context, enrollment *models.Enrollment) error {
	query := `
		UPDATE enrollments
		SET status = $1, withdrawal_reason = $2, withdrawal_date = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING updated_at
	`

	var updatedAt time.Time
	err := r.db.QueryRow(ctx, query,
		string(enrollment.Status), enrollment.WithdrawalReason, enrollment.WithdrawalDate, enrollment.ID,
	).Scan(&updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if dberrors.IsDuplicateConstraintError(err, "uq_enrollments_active_pair") {
			return ErrAlreadyExists
		}
		return fmt.Errorf("error updating enrollment status: %w", err)
	}
	enrollment.UpdatedAt = updatedAt

	return nil
}

// DeleteEnrollment deletes an enrollment by ID; its grade cascades
func (r *EnrollmentRepository) DeleteEnrollment(ctx context.Context, id int64) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM enrollments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting enrollment: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// CountActiveEnrollments counts the seats actually held in a course
func (r *EnrollmentRepository) CountActiveEnrollments(ctx context.Context, courseID int64) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM enrollments
		WHERE course_id = $1 AND status = 'ACTIVE'`, courseID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("error counting active enrollments: %w", err)
	}
	return count, nil
}
