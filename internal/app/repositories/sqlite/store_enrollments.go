package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/yigit/registrar/internal/app/models"
	"github.com/yigit/registrar/internal/app/repositories"
	"github.com/yigit/registrar/internal/pkg/dberrors"
	"github.com/yigit/registrar/internal/pkg/helpers"
)

const enrollmentSelect = `
	SELECT e.id, e.student_id, e.course_id, e.enrollment_date, e.status,
	       e.withdrawal_reason, e.withdrawal_date, e.created_at, e.updated_at, g.id
	FROM enrollments e
	LEFT JOIN grades g ON g.enrollment_id = e.id`

func scanEnrollment(row scanner) (*models.Enrollment, error) {
	var (
		enrollment     models.Enrollment
		enrollmentDate string
		status         string
		reason         sql.NullString
		withdrawalDate sql.NullString
		createdAt      int64
		updatedAt      int64
		gradeID        sql.NullInt64
	)
	if err := row.Scan(
		&enrollment.ID,
		&enrollment.StudentID,
		&enrollment.CourseID,
		&enrollmentDate,
		&status,
		&reason,
		&withdrawalDate,
		&createdAt,
		&updatedAt,
		&gradeID,
	); err != nil {
		return nil, err
	}

	date, err := time.ParseInLocation(helpers.DateLayout, enrollmentDate, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("parse enrollment date: %w", err)
	}
	withdrawn, err := helpers.ParseNullDate(withdrawalDate)
	if err != nil {
		return nil, fmt.Errorf("parse withdrawal date: %w", err)
	}

	enrollment.EnrollmentDate = date
	enrollment.Status = models.EnrollmentStatus(status)
	enrollment.WithdrawalReason = helpers.StringPtr(reason)
	enrollment.WithdrawalDate = withdrawn
	enrollment.CreatedAt = helpers.FromMillis(createdAt)
	enrollment.UpdatedAt = helpers.FromMillis(updatedAt)
	if gradeID.Valid {
		id := gradeID.Int64
		enrollment.GradeID = &id
	}
	return &enrollment, nil
}

func (q *queries) getEnrollment(ctx context.Context, query string, args ...any) (*models.Enrollment, error) {
	enrollment, err := scanEnrollment(q.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("get enrollment: %w", err)
	}
	return enrollment, nil
}

// CreateEnrollment inserts one enrollment.
func (q *queries) CreateEnrollment(ctx context.Context, enrollment *models.Enrollment) error {
	now := q.now()
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO enrollments (student_id, course_id, enrollment_date, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		enrollment.StudentID,
		enrollment.CourseID,
		enrollment.EnrollmentDate.Format(helpers.DateLayout),
		string(enrollment.Status),
		helpers.ToMillis(now),
		helpers.ToMillis(now),
	)
	if err != nil {
		if dberrors.IsUniqueViolation(err) {
			return repositories.ErrAlreadyExists
		}
		if dberrors.IsForeignKeyViolation(err) {
			return repositories.ErrNotFound
		}
		return fmt.Errorf("create enrollment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("enrollment id: %w", err)
	}
	enrollment.ID = id
	enrollment.CreatedAt = now
	enrollment.UpdatedAt = now
	return nil
}

// GetEnrollmentByID returns one enrollment.
func (q *queries) GetEnrollmentByID(ctx context.Context, id int64) (*models.Enrollment, error) {
	return q.getEnrollment(ctx, enrollmentSelect+` WHERE e.id = ?`, id)
}

// LockEnrollment returns one enrollment. Write transactions already hold the
// database lock from BEGIN, so no row lock is needed.
func (q *queries) LockEnrollment(ctx context.Context, id int64) (*models.Enrollment, error) {
	return q.GetEnrollmentByID(ctx, id)
}

// FindEnrollmentByStudentAndCourse returns the ACTIVE enrollment of the pair, or the latest one.
func (q *queries) FindEnrollmentByStudentAndCourse(ctx context.Context, studentID, courseID int64) (*models.Enrollment, error) {
	return q.getEnrollment(ctx, enrollmentSelect+`
		WHERE e.student_id = ? AND e.course_id = ?
		ORDER BY (e.status = 'ACTIVE') DESC, e.id DESC
		LIMIT 1`, studentID, courseID)
}

// ActiveEnrollmentExists reports whether the pair holds a seat.
func (q *queries) ActiveEnrollmentExists(ctx context.Context, studentID, courseID int64) (bool, error) {
	var found int
	err := q.db.QueryRowContext(ctx,
		`SELECT 1 FROM enrollments WHERE student_id = ? AND course_id = ? AND status = 'ACTIVE'`,
		studentID, courseID,
	).Scan(&found)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check active enrollment: %w", err)
	}
	return true, nil
}

// ListEnrollments returns the enrollments matching filter ordered by id.
func (q *queries) ListEnrollments(ctx context.Context, filter repositories.EnrollmentFilter) ([]*models.Enrollment, error) {
	qb := squirrel.Select(
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
		return nil, fmt.Errorf("build enrollment query: %w", err)
	}

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	defer rows.Close()

	var enrollments []*models.Enrollment
	for rows.Next() {
		enrollment, err := scanEnrollment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan enrollment: %w", err)
		}
		enrollments = append(enrollments, enrollment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate enrollments: %w", err)
	}
	return enrollments, nil
}

// ListCompletedCourseIDs returns the courses the student has completed.
func (q *queries) ListCompletedCourseIDs(ctx context.Context, studentID int64) ([]int64, error) {
	return q.listIDs(ctx,
		`SELECT DISTINCT course_id FROM enrollments WHERE student_id = ? AND status = 'COMPLETED' ORDER BY course_id`,
		studentID)
}

// UpdateEnrollmentStatus writes status and withdrawal details.
func (q *queries) UpdateEnrollmentStatus(ctx context.Context, enrollment *models.Enrollment) error {
	now := q.now()
	res, err := q.db.ExecContext(ctx,
		`UPDATE enrollments SET status = ?, withdrawal_reason = ?, withdrawal_date = ?, updated_at = ? WHERE id = ?`,
		string(enrollment.Status),
		helpers.GetNullString(enrollment.WithdrawalReason),
		helpers.GetNullDate(enrollment.WithdrawalDate),
		helpers.ToMillis(now),
		enrollment.ID,
	)
	if err != nil {
		if dberrors.IsUniqueViolation(err) {
			return repositories.ErrAlreadyExists
		}
		return fmt.Errorf("update enrollment status: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return err
	}
	enrollment.UpdatedAt = now
	return nil
}

// DeleteEnrollment removes an enrollment; its grade cascades.
func (q *queries) DeleteEnrollment(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM enrollments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete enrollment: %w", err)
	}
	return requireAffected(res)
}

// CountActiveEnrollments counts the seats actually held in a course.
func (q *queries) CountActiveEnrollments(ctx context.Context, courseID int64) (int, error) {
	var count int
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM enrollments WHERE course_id = ? AND status = 'ACTIVE'`, courseID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count active enrollments: %w", err)
	}
	return count, nil
}
