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

const gradeColumns = `g.id, g.enrollment_id, g.grade_value, g.comments, g.is_course_completed, g.graded_date, g.created_at, g.updated_at`

// gradeRow holds the raw columns of a grade until they are converted.
type gradeRow struct {
	value      string
	comments   sql.NullString
	completed  int
	gradedDate sql.NullString
	createdAt  int64
	updatedAt  int64
}

func (r *gradeRow) dest(grade *models.Grade) []any {
	return []any{
		&grade.ID,
		&grade.EnrollmentID,
		&r.value,
		&r.comments,
		&r.completed,
		&r.gradedDate,
		&r.createdAt,
		&r.updatedAt,
	}
}

func (r *gradeRow) apply(grade *models.Grade) error {
	graded, err := helpers.ParseNullDate(r.gradedDate)
	if err != nil {
		return fmt.Errorf("parse graded date: %w", err)
	}
	grade.Value = models.GradeValue(r.value)
	grade.Comments = helpers.StringPtr(r.comments)
	grade.Completed = r.completed != 0
	grade.GradedDate = graded
	grade.CreatedAt = helpers.FromMillis(r.createdAt)
	grade.UpdatedAt = helpers.FromMillis(r.updatedAt)
	return nil
}

func scanGrade(row scanner) (*models.Grade, error) {
	var (
		grade models.Grade
		raw   gradeRow
	)
	if err := row.Scan(raw.dest(&grade)...); err != nil {
		return nil, err
	}
	if err := raw.apply(&grade); err != nil {
		return nil, err
	}
	return &grade, nil
}

func (q *queries) getGrade(ctx context.Context, query string, arg any) (*models.Grade, error) {
	grade, err := scanGrade(q.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("get grade: %w", err)
	}
	return grade, nil
}

// CreateGrade inserts the grade of an enrollment.
func (q *queries) CreateGrade(ctx context.Context, grade *models.Grade) error {
	now := q.now()
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO grades (enrollment_id, grade_value, comments, is_course_completed, graded_date, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		grade.EnrollmentID,
		string(grade.Value),
		helpers.GetNullString(grade.Comments),
		boolToInt(grade.Completed),
		helpers.GetNullDate(grade.GradedDate),
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
		return fmt.Errorf("create grade: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("grade id: %w", err)
	}
	grade.ID = id
	grade.CreatedAt = now
	grade.UpdatedAt = now
	return nil
}

// GetGradeByID returns one grade.
func (q *queries) GetGradeByID(ctx context.Context, id int64) (*models.Grade, error) {
	return q.getGrade(ctx, `SELECT `+gradeColumns+` FROM grades g WHERE g.id = ?`, id)
}

// GetGradeByEnrollmentID returns the grade attached to an enrollment.
func (q *queries) GetGradeByEnrollmentID(ctx context.Context, enrollmentID int64) (*models.Grade, error) {
	return q.getGrade(ctx, `SELECT `+gradeColumns+` FROM grades g WHERE g.enrollment_id = ?`, enrollmentID)
}

// UpdateGrade rewrites value, comments, completion and graded date.
func (q *queries) UpdateGrade(ctx context.Context, grade *models.Grade) error {
	now := q.now()
	res, err := q.db.ExecContext(ctx,
		`UPDATE grades SET grade_value = ?, comments = ?, is_course_completed = ?, graded_date = ?, updated_at = ? WHERE id = ?`,
		string(grade.Value),
		helpers.GetNullString(grade.Comments),
		boolToInt(grade.Completed),
		helpers.GetNullDate(grade.GradedDate),
		helpers.ToMillis(now),
		grade.ID,
	)
	if err != nil {
		return fmt.Errorf("update grade: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return err
	}
	grade.UpdatedAt = now
	return nil
}

// DeleteGrade removes a grade.
func (q *queries) DeleteGrade(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM grades WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete grade: %w", err)
	}
	return requireAffected(res)
}

// ListGradeRecordsByStudent returns every grade of a student with its course facts.
func (q *queries) ListGradeRecordsByStudent(ctx context.Context, studentID int64) ([]*models.GradeRecord, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+gradeColumns+`, e.student_id, e.course_id, e.status, c.code, c.title, c.credits
		 FROM grades g
		 JOIN enrollments e ON e.id = g.enrollment_id
		 JOIN courses c ON c.id = e.course_id
		 WHERE e.student_id = ?
		 ORDER BY g.id`,
		studentID,
	)
	if err != nil {
		return nil, fmt.Errorf("list student grades: %w", err)
	}
	defer rows.Close()

	var records []*models.GradeRecord
	for rows.Next() {
		var (
			record models.GradeRecord
			raw    gradeRow
			status string
		)
		dest := append(raw.dest(&record.Grade),
			&record.StudentID, &record.CourseID, &status,
			&record.CourseCode, &record.CourseTitle, &record.Credits,
		)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan grade record: %w", err)
		}
		if err := raw.apply(&record.Grade); err != nil {
			return nil, err
		}
		record.EnrollmentStatus = models.EnrollmentStatus(status)
		records = append(records, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate grade records: %w", err)
	}
	return records, nil
}

// ListGradesByCourse returns the grades given in a course.
func (q *queries) ListGradesByCourse(ctx context.Context, courseID int64) ([]*models.Grade, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+gradeColumns+`
		 FROM grades g
		 JOIN enrollments e ON e.id = g.enrollment_id
		 WHERE e.course_id = ?
		 ORDER BY g.id`,
		courseID,
	)
	if err != nil {
		return nil, fmt.Errorf("list course grades: %w", err)
	}
	defer rows.Close()

	var grades []*models.Grade
	for rows.Next() {
		grade, err := scanGrade(rows)
		if err != nil {
			return nil, fmt.Errorf("scan grade: %w", err)
		}
		grades = append(grades, grade)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate grades: %w", err)
	}
	return grades, nil
}
