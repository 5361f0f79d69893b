package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/yigit/registrar/internal/app/models"
	"github.com/yigit/registrar/internal/pkg/dberrors"
)

const gradeColumns = `g.id, g.enrollment_id, g.grade_value, g.comments, g.is_course_completed, g.graded_date, g.created_at, g.updated_at`

// GradeRepository handles database operations for grades
type GradeRepository struct {
	db DBTX
}

// NewGradeRepository creates a new grade repository
func NewGradeRepository(db DBTX) *GradeRepository {
	return &GradeRepository{
		db: db,
	}
}

func gradeFields(grade *models.Grade, value *string) []any {
	return []any{
		&grade.ID,
		&grade.EnrollmentID,
		value,
		&grade.Comments,
		&grade.Completed,
		&grade.GradedDate,
		&grade.CreatedAt,
		&grade.UpdatedAt,
	}
}

func scanGrade(row pgx.Row) (*models.Grade, error) {
	var (
		grade models.Grade
		value string
	)
	if err := row.Scan(gradeFields(&grade, &value)...); err != nil {
		return nil, err
	}
	grade.Value = models.GradeValue(value)
	return &grade, nil
}

func (r *GradeRepository) getOne(ctx context.Context, query string, args ...any) (*models.Grade, error) {
	grade, err := scanGrade(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error retrieving grade: %w", err)
	}
	return grade, nil
}

// CreateGrade inserts the grade of an enrollment
func (r *GradeRepository) CreateGrade(ctx context.Context, grade *models.Grade) error {
	query := `
		INSERT INTO grades (enrollment_id, grade_value, comments, is_course_completed, graded_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		grade.EnrollmentID, string(grade.Value), grade.Comments, grade.Completed, grade.GradedDate,
	).Scan(&grade.ID, &grade.CreatedAt, &grade.UpdatedAt)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, "uq_grades_enrollment") {
			return ErrAlreadyExists
		}
		if dberrors.IsForeignKeyViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("error creating grade: %w", err)
	}

	return nil
}

// GetGradeByID retrieves a grade by ID
func (r *GradeRepository) GetGradeByID(ctx context.Context, id int64) (*models.Grade, error) {
	return r.getOne(ctx, `SELECT `+gradeColumns+` FROM grades g WHERE g.id = $1`, id)
}

// GetGradeByEnrollmentID retrieves the grade attached to an enrollment
func (r *GradeRepository) GetGradeByEnrollmentID(ctx context.Context, enrollmentID int64) (*models.Grade, error) {
	return r.getOne(ctx, `SELECT `+gradeColumns+` FROM grades g WHERE g.enrollment_id = $1`, enrollmentID)
}

// UpdateGrade updates value, comments, completion flag and graded date
func (r *GradeRepository) UpdateGrade(ctx context.Context, grade *models.Grade) error {
	query := `
		UPDATE grades
		SET grade_value = $1, comments = $2, is_course_completed = $3, graded_date = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING updated_at
	`

	err := r.db.QueryRow(ctx, query,
		string(grade.Value), grade.Comments, grade.Completed, grade.GradedDate, grade.ID,
	).Scan(&grade.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("error updating grade: %w", err)
	}

	return nil
}

// DeleteGrade deletes a grade by ID
func (r *GradeRepository) DeleteGrade(ctx context.Context, id int64) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM grades WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting grade: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// ListGradeRecordsByStudent retrieves every grade of a student joined with its course
func (r *GradeRepository) ListGradeRecordsByStudent(ctx context.Context, studentID int64) ([]*models.GradeRecord, error) {
	query := `
		SELECT ` + gradeColumns + `,
		       e.student_id, e.course_id, e.status, c.code, c.title, c.credits
		FROM grades g
		JOIN enrollments e ON e.id = g.enrollment_id
		JOIN courses c ON c.id = e.course_id
		WHERE e.student_id = $1
		ORDER BY g.id
	`

	rows, err := r.db.Query(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("error listing student grades: %w", err)
	}
	defer rows.Close()

	var records []*models.GradeRecord
	for rows.Next() {
		var (
			record models.GradeRecord
			value  string
			status string
		)
		dest := append(gradeFields(&record.Grade, &value),
			&record.StudentID, &record.CourseID, &status,
			&record.CourseCode, &record.CourseTitle, &record.Credits,
		)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		record.Value = models.GradeValue(value)
		record.EnrollmentStatus = models.EnrollmentStatus(status)
		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

// ListGradesByCourse retrieves the grades given in a course
func (r *GradeRepository) ListGradesByCourse(ctx context.Context, courseID int64) ([]*models.Grade, error) {
	query := `
		SELECT ` + gradeColumns + `
		FROM grades g
		JOIN enrollments e ON e.id = g.enrollment_id
		WHERE e.course_id = $1
		ORDER BY g.id
	`

	rows, err := r.db.Query(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("error listing course grades: %w", err)
	}
	defer rows.Close()

	var grades []*models.Grade
	for rows.Next() {
		grade, err := scanGrade(rows)
		if err != nil {
			return nil, err
		}
		grades = append(grades, grade)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return grades, nil
}
