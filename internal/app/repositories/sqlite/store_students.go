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

const studentColumns = `id, first_name, last_name, email, phone_number, date_of_birth, created_at, updated_at`

func scanStudent(row scanner) (*models.Student, error) {
	var (
		student   models.Student
		phone     sql.NullString
		birth     sql.NullString
		createdAt int64
		updatedAt int64
	)
	if err := row.Scan(
		&student.ID,
		&student.FirstName,
		&student.LastName,
		&student.Email,
		&phone,
		&birth,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	dob, err := helpers.ParseNullDate(birth)
	if err != nil {
		return nil, fmt.Errorf("parse date of birth: %w", err)
	}
	student.PhoneNumber = helpers.StringPtr(phone)
	student.DateOfBirth = dob
	student.CreatedAt = helpers.FromMillis(createdAt)
	student.UpdatedAt = helpers.FromMillis(updatedAt)
	return &student, nil
}

func (q *queries) getStudent(ctx context.Context, query string, arg any) (*models.Student, error) {
	student, err := scanStudent(q.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("get student: %w", err)
	}
	return student, nil
}

// CreateStudent inserts one student.
func (q *queries) CreateStudent(ctx context.Context, student *models.Student) error {
	now := q.now()
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO students (first_name, last_name, email, phone_number, date_of_birth, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		student.FirstName,
		student.LastName,
		student.Email,
		helpers.GetNullString(student.PhoneNumber),
		helpers.GetNullDate(student.DateOfBirth),
		helpers.ToMillis(now),
		helpers.ToMillis(now),
	)
	if err != nil {
		if dberrors.IsUniqueViolation(err) {
			return repositories.ErrAlreadyExists
		}
		return fmt.Errorf("create student: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("student id: %w", err)
	}
	student.ID = id
	student.CreatedAt = now
	student.UpdatedAt = now
	return nil
}

// GetStudentByID returns one student.
func (q *queries) GetStudentByID(ctx context.Context, id int64) (*models.Student, error) {
	return q.getStudent(ctx, `SELECT `+studentColumns+` FROM students WHERE id = ?`, id)
}

// GetStudentByEmail returns the student registered under email.
func (q *queries) GetStudentByEmail(ctx context.Context, email string) (*models.Student, error) {
	return q.getStudent(ctx, `SELECT `+studentColumns+` FROM students WHERE email = ?`, email)
}

// ListStudents returns all students ordered by id.
func (q *queries) ListStudents(ctx context.Context) ([]*models.Student, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+studentColumns+` FROM students ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	defer rows.Close()

	var students []*models.Student
	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		students = append(students, student)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate students: %w", err)
	}
	return students, nil
}

// UpdateStudent rewrites the mutable student fields.
func (q *queries) UpdateStudent(ctx context.Context, student *models.Student) error {
	now := q.now()
	res, err := q.db.ExecContext(ctx,
		`UPDATE students
		 SET first_name = ?, last_name = ?, email = ?, phone_number = ?, date_of_birth = ?, updated_at = ?
		 WHERE id = ?`,
		student.FirstName,
		student.LastName,
		student.Email,
		helpers.GetNullString(student.PhoneNumber),
		helpers.GetNullDate(student.DateOfBirth),
		helpers.ToMillis(now),
		student.ID,
	)
	if err != nil {
		if dberrors.IsUniqueViolation(err) {
			return repositories.ErrAlreadyExists
		}
		return fmt.Errorf("update student: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return err
	}
	student.UpdatedAt = now
	return nil
}

// DeleteStudent removes a student; enrollments and grades cascade.
func (q *queries) DeleteStudent(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM students WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return repositories.ErrNotFound
	}
	return nil
}
