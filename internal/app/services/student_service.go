package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/registrar/internal/app/models"
	"github.com/yigit/registrar/internal/app/repositories"
	"github.com/yigit/registrar/internal/pkg/apperrors"
	"golang.org/x/sync/errgroup"
)

// StudentService handles student records and progress reports
type StudentService struct {
	store  repositories.Store
	ledger CapacityLedger
	logger zerolog.Logger
}

// NewStudentService creates a new student service instance
func NewStudentService(store repositories.Store, ledger CapacityLedger, logger zerolog.Logger) *StudentService {
	return &StudentService{
		store:  store,
		ledger: ledger,
		logger: logger,
	}
}

// validateStudent normalises and validates student data before database operations
func validateStudent(student *models.Student) error {
	if student == nil {
		return apperrors.NewInvalidArgumentError("student is nil")
	}

	student.FirstName = strings.TrimSpace(student.FirstName)
	student.LastName = strings.TrimSpace(student.LastName)
	student.Email = strings.ToLower(strings.TrimSpace(student.Email))

	if student.FirstName == "" || student.LastName == "" {
		return apperrors.NewInvalidArgumentError("first and last name are required")
	}
	if _, err := mail.ParseAddress(student.Email); err != nil {
		return apperrors.NewInvalidArgumentError(fmt.Sprintf("invalid email %q", student.Email))
	}
	return nil
}

// CreateStudent registers a new student
func (s *StudentService) CreateStudent(ctx context.Context, student *models.Student) error {
	if err := validateStudent(student); err != nil {
		return err
	}

	if err := s.store.CreateStudent(ctx, student); err != nil {
		if errors.Is(err, repositories.ErrAlreadyExists) {
			return apperrors.NewAlreadyExistsError(fmt.Sprintf("student with email %s already exists", student.Email))
		}
		return storeError(err, "student")
	}

	s.logger.Info().Int64("studentId", student.ID).Msg("Student created")
	return nil
}

// GetStudentByID retrieves a student by ID
func (s *StudentService) GetStudentByID(ctx context.Context, id int64) (*models.Student, error) {
	student, err := s.store.GetStudentByID(ctx, id)
	if err != nil {
		return nil, storeError(err, studentSubject(id))
	}
	return student, nil
}

// ListStudents retrieves all students
func (s *StudentService) ListStudents(ctx context.Context) ([]*models.Student, error) {
	students, err := s.store.ListStudents(ctx)
	if err != nil {
		return nil, storeError(err, "students")
	}
	return students, nil
}

// UpdateStudent updates a student's profile
func (s *StudentService) UpdateStudent(ctx context.Context, student *models.Student) error {
	if err := validateStudent(student); err != nil {
		return err
	}

	if err := s.store.UpdateStudent(ctx, student); err != nil {
		if errors.Is(err, repositories.ErrAlreadyExists) {
			return apperrors.NewAlreadyExistsError(fmt.Sprintf("student with email %s already exists", student.Email))
		}
		return storeError(err, studentSubject(student.ID))
	}
	return nil
}

// DeleteStudent deletes a student. Seats held by the student's active enrollments are
// returned before the enrollments cascade away.
func (s *StudentService) DeleteStudent(ctx context.Context, id int64) error {
	err := s.ledger.Atomically(ctx, func(ctx context.Context, q repositories.Querier) error {
		if _, err := q.GetStudentByID(ctx, id); err != nil {
			return storeError(err, studentSubject(id))
		}

		active, err := q.ListEnrollments(ctx, repositories.EnrollmentFilter{
			StudentID: id,
			Status:    models.EnrollmentActive,
		})
		if err != nil {
			return storeError(err, "active enrollments of "+studentSubject(id))
		}
		for _, enrollment := range active {
			if err := s.ledger.ReleaseSeat(ctx, q, enrollment.CourseID); err != nil {
				return err
			}
		}

		if err := q.DeleteStudent(ctx, id); err != nil {
			return storeError(err, studentSubject(id))
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info().Int64("studentId", id).Msg("Student deleted")
	return nil
}

// StudentProgress builds the progress report of a student
func (s *StudentService) StudentProgress(ctx context.Context, studentID int64) (*models.StudentProgress, error) {
	var (
		student *models.Student
		records []*models.GradeRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		student, err = s.store.GetStudentByID(gctx, studentID)
		if err != nil {
			return storeError(err, studentSubject(studentID))
		}
		return nil
	})
	g.Go(func() error {
		var err error
		records, err = s.store.ListGradeRecordsByStudent(gctx, studentID)
		if err != nil {
			return storeError(err, "grades of "+studentSubject(studentID))
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	progress := &models.StudentProgress{
		StudentID:   student.ID,
		StudentName: student.FullName(),
		GPA:         CreditWeightedGPA(records),
		Courses:     make([]models.CourseProgress, 0, len(records)),
	}
	for _, record := range records {
		if record.Completed && record.Value.IsPassing() {
			progress.CompletedCredits += record.Credits
		}
		progress.Courses = append(progress.Courses, models.CourseProgress{
			CourseID:         record.CourseID,
			CourseCode:       record.CourseCode,
			CourseTitle:      record.CourseTitle,
			Credits:          record.Credits,
			Grade:            record.Value,
			Completed:        record.Completed,
			EnrollmentStatus: record.EnrollmentStatus,
		})
	}
	return progress, nil
}
