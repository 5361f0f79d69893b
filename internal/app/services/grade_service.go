package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/registrar/internal/app/models"
	"github.com/yigit/registrar/internal/app/repositories"
	"github.com/yigit/registrar/internal/pkg/apperrors"
	"github.com/yigit/registrar/internal/pkg/helpers"
)

// GradeInput carries the caller-controlled fields of a grade.
type GradeInput struct {
	Value models.GradeValue
	// Comments are left as stored when an update passes nil.
	Comments      *string
	MarkCompleted bool
	// GradedDate defaults to today when nil.
	GradedDate *time.Time
}

// GradeService records at most one grade per enrollment and computes GPA.
// Grades can only be written while their enrollment is ACTIVE; marking a grade completed
// moves the enrollment to COMPLETED, which freezes the grade.
type GradeService struct {
	store  repositories.Store
	ledger CapacityLedger
	logger zerolog.Logger
	today  func() time.Time
}

var _ GradeLedger = (*GradeService)(nil)

// NewGradeService creates a new grade ledger
func NewGradeService(store repositories.Store, ledger CapacityLedger, logger zerolog.Logger) *GradeService {
	return &GradeService{
		store:  store,
		ledger: ledger,
		logger: logger,
		today:  helpers.Today,
	}
}

func (s *GradeService) gradedDate(input GradeInput) *time.Time {
	if input.GradedDate != nil {
		return input.GradedDate
	}
	today := s.today()
	return &today
}

// RecordGrade attaches a grade to an ACTIVE enrollment
func (s *GradeService) RecordGrade(ctx context.Context, enrollmentID int64, input GradeInput) (*models.Grade, error) {
	var grade *models.Grade

	err := s.ledger.Atomically(ctx, func(ctx context.Context, q repositories.Querier) error {
		enrollment, err := q.LockEnrollment(ctx, enrollmentID)
		if err != nil {
			return storeError(err, enrollmentSubject(enrollmentID))
		}
		if !enrollment.IsActive() {
			return apperrors.NewEnrollmentNotActiveError(fmt.Sprintf(
				"cannot record a grade for enrollment %d in status %s", enrollmentID, enrollment.Status))
		}
		if enrollment.GradeID != nil {
			return apperrors.NewAlreadyExistsError(fmt.Sprintf(
				"a grade already exists for enrollment %d", enrollmentID))
		}
		if !input.Value.IsValid() {
			return apperrors.NewInvalidGradeError(fmt.Sprintf("invalid grade value: %q", input.Value))
		}

		candidate := &models.Grade{
			EnrollmentID: enrollmentID,
			Value:        input.Value,
			Comments:     input.Comments,
			Completed:    input.MarkCompleted,
			GradedDate:   s.gradedDate(input),
		}
		if err := q.CreateGrade(ctx, candidate); err != nil {
			if errors.Is(err, repositories.ErrAlreadyExists) {
				return apperrors.NewAlreadyExistsError(fmt.Sprintf(
					"a grade already exists for enrollment %d", enrollmentID))
			}
			return storeError(err, "grade")
		}

		if input.MarkCompleted {
			if err := leaveActive(ctx, q, s.ledger, enrollment, models.EnrollmentCompleted, nil, s.today()); err != nil {
				return err
			}
		}
		grade = candidate
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("gradeId", grade.ID).
		Int64("enrollmentId", enrollmentID).
		Str("grade", string(grade.Value)).
		Bool("completed", grade.Completed).
		Msg("Grade recorded")
	return grade, nil
}

// UpdateGrade rewrites a grade whose enrollment is still ACTIVE
func (s *GradeService) UpdateGrade(ctx context.Context, gradeID int64, input GradeInput) (*models.Grade, error) {
	var grade *models.Grade

	err := s.ledger.Atomically(ctx, func(ctx context.Context, q repositories.Querier) error {
		existing, err := q.GetGradeByID(ctx, gradeID)
		if err != nil {
			return storeError(err, gradeSubject(gradeID))
		}
		enrollment, err := q.LockEnrollment(ctx, existing.EnrollmentID)
		if err != nil {
			return storeError(err, enrollmentSubject(existing.EnrollmentID))
		}
		if !enrollment.IsActive() {
			return apperrors.NewEnrollmentNotActiveError(fmt.Sprintf(
				"cannot update grade %d: enrollment %d is %s", gradeID, enrollment.ID, enrollment.Status))
		}
		if input.Value != existing.Value && !input.Value.IsValid() {
			return apperrors.NewInvalidGradeError(fmt.Sprintf("invalid grade value: %q", input.Value))
		}

		existing.Value = input.Value
		if input.Comments != nil {
			existing.Comments = input.Comments
		}
		if input.GradedDate != nil {
			existing.GradedDate = input.GradedDate
		}
		completing := input.MarkCompleted && !existing.Completed
		existing.Completed = input.MarkCompleted

		if err := q.UpdateGrade(ctx, existing); err != nil {
			return storeError(err, gradeSubject(gradeID))
		}
		if completing {
			if err := leaveActive(ctx, q, s.ledger, enrollment, models.EnrollmentCompleted, nil, s.today()); err != nil {
				return err
			}
		}
		grade = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("gradeId", gradeID).
		Str("grade", string(grade.Value)).
		Bool("completed", grade.Completed).
		Msg("Grade updated")
	return grade, nil
}

// DeleteGrade detaches and deletes a grade; the enrollment keeps its status
func (s *GradeService) DeleteGrade(ctx context.Context, gradeID int64) error {
	err := s.ledger.Atomically(ctx, func(ctx context.Context, q repositories.Querier) error {
		if err := q.DeleteGrade(ctx, gradeID); err != nil {
			return storeError(err, gradeSubject(gradeID))
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info().Int64("gradeId", gradeID).Msg("Grade deleted")
	return nil
}

// ComputeGPA returns the credit-weighted GPA of a student
func (s *GradeService) ComputeGPA(ctx context.Context, studentID int64) (float64, error) {
	if _, err := s.store.GetStudentByID(ctx, studentID); err != nil {
		return 0, storeError(err, studentSubject(studentID))
	}

	records, err := s.store.ListGradeRecordsByStudent(ctx, studentID)
	if err != nil {
		return 0, storeError(err, "grades of "+studentSubject(studentID))
	}

	gpa := CreditWeightedGPA(records)
	s.logger.Debug().Int64("studentId", studentID).Float64("gpa", gpa).Msg("Computed GPA")
	return gpa, nil
}

// IsCourseCompleted reports whether the enrollment carries a grade flagged completed
func (s *GradeService) IsCourseCompleted(ctx context.Context, enrollmentID int64) (bool, error) {
	if _, err := s.store.GetEnrollmentByID(ctx, enrollmentID); err != nil {
		return false, storeError(err, enrollmentSubject(enrollmentID))
	}

	grade, err := s.store.GetGradeByEnrollmentID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return false, nil
		}
		return false, storeError(err, "grade of "+enrollmentSubject(enrollmentID))
	}
	return grade.Completed, nil
}

// GetGrade retrieves a grade by ID
func (s *GradeService) GetGrade(ctx context.Context, gradeID int64) (*models.Grade, error) {
	grade, err := s.store.GetGradeByID(ctx, gradeID)
	if err != nil {
		return nil, storeError(err, gradeSubject(gradeID))
	}
	return grade, nil
}

// ListGradesByStudent retrieves a student's grades with their course facts
func (s *GradeService) ListGradesByStudent(ctx context.Context, studentID int64) ([]*models.GradeRecord, error) {
	records, err := s.store.ListGradeRecordsByStudent(ctx, studentID)
	if err != nil {
		return nil, storeError(err, "grades of "+studentSubject(studentID))
	}
	return records, nil
}

// ListGradesByCourse retrieves the grades given in a course
func (s *GradeService) ListGradesByCourse(ctx context.Context, courseID int64) ([]*models.Grade, error) {
	grades, err := s.store.ListGradesByCourse(ctx, courseID)
	if err != nil {
		return nil, storeError(err, "grades of "+courseSubject(courseID))
	}
	return grades, nil
}

// CreditWeightedGPA is Σ(points × credits) / Σ credits over completed grades that carry
// grade points. P, I and W are left out; F and NP count as 0.0. The result is rounded to
// two decimals and is 0 when nothing counts.
func CreditWeightedGPA(records []*models.GradeRecord) float64 {
	var (
		weighted float64
		credits  int
	)
	for _, record := range records {
		if !record.Completed || !record.Value.CountsTowardGPA() {
			continue
		}
		points, _ := record.Value.Points()
		weighted += points * float64(record.Credits)
		credits += record.Credits
	}
	if credits == 0 {
		return 0
	}
	return helpers.Round2(weighted / float64(credits))
}
