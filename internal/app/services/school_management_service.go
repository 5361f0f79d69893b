package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/registrar/internal/app/models"
	"github.com/yigit/registrar/internal/pkg/apperrors"
)

// BulkEnrollItem is the outcome of one course in a bulk enrollment.
type BulkEnrollItem struct {
	CourseID   int64
	Enrollment *models.Enrollment
	Err        error
}

// Succeeded reports whether the course was admitted.
func (i BulkEnrollItem) Succeeded() bool {
	return i.Err == nil
}

// BulkEnrollResult lists the outcome of every requested course, in request order.
type BulkEnrollResult struct {
	StudentID int64
	Items     []BulkEnrollItem
}

// Enrollments returns the enrollments that were created.
func (r *BulkEnrollResult) Enrollments() []*models.Enrollment {
	var out []*models.Enrollment
	for _, item := range r.Items {
		if item.Succeeded() {
			out = append(out, item.Enrollment)
		}
	}
	return out
}

// Failures returns the items that were rejected.
func (r *BulkEnrollResult) Failures() []BulkEnrollItem {
	var out []BulkEnrollItem
	for _, item := range r.Items {
		if !item.Succeeded() {
			out = append(out, item)
		}
	}
	return out
}

// BulkEnrollError is returned when no course of a bulk enrollment could be admitted.
// errors.Is matches any of the per-course errors.
type BulkEnrollError struct {
	StudentID int64
	Items     []BulkEnrollItem
}

func (e *BulkEnrollError) Error() string {
	parts := make([]string, 0, len(e.Items))
	for _, item := range e.Items {
		parts = append(parts, fmt.Sprintf("course %d: %v", item.CourseID, item.Err))
	}
	return fmt.Sprintf("failed to enroll student %d in any course: %s", e.StudentID, strings.Join(parts, "; "))
}

// Unwrap exposes every per-course error.
func (e *BulkEnrollError) Unwrap() []error {
	errs := make([]error, 0, len(e.Items))
	for _, item := range e.Items {
		errs = append(errs, item.Err)
	}
	return errs
}

// SchoolManagementService orchestrates multi-step intents over the engine components.
// Every step is atomic on its own; bulk operations as a whole are not.
type SchoolManagementService struct {
	enrollments   EnrollmentLifecycle
	grades        GradeLedger
	ledger        CapacityLedger
	prerequisites PrerequisiteChecker
	logger        zerolog.Logger
}

// NewSchoolManagementService creates a new orchestrator
func NewSchoolManagementService(
	enrollments EnrollmentLifecycle,
	grades GradeLedger,
	ledger CapacityLedger,
	prerequisites PrerequisiteChecker,
	logger zerolog.Logger,
) *SchoolManagementService {
	return &SchoolManagementService{
		enrollments:   enrollments,
		grades:        grades,
		ledger:        ledger,
		prerequisites: prerequisites,
		logger:        logger,
	}
}

// AdmitStudent enrolls a student in one course
func (s *SchoolManagementService) AdmitStudent(ctx context.Context, studentID, courseID int64) (*models.Enrollment, error) {
	return s.enrollments.Admit(ctx, studentID, courseID)
}

// BulkEnroll admits the student into each course independently. The result always lists
// every course; the error is a *BulkEnrollError only when every course was rejected.
func (s *SchoolManagementService) BulkEnroll(ctx context.Context, studentID int64, courseIDs []int64) (*BulkEnrollResult, error) {
	if len(courseIDs) == 0 {
		return nil, apperrors.NewInvalidArgumentError("at least one course id is required")
	}

	result := &BulkEnrollResult{
		StudentID: studentID,
		Items:     make([]BulkEnrollItem, 0, len(courseIDs)),
	}
	succeeded := 0
	for _, courseID := range courseIDs {
		enrollment, err := s.enrollments.Admit(ctx, studentID, courseID)
		if err != nil {
			s.logger.Warn().Err(err).
				Int64("studentId", studentID).
				Int64("courseId", courseID).
				Msg("Failed to enroll student in course")
		} else {
			succeeded++
		}
		result.Items = append(result.Items, BulkEnrollItem{
			CourseID:   courseID,
			Enrollment: enrollment,
			Err:        err,
		})
	}

	s.logger.Info().
		Int64("studentId", studentID).
		Int("requested", len(courseIDs)).
		Int("admitted", succeeded).
		Msg("Bulk enrollment processed")

	if succeeded == 0 {
		return result, &BulkEnrollError{StudentID: studentID, Items: result.Items}
	}
	return result, nil
}

// Transfer drops the student from one course and admits them into another. When the
// admission fails the drop stays applied.
func (s *SchoolManagementService) Transfer(ctx context.Context, studentID, fromCourseID, toCourseID int64) (*models.Enrollment, error) {
	if fromCourseID == toCourseID {
		return nil, apperrors.NewInvalidArgumentError("source and target course must differ")
	}

	if err := s.enrollments.DropByStudentAndCourse(ctx, studentID, fromCourseID); err != nil {
		return nil, err
	}

	enrollment, err := s.enrollments.Admit(ctx, studentID, toCourseID)
	if err != nil {
		s.logger.Warn().Err(err).
			Int64("studentId", studentID).
			Int64("fromCourseId", fromCourseID).
			Int64("toCourseId", toCourseID).
			Msg("Transfer admission failed after drop")
		return nil, fmt.Errorf("dropped course %d but could not admit into course %d: %w", fromCourseID, toCourseID, err)
	}

	s.logger.Info().
		Int64("studentId", studentID).
		Int64("fromCourseId", fromCourseID).
		Int64("toCourseId", toCourseID).
		Msg("Student transferred")
	return enrollment, nil
}

// DropEnrollment drops one enrollment by ID
func (s *SchoolManagementService) DropEnrollment(ctx context.Context, enrollmentID int64) error {
	return s.enrollments.Drop(ctx, enrollmentID)
}

// DropByStudentAndCourse drops the student's enrollment in a course
func (s *SchoolManagementService) DropByStudentAndCourse(ctx context.Context, studentID, courseID int64) error {
	return s.enrollments.DropByStudentAndCourse(ctx, studentID, courseID)
}

// SetEnrollmentStatus moves an enrollment to a new status
func (s *SchoolManagementService) SetEnrollmentStatus(ctx context.Context, enrollmentID int64, status models.EnrollmentStatus) (*models.Enrollment, error) {
	return s.enrollments.SetStatus(ctx, enrollmentID, status)
}

// WithdrawStudent withdraws the student from all active enrollments
func (s *SchoolManagementService) WithdrawStudent(ctx context.Context, studentID int64, reason string) ([]*models.Enrollment, error) {
	return s.enrollments.Withdraw(ctx, studentID, reason)
}

// RecordGrade records the grade of an enrollment
func (s *SchoolManagementService) RecordGrade(ctx context.Context, enrollmentID int64, input GradeInput) (*models.Grade, error) {
	return s.grades.RecordGrade(ctx, enrollmentID, input)
}

// UpdateGrade rewrites a grade
func (s *SchoolManagementService) UpdateGrade(ctx context.Context, gradeID int64, input GradeInput) (*models.Grade, error) {
	return s.grades.UpdateGrade(ctx, gradeID, input)
}

// DeleteGrade deletes a grade
func (s *SchoolManagementService) DeleteGrade(ctx context.Context, gradeID int64) error {
	return s.grades.DeleteGrade(ctx, gradeID)
}

// ComputeGPA returns a student's credit-weighted GPA
func (s *SchoolManagementService) ComputeGPA(ctx context.Context, studentID int64) (float64, error) {
	return s.grades.ComputeGPA(ctx, studentID)
}

// IsCourseCompleted reports whether an enrollment's grade is flagged completed
func (s *SchoolManagementService) IsCourseCompleted(ctx context.Context, enrollmentID int64) (bool, error) {
	return s.grades.IsCourseCompleted(ctx, enrollmentID)
}

// CheckPrerequisites reports whether the student may take the course
func (s *SchoolManagementService) CheckPrerequisites(ctx context.Context, studentID, courseID int64) (bool, error) {
	return s.prerequisites.CheckPrerequisites(ctx, studentID, courseID)
}

// AvailableSeats returns the free seats of a course
func (s *SchoolManagementService) AvailableSeats(ctx context.Context, courseID int64) (int, error) {
	return s.ledger.AvailableSeats(ctx, courseID)
}

// UpdateCourseCapacity changes the capacity of a course
func (s *SchoolManagementService) UpdateCourseCapacity(ctx context.Context, courseID int64, capacity int) (*models.Course, error) {
	return s.ledger.UpdateCapacity(ctx, courseID, capacity)
}

// IsBulkEnrollError reports whether err is a *BulkEnrollError.
func IsBulkEnrollError(err error) bool {
	var bulkErr *BulkEnrollError
	return errors.As(err, &bulkErr)
}
