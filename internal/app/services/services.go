// Package services implements the enrollment engine on top of a repositories.Store.
//
// Services defined in this package:
// - PrerequisiteService: decides whether a student has completed a course's direct prerequisites
// - CapacityService: the seat ledger, the only component that touches enrolled counts
// - EnrollmentService: the enrollment state machine (admit, drop, status changes, withdrawal)
// - GradeService: the grade ledger and GPA computation
// - SchoolManagementService: orchestrates multi-step intents over the components above
// - CourseService / StudentService: course and student registries
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/yigit/registrar/internal/app/models"
	"github.com/yigit/registrar/internal/app/repositories"
	"github.com/yigit/registrar/internal/pkg/apperrors"
)

// PrerequisiteChecker decides admission eligibility from completed courses.
type PrerequisiteChecker interface {
	// CheckPrerequisites reports whether the student has completed every direct prerequisite.
	CheckPrerequisites(ctx context.Context, studentID, courseID int64) (bool, error)
	// UnmetPrerequisites returns the direct prerequisites the student has not completed,
	// reading through q so it can run inside a caller's transaction.
	UnmetPrerequisites(ctx context.Context, q repositories.Querier, studentID, courseID int64) ([]int64, error)
}

// CapacityLedger owns the enrolled-seat counter of every course.
type CapacityLedger interface {
	// Atomically runs fn in a transaction, retrying it a bounded number of times on
	// transient store conflicts.
	Atomically(ctx context.Context, fn repositories.TxFunc) error
	ReserveSeat(ctx context.Context, q repositories.Querier, courseID int64) (*Reservation, error)
	ReleaseSeat(ctx context.Context, q repositories.Querier, courseID int64) error
	AvailableSeats(ctx context.Context, courseID int64) (int, error)
	UpdateCapacity(ctx context.Context, courseID int64, capacity int) (*models.Course, error)
}

// EnrollmentLifecycle is the enrollment state machine.
type EnrollmentLifecycle interface {
	Admit(ctx context.Context, studentID, courseID int64) (*models.Enrollment, error)
	Drop(ctx context.Context, enrollmentID int64) error
	DropByStudentAndCourse(ctx context.Context, studentID, courseID int64) error
	SetStatus(ctx context.Context, enrollmentID int64, status models.EnrollmentStatus) (*models.Enrollment, error)
	Withdraw(ctx context.Context, studentID int64, reason string) ([]*models.Enrollment, error)
}

// GradeLedger records grades once per enrollment and derives GPA from them.
type GradeLedger interface {
	RecordGrade(ctx context.Context, enrollmentID int64, input GradeInput) (*models.Grade, error)
	UpdateGrade(ctx context.Context, gradeID int64, input GradeInput) (*models.Grade, error)
	DeleteGrade(ctx context.Context, gradeID int64) error
	ComputeGPA(ctx context.Context, studentID int64) (float64, error)
	IsCourseCompleted(ctx context.Context, enrollmentID int64) (bool, error)
}

// storeError maps repository sentinels onto the application error taxonomy.
func storeError(err error, subject string) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return apperrors.NewNotFoundError(subject + " not found")
	case errors.Is(err, repositories.ErrAlreadyExists):
		return apperrors.NewAlreadyExistsError(subject + " already exists")
	}
	return fmt.Errorf("%s: %w", subject, err)
}

func studentSubject(id int64) string {
	return fmt.Sprintf("student %d", id)
}

func courseSubject(id int64) string {
	return fmt.Sprintf("course %d", id)
}

func enrollmentSubject(id int64) string {
	return fmt.Sprintf("enrollment %d", id)
}

func gradeSubject(id int64) string {
	return fmt.Sprintf("grade %d", id)
}
