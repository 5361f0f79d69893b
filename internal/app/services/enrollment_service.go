package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/registrar/internal/app/models"
	"github.com/yigit/registrar/internal/app/repositories"
	"github.com/yigit/registrar/internal/pkg/apperrors"
	"github.com/yigit/registrar/internal/pkg/helpers"
)

// EnrollmentService is the enrollment state machine. ACTIVE is the only non-terminal
// status; every move out of it returns the seat to the capacity ledger.
type EnrollmentService struct {
	store         repositories.Store
	prerequisites PrerequisiteChecker
	ledger        CapacityLedger
	logger        zerolog.Logger
	today         func() time.Time
}

var _ EnrollmentLifecycle = (*EnrollmentService)(nil)

// NewEnrollmentService creates a new enrollment state machine
func NewEnrollmentService(
	store repositories.Store,
	prerequisites PrerequisiteChecker,
	ledger CapacityLedger,
	logger zerolog.Logger,
) *EnrollmentService {
	return &EnrollmentService{
		store:         store,
		prerequisites: prerequisites,
		ledger:        ledger,
		logger:        logger,
		today:         helpers.Today,
	}
}

// Admit enrolls a student in a course, taking one seat
func (s *EnrollmentService) Admit(ctx context.Context, studentID, courseID int64) (*models.Enrollment, error) {
	var enrollment *models.Enrollment

	err := s.ledger.Atomically(ctx, func(ctx context.Context, q repositories.Querier) error {
		if _, err := q.GetStudentByID(ctx, studentID); err != nil {
			return storeError(err, studentSubject(studentID))
		}
		course, err := q.GetCourseByID(ctx, courseID)
		if err != nil {
			return storeError(err, courseSubject(courseID))
		}

		active, err := q.ActiveEnrollmentExists(ctx, studentID, courseID)
		if err != nil {
			return storeError(err, "active enrollment")
		}
		if active {
			return apperrors.NewAlreadyExistsError(fmt.Sprintf(
				"student %d is already enrolled in course %s", studentID, course.Code))
		}

		unmet, err := s.prerequisites.UnmetPrerequisites(ctx, q, studentID, courseID)
		if err != nil {
			return err
		}
		if len(unmet) > 0 {
			return apperrors.NewPrerequisiteNotMetError(fmt.Sprintf(
				"student %d has not completed prerequisites %s for course %s",
				studentID, formatIDs(unmet), course.Code))
		}

		if _, err := s.ledger.ReserveSeat(ctx, q, courseID); err != nil {
			if errors.Is(err, apperrors.ErrCapacityExceeded) {
				return apperrors.NewCapacityExceededError(fmt.Sprintf(
					"course %s is full, no available seats", course.Code))
			}
			return err
		}

		candidate := &models.Enrollment{
			StudentID:      studentID,
			CourseID:       courseID,
			EnrollmentDate: s.today(),
			Status:         models.EnrollmentActive,
		}
		if err := q.CreateEnrollment(ctx, candidate); err != nil {
			// A concurrent admission of the same pair won the unique index.
			if errors.Is(err, repositories.ErrAlreadyExists) {
				return apperrors.NewAlreadyExistsError(fmt.Sprintf(
					"student %d is already enrolled in course %s", studentID, course.Code))
			}
			return storeError(err, "enrollment")
		}
		enrollment = candidate
		return nil
	})
	if err != nil {
		s.logger.Debug().Err(err).Int64("studentId", studentID).Int64("courseId", courseID).Msg("Admission rejected")
		return nil, err
	}

	s.logger.Info().
		Int64("enrollmentId", enrollment.ID).
		Int64("studentId", studentID).
		Int64("courseId", courseID).
		Msg("Student admitted")
	return enrollment, nil
}

// Drop removes an enrollment, returning its seat when it was ACTIVE
func (s *EnrollmentService) Drop(ctx context.Context, enrollmentID int64) error {
	return s.ledger.Atomically(ctx, func(ctx context.Context, q repositories.Querier) error {
		enrollment, err := q.LockEnrollment(ctx, enrollmentID)
		if err != nil {
			return storeError(err, enrollmentSubject(enrollmentID))
		}
		return s.drop(ctx, q, enrollment)
	})
}

// DropByStudentAndCourse drops the pair's ACTIVE enrollment, or its latest one when none is active
func (s *EnrollmentService) DropByStudentAndCourse(ctx context.Context, studentID, courseID int64) error {
	return s.ledger.Atomically(ctx, func(ctx context.Context, q repositories.Querier) error {
		found, err := q.FindEnrollmentByStudentAndCourse(ctx, studentID, courseID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return apperrors.NewNotFoundError(fmt.Sprintf(
					"enrollment not found for student %d and course %d", studentID, courseID))
			}
			return storeError(err, "enrollment")
		}

		enrollment, err := q.LockEnrollment(ctx, found.ID)
		if err != nil {
			return storeError(err, enrollmentSubject(found.ID))
		}
		return s.drop(ctx, q, enrollment)
	})
}

func (s *EnrollmentService) drop(ctx context.Context, q repositories.Querier, enrollment *models.Enrollment) error {
	if enrollment.IsActive() {
		if err := s.ledger.ReleaseSeat(ctx, q, enrollment.CourseID); err != nil {
			return err
		}
	}
	if err := q.DeleteEnrollment(ctx, enrollment.ID); err != nil {
		return storeError(err, enrollmentSubject(enrollment.ID))
	}

	s.logger.Info().
		Int64("enrollmentId", enrollment.ID).
		Int64("studentId", enrollment.StudentID).
		Int64("courseId", enrollment.CourseID).
		Str("previousStatus", string(enrollment.Status)).
		Msg("Enrollment dropped")
	return nil
}

// SetStatus moves an enrollment to a new status. Setting the current status again is a
// no-op; leaving a terminal status fails with EnrollmentNotActive.
func (s *EnrollmentService) SetStatus(ctx context.Context, enrollmentID int64, status models.EnrollmentStatus) (*models.Enrollment, error) {
	if !status.IsValid() {
		return nil, apperrors.NewInvalidArgumentError(fmt.Sprintf("unknown enrollment status %q", status))
	}

	var enrollment *models.Enrollment
	err := s.ledger.Atomically(ctx, func(ctx context.Context, q repositories.Querier) error {
		current, err := q.LockEnrollment(ctx, enrollmentID)
		if err != nil {
			return storeError(err, enrollmentSubject(enrollmentID))
		}
		enrollment = current

		if current.Status == status {
			return nil
		}
		if current.Status.IsTerminal() {
			return apperrors.NewEnrollmentNotActiveError(fmt.Sprintf(
				"enrollment %d is %s and cannot move to %s", enrollmentID, current.Status, status))
		}
		return leaveActive(ctx, q, s.ledger, current, status, nil, s.today())
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("enrollmentId", enrollmentID).
		Str("status", string(enrollment.Status)).
		Msg("Enrollment status set")
	return enrollment, nil
}

// Withdraw moves every ACTIVE enrollment of the student to WITHDRAWN. Each enrollment is
// withdrawn in its own transaction; the ones that succeeded are returned alongside any error.
func (s *EnrollmentService) Withdraw(ctx context.Context, studentID int64, reason string) ([]*models.Enrollment, error) {
	if _, err := s.store.GetStudentByID(ctx, studentID); err != nil {
		return nil, storeError(err, studentSubject(studentID))
	}

	active, err := s.store.ListEnrollments(ctx, repositories.EnrollmentFilter{
		StudentID: studentID,
		Status:    models.EnrollmentActive,
	})
	if err != nil {
		return nil, storeError(err, "active enrollments of "+studentSubject(studentID))
	}

	var reasonPtr *string
	if trimmed := strings.TrimSpace(reason); trimmed != "" {
		reasonPtr = &trimmed
	}

	var (
		withdrawn []*models.Enrollment
		errs      []error
	)
	for _, candidate := range active {
		var updated *models.Enrollment
		err := s.ledger.Atomically(ctx, func(ctx context.Context, q repositories.Querier) error {
			current, err := q.LockEnrollment(ctx, candidate.ID)
			if errors.Is(err, repositories.ErrNotFound) {
				return nil
			}
			if err != nil {
				return storeError(err, enrollmentSubject(candidate.ID))
			}
			// Dropped or completed since it was listed.
			if !current.IsActive() {
				return nil
			}
			if err := leaveActive(ctx, q, s.ledger, current, models.EnrollmentWithdrawn, reasonPtr, s.today()); err != nil {
				return err
			}
			updated = current
			return nil
		})
		if err != nil {
			s.logger.Error().Err(err).Int64("enrollmentId", candidate.ID).Msg("Failed to withdraw enrollment")
			errs = append(errs, fmt.Errorf("enrollment %d: %w", candidate.ID, err))
			continue
		}
		if updated != nil {
			withdrawn = append(withdrawn, updated)
		}
	}

	s.logger.Info().
		Int64("studentId", studentID).
		Int("withdrawn", len(withdrawn)).
		Str("reason", reason).
		Msg("Processed student withdrawal")
	return withdrawn, errors.Join(errs...)
}

// GetEnrollment retrieves an enrollment by ID
func (s *EnrollmentService) GetEnrollment(ctx context.Context, enrollmentID int64) (*models.Enrollment, error) {
	enrollment, err := s.store.GetEnrollmentByID(ctx, enrollmentID)
	if err != nil {
		return nil, storeError(err, enrollmentSubject(enrollmentID))
	}
	return enrollment, nil
}

// ListEnrollments retrieves enrollments matching filter
func (s *EnrollmentService) ListEnrollments(ctx context.Context, filter repositories.EnrollmentFilter) ([]*models.Enrollment, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, apperrors.NewInvalidArgumentError(fmt.Sprintf("unknown enrollment status %q", filter.Status))
	}
	enrollments, err := s.store.ListEnrollments(ctx, filter)
	if err != nil {
		return nil, storeError(err, "enrollments")
	}
	return enrollments, nil
}

// ListByStudent retrieves every enrollment of a student
func (s *EnrollmentService) ListByStudent(ctx context.Context, studentID int64) ([]*models.Enrollment, error) {
	return s.ListEnrollments(ctx, repositories.EnrollmentFilter{StudentID: studentID})
}

// ListActiveByStudent retrieves the enrollments a student currently holds a seat for
func (s *EnrollmentService) ListActiveByStudent(ctx context.Context, studentID int64) ([]*models.Enrollment, error) {
	return s.ListEnrollments(ctx, repositories.EnrollmentFilter{StudentID: studentID, Status: models.EnrollmentActive})
}

// ListByCourse retrieves every enrollment in a course
func (s *EnrollmentService) ListByCourse(ctx context.Context, courseID int64) ([]*models.Enrollment, error) {
	return s.ListEnrollments(ctx, repositories.EnrollmentFilter{CourseID: courseID})
}

// IsStudentEnrolled reports whether the pair has an ACTIVE enrollment
func (s *EnrollmentService) IsStudentEnrolled(ctx context.Context, studentID, courseID int64) (bool, error) {
	active, err := s.store.ActiveEnrollmentExists(ctx, studentID, courseID)
	if err != nil {
		return false, storeError(err, "active enrollment")
	}
	return active, nil
}

// leaveActive moves an ACTIVE enrollment into a terminal status and returns its seat.
// reason and the date are recorded only for withdrawals.
func leaveActive(
	ctx context.Context,
	q repositories.Querier,
	ledger CapacityLedger,
	enrollment *models.Enrollment,
	status models.EnrollmentStatus,
	reason *string,
	on time.Time,
) error {
	if err := ledger.ReleaseSeat(ctx, q, enrollment.CourseID); err != nil {
		return err
	}

	enrollment.Status = status
	if status == models.EnrollmentWithdrawn {
		date := on
		enrollment.WithdrawalReason = reason
		enrollment.WithdrawalDate = &date
	}
	if err := q.UpdateEnrollmentStatus(ctx, enrollment); err != nil {
		return storeError(err, enrollmentSubject(enrollment.ID))
	}
	return nil
}

func formatIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
