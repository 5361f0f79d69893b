package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"
	"github.com/yigit/registrar/internal/app/models"
	"github.com/yigit/registrar/internal/app/repositories"
	"github.com/yigit/registrar/internal/pkg/apperrors"
	"github.com/yigit/registrar/internal/pkg/dberrors"
)

// DefaultReservationAttempts bounds transaction retries when none is configured.
const DefaultReservationAttempts = 5

// ErrLedgerDrift reports a course whose seat counter disagrees with its active enrollments.
var ErrLedgerDrift = errors.New("seat counter does not match active enrollments")

// Reservation is a seat taken in a course.
type Reservation struct {
	CourseID      int64
	EnrolledCount int
}

// CapacityService is the seat ledger. Seats are taken and returned with single conditional
// updates, so the capacity check and the increment cannot interleave with another caller.
type CapacityService struct {
	store       repositories.Store
	logger      zerolog.Logger
	maxAttempts int
	newBackOff  func() backoff.BackOff
}

var _ CapacityLedger = (*CapacityService)(nil)

// NewCapacityService creates a new capacity ledger. maxAttempts below 1 falls back to
// DefaultReservationAttempts.
func NewCapacityService(store repositories.Store, logger zerolog.Logger, maxAttempts int) *CapacityService {
	if maxAttempts < 1 {
		maxAttempts = DefaultReservationAttempts
	}
	return &CapacityService{
		store:       store,
		logger:      logger,
		maxAttempts: maxAttempts,
		newBackOff:  defaultBackOff,
	}
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 10 * time.Millisecond
	b.MaxInterval = 250 * time.Millisecond
	return b
}

// Atomically runs fn in one transaction and retries the whole transaction on serialization
// failures, deadlocks or a busy database. Any other error is returned as is.
func (s *CapacityService) Atomically(ctx context.Context, fn repositories.TxFunc) error {
	attempt := 0
	operation := func() (struct{}, error) {
		attempt++
		err := s.store.InTx(ctx, fn)
		if err == nil {
			return struct{}{}, nil
		}
		if dberrors.IsRetryable(err) {
			s.logger.Debug().Err(err).Int("attempt", attempt).Msg("Transient store conflict, retrying")
			return struct{}{}, err
		}
		return struct{}{}, backoff.Permanent(err)
	}

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(s.newBackOff()),
		backoff.WithMaxTries(uint(s.maxAttempts)),
	)
	if err != nil && dberrors.IsRetryable(err) {
		s.logger.Warn().Err(err).Int("attempts", attempt).Msg("Giving up after repeated store conflicts")
	}
	return err
}

// ReserveSeat takes one seat in the course
func (s *CapacityService) ReserveSeat(ctx context.Context, q repositories.Querier, courseID int64) (*Reservation, error) {
	enrolled, err := q.IncrementEnrolledCount(ctx, courseID)
	if err != nil {
		if errors.Is(err, repositories.ErrNoCapacity) {
			return nil, apperrors.NewCapacityExceededError(fmt.Sprintf("course %d has no available seats", courseID))
		}
		return nil, storeError(err, courseSubject(courseID))
	}

	s.logger.Debug().Int64("courseId", courseID).Int("enrolledCount", enrolled).Msg("Seat reserved")
	return &Reservation{CourseID: courseID, EnrolledCount: enrolled}, nil
}

// ReleaseSeat returns one seat to the course; the counter never drops below zero
func (s *CapacityService) ReleaseSeat(ctx context.Context, q repositories.Querier, courseID int64) error {
	enrolled, err := q.DecrementEnrolledCount(ctx, courseID)
	if err != nil {
		return storeError(err, courseSubject(courseID))
	}

	s.logger.Debug().Int64("courseId", courseID).Int("enrolledCount", enrolled).Msg("Seat released")
	return nil
}

// AvailableSeats returns capacity minus enrolled count
func (s *CapacityService) AvailableSeats(ctx context.Context, courseID int64) (int, error) {
	course, err := s.store.GetCourseByID(ctx, courseID)
	if err != nil {
		return 0, storeError(err, courseSubject(courseID))
	}
	return course.AvailableSeats(), nil
}

// UpdateCapacity changes the capacity of a course. It never goes below the current load.
func (s *CapacityService) UpdateCapacity(ctx context.Context, courseID int64, capacity int) (*models.Course, error) {
	if capacity < 1 {
		return nil, apperrors.NewInvalidArgumentError("capacity must be at least 1")
	}

	var course *models.Course
	err := s.Atomically(ctx, func(ctx context.Context, q repositories.Querier) error {
		err := q.UpdateCapacity(ctx, courseID, capacity)
		if errors.Is(err, repositories.ErrNoCapacity) {
			current, getErr := q.GetCourseByID(ctx, courseID)
			if getErr != nil {
				return storeError(getErr, courseSubject(courseID))
			}
			return apperrors.NewCapacityExceededError(fmt.Sprintf(
				"cannot set capacity to %d when %d students are enrolled", capacity, current.EnrolledCount))
		}
		if err != nil {
			return storeError(err, courseSubject(courseID))
		}

		course, err = q.GetCourseByID(ctx, courseID)
		if err != nil {
			return storeError(err, courseSubject(courseID))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("courseId", courseID).Int("capacity", capacity).Msg("Course capacity updated")
	return course, nil
}

// VerifyCourseConsistency checks that the seat counter equals the number of ACTIVE
// enrollments and stays within capacity
func (s *CapacityService) VerifyCourseConsistency(ctx context.Context, courseID int64) error {
	course, err := s.store.GetCourseByID(ctx, courseID)
	if err != nil {
		return storeError(err, courseSubject(courseID))
	}

	active, err := s.store.CountActiveEnrollments(ctx, courseID)
	if err != nil {
		return storeError(err, "active enrollments of "+courseSubject(courseID))
	}

	if course.EnrolledCount != active {
		s.logger.Error().
			Int64("courseId", courseID).
			Int("enrolledCount", course.EnrolledCount).
			Int("activeEnrollments", active).
			Msg("Seat counter drift detected")
		return fmt.Errorf("%w: course %s counts %d seats but has %d active enrollments",
			ErrLedgerDrift, course.Code, course.EnrolledCount, active)
	}
	if course.EnrolledCount > course.Capacity {
		return fmt.Errorf("%w: course %s holds %d students over a capacity of %d",
			ErrLedgerDrift, course.Code, course.EnrolledCount, course.Capacity)
	}
	return nil
}
