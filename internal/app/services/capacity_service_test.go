package services

import (
	"context"
	"errors"
	"testing"

	"github.com/cenkalti/backoff/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/yigit/registrar/internal/app/repositories"
	"github.com/yigit/registrar/internal/pkg/apperrors"
	"github.com/yigit/registrar/internal/pkg/dberrors"
)

// flakyStore fails the first failures transactions with err.
type flakyStore struct {
	repositories.Store
	failures int
	err      error
	calls    int
}

func (s *flakyStore) InTx(ctx context.Context, fn repositories.TxFunc) error {
	s.calls++
	if s.calls <= s.failures {
		return s.err
	}
	return fn(ctx, nil)
}

func newTestLedger(store repositories.Store, attempts int) *CapacityService {
	ledger := NewCapacityService(store, zerolog.Nop(), attempts)
	ledger.newBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	return ledger
}

func TestAtomicallyRetriesSerializationFailures(t *testing.T) {
	t.Parallel()

	store := &flakyStore{failures: 2, err: &pgconn.PgError{Code: "40001"}}
	ledger := newTestLedger(store, 3)

	ran := 0
	err := ledger.Atomically(context.Background(), func(context.Context, repositories.Querier) error {
		ran++
		return nil
	})
	if err != nil {
		t.Fatalf("Atomically() = %v", err)
	}
	if store.calls != 3 || ran != 1 {
		t.Fatalf("calls = %d, ran = %d", store.calls, ran)
	}
}

func TestAtomicallyGivesUpAfterMaxAttempts(t *testing.T) {
	t.Parallel()

	store := &flakyStore{failures: 10, err: &pgconn.PgError{Code: "40P01"}}
	ledger := newTestLedger(store, 3)

	err := ledger.Atomically(context.Background(), func(context.Context, repositories.Querier) error {
		return nil
	})
	if !dberrors.IsRetryable(err) {
		t.Fatalf("err = %v, want the deadlock error", err)
	}
	if store.calls != 3 {
		t.Fatalf("calls = %d, want 3", store.calls)
	}
}

func TestAtomicallyDoesNotRetryDomainErrors(t *testing.T) {
	t.Parallel()

	store := &flakyStore{}
	ledger := newTestLedger(store, 5)

	err := ledger.Atomically(context.Background(), func(context.Context, repositories.Querier) error {
		return apperrors.NewCapacityExceededError("full")
	})
	if !errors.Is(err, apperrors.ErrCapacityExceeded) {
		t.Fatalf("err = %v", err)
	}
	if store.calls != 1 {
		t.Fatalf("calls = %d, want 1", store.calls)
	}
}

func TestNewCapacityServiceDefaultsAttempts(t *testing.T) {
	t.Parallel()

	if got := NewCapacityService(nil, zerolog.Nop(), 0).maxAttempts; got != DefaultReservationAttempts {
		t.Fatalf("maxAttempts = %d, want %d", got, DefaultReservationAttempts)
	}
}

func TestVerifyCourseConsistencyDetectsDrift(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	ctx := context.Background()
	course := e.course(t, "CS101", 5, 3)
	e.admit(t, e.student(t, "ada").ID, course.ID)

	err := e.store.InTx(ctx, func(ctx context.Context, q repositories.Querier) error {
		_, err := q.IncrementEnrolledCount(ctx, course.ID)
		return err
	})
	if err != nil {
		t.Fatalf("bump counter: %v", err)
	}

	if err := e.capacity.VerifyCourseConsistency(ctx, course.ID); !errors.Is(err, ErrLedgerDrift) {
		t.Fatalf("err = %v, want ErrLedgerDrift", err)
	}
}
