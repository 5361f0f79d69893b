package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/yigit/registrar/internal/app/models"
	"github.com/yigit/registrar/internal/pkg/apperrors"
)

// stubLifecycle answers admissions from a per-course error table.
type stubLifecycle struct {
	EnrollmentLifecycle
	admitErrs map[int64]error
	dropErr   error
	admitted  []int64
	dropped   []int64
}

func (s *stubLifecycle) Admit(_ context.Context, studentID, courseID int64) (*models.Enrollment, error) {
	if err := s.admitErrs[courseID]; err != nil {
		return nil, err
	}
	s.admitted = append(s.admitted, courseID)
	return &models.Enrollment{
		ID:        int64(len(s.admitted)),
		StudentID: studentID,
		CourseID:  courseID,
		Status:    models.EnrollmentActive,
	}, nil
}

func (s *stubLifecycle) DropByStudentAndCourse(_ context.Context, _, courseID int64) error {
	if s.dropErr != nil {
		return s.dropErr
	}
	s.dropped = append(s.dropped, courseID)
	return nil
}

func newStubSchool(lifecycle *stubLifecycle) *SchoolManagementService {
	return NewSchoolManagementService(lifecycle, nil, nil, nil, zerolog.Nop())
}

func TestBulkEnrollReportsEveryCourse(t *testing.T) {
	t.Parallel()

	lifecycle := &stubLifecycle{admitErrs: map[int64]error{
		2: apperrors.NewCapacityExceededError("course 2 is full"),
	}}
	result, err := newStubSchool(lifecycle).BulkEnroll(context.Background(), 1, []int64{1, 2, 3})
	if err != nil {
		t.Fatalf("BulkEnroll() = %v", err)
	}

	if len(result.Items) != 3 {
		t.Fatalf("items = %d, want 3", len(result.Items))
	}
	for i, want := range []int64{1, 2, 3} {
		if result.Items[i].CourseID != want {
			t.Fatalf("item %d course = %d, want %d", i, result.Items[i].CourseID, want)
		}
	}
	if len(result.Enrollments()) != 2 {
		t.Fatalf("enrollments = %d, want 2", len(result.Enrollments()))
	}
	failures := result.Failures()
	if len(failures) != 1 || !errors.Is(failures[0].Err, apperrors.ErrCapacityExceeded) {
		t.Fatalf("failures = %+v", failures)
	}
}

func TestBulkEnrollFailsWhenNothingIsAdmitted(t *testing.T) {
	t.Parallel()

	lifecycle := &stubLifecycle{admitErrs: map[int64]error{
		1: apperrors.NewPrerequisiteNotMetError("missing CS101"),
		2: apperrors.NewNotFoundError("course 2 not found"),
	}}
	result, err := newStubSchool(lifecycle).BulkEnroll(context.Background(), 7, []int64{1, 2})

	if !IsBulkEnrollError(err) {
		t.Fatalf("err = %v, want *BulkEnrollError", err)
	}
	if !errors.Is(err, apperrors.ErrPrerequisiteNotMet) || !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("err should match every per-course error: %v", err)
	}
	if !strings.Contains(err.Error(), "student 7") {
		t.Fatalf("Error() = %q", err.Error())
	}
	if result == nil || len(result.Failures()) != 2 {
		t.Fatalf("result = %+v", result)
	}

	_, err = newStubSchool(lifecycle).BulkEnroll(context.Background(), 7, nil)
	if !errors.Is(err, apperrors.ErrInvalidArgument) {
		t.Fatalf("empty bulk err = %v", err)
	}
}

func TestTransfer(t *testing.T) {
	t.Parallel()

	t.Run("moves the student", func(t *testing.T) {
		t.Parallel()

		lifecycle := &stubLifecycle{}
		enrollment, err := newStubSchool(lifecycle).Transfer(context.Background(), 1, 10, 20)
		if err != nil {
			t.Fatalf("Transfer() = %v", err)
		}
		if enrollment.CourseID != 20 || len(lifecycle.dropped) != 1 || lifecycle.dropped[0] != 10 {
			t.Fatalf("enrollment = %+v, dropped = %v", enrollment, lifecycle.dropped)
		}
	})

	t.Run("same course", func(t *testing.T) {
		t.Parallel()

		lifecycle := &stubLifecycle{}
		_, err := newStubSchool(lifecycle).Transfer(context.Background(), 1, 10, 10)
		if !errors.Is(err, apperrors.ErrInvalidArgument) {
			t.Fatalf("err = %v", err)
		}
		if len(lifecycle.dropped) != 0 {
			t.Fatal("nothing should be dropped")
		}
	})

	t.Run("drop fails", func(t *testing.T) {
		t.Parallel()

		dropErr := apperrors.NewNotFoundError("enrollment not found")
		lifecycle := &stubLifecycle{dropErr: dropErr}
		_, err := newStubSchool(lifecycle).Transfer(context.Background(), 1, 10, 20)
		if err != dropErr {
			t.Fatalf("err = %v, want the drop error unchanged", err)
		}
		if len(lifecycle.admitted) != 0 {
			t.Fatal("admission must not run after a failed drop")
		}
	})

	t.Run("admission fails after drop", func(t *testing.T) {
		t.Parallel()

		lifecycle := &stubLifecycle{admitErrs: map[int64]error{
			20: apperrors.NewCapacityExceededError("course 20 is full"),
		}}
		_, err := newStubSchool(lifecycle).Transfer(context.Background(), 1, 10, 20)
		if !errors.Is(err, apperrors.ErrCapacityExceeded) {
			t.Fatalf("err = %v", err)
		}
		if !strings.Contains(err.Error(), "dropped course 10") {
			t.Fatalf("Error() = %q", err.Error())
		}
		if len(lifecycle.dropped) != 1 {
			t.Fatal("the drop stays applied")
		}
	})
}
