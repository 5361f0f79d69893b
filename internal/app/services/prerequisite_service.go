package services

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/yigit/registrar/internal/app/repositories"
)

// PrerequisiteService checks direct prerequisites against a student's completed courses.
// Transitive prerequisites are not followed.
type PrerequisiteService struct {
	store  repositories.Store
	logger zerolog.Logger
}

var _ PrerequisiteChecker = (*PrerequisiteService)(nil)

// NewPrerequisiteService creates a new prerequisite checker
func NewPrerequisiteService(store repositories.Store, logger zerolog.Logger) *PrerequisiteService {
	return &PrerequisiteService{
		store:  store,
		logger: logger,
	}
}

// CheckPrerequisites reports whether the student may take the course
func (s *PrerequisiteService) CheckPrerequisites(ctx context.Context, studentID, courseID int64) (bool, error) {
	if _, err := s.store.GetStudentByID(ctx, studentID); err != nil {
		return false, storeError(err, studentSubject(studentID))
	}

	unmet, err := s.UnmetPrerequisites(ctx, s.store, studentID, courseID)
	if err != nil {
		return false, err
	}
	return len(unmet) == 0, nil
}

// UnmetPrerequisites lists the direct prerequisites of courseID the student has not completed
func (s *PrerequisiteService) UnmetPrerequisites(ctx context.Context, q repositories.Querier, studentID, courseID int64) ([]int64, error) {
	if _, err := q.GetCourseByID(ctx, courseID); err != nil {
		return nil, storeError(err, courseSubject(courseID))
	}

	required, err := q.ListPrerequisiteIDs(ctx, courseID)
	if err != nil {
		return nil, storeError(err, "prerequisites of "+courseSubject(courseID))
	}
	if len(required) == 0 {
		return nil, nil
	}

	completed, err := q.ListCompletedCourseIDs(ctx, studentID)
	if err != nil {
		return nil, storeError(err, "completed courses of "+studentSubject(studentID))
	}

	unmet := MissingPrerequisites(required, completed)
	if len(unmet) > 0 {
		s.logger.Debug().
			Int64("studentId", studentID).
			Int64("courseId", courseID).
			Ints64("unmet", unmet).
			Msg("Prerequisites not satisfied")
	}
	return unmet, nil
}

// MissingPrerequisites returns the members of required that are absent from completed,
// in the order they appear in required.
func MissingPrerequisites(required, completed []int64) []int64 {
	done := make(map[int64]struct{}, len(completed))
	for _, id := range completed {
		done[id] = struct{}{}
	}

	var missing []int64
	for _, id := range required {
		if _, ok := done[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
