package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/registrar/internal/app/models"
	"github.com/yigit/registrar/internal/app/repositories"
	"github.com/yigit/registrar/internal/pkg/apperrors"
)

// CourseService handles the course catalogue and its prerequisite graph
type CourseService struct {
	store  repositories.Store
	logger zerolog.Logger
}

// NewCourseService creates a new course service instance
func NewCourseService(store repositories.Store, logger zerolog.Logger) *CourseService {
	return &CourseService{
		store:  store,
		logger: logger,
	}
}

// validateCourse normalises and validates course data before database operations
func validateCourse(course *models.Course) error {
	if course == nil {
		return apperrors.NewInvalidArgumentError("course is nil")
	}

	course.Code = strings.ToUpper(strings.TrimSpace(course.Code))
	course.Title = strings.TrimSpace(course.Title)

	if course.Code == "" {
		return apperrors.NewInvalidArgumentError("course code cannot be empty")
	}
	if course.Title == "" {
		return apperrors.NewInvalidArgumentError("course title cannot be empty")
	}
	if course.Credits == 0 {
		course.Credits = models.DefaultCourseCredits
	}
	if course.Credits < models.MinCourseCredits || course.Credits > models.MaxCourseCredits {
		return apperrors.NewInvalidArgumentError(fmt.Sprintf(
			"credits must be between %d and %d", models.MinCourseCredits, models.MaxCourseCredits))
	}
	return nil
}

// CreateCourse creates a course together with its initial prerequisites
func (s *CourseService) CreateCourse(ctx context.Context, course *models.Course) error {
	if err := validateCourse(course); err != nil {
		return err
	}
	if course.Capacity < 1 {
		return apperrors.NewInvalidArgumentError("capacity must be at least 1")
	}

	prerequisites := dedupeIDs(course.PrerequisiteIDs)
	err := s.store.InTx(ctx, func(ctx context.Context, q repositories.Querier) error {
		if err := q.CreateCourse(ctx, course); err != nil {
			if errors.Is(err, repositories.ErrAlreadyExists) {
				return apperrors.NewAlreadyExistsError(fmt.Sprintf("course with code %s already exists", course.Code))
			}
			return storeError(err, "course")
		}
		// A brand-new course has no dependents, so its edges cannot close a cycle.
		for _, prerequisiteID := range prerequisites {
			if err := q.AddPrerequisite(ctx, course.ID, prerequisiteID); err != nil {
				return storeError(err, "prerequisite "+courseSubject(prerequisiteID))
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	course.PrerequisiteIDs = prerequisites
	s.logger.Info().Int64("courseId", course.ID).Str("code", course.Code).Msg("Course created")
	return nil
}

// GetCourseByID retrieves a course with its prerequisite IDs
func (s *CourseService) GetCourseByID(ctx context.Context, id int64) (*models.Course, error) {
	course, err := s.store.GetCourseByID(ctx, id)
	if err != nil {
		return nil, storeError(err, courseSubject(id))
	}
	if err := s.attachPrerequisites(ctx, course); err != nil {
		return nil, err
	}
	return course, nil
}

// GetCourseByCode retrieves a course by its code
func (s *CourseService) GetCourseByCode(ctx context.Context, code string) (*models.Course, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	course, err := s.store.GetCourseByCode(ctx, code)
	if err != nil {
		return nil, storeError(err, "course "+code)
	}
	if err := s.attachPrerequisites(ctx, course); err != nil {
		return nil, err
	}
	return course, nil
}

// ListCourses retrieves all courses
func (s *CourseService) ListCourses(ctx context.Context) ([]*models.Course, error) {
	courses, err := s.store.ListCourses(ctx)
	if err != nil {
		return nil, storeError(err, "courses")
	}
	return courses, nil
}

// ListCoursesWithAvailableSeats retrieves the courses that are not full
func (s *CourseService) ListCoursesWithAvailableSeats(ctx context.Context) ([]*models.Course, error) {
	courses, err := s.store.ListCoursesWithAvailableSeats(ctx)
	if err != nil {
		return nil, storeError(err, "courses")
	}
	return courses, nil
}

// UpdateCourse updates the descriptive fields of a course
func (s *CourseService) UpdateCourse(ctx context.Context, course *models.Course) error {
	if err := validateCourse(course); err != nil {
		return err
	}

	if err := s.store.UpdateCourse(ctx, course); err != nil {
		if errors.Is(err, repositories.ErrAlreadyExists) {
			return apperrors.NewAlreadyExistsError(fmt.Sprintf("course with code %s already exists", course.Code))
		}
		return storeError(err, courseSubject(course.ID))
	}
	return s.attachPrerequisites(ctx, course)
}

// DeleteCourse deletes a course unless another course requires it
func (s *CourseService) DeleteCourse(ctx context.Context, id int64) error {
	err := s.store.InTx(ctx, func(ctx context.Context, q repositories.Querier) error {
		if _, err := q.GetCourseByID(ctx, id); err != nil {
			return storeError(err, courseSubject(id))
		}

		dependents, err := q.ListDependentCourseIDs(ctx, id)
		if err != nil {
			return storeError(err, "dependents of "+courseSubject(id))
		}
		if len(dependents) > 0 {
			return apperrors.NewInvalidArgumentError(fmt.Sprintf(
				"course %d is a prerequisite of courses %s", id, formatIDs(dependents)))
		}

		if err := q.DeleteCourse(ctx, id); err != nil {
			return storeError(err, courseSubject(id))
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info().Int64("courseId", id).Msg("Course deleted")
	return nil
}

// Prerequisites returns the direct prerequisite courses of a course
func (s *CourseService) Prerequisites(ctx context.Context, courseID int64) ([]*models.Course, error) {
	if _, err := s.store.GetCourseByID(ctx, courseID); err != nil {
		return nil, storeError(err, courseSubject(courseID))
	}

	ids, err := s.store.ListPrerequisiteIDs(ctx, courseID)
	if err != nil {
		return nil, storeError(err, "prerequisites of "+courseSubject(courseID))
	}

	courses := make([]*models.Course, 0, len(ids))
	for _, id := range ids {
		course, err := s.store.GetCourseByID(ctx, id)
		if err != nil {
			return nil, storeError(err, courseSubject(id))
		}
		courses = append(courses, course)
	}
	return courses, nil
}

// AddPrerequisite makes prerequisiteID a direct prerequisite of courseID. Self references
// and edges that would close a cycle are rejected.
func (s *CourseService) AddPrerequisite(ctx context.Context, courseID, prerequisiteID int64) error {
	if courseID == prerequisiteID {
		return apperrors.NewInvalidArgumentError("a course cannot be its own prerequisite")
	}

	err := s.store.InTx(ctx, func(ctx context.Context, q repositories.Querier) error {
		if _, err := q.GetCourseByID(ctx, courseID); err != nil {
			return storeError(err, courseSubject(courseID))
		}
		if _, err := q.GetCourseByID(ctx, prerequisiteID); err != nil {
			return storeError(err, courseSubject(prerequisiteID))
		}

		cycle, err := reaches(ctx, prerequisiteID, courseID, q.ListPrerequisiteIDs)
		if err != nil {
			return storeError(err, "prerequisite graph")
		}
		if cycle {
			return apperrors.NewInvalidArgumentError(fmt.Sprintf(
				"course %d already depends on course %d; the prerequisite would form a cycle", prerequisiteID, courseID))
		}

		if err := q.AddPrerequisite(ctx, courseID, prerequisiteID); err != nil {
			if errors.Is(err, repositories.ErrAlreadyExists) {
				return apperrors.NewAlreadyExistsError(fmt.Sprintf(
					"course %d already requires course %d", courseID, prerequisiteID))
			}
			return storeError(err, "prerequisite")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info().Int64("courseId", courseID).Int64("prerequisiteId", prerequisiteID).Msg("Prerequisite added")
	return nil
}

// RemovePrerequisite removes a direct prerequisite edge
func (s *CourseService) RemovePrerequisite(ctx context.Context, courseID, prerequisiteID int64) error {
	if err := s.store.RemovePrerequisite(ctx, courseID, prerequisiteID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.NewNotFoundError(fmt.Sprintf(
				"course %d does not require course %d", courseID, prerequisiteID))
		}
		return storeError(err, "prerequisite")
	}

	s.logger.Info().Int64("courseId", courseID).Int64("prerequisiteId", prerequisiteID).Msg("Prerequisite removed")
	return nil
}

func (s *CourseService) attachPrerequisites(ctx context.Context, course *models.Course) error {
	ids, err := s.store.ListPrerequisiteIDs(ctx, course.ID)
	if err != nil {
		return storeError(err, "prerequisites of "+courseSubject(course.ID))
	}
	course.PrerequisiteIDs = ids
	return nil
}

// reaches reports whether target can be reached from start by following edges.
func reaches(ctx context.Context, start, target int64, edges func(context.Context, int64) ([]int64, error)) (bool, error) {
	seen := map[int64]bool{start: true}
	queue := []int64{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current == target {
			return true, nil
		}

		next, err := edges(ctx, current)
		if err != nil {
			return false, err
		}
		for _, id := range next {
			if !seen[id] {
				seen[id] = true
				queue = append(queue, id)
			}
		}
	}
	return false, nil
}

func dedupeIDs(ids []int64) []int64 {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
