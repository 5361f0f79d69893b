package seed

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	appModels "github.com/yigit/registrar/internal/app/models"
	appServices "github.com/yigit/registrar/internal/app/services"
	"github.com/yigit/registrar/internal/pkg/apperrors"
)

type demoCourse struct {
	code          string
	title         string
	credits       int
	capacity      int
	prerequisites []string
}

// Ordered so every prerequisite is created before the courses that need it.
var demoCourses = []demoCourse{
	{code: "CS101", title: "Introduction to Programming", credits: 4, capacity: 40},
	{code: "MATH101", title: "Calculus I", credits: 4, capacity: 60},
	{code: "CS102", title: "Data Structures", credits: 3, capacity: 30, prerequisites: []string{"CS101"}},
	{code: "MATH201", title: "Discrete Mathematics", credits: 3, capacity: 40, prerequisites: []string{"MATH101"}},
	{code: "CS201", title: "Algorithms", credits: 3, capacity: 25, prerequisites: []string{"CS102", "MATH201"}},
	{code: "CS301", title: "Operating Systems", credits: 3, capacity: 20, prerequisites: []string{"CS201"}},
}

var demoStudents = []appModels.Student{
	{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.edu"},
	{FirstName: "Alan", LastName: "Turing", Email: "alan@example.edu"},
	{FirstName: "Grace", LastName: "Hopper", Email: "grace@example.edu"},
}

// CreateDefaultData creates a small demo catalogue and a few students if they don't exist.
// Errors are collected so one bad entry does not stop the rest.
func CreateDefaultData(ctx context.Context, courses *appServices.CourseService, students *appServices.StudentService, lgr zerolog.Logger) error {
	lgr.Info().Msg("Checking/Creating default data (Courses/Students)...")
	var finalErr error

	ids := make(map[string]int64, len(demoCourses))
	for _, dc := range demoCourses {
		course := &appModels.Course{
			Code:     dc.code,
			Title:    dc.title,
			Credits:  dc.credits,
			Capacity: dc.capacity,
		}
		for _, code := range dc.prerequisites {
			if id, ok := ids[code]; ok {
				course.PrerequisiteIDs = append(course.PrerequisiteIDs, id)
			}
		}

		err := courses.CreateCourse(ctx, course)
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			existing, errGet := courses.GetCourseByCode(ctx, dc.code)
			if errGet != nil {
				lgr.Error().Err(errGet).Str("code", dc.code).Msg("Error getting existing course")
				finalErr = errors.Join(finalErr, errGet)
				continue
			}
			ids[dc.code] = existing.ID
			continue
		}
		if err != nil {
			lgr.Error().Err(err).Str("code", dc.code).Msg("Error creating course")
			finalErr = errors.Join(finalErr, err)
			continue
		}
		ids[dc.code] = course.ID
	}

	for i := range demoStudents {
		student := demoStudents[i]
		err := students.CreateStudent(ctx, &student)
		if err != nil && !errors.Is(err, apperrors.ErrAlreadyExists) {
			lgr.Error().Err(err).Str("email", student.Email).Msg("Error creating student")
			finalErr = errors.Join(finalErr, err)
		}
	}

	if finalErr == nil {
		lgr.Info().Int("courses", len(ids)).Msg("Default data checked/created")
	}
	return finalErr
}
