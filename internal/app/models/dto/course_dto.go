package dto

import "github.com/yigit/registrar/internal/app/models"

// CreateCourseRequest represents course creation data
type CreateCourseRequest struct {
	Code            string  `json:"code" binding:"required,max=20,coursecode"`
	Title           string  `json:"title" binding:"required,max=200"`
	Description     *string `json:"description,omitempty"`
	Credits         int     `json:"credits" binding:"omitempty,min=1,max=12"`
	Capacity        int     `json:"capacity" binding:"required,min=1"`
	PrerequisiteIDs []int64 `json:"prerequisiteIds,omitempty" binding:"omitempty,dive,gt=0"`
}

// ToModel converts the request into a course
func (r *CreateCourseRequest) ToModel() *models.Course {
	return &models.Course{
		Code:            r.Code,
		Title:           r.Title,
		Description:     r.Description,
		Credits:         r.Credits,
		Capacity:        r.Capacity,
		PrerequisiteIDs: r.PrerequisiteIDs,
	}
}

// UpdateCourseRequest represents the descriptive fields of a course. Capacity has its own endpoint.
type UpdateCourseRequest struct {
	Code        string  `json:"code" binding:"required,max=20,coursecode"`
	Title       string  `json:"title" binding:"required,max=200"`
	Description *string `json:"description,omitempty"`
	Credits     int     `json:"credits" binding:"omitempty,min=1,max=12"`
}

// UpdateCapacityRequest represents a capacity change
type UpdateCapacityRequest struct {
	Capacity int `json:"capacity" binding:"required"`
}

// AddPrerequisiteRequest names a course to require
type AddPrerequisiteRequest struct {
	PrerequisiteID int64 `json:"prerequisiteId" binding:"required,gt=0"`
}

// CourseResponse is a course with its free seats
type CourseResponse struct {
	*models.Course
	AvailableSeats int `json:"availableSeats" example:"12"`
}

// NewCourseResponse creates a course response
func NewCourseResponse(course *models.Course) CourseResponse {
	return CourseResponse{Course: course, AvailableSeats: course.AvailableSeats()}
}

// NewCourseListResponse creates course responses in order
func NewCourseListResponse(courses []*models.Course) []CourseResponse {
	out := make([]CourseResponse, 0, len(courses))
	for _, course := range courses {
		out = append(out, NewCourseResponse(course))
	}
	return out
}

// SeatsResponse reports the free seats of a course
type SeatsResponse struct {
	CourseID       int64 `json:"courseId" example:"1"`
	AvailableSeats int   `json:"availableSeats" example:"12"`
}

// PrerequisiteCheckResponse reports whether a student may take a course
type PrerequisiteCheckResponse struct {
	StudentID int64 `json:"studentId" example:"1"`
	CourseID  int64 `json:"courseId" example:"2"`
	Satisfied bool  `json:"satisfied" example:"true"`
}

// ConsistencyResponse reports the seat ledger check of a course
type ConsistencyResponse struct {
	CourseID   int64  `json:"courseId" example:"1"`
	Consistent bool   `json:"consistent" example:"true"`
	Detail     string `json:"detail,omitempty"`
}
