package dto

import "github.com/yigit/registrar/internal/app/models"

// EnrollRequest admits a student into one course
type EnrollRequest struct {
	StudentID int64 `json:"studentId" binding:"required,gt=0"`
	CourseID  int64 `json:"courseId" binding:"required,gt=0"`
}

// BulkEnrollRequest admits a student into several courses
type BulkEnrollRequest struct {
	StudentID int64   `json:"studentId" binding:"required,gt=0"`
	CourseIDs []int64 `json:"courseIds" binding:"required,min=1,dive,gt=0"`
}

// BulkEnrollItemResponse is the outcome of one course of a bulk enrollment
type BulkEnrollItemResponse struct {
	CourseID   int64              `json:"courseId"`
	Success    bool               `json:"success"`
	Enrollment *models.Enrollment `json:"enrollment,omitempty"`
	Error      *ErrorDetail       `json:"error,omitempty"`
}

// BulkEnrollResponse lists every course of a bulk enrollment in request order
type BulkEnrollResponse struct {
	StudentID int64                    `json:"studentId"`
	Admitted  int                      `json:"admitted"`
	Rejected  int                      `json:"rejected"`
	Items     []BulkEnrollItemResponse `json:"items"`
}

// TransferRequest moves a student from one course to another
type TransferRequest struct {
	StudentID    int64 `json:"studentId" binding:"required,gt=0"`
	FromCourseID int64 `json:"fromCourseId" binding:"required,gt=0"`
	ToCourseID   int64 `json:"toCourseId" binding:"required,gt=0"`
}

// SetStatusRequest moves an enrollment to another status
type SetStatusRequest struct {
	Status models.EnrollmentStatus `json:"status" binding:"required,oneof=ACTIVE DROPPED COMPLETED FAILED WITHDRAWN"`
}

// EnrollmentFilterRequest narrows the enrollment listing
type EnrollmentFilterRequest struct {
	StudentID int64  `form:"studentId" binding:"omitempty,gt=0"`
	CourseID  int64  `form:"courseId" binding:"omitempty,gt=0"`
	Status    string `form:"status" binding:"omitempty,oneof=ACTIVE DROPPED COMPLETED FAILED WITHDRAWN"`
}

// CompletionResponse reports whether an enrollment's course is completed
type CompletionResponse struct {
	EnrollmentID int64 `json:"enrollmentId" example:"1"`
	Completed    bool  `json:"completed" example:"true"`
}
