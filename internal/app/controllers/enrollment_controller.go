package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/registrar/internal/app/models"
	"github.com/yigit/registrar/internal/app/models/dto"
	"github.com/yigit/registrar/internal/app/repositories"
	"github.com/yigit/registrar/internal/app/services"
	"github.com/yigit/registrar/internal/middleware"
)

// EnrollmentController handles admissions and enrollment lifecycle requests
type EnrollmentController struct {
	enrollments *services.EnrollmentService
	school      *services.SchoolManagementService
}

// NewEnrollmentController creates a new EnrollmentController
func NewEnrollmentController(enrollments *services.EnrollmentService, school *services.SchoolManagementService) *EnrollmentController {
	return &EnrollmentController{
		enrollments: enrollments,
		school:      school,
	}
}

// Enroll admits a student into a course
func (c *EnrollmentController) Enroll(ctx *gin.Context) {
	var req dto.EnrollRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	enrollment, err := c.school.AdmitStudent(ctx.Request.Context(), req.StudentID, req.CourseID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(enrollment))
}

// BulkEnroll admits a student into several courses and reports each outcome
func (c *EnrollmentController) BulkEnroll(ctx *gin.Context) {
	var req dto.BulkEnrollRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	result, err := c.school.BulkEnroll(ctx.Request.Context(), req.StudentID, req.CourseIDs)
	if err != nil && !services.IsBulkEnrollError(err) {
		middleware.HandleAPIError(ctx, err)
		return
	}

	resp := newBulkEnrollResponse(result)
	if err != nil {
		detail := dto.NewErrorDetail(dto.ErrorCodeBulkEnrollFailed, "No course could be enrolled").WithDetails(resp)
		ctx.JSON(http.StatusUnprocessableEntity, dto.NewErrorResponse(detail))
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

func newBulkEnrollResponse(result *services.BulkEnrollResult) dto.BulkEnrollResponse {
	resp := dto.BulkEnrollResponse{
		StudentID: result.StudentID,
		Items:     make([]dto.BulkEnrollItemResponse, 0, len(result.Items)),
	}
	for _, item := range result.Items {
		entry := dto.BulkEnrollItemResponse{CourseID: item.CourseID, Enrollment: item.Enrollment}
		if item.Err != nil {
			_, entry.Error = middleware.ErrorDetailFor(item.Err)
			resp.Rejected++
		} else {
			entry.Success = true
			resp.Admitted++
		}
		resp.Items = append(resp.Items, entry)
	}
	return resp
}

// Transfer moves a student from one course to another
func (c *EnrollmentController) Transfer(ctx *gin.Context) {
	var req dto.TransferRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	enrollment, err := c.school.Transfer(ctx.Request.Context(), req.StudentID, req.FromCourseID, req.ToCourseID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(enrollment))
}

// GetEnrollment retrieves an enrollment by ID
func (c *EnrollmentController) GetEnrollment(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Enrollment")
	if !ok {
		return
	}

	enrollment, err := c.enrollments.GetEnrollment(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(enrollment))
}

// ListEnrollments lists enrollments filtered by student, course and status
func (c *EnrollmentController) ListEnrollments(ctx *gin.Context) {
	var req dto.EnrollmentFilterRequest
	if !middleware.BindQuery(ctx, &req) {
		return
	}

	enrollments, err := c.enrollments.ListEnrollments(ctx.Request.Context(), repositories.EnrollmentFilter{
		StudentID: req.StudentID,
		CourseID:  req.CourseID,
		Status:    models.EnrollmentStatus(req.Status),
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(enrollments))
}

// SetStatus moves an enrollment to another status
func (c *EnrollmentController) SetStatus(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Enrollment")
	if !ok {
		return
	}
	var req dto.SetStatusRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	enrollment, err := c.school.SetEnrollmentStatus(ctx.Request.Context(), id, req.Status)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(enrollment))
}

// DropEnrollment removes an enrollment and frees its seat
func (c *EnrollmentController) DropEnrollment(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Enrollment")
	if !ok {
		return
	}

	if err := c.school.DropEnrollment(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

// GetCompletion reports whether the enrollment's course was completed
func (c *EnrollmentController) GetCompletion(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Enrollment")
	if !ok {
		return
	}

	completed, err := c.school.IsCourseCompleted(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.CompletionResponse{EnrollmentID: id, Completed: completed}))
}
