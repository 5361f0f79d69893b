package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/registrar/internal/app/models"
	"github.com/yigit/registrar/internal/app/models/dto"
	"github.com/yigit/registrar/internal/app/services"
	"github.com/yigit/registrar/internal/middleware"
)

// CourseController handles the course catalogue, seats and prerequisites
type CourseController struct {
	courseService *services.CourseService
	capacity      *services.CapacityService
	enrollments   *services.EnrollmentService
	grades        *services.GradeService
	school        *services.SchoolManagementService
}

// NewCourseController creates a new CourseController
func NewCourseController(
	courseService *services.CourseService,
	capacity *services.CapacityService,
	enrollments *services.EnrollmentService,
	grades *services.GradeService,
	school *services.SchoolManagementService,
) *CourseController {
	return &CourseController{
		courseService: courseService,
		capacity:      capacity,
		enrollments:   enrollments,
		grades:        grades,
		school:        school,
	}
}

// CreateCourse handles course creation
func (c *CourseController) CreateCourse(ctx *gin.Context) {
	var req dto.CreateCourseRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	course := req.ToModel()
	if err := c.courseService.CreateCourse(ctx.Request.Context(), course); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(dto.NewCourseResponse(course)))
}

// GetCourseByID retrieves a course by ID
func (c *CourseController) GetCourseByID(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Course")
	if !ok {
		return
	}

	course, err := c.courseService.GetCourseByID(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewCourseResponse(course)))
}

// GetCourseByCode retrieves a course by its code
func (c *CourseController) GetCourseByCode(ctx *gin.Context) {
	course, err := c.courseService.GetCourseByCode(ctx.Request.Context(), ctx.Param("code"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewCourseResponse(course)))
}

// GetAllCourses lists courses; ?available=true keeps only courses with free seats
func (c *CourseController) GetAllCourses(ctx *gin.Context) {
	list := c.courseService.ListCourses
	if ctx.Query("available") == "true" {
		list = c.courseService.ListCoursesWithAvailableSeats
	}

	courses, err := list(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewCourseListResponse(courses)))
}

// UpdateCourse updates the descriptive fields of a course
func (c *CourseController) UpdateCourse(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Course")
	if !ok {
		return
	}
	var req dto.UpdateCourseRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	course := &models.Course{
		ID:          id,
		Code:        req.Code,
		Title:       req.Title,
		Description: req.Description,
		Credits:     req.Credits,
	}
	if err := c.courseService.UpdateCourse(ctx.Request.Context(), course); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewCourseResponse(course)))
}

// DeleteCourse deletes a course
func (c *CourseController) DeleteCourse(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Course")
	if !ok {
		return
	}

	if err := c.courseService.DeleteCourse(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

// UpdateCourseCapacity changes the capacity of a course
func (c *CourseController) UpdateCourseCapacity(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Course")
	if !ok {
		return
	}
	var req dto.UpdateCapacityRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	course, err := c.school.UpdateCourseCapacity(ctx.Request.Context(), id, req.Capacity)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewCourseResponse(course)))
}

// GetAvailableSeats returns the free seats of a course
func (c *CourseController) GetAvailableSeats(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Course")
	if !ok {
		return
	}

	seats, err := c.school.AvailableSeats(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.SeatsResponse{CourseID: id, AvailableSeats: seats}))
}

// GetPrerequisites lists the direct prerequisites of a course
func (c *CourseController) GetPrerequisites(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Course")
	if !ok {
		return
	}

	prerequisites, err := c.courseService.Prerequisites(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewCourseListResponse(prerequisites)))
}

// AddPrerequisite makes another course a prerequisite of this one
func (c *CourseController) AddPrerequisite(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Course")
	if !ok {
		return
	}
	var req dto.AddPrerequisiteRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	if err := c.courseService.AddPrerequisite(ctx.Request.Context(), id, req.PrerequisiteID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewMessageResponse("Prerequisite added"))
}

// RemovePrerequisite removes a prerequisite of a course
func (c *CourseController) RemovePrerequisite(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Course")
	if !ok {
		return
	}
	prerequisiteID, ok := parseIDParam(ctx, "prerequisiteId", "Prerequisite")
	if !ok {
		return
	}

	if err := c.courseService.RemovePrerequisite(ctx.Request.Context(), id, prerequisiteID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

// CheckPrerequisites reports whether ?studentId= may take the course
func (c *CourseController) CheckPrerequisites(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Course")
	if !ok {
		return
	}
	studentID, ok := parseIDQuery(ctx, "studentId", "Student")
	if !ok {
		return
	}

	satisfied, err := c.school.CheckPrerequisites(ctx.Request.Context(), studentID, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.PrerequisiteCheckResponse{
		StudentID: studentID,
		CourseID:  id,
		Satisfied: satisfied,
	}))
}

// GetCourseEnrollments lists every enrollment in a course
func (c *CourseController) GetCourseEnrollments(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Course")
	if !ok {
		return
	}

	enrollments, err := c.enrollments.ListByCourse(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(enrollments))
}

// GetCourseGrades lists the grades given in a course
func (c *CourseController) GetCourseGrades(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Course")
	if !ok {
		return
	}

	grades, err := c.grades.ListGradesByCourse(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(grades))
}

// CheckConsistency compares the seat counter of a course with its active enrollments
func (c *CourseController) CheckConsistency(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Course")
	if !ok {
		return
	}

	result := dto.ConsistencyResponse{CourseID: id, Consistent: true}
	if err := c.capacity.VerifyCourseConsistency(ctx.Request.Context(), id); err != nil {
		if !errors.Is(err, services.ErrLedgerDrift) {
			middleware.HandleAPIError(ctx, err)
			return
		}
		result.Consistent = false
		result.Detail = err.Error()
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(result))
}
