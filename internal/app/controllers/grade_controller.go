package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/registrar/internal/app/models"
	"github.com/yigit/registrar/internal/app/models/dto"
	"github.com/yigit/registrar/internal/app/services"
	"github.com/yigit/registrar/internal/middleware"
)

// GradeController handles grade requests
type GradeController struct {
	grades *services.GradeService
	school *services.SchoolManagementService
}

// NewGradeController creates a new GradeController
func NewGradeController(grades *services.GradeService, school *services.SchoolManagementService) *GradeController {
	return &GradeController{
		grades: grades,
		school: school,
	}
}

// RecordGrade grades an active enrollment
func (c *GradeController) RecordGrade(ctx *gin.Context) {
	var req dto.RecordGradeRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	grade, err := c.school.RecordGrade(ctx.Request.Context(), req.EnrollmentID, services.GradeInput{
		Value:         models.GradeValue(req.Value),
		Comments:      req.Comments,
		MarkCompleted: req.MarkCompleted,
		GradedDate:    dto.ParseDate(req.GradedDate),
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(grade))
}

// GetGrade retrieves a grade by ID
func (c *GradeController) GetGrade(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Grade")
	if !ok {
		return
	}

	grade, err := c.grades.GetGrade(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(grade))
}

// UpdateGrade rewrites a grade
func (c *GradeController) UpdateGrade(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Grade")
	if !ok {
		return
	}
	var req dto.UpdateGradeRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	grade, err := c.school.UpdateGrade(ctx.Request.Context(), id, services.GradeInput{
		Value:         models.GradeValue(req.Value),
		Comments:      req.Comments,
		MarkCompleted: req.MarkCompleted,
		GradedDate:    dto.ParseDate(req.GradedDate),
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(grade))
}

// DeleteGrade removes a grade
func (c *GradeController) DeleteGrade(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Grade")
	if !ok {
		return
	}

	if err := c.school.DeleteGrade(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}
