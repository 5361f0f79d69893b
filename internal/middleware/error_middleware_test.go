package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/yigit/registrar/internal/app/models/dto"
	"github.com/yigit/registrar/internal/pkg/apperrors"
)

func TestErrorDetailFor(t *testing.T) {
	gin.SetMode(gin.ReleaseMode)

	tests := []struct {
		name   string
		err    error
		status int
		code   dto.ErrorCode
	}{
		{name: "not found", err: apperrors.NewNotFoundError("course 9 not found"), status: http.StatusNotFound, code: dto.ErrorCodeResourceNotFound},
		{name: "duplicate", err: apperrors.NewAlreadyExistsError("dup"), status: http.StatusConflict, code: dto.ErrorCodeResourceAlreadyExists},
		{name: "full", err: fmt.Errorf("admit: %w", apperrors.NewCapacityExceededError("full")), status: http.StatusConflict, code: dto.ErrorCodeCapacityExceeded},
		{name: "prerequisite", err: apperrors.NewPrerequisiteNotMetError("missing"), status: http.StatusUnprocessableEntity, code: dto.ErrorCodePrerequisiteNotMet},
		{name: "not active", err: apperrors.NewEnrollmentNotActiveError("dropped"), status: http.StatusConflict, code: dto.ErrorCodeEnrollmentNotActive},
		{name: "grade", err: apperrors.NewInvalidGradeError("E+"), status: http.StatusUnprocessableEntity, code: dto.ErrorCodeInvalidGrade},
		{name: "argument", err: apperrors.NewInvalidArgumentError("self"), status: http.StatusBadRequest, code: dto.ErrorCodeInvalidArgument},
		{name: "unknown", err: errors.New("connection reset"), status: http.StatusInternalServerError, code: dto.ErrorCodeInternalServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, detail := ErrorDetailFor(tt.err)
			if status != tt.status {
				t.Fatalf("status = %d, want %d", status, tt.status)
			}
			if detail.Code != tt.code {
				t.Fatalf("code = %s, want %s", detail.Code, tt.code)
			}
		})
	}
}

func TestInternalErrorsHideTheCause(t *testing.T) {
	gin.SetMode(gin.ReleaseMode)

	_, detail := ErrorDetailFor(errors.New("pq: password authentication failed"))
	if detail.Message != "Internal server error" || detail.DebugInfo != "" {
		t.Fatalf("internal detail leaked: %+v", detail)
	}
	if detail.Severity != dto.ErrorSeverityCritical {
		t.Fatalf("severity = %s", detail.Severity)
	}
}

func TestCustomErrorDetailsAreForwarded(t *testing.T) {
	err := &apperrors.CustomError{
		Err:     apperrors.ErrPrerequisiteNotMet,
		Message: "missing prerequisites",
		Details: map[string]interface{}{"missing": []int64{3}},
	}

	_, detail := ErrorDetailFor(err)
	details, ok := detail.Details.(map[string]interface{})
	if !ok || details["missing"] == nil {
		t.Fatalf("details = %#v", detail.Details)
	}
}
