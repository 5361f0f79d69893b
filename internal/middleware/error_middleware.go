package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/registrar/internal/app/models/dto"
	"github.com/yigit/registrar/internal/pkg/apperrors"
)

// errorMapping maps an application error onto its HTTP status and error code
type errorMapping struct {
	status int
	code   dto.ErrorCode
}

var errorMappings = map[error]errorMapping{
	apperrors.ErrNotFound:            {http.StatusNotFound, dto.ErrorCodeResourceNotFound},
	apperrors.ErrAlreadyExists:       {http.StatusConflict, dto.ErrorCodeResourceAlreadyExists},
	apperrors.ErrCapacityExceeded:    {http.StatusConflict, dto.ErrorCodeCapacityExceeded},
	apperrors.ErrPrerequisiteNotMet:  {http.StatusUnprocessableEntity, dto.ErrorCodePrerequisiteNotMet},
	apperrors.ErrEnrollmentNotActive: {http.StatusConflict, dto.ErrorCodeEnrollmentNotActive},
	apperrors.ErrInvalidGrade:        {http.StatusUnprocessableEntity, dto.ErrorCodeInvalidGrade},
	apperrors.ErrInvalidArgument:     {http.StatusBadRequest, dto.ErrorCodeInvalidArgument},
	apperrors.ErrValidationFailed:    {http.StatusBadRequest, dto.ErrorCodeValidationFailed},
}

// ErrorDetailFor builds the error detail and status for err. Errors outside the taxonomy
// become a generic internal error; the cause is only attached in debug mode.
func ErrorDetailFor(err error) (int, *dto.ErrorDetail) {
	kind := apperrors.Kind(err)
	if mapping, ok := errorMappings[kind]; ok {
		detail := dto.NewErrorDetail(mapping.code, err.Error())
		var custom *apperrors.CustomError
		if errors.As(err, &custom) && custom.Details != nil {
			detail = detail.WithDetails(custom.Details)
		}
		return mapping.status, detail
	}
	detail := dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error").
		WithSeverity(dto.ErrorSeverityCritical)
	if gin.Mode() == gin.DebugMode {
		detail = detail.WithDebugInfo("%v", err)
	}
	return http.StatusInternalServerError, detail
}

// HandleAPIError handles common API errors and returns appropriate responses
func HandleAPIError(c *gin.Context, err error) {
	status, detail := ErrorDetailFor(err)

	lgr := zerolog.Ctx(c.Request.Context())
	if status >= http.StatusInternalServerError {
		lgr.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
	} else {
		lgr.Debug().Err(err).Str("code", string(detail.Code)).Msg("Request rejected")
	}

	c.JSON(status, dto.NewErrorResponse(detail))
}

// BadRequest writes a validation error for a malformed parameter
func BadRequest(c *gin.Context, message, details string) {
	detail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, message).WithDetails(details)
	c.JSON(http.StatusBadRequest, dto.NewErrorResponse(detail))
}
