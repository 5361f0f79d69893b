package apperrors

import "errors"

// Enrollment engine errors
var (
	// Resource errors
	ErrNotFound      = errors.New("resource not found")
	ErrAlreadyExists = errors.New("resource already exists")

	// Admission errors
	ErrCapacityExceeded   = errors.New("capacity exceeded")
	ErrPrerequisiteNotMet = errors.New("prerequisite not met")

	// Lifecycle errors
	ErrEnrollmentNotActive = errors.New("enrollment is not active")

	// Grade errors
	ErrInvalidGrade = errors.New("invalid grade value")

	// Argument errors
	ErrInvalidArgument = errors.New("invalid argument")
)

// ErrValidationFailed is returned for malformed request payloads.
var ErrValidationFailed = errors.New("validation failed")

// NewNotFoundError creates a new custom error for resource not found with a message
func NewNotFoundError(message string) error {
	return &CustomError{
		Err:     ErrNotFound,
		Message: message,
	}
}

// NewAlreadyExistsError creates a new custom error for duplicate resources with a message
func NewAlreadyExistsError(message string) error {
	return &CustomError{
		Err:     ErrAlreadyExists,
		Message: message,
	}
}

// NewCapacityExceededError creates a new custom error for a full course or an invalid capacity reduction
func NewCapacityExceededError(message string) error {
	return &CustomError{
		Err:     ErrCapacityExceeded,
		Message: message,
	}
}

// NewPrerequisiteNotMetError creates a new custom error for missing prerequisites
func NewPrerequisiteNotMetError(message string) error {
	return &CustomError{
		Err:     ErrPrerequisiteNotMet,
		Message: message,
	}
}

// NewEnrollmentNotActiveError creates a new custom error for operations on a non-active enrollment
func NewEnrollmentNotActiveError(message string) error {
	return &CustomError{
		Err:     ErrEnrollmentNotActive,
		Message: message,
	}
}

// NewInvalidGradeError creates a new custom error for a grade value outside the closed set
func NewInvalidGradeError(message string) error {
	return &CustomError{
		Err:     ErrInvalidGrade,
		Message: message,
	}
}

// NewInvalidArgumentError creates a new custom error for a rejected argument
func NewInvalidArgumentError(message string) error {
	return &CustomError{
		Err:     ErrInvalidArgument,
		Message: message,
	}
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
	Details map[string]interface{}
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}

// Kind returns the taxonomy sentinel err wraps, or nil when err is outside the taxonomy.
func Kind(err error) error {
	for _, kind := range []error{
		ErrNotFound,
		ErrAlreadyExists,
		ErrCapacityExceeded,
		ErrPrerequisiteNotMet,
		ErrEnrollmentNotActive,
		ErrInvalidGrade,
		ErrInvalidArgument,
		ErrValidationFailed,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
