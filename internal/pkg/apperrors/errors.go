package apperrors

import "errors"

// Common errors
var (
	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Authorization errors
	ErrPermissionDenied = errors.New("permission denied")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")

	// User errors
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
)

// Class errors
var (
	ErrClassNotFound      = errors.New("class not found")
	ErrInvalidClassPeriod = errors.New("class end must be after its start")
	ErrCapacityBelowSeats = errors.New("max participants cannot be lower than seats already taken")
)

// Enrollment errors
var (
	ErrApplicationNotFound     = errors.New("application not found")
	ErrDeadlinePassed          = errors.New("class enrollment deadline has passed")
	ErrCapacityFull            = errors.New("class is full")
	ErrDuplicateApplication    = errors.New("already applied")
	ErrAlreadyApproved         = errors.New("application already approved")
	ErrInvalidStatusTransition = errors.New("invalid application status transition")
	ErrConcurrentModification  = errors.New("class was modified concurrently")
	ErrSeatPolicyMismatch      = errors.New("seat policy differs from the one the database was created with")
)

// Admission errors
var (
	ErrResourceBusy = errors.New("resource is busy, try again later")
)

// NewForbiddenError creates a new custom error for permission denied with a message
func NewForbiddenError(message string) error {
	return &CustomError{
		Err:     ErrPermissionDenied,
		Message: message,
	}
}

// NewBadRequestError creates a new custom error for bad request with a message
func NewBadRequestError(message string) error {
	return &CustomError{
		Err:     ErrBadRequest,
		Message: message,
	}
}

// CustomError carries a client-facing message on top of a sentinel error
type CustomError struct {
	Err     error
	Message string
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
