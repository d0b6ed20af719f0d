package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/mclass/internal/app/models/dto"
	"github.com/yigit/mclass/internal/pkg/apperrors"
	"github.com/yigit/mclass/internal/pkg/auth"
	"github.com/yigit/mclass/internal/pkg/logger"
	"github.com/yigit/mclass/internal/pkg/queue"
)

type errorMapping struct {
	target  error
	status  int
	code    dto.ErrorCode
	message string
}

// Checked in order; the first match wins.
var errorMappings = []errorMapping{
	{apperrors.ErrClassNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Class not found"},
	{apperrors.ErrApplicationNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Application not found"},
	{apperrors.ErrUserNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "User not found"},

	{apperrors.ErrDeadlinePassed, http.StatusBadRequest, dto.ErrorCodeDeadlinePassed, "Enrollment deadline has passed"},
	{apperrors.ErrCapacityFull, http.StatusBadRequest, dto.ErrorCodeCapacityFull, "Class is full"},
	{apperrors.ErrDuplicateApplication, http.StatusConflict, dto.ErrorCodeDuplicateApplication, "Already applied"},
	{apperrors.ErrAlreadyApproved, http.StatusBadRequest, dto.ErrorCodeAlreadyApproved, "Application already approved"},
	{apperrors.ErrInvalidStatusTransition, http.StatusBadRequest, dto.ErrorCodeInvalidTransition, "Invalid application status transition"},
	{apperrors.ErrConcurrentModification, http.StatusConflict, dto.ErrorCodeConcurrentModification, "Class was modified concurrently, please retry"},
	{apperrors.ErrCapacityBelowSeats, http.StatusConflict, dto.ErrorCodeConflict, "Max participants cannot be lower than seats already taken"},

	{apperrors.ErrPermissionDenied, http.StatusForbidden, dto.ErrorCodeForbidden, "Permission denied"},
	{apperrors.ErrInvalidCredentials, http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials, "Invalid credentials"},
	{auth.ErrExpiredToken, http.StatusUnauthorized, dto.ErrorCodeExpiredToken, "Token has expired"},
	{auth.ErrInvalidFormat, http.StatusUnauthorized, dto.ErrorCodeUnauthorized, "Invalid token format"},
	{auth.ErrInvalidToken, http.StatusUnauthorized, dto.ErrorCodeInvalidToken, "Invalid token"},

	{apperrors.ErrValidationFailed, http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Validation failed"},
	{apperrors.ErrBadRequest, http.StatusBadRequest, dto.ErrorCodeInvalidRequest, "Bad request"},
	{apperrors.ErrEmailAlreadyExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Email already exists"},

	{apperrors.ErrResourceBusy, http.StatusTooManyRequests, dto.ErrorCodeResourceBusy, "Resource is busy, try again later"},
	{queue.ErrClosed, http.StatusServiceUnavailable, dto.ErrorCodeInternalServer, "Service is shutting down"},
}

// HandleAPIError handles common API errors and returns appropriate responses
func HandleAPIError(c *gin.Context, err error) {
	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}
		message := m.message
		var custom *apperrors.CustomError
		if errors.As(err, &custom) && custom.Message != "" {
			message = custom.Message
		}

		detail := dto.NewErrorDetail(m.code, message)
		if m.status == http.StatusBadRequest {
			// Wrapped validation errors carry the offending field in their text
			if custom == nil && err.Error() != m.target.Error() {
				detail.WithDetails(err.Error())
			}
			detail.WithSeverity(dto.ErrorSeverityWarning)
		}
		if m.status == http.StatusTooManyRequests {
			c.Header("Retry-After", "1")
		}
		c.AbortWithStatusJSON(m.status, dto.NewErrorResponse(detail))
		return
	}

	logger.Error().Err(err).
		Str("method", c.Request.Method).
		Str("path", c.FullPath()).
		Msg("Unhandled API error")

	c.AbortWithStatusJSON(http.StatusInternalServerError,
		dto.NewErrorResponse(dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error").
			WithSeverity(dto.ErrorSeverityCritical)))
}
