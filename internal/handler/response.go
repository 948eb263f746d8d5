package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"ridebook/internal/auth"
	"ridebook/internal/repository"
	"ridebook/internal/service"
)

// Error codes reported in ErrorResponse.Code.
const (
	CodeValidation        = "ValidationError"
	CodeUnauthorized      = "Unauthorized"
	CodeForbidden         = "Forbidden"
	CodeNotFound          = "NotFound"
	CodeConflict          = "Conflict"
	CodeInvalidTransition = "InvalidTransition"
	CodeUnavailable       = "Unavailable"
	CodeInternal          = "Internal"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// StatusResponse acknowledges a write.
type StatusResponse struct {
	Status string `json:"status"`
	RideID string `json:"rideId,omitempty"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code, class := mapError(err)
	if code >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "request failed",
			"method", c.Request.Method,
			"route", c.FullPath(),
			"error", err,
		)
		_ = c.Error(err)
	}

	message := err.Error()
	if code == http.StatusInternalServerError {
		message = "internal error"
	}
	c.JSON(code, ErrorResponse{Error: message, Code: class})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// badRequest reports a body or parameter that could not be decoded.
func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message, Code: CodeValidation})
}

// mapError maps service, repository and auth errors to an HTTP status code
// and error class.
func mapError(err error) (int, string) {
	switch {
	// Validation errors - Bad Request
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, CodeValidation

	// Identity
	case errors.Is(err, service.ErrUnauthorized),
		errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, CodeUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, CodeForbidden

	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, CodeNotFound

	// Conflict errors
	case errors.Is(err, service.ErrInvalidTransition):
		return http.StatusConflict, CodeInvalidTransition
	case errors.Is(err, service.ErrConflict),
		errors.Is(err, repository.ErrDuplicate):
		return http.StatusConflict, CodeConflict

	// Service unavailable
	case errors.Is(err, service.ErrUnavailable),
		errors.Is(err, auth.ErrProviderUnavailable):
		return http.StatusServiceUnavailable, CodeUnavailable

	// Default to internal server error
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}
