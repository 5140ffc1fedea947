package response

import (
	"errors"
	"net/http"

	"github.com/0xReLogic/Cognio/pkg/memory"
)

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id"`
}

// Common error codes
const (
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeValidationFailed   = "VALIDATION_FAILED"
	ErrCodeTooManyRequests    = "TOO_MANY_REQUESTS"
	ErrCodeInternalServer     = "INTERNAL_SERVER_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeGatewayTimeout     = "GATEWAY_TIMEOUT"
)

// DomainStatus maps memory domain errors to an HTTP status and error code.
// Unknown errors are treated as internal.
func DomainStatus(err error) (int, string) {
	switch {
	case errors.Is(err, memory.ErrNotFound):
		return http.StatusNotFound, ErrCodeNotFound
	case errors.Is(err, memory.ErrEmptyText),
		errors.Is(err, memory.ErrTextTooLong),
		errors.Is(err, memory.ErrInvalidDate),
		errors.Is(err, memory.ErrInvalidFormat):
		return http.StatusBadRequest, ErrCodeValidationFailed
	case errors.Is(err, memory.ErrDuplicateHash):
		return http.StatusConflict, ErrCodeConflict
	case errors.Is(err, memory.ErrStorageFailure):
		return http.StatusServiceUnavailable, ErrCodeServiceUnavailable
	default:
		return http.StatusInternalServerError, ErrCodeInternalServer
	}
}

// ErrorCodeFromStatus returns an error code for the given HTTP status.
func ErrorCodeFromStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return ErrCodeBadRequest
	case http.StatusUnauthorized:
		return ErrCodeUnauthorized
	case http.StatusForbidden:
		return ErrCodeForbidden
	case http.StatusNotFound:
		return ErrCodeNotFound
	case http.StatusMethodNotAllowed:
		return ErrCodeMethodNotAllowed
	case http.StatusConflict:
		return ErrCodeConflict
	case http.StatusTooManyRequests:
		return ErrCodeTooManyRequests
	case http.StatusServiceUnavailable:
		return ErrCodeServiceUnavailable
	case http.StatusGatewayTimeout:
		return ErrCodeGatewayTimeout
	default:
		return ErrCodeInternalServer
	}
}

// HandleError writes the response for a domain error.
func HandleError(w http.ResponseWriter, err error, requestID string) {
	status, code := DomainStatus(err)
	Error(w, status, code, err.Error(), requestID)
}
