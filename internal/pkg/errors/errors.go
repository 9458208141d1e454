package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Code    string      `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

const (
	ErrCodeInvalidInput     = "INVALID_INPUT"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeForbidden        = "FORBIDDEN"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeConflict         = "CONFLICT"
	ErrCodePlanLimitReached = "PLAN_LIMIT_REACHED"
	ErrCodeInternal         = "INTERNAL_ERROR"
)

// Sentinel errors for the repository and service layers. Handlers map these
// to HTTP statuses via WriteError.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// QuotaError is returned when a plan-limit check fails. Resource names the
// counter that hit its ceiling ("seats" or "materials") so callers can render
// an upgrade prompt.
type QuotaError struct {
	Resource string
	Limit    int
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("plan limit reached for %s (max %d)", e.Resource, e.Limit)
}

// Code returns the machine-readable error code carried by the error.
func (e *QuotaError) Code() string { return ErrCodePlanLimitReached }

func WriteError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    code,
		Details: details,
	})
}
