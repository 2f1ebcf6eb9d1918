package errors

import (
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
)

// Sentinel errors. Everything returned from the engine, service and store is
// marked with exactly one of these.
var (
	ErrNotFound   = newErr(ErrCodeNotFound, "resource not found")
	ErrInactive   = newErr(ErrCodeInactive, "plan inactive")
	ErrValidation = newErr(ErrCodeValidation, "validation error")
	ErrStorage    = newErr(ErrCodeStorage, "storage error")
	ErrSystem     = newErr(ErrCodeSystem, "system error")

	statusCodeMap = map[error]int{
		ErrNotFound:   http.StatusNotFound,
		ErrInactive:   http.StatusNotFound,
		ErrValidation: http.StatusBadRequest,
		ErrStorage:    http.StatusInternalServerError,
		ErrSystem:     http.StatusInternalServerError,
	}
)

const (
	ErrCodeNotFound   = "not_found"
	ErrCodeInactive   = "plan_inactive"
	ErrCodeValidation = "validation_error"
	ErrCodeStorage    = "storage_error"
	ErrCodeSystem     = "system_error"
)

// InternalError is a coded domain error.
type InternalError struct {
	Code    string
	Message string
	Err     error
}

func (e *InternalError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Err.Error())
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// Is matches on code so wrapped copies compare equal to the sentinel.
func (e *InternalError) Is(target error) bool {
	if target == nil {
		return false
	}
	t, ok := target.(*InternalError)
	if !ok {
		return errors.Is(e.Err, target)
	}
	return e.Code == t.Code
}

func newErr(code, message string) *InternalError {
	return &InternalError{Code: code, Message: message}
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInactive checks if an error refers to an inactive plan
func IsInactive(err error) bool {
	return errors.Is(err, ErrInactive)
}

// IsPlanUnavailable reports both missing and inactive plans. Recharge and
// registration treat the two the same way.
func IsPlanUnavailable(err error) bool {
	return IsNotFound(err) || IsInactive(err)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsStorage checks if an error came from the store
func IsStorage(err error) bool {
	return errors.Is(err, ErrStorage)
}

func HTTPStatusFromErr(err error) int {
	for e, status := range statusCodeMap {
		if errors.Is(err, e) {
			return status
		}
	}
	return http.StatusInternalServerError
}
