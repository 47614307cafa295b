package rest

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/custodia-labs/cassation/internal/core/domain"
)

// AppError is an error with the HTTP status it maps to.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// MapError maps a domain error to an AppError with an appropriate HTTP status code.
func MapError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return NewAppError(http.StatusBadRequest, err.Error(), err)
	case errors.Is(err, domain.ErrNotFound):
		return NewAppError(http.StatusNotFound, "Decision not found", err)
	case errors.Is(err, domain.ErrStoreUnavailable):
		return NewAppError(http.StatusServiceUnavailable, "Store unavailable", err)
	default:
		return NewAppError(http.StatusInternalServerError, "Internal server error", err)
	}
}
