package utils

import (
	"errors"
	"net/http"
)

// StatusInvalidPhone is returned when the SMS carrier rejects a number.
const StatusInvalidPhone = 411

// AppError is an error carrying the HTTP status it should surface as.
// Controllers return these and RespondAppError maps them at the boundary.
type AppError struct {
	Code    int
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

func NewValidationError(message string) *AppError {
	return &AppError{Code: http.StatusBadRequest, Message: message}
}

func NewUnauthorizedError(message string) *AppError {
	if message == "" {
		message = "unauthorized"
	}
	return &AppError{Code: http.StatusUnauthorized, Message: message}
}

func NewNotFoundError(message string) *AppError {
	return &AppError{Code: http.StatusNotFound, Message: message}
}

func NewDuplicateEntryError(message string) *AppError {
	return &AppError{Code: http.StatusConflict, Message: message}
}

func NewInvalidPhoneError(message string) *AppError {
	return &AppError{Code: StatusInvalidPhone, Message: message}
}

// AsAppError unwraps err to an *AppError if one is in the chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
