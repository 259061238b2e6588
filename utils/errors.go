package utils

import (
	"errors"
	"net/http"
)

// CustomError is an error that carries the HTTP status the caller should see
type CustomError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"message"`
}

func (e *CustomError) Error() string {
	return e.Message
}

// NewCustomError helper for building a CustomError
func NewCustomError(statusCode int, message string) *CustomError {
	return &CustomError{StatusCode: statusCode, Message: message}
}

// BadRequest is shorthand for a 400 CustomError
func BadRequest(message string) *CustomError {
	return NewCustomError(http.StatusBadRequest, message)
}

// StatusOf returns the status code of err if it is (or wraps) a CustomError,
// otherwise 500.
func StatusOf(err error) int {
	var customErr *CustomError
	if errors.As(err, &customErr) {
		return customErr.StatusCode
	}
	return http.StatusInternalServerError
}
