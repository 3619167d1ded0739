package apperror

import (
	"errors"
	"net/http"
)

// Error is an expected business failure. Use-cases return it as a tagged
// result; infrastructure faults stay plain errors and surface as 500s.
type Error struct {
	Code    int                 `json:"code"`
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

func (e *Error) Error() string {
	return e.Message
}

func Validation(message string, fieldErrors map[string][]string) *Error {
	return &Error{Code: http.StatusUnprocessableEntity, Message: message, Errors: fieldErrors}
}

func Conflict(message string) *Error {
	return &Error{Code: http.StatusBadRequest, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Code: http.StatusNotFound, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Code: http.StatusForbidden, Message: message}
}

// As unwraps err into an *Error if it is one.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
