package apierr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/vinnu2910/edutainverse/internal/domain/apperr"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// FromError converts a service error into an API error, choosing the HTTP
// status from its apperr code.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var api *Error
	if errors.As(err, &api) {
		return api
	}
	code := apperr.CodeOf(err)
	return New(StatusFor(code), codeString(code), err)
}

func StatusFor(code apperr.Code) int {
	switch code {
	case apperr.CodeValidation:
		return http.StatusBadRequest
	case apperr.CodeNotFound:
		return http.StatusNotFound
	case apperr.CodeConflict, apperr.CodePrecondition:
		return http.StatusConflict
	case apperr.CodeUnauthorized:
		return http.StatusUnauthorized
	case apperr.CodeForbidden:
		return http.StatusForbidden
	case apperr.CodePersistence:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func codeString(code apperr.Code) string {
	if code == "" {
		return string(apperr.CodeInternal)
	}
	return string(code)
}
