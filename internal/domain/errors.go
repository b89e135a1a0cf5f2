package domain

import (
	"errors"
	"net/http"
)

type Code int

const (
	CodeInternal Code = iota
	CodeValidation
	CodeUnauthenticated
	CodeInvalidCredentials
	CodeForbidden
	CodeNotFound
	CodeEmailTaken
)

// Error is a client-facing failure. Message is safe to return to callers.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// HTTPStatus maps the code to the status the REST layer responds with.
func (e *Error) HTTPStatus() int {
	switch e.Code {
	case CodeValidation, CodeEmailTaken:
		return http.StatusBadRequest
	case CodeUnauthenticated, CodeInvalidCredentials:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func NewError(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

func Validation(msg string) *Error { return NewError(CodeValidation, msg) }

func Forbidden(msg string) *Error { return NewError(CodeForbidden, msg) }

func NotFound(msg string) *Error { return NewError(CodeNotFound, msg) }

func Internal(msg string) *Error { return NewError(CodeInternal, msg) }

func Unauthenticated(msg string) *Error { return NewError(CodeUnauthenticated, msg) }

var (
	ErrEmailTaken         = NewError(CodeEmailTaken, "Email already registered")
	ErrInvalidCredentials = NewError(CodeInvalidCredentials, "Invalid email or password")
	ErrNotAuthenticated   = Unauthenticated("Not authenticated")
	ErrUserVanished       = Unauthenticated("User not found")
	ErrManagerRequired    = Forbidden("Manager access required")
)

// AsError extracts a *Error from err, if any.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
