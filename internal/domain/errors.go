package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures the user has to react to.
type ErrorKind string

const (
	KindValidation  ErrorKind = "validation"
	KindAuth        ErrorKind = "auth"
	KindInvalidCode ErrorKind = "invalid_code"
	KindConflict    ErrorKind = "conflict"
	KindNetwork     ErrorKind = "network"
	KindServer      ErrorKind = "server"
	KindUnknown     ErrorKind = "unknown"
)

// Error is a classified, user-facing failure.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	Status  int
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds a classified error.
func NewError(kind ErrorKind, code, message string, status int) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Status: status}
}

// Validation builds a client-side validation failure.
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Code: "invalid_request", Message: message}
}

// KindOf returns the kind of err, or KindUnknown when it is not classified.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

// UserMessage maps an error to the text shown to the user.
func UserMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return "Something went wrong. Please try again."
	}
	switch e.Kind {
	case KindValidation, KindAuth, KindConflict, KindInvalidCode:
		if e.Message != "" {
			return e.Message
		}
	case KindNetwork:
		return "Network error. Check your connection and try again."
	case KindServer:
		return "The server is having trouble. Please try again later."
	}
	switch e.Kind {
	case KindAuth:
		return "Invalid email or password."
	case KindConflict:
		return "This email is already registered."
	case KindInvalidCode:
		return "The code is invalid or has expired."
	}
	return "Something went wrong. Please try again."
}
