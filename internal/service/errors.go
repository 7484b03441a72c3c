package service

import (
	"fmt"
	"net/http"
)

// APIError is a failure with a stable wire code and HTTP status.
type APIError struct {
	Code    string
	Message string
	Status  int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newAPIError(code, message string, status int) *APIError {
	return &APIError{Code: code, Message: message, Status: status}
}

// Wire codes understood by the client.
const (
	CodeInvalidCode        = "invalid_code"
	CodeCodeExpired        = "code_expired"
	CodeAlreadyRegistered  = "already_registered"
	CodeInvalidCredentials = "invalid_credentials"
	CodeInvalidRequest     = "invalid_request"
	CodeServerError        = "server_error"
	CodeRateLimited        = "rate_limited"
	CodeUnauthorized       = "unauthorized"
)

var (
	ErrInvalidOTP         = newAPIError(CodeInvalidCode, "Invalid OTP.", http.StatusBadRequest)
	ErrOTPExpired         = newAPIError(CodeCodeExpired, "OTP has expired. Request a new code.", http.StatusBadRequest)
	ErrTooManyAttempts    = newAPIError(CodeCodeExpired, "Too many invalid attempts. Request a new code.", http.StatusBadRequest)
	ErrAlreadyRegistered  = newAPIError(CodeAlreadyRegistered, "User already registered.", http.StatusConflict)
	ErrInvalidCredentials = newAPIError(CodeInvalidCredentials, "Invalid email or password.", http.StatusUnauthorized)
	ErrEmailNotVerified   = newAPIError(CodeInvalidRequest, "Verify your email before registering.", http.StatusBadRequest)
	ErrUnknownAccount     = newAPIError(CodeInvalidRequest, "No account exists for this email.", http.StatusBadRequest)
	ErrUnauthorized       = newAPIError(CodeUnauthorized, "Sign in to continue.", http.StatusUnauthorized)
)

func invalidRequest(message string) *APIError {
	return newAPIError(CodeInvalidRequest, message, http.StatusBadRequest)
}
