package gateway

import (
	"net/http"
	"strings"

	"github.com/tayyabfareed009/newswatch/internal/domain"
)

// Envelope is the JSON body shared by every auth endpoint.
type Envelope struct {
	Success              bool         `json:"success"`
	Message              string       `json:"message,omitempty"`
	Error                string       `json:"error,omitempty"`
	Token                string       `json:"token,omitempty"`
	User                 *domain.User `json:"user,omitempty"`
	DevOTP               string       `json:"devOtp,omitempty"`
	RequiresRegistration bool         `json:"requiresRegistration,omitempty"`
}

// Error codes the auth API puts in Envelope.Error.
const (
	CodeInvalidRequest     = "invalid_request"
	CodeInvalidCode        = "invalid_code"
	CodeCodeExpired        = "code_expired"
	CodeAlreadyRegistered  = "already_registered"
	CodeInvalidCredentials = "invalid_credentials"
	CodeUnauthorized       = "unauthorized"
	CodeRateLimited        = "rate_limited"
	CodeServerError        = "server_error"
)

func (e Envelope) session() domain.Session {
	s := domain.Session{Token: e.Token}
	if e.User != nil {
		s.User = *e.User
	}
	return s
}

// Classify maps a failed response onto the error taxonomy.
func Classify(status int, env Envelope) *domain.Error {
	code := strings.TrimSpace(env.Error)
	msg := strings.TrimSpace(env.Message)
	lower := strings.ToLower(msg)

	kind := domain.KindUnknown
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden || code == CodeInvalidCredentials:
		kind = domain.KindAuth
	case status == http.StatusConflict || code == CodeAlreadyRegistered ||
		strings.Contains(lower, "already registered") || strings.Contains(lower, "already exists"):
		kind = domain.KindConflict
	case code == CodeInvalidCode || code == CodeCodeExpired || mentionsBadCode(lower):
		kind = domain.KindInvalidCode
	case status == http.StatusTooManyRequests || status >= 500:
		kind = domain.KindServer
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		kind = domain.KindValidation
	}

	if msg == "" {
		msg = http.StatusText(status)
	}
	if code == "" {
		code = string(kind)
	}
	return &domain.Error{Kind: kind, Code: code, Message: msg, Status: status}
}

func mentionsBadCode(msg string) bool {
	if !strings.Contains(msg, "otp") && !strings.Contains(msg, "code") {
		return false
	}
	return strings.Contains(msg, "invalid") || strings.Contains(msg, "expired") || strings.Contains(msg, "incorrect")
}
