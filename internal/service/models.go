package service

import "github.com/tayyabfareed009/newswatch/internal/domain"

// AuthResult is a signed session token with the account it belongs to.
type AuthResult struct {
	Token string
	User  domain.User
}

// OTPIssue describes a freshly issued code. DevCode is only set when codes are echoed for
// development.
type OTPIssue struct {
	DevCode string
}

// VerifyOutcome is the result of a successful code check.
type VerifyOutcome struct {
	RequiresRegistration bool
	Auth                 *AuthResult
}
