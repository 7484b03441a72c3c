package domain

import (
	"fmt"
	"strings"
	"time"
)

// Purpose scopes an OTP challenge.
type Purpose string

const (
	PurposeSignup        Purpose = "signup"
	PurposeResetPassword Purpose = "reset-password"
	PurposeVerifyEmail   Purpose = "verify-email"
)

// OTPCodeLength is the number of digits in every one-time code.
const OTPCodeLength = 6

// ParsePurpose accepts the wire names of the supported purposes.
func ParsePurpose(value string) (Purpose, error) {
	switch p := Purpose(strings.ToLower(strings.TrimSpace(value))); p {
	case PurposeSignup, PurposeResetPassword, PurposeVerifyEmail:
		return p, nil
	case "":
		return PurposeSignup, nil
	default:
		return "", fmt.Errorf("unknown otp purpose %q", value)
	}
}

func (p Purpose) String() string { return string(p) }

// OTPChallenge is the server-side record of an issued code.
type OTPChallenge struct {
	Email       string    `json:"email"`
	Purpose     Purpose   `json:"purpose"`
	CodeHash    string    `json:"codeHash"`
	ExpiresAt   time.Time `json:"expiresAt"`
	RequestedAt time.Time `json:"requestedAt"`
	Attempts    int       `json:"attempts"`
}

// Expired reports whether the challenge can no longer be redeemed.
func (c OTPChallenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
