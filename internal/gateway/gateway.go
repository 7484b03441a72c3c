package gateway

import (
	"context"

	"github.com/tayyabfareed009/newswatch/internal/domain"
)

// Gateway is the backend surface the OTP flow and login depend on. Every call is a single
// round trip; callers decide whether to try again.
type Gateway interface {
	SendCode(ctx context.Context, email string, purpose domain.Purpose) (SendResult, error)
	VerifyCode(ctx context.Context, email, code string, purpose domain.Purpose) (VerifyResult, error)
	Finalize(ctx context.Context, reg domain.PendingRegistration) (domain.Session, error)
	ResetPassword(ctx context.Context, email, code, newPassword string) error
	Login(ctx context.Context, email, password string) (domain.Session, error)
}

// SendResult is returned by SendCode. DevCode is only populated by development backends.
type SendResult struct {
	DevCode string
}

// VerifyResult is returned by VerifyCode.
type VerifyResult struct {
	RequiresFinalization bool
	Session              domain.Session
}

// Endpoint paths of the auth API.
const (
	PathRegister       = "/api/auth/register"
	PathLogin          = "/api/auth/login"
	PathVerifyOTP      = "/api/auth/verify-otp"
	PathResendOTP      = "/api/auth/resend-otp"
	PathForgotPassword = "/api/auth/forgot-password"
	PathResetPassword  = "/api/auth/reset-password"
	PathMe             = "/api/auth/me"
)
