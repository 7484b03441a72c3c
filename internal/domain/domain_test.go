package domain_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tayyabfareed009/newswatch/internal/domain"
)

func TestParsePurpose(t *testing.T) {
	cases := map[string]domain.Purpose{
		"":                 domain.PurposeSignup,
		"signup":           domain.PurposeSignup,
		" Reset-Password ": domain.PurposeResetPassword,
		"verify-email":     domain.PurposeVerifyEmail,
	}
	for raw, want := range cases {
		got, err := domain.ParsePurpose(raw)
		require.NoError(t, err, raw)
		require.Equal(t, want, got)
	}

	_, err := domain.ParsePurpose("login")
	require.Error(t, err)
}

func TestKindOfUnwraps(t *testing.T) {
	base := domain.NewError(domain.KindConflict, "already_registered", "taken", 409)
	wrapped := fmt.Errorf("finalize: %w", base)

	require.Equal(t, domain.KindConflict, domain.KindOf(wrapped))
	require.True(t, domain.IsKind(wrapped, domain.KindConflict))
	require.False(t, domain.IsKind(nil, domain.KindConflict))
	require.Equal(t, domain.KindUnknown, domain.KindOf(errors.New("plain")))
}

func TestUserMessage(t *testing.T) {
	require.Equal(t, "Name is required.", domain.UserMessage(domain.Validation("Name is required.")))
	require.Equal(t, "Invalid email or password.", domain.UserMessage(domain.NewError(domain.KindAuth, "invalid_credentials", "", 401)))
	require.Equal(t, "The code is invalid or has expired.", domain.UserMessage(domain.NewError(domain.KindInvalidCode, "invalid_otp", "", 400)))
	require.Equal(t, "The server is having trouble. Please try again later.", domain.UserMessage(domain.NewError(domain.KindServer, "server_error", "boom", 500)))
	require.Equal(t, "Something went wrong. Please try again.", domain.UserMessage(errors.New("plain")))
}

func TestPendingRegistrationNormalized(t *testing.T) {
	reg := domain.PendingRegistration{Name: "  Ada ", Email: " Ada@Example.COM ", Role: " "}.Normalized()
	require.Equal(t, "Ada", reg.Name)
	require.Equal(t, "ada@example.com", reg.Email)
	require.Equal(t, domain.RoleReader, reg.Role)
}

func TestChallengeExpired(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	ch := domain.OTPChallenge{ExpiresAt: now.Add(time.Minute)}
	require.False(t, ch.Expired(now))
	require.True(t, ch.Expired(now.Add(2*time.Minute)))
}
