package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"

	"go.uber.org/zap"

	"github.com/tayyabfareed009/newswatch/internal/domain"
)

func generateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func hashOTP(email string, purpose domain.Purpose, code string) string {
	sum := sha256.Sum256([]byte(string(purpose) + ":" + email + ":" + code))
	return hex.EncodeToString(sum[:])
}

// issueChallenge replaces any active challenge for (email, purpose) with a new code.
func (s *AuthService) issueChallenge(ctx context.Context, email string, purpose domain.Purpose) (OTPIssue, error) {
	code, err := generateOTPCode()
	if err != nil {
		return OTPIssue{}, err
	}
	now := s.now().UTC()
	ch := domain.OTPChallenge{
		Email:       email,
		Purpose:     purpose,
		CodeHash:    hashOTP(email, purpose, code),
		ExpiresAt:   now.Add(s.cfg.OTPTTL),
		RequestedAt: now,
	}
	if err := s.challenges.SaveChallenge(ctx, ch, s.cfg.OTPTTL); err != nil {
		return OTPIssue{}, fmt.Errorf("save challenge: %w", err)
	}

	s.audit("otp.issued", "email", email, "purpose", purpose.String())
	if s.cfg.ExposeDevOTP {
		s.log().Info("development otp", zap.String("email", email), zap.String("purpose", purpose.String()), zap.String("code", code))
		return OTPIssue{DevCode: code}, nil
	}
	return OTPIssue{}, nil
}

// checkChallenge compares code with the active challenge. A match consumes the challenge when
// consume is set; a mismatch counts against the attempt budget.
func (s *AuthService) checkChallenge(ctx context.Context, email string, purpose domain.Purpose, code string, consume bool) error {
	ch, err := s.challenges.GetChallenge(ctx, email, purpose)
	if err != nil {
		return fmt.Errorf("load challenge: %w", err)
	}
	now := s.now().UTC()
	if ch == nil {
		return ErrOTPExpired
	}
	if ch.Expired(now) {
		_ = s.challenges.DeleteChallenge(ctx, email, purpose)
		return ErrOTPExpired
	}
	if ch.Attempts >= s.cfg.OTPMaxAttempts {
		_ = s.challenges.DeleteChallenge(ctx, email, purpose)
		return ErrTooManyAttempts
	}

	expected := hashOTP(email, purpose, code)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(ch.CodeHash)) != 1 {
		ch.Attempts++
		if ch.Attempts >= s.cfg.OTPMaxAttempts {
			_ = s.challenges.DeleteChallenge(ctx, email, purpose)
			s.audit("otp.locked", "email", email, "purpose", purpose.String())
			return ErrTooManyAttempts
		}
		if err := s.challenges.SaveChallenge(ctx, *ch, ch.ExpiresAt.Sub(now)); err != nil {
			return fmt.Errorf("save challenge: %w", err)
		}
		return ErrInvalidOTP
	}

	if consume {
		if err := s.challenges.DeleteChallenge(ctx, email, purpose); err != nil {
			return fmt.Errorf("consume challenge: %w", err)
		}
	}
	return nil
}
