package repository

import (
	"context"
	"errors"
	"time"

	"github.com/tayyabfareed009/newswatch/internal/domain"
)

var (
	// ErrUserNotFound is returned when no account matches the lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken is returned by Create when the e-mail address is already registered.
	ErrEmailTaken = errors.New("email already registered")
)

// UserRepository exposes persistence for reader and reporter accounts.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByID(ctx context.Context, userID int64) (domain.User, error)
	Create(ctx context.Context, user domain.User) (domain.User, error)
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
	MarkEmailVerified(ctx context.Context, userID int64) error
}

// ChallengeRepository persists short-lived OTP challenges and verification markers.
type ChallengeRepository interface {
	SaveChallenge(ctx context.Context, ch domain.OTPChallenge, ttl time.Duration) error
	// GetChallenge returns nil, nil when no challenge is active.
	GetChallenge(ctx context.Context, email string, purpose domain.Purpose) (*domain.OTPChallenge, error)
	DeleteChallenge(ctx context.Context, email string, purpose domain.Purpose) error
	MarkVerified(ctx context.Context, email string, purpose domain.Purpose, ttl time.Duration) error
	IsVerified(ctx context.Context, email string, purpose domain.Purpose) (bool, error)
	ClearVerified(ctx context.Context, email string, purpose domain.Purpose) error
}
