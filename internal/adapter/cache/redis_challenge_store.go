package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tayyabfareed009/newswatch/internal/domain"
	"github.com/tayyabfareed009/newswatch/internal/repository"
)

// RedisChallengeStore implements repository.ChallengeRepository backed by Redis.
type RedisChallengeStore struct {
	client redis.UniversalClient
}

var _ repository.ChallengeRepository = (*RedisChallengeStore)(nil)

// NewRedisChallengeStore constructs a Redis-backed challenge store.
func NewRedisChallengeStore(client redis.UniversalClient) *RedisChallengeStore {
	return &RedisChallengeStore{client: client}
}

func challengeKey(email string, purpose domain.Purpose) string {
	return fmt.Sprintf("otp:challenge:%s:%s", purpose, email)
}

func verifiedKey(email string, purpose domain.Purpose) string {
	return fmt.Sprintf("otp:verified:%s:%s", purpose, email)
}

// SaveChallenge stores the challenge, replacing any previous one for the same email and purpose.
func (s *RedisChallengeStore) SaveChallenge(ctx context.Context, ch domain.OTPChallenge, ttl time.Duration) error {
	payload, err := json.Marshal(ch)
	if err != nil {
		return fmt.Errorf("marshal challenge: %w", err)
	}
	if err := s.client.Set(ctx, challengeKey(ch.Email, ch.Purpose), payload, ttl).Err(); err != nil {
		return fmt.Errorf("persist challenge: %w", err)
	}
	return nil
}

// GetChallenge loads the challenge; it returns nil when none is active.
func (s *RedisChallengeStore) GetChallenge(ctx context.Context, email string, purpose domain.Purpose) (*domain.OTPChallenge, error) {
	bytes, err := s.client.Get(ctx, challengeKey(email, purpose)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("load challenge: %w", err)
	}
	var ch domain.OTPChallenge
	if err := json.Unmarshal(bytes, &ch); err != nil {
		return nil, fmt.Errorf("decode challenge: %w", err)
	}
	return &ch, nil
}

// DeleteChallenge removes the active challenge.
func (s *RedisChallengeStore) DeleteChallenge(ctx context.Context, email string, purpose domain.Purpose) error {
	if err := s.client.Del(ctx, challengeKey(email, purpose)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("delete challenge: %w", err)
	}
	return nil
}

// MarkVerified records that email proved control for purpose, for ttl.
func (s *RedisChallengeStore) MarkVerified(ctx context.Context, email string, purpose domain.Purpose, ttl time.Duration) error {
	if err := s.client.Set(ctx, verifiedKey(email, purpose), time.Now().UTC().Format(time.RFC3339), ttl).Err(); err != nil {
		return fmt.Errorf("persist verification: %w", err)
	}
	return nil
}

// IsVerified reports whether a verification marker is present.
func (s *RedisChallengeStore) IsVerified(ctx context.Context, email string, purpose domain.Purpose) (bool, error) {
	n, err := s.client.Exists(ctx, verifiedKey(email, purpose)).Result()
	if err != nil {
		return false, fmt.Errorf("load verification: %w", err)
	}
	return n > 0, nil
}

// ClearVerified removes the verification marker.
func (s *RedisChallengeStore) ClearVerified(ctx context.Context, email string, purpose domain.Purpose) error {
	if err := s.client.Del(ctx, verifiedKey(email, purpose)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("delete verification: %w", err)
	}
	return nil
}
