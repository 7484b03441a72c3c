package repository

import (
	"context"
	"sync"
	"time"

	"github.com/tayyabfareed009/newswatch/internal/domain"
)

var (
	_ UserRepository      = (*MemoryUserRepo)(nil)
	_ ChallengeRepository = (*MemoryChallengeRepo)(nil)
)

// MemoryUserRepo keeps accounts in process memory. It backs development runs without DATABASE_URL.
type MemoryUserRepo struct {
	mu      sync.RWMutex
	byID    map[int64]domain.User
	byEmail map[string]int64
}

func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{byID: map[int64]domain.User{}, byEmail: map[string]int64{}}
}

func (r *MemoryUserRepo) GetByEmail(_ context.Context, email string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[email]
	if !ok {
		return domain.User{}, ErrUserNotFound
	}
	return r.byID[id], nil
}

func (r *MemoryUserRepo) GetByID(_ context.Context, userID int64) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[userID]
	if !ok {
		return domain.User{}, ErrUserNotFound
	}
	return u, nil
}

func (r *MemoryUserRepo) Create(_ context.Context, user domain.User) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[user.Email]; ok {
		return domain.User{}, ErrEmailTaken
	}
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now
	r.byID[user.ID] = user
	r.byEmail[user.Email] = user.ID
	return user, nil
}

func (r *MemoryUserRepo) UpdatePassword(_ context.Context, userID int64, passwordHash string) error {
	return r.update(userID, func(u *domain.User) { u.PasswordHash = passwordHash })
}

func (r *MemoryUserRepo) MarkEmailVerified(_ context.Context, userID int64) error {
	return r.update(userID, func(u *domain.User) { u.EmailVerified = true })
}

func (r *MemoryUserRepo) update(userID int64, fn func(*domain.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[userID]
	if !ok {
		return ErrUserNotFound
	}
	fn(&u)
	u.UpdatedAt = time.Now().UTC()
	r.byID[userID] = u
	return nil
}

type expiring[T any] struct {
	value     T
	expiresAt time.Time
}

// MemoryChallengeRepo is the in-process ChallengeRepository used when Redis is not configured.
type MemoryChallengeRepo struct {
	now func() time.Time

	mu         sync.Mutex
	challenges map[string]expiring[domain.OTPChallenge]
	verified   map[string]expiring[struct{}]
}

func NewMemoryChallengeRepo(now func() time.Time) *MemoryChallengeRepo {
	if now == nil {
		now = time.Now
	}
	return &MemoryChallengeRepo{
		now:        now,
		challenges: map[string]expiring[domain.OTPChallenge]{},
		verified:   map[string]expiring[struct{}]{},
	}
}

func memoryKey(email string, purpose domain.Purpose) string {
	return string(purpose) + ":" + email
}

func (r *MemoryChallengeRepo) SaveChallenge(_ context.Context, ch domain.OTPChallenge, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.challenges[memoryKey(ch.Email, ch.Purpose)] = expiring[domain.OTPChallenge]{value: ch, expiresAt: r.now().Add(ttl)}
	return nil
}

func (r *MemoryChallengeRepo) GetChallenge(_ context.Context, email string, purpose domain.Purpose) (*domain.OTPChallenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := memoryKey(email, purpose)
	entry, ok := r.challenges[key]
	if !ok {
		return nil, nil
	}
	if !r.now().Before(entry.expiresAt) {
		delete(r.challenges, key)
		return nil, nil
	}
	ch := entry.value
	return &ch, nil
}

func (r *MemoryChallengeRepo) DeleteChallenge(_ context.Context, email string, purpose domain.Purpose) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.challenges, memoryKey(email, purpose))
	return nil
}

func (r *MemoryChallengeRepo) MarkVerified(_ context.Context, email string, purpose domain.Purpose, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.verified[memoryKey(email, purpose)] = expiring[struct{}]{expiresAt: r.now().Add(ttl)}
	return nil
}

func (r *MemoryChallengeRepo) IsVerified(_ context.Context, email string, purpose domain.Purpose) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := memoryKey(email, purpose)
	entry, ok := r.verified[key]
	if !ok {
		return false, nil
	}
	if !r.now().Before(entry.expiresAt) {
		delete(r.verified, key)
		return false, nil
	}
	return true, nil
}

func (r *MemoryChallengeRepo) ClearVerified(_ context.Context, email string, purpose domain.Purpose) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.verified, memoryKey(email, purpose))
	return nil
}
