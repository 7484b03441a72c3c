package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tayyabfareed009/newswatch/internal/credstore"
	"github.com/tayyabfareed009/newswatch/internal/domain"
	"github.com/tayyabfareed009/newswatch/internal/gateway"
	"github.com/tayyabfareed009/newswatch/internal/validate"
)

// ErrNoSession is returned when no session has been established or restored.
var ErrNoSession = errors.New("session: not signed in")

// Manager owns the authenticated session. It is created once per process and handed to
// everything that needs the token or the user snapshot.
type Manager struct {
	store  credstore.Store
	logger *zap.Logger

	mu      sync.RWMutex
	current domain.Session
}

// NewManager wires a manager over store.
func NewManager(store credstore.Store, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.L()
	}
	return &Manager{store: store, logger: logger}
}

// Establish persists token and user snapshot and makes them current.
func (m *Manager) Establish(ctx context.Context, s domain.Session) error {
	if !s.Valid() {
		return fmt.Errorf("establish session: empty token")
	}
	if err := m.store.Set(ctx, credstore.KeyToken, s.Token); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}
	if err := credstore.SetJSON(ctx, m.store, credstore.KeyUser, s.User); err != nil {
		return fmt.Errorf("persist user: %w", err)
	}

	m.mu.Lock()
	m.current = s
	m.mu.Unlock()

	m.audit("session.established", zap.Int64("user_id", s.User.ID), zap.String("email", s.User.Email))
	return nil
}

// Restore loads a previously persisted session.
func (m *Manager) Restore(ctx context.Context) (domain.Session, error) {
	token, err := m.store.Get(ctx, credstore.KeyToken)
	if err != nil {
		if errors.Is(err, credstore.ErrNotFound) {
			return domain.Session{}, ErrNoSession
		}
		return domain.Session{}, fmt.Errorf("load token: %w", err)
	}

	var user domain.User
	if err := credstore.GetJSON(ctx, m.store, credstore.KeyUser, &user); err != nil && !errors.Is(err, credstore.ErrNotFound) {
		return domain.Session{}, fmt.Errorf("load user: %w", err)
	}

	s := domain.Session{Token: token, User: user}
	m.mu.Lock()
	m.current = s
	m.mu.Unlock()
	return s, nil
}

// Current returns the active session.
func (m *Manager) Current() (domain.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.current.Valid() {
		return domain.Session{}, ErrNoSession
	}
	return m.current, nil
}

// UpdateUser replaces the cached profile snapshot.
func (m *Manager) UpdateUser(ctx context.Context, user domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.current.Valid() {
		return ErrNoSession
	}
	if err := credstore.SetJSON(ctx, m.store, credstore.KeyUser, user); err != nil {
		return fmt.Errorf("persist user: %w", err)
	}
	m.current.User = user
	return nil
}

// Clear tears the session down (logout). Remembered credentials are kept.
func (m *Manager) Clear(ctx context.Context) error {
	m.mu.Lock()
	prev := m.current
	m.current = domain.Session{}
	m.mu.Unlock()

	if err := credstore.RemoveAll(ctx, m.store, credstore.KeyToken, credstore.KeyUser); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	m.audit("session.cleared", zap.Int64("user_id", prev.User.ID))
	return nil
}

// Login validates the form, exchanges credentials for a session and updates remember-me.
func (m *Manager) Login(ctx context.Context, gw gateway.Gateway, email, password string, remember bool) (domain.Session, error) {
	if err := validate.Email(email); err != nil {
		return domain.Session{}, err
	}
	if password == "" {
		return domain.Session{}, domain.Validation("Password is required.")
	}
	normalized := domain.NormalizeEmail(email)

	s, err := gw.Login(ctx, normalized, password)
	if err != nil {
		return domain.Session{}, err
	}
	if err := m.Establish(ctx, s); err != nil {
		return domain.Session{}, err
	}

	if remember {
		err = m.Remember(ctx, normalized, password)
	} else {
		err = m.Forget(ctx)
	}
	if err != nil {
		m.logger.Warn("update remembered credentials", zap.Error(err))
	}
	return s, nil
}

func (m *Manager) audit(event string, fields ...zap.Field) {
	all := make([]zap.Field, 0, len(fields)+2)
	all = append(all, zap.String("event", event), zap.Time("timestamp", time.Now().UTC()))
	all = append(all, fields...)
	m.logger.Info("audit", all...)
}
