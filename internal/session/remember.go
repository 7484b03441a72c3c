package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/tayyabfareed009/newswatch/internal/credstore"
)

// Credentials are the opt-in "remember me" values. They are stored in plaintext on purpose:
// the user asked for it and the store is not a security boundary.
type Credentials struct {
	Email    string
	Password string
}

// Remember stores credentials for prefilling the login form.
func (m *Manager) Remember(ctx context.Context, email, password string) error {
	if err := m.store.Set(ctx, credstore.KeyRememberEmail, email); err != nil {
		return fmt.Errorf("remember email: %w", err)
	}
	if err := m.store.Set(ctx, credstore.KeyRememberPassword, password); err != nil {
		return fmt.Errorf("remember password: %w", err)
	}
	return nil
}

// Remembered returns stored credentials; ok is false when nothing was remembered.
func (m *Manager) Remembered(ctx context.Context) (Credentials, bool, error) {
	email, err := m.store.Get(ctx, credstore.KeyRememberEmail)
	if errors.Is(err, credstore.ErrNotFound) {
		return Credentials{}, false, nil
	}
	if err != nil {
		return Credentials{}, false, fmt.Errorf("load remembered email: %w", err)
	}
	password, err := m.store.Get(ctx, credstore.KeyRememberPassword)
	if errors.Is(err, credstore.ErrNotFound) {
		return Credentials{}, false, nil
	}
	if err != nil {
		return Credentials{}, false, fmt.Errorf("load remembered password: %w", err)
	}
	return Credentials{Email: email, Password: password}, true, nil
}

// Forget removes remembered credentials.
func (m *Manager) Forget(ctx context.Context) error {
	return credstore.RemoveAll(ctx, m.store, credstore.KeyRememberEmail, credstore.KeyRememberPassword)
}
