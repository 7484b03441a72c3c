package credstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("credstore: key not found")

// Logical keys held by the client.
const (
	KeyToken            = "auth.token"
	KeyUser             = "auth.user"
	KeyPendingSignup    = "signup.pending"
	KeyPendingEmail     = "flow.pending_email"
	KeyFlowPurpose      = "flow.purpose"
	KeyFlowSentAt       = "flow.sent_at"
	KeyFlowStage        = "flow.stage"
	KeyRememberEmail    = "remember.email"
	KeyRememberPassword = "remember.password"
)

// Store is a durable key-value store for opaque string values.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	// Remove deletes key; removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
}

// GetJSON decodes the value stored under key into out.
func GetJSON(ctx context.Context, store Store, key string, out any) error {
	raw, err := store.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// SetJSON encodes value and stores it under key.
func SetJSON(ctx context.Context, store Store, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return store.Set(ctx, key, string(payload))
}

// RemoveAll removes every key, returning the first failure.
func RemoveAll(ctx context.Context, store Store, keys ...string) error {
	var first error
	for _, key := range keys {
		if err := store.Remove(ctx, key); err != nil && first == nil {
			first = err
		}
	}
	return first
}
