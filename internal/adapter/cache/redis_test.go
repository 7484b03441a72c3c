package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/tayyabfareed009/newswatch/internal/adapter/cache"
	"github.com/tayyabfareed009/newswatch/internal/credstore"
	"github.com/tayyabfareed009/newswatch/internal/domain"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, redis.UniversalClient) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisCredentialStore(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)
	store := cache.NewRedisCredentialStore(client, "nw:")

	_, err := store.Get(ctx, credstore.KeyToken)
	require.ErrorIs(t, err, credstore.ErrNotFound)

	require.NoError(t, store.Set(ctx, credstore.KeyToken, "abc"))
	require.True(t, mr.Exists("nw:"+credstore.KeyToken))
	require.Zero(t, mr.TTL("nw:"+credstore.KeyToken))

	got, err := store.Get(ctx, credstore.KeyToken)
	require.NoError(t, err)
	require.Equal(t, "abc", got)

	require.NoError(t, store.Remove(ctx, credstore.KeyToken))
	require.NoError(t, store.Remove(ctx, credstore.KeyToken))
	_, err = store.Get(ctx, credstore.KeyToken)
	require.ErrorIs(t, err, credstore.ErrNotFound)
}

func TestRedisChallengeStore(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)
	store := cache.NewRedisChallengeStore(client)

	missing, err := store.GetChallenge(ctx, "a@test.com", domain.PurposeSignup)
	require.NoError(t, err)
	require.Nil(t, missing)

	ch := domain.OTPChallenge{
		Email:     "a@test.com",
		Purpose:   domain.PurposeSignup,
		CodeHash:  "hash",
		ExpiresAt: time.Now().Add(time.Minute).UTC().Truncate(time.Second),
	}
	require.NoError(t, store.SaveChallenge(ctx, ch, time.Minute))

	loaded, err := store.GetChallenge(ctx, "a@test.com", domain.PurposeSignup)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Equal(t, "hash", loaded.CodeHash)

	other, err := store.GetChallenge(ctx, "a@test.com", domain.PurposeResetPassword)
	require.NoError(t, err)
	require.Nil(t, other)

	mr.FastForward(2 * time.Minute)
	expired, err := store.GetChallenge(ctx, "a@test.com", domain.PurposeSignup)
	require.NoError(t, err)
	require.Nil(t, expired)

	require.NoError(t, store.MarkVerified(ctx, "a@test.com", domain.PurposeSignup, time.Minute))
	ok, err := store.IsVerified(ctx, "a@test.com", domain.PurposeSignup)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, store.ClearVerified(ctx, "a@test.com", domain.PurposeSignup))
	ok, err = store.IsVerified(ctx, "a@test.com", domain.PurposeSignup)
	require.NoError(t, err)
	require.False(t, ok)
}
