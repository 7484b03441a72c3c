package credstore_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tayyabfareed009/newswatch/internal/credstore"
	"github.com/tayyabfareed009/newswatch/internal/domain"
)

func TestFileStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "creds.json")

	store, err := credstore.NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, credstore.KeyToken, "abc"))
	require.NoError(t, credstore.SetJSON(ctx, store, credstore.KeyUser, domain.User{ID: 7, Name: "A"}))

	reopened, err := credstore.NewFileStore(path)
	require.NoError(t, err)
	token, err := reopened.Get(ctx, credstore.KeyToken)
	require.NoError(t, err)
	require.Equal(t, "abc", token)

	var user domain.User
	require.NoError(t, credstore.GetJSON(ctx, reopened, credstore.KeyUser, &user))
	require.Equal(t, "A", user.Name)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStoreRemove(t *testing.T) {
	ctx := context.Background()
	store, err := credstore.NewFileStore(filepath.Join(t.TempDir(), "creds.json"))
	require.NoError(t, err)

	require.NoError(t, store.Remove(ctx, "missing"))
	require.NoError(t, store.Set(ctx, credstore.KeyPendingEmail, "user@test.com"))
	require.NoError(t, store.Remove(ctx, credstore.KeyPendingEmail))

	_, err = store.Get(ctx, credstore.KeyPendingEmail)
	require.ErrorIs(t, err, credstore.ErrNotFound)
}

func TestFileStoreRejectsCorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := credstore.NewFileStore(path)
	require.Error(t, err)
}

func TestMemoryStoreAndHelpers(t *testing.T) {
	ctx := context.Background()
	store := credstore.NewMemoryStore()

	var pending domain.PendingRegistration
	require.ErrorIs(t, credstore.GetJSON(ctx, store, credstore.KeyPendingSignup, &pending), credstore.ErrNotFound)

	want := domain.PendingRegistration{Name: "A", Email: "a@test.com", Password: "secret1", Role: "reader"}
	require.NoError(t, credstore.SetJSON(ctx, store, credstore.KeyPendingSignup, want))
	require.NoError(t, credstore.GetJSON(ctx, store, credstore.KeyPendingSignup, &pending))
	require.Equal(t, want, pending)

	require.NoError(t, store.Set(ctx, credstore.KeyPendingEmail, "a@test.com"))
	require.NoError(t, credstore.RemoveAll(ctx, store, credstore.KeyPendingSignup, credstore.KeyPendingEmail, "never-set"))
	require.Equal(t, 0, store.Len())
}

func TestGetJSONDecodeError(t *testing.T) {
	ctx := context.Background()
	store := credstore.NewMemoryStore()
	require.NoError(t, store.Set(ctx, credstore.KeyUser, "not-json"))

	var user domain.User
	err := credstore.GetJSON(ctx, store, credstore.KeyUser, &user)
	require.Error(t, err)
	require.NotErrorIs(t, err, credstore.ErrNotFound)
}

func TestFileStoreFailedWriteLeavesValuesUnchanged(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "creds.json")
	store, err := credstore.NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, credstore.KeyToken, "t1"))

	// A directory in place of the temp file makes every write fail.
	require.NoError(t, os.Mkdir(path+".tmp", 0o700))

	require.Error(t, store.Set(ctx, credstore.KeyToken, "t2"))
	got, err := store.Get(ctx, credstore.KeyToken)
	require.NoError(t, err)
	require.Equal(t, "t1", got)

	require.Error(t, store.Set(ctx, credstore.KeyUser, "{}"))
	_, err = store.Get(ctx, credstore.KeyUser)
	require.ErrorIs(t, err, credstore.ErrNotFound)

	require.Error(t, store.Remove(ctx, credstore.KeyToken))
	got, err = store.Get(ctx, credstore.KeyToken)
	require.NoError(t, err)
	require.Equal(t, "t1", got)

	reopened, err := credstore.NewFileStore(path)
	require.NoError(t, err)
	got, err = reopened.Get(ctx, credstore.KeyToken)
	require.NoError(t, err)
	require.Equal(t, "t1", got)
}
