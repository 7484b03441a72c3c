package bootstrap

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tayyabfareed009/newswatch/internal/config"
	"github.com/tayyabfareed009/newswatch/internal/domain"
	"github.com/tayyabfareed009/newswatch/internal/password"
	"github.com/tayyabfareed009/newswatch/internal/repository"
)

func TestEnsureSeedUser(t *testing.T) {
	ctx := context.Background()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	users := repository.NewMemoryUserRepo()
	cfg := config.Config{SeedUserEmail: "Editor@Test.com", SeedUserPassword: "secret1", SeedUserName: "Editor", SeedUserRole: "reporter"}

	require.NoError(t, ensureSeedUser(ctx, cfg, users, node, zap.NewNop()))
	user, err := users.GetByEmail(ctx, "editor@test.com")
	require.NoError(t, err)
	require.Equal(t, domain.RoleReporter, user.Role)
	require.True(t, user.EmailVerified)
	ok, err := password.Verify("secret1", user.PasswordHash)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, ensureSeedUser(ctx, cfg, users, node, zap.NewNop()))
}

func TestEnsureSeedUserSkipsOrRejects(t *testing.T) {
	ctx := context.Background()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	users := repository.NewMemoryUserRepo()

	require.NoError(t, ensureSeedUser(ctx, config.Config{}, users, node, nil))
	require.Error(t, ensureSeedUser(ctx, config.Config{SeedUserEmail: "a@test.com"}, users, node, nil))
	require.Error(t, ensureSeedUser(ctx, config.Config{SeedUserEmail: "a@test.com", SeedUserPassword: "secret1", SeedUserName: "A", SeedUserRole: "admin"}, users, node, nil))
}
