package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/tayyabfareed009/newswatch/internal/config"
	"github.com/tayyabfareed009/newswatch/internal/domain"
	"github.com/tayyabfareed009/newswatch/internal/password"
	"github.com/tayyabfareed009/newswatch/internal/repository"
	"github.com/tayyabfareed009/newswatch/internal/validate"
)

// EnsureSeedUser creates the configured demo account on start when it is missing.
func EnsureSeedUser(lc fx.Lifecycle, cfg config.Config, users repository.UserRepository, node *snowflake.Node, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return ensureSeedUser(ctx, cfg, users, node, logger)
		},
	})
}

func ensureSeedUser(ctx context.Context, cfg config.Config, users repository.UserRepository, node *snowflake.Node, logger *zap.Logger) error {
	email := domain.NormalizeEmail(cfg.SeedUserEmail)
	if email == "" {
		return nil
	}
	if strings.TrimSpace(cfg.SeedUserPassword) == "" {
		return fmt.Errorf("SEED_USER_PASSWORD is required with SEED_USER_EMAIL")
	}

	reg := domain.PendingRegistration{
		Name:     cfg.SeedUserName,
		Email:    email,
		Password: cfg.SeedUserPassword,
		Role:     cfg.SeedUserRole,
	}.Normalized()
	if err := validate.Registration(reg); err != nil {
		return fmt.Errorf("seed user: %w", err)
	}

	if _, err := users.GetByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return fmt.Errorf("seed lookup user: %w", err)
	}

	hashed, err := password.Hash(reg.Password)
	if err != nil {
		return fmt.Errorf("seed hash password: %w", err)
	}

	created, err := users.Create(ctx, domain.User{
		ID:            node.Generate().Int64(),
		Name:          reg.Name,
		Email:         reg.Email,
		Role:          reg.Role,
		EmailVerified: true,
		PasswordHash:  hashed,
		Status:        "active",
	})
	if errors.Is(err, repository.ErrEmailTaken) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("seed create user: %w", err)
	}

	if logger != nil {
		logger.Info("seed user created",
			zap.String("email", created.Email),
			zap.String("role", created.Role),
			zap.Int64("user_id", created.ID),
		)
	}
	return nil
}
