package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tayyabfareed009/newswatch/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_PATH", t.TempDir()+"/creds.json")
	t.Setenv("API_BASE_URL", "http://api.test/")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, "http://api.test", cfg.APIBaseURL)
	require.Equal(t, config.StoreFile, cfg.StoreDriver)
	require.Equal(t, 600*time.Second, cfg.OTPCountdown)
	require.Equal(t, 10*time.Minute, cfg.OTPTTL)
	require.Equal(t, 5, cfg.OTPMaxAttempts)
}

func TestLoadRejectsUnknownStoreDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")

	_, err := config.Load()
	require.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Redis")
	t.Setenv("RESEND_COOLDOWN", "90s")
	t.Setenv("EXPOSE_DEV_OTP", "off")
	t.Setenv("APP_ENV", "development")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, config.StoreRedis, cfg.StoreDriver)
	require.Equal(t, 90*time.Second, cfg.OTPCountdown)
	require.False(t, cfg.ExposeDevOTP)
}

func TestRequireServerSecrets(t *testing.T) {
	require.Error(t, config.Config{JWTSecret: "short"}.RequireServerSecrets())
	require.NoError(t, config.Config{JWTSecret: "0123456789abcdef0123456789abcdef"}.RequireServerSecrets())
}

func TestLoadChallengeStore(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, config.StoreMemory, cfg.ChallengeDriver)

	t.Setenv("CHALLENGE_STORE", "file")
	_, err = config.Load()
	require.Error(t, err)
}

func TestLoadCORSAndSeedDefaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	require.Equal(t, []string{"GET", "POST", "OPTIONS"}, cfg.CORSAllowedMethods)
	require.False(t, cfg.CORSAllowCredentials)
	require.Empty(t, cfg.SeedUserEmail)
	require.Equal(t, "reporter", cfg.SeedUserRole)
}

func TestLoadListParsing(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://news.test , ,https://admin.news.test")
	t.Setenv("CORS_ALLOWED_HEADERS", " , ")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, []string{"https://news.test", "https://admin.news.test"}, cfg.CORSAllowedOrigins)
	require.Equal(t, []string{"Authorization", "Content-Type", "X-Request-ID"}, cfg.CORSAllowedHeaders)
}

func TestLoadClampsInvalidValues(t *testing.T) {
	t.Setenv("RESEND_COOLDOWN", "-1s")
	t.Setenv("OTP_MAX_ATTEMPTS", "0")
	t.Setenv("REDIS_DB", "not-a-number")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, 600*time.Second, cfg.OTPCountdown)
	require.Equal(t, 1, cfg.OTPMaxAttempts)
	require.Equal(t, 0, cfg.RedisDB)
}

func TestLoadSampleRatio(t *testing.T) {
	t.Setenv("OTEL_TRACES_SAMPLE_RATIO", "0.25")
	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, 0.25, cfg.TelemetrySampleRatio)

	t.Setenv("OTEL_TRACES_SAMPLE_RATIO", "2")
	_, err = config.Load()
	require.Error(t, err)
}
