package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers for the local credential store.
const (
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// Config contains runtime configuration values shared by the client and the reference API.
type Config struct {
	Environment string
	ServiceName string

	// client
	APIBaseURL   string
	HTTPTimeout  time.Duration
	StoreDriver  string
	StorePath    string
	StorePrefix  string
	OTPCountdown time.Duration

	// shared redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// reference API
	HTTPPort          string
	DatabaseURL       string
	JWTSecret         string
	SessionTTL        time.Duration
	OTPTTL            time.Duration
	OTPMaxAttempts    int
	VerifiedSignupTTL time.Duration
	RateLimitRPM      int
	ExposeDevOTP      bool

	ChallengeDriver  string
	SeedUserEmail    string
	SeedUserPassword string
	SeedUserName     string
	SeedUserRole     string

	CORSAllowedOrigins   []string
	CORSAllowedMethods   []string
	CORSAllowedHeaders   []string
	CORSAllowCredentials bool

	TelemetryEndpoint    string
	TelemetryInsecure    bool
	TelemetrySampleRatio float64
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Environment:          getEnv("APP_ENV", "development"),
		ServiceName:          getEnv("SERVICE_NAME", "newswatch"),
		APIBaseURL:           strings.TrimRight(getEnv("API_BASE_URL", "http://127.0.0.1:8080"), "/"),
		HTTPTimeout:          getDuration("HTTP_TIMEOUT", 15*time.Second),
		StoreDriver:          strings.ToLower(getEnv("STORE_DRIVER", StoreFile)),
		StorePath:            getEnv("STORE_PATH", defaultStorePath()),
		StorePrefix:          getEnv("STORE_PREFIX", "newswatch:"),
		OTPCountdown:         getDuration("RESEND_COOLDOWN", 600*time.Second),
		RedisAddr:            getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword:        os.Getenv("REDIS_PASSWORD"),
		RedisDB:              getInt("REDIS_DB", 0),
		HTTPPort:             getEnv("HTTP_PORT", "8080"),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		SessionTTL:           getDuration("SESSION_TTL", 7*24*time.Hour),
		OTPTTL:               getDuration("OTP_TTL", 10*time.Minute),
		OTPMaxAttempts:       getInt("OTP_MAX_ATTEMPTS", 5),
		VerifiedSignupTTL:    getDuration("VERIFIED_SIGNUP_TTL", 15*time.Minute),
		RateLimitRPM:         getInt("RATE_LIMIT_RPM", 600),
		ChallengeDriver:      strings.ToLower(getEnv("CHALLENGE_STORE", StoreMemory)),
		SeedUserEmail:        os.Getenv("SEED_USER_EMAIL"),
		SeedUserPassword:     os.Getenv("SEED_USER_PASSWORD"),
		SeedUserName:         getEnv("SEED_USER_NAME", "Newsroom Editor"),
		SeedUserRole:         getEnv("SEED_USER_ROLE", "reporter"),
		CORSAllowedOrigins:   getList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		CORSAllowedMethods:   getList("CORS_ALLOWED_METHODS", []string{"GET", "POST", "OPTIONS"}),
		CORSAllowedHeaders:   getList("CORS_ALLOWED_HEADERS", []string{"Authorization", "Content-Type", "X-Request-ID"}),
		CORSAllowCredentials: getBool("CORS_ALLOW_CREDENTIALS", false),
		TelemetryEndpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		TelemetryInsecure:    getBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		TelemetrySampleRatio: getFloat("OTEL_TRACES_SAMPLE_RATIO", 1),
	}
	cfg.ExposeDevOTP = getBool("EXPOSE_DEV_OTP", cfg.Environment == "development")

	switch cfg.StoreDriver {
	case StoreFile, StoreRedis, StoreMemory:
	default:
		return Config{}, fmt.Errorf("STORE_DRIVER must be one of file, redis, memory")
	}
	switch cfg.ChallengeDriver {
	case StoreRedis, StoreMemory:
	default:
		return Config{}, fmt.Errorf("CHALLENGE_STORE must be one of redis, memory")
	}
	if cfg.StoreDriver == StoreFile && strings.TrimSpace(cfg.StorePath) == "" {
		return Config{}, fmt.Errorf("STORE_PATH is required for the file store")
	}
	if cfg.OTPCountdown <= 0 {
		cfg.OTPCountdown = 600 * time.Second
	}
	if cfg.TelemetrySampleRatio < 0 || cfg.TelemetrySampleRatio > 1 {
		return Config{}, fmt.Errorf("OTEL_TRACES_SAMPLE_RATIO must be between 0 and 1")
	}
	if cfg.OTPMaxAttempts < 1 {
		cfg.OTPMaxAttempts = 1
	}

	return cfg, nil
}

// RequireServerSecrets checks the values only the reference API needs.
func (c Config) RequireServerSecrets() error {
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 bytes")
	}
	return nil
}

func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return ".newswatch/credentials.json"
	}
	return dir + string(os.PathSeparator) + "newswatch" + string(os.PathSeparator) + "credentials.json"
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v, ok := os.LookupEnv(key); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}

func getBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(v) {
		case "1", "true", "t", "yes", "y", "on":
			return true
		case "0", "false", "f", "no", "n", "off":
			return false
		}
	}
	return def
}

func getList(key string, def []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
