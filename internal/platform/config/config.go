package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/domain"
)

const defaultJWTSecret = "a-very-secret-key-should-be-longer-and-random"

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	Port          string
	IsProduction  bool
	EnableDBCheck bool
	JWTSecret     string
	JWTIssuer     string

	RedisURL           string
	RateLimit          string // ulule formatted, e.g. "200-M"
	CORSAllowedOrigins []string

	// Event delivery
	EventQueue        string
	WorkerConcurrency int

	// Posting pipeline
	PostingMaxRetries uint64
	ChainLockTTL      time.Duration
	ThresholdCacheTTL time.Duration

	// Tracing
	OTLPEndpoint string
	ServiceName  string

	// Edge-case thresholds used by companies that have not stored their own
	DefaultLargeAmountCents       int64
	DefaultApprovalThresholdCents int64
	DefaultBackdatingWindowDays   int
	DefaultFutureDatingWindowDays int
	DefaultMinDescriptionLength   int
	DefaultRequireVoidApproval    bool
}

// DefaultThresholds returns the configured fallback thresholds.
func (c *Config) DefaultThresholds() domain.EdgeCaseThresholds {
	return domain.EdgeCaseThresholds{
		LargeAmountCents:       c.DefaultLargeAmountCents,
		ApprovalThresholdCents: c.DefaultApprovalThresholdCents,
		BackdatingWindowDays:   c.DefaultBackdatingWindowDays,
		FutureDatingWindowDays: c.DefaultFutureDatingWindowDays,
		MinDescriptionLength:   c.DefaultMinDescriptionLength,
		RequireVoidApproval:    c.DefaultRequireVoidApproval,
	}
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	defaults := domain.DefaultEdgeCaseThresholds()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("JWT_SECRET", defaultJWTSecret)
	viper.SetDefault("JWT_ISSUER", "ledger-backend")
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("RATE_LIMIT", "200-M")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("EVENT_QUEUE", "ledger-events")
	viper.SetDefault("WORKER_CONCURRENCY", 10)
	viper.SetDefault("POSTING_MAX_RETRIES", 5)
	viper.SetDefault("CHAIN_LOCK_TTL", "5s")
	viper.SetDefault("THRESHOLD_CACHE_TTL", "5m")
	viper.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	viper.SetDefault("SERVICE_NAME", "ledger-backend")
	viper.SetDefault("DEFAULT_LARGE_AMOUNT_CENTS", defaults.LargeAmountCents)
	viper.SetDefault("DEFAULT_APPROVAL_THRESHOLD_CENTS", defaults.ApprovalThresholdCents)
	viper.SetDefault("DEFAULT_BACKDATING_WINDOW_DAYS", defaults.BackdatingWindowDays)
	viper.SetDefault("DEFAULT_FUTURE_DATING_WINDOW_DAYS", defaults.FutureDatingWindowDays)
	viper.SetDefault("DEFAULT_MIN_DESCRIPTION_LENGTH", defaults.MinDescriptionLength)
	viper.SetDefault("DEFAULT_REQUIRE_VOID_APPROVAL", defaults.RequireVoidApproval)

	// Values from .env are now in the process environment and are picked up here,
	// where real environment variables still take precedence.
	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set. Falling back to the in-memory store.")
	}

	cfg.Port = viper.GetString("PORT")
	if cfg.Port == "" {
		cfg.Port = "8080"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}

	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "" || cfg.JWTSecret == defaultJWTSecret {
		cfg.JWTSecret = defaultJWTSecret // !! CHANGE IN PRODUCTION !!
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}
	cfg.JWTIssuer = viper.GetString("JWT_ISSUER")

	cfg.RedisURL = viper.GetString("REDIS_URL")
	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set. Chain locks, the threshold cache and async events are disabled.")
	}
	cfg.RateLimit = viper.GetString("RATE_LIMIT")
	cfg.CORSAllowedOrigins = splitList(viper.GetString("CORS_ALLOWED_ORIGINS"))

	cfg.EventQueue = viper.GetString("EVENT_QUEUE")
	cfg.WorkerConcurrency = viper.GetInt("WORKER_CONCURRENCY")
	if cfg.WorkerConcurrency <= 0 {
		cfg.WorkerConcurrency = 10
	}

	cfg.PostingMaxRetries = viper.GetUint64("POSTING_MAX_RETRIES")
	cfg.ChainLockTTL = durationOrDefault("CHAIN_LOCK_TTL", 5*time.Second)
	cfg.ThresholdCacheTTL = durationOrDefault("THRESHOLD_CACHE_TTL", 5*time.Minute)

	cfg.OTLPEndpoint = viper.GetString("OTEL_EXPORTER_OTLP_ENDPOINT")
	cfg.ServiceName = viper.GetString("SERVICE_NAME")

	cfg.DefaultLargeAmountCents = viper.GetInt64("DEFAULT_LARGE_AMOUNT_CENTS")
	cfg.DefaultApprovalThresholdCents = viper.GetInt64("DEFAULT_APPROVAL_THRESHOLD_CENTS")
	cfg.DefaultBackdatingWindowDays = viper.GetInt("DEFAULT_BACKDATING_WINDOW_DAYS")
	cfg.DefaultFutureDatingWindowDays = viper.GetInt("DEFAULT_FUTURE_DATING_WINDOW_DAYS")
	cfg.DefaultMinDescriptionLength = viper.GetInt("DEFAULT_MIN_DESCRIPTION_LENGTH")
	cfg.DefaultRequireVoidApproval = viper.GetBool("DEFAULT_REQUIRE_VOID_APPROVAL")

	if err := cfg.DefaultThresholds().Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// durationOrDefault parses a duration key such as "5s", logging and falling back on bad input.
func durationOrDefault(key string, fallback time.Duration) time.Duration {
	raw := viper.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		if raw != "" {
			log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, fallback)
		}
		return fallback
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
