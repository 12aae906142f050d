package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rust-Frog/Accounting-System-sub002/internal/apperrors"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/domain"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, uint64(5), cfg.PostingMaxRetries)
	assert.Equal(t, 5*time.Second, cfg.ChainLockTTL)
	assert.Equal(t, 5*time.Minute, cfg.ThresholdCacheTTL)
	assert.Equal(t, "ledger-events", cfg.EventQueue)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, domain.DefaultEdgeCaseThresholds(), cfg.DefaultThresholds())
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("POSTING_MAX_RETRIES", "12")
	t.Setenv("CHAIN_LOCK_TTL", "750ms")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("DEFAULT_APPROVAL_THRESHOLD_CENTS", "500000")
	t.Setenv("DEFAULT_REQUIRE_VOID_APPROVAL", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, uint64(12), cfg.PostingMaxRetries)
	assert.Equal(t, 750*time.Millisecond, cfg.ChainLockTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)

	th := cfg.DefaultThresholds()
	assert.Equal(t, int64(500000), th.ApprovalThresholdCents)
	assert.True(t, th.RequireVoidApproval)
	assert.True(t, th.ExceedsApprovalThreshold(500001))
}

func TestLoadConfig_InvalidDurationFallsBack(t *testing.T) {
	t.Setenv("THRESHOLD_CACHE_TTL", "soon")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, cfg.ThresholdCacheTTL)
}

func TestLoadConfig_RejectsInvalidDefaultThresholds(t *testing.T) {
	t.Setenv("DEFAULT_BACKDATING_WINDOW_DAYS", "-1")

	cfg, err := LoadConfig()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
