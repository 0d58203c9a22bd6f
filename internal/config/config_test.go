package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pointake/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Pipeline.Concurrency)
	assert.Equal(t, 950, cfg.Pipeline.WordBudget)
	assert.Equal(t, 10, cfg.Pipeline.MinTextWords)
	assert.Equal(t, 5.0, cfg.Pipeline.LineThreshold)
	assert.Equal(t, 2.0, cfg.Pipeline.RenderScale)
	assert.Equal(t, 80, cfg.Pipeline.JPEGQuality)
	assert.Equal(t, 2*time.Second, cfg.Oracle.RetryBaseDelay)
	assert.Equal(t, 3, cfg.Oracle.MaxRetries)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiry)
	assert.Equal(t, "gemini", cfg.Oracle.Primary.Provider)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("POINTAKE_PIPELINE_CONCURRENCY", "4")
	t.Setenv("POINTAKE_ORACLE_SECONDARY_PROVIDER", "claude")
	t.Setenv("POINTAKE_ORACLE_SECONDARY_EXTRACTION_MODEL", "claude-sonnet-4-5")
	t.Setenv("POINTAKE_CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Pipeline.Concurrency)
	assert.Equal(t, "claude", cfg.Oracle.Secondary.Provider)
	assert.Equal(t, "claude-sonnet-4-5", cfg.Oracle.Secondary.ExtractionModel)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_PortFromPlatform(t *testing.T) {
	t.Setenv("PORT", "9000")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Port)
}

func TestOracleConfig_ProvidersSkipsUnset(t *testing.T) {
	cfg := config.OracleConfig{
		Primary:  config.OracleProviderConfig{Provider: "gemini"},
		Tertiary: config.OracleProviderConfig{Provider: "openai"},
	}

	providers := cfg.Providers()

	require.Len(t, providers, 2)
	assert.Equal(t, "gemini", providers[0].Provider)
	assert.Equal(t, "openai", providers[1].Provider)
}

func TestOracleProviderConfig_Timeout(t *testing.T) {
	assert.Equal(t, 2*time.Minute, (&config.OracleProviderConfig{}).Timeout())
	assert.Equal(t, 30*time.Second, (&config.OracleProviderConfig{TimeoutSecs: 30}).Timeout())
}
