package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AliZeynalov/ai-router-facade/internal/config"
	"github.com/AliZeynalov/ai-router-facade/internal/router"
)

func TestParseSizeExpressionBareInteger(t *testing.T) {
	assert.Equal(t, int64(1024), config.ParseSizeExpression("1024"))
}

func TestParseSizeExpressionProduct(t *testing.T) {
	assert.Equal(t, int64(5*1024*1024), config.ParseSizeExpression("5 * 1024 * 1024"))
}

func TestParseSizeExpressionMalformedFallsBackToDefault(t *testing.T) {
	assert.Equal(t, config.DefaultMaxFileSizeBytes, config.ParseSizeExpression("not a number"))
	assert.Equal(t, config.DefaultMaxFileSizeBytes, config.ParseSizeExpression(""))
	assert.Equal(t, config.DefaultMaxFileSizeBytes, config.ParseSizeExpression("0 * 5"))
}

func TestParseDays(t *testing.T) {
	d, err := config.ParseDays("7")
	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, d)

	d, err = config.ParseDays("0.5")
	require.NoError(t, err)
	assert.Equal(t, 12*time.Hour, d)

	_, err = config.ParseDays("nope")
	assert.Error(t, err)
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, 10.0, cfg.Router.DailyBudget)
	assert.Equal(t, 3, cfg.Router.MaxRetries)
	assert.True(t, cfg.Router.EnableCostTracking)
	assert.True(t, cfg.Router.EnableRateLimiting)
	assert.False(t, cfg.JsonFileServiceOptions.Enabled)
	assert.Equal(t, ":8080", cfg.ListenAddr)
}

func TestToRouterConfigRejectsOutOfRangeMaxRetries(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Router.MaxRetries = 0

	_, err = cfg.ToRouterConfig()
	require.Error(t, err)
}

func TestToRouterConfigConvertsProviderLimits(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Router.ProviderLimits = map[string]config.ProviderLimitSection{
		"OpenAI": {RequestLimit: 100, LimitType: "day", CostPerToken: 0.0001, DailyBudgetLimit: 5},
	}

	rc, err := cfg.ToRouterConfig()
	require.NoError(t, err)

	limit, ok := rc.ProviderLimits["openai"]
	require.True(t, ok)
	assert.Equal(t, 100, limit.RequestLimit)
	assert.Equal(t, router.LimitDay, limit.LimitType)
}

func TestJournalSectionResolvedDefaults(t *testing.T) {
	sec := config.JournalSection{
		MaxFileSizeInBytes: "5 * 1024 * 1024",
		MaxFileAge:         "7",
	}
	assert.Equal(t, int64(5*1024*1024), sec.ResolvedMaxFileSize())
	assert.Equal(t, 7*24*time.Hour, sec.ResolvedMaxFileAge())

	badSec := config.JournalSection{MaxFileAge: "garbage"}
	assert.Equal(t, 7*24*time.Hour, badSec.ResolvedMaxFileAge())
}
