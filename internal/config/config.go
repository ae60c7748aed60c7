// Package config loads the hierarchical configuration document
// described in spec.md §6, using viper the way the rest of the
// retrieval pack's services do (env var overrides over a YAML default
// file).
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/AliZeynalov/ai-router-facade/internal/apierror"
	"github.com/AliZeynalov/ai-router-facade/internal/journal"
	"github.com/AliZeynalov/ai-router-facade/internal/router"
)

// ProviderLimitSection mirrors one entry of
// Router.ProviderLimits.<name> in spec.md §6.
type ProviderLimitSection struct {
	RequestLimit     int     `mapstructure:"RequestLimit"`
	LimitType        string  `mapstructure:"LimitType"`
	CostPerToken     float64 `mapstructure:"CostPerToken"`
	DailyBudgetLimit float64 `mapstructure:"DailyBudgetLimit"`
}

// RouterSection mirrors the Router.* config keys in spec.md §6.
type RouterSection struct {
	DailyBudget         float64                          `mapstructure:"DailyBudget"`
	MaxRetries          int                              `mapstructure:"MaxRetries"`
	HealthCheckInterval string                            `mapstructure:"HealthCheckInterval"`
	EnableCostTracking  bool                             `mapstructure:"EnableCostTracking"`
	EnableRateLimiting  bool                             `mapstructure:"EnableRateLimiting"`
	ProviderLimits      map[string]ProviderLimitSection  `mapstructure:"ProviderLimits"`
}

// JournalSection mirrors JsonFileServiceOptions.* in spec.md §6.
type JournalSection struct {
	FilePath          string `mapstructure:"FilePath"`
	MaxFileSizeInBytes string `mapstructure:"MaxFileSizeInBytes"`
	MaxFileAge        string `mapstructure:"MaxFileAge"`
	RolloverDirectory string `mapstructure:"RolloverDirectory"`
	Enabled           bool   `mapstructure:"Enabled"`
}

// AdapterSection is one per-provider config block (ApiKey, BaseUrl,
// Model, MaxTokens, Timeout, Enabled), per spec.md §6.
type AdapterSection struct {
	Kind      string `mapstructure:"Kind"` // "openai", "anthropic", "local"
	Priority  int    `mapstructure:"Priority"`
	ApiKey    string `mapstructure:"ApiKey"`
	BaseUrl   string `mapstructure:"BaseUrl"`
	Model     string `mapstructure:"Model"`
	MaxTokens int    `mapstructure:"MaxTokens"`
	Timeout   string `mapstructure:"Timeout"`
	Enabled   bool   `mapstructure:"Enabled"`
}

// Config is the root of the loaded configuration document.
type Config struct {
	Router               RouterSection             `mapstructure:"Router"`
	JsonFileServiceOptions JournalSection           `mapstructure:"JsonFileServiceOptions"`
	HistoryFileServiceOptions JournalSection        `mapstructure:"HistoryFileServiceOptions"`
	Providers             map[string]AdapterSection `mapstructure:"Providers"`
	ListenAddr            string                    `mapstructure:"ListenAddr"`
}

// Load reads configuration from an optional YAML file at path (ignored
// if empty or absent) plus AI_ROUTER_-prefixed environment variables,
// and returns the parsed document.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("AI_ROUTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	applyDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
				return nil, apierror.NewConfigurationError("reading config file %s: %v", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, apierror.NewConfigurationError("unmarshaling config: %v", err)
	}
	return &cfg, nil
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("Router.DailyBudget", 10.0)
	v.SetDefault("Router.MaxRetries", 3)
	v.SetDefault("Router.HealthCheckInterval", "5m")
	v.SetDefault("Router.EnableCostTracking", true)
	v.SetDefault("Router.EnableRateLimiting", true)
	v.SetDefault("JsonFileServiceOptions.Enabled", false)
	v.SetDefault("JsonFileServiceOptions.FilePath", "./data/journal.json")
	v.SetDefault("JsonFileServiceOptions.MaxFileSizeInBytes", "5 * 1024 * 1024")
	v.SetDefault("JsonFileServiceOptions.MaxFileAge", "7")
	v.SetDefault("JsonFileServiceOptions.RolloverDirectory", "./data/rollover")
	v.SetDefault("HistoryFileServiceOptions.Enabled", false)
	v.SetDefault("HistoryFileServiceOptions.FilePath", "./data/history.json")
	v.SetDefault("HistoryFileServiceOptions.MaxFileSizeInBytes", "5 * 1024 * 1024")
	v.SetDefault("HistoryFileServiceOptions.MaxFileAge", "7")
	v.SetDefault("HistoryFileServiceOptions.RolloverDirectory", "./data/history-rollover")
	v.SetDefault("ListenAddr", ":8080")
}

// ParseDays parses the "number of days" age field spec.md §6 describes
// into a time.Duration.
func ParseDays(s string) (time.Duration, error) {
	days, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	return time.Duration(days * float64(24*time.Hour)), nil
}

// ToRouterConfig converts the loaded RouterSection into the router
// package's strongly-typed RouterConfig.
func (c *Config) ToRouterConfig() (router.RouterConfig, error) {
	interval, err := time.ParseDuration(c.Router.HealthCheckInterval)
	if err != nil {
		return router.RouterConfig{}, apierror.NewConfigurationError("Router.HealthCheckInterval: %v", err)
	}
	if c.Router.MaxRetries < 1 || c.Router.MaxRetries > 10 {
		return router.RouterConfig{}, apierror.NewConfigurationError("Router.MaxRetries must be in [1,10], got %d", c.Router.MaxRetries)
	}

	limits := make(map[string]router.ProviderLimitConfig, len(c.Router.ProviderLimits))
	for name, sec := range c.Router.ProviderLimits {
		limits[strings.ToLower(name)] = router.ProviderLimitConfig{
			RequestLimit:     sec.RequestLimit,
			LimitType:        router.LimitType(sec.LimitType),
			CostPerToken:     decimal.NewFromFloat(sec.CostPerToken),
			DailyBudgetLimit: decimal.NewFromFloat(sec.DailyBudgetLimit),
		}
	}

	return router.RouterConfig{
		DailyBudget:         decimal.NewFromFloat(c.Router.DailyBudget),
		MaxRetries:          c.Router.MaxRetries,
		HealthCheckInterval: interval,
		EnableCostTracking:  c.Router.EnableCostTracking,
		EnableRateLimiting:  c.Router.EnableRateLimiting,
		ProviderLimits:      limits,
	}, nil
}

// ResolvedMaxFileSize parses the size expression into a byte count,
// falling back to DefaultMaxFileSizeBytes on an invalid value.
func (s JournalSection) ResolvedMaxFileSize() int64 {
	return ParseSizeExpression(s.MaxFileSizeInBytes)
}

// ResolvedMaxFileAge parses the "number of days" field into a duration,
// falling back to 7 days on a malformed value.
func (s JournalSection) ResolvedMaxFileAge() time.Duration {
	d, err := ParseDays(s.MaxFileAge)
	if err != nil || d <= 0 {
		return 7 * 24 * time.Hour
	}
	return d
}

// ToJournalOptions converts a JournalSection into journal.Options.
func (s JournalSection) ToJournalOptions() journal.Options {
	return journal.Options{
		Enabled:           s.Enabled,
		FilePath:          s.FilePath,
		MaxFileSizeBytes:  s.ResolvedMaxFileSize(),
		MaxFileAge:        s.ResolvedMaxFileAge(),
		RolloverDirectory: s.RolloverDirectory,
	}
}
