package router

import (
	"time"

	"github.com/shopspring/decimal"
)

// LimitType is the rate-limit window a Provider-Limit Configuration is
// expressed in. Per spec.md §9, hour/day/month all currently resolve to
// the same calendar-day ledger view; only Unlimited is handled
// specially (a synthetic always-below-limit view).
type LimitType string

const (
	LimitHour      LimitType = "hour"
	LimitDay       LimitType = "day"
	LimitMonth     LimitType = "month"
	LimitUnlimited LimitType = "unlimited"
)

// ProviderLimitConfig is spec.md §3's Provider-Limit Configuration,
// keyed by lowercased provider name in RouterConfig.ProviderLimits.
type ProviderLimitConfig struct {
	RequestLimit     int
	LimitType        LimitType
	CostPerToken     decimal.Decimal
	DailyBudgetLimit decimal.Decimal
}

// RouterConfig is spec.md §3's Router Configuration.
type RouterConfig struct {
	DailyBudget         decimal.Decimal
	MaxRetries          int // parsed and validated; not consulted by route() — see DESIGN.md
	HealthCheckInterval time.Duration
	EnableCostTracking  bool
	EnableRateLimiting  bool
	ProviderLimits      map[string]ProviderLimitConfig
}

// DefaultRouterConfig returns the spec.md §3 defaults.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		DailyBudget:         decimal.NewFromFloat(10.0),
		MaxRetries:          3,
		HealthCheckInterval: 5 * time.Minute,
		EnableCostTracking:  true,
		EnableRateLimiting:  true,
		ProviderLimits:      map[string]ProviderLimitConfig{},
	}
}
