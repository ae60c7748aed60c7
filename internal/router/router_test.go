package router_test

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/time/rate"

	"github.com/AliZeynalov/ai-router-facade/internal/journal"
	"github.com/AliZeynalov/ai-router-facade/internal/ledger"
	"github.com/AliZeynalov/ai-router-facade/internal/models"
	"github.com/AliZeynalov/ai-router-facade/internal/provider"
	"github.com/AliZeynalov/ai-router-facade/internal/provider/providermock"
	"github.com/AliZeynalov/ai-router-facade/internal/router"
)

// stubAdapter is a minimal, hand-written provider.Adapter used for most
// router tests, where scripting exact call counts (gomock's specialty)
// isn't needed — just a fixed response or error.
type stubAdapter struct {
	name         string
	priority     int
	costPerToken float64
	healthy      bool
	response     string
	err          error
}

func (s *stubAdapter) Name() string         { return s.name }
func (s *stubAdapter) Priority() int        { return s.priority }
func (s *stubAdapter) CostPerToken() float64 { return s.costPerToken }
func (s *stubAdapter) CheckHealth(ctx context.Context) bool { return s.healthy }
func (s *stubAdapter) Generate(ctx context.Context, prompt string, opts models.GenerationOptions) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func disabledJournal() *journal.Store {
	return journal.New(journal.Options{Enabled: false})
}

func unlimitedConfig(names ...string) router.RouterConfig {
	cfg := router.DefaultRouterConfig()
	cfg.DailyBudget = decimal.NewFromInt(1000)
	for _, n := range names {
		cfg.ProviderLimits[n] = router.ProviderLimitConfig{
			RequestLimit:     1000,
			LimitType:        router.LimitDay,
			CostPerToken:     decimal.NewFromFloat(0.0001),
			DailyBudgetLimit: decimal.NewFromInt(1000),
		}
	}
	return cfg
}

func adapters(stubs ...*stubAdapter) []provider.Adapter {
	out := make([]provider.Adapter, len(stubs))
	for i, s := range stubs {
		out[i] = s
	}
	return out
}

func newKernel(t *testing.T, stubs []*stubAdapter, cfg router.RouterConfig) *router.Router {
	t.Helper()
	return router.New(adapters(stubs...), ledger.New(), disabledJournal(), cfg)
}

type simpleError string

func (e simpleError) Error() string { return string(e) }

// TestPriorityMonotonicity exercises spec.md §8's law: given two
// healthy, in-budget providers, route() invokes only the
// higher-priority one.
func TestPriorityMonotonicity(t *testing.T) {
	p1 := &stubAdapter{name: "p1", priority: 1, healthy: true, response: "from p1"}
	p2 := &stubAdapter{name: "p2", priority: 2, healthy: true, response: "from p2"}

	cfg := unlimitedConfig("p1", "p2")
	kernel := newKernel(t, []*stubAdapter{p1, p2}, cfg)
	result := kernel.Route(context.Background(), "hi", models.GenerationOptions{})

	require.True(t, result.Ok)
	assert.Equal(t, "p1", result.Provider)
	assert.Equal(t, "from p1", result.Content)
}

func TestFailOverOnError(t *testing.T) {
	p1 := &stubAdapter{name: "p1", priority: 1, healthy: true, err: simpleError("boom")}
	p2 := &stubAdapter{name: "p2", priority: 2, healthy: true, response: "ok"}

	cfg := unlimitedConfig("p1", "p2")
	kernel := newKernel(t, []*stubAdapter{p1, p2}, cfg)
	result := kernel.Route(context.Background(), "hi", models.GenerationOptions{})

	require.True(t, result.Ok)
	assert.Equal(t, "p2", result.Provider)
	assert.Equal(t, []string{"p1"}, result.FailedProviders)
}

func TestAllProvidersExhausted(t *testing.T) {
	p1 := &stubAdapter{name: "p1", priority: 1, healthy: false}
	p2 := &stubAdapter{name: "p2", priority: 2, healthy: false}

	cfg := unlimitedConfig("p1", "p2")
	kernel := newKernel(t, []*stubAdapter{p1, p2}, cfg)
	result := kernel.Route(context.Background(), "hi", models.GenerationOptions{})

	require.False(t, result.Ok)
	assert.Empty(t, result.FailedProviders)
	assert.True(t, result.TotalAttemptedCost.IsZero())
}

func TestRateLimitTripSkipsProvider(t *testing.T) {
	p1 := &stubAdapter{name: "p1", priority: 1, healthy: true, response: "from p1"}
	p2 := &stubAdapter{name: "p2", priority: 2, healthy: true, response: "from p2"}

	cfg := unlimitedConfig("p2")
	cfg.ProviderLimits["p1"] = router.ProviderLimitConfig{
		RequestLimit: 1,
		LimitType:    router.LimitDay,
		CostPerToken: decimal.NewFromFloat(0.0001),
	}

	led := ledger.New()
	led.Record("p1", 1, decimal.Zero) // pre-existing request today

	kernel := router.New(adapters(p1, p2), led, disabledJournal(), cfg)
	result := kernel.Route(context.Background(), "hi", models.GenerationOptions{})

	require.True(t, result.Ok)
	assert.Equal(t, "p2", result.Provider)
	assert.NotContains(t, result.FailedProviders, "p1")
}

func TestBudgetRefusalSkipsExpensiveProvider(t *testing.T) {
	p1 := &stubAdapter{name: "p1", priority: 1, healthy: true, response: "from p1"}
	p2 := &stubAdapter{name: "p2", priority: 2, healthy: true, response: "from p2"}

	cfg := router.DefaultRouterConfig()
	cfg.DailyBudget = decimal.NewFromFloat(0.000001)
	cfg.ProviderLimits["p1"] = router.ProviderLimitConfig{RequestLimit: 1000, LimitType: router.LimitDay, CostPerToken: decimal.NewFromFloat(1000)}
	cfg.ProviderLimits["p2"] = router.ProviderLimitConfig{RequestLimit: 1000, LimitType: router.LimitDay, CostPerToken: decimal.Zero}

	kernel := newKernel(t, []*stubAdapter{p1, p2}, cfg)
	result := kernel.Route(context.Background(), "hi", models.GenerationOptions{})

	require.True(t, result.Ok)
	assert.Equal(t, "p2", result.Provider)
}

func TestNoConfiguredLimitDeniesProvider(t *testing.T) {
	p1 := &stubAdapter{name: "p1", priority: 1, healthy: true, response: "from p1"}

	cfg := router.DefaultRouterConfig()
	cfg.DailyBudget = decimal.NewFromInt(1000)
	kernel := newKernel(t, []*stubAdapter{p1}, cfg)
	result := kernel.Route(context.Background(), "hi", models.GenerationOptions{})

	require.False(t, result.Ok)
}

// TestGomockAdapterIsExercised demonstrates the go.uber.org/mock-backed
// MockAdapter wired per DESIGN.md, scripting exact call expectations
// rather than a hand-written stub.
func TestGomockAdapterIsExercised(t *testing.T) {
	ctrl := gomock.NewController(t)
	mock := providermock.NewMockAdapter(ctrl)

	mock.EXPECT().Name().Return("mocked").AnyTimes()
	mock.EXPECT().Priority().Return(1).AnyTimes()
	mock.EXPECT().CostPerToken().Return(0.0).AnyTimes()
	mock.EXPECT().CheckHealth(gomock.Any()).Return(true)
	mock.EXPECT().Generate(gomock.Any(), "hi", gomock.Any()).Return("mocked response", nil)

	cfg := unlimitedConfig("mocked")
	kernel := router.New([]provider.Adapter{mock}, ledger.New(), disabledJournal(), cfg)
	result := kernel.Route(context.Background(), "hi", models.GenerationOptions{})

	require.True(t, result.Ok)
	assert.Equal(t, "mocked response", result.Content)
}

func TestEstimatedCostMatchesExample(t *testing.T) {
	// spec.md §9 scenario 1: prompt="hi" (2 chars), response="hello" (5
	// chars), cpt=0.0001 -> tokens=ceil(7/4)=2, cost=2*0.0001/1000.
	p1 := &stubAdapter{name: "p1", priority: 1, healthy: true, response: "hello"}

	cfg := unlimitedConfig("p1")
	cfg.ProviderLimits["p1"] = router.ProviderLimitConfig{RequestLimit: 100, LimitType: router.LimitDay, CostPerToken: decimal.NewFromFloat(0.0001)}

	led := ledger.New()
	kernel := router.New(adapters(p1), led, disabledJournal(), cfg)
	result := kernel.Route(context.Background(), "hi", models.GenerationOptions{})

	require.True(t, result.Ok)
	expected := decimal.NewFromInt(2).Mul(decimal.NewFromFloat(0.0001)).Div(decimal.NewFromInt(1000))
	assert.True(t, result.Cost.Equal(expected), "got cost %s want %s", result.Cost, expected)

	today := led.TodayUsage("p1")
	assert.Equal(t, 1, today.RequestCount)
	assert.Equal(t, 2, today.TokensUsed)
}

// TestRateLimitTripUnderConcurrentBurst drives many concurrent Route
// calls at p1 (RequestLimit=5) using a rate.Limiter configured with a
// burst equal to the goroutine count, so every goroutine is released in
// the same tight window instead of trickling in one at a time — a
// deterministic way to generate the burst spec.md §5 says concurrent
// callers can produce. Once p1's daily count reaches its limit, later
// callers must fail over to p2; p1's ledger count must never exceed its
// configured limit.
func TestRateLimitTripUnderConcurrentBurst(t *testing.T) {
	const burstSize = 20
	const p1Limit = 5

	p1 := &stubAdapter{name: "p1", priority: 1, healthy: true, response: "from p1"}
	p2 := &stubAdapter{name: "p2", priority: 2, healthy: true, response: "from p2"}

	cfg := unlimitedConfig("p2")
	cfg.ProviderLimits["p1"] = router.ProviderLimitConfig{
		RequestLimit: p1Limit,
		LimitType:    router.LimitDay,
		CostPerToken: decimal.NewFromFloat(0.0001),
	}

	led := ledger.New()
	kernel := router.New(adapters(p1, p2), led, disabledJournal(), cfg)

	limiter := rate.NewLimiter(rate.Inf, burstSize)
	var wg sync.WaitGroup
	results := make([]models.TerminalResponse, burstSize)
	for i := 0; i < burstSize; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			require.NoError(t, limiter.Wait(context.Background()))
			results[idx] = kernel.Route(context.Background(), "hi", models.GenerationOptions{})
		}(i)
	}
	wg.Wait()

	p1Served, p2Served := 0, 0
	for _, r := range results {
		require.True(t, r.Ok)
		switch r.Provider {
		case "p1":
			p1Served++
		case "p2":
			p2Served++
		}
	}

	assert.LessOrEqual(t, p1Served, p1Limit)
	assert.Equal(t, burstSize, p1Served+p2Served)
	assert.LessOrEqual(t, led.TodayUsage("p1").RequestCount, p1Limit)
}
