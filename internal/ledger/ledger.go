// Package ledger implements the usage ledger (spec.md §4.2): a
// process-wide, concurrent-safe mapping (provider, day) -> usage records,
// with today/weekly views and a budget check.
package ledger

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/AliZeynalov/ai-router-facade/internal/models"
)

// record is one recorded usage event, never published outside the
// ledger (spec.md §3 Usage Record).
type record struct {
	timestamp time.Time
	tokens    int
	cost      decimal.Decimal
}

type key struct {
	provider string
	date     string
}

// bucket holds the append-only sequence of records for one (provider,
// day) key, under its own short exclusive critical section.
type bucket struct {
	mu      sync.Mutex
	records []record
}

func (b *bucket) append(r record) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.records = append(b.records, r)
}

func (b *bucket) snapshot() []record {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]record, len(b.records))
	copy(out, b.records)
	return out
}

// Ledger is the concurrent-safe usage accounting kernel. The zero value
// is not usable; construct with New.
type Ledger struct {
	mu      sync.RWMutex
	buckets map[key]*bucket
	// providers tracks every provider name ever recorded, so
	// WeeklyReport can enumerate them without scanning bucket keys.
	providers map[string]struct{}
}

// New constructs an empty Ledger.
func New() *Ledger {
	return &Ledger{
		buckets:   make(map[key]*bucket),
		providers: make(map[string]struct{}),
	}
}

func dateString(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Record appends a usage record for provider at the current UTC
// instant. Per spec.md §4.2, this operation may not fail.
func (l *Ledger) Record(provider string, tokens int, cost decimal.Decimal) {
	now := time.Now().UTC()
	k := key{provider: provider, date: dateString(now)}

	l.mu.Lock()
	b, ok := l.buckets[k]
	if !ok {
		b = &bucket{}
		l.buckets[k] = b
	}
	l.providers[provider] = struct{}{}
	l.mu.Unlock()

	b.append(record{timestamp: now, tokens: tokens, cost: cost})
}

func (l *Ledger) view(provider, date string) models.DailyUsageView {
	l.mu.RLock()
	b, ok := l.buckets[key{provider: provider, date: date}]
	l.mu.RUnlock()

	view := models.DailyUsageView{Provider: provider, Date: date, TotalCost: decimal.Zero}
	if !ok {
		return view
	}
	for _, r := range b.snapshot() {
		view.RequestCount++
		view.TokensUsed += r.tokens
		view.TotalCost = view.TotalCost.Add(r.cost)
	}
	return view
}

// TodayUsage returns the Daily Usage View for provider on the current
// UTC date, zero-valued if no records exist yet.
func (l *Ledger) TodayUsage(provider string) models.DailyUsageView {
	return l.view(provider, dateString(time.Now()))
}

// WeeklyReport returns, for every provider ever recorded, seven Daily
// Usage Views covering [today-6 .. today] with explicit zero entries for
// missing days, per spec.md §4.2.
func (l *Ledger) WeeklyReport() models.WeeklyReport {
	l.mu.RLock()
	names := make([]string, 0, len(l.providers))
	for p := range l.providers {
		names = append(names, p)
	}
	l.mu.RUnlock()

	today := time.Now().UTC()
	report := models.WeeklyReport{
		Days:      make(map[string][]models.DailyUsageView, len(names)),
		TotalCost: decimal.Zero,
	}

	for _, provider := range names {
		days := make([]models.DailyUsageView, 0, 7)
		for i := 6; i >= 0; i-- {
			d := today.AddDate(0, 0, -i)
			view := l.view(provider, dateString(d))
			days = append(days, view)
			report.TotalCost = report.TotalCost.Add(view.TotalCost)
			report.TotalRequests += view.RequestCount
		}
		report.Days[provider] = days
	}
	return report
}

// CheckBudget reports whether today's spend for provider plus
// additionalCost stays within limit. Per spec.md §4.2 this policy is
// fail-closed: callers that couldn't determine a limit should pass a
// negative limit, which this always denies.
func (l *Ledger) CheckBudget(provider string, additionalCost, limit decimal.Decimal) bool {
	if limit.IsNegative() {
		return false
	}
	today := l.TodayUsage(provider)
	return today.TotalCost.Add(additionalCost).LessThanOrEqual(limit)
}

// RequestCountForDate exposes the raw request count for a provider on a
// given YYYY-MM-DD date, used by the router's rate-limit viability
// check (spec.md §4.4.2).
func (l *Ledger) RequestCountForDate(provider, date string) int {
	return l.view(provider, date).RequestCount
}

// Key renders a (provider, date) pair for diagnostics/logging.
func Key(provider, date string) string {
	return fmt.Sprintf("%s/%s", provider, date)
}
