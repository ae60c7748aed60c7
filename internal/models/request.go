// Package models holds the wire and domain types shared across the
// router kernel, the provider adapters, and the HTTP façade.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Defaults mirror spec.md §3's Generation Request defaults.
const (
	DefaultMaxTokens   = 1000
	DefaultTemperature = 0.7
	DefaultModel       = "default"
)

// GenerationRequest is the immutable input to one routing call.
type GenerationRequest struct {
	Prompt        string   `json:"prompt" binding:"required" validate:"required"`
	MaxTokens     int      `json:"maxTokens,omitempty" validate:"omitempty,min=1"`
	Temperature   float64  `json:"temperature,omitempty" validate:"omitempty,min=0,max=2"`
	Model         string   `json:"model,omitempty"`
	StopSequences []string `json:"stopSequences,omitempty"`
}

// WithDefaults returns a copy of req with zero-valued fields replaced by
// their spec-mandated defaults. Temperature is deliberately excluded:
// 0 is a valid explicit value in spec.md §3's [0, 2] range, so the Go
// zero value can't be used to tell "absent" from "explicitly zero" —
// callers that receive the request over the wire (internal/gateway)
// must resolve the temperature default themselves, from whether the
// field was present in the request body, before constructing req.
func (r GenerationRequest) WithDefaults() GenerationRequest {
	if r.MaxTokens == 0 {
		r.MaxTokens = DefaultMaxTokens
	}
	if r.Model == "" {
		r.Model = DefaultModel
	}
	return r
}

// GenerationOptions is the request minus the prompt, passed to adapters.
type GenerationOptions struct {
	MaxTokens     int
	Temperature   float64
	Model         string
	StopSequences []string
}

// Options extracts the adapter-facing options from a request.
func (r GenerationRequest) Options() GenerationOptions {
	return GenerationOptions{
		MaxTokens:     r.MaxTokens,
		Temperature:   r.Temperature,
		Model:         r.Model,
		StopSequences: r.StopSequences,
	}
}

// AttemptResult is the per-provider outcome of a single routing attempt.
type AttemptResult struct {
	Success  bool
	Provider string
	Content  string
	Error    string
	Cost     decimal.Decimal
	Entry    JournalEntry
}

// RoutingResult accumulates the attempts made during one route() call.
type RoutingResult struct {
	Attempts []AttemptResult
}

// TotalCost sums attempt.Cost across all attempts, per spec.md §3's
// Routing Result invariant.
func (r RoutingResult) TotalCost() decimal.Decimal {
	total := decimal.Zero
	for _, a := range r.Attempts {
		total = total.Add(a.Cost)
	}
	return total
}

// FailedProviders returns attempt.Provider for every unsuccessful attempt,
// in attempt order.
func (r RoutingResult) FailedProviders() []string {
	failed := make([]string, 0, len(r.Attempts))
	for _, a := range r.Attempts {
		if !a.Success {
			failed = append(failed, a.Provider)
		}
	}
	return failed
}

// TerminalResponse is the tagged union spec.md §3 and §9 describe: Ok
// distinguishes which half of the union is populated.
type TerminalResponse struct {
	Ok       bool
	Duration time.Duration

	// Success fields.
	Content  string
	Provider string
	Cost     decimal.Decimal

	// Failure fields. FailedProviders is also set on success, listing
	// the providers that failed before the one that served the call.
	Error              string
	FailedProviders    []string
	TotalAttemptedCost decimal.Decimal
}

// JournalEntry is one recorded attempt, per spec.md §3 and §6.
type JournalEntry struct {
	ID          string          `json:"id"`
	Timestamp   time.Time       `json:"timestamp"`
	Prompt      string          `json:"prompt"`
	MaxTokens   int             `json:"maxTokens"`
	Temperature float64         `json:"temperature"`
	Model       string          `json:"model"`
	Success     bool            `json:"success"`
	Provider    string          `json:"provider"`
	Content     string          `json:"content,omitempty"`
	Error       string          `json:"error,omitempty"`
	Cost        decimal.Decimal `json:"cost"`
	DurationMs  int64           `json:"durationMs"`
}

// JournalDocument is the on-disk shape described in spec.md §6.
type JournalDocument struct {
	Responses     []JournalEntry  `json:"responses"`
	LastUpdated   time.Time       `json:"lastUpdated"`
	TotalRequests int             `json:"totalRequests"`
	TotalCost     decimal.Decimal `json:"totalCost"`
}

// Recompute refreshes TotalRequests and TotalCost from Responses, keeping
// the Journal Document invariant from spec.md §3.
func (d *JournalDocument) Recompute() {
	d.TotalRequests = len(d.Responses)
	total := decimal.Zero
	for _, e := range d.Responses {
		total = total.Add(e.Cost)
	}
	d.TotalCost = total
}

// ProviderStatus is the per-provider view returned by GET /api/ai/status.
type ProviderStatus struct {
	Name              string          `json:"name"`
	IsHealthy         bool            `json:"isHealthy"`
	RequestsToday     int             `json:"requestsToday"`
	CostToday         decimal.Decimal `json:"costToday"`
	RemainingRequests int             `json:"remainingRequests"`
}

// DailyUsageView is the ledger's per-(provider, day) snapshot.
type DailyUsageView struct {
	Provider     string          `json:"provider"`
	Date         string          `json:"date"`
	RequestCount int             `json:"requestCount"`
	TokensUsed   int             `json:"tokensUsed"`
	TotalCost    decimal.Decimal `json:"totalCost"`
}

// WeeklyReport is the ledger's seven-day rollup, per spec.md §4.2.
type WeeklyReport struct {
	Days          map[string][]DailyUsageView `json:"days"`
	TotalCost     decimal.Decimal             `json:"totalCost"`
	TotalRequests int                         `json:"totalRequests"`
}
