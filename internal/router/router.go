// Package router implements the router kernel (spec.md §4.4): the
// priority-ordered, viability-gated, fail-over core of the façade.
package router

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/AliZeynalov/ai-router-facade/internal/apierror"
	"github.com/AliZeynalov/ai-router-facade/internal/journal"
	"github.com/AliZeynalov/ai-router-facade/internal/ledger"
	"github.com/AliZeynalov/ai-router-facade/internal/models"
	"github.com/AliZeynalov/ai-router-facade/internal/provider"
)

// Router is the router kernel. It holds the ordered provider sequence
// and references to the ledger, the journal, and the router config —
// all immutable post-construction except the ledger's own internal
// state.
type Router struct {
	providers []provider.Adapter
	ledger    *ledger.Ledger
	journal   *journal.Store
	cfg       RouterConfig
}

// New sorts providers ascending by priority (ties broken by insertion
// order — Go's sort.SliceStable preserves that) and constructs a
// Router.
func New(providers []provider.Adapter, led *ledger.Ledger, store *journal.Store, cfg RouterConfig) *Router {
	ordered := make([]provider.Adapter, len(providers))
	copy(ordered, providers)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority() < ordered[j].Priority()
	})
	return &Router{providers: ordered, ledger: led, journal: store, cfg: cfg}
}

func (r *Router) limitFor(name string) (ProviderLimitConfig, bool) {
	cfg, ok := r.cfg.ProviderLimits[strings.ToLower(name)]
	return cfg, ok
}

// Route implements spec.md §4.4.1's algorithm.
func (r *Router) Route(ctx context.Context, prompt string, opts models.GenerationOptions) models.TerminalResponse {
	start := time.Now()
	result := models.RoutingResult{}

	for _, p := range r.providers {
		if !r.isViable(ctx, p, prompt) {
			log.WithFields(log.Fields{
				"provider": p.Name(),
				"event":    "skipped_not_viable",
			}).Debug("provider skipped: not viable")
			continue
		}

		attempt := r.attempt(ctx, p, prompt, opts)
		result.Attempts = append(result.Attempts, attempt)

		if attempt.Success {
			r.persist(result)
			return models.TerminalResponse{
				Ok:              true,
				Content:         attempt.Content,
				Provider:        attempt.Provider,
				Cost:            attempt.Cost,
				FailedProviders: result.FailedProviders(),
				Duration:        time.Since(start),
			}
		}
	}

	r.persist(result)
	return models.TerminalResponse{
		Ok:                 false,
		Error:              "All AI providers exhausted or unavailable",
		FailedProviders:    result.FailedProviders(),
		TotalAttemptedCost: result.TotalCost(),
		Duration:           time.Since(start),
	}
}

// isViable implements spec.md §4.4.2's conjunction of health, rate, and
// cost checks. Any panic-worthy failure is treated fail-closed.
func (r *Router) isViable(ctx context.Context, p provider.Adapter, prompt string) (viable bool) {
	defer func() {
		if rec := recover(); rec != nil {
			log.WithFields(log.Fields{
				"provider": p.Name(),
				"panic":    rec,
			}).Error("health check panicked")
			viable = false
		}
	}()

	if !p.CheckHealth(ctx) {
		return false
	}

	limitCfg, hasLimit := r.limitFor(p.Name())
	if r.cfg.EnableRateLimiting {
		if !hasLimit {
			// request-limit defaults to 0: deny by rate (spec.md §4.4.2).
			return false
		}
		if limitCfg.LimitType != LimitUnlimited {
			count := r.ledger.RequestCountForDate(p.Name(), time.Now().UTC().Format("2006-01-02"))
			if count >= limitCfg.RequestLimit {
				return false
			}
		}
		// LimitUnlimited: synthetic zero-count view, always below limit.
	}

	if r.cfg.EnableCostTracking {
		costPerToken := limitCfg.CostPerToken
		estimated := estimateCost(prompt, costPerToken)
		today := r.ledger.TodayUsage(p.Name())
		if today.TotalCost.Add(estimated).GreaterThan(r.cfg.DailyBudget) {
			return false
		}
	}

	return true
}

// attempt implements spec.md §4.4.3.
func (r *Router) attempt(ctx context.Context, p provider.Adapter, prompt string, opts models.GenerationOptions) models.AttemptResult {
	log.WithFields(log.Fields{
		"provider": p.Name(),
		"event":    "routing_attempt",
	}).Info("routing request to provider")

	attemptStart := time.Now()
	content, err := p.Generate(ctx, prompt, opts)
	duration := time.Since(attemptStart)

	limitCfg, _ := r.limitFor(p.Name())

	if err != nil {
		log.WithFields(log.Fields{
			"provider": p.Name(),
			"error":    err.Error(),
			"event":    "provider_failed",
		}).Error("provider failed")

		entry := models.JournalEntry{
			ID:          uuid.NewString(),
			Timestamp:   time.Now().UTC(),
			Prompt:      prompt,
			MaxTokens:   opts.MaxTokens,
			Temperature: opts.Temperature,
			Model:       opts.Model,
			Success:     false,
			Provider:    p.Name(),
			Error:       errorMessage(err),
			Cost:        decimal.Zero,
			DurationMs:  duration.Milliseconds(),
		}
		return models.AttemptResult{
			Success:  false,
			Provider: p.Name(),
			Error:    entry.Error,
			Cost:     decimal.Zero,
			Entry:    entry,
		}
	}

	tokens := estimateTokens(prompt + content)
	cost := estimateCost(prompt+content, limitCfg.CostPerToken)
	r.ledger.Record(p.Name(), tokens, cost)

	entry := models.JournalEntry{
		ID:          uuid.NewString(),
		Timestamp:   time.Now().UTC(),
		Prompt:      prompt,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
		Model:       opts.Model,
		Success:     true,
		Provider:    p.Name(),
		Content:     content,
		Cost:        cost,
		DurationMs:  duration.Milliseconds(),
	}

	return models.AttemptResult{
		Success:  true,
		Provider: p.Name(),
		Content:  content,
		Cost:     cost,
		Entry:    entry,
	}
}

func errorMessage(err error) string {
	var pErr *apierror.ProviderError
	if errors.As(err, &pErr) {
		return pErr.Error()
	}
	return err.Error()
}

// persist best-effort writes the routing result's journal entries to
// the journal store. Journal write failures are non-fatal: logged and
// swallowed, per spec.md §4.3's failure policy.
func (r *Router) persist(result models.RoutingResult) {
	if r.journal == nil {
		return
	}

	var doc models.JournalDocument
	if _, err := journal.Load(r.journal, &doc); err != nil {
		log.WithError(err).Warn("journal load failed; starting from empty document")
	}

	for _, a := range result.Attempts {
		doc.Responses = append(doc.Responses, a.Entry)
	}
	doc.LastUpdated = time.Now().UTC()
	doc.Recompute()

	if err := journal.Write(r.journal, doc); err != nil {
		log.WithError(err).Warn("journal write failed; continuing")
	}
}

// ProviderStatus implements spec.md §4.4.4. It never aborts: any
// per-provider failure yields an unhealthy zero-valued status and the
// loop continues.
func (r *Router) ProviderStatus(ctx context.Context) []models.ProviderStatus {
	statuses := make([]models.ProviderStatus, 0, len(r.providers))

	for _, p := range r.providers {
		status := func() (s models.ProviderStatus) {
			defer func() {
				if rec := recover(); rec != nil {
					s = models.ProviderStatus{Name: p.Name(), IsHealthy: false, CostToday: decimal.Zero}
				}
			}()

			healthy := p.CheckHealth(ctx)
			limitCfg, hasLimit := r.limitFor(p.Name())
			today := r.ledger.TodayUsage(p.Name())

			remaining := 0
			if hasLimit && limitCfg.LimitType != LimitUnlimited {
				remaining = limitCfg.RequestLimit - today.RequestCount
				if remaining < 0 {
					remaining = 0
				}
			}

			return models.ProviderStatus{
				Name:              p.Name(),
				IsHealthy:         healthy,
				RequestsToday:     today.RequestCount,
				CostToday:         today.TotalCost,
				RemainingRequests: remaining,
			}
		}()

		statuses = append(statuses, status)
	}

	return statuses
}

// TodaySpend implements spec.md §4.4.5: the sum of today's cost across
// all providers, swallowing per-provider errors.
func (r *Router) TodaySpend() decimal.Decimal {
	total := decimal.Zero
	for _, p := range r.providers {
		func() {
			defer func() { recover() }()
			total = total.Add(r.ledger.TodayUsage(p.Name()).TotalCost)
		}()
	}
	return total
}

// Providers exposes the ordered provider list for diagnostics (e.g. the
// façade's health aggregate).
func (r *Router) Providers() []provider.Adapter {
	return r.providers
}

// Ledger exposes the router's usage ledger for the façade's additional
// weekly-usage endpoint.
func (r *Router) Ledger() *ledger.Ledger {
	return r.ledger
}

// Journal exposes the router's internal journal store so the façade's
// history handler can read a consistent view when it is the same
// instance as the router's (it is not, per the open-question decision
// in DESIGN.md — façade history is a separate document).
func (r *Router) Journal() *journal.Store {
	return r.journal
}
