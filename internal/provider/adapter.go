// Package provider defines the adapter capability set (spec.md §4.1)
// and its concrete variants. An adapter translates a generic generation
// call into one backend's native protocol; it never consults the
// ledger, the journal, or any budget — that is the router's job.
package provider

import (
	"context"

	"github.com/AliZeynalov/ai-router-facade/internal/models"
)

// Adapter is the polymorphic capability set every provider must
// implement: generate and check-health, plus the diagnostic identity
// fields spec.md §3's Provider Descriptor names.
type Adapter interface {
	// Name is the provider's identity, used for ledger keys, journal
	// entries, and HTTP status payloads.
	Name() string

	// Priority orders providers ascending; lower runs earlier.
	Priority() int

	// CostPerToken is the adapter's own notion of cost, used only for
	// diagnostics — the authoritative figure lives in the router's
	// Provider-Limit Configuration.
	CostPerToken() float64

	// Generate translates prompt+options into the backend's native
	// request and returns the generated text. Failures are returned as
	// *apierror.ProviderError-wrapped errors.
	Generate(ctx context.Context, prompt string, opts models.GenerationOptions) (string, error)

	// CheckHealth is a short, bounded probe. It must not mutate the
	// ledger and must return quickly even when the backend is down.
	CheckHealth(ctx context.Context) bool
}
