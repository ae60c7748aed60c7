package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/AliZeynalov/ai-router-facade/internal/apierror"
	"github.com/AliZeynalov/ai-router-facade/internal/models"
)

// LocalFallbackConfig scopes the construction of a LocalFallbackAdapter.
type LocalFallbackConfig struct {
	NameValue   string
	PriorityVal int
	BaseURL     string
	Model       string
	Timeout     time.Duration
}

// LocalFallbackAdapter speaks an Ollama-style /api/generate protocol.
// Its CostPerToken always reports zero; the router still charges it at
// the cost-per-token of its provider-limit configuration. Its place in
// the fail-over order is its configured priority, like any adapter.
type LocalFallbackAdapter struct {
	cfg    LocalFallbackConfig
	client *http.Client
}

// NewLocalFallbackAdapter constructs a local fallback adapter.
func NewLocalFallbackAdapter(cfg LocalFallbackConfig) *LocalFallbackAdapter {
	return &LocalFallbackAdapter{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

func (a *LocalFallbackAdapter) Name() string         { return a.cfg.NameValue }
func (a *LocalFallbackAdapter) Priority() int         { return a.cfg.PriorityVal }
func (a *LocalFallbackAdapter) CostPerToken() float64 { return 0 }

type localGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type localGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Generate implements Adapter.
func (a *LocalFallbackAdapter) Generate(ctx context.Context, prompt string, opts models.GenerationOptions) (string, error) {
	model := opts.Model
	if model == "" || model == models.DefaultModel {
		model = a.cfg.Model
	}

	payload, err := json.Marshal(localGenerateRequest{Model: model, Prompt: prompt, Stream: false})
	if err != nil {
		return "", &apierror.ProviderError{Provider: a.cfg.NameValue, Message: "marshal request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.BaseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", &apierror.ProviderError{Provider: a.cfg.NameValue, Message: "build request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", &apierror.ProviderError{Provider: a.cfg.NameValue, Message: "transport error", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &apierror.ProviderError{Provider: a.cfg.NameValue, Message: "local backend returned non-200 status"}
	}

	var parsed localGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", &apierror.ProviderError{Provider: a.cfg.NameValue, Message: "decode response", Cause: err}
	}
	return parsed.Response, nil
}

// CheckHealth implements Adapter with a bounded GET /health probe.
func (a *LocalFallbackAdapter) CheckHealth(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.cfg.BaseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
