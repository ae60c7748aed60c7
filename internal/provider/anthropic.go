package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/AliZeynalov/ai-router-facade/internal/apierror"
	"github.com/AliZeynalov/ai-router-facade/internal/models"
)

// AnthropicStyleConfig scopes the construction of an
// AnthropicStyleAdapter.
type AnthropicStyleConfig struct {
	NameValue   string
	PriorityVal int
	BaseURL     string
	Model       string
	APIKey      string
	MaxTokens   int
	Timeout     time.Duration
	CostPerTok  float64
}

// AnthropicStyleAdapter speaks a Messages-API-shaped JSON protocol
// ({model, max_tokens, messages} in, {content:[{text}]} out) —
// generalized from the same translation pattern as OpenAIStyleAdapter
// to a second wire shape present in the pack's provider adapters.
type AnthropicStyleAdapter struct {
	cfg    AnthropicStyleConfig
	client *http.Client
}

// NewAnthropicStyleAdapter constructs an adapter bound to one backend.
func NewAnthropicStyleAdapter(cfg AnthropicStyleConfig) *AnthropicStyleAdapter {
	return &AnthropicStyleAdapter{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

func (a *AnthropicStyleAdapter) Name() string         { return a.cfg.NameValue }
func (a *AnthropicStyleAdapter) Priority() int         { return a.cfg.PriorityVal }
func (a *AnthropicStyleAdapter) CostPerToken() float64 { return a.cfg.CostPerTok }

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature float64            `json:"temperature,omitempty"`
	StopSeqs    []string           `json:"stop_sequences,omitempty"`
}

type anthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate implements Adapter.
func (a *AnthropicStyleAdapter) Generate(ctx context.Context, prompt string, opts models.GenerationOptions) (string, error) {
	model := opts.Model
	if model == "" || model == models.DefaultModel {
		model = a.cfg.Model
	}
	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = a.cfg.MaxTokens
	}

	body := anthropicRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		Messages:    []anthropicMessage{{Role: "user", Content: prompt}},
		Temperature: opts.Temperature,
		StopSeqs:    opts.StopSequences,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", &apierror.ProviderError{Provider: a.cfg.NameValue, Message: "marshal request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.BaseURL+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return "", &apierror.ProviderError{Provider: a.cfg.NameValue, Message: "build request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("anthropic-version", "2023-06-01")
	if a.cfg.APIKey != "" {
		req.Header.Set("x-api-key", a.cfg.APIKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return "", &apierror.ProviderError{Provider: a.cfg.NameValue, Message: "transport error", Cause: err}
	}
	defer resp.Body.Close()

	var parsed anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", &apierror.ProviderError{Provider: a.cfg.NameValue, Message: "decode response", Cause: err}
	}

	if resp.StatusCode != http.StatusOK {
		msg := fmt.Sprintf("backend returned status %d", resp.StatusCode)
		if parsed.Error != nil && parsed.Error.Message != "" {
			msg = parsed.Error.Message
		}
		return "", &apierror.ProviderError{Provider: a.cfg.NameValue, Message: msg}
	}
	if len(parsed.Content) == 0 {
		return "", &apierror.ProviderError{Provider: a.cfg.NameValue, Message: "empty content in response"}
	}
	return parsed.Content[0].Text, nil
}

// CheckHealth implements Adapter with a bounded GET /health probe.
func (a *AnthropicStyleAdapter) CheckHealth(ctx context.Context) bool {
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
