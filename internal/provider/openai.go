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

// OpenAIStyleConfig scopes the construction of an OpenAIStyleAdapter.
type OpenAIStyleConfig struct {
	NameValue    string
	PriorityVal  int
	BaseURL      string
	Model        string
	APIKey       string
	MaxTokens    int
	Timeout      time.Duration
	CostPerTok   float64
}

// OpenAIStyleAdapter speaks an OpenAI-compatible /v1/chat/completions
// JSON protocol — the same shape the teacher's cmd/mock-provider emits,
// generalized here to carry a single prompt instead of a message list.
type OpenAIStyleAdapter struct {
	cfg    OpenAIStyleConfig
	client *http.Client
}

// NewOpenAIStyleAdapter constructs an adapter bound to one backend.
func NewOpenAIStyleAdapter(cfg OpenAIStyleConfig) *OpenAIStyleAdapter {
	return &OpenAIStyleAdapter{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

func (a *OpenAIStyleAdapter) Name() string          { return a.cfg.NameValue }
func (a *OpenAIStyleAdapter) Priority() int          { return a.cfg.PriorityVal }
func (a *OpenAIStyleAdapter) CostPerToken() float64  { return a.cfg.CostPerTok }

type openAIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatRequest struct {
	Model       string               `json:"model"`
	Messages    []openAIChatMessage  `json:"messages"`
	Temperature float64              `json:"temperature,omitempty"`
	MaxTokens   int                  `json:"max_tokens,omitempty"`
	Stop        []string             `json:"stop,omitempty"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate implements Adapter.
func (a *OpenAIStyleAdapter) Generate(ctx context.Context, prompt string, opts models.GenerationOptions) (string, error) {
	model := opts.Model
	if model == "" || model == models.DefaultModel {
		model = a.cfg.Model
	}
	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = a.cfg.MaxTokens
	}

	body := openAIChatRequest{
		Model:       model,
		Messages:    []openAIChatMessage{{Role: "user", Content: prompt}},
		Temperature: opts.Temperature,
		MaxTokens:   maxTokens,
		Stop:        opts.StopSequences,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", &apierror.ProviderError{Provider: a.cfg.NameValue, Message: "marshal request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.BaseURL+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", &apierror.ProviderError{Provider: a.cfg.NameValue, Message: "build request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if a.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return "", &apierror.ProviderError{Provider: a.cfg.NameValue, Message: "transport error", Cause: err}
	}
	defer resp.Body.Close()

	var parsed openAIChatResponse
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
	if len(parsed.Choices) == 0 {
		return "", &apierror.ProviderError{Provider: a.cfg.NameValue, Message: "empty choices in response"}
	}
	return parsed.Choices[0].Message.Content, nil
}

// CheckHealth implements Adapter with a bounded GET /health probe.
func (a *OpenAIStyleAdapter) CheckHealth(ctx context.Context) bool {
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
