package config

import (
	"strings"
	"time"

	"github.com/AliZeynalov/ai-router-facade/internal/apierror"
	"github.com/AliZeynalov/ai-router-facade/internal/provider"
)

// BuildAdapter constructs a concrete provider.Adapter from one
// Providers.<name> config section, per spec.md §6's "one section per
// adapter" requirement.
func BuildAdapter(name string, sec AdapterSection, costPerToken float64) (provider.Adapter, error) {
	timeout := 30 * time.Second
	if sec.Timeout != "" {
		parsed, err := time.ParseDuration(sec.Timeout)
		if err != nil {
			return nil, apierror.NewConfigurationError("Providers.%s.Timeout: %v", name, err)
		}
		timeout = parsed
	}

	switch strings.ToLower(sec.Kind) {
	case "openai":
		return provider.NewOpenAIStyleAdapter(provider.OpenAIStyleConfig{
			NameValue:   name,
			PriorityVal: sec.Priority,
			BaseURL:     sec.BaseUrl,
			Model:       sec.Model,
			APIKey:      sec.ApiKey,
			MaxTokens:   sec.MaxTokens,
			Timeout:     timeout,
			CostPerTok:  costPerToken,
		}), nil
	case "anthropic":
		return provider.NewAnthropicStyleAdapter(provider.AnthropicStyleConfig{
			NameValue:   name,
			PriorityVal: sec.Priority,
			BaseURL:     sec.BaseUrl,
			Model:       sec.Model,
			APIKey:      sec.ApiKey,
			MaxTokens:   sec.MaxTokens,
			Timeout:     timeout,
			CostPerTok:  costPerToken,
		}), nil
	case "local":
		return provider.NewLocalFallbackAdapter(provider.LocalFallbackConfig{
			NameValue:   name,
			PriorityVal: sec.Priority,
			BaseURL:     sec.BaseUrl,
			Model:       sec.Model,
			Timeout:     timeout,
		}), nil
	default:
		return nil, apierror.NewConfigurationError("Providers.%s: unknown Kind %q", name, sec.Kind)
	}
}
