package llm

import (
	"fmt"
	"os"
	"time"
)

// Provider names accepted in Config.Provider.
const (
	ProviderNone       = ""
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"
)

// defaultModels is the friendly name used when Config.Model is empty.
// Hints and questions are short, so the small tier of each vendor is enough.
var defaultModels = map[string]string{
	ProviderAnthropic:  "claude-haiku",
	ProviderOpenAI:     "gpt-4o-mini",
	ProviderGemini:     "gemini-flash",
	ProviderOpenRouter: "google/gemini-2.0-flash-exp",
}

// friendlyModels maps the short names accepted in llm.model to model IDs.
// Anything else is sent to the provider as written.
var friendlyModels = map[string]map[string]string{
	ProviderAnthropic: {
		"claude-haiku":  "claude-haiku-4-5-20251001",
		"claude-sonnet": "claude-sonnet-4-20250514",
	},
	ProviderGemini: {
		"gemini-flash": "gemini-2.0-flash",
		"gemini-pro":   "gemini-2.5-pro",
	},
}

// Config holds LLM provider configuration. An empty Provider disables the
// LLM entirely; callers fall back to canned content.
type Config struct {
	Provider string
	ProviderConfig

	Retry RetryConfig

	// Timeout is the maximum duration for a single LLM request
	// (including retries).
	Timeout time.Duration
}

// ProviderConfig holds the settings every provider understands.
type ProviderConfig struct {
	APIKey string

	// Model is a friendly name ("claude-haiku") or a provider model ID.
	Model string

	// BaseURL overrides the provider endpoint. Optional.
	BaseURL string
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64

	// HintAttempts caps MaxAttempts for hint requests, which a player is
	// waiting on. Zero applies MaxAttempts.
	HintAttempts int
}

// DefaultRetryConfig returns the standard backoff policy.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialWait:  1 * time.Second,
		MaxWait:      10 * time.Second,
		Multiplier:   2.0,
		HintAttempts: 2,
	}
}

// DefaultConfig returns a disabled Config with standard retry and timeout.
func DefaultConfig() Config {
	return Config{
		Retry:   DefaultRetryConfig(),
		Timeout: 15 * time.Second,
	}
}

// DiscoverConfig probes standard API key env vars in priority order
// (Gemini → OpenAI → Anthropic → OpenRouter) and returns a Config for the
// first provider whose key is found. Returns (Config{}, false) if none found.
func DiscoverConfig() (Config, bool) {
	probes := []struct{ env, provider string }{
		{"GEMINI_API_KEY", ProviderGemini},
		{"OPENAI_API_KEY", ProviderOpenAI},
		{"ANTHROPIC_API_KEY", ProviderAnthropic},
		{"OPENROUTER_API_KEY", ProviderOpenRouter},
	}
	for _, p := range probes {
		if k := os.Getenv(p.env); k != "" {
			cfg := DefaultConfig()
			cfg.Provider = p.provider
			cfg.APIKey = k
			return cfg, true
		}
	}
	return Config{}, false
}

// Enabled reports whether a provider is configured.
func (c Config) Enabled() bool {
	return c.Provider != ProviderNone
}

// ResolvedModel returns the model ID requests go to: the configured model
// or the provider default, with friendly names expanded.
func (c Config) ResolvedModel() string {
	name := c.Model
	if name == "" {
		name = defaultModels[c.Provider]
	}
	if id, ok := friendlyModels[c.Provider][name]; ok {
		return id
	}
	return name
}

// Validate checks that the selected provider has its required API key set.
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderAnthropic, ProviderOpenAI, ProviderGemini, ProviderOpenRouter:
		if c.APIKey == "" {
			return fmt.Errorf("llm.api_key is required for the %s provider", c.Provider)
		}
	case ProviderNone, ProviderMock:
		// No API key needed.
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	return nil
}
