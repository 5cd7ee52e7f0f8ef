package llm

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"go.uber.org/zap"
)

// ErrDisabled is returned by NewClient when no provider is configured.
var ErrDisabled = errors.New("llm: no provider configured")

// Client is the provider stack built from a Config. Calls pass through a
// timeout, then retries, then the meter, then the vendor SDK.
type Client struct {
	Provider
	meter *Meter
	name  string
}

// NewClient builds the stack for cfg.
func NewClient(ctx context.Context, cfg Config, log *zap.Logger) (*Client, error) {
	if !cfg.Enabled() {
		return nil, ErrDisabled
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pc := cfg.ProviderConfig
	pc.Model = cfg.ResolvedModel()

	var (
		base Provider
		err  error
	)
	switch cfg.Provider {
	case ProviderAnthropic:
		base, err = NewAnthropicProvider(pc)
	case ProviderOpenAI:
		base, err = NewOpenAIProvider(pc)
	case ProviderGemini:
		base, err = NewGeminiProvider(ctx, pc)
	case ProviderOpenRouter:
		base, err = NewOpenRouterProvider(pc)
	case ProviderMock:
		meter := WithMeter(NewMockProvider(), ProviderMock, log)
		return &Client{Provider: meter, meter: meter, name: ProviderMock}, nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	meter := WithMeter(base, cfg.Provider, log)
	return &Client{
		Provider: WithTimeout(WithRetry(meter, cfg.Retry), cfg.Timeout),
		meter:    meter,
		name:     cfg.Provider,
	}, nil
}

// Usage returns the totals of every request made so far, by purpose.
func (c *Client) Usage() map[Purpose]Totals {
	return c.meter.Usage()
}

// LogUsage writes one line per purpose that saw requests.
func (c *Client) LogUsage(log *zap.Logger) {
	usage := c.Usage()
	for _, p := range slices.Sorted(maps.Keys(usage)) {
		t := usage[p]
		log.Info("llm usage",
			zap.String("provider", c.name),
			zap.String("model", c.ModelID()),
			zap.Stringer("purpose", p),
			zap.Int("requests", t.Requests),
			zap.Int("failures", t.Failures),
			zap.Int("input_tokens", t.InputTokens),
			zap.Int("output_tokens", t.OutputTokens),
			zap.Float64("cost_usd", t.CostUSD))
	}
}

// TimeoutProvider bounds each Generate call, retries included.
type TimeoutProvider struct {
	inner   Provider
	timeout time.Duration
}

// WithTimeout wraps p so each call is cancelled after d. A zero d returns p.
func WithTimeout(p Provider, d time.Duration) Provider {
	if d <= 0 {
		return p
	}
	return &TimeoutProvider{inner: p, timeout: d}
}

func (t *TimeoutProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.inner.Generate(ctx, req)
}

func (t *TimeoutProvider) ModelID() string { return t.inner.ModelID() }
