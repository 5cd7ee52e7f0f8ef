package llm

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Totals is the usage of one purpose.
type Totals struct {
	Requests     int
	Failures     int
	InputTokens  int
	OutputTokens int

	// CostUSD leaves out models missing from the price table.
	CostUSD float64
}

// Meter logs every request with its session and purpose, and adds its
// usage to per-purpose totals.
type Meter struct {
	inner    Provider
	provider string
	log      *zap.Logger

	mu     sync.Mutex
	totals map[Purpose]Totals
}

// WithMeter wraps p. provider names it in log lines.
func WithMeter(p Provider, provider string, log *zap.Logger) *Meter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Meter{inner: p, provider: provider, log: log.Named("llm"), totals: make(map[Purpose]Totals)}
}

func (m *Meter) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := m.inner.Generate(ctx, req)

	fields := []zap.Field{
		zap.String("provider", m.provider),
		zap.Stringer("purpose", req.Purpose),
		zap.Duration("latency", time.Since(start)),
	}
	if id := SessionFrom(ctx); id != "" {
		fields = append(fields, zap.String("session_id", id))
	}

	m.mu.Lock()
	t := m.totals[req.Purpose]
	t.Requests++
	if err != nil {
		t.Failures++
	} else {
		t.InputTokens += resp.Usage.InputTokens
		t.OutputTokens += resp.Usage.OutputTokens
		if cost, ok := m.cost(resp); ok {
			t.CostUSD += cost
			fields = append(fields, zap.Float64("cost_usd", cost))
		}
	}
	m.totals[req.Purpose] = t
	m.mu.Unlock()

	if err != nil {
		m.log.Warn("llm request failed", append(fields, zap.Error(err))...)
		return nil, err
	}
	m.log.Debug("llm request", append(fields,
		zap.String("model", resp.Model),
		zap.Int("input_tokens", resp.Usage.InputTokens),
		zap.Int("output_tokens", resp.Usage.OutputTokens),
		zap.String("stop", string(resp.Stop)))...)
	return resp, nil
}

// cost prices resp by the model that answered, falling back to the model
// that was asked for, since vendors often answer with a dated variant.
func (m *Meter) cost(resp *Response) (float64, bool) {
	if c, ok := costUSD(resp.Model, resp.Usage); ok {
		return c, true
	}
	return costUSD(m.inner.ModelID(), resp.Usage)
}

func (m *Meter) ModelID() string { return m.inner.ModelID() }

// Usage returns a copy of the totals by purpose.
func (m *Meter) Usage() map[Purpose]Totals {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[Purpose]Totals, len(m.totals))
	for p, t := range m.totals {
		out[p] = t
	}
	return out
}
