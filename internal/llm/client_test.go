package llm

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		wantModel string
		wantErr   bool
	}{
		{"anthropic default model", Config{Provider: ProviderAnthropic, ProviderConfig: ProviderConfig{APIKey: "k"}}, "claude-haiku-4-5-20251001", false},
		{"anthropic friendly name", Config{Provider: ProviderAnthropic, ProviderConfig: ProviderConfig{APIKey: "k", Model: "claude-sonnet"}}, "claude-sonnet-4-20250514", false},
		{"openai", Config{Provider: ProviderOpenAI, ProviderConfig: ProviderConfig{APIKey: "k"}}, "gpt-4o-mini", false},
		{"openai explicit model", Config{Provider: ProviderOpenAI, ProviderConfig: ProviderConfig{APIKey: "k", Model: "gpt-4o"}}, "gpt-4o", false},
		{"gemini", Config{Provider: ProviderGemini, ProviderConfig: ProviderConfig{APIKey: "k"}}, "gemini-2.0-flash", false},
		{"openrouter", Config{Provider: ProviderOpenRouter, ProviderConfig: ProviderConfig{APIKey: "k"}}, "google/gemini-2.0-flash-exp", false},
		{"mock", Config{Provider: ProviderMock}, "mock", false},
		{"missing key", Config{Provider: ProviderOpenAI}, "", true},
		{"unknown provider", Config{Provider: "llama", ProviderConfig: ProviderConfig{APIKey: "k"}}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			cfg.Retry = DefaultRetryConfig()
			cfg.Timeout = time.Second

			c, err := NewClient(context.Background(), cfg, zap.NewNop())
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, c)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantModel, c.ModelID())
		})
	}
}

func TestNewClientDisabled(t *testing.T) {
	c, err := NewClient(context.Background(), DefaultConfig(), zap.NewNop())
	assert.ErrorIs(t, err, ErrDisabled)
	assert.Nil(t, c)
}

func TestClientLogUsage(t *testing.T) {
	c, err := NewClient(context.Background(), Config{Provider: ProviderMock}, zap.NewNop())
	require.NoError(t, err)

	// The mock provider has no script, so every call fails.
	ctx := WithSession(context.Background(), "sess-7")
	_, err = c.Generate(ctx, Request{Purpose: PurposeQuestionGen, Prompt: "Grade: 1"})
	kind, _ := KindOf(err)
	assert.Equal(t, KindUnavailable, kind)
	c.Generate(ctx, Request{Purpose: PurposeHint, Prompt: "1 + 1"})
	c.Generate(ctx, Request{Purpose: PurposeHint, Prompt: "2 + 2"})

	core, logs := observer.New(zapcore.InfoLevel)
	c.LogUsage(zap.New(core))

	entries := logs.FilterMessage("llm usage").All()
	require.Len(t, entries, 2)
	assert.Equal(t, "hint", entries[0].ContextMap()["purpose"])
	assert.Equal(t, int64(2), entries[0].ContextMap()["requests"])
	assert.Equal(t, int64(2), entries[0].ContextMap()["failures"])
	assert.Equal(t, "question-gen", entries[1].ContextMap()["purpose"])
	assert.Equal(t, ProviderMock, entries[1].ContextMap()["provider"])
}

// slowProvider blocks until ctx is done.
type slowProvider struct{}

func (slowProvider) Generate(ctx context.Context, _ Request) (*Response, error) {
	<-ctx.Done()
	return nil, &Error{Kind: KindUnavailable, Provider: "slow", Err: ctx.Err()}
}

func (slowProvider) ModelID() string { return "slow" }

func TestWithTimeout(t *testing.T) {
	p := WithTimeout(slowProvider{}, 20*time.Millisecond)

	start := time.Now()
	_, err := p.Generate(context.Background(), Request{Prompt: "q"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, "slow", p.ModelID())

	var s slowProvider
	assert.Equal(t, Provider(s), WithTimeout(s, 0))
}

func TestMockProvider(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"hint":"Make a ten first."}`)},
		MockResponse{Content: json.RawMessage(`{"tip":"wrong shape"}`)},
	)
	ctx := WithSession(context.Background(), "sess-1")

	resp, err := mock.Generate(ctx, Request{Purpose: PurposeHint, Prompt: "8 + 5", Schema: hintSchema()})
	require.NoError(t, err)
	var out struct{ Hint string }
	require.NoError(t, resp.Decode(&out))
	assert.Equal(t, "Make a ten first.", out.Hint)

	_, err = mock.Generate(ctx, Request{Purpose: PurposeHint, Prompt: "8 + 6", Schema: hintSchema()})
	kind, _ := KindOf(err)
	assert.Equal(t, KindInvalidResponse, kind)

	_, err = mock.Generate(context.Background(), Request{Purpose: PurposeQuestionGen})
	kind, _ = KindOf(err)
	assert.Equal(t, KindUnavailable, kind)

	calls := mock.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, "sess-1", calls[0].SessionID)
	assert.Equal(t, "8 + 5", calls[0].Prompt)
	assert.Equal(t, PurposeHint, calls[1].Purpose)
	assert.Equal(t, "", calls[2].SessionID)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"disabled", Config{}, false},
		{"mock", Config{Provider: ProviderMock}, false},
		{"anthropic with key", Config{Provider: ProviderAnthropic, ProviderConfig: ProviderConfig{APIKey: "k"}}, false},
		{"gemini without key", Config{Provider: ProviderGemini}, true},
		{"openrouter without key", Config{Provider: ProviderOpenRouter}, true},
		{"unknown", Config{Provider: "ollama"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDiscoverConfig(t *testing.T) {
	for _, env := range []string{"GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY"} {
		t.Setenv(env, "")
	}
	_, ok := DiscoverConfig()
	assert.False(t, ok)

	t.Setenv("ANTHROPIC_API_KEY", "a-key")
	t.Setenv("OPENROUTER_API_KEY", "or-key")
	cfg, ok := DiscoverConfig()
	require.True(t, ok)
	assert.Equal(t, ProviderAnthropic, cfg.Provider)
	assert.Equal(t, "a-key", cfg.APIKey)
	assert.Equal(t, DefaultRetryConfig(), cfg.Retry)

	t.Setenv("OPENAI_API_KEY", "o-key")
	cfg, _ = DiscoverConfig()
	assert.Equal(t, ProviderOpenAI, cfg.Provider)
}

func TestPurposeString(t *testing.T) {
	assert.Equal(t, "unknown", PurposeUnknown.String())
	assert.Equal(t, "hint", PurposeHint.String())
	assert.Equal(t, "question-gen", PurposeQuestionGen.String())
}
