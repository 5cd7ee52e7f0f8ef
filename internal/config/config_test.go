package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/mathsprint/internal/llm"
	"github.com/abhisek/mathsprint/internal/store"
)

// clearKeys blanks the provider keys DiscoverConfig probes.
func clearKeys(t *testing.T) {
	t.Helper()
	for _, k := range []string{"GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY"} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearKeys(t)
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.False(t, cfg.Production())
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Empty(t, cfg.Server.CORSOrigins)
	assert.Equal(t, 3, cfg.ServerSessionConfig().MaxIdleTimeouts)
	assert.Zero(t, cfg.SessionConfig().MaxIdleTimeouts)
	assert.Equal(t, store.DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, time.Second, cfg.Game.NextQuestionDelay)
	assert.Equal(t, time.Second, cfg.Game.TickInterval)
	assert.Equal(t, SourceLocal, cfg.Game.QuestionSource)

	_, enabled := cfg.RedisConfig()
	assert.False(t, enabled)
	assert.False(t, cfg.LLMConfig().Enabled())
}

func TestLoadFile(t *testing.T) {
	clearKeys(t)
	path := filepath.Join(t.TempDir(), "mathsprint.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
env: production
server:
  addr: ":9090"
  cors_origins: ["https://class.example"]
  max_idle_timeouts: 5
store:
  driver: postgres
  dsn: postgres://localhost/mathsprint
redis:
  addr: localhost:6379
  ttl: 1m
llm:
  provider: openai
  api_key: sk-test
  model: gpt-4o
game:
  next_question_delay: 500ms
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.Production())
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, []string{"https://class.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, store.Config{Driver: "postgres", DSN: "postgres://localhost/mathsprint", Database: "mathsprint"}, cfg.StoreConfig())

	rc, enabled := cfg.RedisConfig()
	assert.True(t, enabled)
	assert.Equal(t, time.Minute, rc.TTL)

	lc := cfg.LLMConfig()
	assert.Equal(t, llm.ProviderOpenAI, lc.Provider)
	assert.Equal(t, "sk-test", lc.APIKey)
	assert.Equal(t, "gpt-4o", lc.ResolvedModel())
	assert.Equal(t, 15*time.Second, lc.Timeout)

	sc := cfg.SessionConfig()
	assert.Equal(t, 500*time.Millisecond, sc.NextQuestionDelay)
	assert.Equal(t, time.Second, sc.TickInterval)
	assert.Equal(t, 5, cfg.ServerSessionConfig().MaxIdleTimeouts)
}

func TestEnvOverridesFile(t *testing.T) {
	clearKeys(t)
	path := filepath.Join(t.TempDir(), "mathsprint.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \":9090\"\n"), 0o600))

	t.Setenv("MATHSPRINT_SERVER_ADDR", ":7070")
	t.Setenv("MATHSPRINT_GAME_QUESTION_SOURCE", "remote")
	t.Setenv("MATHSPRINT_CLIENT_SERVER_URL", "http://localhost:7070")
	t.Setenv("MATHSPRINT_CLIENT_TIMEOUT", "3s")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, SourceRemote, cfg.Game.QuestionSource)
	assert.Equal(t, "http://localhost:7070", cfg.ClientConfig().ServerURL)
	assert.Equal(t, 3*time.Second, cfg.ClientConfig().Timeout)
}

func TestDiscoveredProvider(t *testing.T) {
	clearKeys(t)
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")
	t.Setenv("MATHSPRINT_LLM_TIMEOUT", "5s")

	cfg, err := Load("")
	require.NoError(t, err)
	lc := cfg.LLMConfig()
	assert.Equal(t, llm.ProviderAnthropic, lc.Provider)
	assert.Equal(t, "sk-ant", lc.APIKey)
	assert.Equal(t, 5*time.Second, lc.Timeout)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{Game: Game{TickInterval: time.Second, QuestionSource: SourceLocal}}
	}
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"local", func(*Config) {}, false},
		{"llm source", func(c *Config) { c.Game.QuestionSource = SourceLLM }, false},
		{"remote without server", func(c *Config) { c.Game.QuestionSource = SourceRemote }, true},
		{"remote with server", func(c *Config) {
			c.Game.QuestionSource = SourceRemote
			c.Client.ServerURL = "http://localhost:8080"
		}, false},
		{"unknown source", func(c *Config) { c.Game.QuestionSource = "carrier pigeon" }, true},
		{"zero tick", func(c *Config) { c.Game.TickInterval = 0 }, true},
		{"negative delay", func(c *Config) { c.Game.NextQuestionDelay = -time.Second }, true},
		{"negative idle limit", func(c *Config) { c.Server.MaxIdleTimeouts = -1 }, true},
		{"provider without key", func(c *Config) { c.LLM.Provider = llm.ProviderGemini }, true},
		{"unknown provider", func(c *Config) { c.LLM.Provider = "eliza" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearKeys(t)
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
