// Package config loads mathsprint settings from an optional YAML file, a
// .env file and MATHSPRINT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/abhisek/mathsprint/internal/cache"
	"github.com/abhisek/mathsprint/internal/client"
	"github.com/abhisek/mathsprint/internal/llm"
	"github.com/abhisek/mathsprint/internal/session"
	"github.com/abhisek/mathsprint/internal/store"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "MATHSPRINT"

// Question sources accepted in game.question_source.
const (
	SourceLocal  = "local"
	SourceLLM    = "llm"
	SourceRemote = "remote"
)

// Config holds application configuration.
type Config struct {
	Env    string `mapstructure:"env"` // development or production
	Server Server `mapstructure:"server"`
	Store  Store  `mapstructure:"store"`
	Redis  Redis  `mapstructure:"redis"`
	LLM    LLM    `mapstructure:"llm"`
	Game   Game   `mapstructure:"game"`
	Client Client `mapstructure:"client"`
}

// Server configures `mathsprint serve`.
type Server struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"` // empty allows any origin

	// MaxIdleTimeouts ends a server session after this many unanswered
	// questions in a row. Zero keeps idle sessions alive.
	MaxIdleTimeouts int `mapstructure:"max_idle_timeouts"`
}

// Store selects the answer store.
type Store struct {
	Driver   string `mapstructure:"driver"` // memory, sqlite, mysql, postgres or mongo
	DSN      string `mapstructure:"dsn"`
	Path     string `mapstructure:"path"`
	Database string `mapstructure:"database"`
}

// Redis configures the projection cache. An empty Addr disables it.
type Redis struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// LLM selects the provider used for hints and generated questions.
type LLM struct {
	Provider string        `mapstructure:"provider"`
	APIKey   string        `mapstructure:"api_key"`
	Model    string        `mapstructure:"model"`
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// Game tunes the session state machine.
type Game struct {
	NextQuestionDelay time.Duration `mapstructure:"next_question_delay"`
	TickInterval      time.Duration `mapstructure:"tick_interval"`
	QuestionSource    string        `mapstructure:"question_source"`
}

// Client points `mathsprint play` and `mathsprint stats` at a server.
type Client struct {
	ServerURL string        `mapstructure:"server_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.cors_origins", []string{})
	v.SetDefault("server.max_idle_timeouts", 3)

	v.SetDefault("store.driver", store.DriverSQLite)
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.path", "")
	v.SetDefault("store.database", "mathsprint")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", "5m")

	v.SetDefault("llm.provider", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.timeout", "15s")

	v.SetDefault("game.next_question_delay", "1s")
	v.SetDefault("game.tick_interval", "1s")
	v.SetDefault("game.question_source", SourceLocal)

	v.SetDefault("client.server_url", "")
	v.SetDefault("client.timeout", "10s")
}

// Load reads configuration. path names an explicit config file; when empty
// mathsprint.yaml is looked up in the working directory and ignored if
// absent.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	} else {
		v.SetConfigName("mathsprint")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error loading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Game.QuestionSource {
	case SourceLocal, SourceLLM:
	case SourceRemote:
		if c.Client.ServerURL == "" {
			return fmt.Errorf("client.server_url is required for the %s question source", SourceRemote)
		}
	default:
		return fmt.Errorf("unknown question source: %q", c.Game.QuestionSource)
	}
	if c.Game.TickInterval <= 0 {
		return fmt.Errorf("game.tick_interval must be positive")
	}
	if c.Game.NextQuestionDelay < 0 {
		return fmt.Errorf("game.next_question_delay must not be negative")
	}
	if c.Server.MaxIdleTimeouts < 0 {
		return fmt.Errorf("server.max_idle_timeouts must not be negative")
	}
	return c.LLMConfig().Validate()
}

// Production reports whether the production environment is selected.
func (c *Config) Production() bool {
	return c.Env == "production"
}

// StoreConfig returns the answer store settings.
func (c *Config) StoreConfig() store.Config {
	return store.Config{
		Driver:   c.Store.Driver,
		DSN:      c.Store.DSN,
		Path:     c.Store.Path,
		Database: c.Store.Database,
	}
}

// RedisConfig returns the projection cache settings and whether the cache
// is enabled.
func (c *Config) RedisConfig() (cache.RedisConfig, bool) {
	return cache.RedisConfig{
		Addr:     c.Redis.Addr,
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
		TTL:      c.Redis.TTL,
	}, c.Redis.Addr != ""
}

// LLMConfig returns the provider settings. With no provider configured the
// standard API key variables are probed.
func (c *Config) LLMConfig() llm.Config {
	if c.LLM.Provider == llm.ProviderNone {
		if discovered, ok := llm.DiscoverConfig(); ok {
			if c.LLM.Timeout > 0 {
				discovered.Timeout = c.LLM.Timeout
			}
			return discovered
		}
		return llm.DefaultConfig()
	}

	cfg := llm.DefaultConfig()
	cfg.Provider = c.LLM.Provider
	cfg.APIKey = c.LLM.APIKey
	cfg.Model = c.LLM.Model
	cfg.BaseURL = c.LLM.BaseURL
	if c.LLM.Timeout > 0 {
		cfg.Timeout = c.LLM.Timeout
	}
	return cfg
}

// SessionConfig returns the state machine defaults for new sessions.
func (c *Config) SessionConfig() session.Config {
	cfg := session.DefaultConfig()
	cfg.NextQuestionDelay = c.Game.NextQuestionDelay
	cfg.TickInterval = c.Game.TickInterval
	return cfg
}

// ServerSessionConfig returns the defaults for sessions hosted by
// `mathsprint serve`, which also end once their player goes idle.
func (c *Config) ServerSessionConfig() session.Config {
	cfg := c.SessionConfig()
	cfg.MaxIdleTimeouts = c.Server.MaxIdleTimeouts
	return cfg
}

// ClientConfig returns the server client settings.
func (c *Config) ClientConfig() client.Config {
	return client.Config{ServerURL: c.Client.ServerURL, Timeout: c.Client.Timeout}
}
