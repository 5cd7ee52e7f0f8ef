package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/mathsprint/internal/cache"
	"github.com/abhisek/mathsprint/internal/client"
	"github.com/abhisek/mathsprint/internal/config"
	"github.com/abhisek/mathsprint/internal/dashboard"
	"github.com/abhisek/mathsprint/internal/hints"
	"github.com/abhisek/mathsprint/internal/llm"
	"github.com/abhisek/mathsprint/internal/problemgen"
	"github.com/abhisek/mathsprint/internal/screens/play"
	"github.com/abhisek/mathsprint/internal/session"
	"github.com/abhisek/mathsprint/internal/store"
	"github.com/abhisek/mathsprint/internal/worker"
)

const (
	poolWorkers = 4
	poolBuffer  = 256
	drainWait   = 5 * time.Second
)

// backend is the local stack shared by serve, play and stats.
type backend struct {
	repo      store.AnswerRepo
	cache     cache.ProjectionCache
	dashboard *dashboard.Service
	hints     *hints.Service
	questions problemgen.Source
	pool      *worker.Pool
	llm       *llm.Client // nil when disabled
	log       *zap.Logger
}

// openBackend opens the store and cache and builds the question and hint
// sources. The LLM provider is optional; without it hints are canned and
// questions come from templates.
func openBackend(ctx context.Context, cfg *config.Config, log *zap.Logger) (*backend, error) {
	repo, err := store.Open(ctx, cfg.StoreConfig())
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	b := &backend{repo: repo, log: log}
	if rc, ok := cfg.RedisConfig(); ok {
		rcache, err := cache.NewRedisCache(ctx, rc)
		if err != nil {
			repo.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		b.cache = rcache
	} else {
		b.cache = cache.NewMemory(cfg.Redis.TTL)
	}

	var provider llm.Provider
	lc, err := llm.NewClient(ctx, cfg.LLMConfig(), log)
	switch {
	case errors.Is(err, llm.ErrDisabled):
		log.Info("no LLM provider configured, using canned hints")
	case err != nil:
		log.Warn("LLM provider unavailable, using canned hints", zap.Error(err))
	default:
		b.llm, provider = lc, lc
	}

	b.hints = hints.NewService(provider, hints.DefaultConfig(), log)
	b.dashboard = dashboard.NewService(repo, b.cache, log)
	b.questions, err = questionSource(cfg, provider, b.hints, log)
	if err != nil {
		b.cache.Close()
		repo.Close()
		return nil, err
	}
	b.pool = worker.NewPool(poolWorkers, poolBuffer, log)
	return b, nil
}

// questionSource picks the source named by game.question_source. Every
// non-local source falls back to the template generator.
func questionSource(cfg *config.Config, provider llm.Provider, h *hints.Service, log *zap.Logger) (problemgen.Source, error) {
	gen := problemgen.New()
	switch cfg.Game.QuestionSource {
	case config.SourceLLM:
		if provider == nil {
			log.Warn("llm question source needs a provider, using templates")
			return problemgen.NewLocalSource(gen), nil
		}
		return problemgen.NewFallbackSource(problemgen.NewLLMSource(provider, problemgen.DefaultConfig()), gen, log), nil
	case config.SourceRemote:
		cl, err := client.New(cfg.ClientConfig(), log, client.WithFallbackHints(h))
		if err != nil {
			return nil, err
		}
		return problemgen.NewFallbackSource(cl, gen, log), nil
	default:
		return problemgen.NewLocalSource(gen), nil
	}
}

// sessionDeps returns the collaborators of sessions backed by b.
func (b *backend) sessionDeps() session.Deps {
	return session.Deps{
		Questions: b.questions,
		Recorder:  b.dashboard,
		Hints:     b.hints,
		Pool:      b.pool,
		Log:       b.log,
	}
}

// Close drains queued jobs, releases the store and cache, and logs LLM usage.
func (b *backend) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), drainWait)
	defer cancel()
	if err := b.pool.Close(ctx); err != nil {
		b.log.Warn("worker pool did not drain", zap.Error(err))
	}
	if err := b.cache.Close(); err != nil {
		b.log.Warn("failed to close cache", zap.Error(err))
	}
	if err := b.repo.Close(); err != nil {
		b.log.Warn("failed to close store", zap.Error(err))
	}
	if b.llm != nil {
		b.llm.LogUsage(b.log)
	}
}

// sessionFactory creates sessions for the TUI from the configured defaults.
func sessionFactory(cfg *config.Config, deps session.Deps) play.Factory {
	return func(grade int) (*session.Session, error) {
		sc := cfg.SessionConfig()
		sc.Grade = grade
		return session.New(sc, deps)
	}
}
