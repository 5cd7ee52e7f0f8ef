// Package dashboard serves the leaderboard and teacher dashboard read
// models over the answer store.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/abhisek/mathsprint/internal/analytics"
	"github.com/abhisek/mathsprint/internal/cache"
	"github.com/abhisek/mathsprint/internal/store"
)

// Service records answers and answers read-model queries. Reads never
// fail: a backing error yields an empty result.
type Service struct {
	repo  store.AnswerRepo
	cache cache.ProjectionCache
	log   *zap.Logger

	// generation advances on every append so a projection computed from
	// an older record set is not cached.
	generation atomic.Uint64
}

// NewService creates a Service. A nil cache disables caching.
func NewService(repo store.AnswerRepo, c cache.ProjectionCache, log *zap.Logger) *Service {
	if c == nil {
		c = cache.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, cache: c, log: log.Named("dashboard")}
}

// Record appends rec and invalidates cached projections.
func (s *Service) Record(ctx context.Context, rec store.AnswerRecord) error {
	if _, err := s.repo.Append(ctx, rec); err != nil {
		return fmt.Errorf("record answer: %w", err)
	}
	s.generation.Add(1)
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn("failed to invalidate projections", zap.Error(err))
	}
	s.log.Debug("answer recorded",
		zap.String("session_id", rec.SessionID),
		zap.Bool("correct", rec.IsCorrect))
	return nil
}

// Leaderboard returns every session ranked by score.
func (s *Service) Leaderboard(ctx context.Context) []analytics.LeaderboardEntry {
	return project(ctx, s, "leaderboard", s.cache.Leaderboard, s.cache.SetLeaderboard, analytics.Rank)
}

// StudentStats returns the dashboard statistics of every session.
func (s *Service) StudentStats(ctx context.Context) []analytics.StudentStats {
	return project(ctx, s, "student stats", s.cache.StudentStats, s.cache.SetStudentStats, analytics.StudentStatsFor)
}

// History returns the answers of one session in submission order.
func (s *Service) History(ctx context.Context, sessionID string) ([]store.AnswerRecord, error) {
	return s.repo.History(ctx, sessionID)
}

func project[T any](
	ctx context.Context,
	s *Service,
	name string,
	get func(context.Context) ([]T, error),
	set func(context.Context, []T) error,
	compute func([]store.SessionHistory) []T,
) []T {
	cached, err := get(ctx)
	if err == nil {
		return cached
	}
	if !errors.Is(err, cache.ErrMiss) {
		s.log.Warn("projection cache read failed", zap.String("projection", name), zap.Error(err))
	}

	gen := s.generation.Load()
	sessions, err := s.repo.Sessions(ctx)
	if err != nil {
		s.log.Error("failed to load sessions", zap.String("projection", name), zap.Error(err))
		return []T{}
	}
	out := compute(sessions)

	if s.generation.Load() != gen {
		return out
	}
	if err := set(ctx, out); err != nil {
		s.log.Warn("projection cache write failed", zap.String("projection", name), zap.Error(err))
		return out
	}
	// A Record that landed between the check and the write may have
	// invalidated before the write. Drop the stale entry.
	if s.generation.Load() != gen {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.log.Warn("failed to invalidate projections", zap.Error(err))
		}
	}
	return out
}
