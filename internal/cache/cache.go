// Package cache stores the leaderboard and dashboard projections between
// appends. Every implementation treats a miss as ErrMiss.
package cache

import (
	"context"
	"errors"

	"github.com/abhisek/mathsprint/internal/analytics"
)

// ErrMiss is returned when a projection is not cached.
var ErrMiss = errors.New("cache: miss")

// ProjectionCache caches read models derived from the answer store.
type ProjectionCache interface {
	Leaderboard(ctx context.Context) ([]analytics.LeaderboardEntry, error)
	SetLeaderboard(ctx context.Context, entries []analytics.LeaderboardEntry) error

	StudentStats(ctx context.Context) ([]analytics.StudentStats, error)
	SetStudentStats(ctx context.Context, stats []analytics.StudentStats) error

	// Invalidate drops every cached projection.
	Invalidate(ctx context.Context) error

	Close() error
}

const (
	leaderboardKey  = "leaderboard"
	studentStatsKey = "students"
)

// Nop never caches anything.
type Nop struct{}

func (Nop) Leaderboard(context.Context) ([]analytics.LeaderboardEntry, error)  { return nil, ErrMiss }
func (Nop) SetLeaderboard(context.Context, []analytics.LeaderboardEntry) error { return nil }
func (Nop) StudentStats(context.Context) ([]analytics.StudentStats, error)     { return nil, ErrMiss }
func (Nop) SetStudentStats(context.Context, []analytics.StudentStats) error    { return nil }
func (Nop) Invalidate(context.Context) error                                   { return nil }
func (Nop) Close() error                                                       { return nil }
