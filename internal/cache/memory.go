package cache

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/abhisek/mathsprint/internal/analytics"
)

type memoryEntry[T any] struct {
	value   []T
	expires time.Time
}

// Memory is an in-process ProjectionCache with the same TTL semantics as
// RedisCache.
type Memory struct {
	ttl time.Duration
	now func() time.Time

	mu          sync.Mutex
	leaderboard *memoryEntry[analytics.LeaderboardEntry]
	students    *memoryEntry[analytics.StudentStats]
}

// NewMemory creates a Memory cache. A zero ttl never expires entries.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{ttl: ttl, now: time.Now}
}

func (m *Memory) Leaderboard(context.Context) ([]analytics.LeaderboardEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return lookup(m.leaderboard, m.now())
}

func (m *Memory) SetLeaderboard(_ context.Context, entries []analytics.LeaderboardEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leaderboard = store(entries, m.ttl, m.now())
	return nil
}

func (m *Memory) StudentStats(context.Context) ([]analytics.StudentStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return lookup(m.students, m.now())
}

func (m *Memory) SetStudentStats(_ context.Context, stats []analytics.StudentStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.students = store(stats, m.ttl, m.now())
	return nil
}

func (m *Memory) Invalidate(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leaderboard = nil
	m.students = nil
	return nil
}

func (m *Memory) Close() error { return nil }

func lookup[T any](e *memoryEntry[T], now time.Time) ([]T, error) {
	if e == nil || (!e.expires.IsZero() && !now.Before(e.expires)) {
		return nil, ErrMiss
	}
	return slices.Clone(e.value), nil
}

func store[T any](v []T, ttl time.Duration, now time.Time) *memoryEntry[T] {
	e := &memoryEntry[T]{value: slices.Clone(v)}
	if ttl > 0 {
		e.expires = now.Add(ttl)
	}
	return e
}
