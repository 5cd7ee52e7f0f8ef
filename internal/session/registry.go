package session

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrNotFound is returned for an unknown or ended session id.
var ErrNotFound = errors.New("session not found")

// Registry owns the live sessions of a server. Each started session gets
// its own timer goroutine; ended sessions are removed.
type Registry struct {
	defaults Config
	deps     Deps
	log      *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*Session

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRegistry creates a registry that builds sessions from defaults and deps.
func NewRegistry(defaults Config, deps Deps) *Registry {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		defaults: defaults,
		deps:     deps,
		log:      deps.Log.Named("registry"),
		sessions: make(map[string]*Session),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start creates a session for grade, starts it and runs its timer.
func (r *Registry) Start(ctx context.Context, grade int) (*Session, error) {
	cfg := r.defaults
	cfg.Grade = grade
	cfg.SessionID = ""

	s, err := New(cfg, r.deps)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.sessions[s.ID()] = s
	r.mu.Unlock()

	if err := s.Start(ctx); err != nil {
		s.End()
		r.remove(s.ID())
		return nil, err
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		s.Run(r.ctx)
		r.remove(s.ID())
	}()
	return s, nil
}

// Get returns the live session with id.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Close ends every live session and stops their timers.
func (r *Registry) Close() {
	r.mu.RLock()
	live := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		live = append(live, s)
	}
	r.mu.RUnlock()

	for _, s := range live {
		if err := s.End(); err != nil && !errors.Is(err, ErrInvalidTransition) {
			r.log.Warn("failed to end session", zap.String("session_id", s.ID()), zap.Error(err))
		}
	}
	r.cancel()
	r.wg.Wait()
}

func (r *Registry) remove(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}
