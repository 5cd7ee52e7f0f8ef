// Package session runs a single timed practice game: it hands out questions,
// scores answers, tracks the per-question countdown and reports every change
// to subscribers.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abhisek/mathsprint/internal/llm"
	"github.com/abhisek/mathsprint/internal/problemgen"
	"github.com/abhisek/mathsprint/internal/store"
	"github.com/abhisek/mathsprint/internal/timing"
	"github.com/abhisek/mathsprint/internal/worker"
)

var (
	// ErrInvalidTransition is returned when a lifecycle call does not apply
	// to the current state.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrNoQuestion is returned when a hint is requested between questions.
	ErrNoQuestion = errors.New("no active question")

	// ErrHintsUnavailable is returned when the session has no hint source.
	ErrHintsUnavailable = errors.New("hints unavailable")
)

// loadAttempts is how many times a question load is tried before the
// session gives up.
const loadAttempts = 2

// Recorder persists answer records.
type Recorder interface {
	Record(ctx context.Context, rec store.AnswerRecord) error
}

// HintSource produces a hint for a question. It always returns some text.
type HintSource interface {
	Hint(ctx context.Context, q *problemgen.Question) string
}

// Config holds per-session settings.
type Config struct {
	Grade int

	// SessionID overrides the generated identifier.
	SessionID string

	// NextQuestionDelay is the pause between an answer and the next question.
	NextQuestionDelay time.Duration

	// TickInterval drives Run.
	TickInterval time.Duration

	// MaxIdleTimeouts ends the session after this many questions in a row
	// time out without an answer. Zero disables the limit.
	MaxIdleTimeouts int
}

// DefaultConfig returns a grade 1 configuration with one second delays.
func DefaultConfig() Config {
	return Config{
		Grade:             problemgen.MinGrade,
		NextQuestionDelay: time.Second,
		TickInterval:      time.Second,
	}
}

// Deps are the collaborators a session needs. Questions and Pool are
// required.
type Deps struct {
	Questions problemgen.Source
	Recorder  Recorder
	Hints     HintSource
	Pool      *worker.Pool
	Now       func() time.Time
	Log       *zap.Logger
}

type subscriber struct {
	id int
	fn func(Event)
}

// Session is a single play-through. All methods are safe for concurrent use.
type Session struct {
	id   string
	cfg  Config
	deps Deps
	log  *zap.Logger

	mu            sync.Mutex
	state         State
	board         Scoreboard
	question      *problemgen.Question
	timeLimit     int
	remaining     float64
	questionStart time.Time
	warned        bool
	pending       bool
	startedAt     time.Time

	// round increments whenever the current question is consumed, so a
	// load that finishes late for an older round is discarded.
	round uint64

	// idle counts consecutive timeouts since the last player answer.
	idle int

	// persistMu guards the answers waiting to be saved. One drain job at a
	// time writes them, in submission order.
	persistMu  sync.Mutex
	persistQ   []store.AnswerRecord
	persisting bool

	subMu   sync.Mutex
	subs    []subscriber
	nextSub int
	closed  bool

	done     chan struct{}
	doneOnce sync.Once
}

// New creates a session in StateMenu.
func New(cfg Config, deps Deps) (*Session, error) {
	if !problemgen.ValidGrade(cfg.Grade) {
		return nil, fmt.Errorf("grade %d: %w", cfg.Grade, problemgen.ErrInvalidGrade)
	}
	if deps.Questions == nil {
		return nil, errors.New("session: question source is required")
	}
	if deps.Pool == nil {
		return nil, errors.New("session: worker pool is required")
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}

	id := cfg.SessionID
	if id == "" {
		id = uuid.NewString()
	}

	return &Session{
		id:    id,
		cfg:   cfg,
		deps:  deps,
		log:   deps.Log.Named("session").With(zap.String("session_id", id)),
		state: StateMenu,
		board: NewScoreboard(),
		done:  make(chan struct{}),
	}, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Done is closed when the session ends.
func (s *Session) Done() <-chan struct{} { return s.done }

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Start moves the session from menu to playing and loads the first question.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateMenu {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	s.state = StatePlaying
	s.board = NewScoreboard()
	s.startedAt = s.deps.Now().UTC()
	s.pending = true
	s.round++
	round := s.round
	events := s.eventLocked(EventStateChanged, nil)
	s.mu.Unlock()

	s.log.Info("session started", zap.Int("grade", s.cfg.Grade))
	s.emit(events...)
	return s.loadQuestion(ctx, round)
}

// Pause freezes the question timer.
func (s *Session) Pause() error {
	s.mu.Lock()
	if s.state != StatePlaying {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	if s.question != nil {
		s.remaining = s.remainingLocked(s.deps.Now())
	}
	s.state = StatePaused
	events := s.eventLocked(EventStateChanged, nil)
	s.mu.Unlock()

	s.emit(events...)
	return nil
}

// Resume restarts the timer with the time that was left at Pause.
func (s *Session) Resume() error {
	s.mu.Lock()
	if s.state != StatePaused {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	if s.question != nil {
		used := float64(s.timeLimit) - s.remaining
		s.questionStart = s.deps.Now().Add(-time.Duration(used * float64(time.Second)))
	}
	s.state = StatePlaying
	events := s.eventLocked(EventStateChanged, nil)
	s.mu.Unlock()

	s.emit(events...)
	return nil
}

// End finishes the session. Subscribers receive the final state change
// and are then dropped.
func (s *Session) End() error {
	s.mu.Lock()
	if s.state != StatePlaying && s.state != StatePaused {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	s.state = StateEnded
	s.question = nil
	s.pending = false
	s.remaining = 0
	s.round++
	events := s.eventLocked(EventStateChanged, nil)
	board := s.board
	s.mu.Unlock()

	s.log.Info("session ended",
		zap.Int("score", board.Score),
		zap.Int("questions", board.TotalQuestions),
		zap.Int("correct", board.CorrectAnswers))
	s.emit(events...)

	s.subMu.Lock()
	s.subs = nil
	s.closed = true
	s.subMu.Unlock()
	s.doneOnce.Do(func() { close(s.done) })
	return nil
}

// SubmitAnswer scores answer against the current question. It reports
// false and changes nothing unless the session is playing with a question
// on screen.
func (s *Session) SubmitAnswer(answer int) (bool, Snapshot) {
	s.mu.Lock()
	if s.state != StatePlaying || s.question == nil {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return false, snap
	}
	s.idle = 0
	correct, events, rec := s.submitLocked(answer)
	snap := s.snapshotLocked()
	round := s.round
	s.mu.Unlock()

	s.emit(events...)
	s.afterSubmit(rec, round)
	return correct, snap
}

// Tick advances the question timer. It fires one warning when the time
// left first drops to the warning threshold and submits a timeout answer
// when it reaches zero.
func (s *Session) Tick() {
	s.mu.Lock()
	if s.state != StatePlaying || s.question == nil {
		s.mu.Unlock()
		return
	}

	prev := s.remaining
	s.remaining = s.remainingLocked(s.deps.Now())

	var events []Event
	if !s.warned && prev > timing.WarningSeconds && s.remaining <= timing.WarningSeconds {
		s.warned = true
		events = append(events, s.eventLocked(EventTimeWarning, nil)...)
	}

	var (
		timedOut bool
		idle     bool
		rec      store.AnswerRecord
		round    uint64
	)
	if s.remaining <= 0 {
		timedOut = true
		s.idle++
		idle = s.cfg.MaxIdleTimeouts > 0 && s.idle >= s.cfg.MaxIdleTimeouts
		events = append(events, s.eventLocked(EventTimeUp, nil)...)
		var answerEvents []Event
		_, answerEvents, rec = s.submitLocked(store.TimeoutAnswer)
		events = append(events, answerEvents...)
		round = s.round
	}
	s.mu.Unlock()

	s.emit(events...)
	if !timedOut {
		return
	}
	s.log.Debug("question timed out")
	s.afterSubmit(rec, round)
	if idle {
		s.log.Info("ending idle session", zap.Int("timeouts", s.cfg.MaxIdleTimeouts))
		if err := s.End(); err != nil && !errors.Is(err, ErrInvalidTransition) {
			s.log.Warn("failed to end idle session", zap.Error(err))
		}
	}
}

// Run calls Tick every TickInterval until ctx is done or the session ends.
func (s *Session) Run(ctx context.Context) error {
	t := time.NewTicker(s.cfg.TickInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.done:
			return nil
		case <-t.C:
			s.Tick()
		}
	}
}

// Hint returns a hint for the current question.
func (s *Session) Hint(ctx context.Context) (string, error) {
	s.mu.Lock()
	q := s.question
	s.mu.Unlock()

	if q == nil {
		return "", ErrNoQuestion
	}
	if s.deps.Hints == nil {
		return "", ErrHintsUnavailable
	}
	return s.deps.Hints.Hint(llm.WithSession(ctx, s.id), q), nil
}

// Subscribe registers fn for every subsequent event and returns a function
// that removes it. Events are delivered on the goroutine that caused them,
// so fn must not block.
func (s *Session) Subscribe(fn func(Event)) (cancel func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	if s.closed {
		return func() {}
	}
	s.nextSub++
	id := s.nextSub
	s.subs = append(s.subs, subscriber{id: id, fn: fn})

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// submitLocked scores answer and clears the current question. s.mu must
// be held.
func (s *Session) submitLocked(answer int) (bool, []Event, store.AnswerRecord) {
	q := s.question
	now := s.deps.Now()
	correct := Evaluate(q, answer)

	prevLevel := s.board.Level
	s.board.Apply(correct)

	var spent float64
	if !s.questionStart.IsZero() {
		spent = max(0, now.Sub(s.questionStart).Seconds())
	}
	rec := store.AnswerRecord{
		SessionID:     s.id,
		QuestionID:    q.ID,
		QuestionText:  q.Text,
		UserAnswer:    answer,
		CorrectAnswer: q.Answer,
		IsCorrect:     correct,
		Operation:     q.Operation,
		Grade:         s.cfg.Grade,
		Difficulty:    q.Difficulty,
		TimeSpent:     spent,
		Timestamp:     now.UTC(),
	}

	s.question = nil
	s.remaining = 0
	s.pending = true
	s.round++

	kind := EventAnswerIncorrect
	if correct {
		kind = EventAnswerCorrect
	}
	events := s.eventLocked(kind, &rec)
	if s.board.Level > prevLevel {
		events = append(events, s.eventLocked(EventLevelUp, nil)...)
	}
	return correct, events, rec
}

// afterSubmit queues rec for saving and schedules the next question for
// round.
func (s *Session) afterSubmit(rec store.AnswerRecord, round uint64) {
	if s.deps.Recorder != nil {
		s.enqueuePersist(rec)
	}

	err := s.deps.Pool.SubmitAfter("next-question", s.cfg.NextQuestionDelay, func(ctx context.Context) error {
		return s.loadQuestion(ctx, round)
	})
	if err != nil {
		s.log.Warn("failed to schedule next question", zap.Error(err))
	}
}

// enqueuePersist appends rec to the save queue and starts a drain job
// unless one is already running. Records are never written concurrently,
// so the store sees them in submission order however slow a write is.
func (s *Session) enqueuePersist(rec store.AnswerRecord) {
	s.persistMu.Lock()
	s.persistQ = append(s.persistQ, rec)
	if s.persisting {
		s.persistMu.Unlock()
		return
	}
	s.persisting = true
	s.persistMu.Unlock()

	if err := s.deps.Pool.Submit("persist-answers", s.drainPersist); err != nil {
		s.persistMu.Lock()
		failed := s.persistQ
		s.persistQ = nil
		s.persisting = false
		s.persistMu.Unlock()

		s.log.Warn("failed to queue answer persistence", zap.Error(err))
		for _, r := range failed {
			s.persistFailed(r, err)
		}
	}
}

func (s *Session) drainPersist(ctx context.Context) error {
	for {
		s.persistMu.Lock()
		if len(s.persistQ) == 0 {
			s.persisting = false
			s.persistMu.Unlock()
			return nil
		}
		rec := s.persistQ[0]
		s.persistQ = s.persistQ[1:]
		s.persistMu.Unlock()

		if err := s.deps.Recorder.Record(ctx, rec); err != nil {
			s.log.Warn("failed to persist answer",
				zap.String("question_id", rec.QuestionID), zap.Error(err))
			s.persistFailed(rec, err)
		}
	}
}

func (s *Session) persistFailed(rec store.AnswerRecord, err error) {
	s.mu.Lock()
	events := s.eventLocked(EventPersistFailed, &rec)
	s.mu.Unlock()
	events[0].Error = err.Error()
	s.emit(events...)
}

// loadQuestion fetches a question at the current level, trying the source
// loadAttempts times. The result is dropped if round is no longer current.
// When every attempt fails the session reports EventQuestionFailed and ends,
// since it has nothing left to show.
func (s *Session) loadQuestion(ctx context.Context, round uint64) error {
	s.mu.Lock()
	level := s.board.Level
	s.mu.Unlock()

	ctx = llm.WithSession(ctx, s.id)
	var (
		q   *problemgen.Question
		err error
	)
	for attempt := 1; attempt <= loadAttempts; attempt++ {
		q, err = s.deps.Questions.Next(ctx, s.cfg.Grade, level)
		if err == nil || ctx.Err() != nil {
			break
		}
		s.log.Warn("question source failed", zap.Int("attempt", attempt), zap.Error(err))
	}

	s.mu.Lock()
	if s.round != round || s.state == StateEnded {
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		s.pending = false
		events := s.eventLocked(EventQuestionFailed, nil)
		s.mu.Unlock()

		events[0].Error = err.Error()
		s.emit(events...)
		if endErr := s.End(); endErr != nil && !errors.Is(endErr, ErrInvalidTransition) {
			s.log.Warn("failed to end session", zap.Error(endErr))
		}
		return fmt.Errorf("load question: %w", err)
	}

	s.question = q
	s.timeLimit = timing.TimeLimit(q, s.cfg.Grade, level)
	s.remaining = float64(s.timeLimit)
	s.questionStart = s.deps.Now()
	s.warned = false
	s.pending = false
	events := s.eventLocked(EventQuestionReady, nil)
	s.mu.Unlock()

	s.emit(events...)
	return nil
}

func (s *Session) remainingLocked(now time.Time) float64 {
	elapsed := now.Sub(s.questionStart).Seconds()
	return max(0, float64(s.timeLimit)-elapsed)
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		SessionID:     s.id,
		Grade:         s.cfg.Grade,
		State:         s.state,
		Question:      promptFor(s.question),
		Pending:       s.pending,
		Scoreboard:    s.board,
		TimeRemaining: s.remaining,
		StartedAt:     s.startedAt,
	}
	if s.question != nil {
		snap.TimeLimit = s.timeLimit
	}
	return snap
}

// eventLocked builds a one-element event slice for kind.
func (s *Session) eventLocked(kind EventKind, rec *store.AnswerRecord) []Event {
	return []Event{{
		Kind:     kind,
		Snapshot: s.snapshotLocked(),
		Record:   rec,
		At:       s.deps.Now().UTC(),
	}}
}

func (s *Session) emit(events ...Event) {
	if len(events) == 0 {
		return
	}
	s.subMu.Lock()
	subs := make([]subscriber, len(s.subs))
	copy(subs, s.subs)
	s.subMu.Unlock()

	for _, ev := range events {
		for _, sub := range subs {
			sub.fn(ev)
		}
	}
}
