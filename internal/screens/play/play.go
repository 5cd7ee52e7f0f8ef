// Package play is the screen where a session is played.
package play

import (
	"context"
	"errors"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/mathsprint/internal/router"
	"github.com/abhisek/mathsprint/internal/screen"
	"github.com/abhisek/mathsprint/internal/screens/summary"
	"github.com/abhisek/mathsprint/internal/session"
	"github.com/abhisek/mathsprint/internal/store"
	"github.com/abhisek/mathsprint/internal/ui/components"
	"github.com/abhisek/mathsprint/internal/ui/layout"
)

// Factory creates an unstarted session for a grade.
type Factory func(grade int) (*session.Session, error)

const (
	frameInterval = 250 * time.Millisecond
	eventBuffer   = 64
	maxDigits     = 6
)

// feedback describes the last answer while the next question loads.
type feedback struct {
	correct  bool
	timedOut bool
	answer   int
}

// Screen implements screen.Screen for a running session.
type Screen struct {
	factory Factory
	grade   int
	now     func() time.Time

	ctx    context.Context
	stop   context.CancelFunc
	events chan session.Event
	closed chan struct{}

	sess   *session.Session
	cancel func()

	snap        session.Snapshot
	input       components.AnswerInput
	feedback    *feedback
	levelUp     bool
	warning     bool
	hint        string
	hintLoading bool
	notice      string
	confirmQuit bool
	finished    bool
	errMsg      string
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)
var _ screen.ScoreProvider = (*Screen)(nil)
var _ screen.Closer = (*Screen)(nil)

// New creates a play screen for grade. The session is created when the
// screen is pushed.
func New(factory Factory, grade int) *Screen {
	ctx, stop := context.WithCancel(context.Background())
	return &Screen{
		factory: factory,
		grade:   grade,
		now:     time.Now,
		ctx:     ctx,
		stop:    stop,
		events:  make(chan session.Event, eventBuffer),
		closed:  make(chan struct{}),
		input:   components.NewAnswerInput("Type your answer...", maxDigits),
	}
}

func (s *Screen) Init() tea.Cmd {
	return tea.Batch(s.start(), s.input.Init())
}

func (s *Screen) Title() string {
	return "Play"
}

func (s *Screen) HeaderScore() (int, int) {
	return s.snap.Score, s.snap.Streak
}

func (s *Screen) KeyHints() []layout.KeyHint {
	switch {
	case s.errMsg != "":
		return []layout.KeyHint{{Key: "any key", Description: "Back"}}
	case s.confirmQuit:
		return []layout.KeyHint{
			{Key: "Y", Description: "End game"},
			{Key: "N", Description: "Keep going"},
		}
	case s.snap.State == session.StatePaused:
		return []layout.KeyHint{
			{Key: "P", Description: "Resume"},
			{Key: "Esc", Description: "Quit"},
		}
	}
	return []layout.KeyHint{
		{Key: "Enter", Description: "Submit"},
		{Key: "H", Description: "Hint"},
		{Key: "P", Description: "Pause"},
		{Key: "Esc", Description: "Quit"},
	}
}

// Close ends the session if it is still running and stops listening.
func (s *Screen) Close() {
	select {
	case <-s.closed:
		return
	default:
	}
	if s.sess != nil {
		_ = s.sess.End()
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.stop()
	close(s.closed)
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case startedMsg:
		return s.handleStarted(msg)

	case eventMsg:
		return s.handleEvent(session.Event(msg))

	case frameMsg:
		if s.sess == nil || s.finished {
			return s, nil
		}
		s.snap = s.sess.Snapshot()
		return s, s.frame()

	case hintMsg:
		s.hintLoading = false
		switch {
		case msg.Err == nil:
			s.hint = msg.Hint
		case errors.Is(msg.Err, session.ErrHintsUnavailable):
			s.notice = "Hints are not available right now."
		}
		return s, nil

	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	if s.acceptingInput() {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}
	return s, nil
}

// start creates, subscribes and starts the session off the update loop.
func (s *Screen) start() tea.Cmd {
	factory, grade, ctx, events := s.factory, s.grade, s.ctx, s.events
	return func() tea.Msg {
		sess, err := factory(grade)
		if err != nil {
			return startedMsg{Err: err}
		}
		cancel := sess.Subscribe(func(ev session.Event) {
			select {
			case events <- ev:
			default:
			}
		})
		if err := sess.Start(ctx); err != nil {
			cancel()
			_ = sess.End()
			return startedMsg{Err: err}
		}
		go func() { _ = sess.Run(ctx) }()
		return startedMsg{Session: sess, Cancel: cancel}
	}
}

// listen waits for the next session event.
func (s *Screen) listen() tea.Cmd {
	events, closed := s.events, s.closed
	return func() tea.Msg {
		select {
		case ev := <-events:
			return eventMsg(ev)
		case <-closed:
			return nil
		}
	}
}

func (s *Screen) frame() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func (s *Screen) handleStarted(msg startedMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		s.errMsg = msg.Err.Error()
		return s, nil
	}
	s.sess = msg.Session
	s.cancel = msg.Cancel
	s.snap = s.sess.Snapshot()
	return s, tea.Batch(s.listen(), s.frame())
}

func (s *Screen) handleEvent(ev session.Event) (screen.Screen, tea.Cmd) {
	s.snap = ev.Snapshot

	switch ev.Kind {
	case session.EventQuestionReady:
		s.feedback = nil
		s.levelUp = false
		s.warning = false
		s.hint = ""
		s.hintLoading = false
		s.input.Reset()

	case session.EventAnswerCorrect, session.EventAnswerIncorrect:
		fb := &feedback{correct: ev.Kind == session.EventAnswerCorrect}
		if ev.Record != nil {
			fb.answer = ev.Record.CorrectAnswer
			fb.timedOut = ev.Record.UserAnswer == store.TimeoutAnswer
		}
		s.feedback = fb
		s.input.Reset()

	case session.EventLevelUp:
		s.levelUp = true

	case session.EventTimeWarning:
		s.warning = true

	case session.EventPersistFailed:
		s.notice = "Your last answer could not be saved."

	case session.EventQuestionFailed:
		s.notice = "The next question could not be loaded."

	case session.EventStateChanged:
		if ev.Snapshot.State == session.StateEnded {
			s.finished = true
			sum := summary.New(summary.Result{
				Summary: session.BuildSummary(ev.Snapshot, s.now()),
				Grade:   s.grade,
			}, s.again())
			return s, func() tea.Msg { return router.ReplaceScreenMsg{Screen: sum} }
		}
	}
	return s, s.listen()
}

// again returns a fresh play screen for the same grade.
func (s *Screen) again() func() screen.Screen {
	factory, grade := s.factory, s.grade
	return func() screen.Screen { return New(factory, grade) }
}

func (s *Screen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if s.errMsg != "" {
		return s, func() tea.Msg { return router.PopScreenMsg{} }
	}
	if s.sess == nil || s.finished {
		return s, nil
	}

	if s.confirmQuit {
		switch key {
		case "y", "Y":
			s.confirmQuit = false
			s.end()
		case "n", "N", "esc":
			s.confirmQuit = false
		}
		return s, nil
	}

	switch key {
	case "esc":
		s.confirmQuit = true
		return s, nil
	case "p", "P":
		s.togglePause()
		return s, nil
	}

	if s.snap.State != session.StatePlaying {
		return s, nil
	}

	switch key {
	case "h", "H", "?":
		return s, s.requestHint()
	case "enter":
		return s.submit()
	}

	if s.acceptingInput() {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *Screen) acceptingInput() bool {
	return s.sess != nil && !s.finished && !s.confirmQuit &&
		s.snap.State == session.StatePlaying && s.snap.Question != nil
}

func (s *Screen) submit() (screen.Screen, tea.Cmd) {
	if s.snap.Question == nil {
		return s, nil
	}
	answer, ok := s.input.Answer()
	if !ok {
		return s, nil
	}
	_, s.snap = s.sess.SubmitAnswer(answer)
	return s, nil
}

func (s *Screen) togglePause() {
	var err error
	switch s.snap.State {
	case session.StatePlaying:
		err = s.sess.Pause()
	case session.StatePaused:
		err = s.sess.Resume()
	}
	if err == nil {
		s.snap = s.sess.Snapshot()
	}
}

func (s *Screen) end() {
	if err := s.sess.End(); err != nil && !errors.Is(err, session.ErrInvalidTransition) {
		s.errMsg = err.Error()
	}
}

func (s *Screen) requestHint() tea.Cmd {
	if s.hintLoading || s.snap.Question == nil {
		return nil
	}
	s.hintLoading = true
	sess, ctx := s.sess, s.ctx
	return func() tea.Msg {
		hint, err := sess.Hint(ctx)
		return hintMsg{Hint: hint, Err: err}
	}
}
