package play

import (
	"time"

	"github.com/abhisek/mathsprint/internal/session"
)

// startedMsg is sent once the session has been created and started.
type startedMsg struct {
	Session *session.Session
	Cancel  func()
	Err     error
}

// eventMsg carries one session event into the update loop.
type eventMsg session.Event

// frameMsg redraws the countdown.
type frameMsg time.Time

// hintMsg is sent when a hint request finishes.
type hintMsg struct {
	Hint string
	Err  error
}
