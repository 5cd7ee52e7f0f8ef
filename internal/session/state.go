package session

import (
	"fmt"
	"time"

	"github.com/abhisek/mathsprint/internal/problemgen"
	"github.com/abhisek/mathsprint/internal/store"
)

// State is the lifecycle state of a session.
type State int

const (
	StateMenu    State = iota // Created, not yet started
	StatePlaying              // Serving questions
	StatePaused               // Timer frozen, answers rejected
	StateEnded                // Terminal
)

var stateNames = map[State]string{
	StateMenu:    "menu",
	StatePlaying: "playing",
	StatePaused:  "paused",
	StateEnded:   "ended",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for st, name := range stateNames {
		if name == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown session state %q", text)
}

// Prompt is the player-facing view of a question. It never carries the
// answer.
type Prompt struct {
	ID         string               `json:"id"`
	Text       string               `json:"question"`
	Operation  problemgen.Operation `json:"operation"`
	Grade      int                  `json:"grade"`
	Difficulty int                  `json:"difficulty"`
}

func promptFor(q *problemgen.Question) *Prompt {
	if q == nil {
		return nil
	}
	return &Prompt{
		ID:         q.ID,
		Text:       q.Text,
		Operation:  q.Operation,
		Grade:      q.Grade,
		Difficulty: q.Difficulty,
	}
}

// Snapshot is a point-in-time copy of a session, safe to share across
// goroutines and to serialize.
type Snapshot struct {
	SessionID string  `json:"sessionId"`
	Grade     int     `json:"grade"`
	State     State   `json:"state"`
	Question  *Prompt `json:"question,omitempty"`

	// Pending is true while the next question is being fetched.
	Pending bool `json:"pending"`

	Scoreboard

	TimeLimit     int       `json:"timeLimit"`
	TimeRemaining float64   `json:"timeRemaining"`
	StartedAt     time.Time `json:"startedAt"`
}

// EventKind identifies what happened in an Event.
type EventKind int

const (
	EventStateChanged EventKind = iota + 1
	EventQuestionReady
	EventAnswerCorrect
	EventAnswerIncorrect
	EventLevelUp
	EventTimeWarning
	EventTimeUp
	EventPersistFailed
	EventQuestionFailed
)

var eventNames = map[EventKind]string{
	EventStateChanged:    "state_changed",
	EventQuestionReady:   "question_ready",
	EventAnswerCorrect:   "answer_correct",
	EventAnswerIncorrect: "answer_incorrect",
	EventLevelUp:         "level_up",
	EventTimeWarning:     "time_warning",
	EventTimeUp:          "time_up",
	EventPersistFailed:   "persist_failed",
	EventQuestionFailed:  "question_failed",
}

func (k EventKind) String() string {
	if name, ok := eventNames[k]; ok {
		return name
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

func (k EventKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *EventKind) UnmarshalText(text []byte) error {
	for kind, name := range eventNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown event kind %q", text)
}

// Event is delivered to subscribers after every observable change.
type Event struct {
	Kind     EventKind `json:"kind"`
	Snapshot Snapshot  `json:"session"`

	// Record is set for answer events and persistence failures.
	Record *store.AnswerRecord `json:"record,omitempty"`

	// Error is set for persistence and question load failures.
	Error string    `json:"error,omitempty"`
	At    time.Time `json:"at"`
}
