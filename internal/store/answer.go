package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abhisek/mathsprint/internal/problemgen"
)

// TimeoutAnswer is the UserAnswer recorded when the countdown expired.
const TimeoutAnswer = -1

// ErrInvalidRecord is returned when an AnswerRecord is missing required fields.
var ErrInvalidRecord = errors.New("invalid answer record")

// AnswerRecord is one answered or timed-out question. Records are
// append-only and never updated.
type AnswerRecord struct {
	// Sequence is assigned by the store on append and orders all records
	// across sessions.
	Sequence int64 `json:"-" bson:"sequence"`

	SessionID     string               `json:"sessionId" bson:"sessionId"`
	QuestionID    string               `json:"questionId" bson:"questionId"`
	QuestionText  string               `json:"question" bson:"question"`
	UserAnswer    int                  `json:"userAnswer" bson:"userAnswer"`
	CorrectAnswer int                  `json:"correctAnswer" bson:"correctAnswer"`
	IsCorrect     bool                 `json:"isCorrect" bson:"isCorrect"`
	Operation     problemgen.Operation `json:"operation" bson:"operation"`
	Grade         int                  `json:"grade" bson:"grade"`
	Difficulty    int                  `json:"difficulty" bson:"difficulty"`
	TimeSpent     float64              `json:"timeSpent" bson:"timeSpent"`
	Timestamp     time.Time            `json:"timestamp" bson:"timestamp"`
}

// TimedOut reports whether the record is a timeout.
func (r AnswerRecord) TimedOut() bool {
	return r.UserAnswer == TimeoutAnswer
}

// Validate checks the fields every store requires.
func (r AnswerRecord) Validate() error {
	switch {
	case r.SessionID == "":
		return fmt.Errorf("%w: missing session id", ErrInvalidRecord)
	case !r.Operation.Valid():
		return fmt.Errorf("%w: unknown operation %q", ErrInvalidRecord, r.Operation)
	case r.TimeSpent < 0:
		return fmt.Errorf("%w: negative time spent", ErrInvalidRecord)
	}
	return nil
}

// SessionHistory is the ordered answer history of one session.
type SessionHistory struct {
	SessionID string
	Records   []AnswerRecord
}

// AnswerRepo is the append-only answer history.
type AnswerRepo interface {
	// Append validates and stores rec, returning its sequence number.
	// A zero Timestamp is replaced with the current UTC time.
	Append(ctx context.Context, rec AnswerRecord) (int64, error)

	// History returns the records of one session in submission order.
	// Unknown sessions yield an empty slice.
	History(ctx context.Context, sessionID string) ([]AnswerRecord, error)

	// Sessions returns every session's history, ordered by the session's
	// first record.
	Sessions(ctx context.Context) ([]SessionHistory, error)

	Close() error
}

// prepare validates rec and normalizes its timestamp.
func prepare(rec AnswerRecord) (AnswerRecord, error) {
	if err := rec.Validate(); err != nil {
		return rec, err
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	rec.Timestamp = rec.Timestamp.UTC()
	return rec, nil
}

// groupBySession splits records, already in sequence order, into sessions
// ordered by first appearance.
func groupBySession(records []AnswerRecord) []SessionHistory {
	index := make(map[string]int)
	var out []SessionHistory
	for _, r := range records {
		i, ok := index[r.SessionID]
		if !ok {
			i = len(out)
			index[r.SessionID] = i
			out = append(out, SessionHistory{SessionID: r.SessionID})
		}
		out[i].Records = append(out[i].Records, r)
	}
	return out
}
