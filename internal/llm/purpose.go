package llm

import "context"

// Purpose says what a request is for. It picks the retry budget and labels
// the usage totals.
type Purpose string

const (
	PurposeUnknown     Purpose = ""
	PurposeHint        Purpose = "hint"
	PurposeQuestionGen Purpose = "question-gen"
)

func (p Purpose) String() string {
	if p == PurposeUnknown {
		return "unknown"
	}
	return string(p)
}

type sessionKey struct{}

// WithSession tags ctx with the game session a request is made for, so
// cost logs and question history can be tied back to it.
func WithSession(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionKey{}, sessionID)
}

// SessionFrom returns the session id set by WithSession, or "".
func SessionFrom(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}
