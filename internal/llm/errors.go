package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorKind classifies a failed request.
type ErrorKind int

const (
	// KindUnavailable covers network failures and 5xx replies.
	KindUnavailable ErrorKind = iota
	// KindRateLimited is a 429 reply.
	KindRateLimited
	// KindRejected is any other 4xx reply, such as a bad API key.
	KindRejected
	// KindInvalidResponse means the reply did not match the request schema.
	KindInvalidResponse
	// KindTruncated means the reply hit MaxTokens before it was complete.
	KindTruncated
)

var kindNames = map[ErrorKind]string{
	KindUnavailable:     "unavailable",
	KindRateLimited:     "rate limited",
	KindRejected:        "rejected",
	KindInvalidResponse: "invalid response",
	KindTruncated:       "truncated",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error is returned by every provider in this package.
type Error struct {
	Kind     ErrorKind
	Provider string

	// RetryAfter is the wait the provider asked for, when it said.
	RetryAfter time.Duration

	// Content is the reply that failed validation or was cut short.
	Content json.RawMessage

	Err error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("llm %s: %s", e.Provider, e.Kind)
	}
	return fmt.Sprintf("llm %s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// statusError classifies an API error by its HTTP status.
func statusError(provider string, status int, err error) *Error {
	kind := KindUnavailable
	switch {
	case status == http.StatusTooManyRequests:
		kind = KindRateLimited
	case status >= 400 && status < 500:
		kind = KindRejected
	}
	return &Error{Kind: kind, Provider: provider, Err: err}
}
