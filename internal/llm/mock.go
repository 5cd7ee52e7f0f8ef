package llm

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
)

// MockResponse is one scripted reply. Err, when set, is returned instead.
type MockResponse struct {
	Content json.RawMessage
	Usage   Usage
	Err     error
}

// Call is a request a MockProvider received.
type Call struct {
	Request
	SessionID string
}

// MockProvider replays scripted replies in order and records each call.
// Once the script runs out every call fails as unavailable, which is also
// how the "mock" provider setting behaves offline.
type MockProvider struct {
	mu     sync.Mutex
	script []MockResponse
	calls  []Call
}

// NewMockProvider creates a MockProvider that replays responses.
func NewMockProvider(responses ...MockResponse) *MockProvider {
	return &MockProvider{script: responses}
}

func (m *MockProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	m.calls = append(m.calls, Call{Request: req, SessionID: SessionFrom(ctx)})
	if len(m.script) == 0 {
		m.mu.Unlock()
		return nil, &Error{Kind: KindUnavailable, Provider: ProviderMock, Err: errors.New("script exhausted")}
	}
	next := m.script[0]
	m.script = m.script[1:]
	m.mu.Unlock()

	if next.Err != nil {
		return nil, next.Err
	}
	return finish(ProviderMock, req, &Response{Content: next.Content, Usage: next.Usage, Model: "mock", Stop: StopEnd})
}

func (m *MockProvider) ModelID() string { return "mock" }

// Calls returns the requests received so far.
func (m *MockProvider) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}
