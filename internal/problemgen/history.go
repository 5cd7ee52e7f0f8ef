package problemgen

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

const (
	// maxRememberedQuestions bounds the history kept per session.
	maxRememberedQuestions = 32

	// maxTrackedSessions bounds how many sessions an LLMSource remembers.
	// The least recently asked session is forgotten first.
	maxTrackedSessions = 256
)

// history holds the questions recently generated for each game session, so
// the prompt can ask the model not to repeat them.
type history struct {
	mu       sync.Mutex
	sessions map[string][]string
	order    []string // least recently used first
}

func newHistory() *history {
	return &history{sessions: make(map[string][]string)}
}

// recent returns up to n of the newest questions for session, oldest first.
// n <= 0 returns them all.
func (h *history) recent(session string, n int) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	asked := h.sessions[session]
	if n > 0 && len(asked) > n {
		asked = asked[len(asked)-n:]
	}
	return slices.Clone(asked)
}

func (h *history) add(session, text string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	asked, ok := h.sessions[session]
	if ok {
		h.order = slices.DeleteFunc(h.order, func(s string) bool { return s == session })
	}
	h.order = append(h.order, session)
	asked = append(asked, text)
	if len(asked) > maxRememberedQuestions {
		asked = slices.Clone(asked[len(asked)-maxRememberedQuestions:])
	}
	h.sessions[session] = asked

	for len(h.order) > maxTrackedSessions {
		delete(h.sessions, h.order[0])
		h.order = h.order[1:]
	}
}

// numbered lists questions one per line, or "None".
func numbered(questions []string) string {
	if len(questions) == 0 {
		return "None"
	}
	lines := make([]string, len(questions))
	for i, q := range questions {
		lines[i] = fmt.Sprintf("%d. %s", i+1, q)
	}
	return strings.Join(lines, "\n")
}
