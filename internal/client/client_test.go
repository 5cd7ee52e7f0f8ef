package client

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/mathsprint/internal/analytics"
	"github.com/abhisek/mathsprint/internal/api"
	"github.com/abhisek/mathsprint/internal/dashboard"
	"github.com/abhisek/mathsprint/internal/hints"
	"github.com/abhisek/mathsprint/internal/problemgen"
	"github.com/abhisek/mathsprint/internal/session"
	"github.com/abhisek/mathsprint/internal/store"
)

// newServer serves the real API backed by in-memory storage.
func newServer(t *testing.T) (*httptest.Server, *dashboard.Service) {
	t.Helper()
	dash := dashboard.NewService(store.NewMemoryStore(), nil, nil)
	gen := problemgen.New(problemgen.WithRand(rand.New(rand.NewPCG(1, 2))))
	srv := httptest.NewServer(api.NewRouter(&api.Container{
		Questions: problemgen.NewLocalSource(gen),
		Dashboard: dash,
		Hints:     hints.NewService(nil, hints.DefaultConfig(), nil),
	}))
	t.Cleanup(srv.Close)
	return srv, dash
}

func newClient(t *testing.T, url string) *Client {
	t.Helper()
	c, err := New(Config{ServerURL: url + "/", Timeout: time.Second}, nil)
	require.NoError(t, err)
	return c
}

// failing returns a server that answers every request with status.
func failing(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "boom"})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewRequiresServer(t *testing.T) {
	_, err := New(Config{ServerURL: "  "}, nil)
	assert.ErrorIs(t, err, ErrNoServer)
}

func TestFetchQuestion(t *testing.T) {
	srv, _ := newServer(t)
	c := newClient(t, srv.URL)

	q, err := c.FetchQuestion(context.Background(), 4, 2)
	require.NoError(t, err)
	assert.NoError(t, problemgen.Verify(q))
	assert.Equal(t, 2, q.Difficulty)

	_, err = c.FetchQuestion(context.Background(), 9, 1)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.Code)
	assert.Equal(t, "Invalid grade level", se.Message)
}

func TestFetchQuestionRejectsWrongAnswer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(problemgen.Question{
			ID:        "bad", Text: "What is 2 + 3?", Answer: 6,
			Operation: problemgen.OpAddition, Grade: 1, Difficulty: 1,
		})
	}))
	defer srv.Close()

	_, err := newClient(t, srv.URL).FetchQuestion(context.Background(), 1, 1)
	var ve *problemgen.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestFallbackSourceUsesLocalWhenServerFails(t *testing.T) {
	c := newClient(t, failing(t, http.StatusInternalServerError).URL)
	src := problemgen.NewFallbackSource(c, problemgen.New(), nil)

	q, err := src.Next(context.Background(), 2, 1)
	require.NoError(t, err)
	assert.NoError(t, problemgen.Verify(q))
}

func TestPersistAnswerAndProjections(t *testing.T) {
	srv, dash := newServer(t)
	c := newClient(t, srv.URL)
	ctx := context.Background()

	var rec session.Recorder = c
	for i, correct := range []bool{true, false, true} {
		err := rec.Record(ctx, store.AnswerRecord{
			SessionID:  "remote-9f2c", QuestionID: "q", QuestionText: "What is 6 ÷ 2?",
			UserAnswer: 3, CorrectAnswer: 3, IsCorrect: correct,
			Operation:  problemgen.OpDivision, Grade: 3, Difficulty: 1, TimeSpent: float64(i + 1),
		})
		require.NoError(t, err)
	}

	history, err := dash.History(ctx, "remote-9f2c")
	require.NoError(t, err)
	assert.Len(t, history, 3)

	board := c.Leaderboard(ctx)
	require.Len(t, board, 1)
	assert.Equal(t, analytics.LeaderboardEntry{ID: "remote-9f2c", Name: "Player 9f2c", Score: 20, Grade: 3, Streak: 1}, board[0])

	stats := c.StudentStats(ctx)
	require.Len(t, stats, 1)
	assert.Equal(t, 2.0, stats[0].AverageTime)
	assert.Equal(t, []problemgen.Operation{problemgen.OpDivision}, stats[0].WeakAreas)
}

func TestPersistAnswerRejected(t *testing.T) {
	srv, _ := newServer(t)
	err := newClient(t, srv.URL).PersistAnswer(context.Background(), store.AnswerRecord{Operation: problemgen.OpAddition})
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.Code)
}

func TestReadsDegradeToEmpty(t *testing.T) {
	c := newClient(t, failing(t, http.StatusServiceUnavailable).URL)
	board := c.Leaderboard(context.Background())
	assert.NotNil(t, board)
	assert.Empty(t, board)

	stats := c.StudentStats(context.Background())
	assert.NotNil(t, stats)
	assert.Empty(t, stats)

	assert.Error(t, c.Health(context.Background()))
}

func TestFetchHint(t *testing.T) {
	srv, _ := newServer(t)
	c := newClient(t, srv.URL)
	q := &problemgen.Question{Text: "What is 7 × 8?", Answer: 56, Operation: problemgen.OpMultiplication, Grade: 3}

	hint := c.Hint(context.Background(), q)
	assert.True(t, slices.Contains(hints.Canned("multiplication"), hint), "unexpected hint %q", hint)
}

func TestFetchHintFallsBack(t *testing.T) {
	tests := []struct {
		name   string
		server *httptest.Server
	}{
		{"server error", failing(t, http.StatusInternalServerError)},
		{"empty hint", httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"hint":"  "}`))
		}))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer tt.server.Close()
			fallback := hints.NewService(nil, hints.DefaultConfig(), nil, hints.WithRand(rand.New(rand.NewPCG(5, 6))))
			c, err := New(Config{ServerURL: tt.server.URL}, nil, WithFallbackHints(fallback))
			require.NoError(t, err)

			hint := c.FetchHint(context.Background(), hints.Request{Question: "What is 9 - 4?", Operation: "subtraction", Grade: 2})
			assert.True(t, slices.Contains(hints.Canned("subtraction"), hint), "unexpected hint %q", hint)
		})
	}
}

func TestUnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := newClient(t, url)
	_, err := c.FetchQuestion(context.Background(), 1, 1)
	assert.Error(t, err)
	var se *StatusError
	assert.False(t, errors.As(err, &se))
}

func TestHealth(t *testing.T) {
	srv, _ := newServer(t)
	assert.NoError(t, newClient(t, srv.URL).Health(context.Background()))
}
