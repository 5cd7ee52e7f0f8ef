package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/mathsprint/internal/analytics"
	"github.com/abhisek/mathsprint/internal/dashboard"
	"github.com/abhisek/mathsprint/internal/hints"
	"github.com/abhisek/mathsprint/internal/problemgen"
	"github.com/abhisek/mathsprint/internal/session"
	"github.com/abhisek/mathsprint/internal/store"
	"github.com/abhisek/mathsprint/internal/worker"
)

var fixedNow = time.Date(2025, 5, 4, 12, 0, 0, 0, time.UTC)

// fixedSource always asks "What is 2 + 3?".
type fixedSource struct{}

func (fixedSource) Next(_ context.Context, grade, level int) (*problemgen.Question, error) {
	if !problemgen.ValidGrade(grade) {
		return nil, problemgen.ErrInvalidGrade
	}
	return &problemgen.Question{
		ID:        "q-fixed", Text: "What is 2 + 3?", Answer: 5,
		Operation: problemgen.OpAddition, Grade: 1, Difficulty: level,
	}, nil
}

type failingSource struct{}

func (failingSource) Next(context.Context, int, int) (*problemgen.Question, error) {
	return nil, &problemgen.NoTemplateError{Grade: 1}
}

type testServer struct {
	*httptest.Server
	dashboard *dashboard.Service
	registry  *session.Registry
}

func newTestServer(t *testing.T, mutate func(*Container)) *testServer {
	t.Helper()
	pool := worker.NewPool(2, 16, nil)
	t.Cleanup(func() { pool.Close(context.Background()) })

	dash := dashboard.NewService(store.NewMemoryStore(), nil, nil)
	registry := session.NewRegistry(
		session.Config{NextQuestionDelay: time.Hour, TickInterval: time.Hour},
		session.Deps{Questions: fixedSource{}, Recorder: dash, Pool: pool},
	)
	t.Cleanup(registry.Close)

	gen := problemgen.New(problemgen.WithRand(rand.New(rand.NewPCG(3, 4))))
	c := &Container{
		Questions: problemgen.NewLocalSource(gen),
		Dashboard: dash,
		Hints:     hints.NewService(nil, hints.DefaultConfig(), nil),
		Sessions:  registry,
		Now:       func() time.Time { return fixedNow },
	}
	if mutate != nil {
		mutate(c)
	}
	srv := httptest.NewServer(NewRouter(c))
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, dashboard: dash, registry: registry}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req, err := http.NewRequest(method, s.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, nil)
	resp := srv.do(t, "GET", "/api/health", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[map[string]string](t, resp)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "2025-05-04T12:00:00Z", body["timestamp"])
}

func TestQuestion(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := srv.do(t, "POST", "/api/game/question", QuestionRequest{Grade: 3, Level: 0})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	q := decodeBody[problemgen.Question](t, resp)
	assert.NoError(t, problemgen.Verify(&q))
	assert.Equal(t, 1, q.Difficulty)
	assert.LessOrEqual(t, q.Grade, 3)
	assert.NotEmpty(t, q.ID)

	tests := []struct {
		name string
		body any
	}{
		{"grade too high", QuestionRequest{Grade: 7, Level: 1}},
		{"missing grade", map[string]int{"level": 2}},
		{"not json", "{"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := srv.do(t, "POST", "/api/game/question", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}

	resp = srv.do(t, "POST", "/api/game/question", QuestionRequest{Grade: 0})
	assert.Equal(t, "Invalid grade level", decodeBody[map[string]string](t, resp)["message"])
}

func TestQuestionGenerationFailure(t *testing.T) {
	srv := newTestServer(t, func(c *Container) { c.Questions = failingSource{} })
	resp := srv.do(t, "POST", "/api/game/question", QuestionRequest{Grade: 1, Level: 1})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func answerBody(session string, op string, correct bool) map[string]any {
	return map[string]any{
		"sessionId":     session,
		"questionId":    "q1",
		"question":      "What is 2 + 3?",
		"userAnswer":    5,
		"correctAnswer": 5,
		"isCorrect":     correct,
		"operation":     op,
		"grade":         1,
		"difficulty":    1,
		"timeSpent":     3.5,
		"timestamp":     "1999-01-01T00:00:00Z",
	}
}

func TestAnswerAndProjections(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := srv.do(t, "GET", "/api/leaderboard", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []analytics.LeaderboardEntry{}, decodeBody[[]analytics.LeaderboardEntry](t, resp))

	for _, correct := range []bool{true, true, false, true} {
		resp := srv.do(t, "POST", "/api/game/answer", answerBody("session-ab12", "addition", correct))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, AnswerResponse{Success: true, Correct: correct}, decodeBody[AnswerResponse](t, resp))
	}

	history, err := srv.dashboard.History(context.Background(), "session-ab12")
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Equal(t, fixedNow, history[0].Timestamp)

	board := decodeBody[[]analytics.LeaderboardEntry](t, srv.do(t, "GET", "/api/leaderboard", nil))
	require.Len(t, board, 1)
	assert.Equal(t, analytics.LeaderboardEntry{ID: "session-ab12", Name: "Player ab12", Score: 30, Grade: 1, Streak: 1}, board[0])

	students := decodeBody[[]analytics.StudentStats](t, srv.do(t, "GET", "/api/teacher/students", nil))
	require.Len(t, students, 1)
	assert.Equal(t, "Student ab12", students[0].Name)
	assert.Equal(t, 3.5, students[0].AverageTime)
	assert.Equal(t, []analytics.DailyProgress{{Date: "2025-05-04", Score: 30, Accuracy: 75}}, students[0].ProgressOverTime)
}

func TestAnswerValidation(t *testing.T) {
	srv := newTestServer(t, nil)
	tests := []struct {
		name string
		body any
	}{
		{"missing session", answerBody("", "addition", true)},
		{"unknown operation", answerBody("s1", "modulo", true)},
		{"missing operation", answerBody("s1", "", true)},
		{"not json", "nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := srv.do(t, "POST", "/api/game/answer", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
	assert.Empty(t, srv.dashboard.Leaderboard(context.Background()))
}

func TestHintEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := srv.do(t, "POST", "/api/game/hint", hints.Request{Operation: "addition", Grade: 1})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = srv.do(t, "POST", "/api/game/hint", hints.Request{Question: "What is 9 ÷ 3?", Operation: "division", Grade: 3})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	hint := decodeBody[HintResponse](t, resp).Hint
	assert.True(t, slices.Contains(hints.Canned("division"), hint), "unexpected hint %q", hint)
}

func TestCORS(t *testing.T) {
	srv := newTestServer(t, nil)
	resp := srv.do(t, "OPTIONS", "/api/game/question", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	restricted := newTestServer(t, func(c *Container) { c.CORSOrigins = []string{"https://class.example"} })
	for origin, want := range map[string]string{
		"https://class.example": "https://class.example",
		"https://evil.example":  "",
	} {
		req, _ := http.NewRequest("GET", restricted.URL+"/api/health", nil)
		req.Header.Set("Origin", origin)
		resp, err := restricted.Client().Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, want, resp.Header.Get("Access-Control-Allow-Origin"), "origin %s", origin)
	}
}

func TestSessionEndpoints(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := srv.do(t, "POST", "/api/sessions", CreateSessionRequest{Grade: 9})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = srv.do(t, "POST", "/api/sessions", CreateSessionRequest{Grade: 2})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	snap := decodeBody[session.Snapshot](t, resp)
	assert.Equal(t, session.StatePlaying, snap.State)
	require.NotNil(t, snap.Question)
	assert.Equal(t, "What is 2 + 3?", snap.Question.Text)
	base := "/api/sessions/" + snap.SessionID

	got := decodeBody[session.Snapshot](t, srv.do(t, "GET", base, nil))
	assert.Equal(t, snap.SessionID, got.SessionID)

	resp = srv.do(t, "POST", base+"/answer", map[string]string{"answer": "five"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = srv.do(t, "POST", base+"/answer", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = srv.do(t, "POST", base+"/answer", map[string]int{"answer": 5})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ans := decodeBody[SubmitAnswerResponse](t, resp)
	assert.True(t, ans.Correct)
	assert.Equal(t, 10, ans.Session.Score)
	assert.Equal(t, 1, ans.Session.Streak)
	assert.Equal(t, 100.0, ans.Session.Progress)
	assert.True(t, ans.Session.Pending)

	// No question on screen until the next one loads.
	resp = srv.do(t, "POST", base+"/hint", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = srv.do(t, "POST", base+"/pause", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, session.StatePaused, decodeBody[session.Snapshot](t, resp).State)
	resp = srv.do(t, "POST", base+"/pause", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = srv.do(t, "POST", base+"/resume", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = srv.do(t, "POST", base+"/end", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	final := decodeBody[session.Snapshot](t, resp)
	assert.Equal(t, session.StateEnded, final.State)
	assert.Equal(t, 1, final.TotalQuestions)

	require.Eventually(t, func() bool {
		r := srv.do(t, "GET", base, nil)
		return r.StatusCode == http.StatusNotFound
	}, time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		return len(srv.dashboard.Leaderboard(context.Background())) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestSessionHint(t *testing.T) {
	srv := newTestServer(t, nil)
	snap := decodeBody[session.Snapshot](t, srv.do(t, "POST", "/api/sessions", CreateSessionRequest{Grade: 1}))

	// The registry in the test server has no hint source.
	resp := srv.do(t, "POST", "/api/sessions/"+snap.SessionID+"/hint", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp = srv.do(t, "GET", "/api/sessions/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSessionEventsStream(t *testing.T) {
	srv := newTestServer(t, nil)
	snap := decodeBody[session.Snapshot](t, srv.do(t, "POST", "/api/sessions", CreateSessionRequest{Grade: 1}))
	base := "/api/sessions/" + snap.SessionID

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + base + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Subscription happens after the upgrade; give the handler a moment.
	time.Sleep(50 * time.Millisecond)

	srv.do(t, "POST", base+"/answer", map[string]int{"answer": 4})
	srv.do(t, "POST", base+"/end", nil)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var kinds []string
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "read error: %v", err)
			break
		}
		var ev struct {
			Kind    string `json:"kind"`
			Session struct {
				State string `json:"state"`
			} `json:"session"`
		}
		require.NoError(t, json.Unmarshal(data, &ev))
		kinds = append(kinds, fmt.Sprintf("%s:%s", ev.Kind, ev.Session.State))
	}

	assert.Equal(t, []string{"answer_incorrect:playing", "state_changed:ended"}, kinds)
}

func TestSessionEventsOrigin(t *testing.T) {
	srv := newTestServer(t, func(c *Container) { c.CORSOrigins = []string{"https://class.example"} })
	snap := decodeBody[session.Snapshot](t, srv.do(t, "POST", "/api/sessions", CreateSessionRequest{Grade: 1}))
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/sessions/" + snap.SessionID + "/events"

	tests := []struct {
		origin string
		ok     bool
	}{
		{"https://class.example", true},
		{"https://evil.example", false},
		{"", true},
	}
	for _, tt := range tests {
		header := http.Header{}
		if tt.origin != "" {
			header.Set("Origin", tt.origin)
		}
		conn, resp, err := websocket.DefaultDialer.Dial(url, header)
		if tt.ok {
			require.NoError(t, err, "origin %q", tt.origin)
			conn.Close()
			continue
		}
		require.ErrorIs(t, err, websocket.ErrBadHandshake, "origin %q", tt.origin)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	}
}

func TestSessionsDisabled(t *testing.T) {
	srv := newTestServer(t, func(c *Container) { c.Sessions = nil })
	resp := srv.do(t, "POST", "/api/sessions", CreateSessionRequest{Grade: 1})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
