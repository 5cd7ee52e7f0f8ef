package problemgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/abhisek/mathsprint/internal/llm"
)

func TestBuildUserMessage_MinimalContext(t *testing.T) {
	msg := buildUserMessage(1, 1, allowedOperations(1), nil)

	if !strings.Contains(msg, "Grade: 1") {
		t.Error("missing grade")
	}
	if !strings.Contains(msg, "Level: 1") {
		t.Error("missing level")
	}
	if !strings.Contains(msg, "Allowed operations: addition, subtraction\n") {
		t.Errorf("unexpected operations in %q", msg)
	}
	if !strings.Contains(msg, "Number range: up to about 15") {
		t.Errorf("unexpected range in %q", msg)
	}
	if !strings.Contains(msg, "Already asked in this session:\nNone") {
		t.Error("expected 'None' for prior questions")
	}
}

func TestBuildUserMessage_PriorQuestions(t *testing.T) {
	prior := []string{"What is 2 + 2?", "What is 3 + 3?"}

	msg := buildUserMessage(3, 2, allowedOperations(3), prior)

	if !strings.Contains(msg, "Already asked in this session:\n1. What is 2 + 2?\n2. What is 3 + 3?") {
		t.Errorf("unexpected prior section in %q", msg)
	}
}

func TestHistoryRecent(t *testing.T) {
	h := newHistory()
	for _, q := range []string{"What is 1 + 1?", "What is 2 + 2?", "What is 3 + 3?"} {
		h.add("a", q)
	}
	h.add("b", "What is 9 - 4?")

	tests := []struct {
		session string
		n       int
		want    []string
	}{
		{"a", 2, []string{"What is 2 + 2?", "What is 3 + 3?"}},
		{"a", 0, []string{"What is 1 + 1?", "What is 2 + 2?", "What is 3 + 3?"}},
		{"b", 8, []string{"What is 9 - 4?"}},
		{"c", 8, nil},
	}
	for _, tt := range tests {
		got := h.recent(tt.session, tt.n)
		if fmt.Sprint(got) != fmt.Sprint(tt.want) {
			t.Errorf("recent(%q, %d) = %v, want %v", tt.session, tt.n, got, tt.want)
		}
	}
}

func TestHistoryBounds(t *testing.T) {
	h := newHistory()
	for i := range maxRememberedQuestions + 5 {
		h.add("long", fmt.Sprintf("What is %d + 1?", i))
	}
	got := h.recent("long", 0)
	if len(got) != maxRememberedQuestions {
		t.Fatalf("len(recent) = %d, want %d", len(got), maxRememberedQuestions)
	}
	if got[0] != "What is 5 + 1?" {
		t.Errorf("oldest kept = %q, want What is 5 + 1?", got[0])
	}

	h.add("first", "What is 7 + 7?")
	for i := range maxTrackedSessions {
		h.add(fmt.Sprintf("s%d", i), "What is 1 + 2?")
	}
	if got := h.recent("first", 0); got != nil {
		t.Errorf("least recent session should be forgotten, got %v", got)
	}
	if len(h.sessions) != maxTrackedSessions {
		t.Errorf("tracked %d sessions, want %d", len(h.sessions), maxTrackedSessions)
	}
}

func TestNumbered(t *testing.T) {
	if got := numbered(nil); got != "None" {
		t.Errorf("numbered(nil) = %q, want None", got)
	}
	if got := numbered([]string{"What is 5 x 2?"}); got != "1. What is 5 x 2?" {
		t.Errorf("numbered() = %q", got)
	}
}

func TestAllowedOperations(t *testing.T) {
	tests := []struct {
		grade int
		want  []Operation
	}{
		{0, nil},
		{1, []Operation{OpAddition, OpSubtraction}},
		{2, []Operation{OpAddition, OpSubtraction, OpMultiplication}},
		{3, Operations},
		{6, Operations},
	}
	for _, tt := range tests {
		got := allowedOperations(tt.grade)
		if fmt.Sprint(got) != fmt.Sprint(tt.want) {
			t.Errorf("allowedOperations(%d) = %v, want %v", tt.grade, got, tt.want)
		}
	}
}

func llmQuestion(text string, answer int, op string) llm.MockResponse {
	body, _ := json.Marshal(map[string]any{"question": text, "answer": answer, "operation": op})
	return llm.MockResponse{Content: body}
}

func TestLLMSource_Valid(t *testing.T) {
	mock := llm.NewMockProvider(llmQuestion("What is 12 x 3?", 36, "multiplication"))
	src := NewLLMSource(mock, DefaultConfig())

	q, err := src.Next(context.Background(), 3, 2)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if q.Answer != 36 || q.Operation != OpMultiplication {
		t.Errorf("question = %+v", q)
	}
	if q.Grade != 3 || q.Difficulty != 2 {
		t.Errorf("grade/difficulty = %d/%d, want 3/2", q.Grade, q.Difficulty)
	}
	if q.ID == "" {
		t.Error("missing id")
	}
	call := mock.Calls()[0]
	if call.Schema != QuestionSchema {
		t.Error("request should carry QuestionSchema")
	}
	if call.Purpose != llm.PurposeQuestionGen {
		t.Errorf("Purpose = %v, want %v", call.Purpose, llm.PurposeQuestionGen)
	}
}

func TestLLMSource_RejectsWrongAnswer(t *testing.T) {
	mock := llm.NewMockProvider(llmQuestion("What is 12 x 3?", 35, "multiplication"))
	src := NewLLMSource(mock, DefaultConfig())

	_, err := src.Next(context.Background(), 3, 1)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Validator != "math-check" {
		t.Errorf("Validator = %q, want math-check", verr.Validator)
	}
}

func TestLLMSource_RemembersPriorQuestions(t *testing.T) {
	mock := llm.NewMockProvider(
		llmQuestion("What is 4 + 5?", 9, "addition"),
		llmQuestion("What is 6 + 2?", 8, "addition"),
	)
	src := NewLLMSource(mock, DefaultConfig())

	ctx := llm.WithSession(context.Background(), "sess-1")
	for i := 0; i < 2; i++ {
		if _, err := src.Next(ctx, 1, 1); err != nil {
			t.Fatalf("Next #%d: %v", i, err)
		}
	}
	second := mock.Calls()[1].Prompt
	if !strings.Contains(second, "1. What is 4 + 5?") {
		t.Errorf("second prompt missing prior question: %q", second)
	}
}

func TestLLMSource_HistoryPerSession(t *testing.T) {
	mock := llm.NewMockProvider(
		llmQuestion("What is 4 + 5?", 9, "addition"),
		llmQuestion("What is 6 + 2?", 8, "addition"),
		llmQuestion("What is 7 + 1?", 8, "addition"),
	)
	src := NewLLMSource(mock, DefaultConfig())

	alice := llm.WithSession(context.Background(), "alice")
	bob := llm.WithSession(context.Background(), "bob")
	for _, ctx := range []context.Context{alice, bob, alice} {
		if _, err := src.Next(ctx, 1, 1); err != nil {
			t.Fatalf("Next: %v", err)
		}
	}

	calls := mock.Calls()
	if !strings.Contains(calls[1].Prompt, "Already asked in this session:\nNone") {
		t.Errorf("bob's prompt should not list alice's questions: %q", calls[1].Prompt)
	}
	if !strings.Contains(calls[2].Prompt, "1. What is 4 + 5?") || strings.Contains(calls[2].Prompt, "6 + 2") {
		t.Errorf("alice's prompt = %q", calls[2].Prompt)
	}
}

func TestLLMSource_InvalidGrade(t *testing.T) {
	src := NewLLMSource(llm.NewMockProvider(), DefaultConfig())
	if _, err := src.Next(context.Background(), 7, 1); !errors.Is(err, ErrInvalidGrade) {
		t.Errorf("err = %v, want ErrInvalidGrade", err)
	}
}

func TestLLMSource_ProviderError(t *testing.T) {
	src := NewLLMSource(llm.NewMockProvider(), DefaultConfig())
	_, err := src.Next(context.Background(), 1, 1)
	if kind, ok := llm.KindOf(err); !ok || kind != llm.KindUnavailable {
		t.Errorf("err = %v, want an unavailable llm error", err)
	}
}
