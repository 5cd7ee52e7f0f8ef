package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatServer(t *testing.T, status int, body map[string]any) (string, *capture) {
	t.Helper()
	sent := &capture{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		sent.record(r)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv.URL + "/v1", sent
}

func chatReply(content, finish string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"model":   "gpt-4o-mini-2024-07-18",
		"choices": []map[string]any{{"index": 0, "message": map[string]any{"role": "assistant", "content": content}, "finish_reason": finish}},
		"usage":   map[string]any{"prompt_tokens": 90, "completion_tokens": 21, "total_tokens": 111},
	}
}

func TestOpenAIQuestion(t *testing.T) {
	url, sent := chatServer(t, http.StatusOK,
		chatReply(`{"question":"What is 12 - 5?","answer":7,"operation":"subtraction"}`, "stop"))
	p, err := NewOpenAIProvider(ProviderConfig{APIKey: "sk-test", Model: "gpt-4o-mini", BaseURL: url})
	require.NoError(t, err)

	resp, err := p.Generate(context.Background(), Request{
		Purpose:   PurposeQuestionGen,
		System:    "You write arithmetic practice.",
		Prompt:    "Grade: 3\nLevel: 2",
		Schema:    questionSchema(),
		MaxTokens: 256,
	})
	require.NoError(t, err)
	assert.Equal(t, Usage{InputTokens: 90, OutputTokens: 21}, resp.Usage)
	assert.Equal(t, "gpt-4o-mini-2024-07-18", resp.Model)
	assert.Equal(t, StopEnd, resp.Stop)

	messages := sent.get("messages").([]any)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
	format := sent.get("response_format").(map[string]any)
	assert.Equal(t, "json_schema", format["type"])
	schema := format["json_schema"].(map[string]any)
	assert.Equal(t, "arithmetic-question", schema["name"])
	assert.Equal(t, true, schema["strict"])
}

func TestOpenAIHintWithoutSystem(t *testing.T) {
	url, sent := chatServer(t, http.StatusOK, chatReply(`{"hint":"Take 5 away from 12 one at a time."}`, "stop"))
	p, err := NewOpenAIProvider(ProviderConfig{APIKey: "sk-test", Model: "gpt-4o-mini", BaseURL: url})
	require.NoError(t, err)

	resp, err := p.Generate(context.Background(), Request{Purpose: PurposeHint, Prompt: "12 - 5", Schema: hintSchema(), MaxTokens: 64})
	require.NoError(t, err)
	var out struct{ Hint string }
	require.NoError(t, resp.Decode(&out))
	assert.Equal(t, "Take 5 away from 12 one at a time.", out.Hint)
	assert.Len(t, sent.get("messages").([]any), 1)
}

func TestOpenAITruncated(t *testing.T) {
	url, _ := chatServer(t, http.StatusOK, chatReply(`{"question":"What is`, "length"))
	p, err := NewOpenAIProvider(ProviderConfig{APIKey: "sk-test", Model: "gpt-4o-mini", BaseURL: url})
	require.NoError(t, err)

	_, err = p.Generate(context.Background(), Request{Prompt: "q", Schema: questionSchema(), MaxTokens: 4})
	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, KindTruncated, e.Kind)
	assert.Equal(t, `{"question":"What is`, string(e.Content))
}

func TestOpenAIErrors(t *testing.T) {
	errBody := map[string]any{"error": map[string]any{"message": "nope", "type": "invalid_request_error"}}
	tests := []struct {
		status int
		want   ErrorKind
	}{
		{http.StatusTooManyRequests, KindRateLimited},
		{http.StatusUnauthorized, KindRejected},
		{http.StatusBadGateway, KindUnavailable},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			url, _ := chatServer(t, tt.status, errBody)
			p, err := NewOpenAIProvider(ProviderConfig{APIKey: "sk-test", Model: "gpt-4o-mini", BaseURL: url})
			require.NoError(t, err)

			_, err = p.Generate(context.Background(), Request{Prompt: "q", MaxTokens: 16})
			if kind, _ := KindOf(err); kind != tt.want {
				t.Errorf("kind = %v, want %v (err %v)", kind, tt.want, err)
			}
		})
	}
}

func TestOpenAIRequiresKey(t *testing.T) {
	_, err := NewOpenAIProvider(ProviderConfig{Model: "gpt-4o-mini"})
	assert.Error(t, err)
	_, err = NewOpenRouterProvider(ProviderConfig{Model: "google/gemini-2.0-flash-exp"})
	assert.Error(t, err)
}

func TestOpenRouterProvider(t *testing.T) {
	p, err := NewOpenRouterProvider(ProviderConfig{APIKey: "or-test", Model: "google/gemini-2.0-flash-exp"})
	require.NoError(t, err)
	assert.Equal(t, "google/gemini-2.0-flash-exp", p.ModelID())
	assert.Equal(t, ProviderOpenRouter, p.name)

	url, sent := chatServer(t, http.StatusTooManyRequests, map[string]any{"error": map[string]any{"message": "slow down"}})
	p, err = NewOpenRouterProvider(ProviderConfig{APIKey: "or-test", Model: "google/gemini-2.0-flash-exp", BaseURL: url})
	require.NoError(t, err)

	_, err = p.Generate(context.Background(), Request{Purpose: PurposeHint, Prompt: "h", MaxTokens: 16})
	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, ProviderOpenRouter, e.Provider)
	assert.Equal(t, KindRateLimited, e.Kind)
	assert.Equal(t, "google/gemini-2.0-flash-exp", sent.get("model"))
}
