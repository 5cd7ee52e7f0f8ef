// Package client talks to a mathsprint server. It lets the terminal game
// play against a shared server while keeping local fallbacks for every
// call.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/mathsprint/internal/analytics"
	"github.com/abhisek/mathsprint/internal/hints"
	"github.com/abhisek/mathsprint/internal/problemgen"
	"github.com/abhisek/mathsprint/internal/store"
)

// DefaultTimeout bounds each request when Config.Timeout is zero.
const DefaultTimeout = 10 * time.Second

// ErrNoServer is returned when no server URL is configured.
var ErrNoServer = errors.New("client: no server url configured")

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned HTTP %d", e.Code)
	}
	return fmt.Sprintf("server returned HTTP %d: %s", e.Code, e.Message)
}

// Config holds client settings.
type Config struct {
	ServerURL string
	Timeout   time.Duration
}

// Client calls the mathsprint HTTP API.
type Client struct {
	base     string
	http     *http.Client
	fallback *hints.Service
	log      *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithFallbackHints sets the service used for canned hints when the
// server cannot be reached.
func WithFallbackHints(s *hints.Service) Option {
	return func(c *Client) { c.fallback = s }
}

// New creates a Client for cfg.ServerURL.
func New(cfg Config, log *zap.Logger, opts ...Option) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.ServerURL), "/")
	if base == "" {
		return nil, ErrNoServer
	}
	if log == nil {
		log = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	c := &Client{
		base: base,
		http: &http.Client{Timeout: timeout},
		log:  log.Named("client"),
	}
	for _, o := range opts {
		o(c)
	}
	if c.fallback == nil {
		c.fallback = hints.NewService(nil, hints.DefaultConfig(), log)
	}
	return c, nil
}

// FetchQuestion asks the server for a question. The result is verified
// before it is returned.
func (c *Client) FetchQuestion(ctx context.Context, grade, level int) (*problemgen.Question, error) {
	var q problemgen.Question
	body := map[string]int{"grade": grade, "level": level}
	if err := c.do(ctx, http.MethodPost, "/api/game/question", body, &q); err != nil {
		return nil, fmt.Errorf("fetch question: %w", err)
	}
	if err := problemgen.Verify(&q); err != nil {
		return nil, fmt.Errorf("fetch question: %w", err)
	}
	return &q, nil
}

// Next implements problemgen.Source.
func (c *Client) Next(ctx context.Context, grade, level int) (*problemgen.Question, error) {
	return c.FetchQuestion(ctx, grade, level)
}

// PersistAnswer sends rec to the server. The server sets the timestamp.
func (c *Client) PersistAnswer(ctx context.Context, rec store.AnswerRecord) error {
	var resp struct {
		Success bool `json:"success"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/game/answer", rec, &resp); err != nil {
		return fmt.Errorf("persist answer: %w", err)
	}
	if !resp.Success {
		return errors.New("persist answer: server did not confirm")
	}
	return nil
}

// Record implements session.Recorder.
func (c *Client) Record(ctx context.Context, rec store.AnswerRecord) error {
	return c.PersistAnswer(ctx, rec)
}

// FetchHint asks the server for a hint. Any failure yields a canned hint
// for the operation.
func (c *Client) FetchHint(ctx context.Context, req hints.Request) string {
	var resp struct {
		Hint string `json:"hint"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/game/hint", req, &resp); err != nil {
		c.log.Warn("hint request failed, using canned hint", zap.Error(err))
		return c.fallback.Fallback(req.Operation)
	}
	if strings.TrimSpace(resp.Hint) == "" {
		return c.fallback.Fallback(req.Operation)
	}
	return resp.Hint
}

// Hint implements session.HintSource.
func (c *Client) Hint(ctx context.Context, q *problemgen.Question) string {
	return c.FetchHint(ctx, hints.RequestFor(q))
}

// Leaderboard fetches the ranked leaderboard. Any failure yields an empty
// slice.
func (c *Client) Leaderboard(ctx context.Context) []analytics.LeaderboardEntry {
	var out []analytics.LeaderboardEntry
	if err := c.do(ctx, http.MethodGet, "/api/leaderboard", nil, &out); err != nil {
		c.log.Warn("leaderboard request failed", zap.Error(err))
		return []analytics.LeaderboardEntry{}
	}
	if out == nil {
		out = []analytics.LeaderboardEntry{}
	}
	return out
}

// StudentStats fetches the teacher dashboard. Any failure yields an empty
// slice.
func (c *Client) StudentStats(ctx context.Context) []analytics.StudentStats {
	var out []analytics.StudentStats
	if err := c.do(ctx, http.MethodGet, "/api/teacher/students", nil, &out); err != nil {
		c.log.Warn("student stats request failed", zap.Error(err))
		return []analytics.StudentStats{}
	}
	if out == nil {
		out = []analytics.StudentStats{}
	}
	return out
}

// Health checks that the server is up.
func (c *Client) Health(ctx context.Context) error {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/health", nil, &resp); err != nil {
		return fmt.Errorf("health: %w", err)
	}
	if resp.Status != "ok" {
		return fmt.Errorf("health: status %q", resp.Status)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var msg struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&msg)
		return &StatusError{Code: resp.StatusCode, Message: msg.Message}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
