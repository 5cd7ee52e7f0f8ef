// Package hints produces encouraging hints for arithmetic questions. Hints
// come from an LLM when one is configured and from a canned set otherwise.
package hints

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/abhisek/mathsprint/internal/llm"
	"github.com/abhisek/mathsprint/internal/problemgen"
)

// ErrNoProvider is returned by Generate when no LLM is configured.
var ErrNoProvider = errors.New("hints: no llm provider")

// Request describes the question a hint is wanted for. Operation is kept
// as free text because it arrives unvalidated from clients.
type Request struct {
	Question  string `json:"question"`
	Operation string `json:"operation"`
	Grade     int    `json:"grade"`
}

// RequestFor builds a Request from a question.
func RequestFor(q *problemgen.Question) Request {
	return Request{Question: q.Text, Operation: string(q.Operation), Grade: q.Grade}
}

// Service generates hints. It is safe for concurrent use.
type Service struct {
	provider llm.Provider
	cfg      Config
	log      *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// Option configures a Service.
type Option func(*Service)

// WithRand makes canned hint selection draw from r.
func WithRand(r *rand.Rand) Option {
	return func(s *Service) { s.rng = r }
}

// NewService creates a hint service. A nil provider serves canned hints only.
func NewService(provider llm.Provider, cfg Config, log *zap.Logger, opts ...Option) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{provider: provider, cfg: cfg, log: log.Named("hints")}
	for _, o := range opts {
		o(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return s
}

// Hint returns a hint for q. It never fails.
func (s *Service) Hint(ctx context.Context, q *problemgen.Question) string {
	return s.HintFor(ctx, RequestFor(q))
}

// HintFor returns a generated hint, or a canned one for the operation if
// generation fails.
func (s *Service) HintFor(ctx context.Context, req Request) string {
	hint, err := s.Generate(ctx, req)
	if err != nil {
		if !errors.Is(err, ErrNoProvider) {
			s.log.Warn("hint generation failed, using canned hint",
				zap.String("operation", req.Operation), zap.Error(err))
		}
		return s.Fallback(req.Operation)
	}
	return hint
}

// Generate asks the LLM for a hint.
func (s *Service) Generate(ctx context.Context, req Request) (string, error) {
	if s.provider == nil {
		return "", ErrNoProvider
	}
	resp, err := s.provider.Generate(ctx, llm.Request{
		Purpose:     llm.PurposeHint,
		System:      buildSystemPrompt(req.Grade),
		Prompt:      buildUserMessage(req),
		Schema:      HintSchema,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("hint generation: %w", err)
	}

	var out struct {
		Hint string `json:"hint"`
	}
	if err := resp.Decode(&out); err != nil {
		return "", err
	}
	if hint := strings.TrimSpace(out.Hint); hint != "" {
		return hint, nil
	}
	return DefaultHint, nil
}

// Fallback picks one of the canned hints for op at random.
func (s *Service) Fallback(op string) string {
	hs := Canned(op)
	s.mu.Lock()
	i := s.rng.IntN(len(hs))
	s.mu.Unlock()
	return hs[i]
}
