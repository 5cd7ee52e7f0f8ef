package problemgen

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/abhisek/mathsprint/internal/llm"
)

// LLMSource asks an LLM provider for questions. Every response passes the
// configured validator chain before it is returned. Questions already asked
// are tracked per game session, taken from llm.SessionFrom(ctx).
type LLMSource struct {
	provider llm.Provider
	config   Config
	asked    *history
}

// NewLLMSource creates an LLMSource with the given provider and config.
func NewLLMSource(provider llm.Provider, cfg Config) *LLMSource {
	return &LLMSource{provider: provider, config: cfg, asked: newHistory()}
}

// questionOutput is the raw LLM response before validation.
type questionOutput struct {
	Question  string `json:"question"`
	Answer    int    `json:"answer"`
	Operation string `json:"operation"`
}

func (s *LLMSource) Next(ctx context.Context, grade, level int) (*Question, error) {
	if !ValidGrade(grade) {
		return nil, ErrInvalidGrade
	}
	level = max(level, 1)

	ops := allowedOperations(grade)
	if len(ops) == 0 {
		return nil, &NoTemplateError{Grade: grade}
	}

	session := llm.SessionFrom(ctx)
	prior := s.asked.recent(session, s.config.MaxPriorQuestions)

	req := llm.Request{
		Purpose:     llm.PurposeQuestionGen,
		System:      systemPrompt,
		Prompt:      buildUserMessage(grade, level, ops, prior),
		Schema:      QuestionSchema,
		MaxTokens:   s.config.MaxTokens,
		Temperature: s.config.Temperature,
	}

	resp, err := s.provider.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("LLM generation failed: %w", err)
	}

	var raw questionOutput
	if err := resp.Decode(&raw); err != nil {
		return nil, err
	}

	q := &Question{
		ID:         uuid.NewString(),
		Text:       raw.Question,
		Answer:     raw.Answer,
		Operation:  Operation(raw.Operation),
		Grade:      grade,
		Difficulty: level,
	}

	for _, v := range s.config.Validators {
		if verr := v.Validate(q); verr != nil {
			return nil, verr
		}
	}

	s.asked.add(session, q.Text)
	return q, nil
}
