package problemgen

import (
	"context"

	"go.uber.org/zap"
)

// Source hands out the next question for a grade and level. A Source may
// be served remotely; local generation is always available as a fallback.
type Source interface {
	Next(ctx context.Context, grade, level int) (*Question, error)
}

// LocalSource serves questions from a Generator.
type LocalSource struct {
	gen *Generator
}

// NewLocalSource wraps gen as a Source.
func NewLocalSource(gen *Generator) *LocalSource {
	return &LocalSource{gen: gen}
}

func (s *LocalSource) Next(_ context.Context, grade, level int) (*Question, error) {
	return s.gen.Generate(grade, level)
}

// FallbackSource asks a primary source first and falls back to local
// generation on any failure, including a question that does not verify.
// Primary failures are logged and never returned.
type FallbackSource struct {
	primary Source
	local   *Generator
	log     *zap.Logger
}

// NewFallbackSource creates a FallbackSource. A nil primary means local only.
func NewFallbackSource(primary Source, local *Generator, log *zap.Logger) *FallbackSource {
	if log == nil {
		log = zap.NewNop()
	}
	return &FallbackSource{primary: primary, local: local, log: log}
}

func (s *FallbackSource) Next(ctx context.Context, grade, level int) (*Question, error) {
	if s.primary != nil {
		q, err := s.primary.Next(ctx, grade, level)
		if err == nil {
			err = Verify(q)
		}
		if err == nil {
			return q, nil
		}
		s.log.Warn("remote question unavailable, generating locally",
			zap.Int("grade", grade),
			zap.Int("level", level),
			zap.Error(err),
		)
	}
	return s.local.Generate(grade, level)
}
