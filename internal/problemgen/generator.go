package problemgen

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// ErrInvalidGrade is returned when a grade outside [MinGrade, MaxGrade] is
// requested through a validating entry point.
var ErrInvalidGrade = errors.New("invalid grade level")

// NoTemplateError indicates that no template is available for the grade.
// It points at a configuration defect, not a runtime condition.
type NoTemplateError struct {
	Grade int
}

func (e *NoTemplateError) Error() string {
	return fmt.Sprintf("no templates found for grade %d", e.Grade)
}

// maxMultiplier caps how far a template's range is scaled by level.
const maxMultiplier = 3.0

// Generator produces arithmetic questions from a template table.
// It is safe for concurrent use.
type Generator struct {
	templates []Template

	mu  sync.Mutex
	rng *rand.Rand

	newID func() string
}

// Option configures a Generator.
type Option func(*Generator)

// WithRand makes the generator draw from r. Useful for deterministic tests.
func WithRand(r *rand.Rand) Option {
	return func(g *Generator) { g.rng = r }
}

// WithTemplates replaces the built-in template table.
func WithTemplates(ts []Template) Option {
	return func(g *Generator) { g.templates = ts }
}

// WithIDFunc overrides question id generation.
func WithIDFunc(fn func() string) Option {
	return func(g *Generator) { g.newID = fn }
}

// New creates a Generator over DefaultTemplates.
func New(opts ...Option) *Generator {
	g := &Generator{
		templates: DefaultTemplates,
		rng:       rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// DifficultyMultiplier returns the operand range scale for a level.
func DifficultyMultiplier(level int) float64 {
	return min(float64(level)*0.5+1, maxMultiplier)
}

// Generate produces a question for grade at the given difficulty level.
// Levels below 1 are treated as 1.
func (g *Generator) Generate(grade, level int) (*Question, error) {
	if level < 1 {
		level = 1
	}

	candidates := eligible(g.templates, grade)
	if len(candidates) == 0 {
		return nil, &NoTemplateError{Grade: grade}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	tmpl := candidates[g.rng.IntN(len(candidates))]
	phrasing := tmpl.Phrasings[g.rng.IntN(len(tmpl.Phrasings))]

	m := DifficultyMultiplier(level)
	lo := int(float64(tmpl.MinValue) * m)
	hi := int(float64(tmpl.MaxValue) * m)

	var a, b, answer int
	switch tmpl.Operation {
	case OpAddition:
		a = g.between(lo, hi)
		b = g.between(lo, hi)
		answer = a + b
	case OpSubtraction:
		a = g.between(lo, hi)
		b = g.between(1, a)
		answer = a - b
	case OpMultiplication:
		a = g.between(lo, hi)
		b = g.between(lo, hi)
		answer = a * b
	case OpDivision:
		// The dividend is derived, never sampled, so the division is exact.
		b = g.between(lo, hi)
		answer = g.between(lo, hi)
		a = b * answer
	default:
		return nil, fmt.Errorf("unknown operation %q in template", tmpl.Operation)
	}

	return &Question{
		ID:         g.newID(),
		Text:       render(phrasing, a, b),
		Answer:     answer,
		Operation:  tmpl.Operation,
		Grade:      tmpl.Tier,
		Difficulty: level,
	}, nil
}

// between returns a uniform integer in [lo, hi]. Callers hold g.mu.
func (g *Generator) between(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + g.rng.IntN(hi-lo+1)
}

// render substitutes operands into a phrasing.
func render(phrasing string, a, b int) string {
	return strings.NewReplacer(
		"{dividend}", strconv.Itoa(a),
		"{a}", strconv.Itoa(a),
		"{b}", strconv.Itoa(b),
	).Replace(phrasing)
}
