package problemgen

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Validator checks a question obtained from outside the local generator.
// Implementations should be stateless and safe for concurrent use.
type Validator interface {
	// Name returns a short identifier used in error messages.
	Name() string

	// Validate returns nil if the question passes.
	Validate(q *Question) *ValidationError
}

// ValidationError describes why a question failed validation.
type ValidationError struct {
	Validator string
	Message   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validator %q: %s", e.Validator, e.Message)
}

// DefaultValidators is the chain Verify runs, in order.
var DefaultValidators = []Validator{
	&StructuralValidator{},
	&MathCheckValidator{},
}

// Verify runs DefaultValidators and returns the first failure.
func Verify(q *Question) error {
	if q == nil {
		return &ValidationError{Validator: "structural", Message: "nil question"}
	}
	for _, v := range DefaultValidators {
		if err := v.Validate(q); err != nil {
			return err
		}
	}
	return nil
}

// StructuralValidator checks required fields and ranges.
type StructuralValidator struct{}

func (v *StructuralValidator) Name() string { return "structural" }

func (v *StructuralValidator) Validate(q *Question) *ValidationError {
	fail := func(format string, args ...any) *ValidationError {
		return &ValidationError{Validator: v.Name(), Message: fmt.Sprintf(format, args...)}
	}
	switch {
	case strings.TrimSpace(q.Text) == "":
		return fail("empty question text")
	case !q.Operation.Valid():
		return fail("unknown operation %q", q.Operation)
	case !ValidGrade(q.Grade):
		return fail("grade %d out of range", q.Grade)
	case q.Difficulty < 1:
		return fail("difficulty %d below 1", q.Difficulty)
	case q.Answer < 0:
		return fail("negative answer %d", q.Answer)
	}
	return nil
}

// MathCheckValidator recomputes the answer from the two operands in the
// question text. Phrasings may list operands in either order ("Subtract 3
// from 9"), so both orders are tried.
type MathCheckValidator struct{}

var integerRe = regexp.MustCompile(`\d+`)

func (v *MathCheckValidator) Name() string { return "math-check" }

func (v *MathCheckValidator) Validate(q *Question) *ValidationError {
	nums := integerRe.FindAllString(q.Text, -1)
	if len(nums) != 2 {
		return &ValidationError{
			Validator: v.Name(),
			Message:   fmt.Sprintf("expected 2 operands in %q, found %d", q.Text, len(nums)),
		}
	}
	x, _ := strconv.Atoi(nums[0])
	y, _ := strconv.Atoi(nums[1])

	if !checks(q.Operation, x, y, q.Answer) && !checks(q.Operation, y, x, q.Answer) {
		return &ValidationError{
			Validator: v.Name(),
			Message:   fmt.Sprintf("%s of %d and %d does not give %d", q.Operation, x, y, q.Answer),
		}
	}
	return nil
}

// checks reports whether "a op b" yields answer under the generator's
// domain rules: subtraction never goes negative, division is exact.
func checks(op Operation, a, b, answer int) bool {
	switch op {
	case OpAddition:
		return a+b == answer
	case OpSubtraction:
		return a >= b && a-b == answer
	case OpMultiplication:
		return a*b == answer
	case OpDivision:
		return b != 0 && a%b == 0 && a/b == answer
	}
	return false
}
