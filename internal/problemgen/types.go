package problemgen

import (
	"encoding/json"
	"fmt"
)

// Operation is the arithmetic operation a question exercises.
type Operation string

const (
	OpAddition       Operation = "addition"
	OpSubtraction    Operation = "subtraction"
	OpMultiplication Operation = "multiplication"
	OpDivision       Operation = "division"
)

// Operations lists every operation in canonical order.
var Operations = []Operation{OpAddition, OpSubtraction, OpMultiplication, OpDivision}

// Valid reports whether op is one of the four known operations.
func (op Operation) Valid() bool {
	switch op {
	case OpAddition, OpSubtraction, OpMultiplication, OpDivision:
		return true
	}
	return false
}

// ParseOperation converts a lowercase operation name to an Operation.
func ParseOperation(s string) (Operation, error) {
	op := Operation(s)
	if !op.Valid() {
		return "", fmt.Errorf("unknown operation %q", s)
	}
	return op, nil
}

// UnmarshalJSON rejects operation names outside the known set.
func (op *Operation) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseOperation(s)
	if err != nil {
		return err
	}
	*op = parsed
	return nil
}

// Question represents a generated arithmetic question ready for display.
// Questions are immutable once generated.
type Question struct {
	// ID is an opaque unique token.
	ID string `json:"id"`

	// Text is the prompt with all placeholders substituted,
	// e.g. "What is 7 + 5?".
	Text string `json:"question"`

	// Answer is the correct integer answer.
	Answer int `json:"answer"`

	Operation Operation `json:"operation"`

	// Grade is the tier of the template the question came from. It may be
	// lower than the grade that was requested.
	Grade int `json:"grade"`

	// Difficulty is the level the question was generated for.
	Difficulty int `json:"difficulty"`
}

const (
	MinGrade = 1
	MaxGrade = 6
)

// ValidGrade reports whether grade is inside the supported range.
func ValidGrade(grade int) bool {
	return grade >= MinGrade && grade <= MaxGrade
}
