package problemgen

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are a math tutor creating quick-fire arithmetic practice for children in grades 1-6.

Rules:
- Generate a single arithmetic problem using exactly one of: addition, subtraction, multiplication, division.
- The question text must contain exactly two whole numbers and nothing else numeric (no "2nd", no years).
- Subtraction answers are never negative. Division always divides exactly.
- The answer is a non-negative whole number.
- Keep the wording short, friendly and age-appropriate.
- Harder levels use larger numbers.
- Do not repeat any question from the "already asked" list.`

// buildUserMessage constructs the user message for a grade and level.
// prior is the session's recent questions, oldest first.
func buildUserMessage(grade, level int, ops []Operation, prior []string) string {
	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = string(op)
	}

	var b strings.Builder

	fmt.Fprintf(&b, "Grade: %d\n", grade)
	fmt.Fprintf(&b, "Level: %d\n", level)
	fmt.Fprintf(&b, "Number range: up to about %d\n", rangeHint(grade, level))
	fmt.Fprintf(&b, "Allowed operations: %s\n", strings.Join(names, ", "))

	b.WriteString("\nAlready asked in this session:\n")
	b.WriteString(numbered(prior))

	return b.String()
}

// rangeHint is the largest operand the local templates would produce for
// grade and level, so remote questions stay comparable in difficulty.
func rangeHint(grade, level int) int {
	top := 0
	for _, t := range eligible(DefaultTemplates, grade) {
		top = max(top, t.MaxValue)
	}
	return int(float64(top) * DifficultyMultiplier(max(level, 1)))
}

// allowedOperations returns the operations the local templates offer at grade,
// in canonical order.
func allowedOperations(grade int) []Operation {
	seen := make(map[Operation]bool)
	for _, t := range eligible(DefaultTemplates, grade) {
		seen[t.Operation] = true
	}
	var ops []Operation
	for _, op := range Operations {
		if seen[op] {
			ops = append(ops, op)
		}
	}
	return ops
}
