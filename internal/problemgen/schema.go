package problemgen

import "github.com/abhisek/mathsprint/internal/llm"

// QuestionSchema defines the JSON schema for LLM question generation responses.
var QuestionSchema = &llm.Schema{
	Name:        "arithmetic-question",
	Description: "A single arithmetic practice question with its integer answer",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"question": map[string]any{
				"type":        "string",
				"description": "The question shown to the student, containing exactly two numbers",
			},
			"answer": map[string]any{
				"type":        "integer",
				"minimum":     0,
				"description": "The correct whole-number answer",
			},
			"operation": map[string]any{
				"type":        "string",
				"enum":        []any{"addition", "subtraction", "multiplication", "division"},
				"description": "The arithmetic operation the question exercises",
			},
		},
		"required":             []any{"question", "answer", "operation"},
		"additionalProperties": false,
	},
}
