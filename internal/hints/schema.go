package hints

import "github.com/abhisek/mathsprint/internal/llm"

// HintSchema defines the JSON schema for hint generation.
var HintSchema = &llm.Schema{
	Name:        "math-hint",
	Description: "An encouraging hint for an arithmetic question",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"hint": map[string]any{
				"type":        "string",
				"description": "One or two short sentences that guide the student without giving the answer",
			},
		},
		"required":             []any{"hint"},
		"additionalProperties": false,
	},
}
