package solution

import "github.com/abhisek/stepwise/internal/llm"

// StepsSchema is the structured-output schema for solutions and revisions.
var StepsSchema = &llm.Schema{
	Name:        "solution-steps",
	Description: "An ordered step-by-step solution to a math problem",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"steps": map[string]any{
				"type":        "array",
				"minItems":    1,
				"description": "One entry per logical step, in order, with reasoning and work shown",
				"items": map[string]any{
					"type": "string",
				},
			},
		},
		"required":             []any{"steps"},
		"additionalProperties": false,
	},
}
