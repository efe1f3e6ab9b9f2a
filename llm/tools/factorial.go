package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"quiver/llm"
)

const FactorialToolName = "calculate_factorial"

const maxFactorialInput = 10

type factorialParams struct {
	N int `json:"n"`
}

// FactorialDeclaration describes the factorial tool to the model.
func FactorialDeclaration() llm.ToolDeclaration {
	return llm.ToolDeclaration{
		Type: "function",
		Function: llm.FunctionSpec{
			Name:        FactorialToolName,
			Description: "Calculate the factorial of a non-negative integer between 0 and 10.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"n": map[string]any{
						"type":        "integer",
						"description": "The number to compute the factorial of (0-10).",
					},
				},
				"required": []string{"n"},
			},
		},
	}
}

// FactorialHandler computes n! for 0 <= n <= 10.
func FactorialHandler(ctx context.Context, arguments string) (string, error) {
	var params factorialParams
	if err := json.Unmarshal([]byte(arguments), &params); err != nil {
		return Error(fmt.Sprintf("invalid arguments: %v", err))
	}
	if params.N < 0 || params.N > maxFactorialInput {
		return Error(fmt.Sprintf("n must be between 0 and %d, got %d", maxFactorialInput, params.N))
	}

	result := 1
	for i := 2; i <= params.N; i++ {
		result *= i
	}
	return Success(fmt.Sprintf("%d! = %d", params.N, result), nil)
}
