// Package llm defines the external collaborator contracts for the
// search — branch generation and branch evaluation — and provides an
// OpenAI-backed implementation of both.
//
// Both calls are retriable but non-idempotent: a retried call may
// produce different text. The orchestrator's call ledger ensures a call
// whose result was already committed is never reissued.
package llm

import "context"

// Generator produces candidate reasoning branches.
type Generator interface {
	// Generate asks for up to count distinct reasoning continuations of
	// parentContent for the given problem. parentContent is empty for
	// root generation. Returning fewer than count items is valid;
	// returning zero is not an error.
	Generate(ctx context.Context, parentContent, problem string, count int) ([]string, error)
}

// Evaluator scores a reasoning branch's viability.
type Evaluator interface {
	// Evaluate scores branchContent against the problem.
	Evaluate(ctx context.Context, branchContent, problem string) (Evaluation, error)
}

// Evaluation is the outcome of scoring one branch.
type Evaluation struct {
	// Score is the viability score in [0.0, 1.0].
	Score float64 `json:"score"`

	// Terminal is true if the branch constitutes a complete final answer.
	Terminal bool `json:"is_terminal"`

	// Answer is the final answer when Terminal is true.
	Answer string `json:"answer,omitempty"`

	// Rationale briefly explains the score.
	Rationale string `json:"rationale,omitempty"`
}
