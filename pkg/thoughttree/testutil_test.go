package thoughttree

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/thoughttree/pkg/thoughttree/checkpoint"
	tterrors "github.com/randalmurphal/thoughttree/pkg/thoughttree/errors"
	"github.com/randalmurphal/thoughttree/pkg/thoughttree/llm"
)

// fakeGenerator returns scripted thoughts keyed by parent content
// (empty key = root generation). Missing keys yield zero thoughts.
type fakeGenerator struct {
	mu       sync.Mutex
	calls    int
	thoughts map[string][]string
	err      error
}

func (g *fakeGenerator) Generate(ctx context.Context, parentContent, problem string, count int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	out := g.thoughts[parentContent]
	if len(out) > count {
		out = out[:count]
	}
	return out, nil
}

func (g *fakeGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// lastStep extracts the final thought from a chained branch content.
func lastStep(content string) string {
	if i := strings.LastIndex(content, "→ "); i >= 0 {
		return content[i+len("→ "):]
	}
	return content
}

// fakeEvaluator returns scripted evaluations keyed by the last thought
// in the branch content. Unknown thoughts score zero. Thoughts listed
// in block wait for context cancellation instead of answering.
type fakeEvaluator struct {
	mu    sync.Mutex
	calls int
	evals map[string]llm.Evaluation
	errs  map[string]error
	block map[string]bool
}

func (e *fakeEvaluator) Evaluate(ctx context.Context, branchContent, problem string) (llm.Evaluation, error) {
	step := lastStep(branchContent)

	e.mu.Lock()
	e.calls++
	blocked := e.block[step]
	err := e.errs[step]
	eval := e.evals[step]
	e.mu.Unlock()

	if blocked {
		<-ctx.Done()
		return llm.Evaluation{}, ctx.Err()
	}
	if err != nil {
		return llm.Evaluation{}, err
	}
	return eval, nil
}

func (e *fakeEvaluator) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// testRetry keeps retry fast and single-shot so dropped-call tests do
// not sleep through backoff.
var testRetry = tterrors.NewRetryConfig(
	tterrors.WithMaxAttempts(1),
	tterrors.WithInitialBackoff(time.Millisecond),
	tterrors.WithMaxBackoff(time.Millisecond),
)

func newTestSubmitter(t *testing.T, store checkpoint.Substrate, gen llm.Generator, eval llm.Evaluator, opts ...Option) *Submitter {
	t.Helper()
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	base := []Option{WithLogger(quiet), WithRetryConfig(testRetry)}
	sub, err := NewSubmitter(store, gen, eval, append(base, opts...)...)
	require.NoError(t, err)
	return sub
}

// branchScript wires a generator and evaluator for the common two-level
// test tree used across orchestrator and resume tests:
//
//	root -> A (0.8), B (0.6)
//	A    -> A1 (0.9), A2 (0.2)
//	B    -> B1 (0.7)
func branchScript() (*fakeGenerator, *fakeEvaluator) {
	gen := &fakeGenerator{thoughts: map[string][]string{
		"":  {"A", "B"},
		"A": {"A1", "A2"},
		"B": {"B1"},
	}}
	eval := &fakeEvaluator{evals: map[string]llm.Evaluation{
		"A":  {Score: 0.8},
		"B":  {Score: 0.6},
		"A1": {Score: 0.9},
		"A2": {Score: 0.2},
		"B1": {Score: 0.7},
	}}
	return gen, eval
}
