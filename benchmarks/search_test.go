package benchmarks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/randalmurphal/thoughttree/pkg/thoughttree"
	"github.com/randalmurphal/thoughttree/pkg/thoughttree/checkpoint"
	tterrors "github.com/randalmurphal/thoughttree/pkg/thoughttree/errors"
	"github.com/randalmurphal/thoughttree/pkg/thoughttree/llm"
)

// instantGenerator fans out count synthetic thoughts with no latency,
// so the benchmark measures orchestration overhead, not the model.
type instantGenerator struct{}

func (instantGenerator) Generate(_ context.Context, parentContent, _ string, count int) ([]string, error) {
	out := make([]string, count)
	for i := range out {
		out[i] = fmt.Sprintf("thought %d under %d chars of context", i, len(parentContent))
	}
	return out, nil
}

type instantEvaluator struct{}

func (instantEvaluator) Evaluate(_ context.Context, branchContent, _ string) (llm.Evaluation, error) {
	// Deterministic spread of scores so pruning has work to do.
	return llm.Evaluation{Score: 0.3 + float64(len(branchContent)%7)/10}, nil
}

func benchSubmitter(b *testing.B, store checkpoint.Substrate) *thoughttree.Submitter {
	b.Helper()
	sub, err := thoughttree.NewSubmitter(store, instantGenerator{}, instantEvaluator{},
		thoughttree.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		thoughttree.WithRetryConfig(tterrors.NewRetryConfig(tterrors.WithMaxAttempts(1))),
	)
	if err != nil {
		b.Fatal(err)
	}
	return sub
}

// BenchmarkSearch_Memory runs a full three-deep search against the
// in-memory substrate.
func BenchmarkSearch_Memory(b *testing.B) {
	sub := benchSubmitter(b, checkpoint.NewMemoryStore())
	cfg := thoughttree.SearchConfig{MaxDepth: 3, BranchesPerNode: 3, BeamWidth: 2, MinScoreThreshold: 0.3}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := sub.Submit(context.Background(), "benchmark problem", cfg); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkSearch_Wide stresses the fan-out barrier with a wide beam.
func BenchmarkSearch_Wide(b *testing.B) {
	sub := benchSubmitter(b, checkpoint.NewMemoryStore())
	cfg := thoughttree.SearchConfig{MaxDepth: 2, BranchesPerNode: 8, BeamWidth: 6, MinScoreThreshold: 0.1}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := sub.Submit(context.Background(), "benchmark problem", cfg); err != nil {
			b.Fatal(err)
		}
	}
}
