package thoughttree

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func evaluated(id string, score float64) *Branch {
	return &Branch{ID: id, Score: score, Status: StatusEvaluated}
}

func ids(branches []*Branch) []string {
	var out []string
	for _, b := range branches {
		out = append(out, b.ID)
	}
	return out
}

func TestPrune(t *testing.T) {
	tests := []struct {
		name        string
		branches    []*Branch
		beamWidth   int
		threshold   float64
		wantKept    []string
		wantDropped []string
	}{
		{
			name: "keeps top beam by score",
			branches: []*Branch{
				evaluated("a", 0.4), evaluated("b", 0.9), evaluated("c", 0.7),
			},
			beamWidth: 2, threshold: 0.0,
			wantKept:    []string{"b", "c"},
			wantDropped: []string{"a"},
		},
		{
			name: "threshold filters before beam",
			branches: []*Branch{
				evaluated("a", 0.1), evaluated("b", 0.9), evaluated("c", 0.2),
			},
			beamWidth: 3, threshold: 0.3,
			wantKept:    []string{"b"},
			wantDropped: []string{"a", "c"},
		},
		{
			name: "ties keep generation order",
			branches: []*Branch{
				evaluated("first", 0.5), evaluated("second", 0.5), evaluated("third", 0.5),
			},
			beamWidth: 2, threshold: 0.0,
			wantKept:    []string{"first", "second"},
			wantDropped: []string{"third"},
		},
		{
			name: "all below threshold empties frontier",
			branches: []*Branch{
				evaluated("a", 0.1), evaluated("b", 0.2),
			},
			beamWidth: 2, threshold: 0.3,
			wantKept:    nil,
			wantDropped: []string{"a", "b"},
		},
		{
			name:      "empty input",
			branches:  nil,
			beamWidth: 2, threshold: 0.3,
			wantKept:    nil,
			wantDropped: nil,
		},
		{
			name: "score exactly at threshold survives",
			branches: []*Branch{
				evaluated("a", 0.3),
			},
			beamWidth: 1, threshold: 0.3,
			wantKept:    []string{"a"},
			wantDropped: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kept, dropped := prune(tt.branches, tt.beamWidth, tt.threshold)
			assert.Equal(t, tt.wantKept, ids(kept))
			assert.ElementsMatch(t, tt.wantDropped, ids(dropped))
			assert.LessOrEqual(t, len(kept), tt.beamWidth)
		})
	}
}

func TestPrune_Deterministic(t *testing.T) {
	branches := []*Branch{
		evaluated("a", 0.5), evaluated("b", 0.9), evaluated("c", 0.5),
		evaluated("d", 0.7), evaluated("e", 0.9),
	}

	first, _ := prune(branches, 3, 0.3)
	for range 10 {
		again, _ := prune(branches, 3, 0.3)
		assert.Equal(t, ids(first), ids(again))
	}
	assert.Equal(t, []string{"b", "e", "d"}, ids(first))
}

func TestPrune_DoesNotMutateInput(t *testing.T) {
	branches := []*Branch{
		evaluated("a", 0.4), evaluated("b", 0.9),
	}
	prune(branches, 1, 0.0)
	assert.Equal(t, "a", branches[0].ID)
	assert.Equal(t, StatusEvaluated, branches[0].Status)
}
