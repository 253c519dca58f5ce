package thoughttree

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchConfig_Normalize(t *testing.T) {
	cfg := SearchConfig{}.Normalize()

	assert.Equal(t, DefaultMaxDepth, cfg.MaxDepth)
	assert.Equal(t, DefaultBranchesPerNode, cfg.BranchesPerNode)
	assert.Equal(t, DefaultBeamWidth, cfg.BeamWidth)
	assert.Equal(t, DefaultMinScoreThreshold, cfg.MinScoreThreshold)

	custom := SearchConfig{MaxDepth: 5, BranchesPerNode: 4, BeamWidth: 3, MinScoreThreshold: 0.6}.Normalize()
	assert.Equal(t, 5, custom.MaxDepth)
	assert.Equal(t, 0.6, custom.MinScoreThreshold)
}

func TestSearchConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     SearchConfig
		wantErr bool
	}{
		{"valid", SearchConfig{MaxDepth: 3, BranchesPerNode: 3, BeamWidth: 2, MinScoreThreshold: 0.3}, false},
		{"zero max depth", SearchConfig{BranchesPerNode: 3, BeamWidth: 2}, true},
		{"negative branches", SearchConfig{MaxDepth: 3, BranchesPerNode: -1, BeamWidth: 2}, true},
		{"zero beam", SearchConfig{MaxDepth: 3, BranchesPerNode: 3}, true},
		{"threshold above one", SearchConfig{MaxDepth: 3, BranchesPerNode: 3, BeamWidth: 2, MinScoreThreshold: 1.5}, true},
		{"threshold negative", SearchConfig{MaxDepth: 3, BranchesPerNode: 3, BeamWidth: 2, MinScoreThreshold: -0.1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBranch_ForwardOnlyTransitions(t *testing.T) {
	b := newBranch(nil, "step")
	require.Equal(t, StatusPending, b.Status)
	require.Equal(t, 0, b.Depth)

	require.NoError(t, b.advance(StatusEvaluated))
	require.NoError(t, b.advance(StatusPruned))

	assert.Error(t, b.advance(StatusEvaluated), "cannot move backwards")
	assert.Error(t, b.advance(StatusTerminal), "cannot move between final states")
	assert.Equal(t, StatusPruned, b.Status)
}

func TestBranch_ChildDepth(t *testing.T) {
	root := newBranch(nil, "root step")
	child := newBranch(root, "child step")
	grandchild := newBranch(child, "grandchild step")

	assert.Equal(t, root.ID, child.ParentID)
	assert.Equal(t, 1, child.Depth)
	assert.Equal(t, 2, grandchild.Depth)
	assert.NotEqual(t, child.ID, grandchild.ID)
}

func TestBranch_MarkEvaluated(t *testing.T) {
	b := newBranch(nil, "step")
	require.NoError(t, b.markEvaluated(0.95, true, "the answer", "solid"))

	assert.Equal(t, StatusTerminal, b.Status)
	assert.Equal(t, 0.95, b.Score)
	assert.Equal(t, "the answer", b.Answer)
	assert.Equal(t, "solid", b.Rationale)

	again := newBranch(nil, "step")
	require.NoError(t, again.markEvaluated(0.4, false, "", ""))
	assert.Equal(t, StatusEvaluated, again.Status)
	assert.Empty(t, again.Answer)
}

func TestSearchState_Observe(t *testing.T) {
	s := newSearchState("s1", "problem", SearchConfig{}.Normalize())

	a := s.addBranch(evaluated("a", 0.4))
	b := s.addBranch(evaluated("b", 0.8))
	c := s.addBranch(evaluated("c", 0.6))

	s.observe(a)
	assert.Equal(t, a.ID, s.BestSoFarID)
	s.observe(b)
	assert.Equal(t, b.ID, s.BestSoFarID)
	s.observe(c)
	assert.Equal(t, b.ID, s.BestSoFarID, "lower score never displaces the best")
	require.NotNil(t, s.bestSoFar())
	assert.Equal(t, 0.8, s.bestSoFar().Score)
}

func TestSearchState_Path(t *testing.T) {
	s := newSearchState("s1", "problem", SearchConfig{}.Normalize())
	root := s.addBranch(newBranch(nil, "first"))
	mid := s.addBranch(newBranch(root, "second"))
	leaf := s.addBranch(newBranch(mid, "third"))

	path := s.path(leaf)
	require.Len(t, path, 3)
	assert.Equal(t, "first", path[0].Content)
	assert.Equal(t, "second", path[1].Content)
	assert.Equal(t, "third", path[2].Content)

	single := s.path(root)
	require.Len(t, single, 1)
	assert.Equal(t, "first", single[0].Content)
}

func TestSearchState_JSONRoundTrip(t *testing.T) {
	s := newSearchState("s1", "problem", SearchConfig{}.Normalize())
	root := s.addBranch(newBranch(nil, "first"))
	require.NoError(t, root.markEvaluated(0.7, false, "", "fine"))
	s.Frontier = []string{root.ID}
	s.BestSoFarID = root.ID
	s.Phase = PhaseGenerating
	s.CurrentDepth = 1
	s.TotalExplored = 4
	s.Seq = 7

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var restored SearchState
	require.NoError(t, json.Unmarshal(data, &restored))

	assert.Equal(t, s.SearchID, restored.SearchID)
	assert.Equal(t, s.Phase, restored.Phase)
	assert.Equal(t, s.CurrentDepth, restored.CurrentDepth)
	assert.Equal(t, s.Seq, restored.Seq)
	assert.Equal(t, s.Frontier, restored.Frontier)
	assert.Equal(t, s.TotalExplored, restored.TotalExplored)
	require.Contains(t, restored.Branches, root.ID)
	assert.Equal(t, 0.7, restored.Branches[root.ID].Score)
	assert.Equal(t, StatusEvaluated, restored.Branches[root.ID].Status)
}
