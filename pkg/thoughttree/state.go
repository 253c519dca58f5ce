package thoughttree

import (
	"fmt"
)

// Phase names one state of the search state machine. The phase stored
// in a checkpoint is the next phase to execute, so a resumed search
// picks up exactly where the crashed one left off.
type Phase string

const (
	PhaseInitializing Phase = "initializing"
	PhaseGenerating   Phase = "generating_branches"
	PhaseEvaluating   Phase = "evaluating_branches"
	PhasePruning      Phase = "pruning"
	PhaseChecking     Phase = "checking_termination"
	PhaseFinalizing   Phase = "finalizing"
	PhaseCompleted    Phase = "completed"
	PhaseFailed       Phase = "failed"
)

// Default search parameters, matching the submission defaults
// documented on SearchConfig.
const (
	DefaultMaxDepth          = 3
	DefaultBranchesPerNode   = 3
	DefaultBeamWidth         = 2
	DefaultMinScoreThreshold = 0.3
)

// SearchConfig controls the shape of one beam search. The zero value
// is usable after Normalize.
type SearchConfig struct {
	// MaxDepth is the number of depth iterations to run. Generated
	// branches live at depths 0 through MaxDepth-1.
	MaxDepth int `json:"max_depth" yaml:"max_depth"`

	// BranchesPerNode is how many children each surviving branch
	// requests per generation call.
	BranchesPerNode int `json:"branches_per_node" yaml:"branches_per_node"`

	// BeamWidth caps the frontier after each pruning step.
	BeamWidth int `json:"beam_width" yaml:"beam_width"`

	// MinScoreThreshold discards branches scoring below it.
	MinScoreThreshold float64 `json:"min_score_threshold" yaml:"min_score_threshold"`
}

// Normalize fills zero fields with defaults.
func (c SearchConfig) Normalize() SearchConfig {
	if c.MaxDepth == 0 {
		c.MaxDepth = DefaultMaxDepth
	}
	if c.BranchesPerNode == 0 {
		c.BranchesPerNode = DefaultBranchesPerNode
	}
	if c.BeamWidth == 0 {
		c.BeamWidth = DefaultBeamWidth
	}
	if c.MinScoreThreshold == 0 {
		c.MinScoreThreshold = DefaultMinScoreThreshold
	}
	return c
}

// Validate rejects configs that cannot drive a search.
func (c SearchConfig) Validate() error {
	if c.MaxDepth <= 0 {
		return fmt.Errorf("max_depth must be positive, got %d", c.MaxDepth)
	}
	if c.BranchesPerNode <= 0 {
		return fmt.Errorf("branches_per_node must be positive, got %d", c.BranchesPerNode)
	}
	if c.BeamWidth <= 0 {
		return fmt.Errorf("beam_width must be positive, got %d", c.BeamWidth)
	}
	if c.MinScoreThreshold < 0 || c.MinScoreThreshold > 1 {
		return fmt.Errorf("min_score_threshold must be in [0,1], got %g", c.MinScoreThreshold)
	}
	return nil
}

// SearchState is the durable state of one search. It round-trips
// through JSON so each phase transition can be checkpointed and the
// search resumed after a crash. Branches are referenced by ID;
// the Branches map archives every branch ever created for ancestor
// path reconstruction.
type SearchState struct {
	SearchID      string             `json:"search_id"`
	Problem       string             `json:"problem"`
	Config        SearchConfig       `json:"config"`
	Phase         Phase              `json:"phase"`
	CurrentDepth  int                `json:"current_depth"`
	Seq           int                `json:"seq"`
	Frontier      []string           `json:"frontier"`
	Candidates    []string           `json:"candidates,omitempty"`
	BestSoFarID   string             `json:"best_so_far_id,omitempty"`
	WinnerID      string             `json:"winner_id,omitempty"`
	Branches      map[string]*Branch `json:"branches"`
	TotalExplored int                `json:"total_explored"`
	Failure       FailureReason      `json:"failure,omitempty"`
	Result        *Result            `json:"result,omitempty"`
}

func newSearchState(searchID, problem string, cfg SearchConfig) *SearchState {
	return &SearchState{
		SearchID: searchID,
		Problem:  problem,
		Config:   cfg,
		Phase:    PhaseInitializing,
		Branches: make(map[string]*Branch),
	}
}

// addBranch archives a branch and returns it.
func (s *SearchState) addBranch(b *Branch) *Branch {
	s.Branches[b.ID] = b
	return b
}

func (s *SearchState) branch(id string) *Branch {
	return s.Branches[id]
}

// frontierBranches resolves the frontier IDs in order, skipping any
// that are missing from the archive.
func (s *SearchState) frontierBranches() []*Branch {
	return s.resolve(s.Frontier)
}

// candidateBranches resolves the current depth's candidates in
// generation order.
func (s *SearchState) candidateBranches() []*Branch {
	return s.resolve(s.Candidates)
}

func (s *SearchState) resolve(ids []string) []*Branch {
	out := make([]*Branch, 0, len(ids))
	for _, id := range ids {
		if b := s.Branches[id]; b != nil {
			out = append(out, b)
		}
	}
	return out
}

// bestSoFar returns the highest-scoring branch ever observed, or nil.
func (s *SearchState) bestSoFar() *Branch {
	if s.BestSoFarID == "" {
		return nil
	}
	return s.Branches[s.BestSoFarID]
}

// observe updates bestSoFar if b beats the current best.
func (s *SearchState) observe(b *Branch) {
	best := s.bestSoFar()
	if best == nil || b.Score > best.Score {
		s.BestSoFarID = b.ID
	}
}

// path reconstructs the ancestor chain from the root down to b,
// inclusive, via ParentID links.
func (s *SearchState) path(b *Branch) []Branch {
	var chain []Branch
	for cur := b; cur != nil; cur = s.Branches[cur.ParentID] {
		chain = append(chain, *cur)
		if cur.ParentID == "" {
			break
		}
	}
	// reverse into root-first order
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// Result is the terminal output of a search.
type Result struct {
	SearchID string `json:"search_id"`

	// Answer is the final answer text. For terminal branches this is
	// the evaluator's explicit answer; for depth-limit or exhaustion
	// fallbacks it is the best branch's reasoning annotated with its
	// score.
	Answer string `json:"answer"`

	// Score of the winning branch, 0 when no branch ever scored.
	Score float64 `json:"score"`

	// Depth at which the winning branch was produced.
	Depth int `json:"depth"`

	// Terminal reports whether the answer came from an evaluator
	// terminal signal rather than a fallback.
	Terminal bool `json:"terminal"`

	// Path is the winning branch's ancestor chain, root first.
	Path []Branch `json:"path,omitempty"`

	// TotalExplored counts every branch generated across all depths.
	TotalExplored int `json:"total_explored"`

	// DepthReached is the deepest depth at which branches were
	// generated.
	DepthReached int `json:"depth_reached"`
}
