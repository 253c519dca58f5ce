package thoughttree

import (
	"fmt"

	"github.com/google/uuid"
)

// Status tracks a branch through its lifecycle. Transitions are
// forward-only: a branch never returns to an earlier status.
type Status string

const (
	// StatusPending means the branch has been generated but not scored.
	StatusPending Status = "pending"

	// StatusEvaluated means the branch has a committed score.
	StatusEvaluated Status = "evaluated"

	// StatusPruned means the branch was scored but did not survive the beam.
	StatusPruned Status = "pruned"

	// StatusExpanded means the branch survived pruning and produced children.
	StatusExpanded Status = "expanded"

	// StatusTerminal means the evaluator flagged the branch as a final answer.
	StatusTerminal Status = "terminal"
)

// statusRank orders statuses along the lifecycle. Pruned, Expanded and
// Terminal are all final states at the same rank.
var statusRank = map[Status]int{
	StatusPending:   0,
	StatusEvaluated: 1,
	StatusPruned:    2,
	StatusExpanded:  2,
	StatusTerminal:  2,
}

// Branch is one node in the reasoning tree. Content and Score are
// immutable once set; only Status advances.
type Branch struct {
	ID       string  `json:"id"`
	ParentID string  `json:"parent_id,omitempty"`
	Depth    int     `json:"depth"`
	Content  string  `json:"content"`
	Score    float64 `json:"score"`
	Status   Status  `json:"status"`

	// Answer is set only on terminal branches: the evaluator's final
	// answer, distinct from the reasoning content that produced it.
	Answer string `json:"answer,omitempty"`

	// Rationale is the evaluator's explanation for the score.
	Rationale string `json:"rationale,omitempty"`
}

// newBranch creates a pending branch under parent. A nil parent means
// the branch descends directly from the problem statement (depth 0).
func newBranch(parent *Branch, content string) *Branch {
	b := &Branch{
		ID:      uuid.New().String(),
		Content: content,
		Status:  StatusPending,
	}
	if parent != nil {
		b.ParentID = parent.ID
		b.Depth = parent.Depth + 1
	}
	return b
}

// advance moves the branch to a later status. Moving backwards or
// sideways between final states is an error.
func (b *Branch) advance(to Status) error {
	from, ok := statusRank[b.Status]
	if !ok {
		return fmt.Errorf("unknown branch status %q", b.Status)
	}
	target, ok := statusRank[to]
	if !ok {
		return fmt.Errorf("unknown branch status %q", to)
	}
	if target <= from {
		return fmt.Errorf("branch %s: cannot transition %s -> %s", b.ID, b.Status, to)
	}
	b.Status = to
	return nil
}

// markEvaluated records the evaluation outcome on a pending branch.
func (b *Branch) markEvaluated(score float64, terminal bool, answer, rationale string) error {
	if err := b.advance(StatusEvaluated); err != nil {
		return err
	}
	b.Score = score
	b.Rationale = rationale
	if terminal {
		b.Answer = answer
		return b.advance(StatusTerminal)
	}
	return nil
}
