package thoughttree

import (
	"encoding/json"
	"fmt"

	"github.com/randalmurphal/thoughttree/pkg/thoughttree/llm"
)

// Call identity is stable across crash and resume: the same logical
// LLM call always maps to the same ledger key, so a call that already
// committed a result is never reissued.

const rootParentID = "root"

func generationCallID(depth int, parentID string) string {
	if parentID == "" {
		parentID = rootParentID
	}
	return fmt.Sprintf("gen/d%03d/%s", depth, parentID)
}

func evaluationCallID(depth int, branchID string) string {
	return fmt.Sprintf("eval/d%03d/%s", depth, branchID)
}

// ledgerBranch pins a generated branch's identity alongside its
// content, so replay reconstructs identical branch IDs and the
// evaluation ledger keys still line up.
type ledgerBranch struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

// generationRecord is the committed outcome of one generation call.
// A permanently failed call commits with Err set so resume does not
// retry it.
type generationRecord struct {
	Branches []ledgerBranch `json:"branches,omitempty"`
	Err      string         `json:"err,omitempty"`
}

// evaluationRecord is the committed outcome of one evaluation call.
type evaluationRecord struct {
	Eval *llm.Evaluation `json:"eval,omitempty"`
	Err  string          `json:"err,omitempty"`
}

func encodeRecord(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding ledger record: %w", err)
	}
	return data, nil
}

func decodeGeneration(data []byte) (*generationRecord, error) {
	var rec generationRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decoding generation record: %w", err)
	}
	return &rec, nil
}

func decodeEvaluation(data []byte) (*evaluationRecord, error) {
	var rec evaluationRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decoding evaluation record: %w", err)
	}
	return &rec, nil
}
