package checkpoint

import (
	"encoding/json"
	"time"
)

// Version is the current checkpoint format version.
// Increment when making breaking changes to the checkpoint structure.
const Version = 1

// Checkpoint is the persisted snapshot of a search between phase
// transitions. It contains everything needed to resume the search.
type Checkpoint struct {
	// Metadata
	Version   int       `json:"version"`
	SearchID  string    `json:"search_id"`
	Phase     string    `json:"phase"`
	Sequence  int       `json:"sequence"`
	Timestamp time.Time `json:"timestamp"`

	// Search state, serialized by the orchestrator.
	State json.RawMessage `json:"state"`
}

// Marshal serializes a checkpoint to JSON.
func (c *Checkpoint) Marshal() ([]byte, error) {
	return json.Marshal(c)
}

// Unmarshal deserializes a checkpoint from JSON.
func Unmarshal(data []byte) (*Checkpoint, error) {
	var c Checkpoint
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// New creates a new checkpoint with the given parameters.
// State must already be JSON-serialized.
func New(searchID, phase string, sequence int, state []byte) *Checkpoint {
	return &Checkpoint{
		Version:   Version,
		SearchID:  searchID,
		Phase:     phase,
		Sequence:  sequence,
		Timestamp: time.Now().UTC(),
		State:     state,
	}
}
