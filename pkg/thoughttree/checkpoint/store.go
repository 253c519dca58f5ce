// Package checkpoint provides the durable substrate for searches:
// phase checkpoints for crash recovery and an append-only call ledger
// that keeps non-idempotent LLM calls from being reissued on resume.
package checkpoint

import (
	"errors"
	"time"
)

// Store persists phase checkpoints for crash recovery.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save stores a checkpoint for a search at a specific phase.
	// Overwrites if a checkpoint for (searchID, phase) already exists.
	Save(searchID, phase string, data []byte) error

	// Load retrieves a checkpoint.
	// Returns ErrNotFound if the checkpoint doesn't exist.
	Load(searchID, phase string) ([]byte, error)

	// List returns all checkpoints for a search, ordered by sequence.
	// Returns an empty slice (not an error) if the search has none.
	List(searchID string) ([]Info, error)

	// DeleteSearch removes all checkpoints and ledger entries for a search.
	// Returns nil if the search has none.
	DeleteSearch(searchID string) error

	// Close releases any resources (connections, files).
	Close() error
}

// Ledger records committed call outcomes keyed by a stable call identity.
// A call whose outcome is on the ledger is never reissued; replaying the
// phase reads the recorded result instead.
type Ledger interface {
	// Commit records a call outcome. The first write for a call identity
	// wins; committing an already-committed call is a no-op. This makes
	// replay safe when a crash lands between commit and checkpoint.
	Commit(searchID, callID string, result []byte) error

	// Lookup retrieves a committed outcome.
	// Returns ErrNotFound if the call was never committed.
	Lookup(searchID, callID string) ([]byte, error)

	// Committed returns the number of committed calls for a search.
	Committed(searchID string) (int, error)
}

// Substrate combines checkpoint storage with the call ledger.
// Both provided implementations (memory and SQLite) satisfy it.
type Substrate interface {
	Store
	Ledger
}

// Info provides checkpoint metadata without loading full state.
type Info struct {
	SearchID  string
	Phase     string
	Sequence  int
	Timestamp time.Time
	Size      int64
}

// Sentinel errors for substrate operations.
var (
	// ErrNotFound indicates a checkpoint or ledger entry doesn't exist.
	ErrNotFound = errors.New("checkpoint not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("checkpoint store closed")
)
