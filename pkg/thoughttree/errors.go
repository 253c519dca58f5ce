package thoughttree

import (
	"errors"
	"fmt"
)

// FailureReason classifies why a search ended in the Failed phase.
type FailureReason string

const (
	// ReasonNoInitialBranches: generation from the root problem
	// produced zero branches, so there is nothing to search.
	ReasonNoInitialBranches FailureReason = "no_initial_branches"

	// ReasonSubstrateFault: the checkpoint substrate could not
	// guarantee durability; no partial result is returned.
	ReasonSubstrateFault FailureReason = "substrate_fault"

	// ReasonCancelled: the search was cancelled by its caller or
	// through a cancel signal.
	ReasonCancelled FailureReason = "cancelled"
)

// ErrSearchNotFound is returned by Resume when no checkpoint exists
// for the requested search ID.
var ErrSearchNotFound = errors.New("search not found")

// SearchError is the only error shape a submitter observes once a
// search has started: a terminal Failed(reason).
type SearchError struct {
	SearchID string
	Reason   FailureReason
	Err      error
}

func (e *SearchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("search %s failed (%s): %v", e.SearchID, e.Reason, e.Err)
	}
	return fmt.Sprintf("search %s failed (%s)", e.SearchID, e.Reason)
}

func (e *SearchError) Unwrap() error {
	return e.Err
}

// failure builds the terminal error for a search.
func failure(searchID string, reason FailureReason, err error) *SearchError {
	return &SearchError{SearchID: searchID, Reason: reason, Err: err}
}
