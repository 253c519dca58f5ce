package thoughttree

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/randalmurphal/thoughttree/pkg/thoughttree/checkpoint"
)

// Resume continues an interrupted search from its last committed
// checkpoint. Committed LLM calls replay from the ledger and are never
// reissued; a search that already finished returns its stored outcome.
func (s *Submitter) Resume(ctx context.Context, searchID string) (*Result, error) {
	h, err := s.ResumeAsync(ctx, searchID)
	if err != nil {
		return nil, err
	}
	return h.Wait()
}

// ResumeAsync is Resume with a pollable handle.
func (s *Submitter) ResumeAsync(ctx context.Context, searchID string) (*Handle, error) {
	state, err := s.loadState(searchID)
	if err != nil {
		return nil, err
	}

	// Finished searches settle immediately from the stored state.
	switch state.Phase {
	case PhaseCompleted, PhaseFailed:
		h := &Handle{
			SearchID: searchID,
			orc:      s.newOrchestrator(state),
			cancel:   func() {},
			done:     make(chan struct{}),
		}
		if state.Phase == PhaseCompleted {
			h.finish(state.Result, nil)
		} else {
			h.finish(nil, failure(searchID, state.Failure, nil))
		}
		return h, nil
	}

	return s.start(ctx, s.newOrchestrator(state)), nil
}

func (s *Submitter) loadState(searchID string) (*SearchState, error) {
	infos, err := s.substrate.List(searchID)
	if err != nil {
		return nil, fmt.Errorf("listing checkpoints for %s: %w", searchID, err)
	}
	if len(infos) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSearchNotFound, searchID)
	}

	// List is ordered by sequence; the last entry is the latest
	// committed transition.
	latest := infos[len(infos)-1]
	data, err := s.substrate.Load(searchID, latest.Phase)
	if err != nil {
		if errors.Is(err, checkpoint.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrSearchNotFound, searchID)
		}
		return nil, fmt.Errorf("loading checkpoint %q: %w", latest.Phase, err)
	}

	cp, err := checkpoint.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("corrupt checkpoint %q: %w", latest.Phase, err)
	}
	if cp.Version != checkpoint.Version {
		return nil, fmt.Errorf("checkpoint %q has unsupported version %d", latest.Phase, cp.Version)
	}

	var state SearchState
	if err := json.Unmarshal(cp.State, &state); err != nil {
		return nil, fmt.Errorf("corrupt search state in checkpoint %q: %w", latest.Phase, err)
	}
	if state.Branches == nil {
		state.Branches = make(map[string]*Branch)
	}
	return &state, nil
}
