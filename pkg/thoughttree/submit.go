package thoughttree

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/randalmurphal/thoughttree/pkg/thoughttree/checkpoint"
	tterrors "github.com/randalmurphal/thoughttree/pkg/thoughttree/errors"
	"github.com/randalmurphal/thoughttree/pkg/thoughttree/llm"
	"github.com/randalmurphal/thoughttree/pkg/thoughttree/observability"
	"github.com/randalmurphal/thoughttree/pkg/thoughttree/signal"
)

// ErrSearchRunning is returned by Handle.Result while the search has
// not finished yet.
var ErrSearchRunning = errors.New("search still running")

// Submitter accepts problems and drives searches against a durable
// substrate. One Submitter can run many searches; each search owns its
// own orchestrator and state.
type Submitter struct {
	substrate checkpoint.Substrate
	generator llm.Generator
	evaluator llm.Evaluator

	logger  *slog.Logger
	metrics observability.MetricsRecorder
	spans   observability.SpanManager

	retry          tterrors.RetryConfig
	maxConcurrency int
	hub            *signal.Hub
}

// NewSubmitter wires a Submitter. Substrate, generator and evaluator
// are required; everything else defaults sensibly.
func NewSubmitter(substrate checkpoint.Substrate, gen llm.Generator, eval llm.Evaluator, opts ...Option) (*Submitter, error) {
	if substrate == nil {
		return nil, errors.New("substrate is required")
	}
	if gen == nil {
		return nil, errors.New("generator is required")
	}
	if eval == nil {
		return nil, errors.New("evaluator is required")
	}

	s := &Submitter{
		substrate:      substrate,
		generator:      gen,
		evaluator:      eval,
		logger:         slog.Default(),
		metrics:        observability.NoopMetrics{},
		spans:          observability.NoopSpanManager{},
		retry:          tterrors.DefaultRetry,
		maxConcurrency: DefaultMaxConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Submitter) newOrchestrator(state *SearchState) *orchestrator {
	return &orchestrator{
		state:          state,
		substrate:      s.substrate,
		generator:      s.generator,
		evaluator:      s.evaluator,
		logger:         s.logger,
		metrics:        s.metrics,
		spans:          s.spans,
		retry:          s.retry,
		maxConcurrency: s.maxConcurrency,
	}
}

// Submit runs a search to completion. It blocks until the search is
// Completed or Failed; once started, the only error shape returned is
// *SearchError.
func (s *Submitter) Submit(ctx context.Context, problem string, cfg SearchConfig) (*Result, error) {
	h, err := s.SubmitAsync(ctx, problem, cfg)
	if err != nil {
		return nil, err
	}
	return h.Wait()
}

// SubmitAsync starts a search and returns a pollable handle. The
// search runs until done or until ctx is cancelled.
func (s *Submitter) SubmitAsync(ctx context.Context, problem string, cfg SearchConfig) (*Handle, error) {
	if problem == "" {
		return nil, errors.New("problem is required")
	}
	cfg = cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid search config: %w", err)
	}

	state := newSearchState(uuid.New().String(), problem, cfg)
	return s.start(ctx, s.newOrchestrator(state)), nil
}

// start launches the orchestrator and wires the cancel signal handler.
func (s *Submitter) start(ctx context.Context, orc *orchestrator) *Handle {
	runCtx, cancel := context.WithCancel(ctx)
	h := &Handle{
		SearchID: orc.state.SearchID,
		orc:      orc,
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	if s.hub != nil {
		_ = s.hub.Register(h.SearchID, signal.Cancel, func(_ context.Context, _ *signal.Signal) error {
			cancel()
			return nil
		})
	}

	go func() {
		res, err := orc.run(runCtx)
		if s.hub != nil {
			s.hub.Deregister(h.SearchID)
		}
		cancel()
		h.finish(res, err)
	}()
	return h
}

// Handle tracks one in-flight search.
type Handle struct {
	SearchID string

	orc    *orchestrator
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	result *Result
	err    error
}

func (h *Handle) finish(res *Result, err error) {
	h.mu.Lock()
	h.result = res
	h.err = err
	h.mu.Unlock()
	close(h.done)
}

// Done is closed when the search reaches Completed or Failed.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Result returns the outcome, or ErrSearchRunning while in flight.
func (h *Handle) Result() (*Result, error) {
	select {
	case <-h.done:
	default:
		return nil, ErrSearchRunning
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.result, h.err
}

// Wait blocks until the search finishes.
func (h *Handle) Wait() (*Result, error) {
	<-h.done
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.result, h.err
}

// Status reports the current state machine phase and depth.
func (h *Handle) Status() (Phase, int) {
	return h.orc.snapshot()
}

// Cancel aborts the search. The search settles as Failed(cancelled);
// Wait still returns.
func (h *Handle) Cancel() {
	h.cancel()
}
