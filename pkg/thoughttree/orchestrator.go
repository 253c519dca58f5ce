package thoughttree

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/randalmurphal/thoughttree/pkg/thoughttree/checkpoint"
	tterrors "github.com/randalmurphal/thoughttree/pkg/thoughttree/errors"
	"github.com/randalmurphal/thoughttree/pkg/thoughttree/llm"
	"github.com/randalmurphal/thoughttree/pkg/thoughttree/observability"
)

// DefaultMaxConcurrency bounds how many LLM calls a single search has
// in flight at once.
const DefaultMaxConcurrency = 8

// orchestrator drives one search through its state machine. It is the
// sole owner and mutator of its SearchState; every phase transition is
// checkpointed to the substrate before the next phase runs, and every
// LLM call outcome is committed to the call ledger before it is used.
type orchestrator struct {
	state     *SearchState
	substrate checkpoint.Substrate
	generator llm.Generator
	evaluator llm.Evaluator

	logger  *slog.Logger
	metrics observability.MetricsRecorder
	spans   observability.SpanManager

	retry          tterrors.RetryConfig
	maxConcurrency int

	mu sync.Mutex // guards state for snapshot reads
}

// snapshot returns the current phase and depth for pollers.
func (o *orchestrator) snapshot() (Phase, int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.Phase, o.state.CurrentDepth
}

// run executes the state machine until Completed or Failed. The
// returned error, if any, is always a *SearchError.
func (o *orchestrator) run(ctx context.Context) (*Result, error) {
	start := time.Now()
	ctx, searchSpan := o.spans.StartSearchSpan(ctx, o.state.SearchID)

	res, err := o.loop(ctx)

	o.spans.EndSpanWithError(searchSpan, err)
	o.metrics.RecordSearch(ctx, err == nil, time.Since(start))
	if err != nil {
		observability.LogSearchFailed(o.logger, o.state.SearchID, err,
			float64(time.Since(start).Milliseconds()), string(o.state.Phase))
		return nil, err
	}
	observability.LogSearchComplete(o.logger, o.state.SearchID,
		float64(time.Since(start).Milliseconds()), res.TotalExplored, res.DepthReached)
	return res, nil
}

func (o *orchestrator) loop(ctx context.Context) (*Result, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, o.fail(ReasonCancelled, err)
		}

		phase, depth := o.snapshot()
		switch phase {
		case PhaseCompleted:
			return o.state.Result, nil
		case PhaseFailed:
			return nil, failure(o.state.SearchID, o.state.Failure, nil)
		}

		step, ok := o.steps()[phase]
		if !ok {
			return nil, o.fail(ReasonSubstrateFault,
				fmt.Errorf("checkpoint carries unknown phase %q", phase))
		}

		observability.LogPhaseStart(o.logger, string(phase), depth)
		pctx, span := o.spans.StartPhaseSpan(ctx, string(phase), depth)
		stepStart := time.Now()

		err := step(pctx)

		o.spans.EndSpanWithError(span, err)
		o.metrics.RecordPhase(ctx, string(phase), time.Since(stepStart), err)
		if err != nil {
			return nil, o.classify(ctx, err)
		}
		observability.LogPhaseComplete(o.logger, string(phase), depth,
			float64(time.Since(stepStart).Milliseconds()))
	}
}

func (o *orchestrator) steps() map[Phase]func(context.Context) error {
	return map[Phase]func(context.Context) error{
		PhaseInitializing: o.initialize,
		PhaseGenerating:   o.generate,
		PhaseEvaluating:   o.evaluate,
		PhasePruning:      o.pruneCandidates,
		PhaseChecking:     o.checkTermination,
		PhaseFinalizing:   o.finalize,
	}
}

// classify folds a phase error into the terminal failure taxonomy.
func (o *orchestrator) classify(ctx context.Context, err error) *SearchError {
	var serr *SearchError
	if errors.As(err, &serr) {
		return o.fail(serr.Reason, serr.Err)
	}
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return o.fail(ReasonCancelled, err)
	}
	return o.fail(ReasonSubstrateFault, err)
}

// fail records the terminal Failed phase. The failure checkpoint is
// best-effort: a substrate that cannot persist the failure cannot make
// things worse than they already are.
func (o *orchestrator) fail(reason FailureReason, err error) *SearchError {
	o.mu.Lock()
	o.state.Phase = PhaseFailed
	o.state.Failure = reason
	o.state.Seq++
	o.mu.Unlock()
	if reason != ReasonSubstrateFault {
		_ = o.checkpoint(context.Background(), PhaseFailed)
	}
	return failure(o.state.SearchID, reason, err)
}

// transition advances to the next phase and durably checkpoints the
// state. A checkpoint that cannot be written is a substrate fault.
func (o *orchestrator) transition(ctx context.Context, next Phase) error {
	o.mu.Lock()
	o.state.Phase = next
	o.state.Seq++
	o.mu.Unlock()
	if err := o.checkpoint(ctx, next); err != nil {
		return failure(o.state.SearchID, ReasonSubstrateFault, err)
	}
	return nil
}

func (o *orchestrator) checkpoint(ctx context.Context, key Phase) error {
	o.mu.Lock()
	stateJSON, err := json.Marshal(o.state)
	seq := o.state.Seq
	o.mu.Unlock()
	if err != nil {
		return fmt.Errorf("serializing search state: %w", err)
	}

	cp := checkpoint.New(o.state.SearchID, string(key), seq, stateJSON)
	data, err := cp.Marshal()
	if err != nil {
		return fmt.Errorf("serializing checkpoint: %w", err)
	}
	if err := o.substrate.Save(o.state.SearchID, string(key), data); err != nil {
		return fmt.Errorf("saving checkpoint %q: %w", key, err)
	}

	observability.LogCheckpoint(o.logger, string(key), len(data))
	o.metrics.RecordCheckpoint(ctx, string(key), int64(len(data)))
	return nil
}

// initialize validates the config and enters the first generation
// phase.
func (o *orchestrator) initialize(ctx context.Context) error {
	observability.LogSearchStart(o.logger, o.state.SearchID, o.state.Problem)
	if err := o.state.Config.Validate(); err != nil {
		return failure(o.state.SearchID, ReasonSubstrateFault, err)
	}
	return o.transition(ctx, PhaseGenerating)
}

// generate fans out one generation call per frontier branch (or a
// single root call at depth 0) and collects candidates in parent
// order, then child index. The barrier closes only when every call has
// settled; a call that exhausts its retry budget contributes nothing.
func (o *orchestrator) generate(ctx context.Context) error {
	depth := o.state.CurrentDepth
	parents := o.state.frontierBranches()
	if depth == 0 {
		parents = []*Branch{nil}
	}

	results := make([][]*Branch, len(parents))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.maxConcurrency)
	for i, parent := range parents {
		g.Go(func() error {
			children, err := o.generateOne(gctx, depth, parent)
			if err != nil {
				return err
			}
			results[i] = children
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	o.state.Candidates = o.state.Candidates[:0]
	for i, parent := range parents {
		if parent != nil {
			if err := parent.advance(StatusExpanded); err != nil {
				return err
			}
		}
		for _, child := range results[i] {
			o.state.addBranch(child)
			o.state.Candidates = append(o.state.Candidates, child.ID)
		}
	}
	o.state.TotalExplored += len(o.state.Candidates)

	if depth == 0 && len(o.state.Candidates) == 0 {
		return failure(o.state.SearchID, ReasonNoInitialBranches,
			errors.New("root generation produced no branches"))
	}
	return o.transition(ctx, PhaseEvaluating)
}

// generateOne runs (or replays) a single generation call. The outcome
// is committed to the ledger before being used, so a crash between
// commit and checkpoint replays the identical branches, IDs included.
func (o *orchestrator) generateOne(ctx context.Context, depth int, parent *Branch) ([]*Branch, error) {
	var parentContent string
	var parentID string
	if parent != nil {
		parentContent = parent.Content
		parentID = parent.ID
	}
	callID := generationCallID(depth, parentID)

	if data, err := o.substrate.Lookup(o.state.SearchID, callID); err == nil {
		rec, derr := decodeGeneration(data)
		if derr != nil {
			return nil, derr
		}
		observability.LogCallReplayed(o.logger, callID)
		return o.rebuildChildren(parent, rec), nil
	} else if !errors.Is(err, checkpoint.ErrNotFound) {
		return nil, fmt.Errorf("ledger lookup %q: %w", callID, err)
	}

	cctx, span := o.spans.StartCallSpan(ctx, "generate", callID)
	res := tterrors.WithRetryContext(cctx, o.retry, func(actx context.Context) ([]string, error) {
		return o.generator.Generate(actx, parentContent, o.state.Problem, o.state.Config.BranchesPerNode)
	})
	o.spans.EndSpanWithError(span, res.Err)
	o.metrics.RecordCall(ctx, "generate", res.Duration, res.Attempts, res.Err)

	if res.Err != nil {
		if ctx.Err() != nil {
			// Interrupted, not exhausted: leave the call uncommitted
			// so a resume retries it.
			return nil, ctx.Err()
		}
		if err := o.commit(callID, &generationRecord{Err: res.Err.Error()}); err != nil {
			return nil, err
		}
		observability.LogCallDropped(o.logger, callID, res.Err)
		return nil, nil
	}

	thoughts := res.Value
	if len(thoughts) > o.state.Config.BranchesPerNode {
		thoughts = thoughts[:o.state.Config.BranchesPerNode]
	}
	rec := &generationRecord{Branches: make([]ledgerBranch, 0, len(thoughts))}
	children := make([]*Branch, 0, len(thoughts))
	for _, thought := range thoughts {
		child := newBranch(parent, childContent(parent, thought))
		children = append(children, child)
		rec.Branches = append(rec.Branches, ledgerBranch{ID: child.ID, Content: child.Content})
	}
	if err := o.commit(callID, rec); err != nil {
		return nil, err
	}
	return children, nil
}

// childContent threads the parent's reasoning chain into the child so
// evaluators see the full path, not an isolated step.
func childContent(parent *Branch, thought string) string {
	if parent == nil {
		return thought
	}
	return parent.Content + "\n\n→ " + thought
}

func (o *orchestrator) rebuildChildren(parent *Branch, rec *generationRecord) []*Branch {
	if rec.Err != "" {
		return nil
	}
	children := make([]*Branch, 0, len(rec.Branches))
	for _, lb := range rec.Branches {
		child := newBranch(parent, lb.Content)
		child.ID = lb.ID
		children = append(children, child)
	}
	return children
}

func (o *orchestrator) commit(callID string, rec any) error {
	data, err := encodeRecord(rec)
	if err != nil {
		return err
	}
	if err := o.substrate.Commit(o.state.SearchID, callID, data); err != nil {
		return fmt.Errorf("ledger commit %q: %w", callID, err)
	}
	return nil
}

// evaluate fans out one evaluation per pending candidate. The first
// terminal verdict cancels outstanding siblings; their late results
// are discarded. Candidates whose calls exhaust retries stay Pending
// and fall out at pruning.
func (o *orchestrator) evaluate(ctx context.Context) error {
	depth := o.state.CurrentDepth
	candidates := o.state.candidateBranches()

	ectx, cancelSiblings := context.WithCancel(ctx)
	defer cancelSiblings()

	var terminalSeen atomic.Bool
	results := make([]*evaluationRecord, len(candidates))
	g := &errgroup.Group{}
	g.SetLimit(o.maxConcurrency)
	for i, b := range candidates {
		if b.Status != StatusPending {
			continue
		}
		g.Go(func() error {
			rec, err := o.evaluateOne(ectx, depth, b)
			if err != nil {
				if terminalSeen.Load() && errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			}
			results[i] = rec
			if rec.Eval != nil && rec.Eval.Terminal {
				terminalSeen.Store(true)
				cancelSiblings()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, b := range candidates {
		rec := results[i]
		if rec == nil || rec.Eval == nil {
			continue
		}
		if b.Status != StatusPending {
			continue
		}
		if err := b.markEvaluated(rec.Eval.Score, rec.Eval.Terminal, rec.Eval.Answer, rec.Eval.Rationale); err != nil {
			return err
		}
		if b.Status == StatusTerminal {
			observability.LogTerminal(o.logger, b.ID, b.Score, depth)
		}
	}
	return o.transition(ctx, PhasePruning)
}

func (o *orchestrator) evaluateOne(ctx context.Context, depth int, b *Branch) (*evaluationRecord, error) {
	callID := evaluationCallID(depth, b.ID)

	if data, err := o.substrate.Lookup(o.state.SearchID, callID); err == nil {
		rec, derr := decodeEvaluation(data)
		if derr != nil {
			return nil, derr
		}
		observability.LogCallReplayed(o.logger, callID)
		return rec, nil
	} else if !errors.Is(err, checkpoint.ErrNotFound) {
		return nil, fmt.Errorf("ledger lookup %q: %w", callID, err)
	}

	cctx, span := o.spans.StartCallSpan(ctx, "evaluate", callID)
	res := tterrors.WithRetryContext(cctx, o.retry, func(actx context.Context) (llm.Evaluation, error) {
		return o.evaluator.Evaluate(actx, b.Content, o.state.Problem)
	})
	o.spans.EndSpanWithError(span, res.Err)
	o.metrics.RecordCall(ctx, "evaluate", res.Duration, res.Attempts, res.Err)

	if res.Err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		rec := &evaluationRecord{Err: res.Err.Error()}
		if err := o.commit(callID, rec); err != nil {
			return nil, err
		}
		observability.LogCallDropped(o.logger, callID, res.Err)
		return rec, nil
	}

	eval := res.Value
	rec := &evaluationRecord{Eval: &eval}
	if err := o.commit(callID, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// pruneCandidates folds the depth's evaluated branches into the next
// frontier and tracks the best branch ever seen, pruned or not.
func (o *orchestrator) pruneCandidates(ctx context.Context) error {
	var evaluated []*Branch
	for _, b := range o.state.candidateBranches() {
		if b.Status == StatusEvaluated || b.Status == StatusTerminal {
			o.state.observe(b)
			evaluated = append(evaluated, b)
		}
	}

	kept, dropped := prune(evaluated, o.state.Config.BeamWidth, o.state.Config.MinScoreThreshold)
	for _, b := range dropped {
		// Terminal branches keep their status; the termination check
		// still sees them even when they fell below the beam.
		if b.Status == StatusEvaluated {
			if err := b.advance(StatusPruned); err != nil {
				return err
			}
		}
	}

	o.state.Frontier = o.state.Frontier[:0]
	for _, b := range kept {
		o.state.Frontier = append(o.state.Frontier, b.ID)
	}

	observability.LogPrune(o.logger, o.state.CurrentDepth, len(o.state.Candidates), len(kept))
	o.metrics.RecordBranches(ctx, len(o.state.Candidates), len(kept))
	return o.transition(ctx, PhaseChecking)
}

// checkTermination decides whether to finalize or descend. A terminal
// verdict wins outright; an empty frontier falls back to the best
// branch ever seen; the depth limit falls back to the best of the
// current frontier.
func (o *orchestrator) checkTermination(ctx context.Context) error {
	var terminal *Branch
	for _, b := range o.state.candidateBranches() {
		if b.Status != StatusTerminal {
			continue
		}
		if terminal == nil || b.Score > terminal.Score {
			terminal = b
		}
	}
	if terminal != nil {
		o.state.WinnerID = terminal.ID
		return o.transition(ctx, PhaseFinalizing)
	}

	if len(o.state.Frontier) == 0 {
		o.state.WinnerID = o.state.BestSoFarID
		return o.transition(ctx, PhaseFinalizing)
	}

	if o.state.CurrentDepth+1 >= o.state.Config.MaxDepth {
		// Frontier is sorted by score descending; its head is the best
		// branch of the final depth.
		o.state.WinnerID = o.state.Frontier[0]
		return o.transition(ctx, PhaseFinalizing)
	}

	o.mu.Lock()
	o.state.CurrentDepth++
	o.mu.Unlock()
	o.state.Candidates = nil
	return o.transition(ctx, PhaseGenerating)
}

// finalize builds the SearchResult, stores it in the state, and
// checkpoints the Completed phase so a resumed finished search returns
// the same result without re-running anything.
func (o *orchestrator) finalize(ctx context.Context) error {
	res := &Result{
		SearchID:      o.state.SearchID,
		TotalExplored: o.state.TotalExplored,
		DepthReached:  o.state.CurrentDepth,
	}

	if winner := o.state.branch(o.state.WinnerID); winner != nil {
		res.Score = winner.Score
		res.Depth = winner.Depth
		res.Path = o.state.path(winner)
		if winner.Status == StatusTerminal && winner.Answer != "" {
			res.Answer = winner.Answer
			res.Terminal = true
		} else {
			res.Answer = fmt.Sprintf("Best reasoning found (score=%.2f):\n%s", winner.Score, winner.Content)
		}
	} else {
		res.Answer = "No viable reasoning path found."
	}

	o.state.Result = res
	return o.transition(ctx, PhaseCompleted)
}
