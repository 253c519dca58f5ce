// Package observability provides structured logging, metrics, and
// distributed tracing for the search orchestrator.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
)

// EnrichLogger adds search context to a logger.
// Returns a new logger with search_id, phase, and depth fields.
func EnrichLogger(logger *slog.Logger, searchID, phase string, depth int) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("search_id", searchID),
		slog.String("phase", phase),
		slog.Int("depth", depth),
	)
}

// LogSearchStart logs the start of a search.
func LogSearchStart(logger *slog.Logger, searchID, problem string) {
	if logger == nil {
		return
	}
	logger.Info("search starting",
		slog.String("search_id", searchID),
		slog.String("problem", truncate(problem, 80)),
	)
}

// LogSearchComplete logs successful search completion.
func LogSearchComplete(logger *slog.Logger, searchID string, durationMs float64, explored, depth int) {
	if logger == nil {
		return
	}
	logger.Info("search completed",
		slog.String("search_id", searchID),
		slog.Float64("duration_ms", durationMs),
		slog.Int("branches_explored", explored),
		slog.Int("depth_reached", depth),
	)
}

// LogSearchFailed logs search failure.
func LogSearchFailed(logger *slog.Logger, searchID string, err error, durationMs float64, phase string) {
	if logger == nil {
		return
	}
	logger.Error("search failed",
		slog.String("search_id", searchID),
		slog.String("error", err.Error()),
		slog.Float64("duration_ms", durationMs),
		slog.String("phase", phase),
	)
}

// LogPhaseStart logs phase entry.
func LogPhaseStart(logger *slog.Logger, phase string, depth int) {
	if logger == nil {
		return
	}
	logger.Debug("phase starting",
		slog.String("phase", phase),
		slog.Int("depth", depth),
	)
}

// LogPhaseComplete logs successful phase completion.
func LogPhaseComplete(logger *slog.Logger, phase string, depth int, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("phase completed",
		slog.String("phase", phase),
		slog.Int("depth", depth),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogCallDropped logs a generation/evaluation call dropped after its
// retry budget was exhausted. Non-fatal for the search.
func LogCallDropped(logger *slog.Logger, callID string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("call dropped",
		slog.String("call_id", callID),
		slog.String("error", err.Error()),
	)
}

// LogCallReplayed logs a call whose committed result was replayed from
// the ledger instead of being reissued.
func LogCallReplayed(logger *slog.Logger, callID string) {
	if logger == nil {
		return
	}
	logger.Debug("call replayed from ledger",
		slog.String("call_id", callID),
	)
}

// LogPrune logs a pruning step.
func LogPrune(logger *slog.Logger, depth, candidates, kept int) {
	if logger == nil {
		return
	}
	logger.Info("frontier pruned",
		slog.Int("depth", depth),
		slog.Int("candidates", candidates),
		slog.Int("kept", kept),
	)
}

// LogTerminal logs a terminal answer discovery.
func LogTerminal(logger *slog.Logger, branchID string, score float64, depth int) {
	if logger == nil {
		return
	}
	logger.Info("terminal answer found",
		slog.String("branch_id", branchID),
		slog.Float64("score", score),
		slog.Int("depth", depth),
	)
}

// LogCheckpoint logs checkpoint creation.
func LogCheckpoint(logger *slog.Logger, phase string, sizeBytes int) {
	if logger == nil {
		return
	}
	logger.Debug("checkpoint saved",
		slog.String("phase", phase),
		slog.Int("size_bytes", sizeBytes),
	)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
