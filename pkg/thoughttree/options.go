package thoughttree

import (
	"log/slog"

	tterrors "github.com/randalmurphal/thoughttree/pkg/thoughttree/errors"
	"github.com/randalmurphal/thoughttree/pkg/thoughttree/observability"
	"github.com/randalmurphal/thoughttree/pkg/thoughttree/signal"
)

// Option configures a Submitter.
type Option func(*Submitter)

// WithLogger sets the structured logger. Searches log nothing when the
// logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Submitter) {
		s.logger = logger
	}
}

// WithMetrics sets the metrics recorder. Defaults to a no-op.
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(s *Submitter) {
		s.metrics = m
	}
}

// WithSpanManager sets the tracing span manager. Defaults to a no-op.
func WithSpanManager(m observability.SpanManager) Option {
	return func(s *Submitter) {
		s.spans = m
	}
}

// WithRetryConfig overrides the per-call retry policy.
func WithRetryConfig(cfg tterrors.RetryConfig) Option {
	return func(s *Submitter) {
		s.retry = cfg
	}
}

// WithMaxConcurrency bounds in-flight LLM calls per search.
func WithMaxConcurrency(n int) Option {
	return func(s *Submitter) {
		if n > 0 {
			s.maxConcurrency = n
		}
	}
}

// WithSignalHub attaches a hub so running searches can be cancelled
// out-of-band by search ID.
func WithSignalHub(hub *signal.Hub) Option {
	return func(s *Submitter) {
		s.hub = hub
	}
}
