// Package signal provides a fire-and-forget side channel to running
// searches. Its primary use is cancellation: an external actor sends a
// cancel signal to a search by id, and the orchestrator abandons
// outstanding work rather than awaiting it.
package signal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Cancel is the signal name that aborts a running search.
const Cancel = "cancel"

// Signal is a fire-and-forget message to a running search.
type Signal struct {
	// ID uniquely identifies this signal.
	ID string `json:"id"`

	// Name is the signal type (e.g., "cancel").
	Name string `json:"name"`

	// TargetID is the search ID this signal is sent to.
	TargetID string `json:"target_id"`

	// Payload contains signal-specific data.
	Payload map[string]any `json:"payload,omitempty"`

	// SenderID identifies who sent the signal.
	SenderID string `json:"sender_id,omitempty"`

	// SentAt is when the signal was created.
	SentAt time.Time `json:"sent_at"`
}

// New creates a new signal with the given name and target.
func New(name, targetID string) *Signal {
	return &Signal{
		ID:       fmt.Sprintf("sig-%s", uuid.New().String()[:8]),
		Name:     name,
		TargetID: targetID,
		SentAt:   time.Now(),
	}
}

// WithSender sets the sender ID on the signal.
func (s *Signal) WithSender(senderID string) *Signal {
	s.SenderID = senderID
	return s
}

// Handler processes a signal delivered to a registered target.
type Handler func(ctx context.Context, sig *Signal) error

// Sentinel errors for signal delivery.
var (
	// ErrTargetNotFound indicates no target is registered under the ID.
	ErrTargetNotFound = errors.New("signal target not found")

	// ErrNoHandler indicates the target doesn't handle this signal name.
	ErrNoHandler = errors.New("no handler for signal")
)

// Hub routes signals to registered targets.
// Targets register per-signal-name handlers while they run and
// deregister when they finish; sends to unknown targets fail fast.
type Hub struct {
	mu      sync.RWMutex
	targets map[string]map[string]Handler // targetID -> signal name -> handler
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		targets: make(map[string]map[string]Handler),
	}
}

// Register adds a handler for a signal name on a target.
func (h *Hub) Register(targetID, name string, handler Handler) error {
	if targetID == "" {
		return errors.New("target ID is required")
	}
	if name == "" {
		return errors.New("signal name is required")
	}
	if handler == nil {
		return errors.New("handler is required")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.targets[targetID] == nil {
		h.targets[targetID] = make(map[string]Handler)
	}
	if _, exists := h.targets[targetID][name]; exists {
		return fmt.Errorf("handler for signal %q already registered on %s", name, targetID)
	}

	h.targets[targetID][name] = handler
	return nil
}

// Deregister removes all handlers for a target.
// Typically called when the search finishes.
func (h *Hub) Deregister(targetID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.targets, targetID)
}

// Send delivers a signal to its target's handler.
// Delivery is synchronous; the handler itself should be quick
// (e.g., flip a cancel func) and never block.
func (h *Hub) Send(ctx context.Context, sig *Signal) error {
	h.mu.RLock()
	handlers, ok := h.targets[sig.TargetID]
	var handler Handler
	if ok {
		handler = handlers[sig.Name]
	}
	h.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrTargetNotFound, sig.TargetID)
	}
	if handler == nil {
		return fmt.Errorf("%w: %s", ErrNoHandler, sig.Name)
	}

	return handler(ctx, sig)
}

// Targets returns the IDs of all registered targets.
func (h *Hub) Targets() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]string, 0, len(h.targets))
	for id := range h.targets {
		ids = append(ids, id)
	}
	return ids
}
