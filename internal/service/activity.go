package service

import (
	"context"
	"log/slog"
	"sync"

	apperrors "github.com/pulsenet/sessiond/internal/errors"
	"github.com/pulsenet/sessiond/internal/observability/statsd"
)

// Signal names a kind of user activity that resets the inactivity clock.
type Signal string

const (
	SignalPointerPress Signal = "pointer_press"
	SignalPointerMove  Signal = "pointer_move"
	SignalKeyPress     Signal = "key_press"
	SignalScroll       Signal = "scroll"
	SignalTouchStart   Signal = "touch_start"
)

// ParseSignal validates a wire-level signal name.
func ParseSignal(raw string) (Signal, error) {
	switch Signal(raw) {
	case SignalPointerPress, SignalPointerMove, SignalKeyPress, SignalScroll, SignalTouchStart:
		return Signal(raw), nil
	default:
		return "", apperrors.ValidationField("signal", "unknown activity signal")
	}
}

// ActivityHub fans activity signals out to subscribers. Publishing never
// blocks: a subscriber that falls behind misses signals rather than stalling
// the publisher. Activity signals are advisory, losing one is harmless.
type ActivityHub struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan Signal
}

// NewActivityHub creates an ActivityHub.
func NewActivityHub() *ActivityHub {
	return &ActivityHub{subs: make(map[int]chan Signal)}
}

// Publish delivers a signal to all current subscribers.
func (h *ActivityHub) Publish(sig Signal) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- sig:
		default:
		}
	}
}

// Subscribe registers a new subscriber. The returned release func must be
// called when the subscriber is done; afterwards the channel stops receiving
// and is closed.
func (h *ActivityHub) Subscribe() (<-chan Signal, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	ch := make(chan Signal, 16)
	h.subs[id] = ch

	release := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub)
		}
	}
	return ch, release
}

// SubscriberCount returns the number of active subscribers.
func (h *ActivityHub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// ActivityServiceOptions groups dependencies for ActivityService.
type ActivityServiceOptions struct {
	Sessions *SessionService // Required: session state owner
	Hub      *ActivityHub    // Optional: signal fan-out
	Logger   *slog.Logger    // Optional: structured logger
	Metrics  statsd.Sink     // Optional: metrics sink (StatsD-compatible)
}

// ActivityService applies user activity to the session. Signals arriving
// while no session is active are dropped: only an authenticated session has
// an inactivity clock to reset.
type ActivityService struct {
	sessions *SessionService
	hub      *ActivityHub
	logger   *slog.Logger
	metrics  statsd.Sink
}

// NewActivityService constructs a new ActivityService.
func NewActivityService(opts ActivityServiceOptions) *ActivityService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ActivityService{
		sessions: opts.Sessions,
		hub:      opts.Hub,
		logger:   logger.With("component", "activity_service"),
		metrics:  opts.Metrics,
	}
}

// Report records one activity signal. Returns true when the signal was
// applied to an active session, false when it was dropped.
func (a *ActivityService) Report(ctx context.Context, sig Signal) bool {
	if !a.sessions.IsAuthenticated() {
		a.logger.DebugContext(ctx, "activity signal dropped, no active session",
			"signal", string(sig))
		return false
	}

	a.sessions.Touch()
	if a.hub != nil {
		a.hub.Publish(sig)
	}
	if a.metrics != nil {
		a.metrics.Count("auth.activity.signals", 1,
			map[string]string{"signal": string(sig)})
	}
	return true
}
