// Package eventbus is the in-process, broadcast-only event bus: every
// scheduler/queue state transition publishes here; notifiers and
// upgrade-recheck logic subscribe.
package eventbus

import (
	"context"
	"sync"

	"github.com/kasuboski/reelwatch/pkg/logger"
)

// Kind identifies an event's payload shape, mirroring the
// "domain:action" naming convention.
type Kind string

const (
	KindQueueTransition   Kind = "queue:transition"
	KindSearchCompleted   Kind = "search:completed"
	KindGrabCompleted     Kind = "grab:completed"
	KindImportCompleted   Kind = "import:completed"
	KindBreakerTransition Kind = "breaker:transition"
	KindBlocklistAdded    Kind = "blocklist:added"
	KindJobDeadLettered   Kind = "job:dead_lettered"
)

// Event is one published occurrence. Payload is the kind-specific struct
// (e.g. QueueTransitionPayload); subscribers type-assert on it.
type Event struct {
	Kind      Kind
	Publisher string // e.g. movie_id or queue_id, used only to document ordering scope
	Payload   any
}

// QueueTransitionPayload accompanies KindQueueTransition.
type QueueTransitionPayload struct {
	QueueItemID int64
	MovieID     int64
	From        string
	To          string
}

// BreakerTransitionPayload accompanies KindBreakerTransition.
type BreakerTransitionPayload struct {
	Endpoint string
	From     string
	To       string
}

// GrabCompletedPayload accompanies KindGrabCompleted.
type GrabCompletedPayload struct {
	QueueItemID  int64
	MovieID      int64
	IndexerID    int64
	ReleaseTitle string
}

// subscriber is one bounded, best-effort delivery channel.
type subscriber struct {
	ch     chan Event
	filter func(Event) bool
}

// Bus fans out events to subscribers without blocking publishers.
// Ordering is preserved per-publisher: Publish serializes under
// a single mutex, so events from one caller are delivered to every
// subscriber in the order Publish was called; cross-publisher interleaving
// is unspecified, matching a per-hub broadcast model.
type Bus struct {
	mu          sync.Mutex
	subscribers []*subscriber
	bufferSize  int
}

// New constructs a Bus whose subscriber channels are buffered to
// bufferSize. A publish to a full channel is dropped, not blocked.
func New(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &Bus{bufferSize: bufferSize}
}

// Subscribe returns a channel receiving events, optionally filtered by
// kind. Callers must drain the channel; a slow consumer only loses events,
// it never blocks publishers.
func (b *Bus) Subscribe(kinds ...Kind) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	var filter func(Event) bool
	if len(kinds) > 0 {
		set := make(map[Kind]struct{}, len(kinds))
		for _, k := range kinds {
			set[k] = struct{}{}
		}
		filter = func(e Event) bool {
			_, ok := set[e.Kind]
			return ok
		}
	}

	sub := &subscriber{ch: make(chan Event, b.bufferSize), filter: filter}
	b.subscribers = append(b.subscribers, sub)
	return sub.ch
}

// Publish broadcasts an event to all matching subscribers, best-effort.
func (b *Bus) Publish(ctx context.Context, event Event) {
	log := logger.FromCtx(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range b.subscribers {
		if sub.filter != nil && !sub.filter(event) {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			log.Debugw("dropping event, subscriber channel full", "kind", event.Kind)
		}
	}
}
