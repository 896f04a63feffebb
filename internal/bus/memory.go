package bus

import (
	"context"
	"log/slog"
	"sync"
)

// subscriberBuffer is the per-subscriber channel capacity. A subscriber
// that falls further behind than this starts losing events rather than
// blocking the publisher.
const subscriberBuffer = 64

type memorySubscriber struct {
	ch     chan Event
	accept AcceptFunc
}

// MemoryBus is the in-process Bus implementation. The subscriber
// registry is the only process-wide state in the server and lives for
// the life of each open subscription.
type MemoryBus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[Topic]map[int]*memorySubscriber
	logger *slog.Logger
}

// NewMemoryBus creates an empty in-process bus.
func NewMemoryBus(logger *slog.Logger) *MemoryBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemoryBus{
		subs:   make(map[Topic]map[int]*memorySubscriber),
		logger: logger,
	}
}

// Publish delivers ev to every accepting subscriber of its topic. The
// send is non-blocking: a subscriber with a full buffer loses the event
// and a warning is logged.
func (b *MemoryBus) Publish(ctx context.Context, ev Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, sub := range b.subs[ev.Topic()] {
		if sub.accept != nil && !sub.accept(ev) {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			b.logger.Warn("dropping event for slow subscriber",
				"topic", ev.Topic(), "subscriber", id)
		}
	}
	return nil
}

// Subscribe registers a filtered stream on topic. Cancelling ctx
// deregisters the subscriber and closes the channel.
func (b *MemoryBus) Subscribe(ctx context.Context, topic Topic, accept AcceptFunc) (<-chan Event, error) {
	sub := &memorySubscriber{
		ch:     make(chan Event, subscriberBuffer),
		accept: accept,
	}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[int]*memorySubscriber)
	}
	b.subs[topic][id] = sub
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs[topic], id)
		// Closing under the write lock excludes concurrent publishers,
		// so no send can race the close.
		close(sub.ch)
		b.mu.Unlock()
	}()

	return sub.ch, nil
}
