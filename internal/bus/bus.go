// Package bus provides the publish/subscribe channel that connects
// write operations to subscription streams. Two implementations exist:
// an in-process bus for a single server and a NATS-backed bus for
// multi-instance deployments.
package bus

import "context"

// Topic is a named event channel. Publishers and subscribers address it
// by name.
type Topic string

// Topics, one per event kind.
const (
	TopicConversationCreated Topic = "conversation.created"
	TopicConversationUpdated Topic = "conversation.updated"
	TopicConversationDeleted Topic = "conversation.deleted"
	TopicMessageSent         Topic = "message.sent"
)

// AcceptFunc is the per-subscriber fan-out filter: it is evaluated for
// every delivered event and decides whether the subscriber receives it.
// It must be fast and side-effect free; it runs on the publisher's path.
type AcceptFunc func(Event) bool

// Bus is the event transport abstraction.
type Bus interface {
	// Publish delivers ev to every current subscriber of ev.Topic()
	// whose accept predicate passes. A slow subscriber never blocks
	// publication to others or the publisher itself.
	Publish(ctx context.Context, ev Event) error

	// Subscribe registers a filtered stream on a topic. The returned
	// channel is closed and the subscriber deregistered when ctx is
	// cancelled. A nil accept delivers every event on the topic.
	Subscribe(ctx context.Context, topic Topic, accept AcceptFunc) (<-chan Event, error)
}
