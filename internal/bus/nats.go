package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// subjectPrefix namespaces every event subject on the NATS side.
const subjectPrefix = "parley.events."

// envelope is the wire format for events on NATS. Kind selects the
// payload variant on decode.
type envelope struct {
	Kind    Topic           `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// NATSBus is the networked Bus implementation, for running more than
// one server instance against the same store. Filtering still happens
// subscriber-side, after decode.
type NATSBus struct {
	conn   *nats.Conn
	logger *slog.Logger
}

// NewNATSBus connects to the NATS server at url with reconnect enabled.
func NewNATSBus(url string, logger *slog.Logger) (*NATSBus, error) {
	if logger == nil {
		logger = slog.Default()
	}

	opts := []nats.Option{
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("NATS disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	logger.Info("NATS connection established", "url", url)
	return &NATSBus{conn: conn, logger: logger}, nil
}

// Close drains and closes the NATS connection.
func (b *NATSBus) Close() {
	b.conn.Close()
}

// Publish encodes ev as a JSON envelope and publishes it on the topic's
// subject.
func (b *NATSBus) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	data, err := json.Marshal(envelope{Kind: ev.Topic(), Payload: payload})
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	if err := b.conn.Publish(subjectPrefix+string(ev.Topic()), data); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// Subscribe registers a filtered stream on topic. The NATS subscription
// is torn down and the channel closed when ctx is cancelled.
func (b *NATSBus) Subscribe(ctx context.Context, topic Topic, accept AcceptFunc) (<-chan Event, error) {
	ch := make(chan Event, subscriberBuffer)

	// An in-flight handler can outlive Unsubscribe, so sends and the
	// close are serialized through closed.
	var mu sync.Mutex
	closed := false

	sub, err := b.conn.Subscribe(subjectPrefix+string(topic), func(msg *nats.Msg) {
		ev, err := decodeEvent(msg.Data)
		if err != nil {
			b.logger.Warn("dropping undecodable event", "subject", msg.Subject, "error", err)
			return
		}
		if accept != nil && !accept(ev) {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case ch <- ev:
		default:
			b.logger.Warn("dropping event for slow subscriber", "subject", msg.Subject)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	go func() {
		<-ctx.Done()
		if err := sub.Unsubscribe(); err != nil {
			b.logger.Warn("unsubscribe failed", "topic", topic, "error", err)
		}
		mu.Lock()
		closed = true
		close(ch)
		mu.Unlock()
	}()

	return ch, nil
}

// decodeEvent turns a JSON envelope back into its typed variant.
func decodeEvent(data []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}

	var ev Event
	switch env.Kind {
	case TopicConversationCreated:
		ev = &ConversationCreated{}
	case TopicConversationUpdated:
		ev = &ConversationUpdated{}
	case TopicConversationDeleted:
		ev = &ConversationDeleted{}
	case TopicMessageSent:
		ev = &MessageSent{}
	default:
		return nil, fmt.Errorf("unknown event kind %q", env.Kind)
	}

	if err := json.Unmarshal(env.Payload, ev); err != nil {
		return nil, fmt.Errorf("unmarshal %s payload: %w", env.Kind, err)
	}

	// Filters dereference the entity without nil checks, so an envelope
	// that omits it is as undecodable as bad JSON.
	missing := false
	switch v := ev.(type) {
	case *ConversationCreated:
		missing = v.Conversation == nil
	case *ConversationUpdated:
		missing = v.Conversation == nil
	case *ConversationDeleted:
		missing = v.Conversation == nil
	case *MessageSent:
		missing = v.Message == nil
	}
	if missing {
		return nil, fmt.Errorf("%s payload missing entity", env.Kind)
	}
	return ev, nil
}
