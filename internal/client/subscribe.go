package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// wsMessage is a graphql-transport-ws protocol frame.
type wsMessage struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// SubscriptionEvent is one "next" payload delivered by a subscription.
type SubscriptionEvent struct {
	Data json.RawMessage
}

// Subscribe opens a websocket subscription and streams results onto the
// returned channel. The channel is closed when the server completes the
// subscription, the connection drops, or ctx is cancelled.
func (c *Client) Subscribe(ctx context.Context, query string, variables map[string]any) (<-chan SubscriptionEvent, error) {
	wsURL := websocketURL(c.endpoint)

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
		Subprotocols:     []string{"graphql-transport-ws"},
	}
	conn, _, err := dialer.DialContext(ctx, wsURL, http.Header{})
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", wsURL, err)
	}

	initPayload := map[string]any{}
	if c.token != "" {
		initPayload["Authorization"] = "Bearer " + c.token
	}
	if err := writeFrame(conn, wsMessage{Type: "connection_init"}, initPayload); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sending connection_init: %w", err)
	}

	// Wait for the ack before subscribing. Ping frames may arrive first.
	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			conn.Close()
			return nil, fmt.Errorf("waiting for connection_ack: %w", err)
		}
		if msg.Type == "connection_ack" {
			break
		}
		if msg.Type == "ping" {
			if err := conn.WriteJSON(wsMessage{Type: "pong"}); err != nil {
				conn.Close()
				return nil, fmt.Errorf("answering ping: %w", err)
			}
		}
	}

	sub := graphqlRequest{Query: query, Variables: variables}
	payload, err := json.Marshal(sub)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("marshaling subscription: %w", err)
	}
	if err := conn.WriteJSON(wsMessage{ID: "1", Type: "subscribe", Payload: payload}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sending subscribe: %w", err)
	}

	events := make(chan SubscriptionEvent)

	go func() {
		<-ctx.Done()
		conn.WriteJSON(wsMessage{ID: "1", Type: "complete"})
		conn.Close()
	}()

	go func() {
		defer close(events)
		for {
			var msg wsMessage
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			switch msg.Type {
			case "next":
				var resp graphqlResponse
				if err := json.Unmarshal(msg.Payload, &resp); err != nil {
					continue
				}
				select {
				case events <- SubscriptionEvent{Data: resp.Data}:
				case <-ctx.Done():
					return
				}
			case "ping":
				conn.WriteJSON(wsMessage{Type: "pong"})
			case "complete", "error":
				return
			}
		}
	}()

	return events, nil
}

func writeFrame(conn *websocket.Conn, msg wsMessage, payload any) error {
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		msg.Payload = raw
	}
	return conn.WriteJSON(msg)
}

func websocketURL(endpoint string) string {
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		return "wss://" + strings.TrimPrefix(endpoint, "https://")
	case strings.HasPrefix(endpoint, "http://"):
		return "ws://" + strings.TrimPrefix(endpoint, "http://")
	}
	return endpoint
}

// WatchMessages subscribes to new messages in a conversation.
func (c *Client) WatchMessages(ctx context.Context, conversationID string) (<-chan Message, error) {
	query := `subscription($conversationId: String!) {
		messageSent(conversationId: $conversationId) {
			id
			conversationId
			body
			createdAt
			sender { id username }
		}
	}`
	vars := map[string]any{"conversationId": conversationID}

	events, err := c.Subscribe(ctx, query, vars)
	if err != nil {
		return nil, err
	}

	messages := make(chan Message)
	go func() {
		defer close(messages)
		for ev := range events {
			var payload struct {
				MessageSent Message `json:"messageSent"`
			}
			if err := json.Unmarshal(ev.Data, &payload); err != nil {
				continue
			}
			select {
			case messages <- payload.MessageSent:
			case <-ctx.Done():
				return
			}
		}
	}()
	return messages, nil
}

// ConversationChange is one conversation lifecycle event.
type ConversationChange struct {
	Kind         string // "created", "updated" or "deleted"
	Conversation Conversation
}

// WatchConversations subscribes to conversation lifecycle events visible to
// the caller. Created, updated and deleted events are merged onto one channel.
func (c *Client) WatchConversations(ctx context.Context) (<-chan ConversationChange, error) {
	changes := make(chan ConversationChange)

	createdQuery := fmt.Sprintf(`subscription { conversationCreated { %s } }`, conversationFields)
	updatedQuery := fmt.Sprintf(`subscription { conversationUpdated { conversation { %s } } }`, conversationFields)
	deletedQuery := fmt.Sprintf(`subscription { conversationDeleted { %s } }`, conversationFields)

	created, err := c.Subscribe(ctx, createdQuery, nil)
	if err != nil {
		return nil, err
	}
	updated, err := c.Subscribe(ctx, updatedQuery, nil)
	if err != nil {
		return nil, err
	}
	deleted, err := c.Subscribe(ctx, deletedQuery, nil)
	if err != nil {
		return nil, err
	}

	go func() {
		defer close(changes)

		// A consumer that walks away without cancelling must not pin
		// this goroutine, so every send also waits on ctx.
		emit := func(change ConversationChange) bool {
			select {
			case changes <- change:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for created != nil || updated != nil || deleted != nil {
			select {
			case ev, ok := <-created:
				if !ok {
					created = nil
					continue
				}
				var payload struct {
					ConversationCreated Conversation `json:"conversationCreated"`
				}
				if json.Unmarshal(ev.Data, &payload) == nil {
					if !emit(ConversationChange{Kind: "created", Conversation: payload.ConversationCreated}) {
						return
					}
				}
			case ev, ok := <-updated:
				if !ok {
					updated = nil
					continue
				}
				var payload struct {
					ConversationUpdated struct {
						Conversation Conversation `json:"conversation"`
					} `json:"conversationUpdated"`
				}
				if json.Unmarshal(ev.Data, &payload) == nil {
					if !emit(ConversationChange{Kind: "updated", Conversation: payload.ConversationUpdated.Conversation}) {
						return
					}
				}
			case ev, ok := <-deleted:
				if !ok {
					deleted = nil
					continue
				}
				var payload struct {
					ConversationDeleted Conversation `json:"conversationDeleted"`
				}
				if json.Unmarshal(ev.Data, &payload) == nil {
					if !emit(ConversationChange{Kind: "deleted", Conversation: payload.ConversationDeleted}) {
						return
					}
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return changes, nil
}
