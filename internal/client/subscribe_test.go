package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// fanoutServer speaks just enough graphql-transport-ws to ack a
// connection and then flood the subscription with one event per loop.
func fanoutServer(t *testing.T, data string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{Subprotocols: []string{"graphql-transport-ws"}}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var msg wsMessage
		if conn.ReadJSON(&msg) != nil || msg.Type != "connection_init" {
			return
		}
		if conn.WriteJSON(wsMessage{Type: "connection_ack"}) != nil {
			return
		}
		if conn.ReadJSON(&msg) != nil || msg.Type != "subscribe" {
			return
		}

		payload, err := json.Marshal(graphqlResponse{Data: json.RawMessage(data)})
		if err != nil {
			return
		}
		for {
			if conn.WriteJSON(wsMessage{ID: msg.ID, Type: "next", Payload: payload}) != nil {
				return
			}
		}
	}))
}

func TestWatchConversationsStopsOnCancel(t *testing.T) {
	srv := fanoutServer(t, `{"conversationCreated":{"id":"c1"}}`)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := New(srv.URL, "")
	changes, err := c.WatchConversations(ctx)
	require.NoError(t, err)

	// All three subscriptions stream against the same test server, so
	// just prove the merged channel is live.
	select {
	case <-changes:
	case <-time.After(2 * time.Second):
		t.Fatal("no change received")
	}

	// Cancel while the server keeps flooding and nobody is reading. The
	// fan-in goroutine must give up its pending send and close the
	// channel instead of blocking forever.
	cancel()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, open := <-changes:
			if !open {
				return
			}
		case <-deadline:
			t.Fatal("changes channel did not close after cancel")
		}
	}
}

func TestWatchMessagesStopsOnCancel(t *testing.T) {
	srv := fanoutServer(t, `{"messageSent":{"id":"m1","conversationId":"c1","body":"hi"}}`)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := New(srv.URL, "")
	messages, err := c.WatchMessages(ctx, "c1")
	require.NoError(t, err)

	select {
	case msg := <-messages:
		require.Equal(t, "m1", msg.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}

	cancel()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, open := <-messages:
			if !open {
				return
			}
		case <-deadline:
			t.Fatal("messages channel did not close after cancel")
		}
	}
}
