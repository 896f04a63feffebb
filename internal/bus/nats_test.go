//go:build integration

package bus_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parley-chat/parley-go/internal/bus"
	"github.com/parley-chat/parley-go/internal/models"
)

// natsURL returns the broker address for integration tests, or skips
// the test when none is configured.
func natsURL(t *testing.T) string {
	t.Helper()
	url := os.Getenv("NATS_URL")
	if url == "" {
		t.Skip("NATS_URL not set, skipping NATS integration test")
	}
	return url
}

func TestNATSBusRoundTrip(t *testing.T) {
	b, err := bus.NewNATSBus(natsURL(t), nil)
	require.NoError(t, err)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := b.Subscribe(ctx, bus.TopicMessageSent, nil)
	require.NoError(t, err)

	msg := &models.MessagePopulated{}
	msg.ID = "m1"
	msg.ConversationID = "c1"
	msg.Body = "over the wire"

	err = b.Publish(ctx, &bus.MessageSent{Message: msg})
	require.NoError(t, err)

	select {
	case ev := <-ch:
		sent, ok := ev.(*bus.MessageSent)
		require.True(t, ok, "should decode back into the typed event")
		assert.Equal(t, "m1", sent.Message.ID)
		assert.Equal(t, "over the wire", sent.Message.Body)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestNATSBusAppliesAcceptFilter(t *testing.T) {
	b, err := bus.NewNATSBus(natsURL(t), nil)
	require.NoError(t, err)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := b.Subscribe(ctx, bus.TopicMessageSent, func(ev bus.Event) bool {
		sent := ev.(*bus.MessageSent)
		return sent.Message.ConversationID == "wanted"
	})
	require.NoError(t, err)

	unwanted := &models.MessagePopulated{}
	unwanted.ID = "m1"
	unwanted.ConversationID = "other"
	require.NoError(t, b.Publish(ctx, &bus.MessageSent{Message: unwanted}))

	wanted := &models.MessagePopulated{}
	wanted.ID = "m2"
	wanted.ConversationID = "wanted"
	require.NoError(t, b.Publish(ctx, &bus.MessageSent{Message: wanted}))

	select {
	case ev := <-ch:
		sent := ev.(*bus.MessageSent)
		assert.Equal(t, "m2", sent.Message.ID, "filtered-out event must not be delivered")
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}
