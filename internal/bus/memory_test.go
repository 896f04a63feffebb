package bus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parley-chat/parley-go/internal/models"
)

func testConversation(id string, userIDs ...string) *models.ConversationPopulated {
	conv := &models.ConversationPopulated{}
	conv.ID = id
	for _, uid := range userIDs {
		p := models.ParticipantPopulated{}
		p.UserID = uid
		p.User = models.UserSummary{ID: uid}
		conv.Participants = append(conv.Participants, p)
	}
	return conv
}

func testMessage(id, conversationID string) *models.MessagePopulated {
	msg := &models.MessagePopulated{}
	msg.ID = id
	msg.ConversationID = conversationID
	return msg
}

func receiveEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func assertNoEvent(t *testing.T, ch <-chan Event) {
	t.Helper()
	select {
	case ev := <-ch:
		t.Fatalf("unexpected event: %#v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryBusDeliversToAcceptingSubscribers(t *testing.T) {
	b := NewMemoryBus(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	accepting, err := b.Subscribe(ctx, TopicConversationCreated, func(ev Event) bool {
		created := ev.(*ConversationCreated)
		return created.Conversation.ID == "c1"
	})
	require.NoError(t, err)

	rejecting, err := b.Subscribe(ctx, TopicConversationCreated, func(ev Event) bool {
		return false
	})
	require.NoError(t, err)

	unfiltered, err := b.Subscribe(ctx, TopicConversationCreated, nil)
	require.NoError(t, err)

	err = b.Publish(ctx, &ConversationCreated{Conversation: testConversation("c1", "u1")})
	require.NoError(t, err)

	got := receiveEvent(t, accepting)
	created, ok := got.(*ConversationCreated)
	require.True(t, ok, "should deliver the typed event")
	assert.Equal(t, "c1", created.Conversation.ID)

	receiveEvent(t, unfiltered)
	assertNoEvent(t, rejecting)
}

func TestMemoryBusTopicIsolation(t *testing.T) {
	b := NewMemoryBus(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	messages, err := b.Subscribe(ctx, TopicMessageSent, nil)
	require.NoError(t, err)

	err = b.Publish(ctx, &ConversationCreated{Conversation: testConversation("c1")})
	require.NoError(t, err)

	assertNoEvent(t, messages)
}

func TestMemoryBusPublishWithoutSubscribers(t *testing.T) {
	b := NewMemoryBus(nil)

	err := b.Publish(context.Background(), &MessageSent{Message: testMessage("m1", "c1")})
	assert.NoError(t, err)
}

func TestMemoryBusDropsEventsForSlowSubscriber(t *testing.T) {
	b := NewMemoryBus(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := b.Subscribe(ctx, TopicMessageSent, nil)
	require.NoError(t, err)

	// Nobody drains the channel, so everything past the buffer is lost
	// and Publish never blocks.
	total := subscriberBuffer + 10
	for i := 0; i < total; i++ {
		err := b.Publish(ctx, &MessageSent{Message: testMessage("m", "c1")})
		require.NoError(t, err)
	}

	delivered := 0
	for {
		select {
		case <-ch:
			delivered++
		default:
			assert.Equal(t, subscriberBuffer, delivered)
			return
		}
	}
}

func TestMemoryBusUnsubscribeOnContextCancel(t *testing.T) {
	b := NewMemoryBus(nil)
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := b.Subscribe(ctx, TopicConversationDeleted, nil)
	require.NoError(t, err)

	cancel()

	select {
	case _, open := <-ch:
		assert.False(t, open, "channel should be closed after cancel")
	case <-time.After(time.Second):
		t.Fatal("channel was not closed after cancel")
	}

	// Publishing afterwards must not panic on the closed channel.
	err = b.Publish(context.Background(), &ConversationDeleted{Conversation: testConversation("c1")})
	assert.NoError(t, err)
}

func TestMemoryBusIndependentSubscribersReceiveCopies(t *testing.T) {
	b := NewMemoryBus(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first, err := b.Subscribe(ctx, TopicConversationUpdated, nil)
	require.NoError(t, err)
	second, err := b.Subscribe(ctx, TopicConversationUpdated, nil)
	require.NoError(t, err)

	err = b.Publish(ctx, &ConversationUpdated{Conversation: testConversation("c9", "u1", "u2")})
	require.NoError(t, err)

	for _, ch := range []<-chan Event{first, second} {
		ev := receiveEvent(t, ch)
		updated, ok := ev.(*ConversationUpdated)
		require.True(t, ok)
		assert.Equal(t, "c9", updated.Conversation.ID)
		assert.Len(t, updated.Conversation.Participants, 2)
	}
}
