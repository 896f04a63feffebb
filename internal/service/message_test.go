package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parley-chat/parley-go/internal/bus"
	"github.com/parley-chat/parley-go/internal/service"
)

// newMessageFixture wires conversation and message services over the
// same fake store and bus, with a conversation between alice and bob.
func newMessageFixture(t *testing.T) (*service.MessageService, *fakeStore, map[bus.Topic]<-chan bus.Event, string, [3]string) {
	t.Helper()

	store := newFakeStore()
	ids := [3]string{uuid.NewString(), uuid.NewString(), uuid.NewString()}
	store.addUser(ids[0], "alice")
	store.addUser(ids[1], "bob")
	store.addUser(ids[2], "carol")

	eventBus := bus.NewMemoryBus(testLogger())
	events := subscribeAll(t, eventBus)

	conversations := service.NewConversationService(store, eventBus, testLogger())
	conversationID, err := conversations.Create(context.Background(),
		session(ids[0], "alice"), []string{ids[0], ids[1]})
	require.NoError(t, err)
	drainOne(t, events[bus.TopicConversationCreated])

	svc := service.NewMessageService(store, eventBus, testLogger())
	return svc, store, events, conversationID, ids
}

func TestSendMessageFlipsSeenFlags(t *testing.T) {
	svc, store, events, conversationID, ids := newMessageFixture(t)
	alice, bob := ids[0], ids[1]
	ctx := context.Background()

	messageID := uuid.NewString()
	err := svc.Send(ctx, session(bob, "bob"), service.SendMessageInput{
		ID:             messageID,
		ConversationID: conversationID,
		SenderID:       bob,
		Body:           "hi alice",
	})
	require.NoError(t, err)

	conv, err := store.GetConversationPopulated(ctx, conversationID)
	require.NoError(t, err)
	require.NotNil(t, conv.LatestMessageID)
	assert.Equal(t, messageID, *conv.LatestMessageID)

	for _, p := range conv.Participants {
		if p.UserID == bob {
			assert.True(t, p.HasSeenLatestMessage, "sender has seen their own message")
		}
		if p.UserID == alice {
			assert.False(t, p.HasSeenLatestMessage, "recipient flips to unseen")
		}
	}

	sent, ok := drainOne(t, events[bus.TopicMessageSent]).(*bus.MessageSent)
	require.True(t, ok)
	assert.Equal(t, messageID, sent.Message.ID)
	assert.Equal(t, "bob", sent.Message.Sender.Username)

	updated, ok := drainOne(t, events[bus.TopicConversationUpdated]).(*bus.ConversationUpdated)
	require.True(t, ok)
	assert.Equal(t, conversationID, updated.Conversation.ID)
}

func TestSendMessageReplayedIDIsNoOp(t *testing.T) {
	svc, store, events, conversationID, ids := newMessageFixture(t)
	alice, bob := ids[0], ids[1]
	ctx := context.Background()

	input := service.SendMessageInput{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		SenderID:       bob,
		Body:           "only once",
	}
	require.NoError(t, svc.Send(ctx, session(bob, "bob"), input))
	drainOne(t, events[bus.TopicMessageSent])
	drainOne(t, events[bus.TopicConversationUpdated])

	// Alice reads the conversation, then the send is replayed.
	conv, err := store.GetConversationPopulated(ctx, conversationID)
	require.NoError(t, err)
	for _, p := range conv.Participants {
		if p.UserID == alice {
			require.NoError(t, store.SetParticipantSeen(ctx, p.ID, true))
		}
	}

	require.NoError(t, svc.Send(ctx, session(bob, "bob"), input))

	assertEmpty(t, events[bus.TopicMessageSent])
	assertEmpty(t, events[bus.TopicConversationUpdated])

	conv, err = store.GetConversationPopulated(ctx, conversationID)
	require.NoError(t, err)
	for _, p := range conv.Participants {
		assert.True(t, p.HasSeenLatestMessage, "replay must not flip flags back")
	}

	messages, err := store.ListMessagesPopulated(ctx, conversationID)
	require.NoError(t, err)
	assert.Len(t, messages, 1)
}

func TestSendMessageRequiresCallerIsSender(t *testing.T) {
	svc, _, events, conversationID, ids := newMessageFixture(t)
	alice, bob := ids[0], ids[1]
	ctx := context.Background()

	err := svc.Send(ctx, session(alice, "alice"), service.SendMessageInput{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		SenderID:       bob,
		Body:           "spoofed",
	})
	assert.ErrorIs(t, err, service.ErrNotAuthorized)
	assertEmpty(t, events[bus.TopicMessageSent])
}

func TestSendMessageValidation(t *testing.T) {
	svc, _, _, conversationID, ids := newMessageFixture(t)
	bob := ids[1]
	ctx := context.Background()

	err := svc.Send(ctx, session(bob, "bob"), service.SendMessageInput{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		SenderID:       bob,
		Body:           "",
	})
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestSendMessageUnknownConversation(t *testing.T) {
	svc, _, _, _, ids := newMessageFixture(t)
	bob := ids[1]
	ctx := context.Background()

	err := svc.Send(ctx, session(bob, "bob"), service.SendMessageInput{
		ID:             uuid.NewString(),
		ConversationID: uuid.NewString(),
		SenderID:       bob,
		Body:           "into the void",
	})
	assert.ErrorIs(t, err, service.ErrConversationNotFound)
}

func TestSendMessageSenderNotParticipant(t *testing.T) {
	svc, _, _, conversationID, ids := newMessageFixture(t)
	carol := ids[2]
	ctx := context.Background()

	err := svc.Send(ctx, session(carol, "carol"), service.SendMessageInput{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		SenderID:       carol,
		Body:           "let me in",
	})
	assert.ErrorIs(t, err, service.ErrParticipantNotFound)
}

func TestListMessagesRequiresMembership(t *testing.T) {
	svc, _, _, conversationID, ids := newMessageFixture(t)
	bob, carol := ids[1], ids[2]
	ctx := context.Background()

	require.NoError(t, svc.Send(ctx, session(bob, "bob"), service.SendMessageInput{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		SenderID:       bob,
		Body:           "first",
	}))

	_, err := svc.List(ctx, session(carol, "carol"), conversationID)
	assert.ErrorIs(t, err, service.ErrNotAuthorized)

	_, err = svc.List(ctx, session(bob, "bob"), uuid.NewString())
	assert.ErrorIs(t, err, service.ErrConversationNotFound)

	messages, err := svc.List(ctx, session(bob, "bob"), conversationID)
	require.NoError(t, err)
	assert.Len(t, messages, 1)
}
