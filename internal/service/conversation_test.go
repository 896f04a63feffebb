package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parley-chat/parley-go/internal/auth"
	"github.com/parley-chat/parley-go/internal/bus"
	"github.com/parley-chat/parley-go/internal/service"
)

// newConversationFixture wires a fake store, a real in-memory bus, and
// three users: alice, bob and carol.
func newConversationFixture(t *testing.T) (*service.ConversationService, *fakeStore, map[bus.Topic]<-chan bus.Event, [3]string) {
	t.Helper()

	store := newFakeStore()
	ids := [3]string{uuid.NewString(), uuid.NewString(), uuid.NewString()}
	store.addUser(ids[0], "alice")
	store.addUser(ids[1], "bob")
	store.addUser(ids[2], "carol")

	eventBus := bus.NewMemoryBus(testLogger())
	events := subscribeAll(t, eventBus)
	svc := service.NewConversationService(store, eventBus, testLogger())
	return svc, store, events, ids
}

func session(userID, username string) *auth.Session {
	return &auth.Session{UserID: userID, Username: username}
}

func TestCreateConversationSeenFlags(t *testing.T) {
	svc, store, events, ids := newConversationFixture(t)
	alice, bob := ids[0], ids[1]
	ctx := context.Background()

	conversationID, err := svc.Create(ctx, session(alice, "alice"), []string{alice, bob})
	require.NoError(t, err)
	require.NotEmpty(t, conversationID)

	conv, err := store.GetConversationPopulated(ctx, conversationID)
	require.NoError(t, err)
	require.Len(t, conv.Participants, 2)

	for _, p := range conv.Participants {
		if p.UserID == alice {
			assert.True(t, p.HasSeenLatestMessage, "creator starts seen")
		} else {
			assert.False(t, p.HasSeenLatestMessage, "other participants start unseen")
		}
	}

	ev := drainOne(t, events[bus.TopicConversationCreated])
	created, ok := ev.(*bus.ConversationCreated)
	require.True(t, ok)
	assert.Equal(t, conversationID, created.Conversation.ID)
	assert.Len(t, created.Conversation.Participants, 2)
}

func TestCreateConversationValidation(t *testing.T) {
	svc, _, _, ids := newConversationFixture(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, session(ids[0], "alice"), nil)
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	_, err = svc.Create(ctx, session(ids[0], "alice"), []string{"not-a-uuid"})
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestListFiltersByMembership(t *testing.T) {
	svc, _, _, ids := newConversationFixture(t)
	alice, bob, carol := ids[0], ids[1], ids[2]
	ctx := context.Background()

	withBob, err := svc.Create(ctx, session(alice, "alice"), []string{alice, bob})
	require.NoError(t, err)
	_, err = svc.Create(ctx, session(bob, "bob"), []string{bob, carol})
	require.NoError(t, err)

	mine, err := svc.List(ctx, session(alice, "alice"))
	require.NoError(t, err)
	require.Len(t, mine, 1, "must only see own conversations")
	assert.Equal(t, withBob, mine[0].ID)

	bobs, err := svc.List(ctx, session(bob, "bob"))
	require.NoError(t, err)
	assert.Len(t, bobs, 2)
}

func TestMarkAsReadIsIdempotent(t *testing.T) {
	svc, store, _, ids := newConversationFixture(t)
	alice, bob := ids[0], ids[1]
	ctx := context.Background()

	conversationID, err := svc.Create(ctx, session(alice, "alice"), []string{alice, bob})
	require.NoError(t, err)

	require.NoError(t, svc.MarkAsRead(ctx, session(bob, "bob"), bob, conversationID))
	require.NoError(t, svc.MarkAsRead(ctx, session(bob, "bob"), bob, conversationID))

	conv, err := store.GetConversationPopulated(ctx, conversationID)
	require.NoError(t, err)
	for _, p := range conv.Participants {
		assert.True(t, p.HasSeenLatestMessage)
	}
}

func TestMarkAsReadUnknownParticipant(t *testing.T) {
	svc, _, _, ids := newConversationFixture(t)
	alice, bob, carol := ids[0], ids[1], ids[2]
	ctx := context.Background()

	conversationID, err := svc.Create(ctx, session(alice, "alice"), []string{alice, bob})
	require.NoError(t, err)

	err = svc.MarkAsRead(ctx, session(carol, "carol"), carol, conversationID)
	assert.ErrorIs(t, err, service.ErrParticipantNotFound)

	err = svc.MarkAsRead(ctx, session(bob, "bob"), bob, uuid.NewString())
	assert.ErrorIs(t, err, service.ErrParticipantNotFound)
}

func TestDeletePublishesLastKnownState(t *testing.T) {
	svc, store, events, ids := newConversationFixture(t)
	alice, bob := ids[0], ids[1]
	ctx := context.Background()

	conversationID, err := svc.Create(ctx, session(alice, "alice"), []string{alice, bob})
	require.NoError(t, err)
	drainOne(t, events[bus.TopicConversationCreated])

	require.NoError(t, svc.Delete(ctx, session(alice, "alice"), conversationID))

	_, err = store.GetConversationPopulated(ctx, conversationID)
	assert.Error(t, err)

	ev := drainOne(t, events[bus.TopicConversationDeleted])
	deleted, ok := ev.(*bus.ConversationDeleted)
	require.True(t, ok)
	assert.Equal(t, conversationID, deleted.Conversation.ID)
	assert.Len(t, deleted.Conversation.Participants, 2,
		"event carries the state from before the delete")
}

// failingDeleteStore refuses every delete, standing in for a store
// whose delete transaction aborts mid-way.
type failingDeleteStore struct {
	*fakeStore
}

var errDeleteFailed = errors.New("delete transaction aborted")

func (f *failingDeleteStore) DeleteConversation(ctx context.Context, conversationID string) error {
	return errDeleteFailed
}

func TestDeleteFailureLeavesStateAndPublishesNothing(t *testing.T) {
	store := newFakeStore()
	alice, bob := uuid.NewString(), uuid.NewString()
	store.addUser(alice, "alice")
	store.addUser(bob, "bob")

	eventBus := bus.NewMemoryBus(testLogger())
	events := subscribeAll(t, eventBus)
	svc := service.NewConversationService(&failingDeleteStore{fakeStore: store}, eventBus, testLogger())
	ctx := context.Background()

	conversationID, err := svc.Create(ctx, session(alice, "alice"), []string{alice, bob})
	require.NoError(t, err)
	drainOne(t, events[bus.TopicConversationCreated])

	err = svc.Delete(ctx, session(alice, "alice"), conversationID)
	require.ErrorIs(t, err, errDeleteFailed)

	// The conversation and its participants are still there, and no
	// deleted event went out for a delete that never happened.
	conv, err := store.GetConversationPopulated(ctx, conversationID)
	require.NoError(t, err)
	assert.Len(t, conv.Participants, 2)
	assertEmpty(t, events[bus.TopicConversationDeleted])
}

func TestDeleteUnknownConversation(t *testing.T) {
	svc, _, _, ids := newConversationFixture(t)
	ctx := context.Background()

	err := svc.Delete(ctx, session(ids[0], "alice"), uuid.NewString())
	assert.ErrorIs(t, err, service.ErrConversationNotFound)
}

func TestDeleteByNonParticipant(t *testing.T) {
	svc, _, events, ids := newConversationFixture(t)
	alice, bob, carol := ids[0], ids[1], ids[2]
	ctx := context.Background()

	conversationID, err := svc.Create(ctx, session(alice, "alice"), []string{alice, bob})
	require.NoError(t, err)
	drainOne(t, events[bus.TopicConversationCreated])

	// Deletion does not require membership.
	err = svc.Delete(ctx, session(carol, "carol"), conversationID)
	assert.NoError(t, err)
	drainOne(t, events[bus.TopicConversationDeleted])
}
