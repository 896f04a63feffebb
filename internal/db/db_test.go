// Package db provides integration tests for the Postgres store. A
// throwaway Postgres container backs the whole package.
package db

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/parley-chat/parley-go/internal/models"
)

var testDB *Client
var testContainer testcontainers.Container

// TestMain sets up and tears down the Postgres container for all tests.
func TestMain(m *testing.M) {
	// Disable ryuk (cleanup container) as it can cause issues in some environments
	os.Setenv("TESTCONTAINERS_RYUK_DISABLED", "true")

	ctx := context.Background()

	var err error
	testContainer, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "parley",
				"POSTGRES_PASSWORD": "parley",
				"POSTGRES_DB":       "parley_test",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		log.Fatalf("Failed to start Postgres container: %v", err)
	}

	host, err := testContainer.Host(ctx)
	if err != nil {
		log.Fatalf("Failed to get container host: %v", err)
	}
	// Workaround: testcontainers may return "null" as host in some environments
	if host == "" || host == "null" {
		host = "localhost"
	}
	mappedPort, err := testContainer.MappedPort(ctx, "5432")
	if err != nil {
		log.Fatalf("Failed to get mapped port: %v", err)
	}

	testDB, err = NewClient(ctx, Config{
		URL: fmt.Sprintf("postgres://parley:parley@%s:%s/parley_test?sslmode=disable", host, mappedPort.Port()),
	}, nil)
	if err != nil {
		log.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := testDB.InitSchema(ctx); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	code := m.Run()

	_ = testDB.Close(ctx)
	_ = testContainer.Terminate(ctx)

	os.Exit(code)
}

// createTestUser inserts a user with a unique username and returns it.
func createTestUser(t *testing.T, prefix string) models.User {
	t.Helper()

	username := prefix + "-" + uuid.NewString()[:8]
	user := models.User{
		ID:       uuid.NewString(),
		Username: &username,
		Email:    username + "@example.com",
	}
	require.NoError(t, testDB.CreateUser(context.Background(), user))
	return user
}

// createTestConversation inserts a conversation between the given users,
// the first one flagged as having seen the latest message.
func createTestConversation(t *testing.T, users ...models.User) string {
	t.Helper()

	conversationID := uuid.NewString()
	participants := make([]NewParticipant, len(users))
	for i, u := range users {
		participants[i] = NewParticipant{
			ID:                   uuid.NewString(),
			UserID:               u.ID,
			HasSeenLatestMessage: i == 0,
		}
	}
	require.NoError(t, testDB.CreateConversation(context.Background(), conversationID, participants))
	return conversationID
}

func TestCreateAndGetConversation(t *testing.T) {
	ctx := context.Background()
	alice := createTestUser(t, "alice")
	bob := createTestUser(t, "bob")

	conversationID := createTestConversation(t, alice, bob)

	conv, err := testDB.GetConversationPopulated(ctx, conversationID)
	require.NoError(t, err)
	assert.Equal(t, conversationID, conv.ID)
	assert.Nil(t, conv.LatestMessageID)
	assert.Nil(t, conv.LatestMessage)
	require.Len(t, conv.Participants, 2)

	for _, p := range conv.Participants {
		switch p.UserID {
		case alice.ID:
			assert.Equal(t, *alice.Username, p.User.Username)
			assert.True(t, p.HasSeenLatestMessage)
		case bob.ID:
			assert.Equal(t, *bob.Username, p.User.Username)
			assert.False(t, p.HasSeenLatestMessage)
		default:
			t.Fatalf("unexpected participant %s", p.UserID)
		}
	}
}

func TestGetConversationNotFound(t *testing.T) {
	_, err := testDB.GetConversationPopulated(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateConversationUnknownUser(t *testing.T) {
	ctx := context.Background()
	alice := createTestUser(t, "alice")

	conversationID := uuid.NewString()
	err := testDB.CreateConversation(ctx, conversationID, []NewParticipant{
		{ID: uuid.NewString(), UserID: alice.ID, HasSeenLatestMessage: true},
		{ID: uuid.NewString(), UserID: uuid.NewString()},
	})
	assert.ErrorIs(t, err, ErrInvalidReference)

	// The conversation row and the valid participant were inserted
	// before the failure, so the rollback must take them with it.
	_, err = testDB.GetConversationPopulated(ctx, conversationID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = testDB.FindParticipant(ctx, conversationID, alice.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListConversationsIncludesParticipants(t *testing.T) {
	alice := createTestUser(t, "alice")
	bob := createTestUser(t, "bob")
	conversationID := createTestConversation(t, alice, bob)

	all, err := testDB.ListConversationsPopulated(context.Background())
	require.NoError(t, err)

	var found bool
	for _, conv := range all {
		if conv.ID == conversationID {
			found = true
			assert.Len(t, conv.Participants, 2)
		}
	}
	assert.True(t, found, "created conversation should be listed")
}

func TestSendMessageUpdatesConversation(t *testing.T) {
	ctx := context.Background()
	alice := createTestUser(t, "alice")
	bob := createTestUser(t, "bob")
	conversationID := createTestConversation(t, alice, bob)

	messageID := uuid.NewString()
	created, err := testDB.SendMessage(ctx, models.Message{
		ID:             messageID,
		ConversationID: conversationID,
		SenderID:       bob.ID,
		Body:           "hello",
	})
	require.NoError(t, err)
	assert.True(t, created)

	conv, err := testDB.GetConversationPopulated(ctx, conversationID)
	require.NoError(t, err)
	require.NotNil(t, conv.LatestMessageID)
	assert.Equal(t, messageID, *conv.LatestMessageID)
	require.NotNil(t, conv.LatestMessage)
	assert.Equal(t, "hello", conv.LatestMessage.Body)

	for _, p := range conv.Participants {
		assert.Equal(t, p.UserID == bob.ID, p.HasSeenLatestMessage)
	}
}

func TestSendMessageReplayedID(t *testing.T) {
	ctx := context.Background()
	alice := createTestUser(t, "alice")
	bob := createTestUser(t, "bob")
	conversationID := createTestConversation(t, alice, bob)

	msg := models.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		SenderID:       bob.ID,
		Body:           "once",
	}
	created, err := testDB.SendMessage(ctx, msg)
	require.NoError(t, err)
	require.True(t, created)

	// Alice catches up before the replay arrives.
	aliceRow, err := testDB.FindParticipant(ctx, conversationID, alice.ID)
	require.NoError(t, err)
	require.NoError(t, testDB.SetParticipantSeen(ctx, aliceRow.ID, true))

	created, err = testDB.SendMessage(ctx, msg)
	require.NoError(t, err)
	assert.False(t, created)

	conv, err := testDB.GetConversationPopulated(ctx, conversationID)
	require.NoError(t, err)
	for _, p := range conv.Participants {
		assert.True(t, p.HasSeenLatestMessage, "replay must not flip flags back")
	}

	messages, err := testDB.ListMessagesPopulated(ctx, conversationID)
	require.NoError(t, err)
	assert.Len(t, messages, 1)
}

func TestSendMessageSenderNotParticipant(t *testing.T) {
	ctx := context.Background()
	alice := createTestUser(t, "alice")
	bob := createTestUser(t, "bob")
	outsider := createTestUser(t, "mallory")
	conversationID := createTestConversation(t, alice, bob)

	_, err := testDB.SendMessage(ctx, models.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		SenderID:       outsider.ID,
		Body:           "let me in",
	})
	assert.ErrorIs(t, err, ErrNotFound)

	// The insert rolled back with the rest of the transaction.
	messages, err := testDB.ListMessagesPopulated(ctx, conversationID)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestSendMessageUnknownConversation(t *testing.T) {
	alice := createTestUser(t, "alice")

	_, err := testDB.SendMessage(context.Background(), models.Message{
		ID:             uuid.NewString(),
		ConversationID: uuid.NewString(),
		SenderID:       alice.ID,
		Body:           "nowhere",
	})
	assert.ErrorIs(t, err, ErrInvalidReference)
}

func TestListMessagesNewestFirst(t *testing.T) {
	ctx := context.Background()
	alice := createTestUser(t, "alice")
	bob := createTestUser(t, "bob")
	conversationID := createTestConversation(t, alice, bob)

	for _, body := range []string{"first", "second", "third"} {
		_, err := testDB.SendMessage(ctx, models.Message{
			ID:             uuid.NewString(),
			ConversationID: conversationID,
			SenderID:       alice.ID,
			Body:           body,
		})
		require.NoError(t, err)
		// created_at has microsecond resolution, keep inserts apart
		time.Sleep(2 * time.Millisecond)
	}

	messages, err := testDB.ListMessagesPopulated(ctx, conversationID)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, "third", messages[0].Body)
	assert.Equal(t, "first", messages[2].Body)
	assert.Equal(t, *alice.Username, messages[0].Sender.Username)
}

func TestDeleteConversationCascades(t *testing.T) {
	ctx := context.Background()
	alice := createTestUser(t, "alice")
	bob := createTestUser(t, "bob")
	conversationID := createTestConversation(t, alice, bob)

	_, err := testDB.SendMessage(ctx, models.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		SenderID:       alice.ID,
		Body:           "soon gone",
	})
	require.NoError(t, err)

	require.NoError(t, testDB.DeleteConversation(ctx, conversationID))

	_, err = testDB.GetConversationPopulated(ctx, conversationID)
	assert.ErrorIs(t, err, ErrNotFound)

	messages, err := testDB.ListMessagesPopulated(ctx, conversationID)
	require.NoError(t, err)
	assert.Empty(t, messages)

	_, err = testDB.FindParticipant(ctx, conversationID, alice.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteConversationNotFound(t *testing.T) {
	err := testDB.DeleteConversation(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetParticipantSeen(t *testing.T) {
	ctx := context.Background()
	alice := createTestUser(t, "alice")
	bob := createTestUser(t, "bob")
	conversationID := createTestConversation(t, alice, bob)

	bobRow, err := testDB.FindParticipant(ctx, conversationID, bob.ID)
	require.NoError(t, err)
	assert.False(t, bobRow.HasSeenLatestMessage)

	require.NoError(t, testDB.SetParticipantSeen(ctx, bobRow.ID, true))

	bobRow, err = testDB.FindParticipant(ctx, conversationID, bob.ID)
	require.NoError(t, err)
	assert.True(t, bobRow.HasSeenLatestMessage)
}

func TestSearchUsers(t *testing.T) {
	ctx := context.Background()
	needle := "srch" + uuid.NewString()[:8]

	matchName := needle + "match"
	match := models.User{ID: uuid.NewString(), Username: &matchName}
	require.NoError(t, testDB.CreateUser(ctx, match))

	selfName := needle + "self"
	self := models.User{ID: uuid.NewString(), Username: &selfName}
	require.NoError(t, testDB.CreateUser(ctx, self))

	// Case-insensitive, excluding the caller.
	found, err := testDB.SearchUsers(ctx, needle, selfName)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, matchName, *found[0].Username)

	upper, err := testDB.SearchUsers(ctx, strings.ToUpper(needle), selfName)
	require.NoError(t, err)
	assert.Len(t, upper, 1)
}

func TestSearchUsersTreatsTermLiterally(t *testing.T) {
	ctx := context.Background()
	createTestUser(t, "plain")

	// Pattern metacharacters must not widen the match to every user.
	all, err := testDB.SearchUsers(ctx, "%", "")
	require.NoError(t, err)
	assert.Empty(t, all)

	wild, err := testDB.SearchUsers(ctx, "_____", "")
	require.NoError(t, err)
	assert.Empty(t, wild)

	// A username that actually contains a metacharacter is still found.
	oddName := "pct%" + uuid.NewString()[:8]
	odd := models.User{ID: uuid.NewString(), Username: &oddName}
	require.NoError(t, testDB.CreateUser(ctx, odd))

	found, err := testDB.SearchUsers(ctx, "pct%", "")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, oddName, *found[0].Username)
}

func TestUpdateUsernameConflict(t *testing.T) {
	ctx := context.Background()
	alice := createTestUser(t, "alice")
	bob := createTestUser(t, "bob")

	err := testDB.UpdateUsername(ctx, bob.ID, *alice.Username)
	assert.ErrorIs(t, err, ErrAlreadyExists)

	err = testDB.UpdateUsername(ctx, uuid.NewString(), "ghost"+uuid.NewString()[:8])
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserByUsername(t *testing.T) {
	ctx := context.Background()
	alice := createTestUser(t, "alice")

	user, err := testDB.UserByUsername(ctx, *alice.Username)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, user.ID)

	_, err = testDB.UserByUsername(ctx, "nobody-"+uuid.NewString()[:8])
	assert.ErrorIs(t, err, ErrNotFound)
}
