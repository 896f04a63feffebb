package service_test

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/parley-chat/parley-go/internal/bus"
	"github.com/parley-chat/parley-go/internal/db"
	"github.com/parley-chat/parley-go/internal/models"
)

// fakeStore is an in-memory stand-in for the database client that
// mimics its contract, including the sentinel errors it returns.
type fakeStore struct {
	mu            sync.Mutex
	users         map[string]*models.User
	conversations map[string]*models.ConversationPopulated
	messages      map[string]*models.MessagePopulated
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:         make(map[string]*models.User),
		conversations: make(map[string]*models.ConversationPopulated),
		messages:      make(map[string]*models.MessagePopulated),
	}
}

func (f *fakeStore) addUser(id, username string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := &models.User{ID: id}
	if username != "" {
		u.Username = &username
	}
	f.users[id] = u
}

func (f *fakeStore) CreateConversation(ctx context.Context, conversationID string, participants []db.NewParticipant) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	conv := &models.ConversationPopulated{}
	conv.ID = conversationID
	conv.CreatedAt = time.Now()
	conv.UpdatedAt = conv.CreatedAt
	for _, np := range participants {
		user, ok := f.users[np.UserID]
		if !ok {
			return db.ErrInvalidReference
		}
		p := models.ParticipantPopulated{}
		p.ID = np.ID
		p.ConversationID = conversationID
		p.UserID = np.UserID
		p.HasSeenLatestMessage = np.HasSeenLatestMessage
		p.User = user.Summary()
		conv.Participants = append(conv.Participants, p)
	}
	f.conversations[conversationID] = conv
	return nil
}

func (f *fakeStore) GetConversationPopulated(ctx context.Context, conversationID string) (*models.ConversationPopulated, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	conv, ok := f.conversations[conversationID]
	if !ok {
		return nil, db.ErrNotFound
	}
	copied := *conv
	copied.Participants = append([]models.ParticipantPopulated(nil), conv.Participants...)
	return &copied, nil
}

func (f *fakeStore) ListConversationsPopulated(ctx context.Context) ([]models.ConversationPopulated, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.ConversationPopulated
	for _, conv := range f.conversations {
		out = append(out, *conv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) FindParticipant(ctx context.Context, conversationID, userID string) (*models.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	conv, ok := f.conversations[conversationID]
	if !ok {
		return nil, db.ErrNotFound
	}
	for _, p := range conv.Participants {
		if p.UserID == userID {
			participant := p.Participant
			return &participant, nil
		}
	}
	return nil, db.ErrNotFound
}

func (f *fakeStore) SetParticipantSeen(ctx context.Context, participantID string, seen bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, conv := range f.conversations {
		for i := range conv.Participants {
			if conv.Participants[i].ID == participantID {
				conv.Participants[i].HasSeenLatestMessage = seen
				return nil
			}
		}
	}
	return db.ErrNotFound
}

func (f *fakeStore) DeleteConversation(ctx context.Context, conversationID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.conversations[conversationID]; !ok {
		return db.ErrNotFound
	}
	delete(f.conversations, conversationID)
	for id, msg := range f.messages {
		if msg.ConversationID == conversationID {
			delete(f.messages, id)
		}
	}
	return nil
}

func (f *fakeStore) SendMessage(ctx context.Context, msg models.Message) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.messages[msg.ID]; exists {
		return false, nil
	}
	conv, ok := f.conversations[msg.ConversationID]
	if !ok {
		return false, db.ErrInvalidReference
	}

	var sender *models.User
	for _, p := range conv.Participants {
		if p.UserID == msg.SenderID {
			sender = f.users[p.UserID]
		}
	}
	if sender == nil {
		return false, db.ErrNotFound
	}

	populated := &models.MessagePopulated{Message: msg}
	populated.CreatedAt = time.Now()
	populated.UpdatedAt = populated.CreatedAt
	populated.Sender = sender.Summary()
	f.messages[msg.ID] = populated

	conv.LatestMessageID = &msg.ID
	conv.LatestMessage = populated
	conv.UpdatedAt = populated.CreatedAt
	for i := range conv.Participants {
		conv.Participants[i].HasSeenLatestMessage = conv.Participants[i].UserID == msg.SenderID
	}
	return true, nil
}

func (f *fakeStore) GetMessagePopulated(ctx context.Context, messageID string) (*models.MessagePopulated, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	msg, ok := f.messages[messageID]
	if !ok {
		return nil, db.ErrNotFound
	}
	copied := *msg
	return &copied, nil
}

func (f *fakeStore) ListMessagesPopulated(ctx context.Context, conversationID string) ([]models.MessagePopulated, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.MessagePopulated
	for _, msg := range f.messages {
		if msg.ConversationID == conversationID {
			out = append(out, *msg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeStore) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if u.Username != nil && *u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, db.ErrNotFound
}

func (f *fakeStore) UpdateUsername(ctx context.Context, userID, username string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for id, u := range f.users {
		if id != userID && u.Username != nil && *u.Username == username {
			return db.ErrAlreadyExists
		}
	}
	u, ok := f.users[userID]
	if !ok {
		return db.ErrNotFound
	}
	u.Username = &username
	return nil
}

func (f *fakeStore) SearchUsers(ctx context.Context, term, excludeUsername string) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.User
	for _, u := range f.users {
		if u.Username == nil {
			continue
		}
		if *u.Username == excludeUsername {
			continue
		}
		if strings.Contains(strings.ToLower(*u.Username), strings.ToLower(term)) {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return *out[i].Username < *out[j].Username })
	return out, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// subscribeAll opens an unfiltered subscription on every topic so tests
// can assert which events an operation published.
func subscribeAll(t *testing.T, b bus.Bus) map[bus.Topic]<-chan bus.Event {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	topics := []bus.Topic{
		bus.TopicConversationCreated,
		bus.TopicConversationUpdated,
		bus.TopicConversationDeleted,
		bus.TopicMessageSent,
	}
	chans := make(map[bus.Topic]<-chan bus.Event, len(topics))
	for _, topic := range topics {
		ch, err := b.Subscribe(ctx, topic, nil)
		if err != nil {
			t.Fatalf("subscribe %s: %v", topic, err)
		}
		chans[topic] = ch
	}
	return chans
}

func drainOne(t *testing.T, ch <-chan bus.Event) bus.Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	default:
		t.Fatal("expected a published event")
		return nil
	}
}

func assertEmpty(t *testing.T, ch <-chan bus.Event) {
	t.Helper()
	select {
	case ev := <-ch:
		t.Fatalf("unexpected event: %#v", ev)
	default:
	}
}
