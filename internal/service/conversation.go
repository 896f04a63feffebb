package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/parley-chat/parley-go/internal/auth"
	"github.com/parley-chat/parley-go/internal/bus"
	"github.com/parley-chat/parley-go/internal/db"
	"github.com/parley-chat/parley-go/internal/models"
)

// ConversationStore is the slice of the store adapter the conversation
// operations need.
type ConversationStore interface {
	CreateConversation(ctx context.Context, conversationID string, participants []db.NewParticipant) error
	GetConversationPopulated(ctx context.Context, conversationID string) (*models.ConversationPopulated, error)
	ListConversationsPopulated(ctx context.Context) ([]models.ConversationPopulated, error)
	FindParticipant(ctx context.Context, conversationID, userID string) (*models.Participant, error)
	SetParticipantSeen(ctx context.Context, participantID string, seen bool) error
	DeleteConversation(ctx context.Context, conversationID string) error
}

// ConversationService handles conversation queries and mutations and
// publishes the conversation lifecycle events.
type ConversationService struct {
	store    ConversationStore
	bus      bus.Bus
	logger   *slog.Logger
	validate *validator.Validate
}

// NewConversationService creates a new conversation service.
func NewConversationService(store ConversationStore, eventBus bus.Bus, logger *slog.Logger) *ConversationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConversationService{
		store:    store,
		bus:      eventBus,
		logger:   logger,
		validate: validator.New(),
	}
}

// List returns every conversation the caller participates in, fully
// populated. Filtering happens here rather than in the store, so the
// result never leaks a conversation the caller is not a member of even
// when the store cannot filter natively.
func (s *ConversationService) List(ctx context.Context, session *auth.Session) ([]models.ConversationPopulated, error) {
	all, err := s.store.ListConversationsPopulated(ctx)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	var mine []models.ConversationPopulated
	for _, conv := range all {
		if models.IsConversationParticipant(conv.Participants, session.UserID) {
			mine = append(mine, conv)
		}
	}
	return mine, nil
}

// createConversationInput validates the participant id list.
type createConversationInput struct {
	ParticipantIDs []string `validate:"required,min=1,dive,uuid4"`
}

// Create persists a conversation plus one participant row per supplied
// id in a single atomic write. The caller's row starts seen, everyone
// else's unseen. Publishes ConversationCreated with the populated
// conversation.
func (s *ConversationService) Create(ctx context.Context, session *auth.Session, participantIDs []string) (string, error) {
	if err := s.validate.Struct(createConversationInput{ParticipantIDs: participantIDs}); err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	conversationID := uuid.NewString()
	participants := make([]db.NewParticipant, len(participantIDs))
	for i, id := range participantIDs {
		participants[i] = db.NewParticipant{
			ID:                   uuid.NewString(),
			UserID:               id,
			HasSeenLatestMessage: id == session.UserID,
		}
	}

	if err := s.store.CreateConversation(ctx, conversationID, participants); err != nil {
		return "", fmt.Errorf("create conversation: %w", err)
	}

	populated, err := s.store.GetConversationPopulated(ctx, conversationID)
	if err != nil {
		return "", fmt.Errorf("load created conversation: %w", err)
	}

	s.publish(ctx, &bus.ConversationCreated{Conversation: populated})
	return conversationID, nil
}

// MarkAsRead flips the given user's participant row for the
// conversation to seen. Idempotent: repeated calls are no-ops after the
// first. Returns ErrParticipantNotFound if no such row exists.
func (s *ConversationService) MarkAsRead(ctx context.Context, session *auth.Session, userID, conversationID string) error {
	participant, err := s.store.FindParticipant(ctx, conversationID, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return ErrParticipantNotFound
		}
		return fmt.Errorf("mark conversation as read: %w", err)
	}

	if err := s.store.SetParticipantSeen(ctx, participant.ID, true); err != nil {
		return fmt.Errorf("mark conversation as read: %w", err)
	}
	return nil
}

// Delete removes the conversation, its participants, and its messages
// atomically, then publishes ConversationDeleted carrying the last
// known populated state.
//
// The caller is not required to be a participant of the conversation
// being deleted.
func (s *ConversationService) Delete(ctx context.Context, session *auth.Session, conversationID string) error {
	snapshot, err := s.store.GetConversationPopulated(ctx, conversationID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return ErrConversationNotFound
		}
		return fmt.Errorf("delete conversation: %w", err)
	}

	if err := s.store.DeleteConversation(ctx, conversationID); err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}

	s.publish(ctx, &bus.ConversationDeleted{Conversation: snapshot})
	return nil
}

// publish posts an event to the bus. The write is already durable at
// this point, so a publish failure is logged instead of failing the
// operation.
func (s *ConversationService) publish(ctx context.Context, ev bus.Event) {
	if err := s.bus.Publish(ctx, ev); err != nil {
		s.logger.Warn("publish failed", "topic", ev.Topic(), "error", err)
	}
}
