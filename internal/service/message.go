package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/parley-chat/parley-go/internal/auth"
	"github.com/parley-chat/parley-go/internal/bus"
	"github.com/parley-chat/parley-go/internal/db"
	"github.com/parley-chat/parley-go/internal/models"
)

// MessageStore is the slice of the store adapter the message operations
// need.
type MessageStore interface {
	SendMessage(ctx context.Context, msg models.Message) (created bool, err error)
	GetMessagePopulated(ctx context.Context, messageID string) (*models.MessagePopulated, error)
	ListMessagesPopulated(ctx context.Context, conversationID string) ([]models.MessagePopulated, error)
	GetConversationPopulated(ctx context.Context, conversationID string) (*models.ConversationPopulated, error)
}

// MessageService handles the message query and the send mutation and
// publishes MessageSent / ConversationUpdated.
type MessageService struct {
	store    MessageStore
	bus      bus.Bus
	logger   *slog.Logger
	validate *validator.Validate
}

// NewMessageService creates a new message service.
func NewMessageService(store MessageStore, eventBus bus.Bus, logger *slog.Logger) *MessageService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MessageService{
		store:    store,
		bus:      eventBus,
		logger:   logger,
		validate: validator.New(),
	}
}

// List returns the conversation's messages newest first. Returns
// ErrConversationNotFound if the conversation does not exist and
// ErrNotAuthorized if the caller is not a participant.
func (s *MessageService) List(ctx context.Context, session *auth.Session, conversationID string) ([]models.MessagePopulated, error) {
	conversation, err := s.store.GetConversationPopulated(ctx, conversationID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("list messages: %w", err)
	}

	if !models.IsConversationParticipant(conversation.Participants, session.UserID) {
		return nil, ErrNotAuthorized
	}

	messages, err := s.store.ListMessagesPopulated(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return messages, nil
}

// SendMessageInput is the input for Send. The message id comes from
// the caller so a retried send can be detected.
type SendMessageInput struct {
	ID             string `validate:"required,uuid4"`
	ConversationID string `validate:"required,uuid4"`
	SenderID       string `validate:"required,uuid4"`
	Body           string `validate:"required"`
}

// Send persists the message and the conversation update (latest-message
// reference plus participant flag flips) as one atomic unit, then
// publishes MessageSent and ConversationUpdated. A replayed message id
// is treated as already applied: no second write, no events.
//
// Fails with ErrNotAuthorized unless the caller is the sender, and with
// ErrParticipantNotFound if the sender has no participant row for the
// conversation.
func (s *MessageService) Send(ctx context.Context, session *auth.Session, input SendMessageInput) error {
	if session.UserID != input.SenderID {
		return ErrNotAuthorized
	}
	if err := s.validate.Struct(input); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	created, err := s.store.SendMessage(ctx, models.Message{
		ID:             input.ID,
		ConversationID: input.ConversationID,
		SenderID:       input.SenderID,
		Body:           input.Body,
	})
	if err != nil {
		switch {
		case errors.Is(err, db.ErrNotFound):
			return ErrParticipantNotFound
		case errors.Is(err, db.ErrInvalidReference):
			return ErrConversationNotFound
		}
		return fmt.Errorf("send message: %w", err)
	}
	if !created {
		s.logger.Info("duplicate message id, send already applied", "message_id", input.ID)
		return nil
	}

	message, err := s.store.GetMessagePopulated(ctx, input.ID)
	if err != nil {
		return fmt.Errorf("load sent message: %w", err)
	}
	conversation, err := s.store.GetConversationPopulated(ctx, input.ConversationID)
	if err != nil {
		return fmt.Errorf("load updated conversation: %w", err)
	}

	s.publish(ctx, &bus.MessageSent{Message: message})
	s.publish(ctx, &bus.ConversationUpdated{Conversation: conversation})
	return nil
}

func (s *MessageService) publish(ctx context.Context, ev bus.Event) {
	if err := s.bus.Publish(ctx, ev); err != nil {
		s.logger.Warn("publish failed", "topic", ev.Topic(), "error", err)
	}
}
