package graph

// This file will be automatically regenerated based on the schema, any resolver
// implementations
// will be copied through when generating and any unknown code will be moved to the end.
// Code generated by github.com/99designs/gqlgen version v0.17.86

import (
	"context"

	"github.com/parley-chat/parley-go/internal/auth"
	"github.com/parley-chat/parley-go/internal/bus"
	"github.com/parley-chat/parley-go/internal/models"
	"github.com/parley-chat/parley-go/internal/service"
)

// CreateConversation is the resolver for the createConversation field.
func (r *mutationResolver) CreateConversation(ctx context.Context, participantIds []string) (*CreateConversationResponse, error) {
	session := auth.SessionFrom(ctx)
	if session == nil {
		return nil, errNotAuthorized()
	}

	conversationID, err := r.conversations.Create(ctx, session, participantIds)
	if err != nil {
		return nil, resolverError(ctx, r.logger, "createConversation", err, msgCreateConversationFailed)
	}

	return &CreateConversationResponse{ConversationID: conversationID}, nil
}

// MarkConversationAsRead is the resolver for the markConversationAsRead field.
func (r *mutationResolver) MarkConversationAsRead(ctx context.Context, userID string, conversationID string) (bool, error) {
	session := auth.SessionFrom(ctx)
	if session == nil {
		return false, errNotAuthorized()
	}

	if err := r.conversations.MarkAsRead(ctx, session, userID, conversationID); err != nil {
		return false, resolverError(ctx, r.logger, "markConversationAsRead", err, msgMarkAsReadFailed)
	}
	return true, nil
}

// DeleteConversation is the resolver for the deleteConversation field.
func (r *mutationResolver) DeleteConversation(ctx context.Context, conversationID string) (bool, error) {
	session := auth.SessionFrom(ctx)
	if session == nil {
		return false, errNotAuthorized()
	}

	if err := r.conversations.Delete(ctx, session, conversationID); err != nil {
		return false, resolverError(ctx, r.logger, "deleteConversation", err, msgDeleteConversationFailed)
	}
	return true, nil
}

// SendMessage is the resolver for the sendMessage field.
func (r *mutationResolver) SendMessage(ctx context.Context, id string, conversationID string, senderID string, body string) (bool, error) {
	session := auth.SessionFrom(ctx)
	if session == nil {
		return false, errNotAuthorized()
	}

	err := r.messages.Send(ctx, session, service.SendMessageInput{
		ID:             id,
		ConversationID: conversationID,
		SenderID:       senderID,
		Body:           body,
	})
	if err != nil {
		return false, resolverError(ctx, r.logger, "sendMessage", err, msgSendMessageFailed)
	}
	return true, nil
}

// CreateUsername is the resolver for the createUsername field.
func (r *mutationResolver) CreateUsername(ctx context.Context, username string) (*CreateUsernameResponse, error) {
	session := auth.SessionFrom(ctx)
	if session == nil {
		msg := msgNotAuthorized
		return &CreateUsernameResponse{Error: &msg}, nil
	}

	if err := r.users.CreateUsername(ctx, session, username); err != nil {
		// This mutation reports failures in-band: {success} or {error},
		// never both.
		resolved := resolverError(ctx, r.logger, "createUsername", err, msgCreateUsernameFailed)
		msg := resolved.Error()
		return &CreateUsernameResponse{Error: &msg}, nil
	}
	return &CreateUsernameResponse{Success: true}, nil
}

// Conversations is the resolver for the conversations field.
func (r *queryResolver) Conversations(ctx context.Context) ([]*Conversation, error) {
	session := auth.SessionFrom(ctx)
	if session == nil {
		return nil, errNotAuthorized()
	}

	conversations, err := r.conversations.List(ctx, session)
	if err != nil {
		return nil, resolverError(ctx, r.logger, "conversations", err, msgListConversationsFailed)
	}

	out := make([]*Conversation, len(conversations))
	for i := range conversations {
		out[i] = conversationToGraphQL(&conversations[i])
	}
	return out, nil
}

// Messages is the resolver for the messages field.
func (r *queryResolver) Messages(ctx context.Context, conversationID string) ([]*Message, error) {
	session := auth.SessionFrom(ctx)
	if session == nil {
		return nil, errNotAuthorized()
	}

	messages, err := r.messages.List(ctx, session, conversationID)
	if err != nil {
		return nil, resolverError(ctx, r.logger, "messages", err, msgListMessagesFailed)
	}

	out := make([]*Message, len(messages))
	for i := range messages {
		out[i] = messageToGraphQL(&messages[i])
	}
	return out, nil
}

// SearchUsers is the resolver for the searchUsers field.
func (r *queryResolver) SearchUsers(ctx context.Context, username string) ([]*User, error) {
	session := auth.SessionFrom(ctx)
	if session == nil {
		return nil, errNotAuthorized()
	}

	users, err := r.users.Search(ctx, session, username)
	if err != nil {
		return nil, resolverError(ctx, r.logger, "searchUsers", err, msgSearchUsersFailed)
	}

	out := make([]*User, len(users))
	for i := range users {
		out[i] = userToGraphQL(&users[i])
	}
	return out, nil
}

// ServerStats is the resolver for the serverStats field.
func (r *queryResolver) ServerStats(ctx context.Context) (*ServerStats, error) {
	return statsToGraphQL(r.metrics.Snapshot()), nil
}

// ConversationCreated is the resolver for the conversationCreated field.
func (r *subscriptionResolver) ConversationCreated(ctx context.Context) (<-chan *Conversation, error) {
	session := auth.SessionFrom(ctx)
	if session == nil {
		return nil, errNotAuthorized()
	}

	events, err := r.bus.Subscribe(ctx, bus.TopicConversationCreated, func(ev bus.Event) bool {
		created, ok := ev.(*bus.ConversationCreated)
		return ok && models.IsConversationParticipant(created.Conversation.Participants, session.UserID)
	})
	if err != nil {
		return nil, resolverError(ctx, r.logger, "conversationCreated", err, msgListConversationsFailed)
	}

	out := make(chan *Conversation, 1)
	go func() {
		defer close(out)
		for ev := range events {
			created, ok := ev.(*bus.ConversationCreated)
			if !ok {
				continue
			}
			select {
			case out <- conversationToGraphQL(created.Conversation):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// ConversationUpdated is the resolver for the conversationUpdated field.
func (r *subscriptionResolver) ConversationUpdated(ctx context.Context) (<-chan *ConversationUpdatedPayload, error) {
	session := auth.SessionFrom(ctx)
	if session == nil {
		return nil, errNotAuthorized()
	}

	events, err := r.bus.Subscribe(ctx, bus.TopicConversationUpdated, func(ev bus.Event) bool {
		updated, ok := ev.(*bus.ConversationUpdated)
		return ok && models.IsConversationParticipant(updated.Conversation.Participants, session.UserID)
	})
	if err != nil {
		return nil, resolverError(ctx, r.logger, "conversationUpdated", err, msgListConversationsFailed)
	}

	out := make(chan *ConversationUpdatedPayload, 1)
	go func() {
		defer close(out)
		for ev := range events {
			updated, ok := ev.(*bus.ConversationUpdated)
			if !ok {
				continue
			}
			payload := &ConversationUpdatedPayload{Conversation: conversationToGraphQL(updated.Conversation)}
			select {
			case out <- payload:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// ConversationDeleted is the resolver for the conversationDeleted field.
func (r *subscriptionResolver) ConversationDeleted(ctx context.Context) (<-chan *Conversation, error) {
	session := auth.SessionFrom(ctx)
	if session == nil {
		return nil, errNotAuthorized()
	}

	events, err := r.bus.Subscribe(ctx, bus.TopicConversationDeleted, func(ev bus.Event) bool {
		deleted, ok := ev.(*bus.ConversationDeleted)
		return ok && models.IsConversationParticipant(deleted.Conversation.Participants, session.UserID)
	})
	if err != nil {
		return nil, resolverError(ctx, r.logger, "conversationDeleted", err, msgListConversationsFailed)
	}

	out := make(chan *Conversation, 1)
	go func() {
		defer close(out)
		for ev := range events {
			deleted, ok := ev.(*bus.ConversationDeleted)
			if !ok {
				continue
			}
			select {
			case out <- conversationToGraphQL(deleted.Conversation):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// MessageSent is the resolver for the messageSent field.
func (r *subscriptionResolver) MessageSent(ctx context.Context, conversationID string) (<-chan *Message, error) {
	session := auth.SessionFrom(ctx)
	if session == nil {
		return nil, errNotAuthorized()
	}

	// Filtered by conversation id equality only; participant membership
	// is not reapplied here.
	events, err := r.bus.Subscribe(ctx, bus.TopicMessageSent, func(ev bus.Event) bool {
		sent, ok := ev.(*bus.MessageSent)
		return ok && sent.Message.ConversationID == conversationID
	})
	if err != nil {
		return nil, resolverError(ctx, r.logger, "messageSent", err, msgListMessagesFailed)
	}

	out := make(chan *Message, 1)
	go func() {
		defer close(out)
		for ev := range events {
			sent, ok := ev.(*bus.MessageSent)
			if !ok {
				continue
			}
			select {
			case out <- messageToGraphQL(sent.Message):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Mutation returns MutationResolver implementation.
func (r *Resolver) Mutation() MutationResolver { return &mutationResolver{r} }

// Query returns QueryResolver implementation.
func (r *Resolver) Query() QueryResolver { return &queryResolver{r} }

// Subscription returns SubscriptionResolver implementation.
func (r *Resolver) Subscription() SubscriptionResolver { return &subscriptionResolver{r} }

type mutationResolver struct{ *Resolver }
type queryResolver struct{ *Resolver }
type subscriptionResolver struct{ *Resolver }
