package graph

import (
	"context"
	"errors"
	"log/slog"

	"github.com/parley-chat/parley-go/internal/service"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

// Stable user-facing error messages. Authorization and not-found
// failures surface directly; anything unexpected is logged and replaced
// with the operation's generic failure message so internal details
// never leak to callers.
const (
	msgNotAuthorized        = "Not Authorized"
	msgConversationNotFound = "Conversation Not Found"
	msgParticipantNotFound  = "Participant does not exist"
	msgUsernameTaken        = "Username already taken. Try another"
	msgInvalidInput         = "Invalid input"

	msgCreateConversationFailed = "Failed to create conversation"
	msgMarkAsReadFailed         = "Failed to mark conversation as read"
	msgDeleteConversationFailed = "Failed to delete conversation"
	msgSendMessageFailed        = "Error sending message"
	msgListConversationsFailed  = "Failed to load conversations"
	msgListMessagesFailed       = "Failed to load messages"
	msgSearchUsersFailed        = "Failed to search users"
	msgCreateUsernameFailed     = "Failed to create username"
)

// errNotAuthorized is returned for unauthenticated callers and failed
// authorization checks alike.
func errNotAuthorized() error {
	return gqlerror.Errorf("%s", msgNotAuthorized)
}

// resolverError maps a service error to its stable user-facing message.
// Known domain errors keep their specific message; everything else logs
// the cause and returns the operation's generic failure message.
func resolverError(ctx context.Context, logger *slog.Logger, op string, err error, fallback string) error {
	switch {
	case errors.Is(err, service.ErrNotAuthorized):
		return errNotAuthorized()
	case errors.Is(err, service.ErrConversationNotFound):
		return gqlerror.Errorf("%s", msgConversationNotFound)
	case errors.Is(err, service.ErrParticipantNotFound):
		return gqlerror.Errorf("%s", msgParticipantNotFound)
	case errors.Is(err, service.ErrUsernameTaken):
		return gqlerror.Errorf("%s", msgUsernameTaken)
	case errors.Is(err, service.ErrInvalidInput):
		// Validator errors spell out struct and tag names. Log the
		// detail, return the stable message.
		logger.WarnContext(ctx, "invalid input", "operation", op, "error", err)
		return gqlerror.Errorf("%s", msgInvalidInput)
	}

	logger.ErrorContext(ctx, "operation failed", "operation", op, "error", err)
	return gqlerror.Errorf("%s", fallback)
}
