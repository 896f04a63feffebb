package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/parley-chat/parley-go/internal/service"
)

func TestResolverErrorStableMessages(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	ctx := context.Background()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"not authorized", service.ErrNotAuthorized, msgNotAuthorized},
		{"conversation not found", service.ErrConversationNotFound, msgConversationNotFound},
		{"participant not found", service.ErrParticipantNotFound, msgParticipantNotFound},
		{"username taken", service.ErrUsernameTaken, msgUsernameTaken},
		{"wrapped", fmt.Errorf("delete conversation: %w", service.ErrConversationNotFound), msgConversationNotFound},
		{"unexpected", errors.New("connection refused"), msgDeleteConversationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolverError(ctx, logger, "deleteConversation", tt.err, msgDeleteConversationFailed)
			assert.EqualError(t, got, "input: "+tt.want)
		})
	}
}

func TestResolverErrorHidesValidatorDetail(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)

	// The wrapped detail mimics go-playground/validator output, which
	// names internal struct fields and tags.
	err := fmt.Errorf("%w: Key: 'createUsernameInput.Username' Error:Field validation for 'Username' failed on the 'min' tag",
		service.ErrInvalidInput)

	got := resolverError(context.Background(), logger, "createUsername", err, msgCreateUsernameFailed)
	assert.EqualError(t, got, "input: "+msgInvalidInput)
	assert.NotContains(t, got.Error(), "createUsernameInput")
}
