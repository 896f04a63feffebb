package graph

import (
	"time"
)

// User represents a chat user in the GraphQL schema.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Participant links a user to a conversation with their read state.
type Participant struct {
	ID                   string `json:"id"`
	User                 *User  `json:"user"`
	HasSeenLatestMessage bool   `json:"hasSeenLatestMessage"`
}

// Conversation is a populated chat thread: participants plus the
// latest message, never bare foreign keys.
type Conversation struct {
	ID            string         `json:"id"`
	Participants  []*Participant `json:"participants"`
	LatestMessage *Message       `json:"latestMessage,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// Message is a populated chat message with its sender.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	Sender         *User     `json:"sender"`
	Body           string    `json:"body"`
	CreatedAt      time.Time `json:"createdAt"`
}

// CreateConversationResponse returns the id of the new conversation.
type CreateConversationResponse struct {
	ConversationID string `json:"conversationId"`
}

// CreateUsernameResponse carries either success or a user-facing error,
// never both.
type CreateUsernameResponse struct {
	Success bool    `json:"success"`
	Error   *string `json:"error,omitempty"`
}

// ConversationUpdatedPayload wraps the updated conversation for the
// conversationUpdated subscription.
type ConversationUpdatedPayload struct {
	Conversation *Conversation `json:"conversation"`
}

// OperationStats holds metrics for a single operation type.
type OperationStats struct {
	Name        string  `json:"name"`
	Count       int     `json:"count"`
	TotalTimeMs int     `json:"totalTimeMs"`
	AvgTimeMs   float64 `json:"avgTimeMs"`
	MinTimeMs   int     `json:"minTimeMs"`
	MaxTimeMs   int     `json:"maxTimeMs"`
}

// ServerStats holds in-memory runtime statistics (resets on server restart).
type ServerStats struct {
	UptimeSeconds float64           `json:"uptimeSeconds"`
	Operations    []*OperationStats `json:"operations"`
}
