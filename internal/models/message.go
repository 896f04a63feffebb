package models

import "time"

// Message is an immutable chat message. The ID is supplied by the
// caller so a retried send can be detected instead of re-applied.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	SenderID       string    `json:"senderId"`
	Body           string    `json:"body"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// MessagePopulated is a message together with its sender summary.
type MessagePopulated struct {
	Message
	Sender UserSummary `json:"sender"`
}
