package models

import "time"

// Conversation is a chat thread. LatestMessageID tracks the most
// recently sent message and is nil until a first message exists.
type Conversation struct {
	ID              string     `json:"id"`
	LatestMessageID *string    `json:"latestMessageId,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// Participant joins a user to a conversation. Exactly one row exists
// per (conversation, user) pair. HasSeenLatestMessage flips to false
// for everyone except the sender on every new message.
type Participant struct {
	ID                   string    `json:"id"`
	ConversationID       string    `json:"conversationId"`
	UserID               string    `json:"userId"`
	HasSeenLatestMessage bool      `json:"hasSeenLatestMessage"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// ParticipantPopulated is a participant together with its user summary.
type ParticipantPopulated struct {
	Participant
	User UserSummary `json:"user"`
}

// ConversationPopulated is a conversation together with its participants
// and latest message, the shape returned to callers and embedded in
// conversation events.
type ConversationPopulated struct {
	Conversation
	Participants  []ParticipantPopulated `json:"participants"`
	LatestMessage *MessagePopulated      `json:"latestMessage,omitempty"`
}
