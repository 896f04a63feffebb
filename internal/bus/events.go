package bus

import "github.com/parley-chat/parley-go/internal/models"

// Event is one of the closed set of payload variants below, one per
// topic. Each variant carries exactly the fields its subscription
// filter needs, so filters compile against a known shape instead of
// trusting optional fields.
type Event interface {
	Topic() Topic
}

// ConversationCreated is published after a conversation and its
// participant rows have been persisted.
type ConversationCreated struct {
	Conversation *models.ConversationPopulated `json:"conversation"`
}

func (ConversationCreated) Topic() Topic { return TopicConversationCreated }

// ConversationUpdated is published whenever a send changes a
// conversation's latest message and participant flags.
type ConversationUpdated struct {
	Conversation *models.ConversationPopulated `json:"conversation"`
}

func (ConversationUpdated) Topic() Topic { return TopicConversationUpdated }

// ConversationDeleted carries the deleted conversation's last known
// populated state, captured before the delete transaction.
type ConversationDeleted struct {
	Conversation *models.ConversationPopulated `json:"conversation"`
}

func (ConversationDeleted) Topic() Topic { return TopicConversationDeleted }

// MessageSent is published after a message has been persisted.
type MessageSent struct {
	Message *models.MessagePopulated `json:"message"`
}

func (MessageSent) Topic() Topic { return TopicMessageSent }
