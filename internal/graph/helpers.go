package graph

import (
	"github.com/parley-chat/parley-go/internal/metrics"
	"github.com/parley-chat/parley-go/internal/models"
)

// userToGraphQL converts a models.User to a GraphQL User.
func userToGraphQL(u *models.User) *User {
	if u == nil {
		return nil
	}
	out := &User{ID: u.ID}
	if u.Username != nil {
		out.Username = *u.Username
	}
	return out
}

// summaryToGraphQL converts an embedded user summary.
func summaryToGraphQL(s models.UserSummary) *User {
	return &User{ID: s.ID, Username: s.Username}
}

// messageToGraphQL converts a models.MessagePopulated to a GraphQL Message.
func messageToGraphQL(m *models.MessagePopulated) *Message {
	if m == nil {
		return nil
	}
	return &Message{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Sender:         summaryToGraphQL(m.Sender),
		Body:           m.Body,
		CreatedAt:      m.CreatedAt,
	}
}

// conversationToGraphQL converts a models.ConversationPopulated to a
// GraphQL Conversation.
func conversationToGraphQL(c *models.ConversationPopulated) *Conversation {
	if c == nil {
		return nil
	}

	participants := make([]*Participant, len(c.Participants))
	for i, p := range c.Participants {
		participants[i] = &Participant{
			ID:                   p.ID,
			User:                 summaryToGraphQL(p.User),
			HasSeenLatestMessage: p.HasSeenLatestMessage,
		}
	}

	return &Conversation{
		ID:            c.ID,
		Participants:  participants,
		LatestMessage: messageToGraphQL(c.LatestMessage),
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

// statsToGraphQL converts a metrics snapshot to GraphQL ServerStats.
func statsToGraphQL(snap metrics.Snapshot) *ServerStats {
	ops := make([]*OperationStats, len(snap.Operations))
	for i, op := range snap.Operations {
		ops[i] = &OperationStats{
			Name:        op.Name,
			Count:       int(op.Count),
			TotalTimeMs: int(op.TotalTimeMs),
			AvgTimeMs:   op.AvgTimeMs,
			MinTimeMs:   int(op.MinTimeMs),
			MaxTimeMs:   int(op.MaxTimeMs),
		}
	}
	return &ServerStats{
		UptimeSeconds: snap.UptimeSeconds,
		Operations:    ops,
	}
}
