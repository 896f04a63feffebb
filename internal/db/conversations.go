package db

import (
	"context"
	"fmt"

	"github.com/parley-chat/parley-go/internal/models"
)

// NewParticipant describes one participant row to create alongside a
// conversation.
type NewParticipant struct {
	ID                   string
	UserID               string
	HasSeenLatestMessage bool
}

// CreateConversation inserts a conversation and all its participant
// rows in a single transaction. On any failure nothing is persisted.
func (c *Client) CreateConversation(ctx context.Context, conversationID string, participants []NewParticipant) error {
	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO conversations (id) VALUES ($1)`,
		conversationID,
	); err != nil {
		return fmt.Errorf("insert conversation: %w", wrapPgError(err))
	}

	for _, p := range participants {
		if _, err := tx.Exec(ctx,
			`INSERT INTO conversation_participants (id, conversation_id, user_id, has_seen_latest_message)
			 VALUES ($1, $2, $3, $4)`,
			p.ID, conversationID, p.UserID, p.HasSeenLatestMessage,
		); err != nil {
			return fmt.Errorf("insert participant: %w", wrapPgError(err))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// GetConversationPopulated loads one conversation with its participants
// and latest message. Returns ErrNotFound if the conversation does not
// exist.
func (c *Client) GetConversationPopulated(ctx context.Context, conversationID string) (*models.ConversationPopulated, error) {
	var conv models.Conversation
	err := c.pool.QueryRow(ctx,
		`SELECT id, latest_message_id, created_at, updated_at FROM conversations WHERE id = $1`,
		conversationID,
	).Scan(&conv.ID, &conv.LatestMessageID, &conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", wrapPgError(err))
	}

	populated, err := c.populateConversations(ctx, []models.Conversation{conv})
	if err != nil {
		return nil, err
	}
	return &populated[0], nil
}

// ListConversationsPopulated loads every conversation with participants
// and latest message, most recently updated first. Caller-side
// membership filtering happens above this layer.
func (c *Client) ListConversationsPopulated(ctx context.Context) ([]models.ConversationPopulated, error) {
	rows, err := c.pool.Query(ctx,
		`SELECT id, latest_message_id, created_at, updated_at FROM conversations ORDER BY updated_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", wrapPgError(err))
	}
	defer rows.Close()

	var convs []models.Conversation
	for rows.Next() {
		var conv models.Conversation
		if err := rows.Scan(&conv.ID, &conv.LatestMessageID, &conv.CreatedAt, &conv.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		convs = append(convs, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	return c.populateConversations(ctx, convs)
}

// populateConversations attaches participants (with user summaries) and
// the latest message (with sender summary) to each conversation.
func (c *Client) populateConversations(ctx context.Context, convs []models.Conversation) ([]models.ConversationPopulated, error) {
	if len(convs) == 0 {
		return nil, nil
	}

	ids := make([]string, len(convs))
	for i, conv := range convs {
		ids[i] = conv.ID
	}

	participants := make(map[string][]models.ParticipantPopulated, len(convs))
	rows, err := c.pool.Query(ctx,
		`SELECT cp.id, cp.conversation_id, cp.user_id, cp.has_seen_latest_message,
		        cp.created_at, cp.updated_at, COALESCE(u.username, '')
		 FROM conversation_participants cp
		 JOIN users u ON u.id = cp.user_id
		 WHERE cp.conversation_id = ANY($1::uuid[])
		 ORDER BY cp.created_at, cp.id`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("load participants: %w", wrapPgError(err))
	}
	defer rows.Close()

	for rows.Next() {
		var p models.ParticipantPopulated
		if err := rows.Scan(
			&p.ID, &p.ConversationID, &p.UserID, &p.HasSeenLatestMessage,
			&p.CreatedAt, &p.UpdatedAt, &p.User.Username,
		); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		p.User.ID = p.UserID
		participants[p.ConversationID] = append(participants[p.ConversationID], p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load participants: %w", err)
	}

	latest := make(map[string]*models.MessagePopulated, len(convs))
	msgRows, err := c.pool.Query(ctx,
		`SELECT m.id, m.conversation_id, m.sender_id, m.body, m.created_at, m.updated_at,
		        COALESCE(u.username, '')
		 FROM conversations c
		 JOIN messages m ON m.id = c.latest_message_id
		 JOIN users u ON u.id = m.sender_id
		 WHERE c.id = ANY($1::uuid[])`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("load latest messages: %w", wrapPgError(err))
	}
	defer msgRows.Close()

	for msgRows.Next() {
		var m models.MessagePopulated
		if err := msgRows.Scan(
			&m.ID, &m.ConversationID, &m.SenderID, &m.Body,
			&m.CreatedAt, &m.UpdatedAt, &m.Sender.Username,
		); err != nil {
			return nil, fmt.Errorf("scan latest message: %w", err)
		}
		m.Sender.ID = m.SenderID
		latest[m.ConversationID] = &m
	}
	if err := msgRows.Err(); err != nil {
		return nil, fmt.Errorf("load latest messages: %w", err)
	}

	out := make([]models.ConversationPopulated, len(convs))
	for i, conv := range convs {
		out[i] = models.ConversationPopulated{
			Conversation:  conv,
			Participants:  participants[conv.ID],
			LatestMessage: latest[conv.ID],
		}
	}
	return out, nil
}

// FindParticipant returns the participant row for (conversation, user),
// or ErrNotFound if the user is not a participant.
func (c *Client) FindParticipant(ctx context.Context, conversationID, userID string) (*models.Participant, error) {
	var p models.Participant
	err := c.pool.QueryRow(ctx,
		`SELECT id, conversation_id, user_id, has_seen_latest_message, created_at, updated_at
		 FROM conversation_participants
		 WHERE conversation_id = $1 AND user_id = $2`,
		conversationID, userID,
	).Scan(&p.ID, &p.ConversationID, &p.UserID, &p.HasSeenLatestMessage, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("find participant: %w", wrapPgError(err))
	}
	return &p, nil
}

// SetParticipantSeen updates one participant's seen flag. The update is
// idempotent: re-applying the same flag is a no-op.
func (c *Client) SetParticipantSeen(ctx context.Context, participantID string, seen bool) error {
	tag, err := c.pool.Exec(ctx,
		`UPDATE conversation_participants
		 SET has_seen_latest_message = $2, updated_at = now()
		 WHERE id = $1`,
		participantID, seen,
	)
	if err != nil {
		return fmt.Errorf("set participant seen: %w", wrapPgError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("set participant seen: %w", ErrNotFound)
	}
	return nil
}

// DeleteConversation removes the conversation, its participant rows,
// and its messages in one transaction. Partial deletion is never
// observable. Returns ErrNotFound if the conversation does not exist.
func (c *Client) DeleteConversation(ctx context.Context, conversationID string) error {
	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM messages WHERE conversation_id = $1`, conversationID,
	); err != nil {
		return fmt.Errorf("delete messages: %w", wrapPgError(err))
	}
	if _, err := tx.Exec(ctx,
		`DELETE FROM conversation_participants WHERE conversation_id = $1`, conversationID,
	); err != nil {
		return fmt.Errorf("delete participants: %w", wrapPgError(err))
	}
	tag, err := tx.Exec(ctx,
		`DELETE FROM conversations WHERE id = $1`, conversationID,
	)
	if err != nil {
		return fmt.Errorf("delete conversation: %w", wrapPgError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete conversation: %w", ErrNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
