package db

import (
	"context"
	"fmt"

	"github.com/parley-chat/parley-go/internal/models"
)

// SendMessage applies the whole send as one transaction: insert the
// message, then point the conversation's latest-message reference at it
// and flip the participant flags (sender seen, everyone else unseen).
//
// The message id is caller-supplied, so a retried send arrives with the
// same id. A duplicate id is treated as already applied: the insert is
// a no-op, no flags are touched, and (false, nil) is returned.
//
// Returns ErrNotFound (wrapped) if the sender has no participant row
// for the conversation; the transaction is rolled back in that case.
func (c *Client) SendMessage(ctx context.Context, msg models.Message) (created bool, err error) {
	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`INSERT INTO messages (id, conversation_id, sender_id, body)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO NOTHING`,
		msg.ID, msg.ConversationID, msg.SenderID, msg.Body,
	)
	if err != nil {
		return false, fmt.Errorf("insert message: %w", wrapPgError(err))
	}
	if tag.RowsAffected() == 0 {
		// Replayed id: the original send already updated the
		// conversation, so there is nothing left to do.
		return false, nil
	}

	// Lock the sender's participant row so two concurrent sends on the
	// same conversation serialize their flag updates.
	var participantID string
	err = tx.QueryRow(ctx,
		`SELECT id FROM conversation_participants
		 WHERE conversation_id = $1 AND user_id = $2
		 FOR UPDATE`,
		msg.ConversationID, msg.SenderID,
	).Scan(&participantID)
	if err != nil {
		return false, fmt.Errorf("find sender participant: %w", wrapPgError(err))
	}

	if _, err := tx.Exec(ctx,
		`UPDATE conversations SET latest_message_id = $1, updated_at = now() WHERE id = $2`,
		msg.ID, msg.ConversationID,
	); err != nil {
		return false, fmt.Errorf("update latest message: %w", wrapPgError(err))
	}

	if _, err := tx.Exec(ctx,
		`UPDATE conversation_participants
		 SET has_seen_latest_message = (user_id = $1), updated_at = now()
		 WHERE conversation_id = $2`,
		msg.SenderID, msg.ConversationID,
	); err != nil {
		return false, fmt.Errorf("flip participant flags: %w", wrapPgError(err))
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return true, nil
}

// GetMessagePopulated loads one message with its sender summary.
func (c *Client) GetMessagePopulated(ctx context.Context, messageID string) (*models.MessagePopulated, error) {
	var m models.MessagePopulated
	err := c.pool.QueryRow(ctx,
		`SELECT m.id, m.conversation_id, m.sender_id, m.body, m.created_at, m.updated_at,
		        COALESCE(u.username, '')
		 FROM messages m
		 JOIN users u ON u.id = m.sender_id
		 WHERE m.id = $1`,
		messageID,
	).Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Body, &m.CreatedAt, &m.UpdatedAt, &m.Sender.Username)
	if err != nil {
		return nil, fmt.Errorf("get message: %w", wrapPgError(err))
	}
	m.Sender.ID = m.SenderID
	return &m, nil
}

// ListMessagesPopulated returns every message of a conversation with
// sender summaries, newest first.
func (c *Client) ListMessagesPopulated(ctx context.Context, conversationID string) ([]models.MessagePopulated, error) {
	rows, err := c.pool.Query(ctx,
		`SELECT m.id, m.conversation_id, m.sender_id, m.body, m.created_at, m.updated_at,
		        COALESCE(u.username, '')
		 FROM messages m
		 JOIN users u ON u.id = m.sender_id
		 WHERE m.conversation_id = $1
		 ORDER BY m.created_at DESC, m.id`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", wrapPgError(err))
	}
	defer rows.Close()

	var out []models.MessagePopulated
	for rows.Next() {
		var m models.MessagePopulated
		if err := rows.Scan(
			&m.ID, &m.ConversationID, &m.SenderID, &m.Body,
			&m.CreatedAt, &m.UpdatedAt, &m.Sender.Username,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.Sender.ID = m.SenderID
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return out, nil
}
