// Package client implements a GraphQL client for the parley server,
// covering plain HTTP operations and websocket subscriptions using the
// graphql-transport-ws protocol.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client talks to a parley server over its /query endpoint.
type Client struct {
	endpoint string
	token    string
	http     *http.Client
}

// New creates a client for the given endpoint, e.g. "http://localhost:8484/query".
// The token may be empty for unauthenticated operations.
func New(endpoint, token string) *Client {
	return &Client{
		endpoint: endpoint,
		token:    token,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlError struct {
	Message string `json:"message"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors"`
}

// Execute runs a query or mutation and unmarshals the "data" payload into out.
// If the response carries GraphQL errors, the first message is returned as an error.
func (c *Client) Execute(ctx context.Context, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var gqlResp graphqlResponse
	if err := json.Unmarshal(raw, &gqlResp); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	if len(gqlResp.Errors) > 0 {
		return fmt.Errorf("%s", gqlResp.Errors[0].Message)
	}
	if out != nil {
		if err := json.Unmarshal(gqlResp.Data, out); err != nil {
			return fmt.Errorf("decoding data: %w", err)
		}
	}
	return nil
}

// User mirrors the server's User type.
type User struct {
	ID       string  `json:"id"`
	Username *string `json:"username"`
}

// Participant mirrors the server's Participant type.
type Participant struct {
	ID                   string `json:"id"`
	User                 User   `json:"user"`
	HasSeenLatestMessage bool   `json:"hasSeenLatestMessage"`
}

// Message mirrors the server's Message type.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	Sender         User      `json:"sender"`
	Body           string    `json:"body"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Conversation mirrors the server's Conversation type.
type Conversation struct {
	ID            string        `json:"id"`
	Participants  []Participant `json:"participants"`
	LatestMessage *Message      `json:"latestMessage"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// CreateUsernameResult mirrors the server's CreateUsernameResponse type.
type CreateUsernameResult struct {
	Success bool    `json:"success"`
	Error   *string `json:"error"`
}

// OperationStats mirrors the server's per-operation metrics.
type OperationStats struct {
	Name        string  `json:"name"`
	Count       int     `json:"count"`
	TotalTimeMs int     `json:"totalTimeMs"`
	AvgTimeMs   float64 `json:"avgTimeMs"`
	MinTimeMs   int     `json:"minTimeMs"`
	MaxTimeMs   int     `json:"maxTimeMs"`
}

// ServerStats mirrors the server's ServerStats type.
type ServerStats struct {
	UptimeSeconds float64          `json:"uptimeSeconds"`
	Operations    []OperationStats `json:"operations"`
}

const conversationFields = `
	id
	updatedAt
	participants {
		id
		hasSeenLatestMessage
		user { id username }
	}
	latestMessage {
		id
		conversationId
		body
		createdAt
		sender { id username }
	}`

// Conversations returns every conversation the caller participates in.
func (c *Client) Conversations(ctx context.Context) ([]Conversation, error) {
	query := fmt.Sprintf(`query { conversations { %s } }`, conversationFields)

	var resp struct {
		Conversations []Conversation `json:"conversations"`
	}
	if err := c.Execute(ctx, query, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Conversations, nil
}

// Messages returns the messages of a conversation, newest first.
func (c *Client) Messages(ctx context.Context, conversationID string) ([]Message, error) {
	query := `query($id: String!) {
		messages(conversationId: $id) {
			id
			conversationId
			body
			createdAt
			sender { id username }
		}
	}`

	var resp struct {
		Messages []Message `json:"messages"`
	}
	err := c.Execute(ctx, query, map[string]any{"id": conversationID}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

// SearchUsers finds users whose username contains the given term.
func (c *Client) SearchUsers(ctx context.Context, username string) ([]User, error) {
	query := `query($username: String!) {
		searchUsers(username: $username) { id username }
	}`

	var resp struct {
		SearchUsers []User `json:"searchUsers"`
	}
	err := c.Execute(ctx, query, map[string]any{"username": username}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.SearchUsers, nil
}

// Stats returns the server's operation metrics.
func (c *Client) Stats(ctx context.Context) (*ServerStats, error) {
	query := `query {
		serverStats {
			uptimeSeconds
			operations { name count totalTimeMs avgTimeMs minTimeMs maxTimeMs }
		}
	}`

	var resp struct {
		ServerStats ServerStats `json:"serverStats"`
	}
	if err := c.Execute(ctx, query, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.ServerStats, nil
}

// CreateConversation starts a conversation with the given participants and
// returns its id. The caller must be included in participantIDs.
func (c *Client) CreateConversation(ctx context.Context, participantIDs []string) (string, error) {
	query := `mutation($ids: [String!]!) {
		createConversation(participantIds: $ids) { conversationId }
	}`

	var resp struct {
		CreateConversation struct {
			ConversationID string `json:"conversationId"`
		} `json:"createConversation"`
	}
	err := c.Execute(ctx, query, map[string]any{"ids": participantIDs}, &resp)
	if err != nil {
		return "", err
	}
	return resp.CreateConversation.ConversationID, nil
}

// DeleteConversation removes a conversation and all of its messages.
func (c *Client) DeleteConversation(ctx context.Context, conversationID string) error {
	query := `mutation($id: String!) {
		deleteConversation(conversationId: $id)
	}`
	return c.Execute(ctx, query, map[string]any{"id": conversationID}, nil)
}

// MarkConversationAsRead flags the caller's participant entry as having seen
// the latest message.
func (c *Client) MarkConversationAsRead(ctx context.Context, userID, conversationID string) error {
	query := `mutation($userId: String!, $conversationId: String!) {
		markConversationAsRead(userId: $userId, conversationId: $conversationId)
	}`
	vars := map[string]any{"userId": userID, "conversationId": conversationID}
	return c.Execute(ctx, query, vars, nil)
}

// SendMessage posts a message. The id is client-generated so retries are
// deduplicated server-side.
func (c *Client) SendMessage(ctx context.Context, id, conversationID, senderID, body string) error {
	query := `mutation($id: String!, $conversationId: String!, $senderId: String!, $body: String!) {
		sendMessage(id: $id, conversationId: $conversationId, senderId: $senderId, body: $body)
	}`
	vars := map[string]any{
		"id":             id,
		"conversationId": conversationID,
		"senderId":       senderID,
		"body":           body,
	}
	return c.Execute(ctx, query, vars, nil)
}

// CreateUsername claims a username for the caller.
func (c *Client) CreateUsername(ctx context.Context, username string) (*CreateUsernameResult, error) {
	query := `mutation($username: String!) {
		createUsername(username: $username) { success error }
	}`

	var resp struct {
		CreateUsername CreateUsernameResult `json:"createUsername"`
	}
	err := c.Execute(ctx, query, map[string]any{"username": username}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp.CreateUsername, nil
}
