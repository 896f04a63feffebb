package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/parley-chat/parley-go/internal/models"
)

// CreateUser inserts a user row. Account creation itself belongs to the
// external registration flow; this exists for tooling and tests.
func (c *Client) CreateUser(ctx context.Context, user models.User) error {
	_, err := c.pool.Exec(ctx,
		`INSERT INTO users (id, username, email, email_verified, image)
		 VALUES ($1, $2, $3, $4, $5)`,
		user.ID, user.Username, user.Email, user.EmailVerified, user.Image,
	)
	if err != nil {
		return fmt.Errorf("create user: %w", wrapPgError(err))
	}
	return nil
}

// GetUser loads a user by id. Returns ErrNotFound if absent.
func (c *Client) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var u models.User
	err := c.pool.QueryRow(ctx,
		`SELECT id, username, email, email_verified, image, created_at, updated_at
		 FROM users WHERE id = $1`,
		userID,
	).Scan(&u.ID, &u.Username, &u.Email, &u.EmailVerified, &u.Image, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", wrapPgError(err))
	}
	return &u, nil
}

// UserByUsername loads a user by exact username. Returns ErrNotFound if
// no user has claimed that name.
func (c *Client) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := c.pool.QueryRow(ctx,
		`SELECT id, username, email, email_verified, image, created_at, updated_at
		 FROM users WHERE username = $1`,
		username,
	).Scan(&u.ID, &u.Username, &u.Email, &u.EmailVerified, &u.Image, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("user by username: %w", wrapPgError(err))
	}
	return &u, nil
}

// UpdateUsername assigns a username to the user. The unique index on
// users.username backstops the service-level availability check, so a
// race between two claimants surfaces as ErrAlreadyExists.
func (c *Client) UpdateUsername(ctx context.Context, userID, username string) error {
	tag, err := c.pool.Exec(ctx,
		`UPDATE users SET username = $2, updated_at = now() WHERE id = $1`,
		userID, username,
	)
	if err != nil {
		return fmt.Errorf("update username: %w", wrapPgError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update username: %w", ErrNotFound)
	}
	return nil
}

// likeEscaper neutralizes the ILIKE metacharacters so a search term is
// matched literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SearchUsers returns users whose username contains term
// case-insensitively, excluding excludeUsername (the caller). The term
// is treated as a literal substring, not a pattern.
func (c *Client) SearchUsers(ctx context.Context, term, excludeUsername string) ([]models.User, error) {
	rows, err := c.pool.Query(ctx,
		`SELECT id, username, email, email_verified, image, created_at, updated_at
		 FROM users
		 WHERE username ILIKE '%' || $1 || '%' ESCAPE '\'
		   AND username IS DISTINCT FROM $2
		 ORDER BY username`,
		likeEscaper.Replace(term), excludeUsername,
	)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", wrapPgError(err))
	}
	defer rows.Close()

	var out []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.EmailVerified, &u.Image, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	return out, nil
}
