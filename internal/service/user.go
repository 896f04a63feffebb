package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/parley-chat/parley-go/internal/auth"
	"github.com/parley-chat/parley-go/internal/db"
	"github.com/parley-chat/parley-go/internal/models"
)

// UserStore is the slice of the store adapter the user operations need.
type UserStore interface {
	UserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateUsername(ctx context.Context, userID, username string) error
	SearchUsers(ctx context.Context, term, excludeUsername string) ([]models.User, error)
}

// UserService handles user search and username assignment.
type UserService struct {
	store    UserStore
	logger   *slog.Logger
	validate *validator.Validate
}

// NewUserService creates a new user service.
func NewUserService(store UserStore, logger *slog.Logger) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{
		store:    store,
		logger:   logger,
		validate: validator.New(),
	}
}

// Search returns users whose username contains term case-insensitively,
// excluding the caller even when the caller's own name matches.
func (s *UserService) Search(ctx context.Context, session *auth.Session, term string) ([]models.User, error) {
	users, err := s.store.SearchUsers(ctx, term, session.Username)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	return users, nil
}

// createUsernameInput validates a username claim.
type createUsernameInput struct {
	Username string `validate:"required,min=3,max=30,alphanum"`
}

// CreateUsername assigns the username to the caller. Returns
// ErrUsernameTaken when another user already holds it; the unique index
// in the store backstops the check under races.
func (s *UserService) CreateUsername(ctx context.Context, session *auth.Session, username string) error {
	if err := s.validate.Struct(createUsernameInput{Username: username}); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	_, err := s.store.UserByUsername(ctx, username)
	switch {
	case err == nil:
		return ErrUsernameTaken
	case !errors.Is(err, db.ErrNotFound):
		return fmt.Errorf("create username: %w", err)
	}

	if err := s.store.UpdateUsername(ctx, session.UserID, username); err != nil {
		if errors.Is(err, db.ErrAlreadyExists) {
			return ErrUsernameTaken
		}
		return fmt.Errorf("create username: %w", err)
	}
	return nil
}
