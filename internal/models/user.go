// Package models defines the domain entities persisted by the store.
package models

import "time"

// User is an account created by the external registration flow.
// Username is nil until the user claims one via CreateUsername.
type User struct {
	ID            string
	Username      *string
	Email         string
	EmailVerified bool
	Image         *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// UserSummary is the slice of a user embedded in populated entities:
// just enough to render a participant or message sender.
type UserSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Summary returns the embeddable view of the user. An unclaimed
// username renders as the empty string.
func (u *User) Summary() UserSummary {
	s := UserSummary{ID: u.ID}
	if u.Username != nil {
		s.Username = *u.Username
	}
	return s
}
