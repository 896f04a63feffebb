// Package auth supplies the identity of the calling user for each
// request. Tokens are minted by the external identity flow; this layer
// only verifies and exposes them.
package auth

import "context"

// Session identifies the authenticated caller.
type Session struct {
	UserID   string
	Username string
}

type sessionKey struct{}

// WithSession returns a context carrying the session.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFrom returns the caller's session, or nil for an
// unauthenticated request.
func SessionFrom(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionKey{}).(*Session)
	return s
}
