package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers every way a bearer token can fail
// verification; callers are not told which.
var ErrInvalidToken = errors.New("invalid token")

// claims carries the session identity inside the token. The user id is
// the registered subject.
type claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// ParseToken verifies an HS256 bearer token and returns the session it
// carries.
func ParseToken(secret, token string) (*Session, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidToken, err)
	}
	if !parsed.Valid || c.Subject == "" {
		return nil, ErrInvalidToken
	}

	return &Session{UserID: c.Subject, Username: c.Username}, nil
}

// SignToken mints an HS256 token for the session, valid for ttl. Used
// by tooling and tests; production tokens come from the identity flow.
func SignToken(secret string, session Session, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Username: session.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   session.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
