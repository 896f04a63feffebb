package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parley-chat/parley-go/internal/auth"
)

const testSecret = "test-secret"

func TestTokenRoundTrip(t *testing.T) {
	token, err := auth.SignToken(testSecret, auth.Session{
		UserID:   "u1",
		Username: "alice",
	}, time.Hour)
	require.NoError(t, err)

	session, err := auth.ParseToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, "u1", session.UserID)
	assert.Equal(t, "alice", session.Username)
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, err := auth.SignToken(testSecret, auth.Session{UserID: "u1"}, time.Hour)
	require.NoError(t, err)

	_, err = auth.ParseToken("another-secret", token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestParseTokenExpired(t *testing.T) {
	token, err := auth.SignToken(testSecret, auth.Session{UserID: "u1"}, -time.Minute)
	require.NoError(t, err)

	_, err = auth.ParseToken(testSecret, token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestParseTokenGarbage(t *testing.T) {
	_, err := auth.ParseToken(testSecret, "not.a.token")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestMiddlewareAttachesSession(t *testing.T) {
	token, err := auth.SignToken(testSecret, auth.Session{
		UserID:   "u1",
		Username: "alice",
	}, time.Hour)
	require.NoError(t, err)

	var got *auth.Session
	handler := auth.Middleware(testSecret, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = auth.SessionFrom(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/query", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, got)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "alice", got.Username)
}

func TestMiddlewareWithoutToken(t *testing.T) {
	var got *auth.Session
	var called bool
	handler := auth.Middleware(testSecret, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		got = auth.SessionFrom(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/query", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	// Unauthenticated requests pass through, resolvers decide access.
	assert.True(t, called)
	assert.Nil(t, got)
}

func TestMiddlewareWithInvalidToken(t *testing.T) {
	var got *auth.Session
	var called bool
	handler := auth.Middleware(testSecret, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		got = auth.SessionFrom(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/query", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.True(t, called)
	assert.Nil(t, got)
}

func TestSessionFromEmptyContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Nil(t, auth.SessionFrom(req.Context()))
}
