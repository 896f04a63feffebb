package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebsocketURL(t *testing.T) {
	tests := []struct {
		endpoint string
		want     string
	}{
		{"http://localhost:8484/query", "ws://localhost:8484/query"},
		{"https://chat.example.com/query", "wss://chat.example.com/query"},
		{"ws://already-ws/query", "ws://already-ws/query"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, websocketURL(tt.endpoint))
	}
}

func TestExecuteSendsAuthHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"ok":true}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "token123")

	var resp struct {
		OK bool `json:"ok"`
	}
	err := c.Execute(context.Background(), `query { ok }`, nil, &resp)
	require.NoError(t, err)
	assert.True(t, resp.OK)
	assert.Equal(t, "Bearer token123", gotAuth)
}

func TestExecuteSurfacesGraphQLErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":null,"errors":[{"message":"Not Authorized"}]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	err := c.Execute(context.Background(), `query { conversations { id } }`, nil, nil)
	require.Error(t, err)
	assert.Equal(t, "Not Authorized", err.Error())
}

func TestExecuteNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	err := c.Execute(context.Background(), `query { ok }`, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}
