package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parley-chat/parley-go/internal/service"
)

func newUserFixture(t *testing.T) (*service.UserService, *fakeStore, [3]string) {
	t.Helper()

	store := newFakeStore()
	ids := [3]string{uuid.NewString(), uuid.NewString(), uuid.NewString()}
	store.addUser(ids[0], "alice")
	store.addUser(ids[1], "alicia")
	store.addUser(ids[2], "")

	return service.NewUserService(store, testLogger()), store, ids
}

func TestSearchExcludesCaller(t *testing.T) {
	svc, _, ids := newUserFixture(t)
	ctx := context.Background()

	users, err := svc.Search(ctx, session(ids[0], "alice"), "ali")
	require.NoError(t, err)
	require.Len(t, users, 1, "the caller must not match their own search")
	assert.Equal(t, "alicia", *users[0].Username)
}

func TestSearchIsCaseInsensitive(t *testing.T) {
	svc, _, ids := newUserFixture(t)
	ctx := context.Background()

	users, err := svc.Search(ctx, session(ids[2], ""), "ALI")
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestCreateUsername(t *testing.T) {
	svc, store, ids := newUserFixture(t)
	ctx := context.Background()

	err := svc.CreateUsername(ctx, session(ids[2], ""), "charlie")
	require.NoError(t, err)

	user, err := store.UserByUsername(ctx, "charlie")
	require.NoError(t, err)
	assert.Equal(t, ids[2], user.ID)
}

func TestCreateUsernameTaken(t *testing.T) {
	svc, _, ids := newUserFixture(t)
	ctx := context.Background()

	err := svc.CreateUsername(ctx, session(ids[2], ""), "alice")
	assert.ErrorIs(t, err, service.ErrUsernameTaken)
}

func TestCreateUsernameValidation(t *testing.T) {
	svc, _, ids := newUserFixture(t)
	ctx := context.Background()

	for _, username := range []string{"", "ab", "has space", "dotted.name"} {
		err := svc.CreateUsername(ctx, session(ids[2], ""), username)
		assert.ErrorIs(t, err, service.ErrInvalidInput, "username %q", username)
	}
}
