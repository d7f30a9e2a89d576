package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accountd/internal/model"
)

func TestMemoryUserCreateAssignsIdentity(t *testing.T) {
	users, _ := NewMemory()
	ctx := context.Background()

	user := &model.User{Email: "test@example.com", Username: "testuser", HashedPassword: "hashed_pw"}
	require.NoError(t, users.Create(ctx, user))

	assert.NotZero(t, user.ID)
	assert.False(t, user.CreatedAt.IsZero())

	got, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "test@example.com", got.Email)
}

func TestMemoryUserUniqueness(t *testing.T) {
	users, _ := NewMemory()
	ctx := context.Background()

	require.NoError(t, users.Create(ctx, &model.User{Email: "test@example.com", Username: "testuser", HashedPassword: "x"}))

	err := users.Create(ctx, &model.User{Email: "test@example.com", Username: "other", HashedPassword: "x"})
	assert.ErrorIs(t, err, ErrDuplicateKey)

	err = users.Create(ctx, &model.User{Email: "other@example.com", Username: "testuser", HashedPassword: "x"})
	assert.ErrorIs(t, err, ErrDuplicateKey)
}

func TestMemoryUserGetByLogin(t *testing.T) {
	users, _ := NewMemory()
	ctx := context.Background()

	require.NoError(t, users.Create(ctx, &model.User{Email: "test@example.com", Username: "testuser", HashedPassword: "x"}))

	byEmail, err := users.GetByLogin(ctx, "test@example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)

	byUsername, err := users.GetByLogin(ctx, "testuser")
	require.NoError(t, err)
	require.NotNil(t, byUsername)
	assert.Equal(t, byEmail.ID, byUsername.ID)

	missing, err := users.GetByLogin(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMemoryUserPartialUpdate(t *testing.T) {
	users, _ := NewMemory()
	ctx := context.Background()

	user := &model.User{Email: "test@example.com", Username: "testuser", HashedPassword: "hashed_pw"}
	require.NoError(t, users.Create(ctx, user))

	email := "new@example.com"
	updated, err := users.Update(ctx, user.ID, UserUpdate{Email: &email})
	require.NoError(t, err)

	assert.Equal(t, "new@example.com", updated.Email)
	assert.Equal(t, "testuser", updated.Username)
	assert.Equal(t, "hashed_pw", updated.HashedPassword)
}

func TestMemoryUserUpdateCollision(t *testing.T) {
	users, _ := NewMemory()
	ctx := context.Background()

	require.NoError(t, users.Create(ctx, &model.User{Email: "a@example.com", Username: "alpha", HashedPassword: "x"}))
	second := &model.User{Email: "b@example.com", Username: "beta", HashedPassword: "x"}
	require.NoError(t, users.Create(ctx, second))

	taken := "alpha"
	_, err := users.Update(ctx, second.ID, UserUpdate{Username: &taken})
	assert.ErrorIs(t, err, ErrDuplicateKey)

	// Re-submitting a user's own values is not a collision.
	own := "beta"
	_, err = users.Update(ctx, second.ID, UserUpdate{Username: &own})
	assert.NoError(t, err)
}

func TestMemoryUserUpdateNotFound(t *testing.T) {
	users, _ := NewMemory()
	email := "x@example.com"

	_, err := users.Update(context.Background(), 999, UserUpdate{Email: &email})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryTokenReplace(t *testing.T) {
	users, tokens := NewMemory()
	ctx := context.Background()

	user := &model.User{Email: "test@example.com", Username: "testuser", HashedPassword: "x"}
	require.NoError(t, users.Create(ctx, user))

	first, replaced, err := tokens.Replace(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, replaced)

	second, replaced, err := tokens.Replace(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{first}, replaced)
	assert.NotEqual(t, first, second)

	stale, err := tokens.Resolve(ctx, first)
	require.NoError(t, err)
	assert.Nil(t, stale)

	owner, err := tokens.Resolve(ctx, second)
	require.NoError(t, err)
	require.NotNil(t, owner)
	assert.Equal(t, user.ID, owner.ID)
}

func TestMemoryTokenRevokeIsSilent(t *testing.T) {
	_, tokens := NewMemory()
	assert.NoError(t, tokens.Revoke(context.Background(), "nonexistent-token"))
}

func TestMemoryUserDeleteCascadesTokens(t *testing.T) {
	users, tokens := NewMemory()
	ctx := context.Background()

	user := &model.User{Email: "test@example.com", Username: "testuser", HashedPassword: "x"}
	require.NoError(t, users.Create(ctx, user))
	token, _, err := tokens.Replace(ctx, user.ID)
	require.NoError(t, err)

	revoked, err := users.Delete(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{token}, revoked)

	resolved, err := tokens.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Nil(t, resolved)

	remaining, err := tokens.ListForUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestMemoryUserDeleteNotFound(t *testing.T) {
	users, _ := NewMemory()

	_, err := users.Delete(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryUserListInsertionOrder(t *testing.T) {
	users, _ := NewMemory()
	ctx := context.Background()

	for _, name := range []string{"alpha", "beta", "gamma"} {
		require.NoError(t, users.Create(ctx, &model.User{
			Email:          name + "@example.com",
			Username:       name,
			HashedPassword: "x",
		}))
	}

	listed, err := users.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, "alpha", listed[0].Username)
	assert.Equal(t, "gamma", listed[2].Username)
}
