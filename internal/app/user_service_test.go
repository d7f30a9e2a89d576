package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"accountd/internal/model"
	"accountd/internal/pkg/passhash"
	"accountd/internal/repository"
)

func newUserFixture(t *testing.T) (*UserService, *AuthService, *recordingPublisher) {
	t.Helper()
	users, tokens := repository.NewMemory()
	cache := newFakeTokenCache()
	publisher := &recordingPublisher{}
	userSvc := NewUserService(users, tokens, cache, publisher, bcrypt.MinCost)
	authSvc := NewAuthService(users, tokens, cache, publisher, bcrypt.MinCost)
	return userSvc, authSvc, publisher
}

func TestUserListEmpty(t *testing.T) {
	svc, _, _ := newUserFixture(t)

	users, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestUserCreateHashesPassword(t *testing.T) {
	svc, _, _ := newUserFixture(t)
	ctx := context.Background()

	user, err := svc.Create(ctx, CreateUserInput{
		Email:    "test@example.com",
		Username: "testuser",
		Password: "password123",
	})
	require.NoError(t, err)
	require.NotZero(t, user.ID)
	assert.NotEqual(t, "password123", user.HashedPassword)
	assert.True(t, passhash.Verify("password123", user.HashedPassword))

	listed, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, user.ID, listed[0].ID)
}

func TestUserCreateDuplicate(t *testing.T) {
	svc, _, _ := newUserFixture(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateUserInput{Email: "test@example.com", Username: "testuser", Password: "password123"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateUserInput{Email: "test@example.com", Username: "other", Password: "password123"})
	assert.ErrorIs(t, err, repository.ErrDuplicateKey)
}

func TestUserGetNotFound(t *testing.T) {
	svc, _, _ := newUserFixture(t)

	_, err := svc.Get(context.Background(), 999)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserUpdatePartialFields(t *testing.T) {
	svc, _, _ := newUserFixture(t)
	ctx := context.Background()

	user, err := svc.Create(ctx, CreateUserInput{Email: "test@example.com", Username: "testuser", Password: "password123"})
	require.NoError(t, err)
	originalHash := user.HashedPassword

	email := "new@example.com"
	updated, err := svc.Update(ctx, user.ID, UpdateUserInput{Email: &email})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", updated.Email)
	assert.Equal(t, "testuser", updated.Username)
	assert.Equal(t, originalHash, updated.HashedPassword)

	password := "newpassword456"
	updated, err = svc.Update(ctx, user.ID, UpdateUserInput{Password: &password})
	require.NoError(t, err)
	assert.NotEqual(t, originalHash, updated.HashedPassword)
	assert.True(t, passhash.Verify("newpassword456", updated.HashedPassword))
}

func TestUserUpdateDuplicate(t *testing.T) {
	svc, _, _ := newUserFixture(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateUserInput{Email: "a@example.com", Username: "alpha", Password: "password123"})
	require.NoError(t, err)
	second, err := svc.Create(ctx, CreateUserInput{Email: "b@example.com", Username: "beta", Password: "password123"})
	require.NoError(t, err)

	taken := "a@example.com"
	_, err = svc.Update(ctx, second.ID, UpdateUserInput{Email: &taken})
	assert.ErrorIs(t, err, repository.ErrDuplicateKey)
}

func TestUserUpdateNotFound(t *testing.T) {
	svc, _, _ := newUserFixture(t)
	email := "x@example.com"

	_, err := svc.Update(context.Background(), 999, UpdateUserInput{Email: &email})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserDeleteRevokesTokens(t *testing.T) {
	svc, authSvc, publisher := newUserFixture(t)
	ctx := context.Background()

	result, err := authSvc.Register(ctx, RegisterInput{
		Email:    "test@example.com",
		Username: "testuser",
		Password: "password123",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, result.User.ID))

	user, err := authSvc.Authenticate(ctx, result.Token)
	require.NoError(t, err)
	assert.Nil(t, user)

	_, err = svc.Get(ctx, result.User.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	assert.Contains(t, publisher.kinds(), model.AuthEventDeleted)
}

func TestUserDeleteNotFound(t *testing.T) {
	svc, _, _ := newUserFixture(t)
	assert.ErrorIs(t, svc.Delete(context.Background(), 999), repository.ErrNotFound)
}
