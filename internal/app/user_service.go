package app

import (
	"context"
	"log"
	"strings"

	"accountd/internal/model"
	"accountd/internal/pkg/passhash"
	"accountd/internal/repository"
)

// UserService owns the user directory operations. Tokens are only touched
// here to keep the cascade invariant: destroying or reshaping a user must
// leave no stale token behind, in the store or in the cache.
type UserService struct {
	userRepo   UserRepository
	tokenRepo  TokenRepository
	tokenCache TokenCache
	publisher  AuthEventPublisher
	bcryptCost int
}

type CreateUserInput struct {
	Email    string
	Username string
	Password string
}

// UpdateUserInput carries optional fields; nil means "leave unchanged".
type UpdateUserInput struct {
	Email    *string
	Username *string
	Password *string
}

func NewUserService(
	userRepo UserRepository,
	tokenRepo TokenRepository,
	tokenCache TokenCache,
	publisher AuthEventPublisher,
	bcryptCost int,
) *UserService {
	return &UserService{
		userRepo:   userRepo,
		tokenRepo:  tokenRepo,
		tokenCache: tokenCache,
		publisher:  publisher,
		bcryptCost: bcryptCost,
	}
}

func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	return s.userRepo.List(ctx)
}

func (s *UserService) Get(ctx context.Context, id uint) (*model.User, error) {
	if id == 0 {
		return nil, repository.ErrNotFound
	}
	return s.userRepo.GetByID(ctx, id)
}

func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*model.User, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))
	username := strings.TrimSpace(input.Username)
	password := strings.TrimSpace(input.Password)

	if email == "" || username == "" || len(password) < 8 {
		return nil, ErrInvalidInput
	}

	hash, err := passhash.Hash(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:          email,
		Username:       username,
		HashedPassword: hash,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) Update(ctx context.Context, id uint, input UpdateUserInput) (*model.User, error) {
	if id == 0 {
		return nil, repository.ErrNotFound
	}

	var upd repository.UserUpdate
	if input.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*input.Email))
		if email == "" {
			return nil, ErrInvalidInput
		}
		upd.Email = &email
	}
	if input.Username != nil {
		username := strings.TrimSpace(*input.Username)
		if username == "" {
			return nil, ErrInvalidInput
		}
		upd.Username = &username
	}
	if input.Password != nil {
		password := strings.TrimSpace(*input.Password)
		if len(password) < 8 {
			return nil, ErrInvalidInput
		}
		hash, err := passhash.Hash(password, s.bcryptCost)
		if err != nil {
			return nil, err
		}
		upd.HashedPassword = &hash
	}

	user, err := s.userRepo.Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}

	// Cached snapshots for this user's tokens are stale now.
	if s.tokenCache != nil {
		if tokens, err := s.tokenRepo.ListForUser(ctx, id); err == nil {
			_ = s.tokenCache.Delete(ctx, tokens...)
		}
	}
	return user, nil
}

// Delete removes the user; the repository cascades token deletion in the
// same transaction and reports which tokens it removed, so the cache
// eviction cannot miss a token issued while the delete was in flight.
func (s *UserService) Delete(ctx context.Context, id uint) error {
	if id == 0 {
		return repository.ErrNotFound
	}

	tokens, err := s.userRepo.Delete(ctx, id)
	if err != nil {
		return err
	}

	if s.tokenCache != nil {
		_ = s.tokenCache.Delete(ctx, tokens...)
	}
	if s.publisher != nil {
		event := model.AuthEvent{Kind: model.AuthEventDeleted, UserID: id}
		if err := s.publisher.Publish(ctx, event); err != nil {
			log.Printf("publish auth event failed: %v", err)
		}
	}
	return nil
}
