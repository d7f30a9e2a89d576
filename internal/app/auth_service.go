package app

import (
	"context"
	"errors"
	"log"
	"strings"

	"accountd/internal/model"
	"accountd/internal/pkg/passhash"
	"accountd/internal/repository"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidCredentials is returned for an unknown login and for a
	// wrong password alike; callers cannot tell the two apart.
	ErrInvalidCredentials = errors.New("invalid login or password")
)

type UserRepository interface {
	List(ctx context.Context) ([]model.User, error)
	GetByID(ctx context.Context, id uint) (*model.User, error)
	GetByLogin(ctx context.Context, login string) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
	Update(ctx context.Context, id uint, upd repository.UserUpdate) (*model.User, error)
	Delete(ctx context.Context, id uint) (revokedTokens []string, err error)
}

type TokenRepository interface {
	Replace(ctx context.Context, userID uint) (token string, replaced []string, err error)
	Resolve(ctx context.Context, token string) (*model.User, error)
	Revoke(ctx context.Context, token string) error
	ListForUser(ctx context.Context, userID uint) ([]string, error)
}

type TokenCache interface {
	Get(ctx context.Context, token string) (*model.User, bool, error)
	Set(ctx context.Context, token string, user *model.User) error
	Delete(ctx context.Context, tokens ...string) error
}

type AuthEventPublisher interface {
	Publish(ctx context.Context, event model.AuthEvent) error
}

type AuthService struct {
	userRepo   UserRepository
	tokenRepo  TokenRepository
	tokenCache TokenCache
	publisher  AuthEventPublisher
	bcryptCost int
}

type RegisterInput struct {
	Email    string
	Username string
	Password string
}

type LoginInput struct {
	Login    string
	Password string
}

type AuthResult struct {
	Token string
	User  *model.User
}

func NewAuthService(
	userRepo UserRepository,
	tokenRepo TokenRepository,
	tokenCache TokenCache,
	publisher AuthEventPublisher,
	bcryptCost int,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		tokenRepo:  tokenRepo,
		tokenCache: tokenCache,
		publisher:  publisher,
		bcryptCost: bcryptCost,
	}
}

// Register creates the user and issues its first token. Email and username
// collisions surface as repository.ErrDuplicateKey straight from the store's
// unique indexes; there is no read-then-write pre-check.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
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

	token, err := s.issueToken(ctx, user)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, model.AuthEventRegistered, user.ID)
	return &AuthResult{Token: token, User: user}, nil
}

// Login resolves the identifier against email or username, verifies the
// password and issues a fresh token, superseding any previous one.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	login := strings.TrimSpace(input.Login)
	password := strings.TrimSpace(input.Password)
	if login == "" || password == "" {
		return nil, ErrInvalidInput
	}

	user, err := s.userRepo.GetByLogin(ctx, login)
	if err != nil {
		return nil, err
	}
	if user == nil || !passhash.Verify(password, user.HashedPassword) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.issueToken(ctx, user)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, model.AuthEventLogin, user.ID)
	return &AuthResult{Token: token, User: user}, nil
}

// Authenticate resolves a bearer token to its user. An unknown token
// returns (nil, nil): unauthenticated requests are routine traffic.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, nil
	}

	if s.tokenCache != nil {
		if user, hit, err := s.tokenCache.Get(ctx, token); err == nil && hit {
			return user, nil
		}
	}

	user, err := s.tokenRepo.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	if user != nil && s.tokenCache != nil {
		_ = s.tokenCache.Set(ctx, token, user)
	}
	return user, nil
}

// Logout revokes the token. Logging out an already-invalid token succeeds
// silently.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	// The owner lookup only feeds the audit event; revocation proceeds
	// even when it fails, but the failure should not be invisible.
	owner, err := s.tokenRepo.Resolve(ctx, token)
	if err != nil {
		log.Printf("resolve token on logout failed: %v", err)
	}
	if err := s.tokenRepo.Revoke(ctx, token); err != nil {
		return err
	}
	if s.tokenCache != nil {
		_ = s.tokenCache.Delete(ctx, token)
	}
	if owner != nil {
		s.publish(ctx, model.AuthEventLogout, owner.ID)
	}
	return nil
}

func (s *AuthService) issueToken(ctx context.Context, user *model.User) (string, error) {
	token, replaced, err := s.tokenRepo.Replace(ctx, user.ID)
	if err != nil {
		return "", err
	}
	if s.tokenCache != nil {
		_ = s.tokenCache.Delete(ctx, replaced...)
		_ = s.tokenCache.Set(ctx, token, user)
	}
	return token, nil
}

func (s *AuthService) publish(ctx context.Context, kind string, userID uint) {
	if s.publisher == nil {
		return
	}
	event := model.AuthEvent{Kind: kind, UserID: userID}
	if err := s.publisher.Publish(ctx, event); err != nil {
		log.Printf("publish auth event failed: %v", err)
	}
}
