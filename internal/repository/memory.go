package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"accountd/internal/model"
)

func nowUTC() time.Time {
	return time.Now().UTC()
}

// memoryState is a process-local stand-in for the relational store. It
// enforces the same uniqueness and cascade rules the unique indexes and
// transactions provide in MySQL, so services behave identically on top of
// either implementation. Used by tests and local development.
type memoryState struct {
	mu     sync.Mutex
	users  map[uint]model.User
	tokens map[string]model.UserToken
	nextID uint
}

type MemoryUserRepository struct {
	s *memoryState
}

type MemoryTokenRepository struct {
	s *memoryState
}

// NewMemory returns user and token repositories sharing one in-memory store.
func NewMemory() (*MemoryUserRepository, *MemoryTokenRepository) {
	s := &memoryState{
		users:  map[uint]model.User{},
		tokens: map[string]model.UserToken{},
		nextID: 1,
	}
	return &MemoryUserRepository{s: s}, &MemoryTokenRepository{s: s}
}

func (s *memoryState) conflicts(email, username string, excludeID uint) bool {
	for id, u := range s.users {
		if id == excludeID {
			continue
		}
		if u.Email == email || u.Username == username {
			return true
		}
	}
	return false
}

func (r *MemoryUserRepository) List(ctx context.Context) ([]model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	users := make([]model.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (r *MemoryUserRepository) GetByID(ctx context.Context, id uint) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	user, ok := r.s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (r *MemoryUserRepository) GetByLogin(ctx context.Context, login string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	email := strings.ToLower(login)
	for _, u := range r.s.users {
		if u.Email == email || u.Username == login {
			user := u
			return &user, nil
		}
	}
	return nil, nil
}

func (r *MemoryUserRepository) Create(ctx context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.conflicts(user.Email, user.Username, 0) {
		return ErrDuplicateKey
	}
	user.ID = r.s.nextID
	r.s.nextID++
	if user.CreatedAt.IsZero() {
		user.CreatedAt = nowUTC()
	}
	r.s.users[user.ID] = *user
	return nil
}

func (r *MemoryUserRepository) Update(ctx context.Context, id uint, upd UserUpdate) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	user, ok := r.s.users[id]
	if !ok {
		return nil, ErrNotFound
	}

	email, username := user.Email, user.Username
	if upd.Email != nil {
		email = *upd.Email
	}
	if upd.Username != nil {
		username = *upd.Username
	}
	if r.s.conflicts(email, username, id) {
		return nil, ErrDuplicateKey
	}

	user.Email = email
	user.Username = username
	if upd.HashedPassword != nil {
		user.HashedPassword = *upd.HashedPassword
	}
	r.s.users[id] = user
	return &user, nil
}

func (r *MemoryUserRepository) Delete(ctx context.Context, id uint) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[id]; !ok {
		return nil, ErrNotFound
	}
	delete(r.s.users, id)
	var revoked []string
	for token, row := range r.s.tokens {
		if row.UserID == id {
			revoked = append(revoked, token)
			delete(r.s.tokens, token)
		}
	}
	return revoked, nil
}

func (r *MemoryTokenRepository) Replace(ctx context.Context, userID uint) (string, []string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var replaced []string
	for token, row := range r.s.tokens {
		if row.UserID == userID {
			replaced = append(replaced, token)
			delete(r.s.tokens, token)
		}
	}

	token := model.UserToken{
		Token:     uuid.NewString(),
		UserID:    userID,
		CreatedAt: nowUTC(),
	}
	r.s.tokens[token.Token] = token
	return token.Token, replaced, nil
}

func (r *MemoryTokenRepository) Resolve(ctx context.Context, token string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	row, ok := r.s.tokens[token]
	if !ok {
		return nil, nil
	}
	user, ok := r.s.users[row.UserID]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

func (r *MemoryTokenRepository) Revoke(ctx context.Context, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.tokens, token)
	return nil
}

func (r *MemoryTokenRepository) ListForUser(ctx context.Context, userID uint) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var tokens []string
	for token, row := range r.s.tokens {
		if row.UserID == userID {
			tokens = append(tokens, token)
		}
	}
	return tokens, nil
}
