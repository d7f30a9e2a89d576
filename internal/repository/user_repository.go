package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"accountd/internal/model"
)

// UserUpdate carries the fields of a partial update. A nil field is left
// untouched; no field in the model is clearable.
type UserUpdate struct {
	Email          *string
	Username       *string
	HashedPassword *string
}

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) List(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Order("id").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users failed: %w", err)
	}
	return users, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query user by id failed: %w", err)
	}
	return &user, nil
}

// GetByLogin matches the login against either email or username. Email and
// username uniqueness domains are disjoint, so at most one user matches.
// Emails are stored lowercased, so the email comparand is lowercased here
// too; usernames stay case-sensitive. A miss returns (nil, nil): callers
// treat it as routine, not an error.
func (r *UserRepository) GetByLogin(ctx context.Context, login string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("email = ? OR username = ?", strings.ToLower(login), login).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user by login failed: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create user failed: %w", err)
	}
	return nil
}

func (r *UserRepository) Update(ctx context.Context, id uint, upd UserUpdate) (*model.User, error) {
	fields := map[string]any{}
	if upd.Email != nil {
		fields["email"] = *upd.Email
	}
	if upd.Username != nil {
		fields["username"] = *upd.Username
	}
	if upd.HashedPassword != nil {
		fields["hashed_password"] = *upd.HashedPassword
	}

	var user model.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, id).Error; err != nil {
			return err
		}
		if len(fields) == 0 {
			return nil
		}
		return tx.Model(&user).Updates(fields).Error
	})
	if err != nil {
		if derr := translate(err); derr != err {
			return nil, derr
		}
		return nil, fmt.Errorf("update user failed: %w", err)
	}
	return &user, nil
}

// Delete removes the user and, in the same transaction, every token the
// user holds. No orphaned token row survives the commit. The removed token
// strings are returned so callers can evict cache entries; collecting them
// inside the transaction means a token issued concurrently with the delete
// cannot slip past the eviction.
func (r *UserRepository) Delete(ctx context.Context, id uint) ([]string, error) {
	var revoked []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user model.User
		if err := tx.First(&user, id).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.UserToken{}).
			Where("user_id = ?", id).
			Pluck("token", &revoked).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&model.UserToken{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("delete user failed: %w", err)
	}
	return revoked, nil
}
