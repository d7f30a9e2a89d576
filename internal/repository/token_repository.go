package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"accountd/internal/model"
)

type TokenRepository struct {
	db *gorm.DB
}

func NewTokenRepository(db *gorm.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// Replace issues a fresh token for the user, deleting any existing tokens
// in the same transaction so at most one live token exists per user. It
// returns the new token string and the token strings it superseded.
func (r *TokenRepository) Replace(ctx context.Context, userID uint) (string, []string, error) {
	token := model.UserToken{
		Token:  uuid.NewString(),
		UserID: userID,
	}

	var replaced []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.UserToken{}).
			Where("user_id = ?", userID).
			Pluck("token", &replaced).Error; err != nil {
			return err
		}
		if len(replaced) > 0 {
			if err := tx.Where("user_id = ?", userID).Delete(&model.UserToken{}).Error; err != nil {
				return err
			}
		}
		return tx.Create(&token).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return "", nil, ErrDuplicateKey
		}
		return "", nil, fmt.Errorf("issue token failed: %w", err)
	}
	return token.Token, replaced, nil
}

// Resolve returns the user owning the token, or (nil, nil) when the token
// is unknown. Unresolvable tokens are routine traffic, not errors.
func (r *TokenRepository) Resolve(ctx context.Context, token string) (*model.User, error) {
	var row model.UserToken
	err := r.db.WithContext(ctx).Where("token = ?", token).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query token failed: %w", err)
	}

	var user model.User
	if err := r.db.WithContext(ctx).First(&user, row.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query token owner failed: %w", err)
	}
	return &user, nil
}

// Revoke deletes the token row. Revoking a token that does not exist is
// not an error.
func (r *TokenRepository) Revoke(ctx context.Context, token string) error {
	if err := r.db.WithContext(ctx).Where("token = ?", token).Delete(&model.UserToken{}).Error; err != nil {
		return fmt.Errorf("revoke token failed: %w", err)
	}
	return nil
}

func (r *TokenRepository) ListForUser(ctx context.Context, userID uint) ([]string, error) {
	var tokens []string
	if err := r.db.WithContext(ctx).Model(&model.UserToken{}).
		Where("user_id = ?", userID).
		Pluck("token", &tokens).Error; err != nil {
		return nil, fmt.Errorf("list tokens for user failed: %w", err)
	}
	return tokens, nil
}
