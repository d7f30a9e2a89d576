package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrNotFound means the requested user id does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateKey means a unique constraint on email, username or token
	// was violated. The message never names the colliding field.
	ErrDuplicateKey = errors.New("duplicate key")
)

// translate maps gorm's storage errors onto the domain error kinds. Raw
// driver errors must not leak past the repository boundary.
func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicateKey
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	}
	return err
}
