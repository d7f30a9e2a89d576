package model

import "time"

// UserToken is an opaque bearer credential. A user holds at most one live
// token; issuing a new one replaces any existing row for that user.
type UserToken struct {
	Token     string    `gorm:"primaryKey;size:64" json:"token"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
