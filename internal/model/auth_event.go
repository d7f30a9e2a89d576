package model

import "time"

const (
	AuthEventRegistered = "user_registered"
	AuthEventLogin      = "user_login"
	AuthEventLogout     = "user_logout"
	AuthEventDeleted    = "user_deleted"
)

type AuthEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Kind      string    `gorm:"size:32;not null;index" json:"kind"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
