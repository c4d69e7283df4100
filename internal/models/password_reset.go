package models

import "time"

type PasswordReset struct {
	TokenHash string
	UserID    int64
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}
