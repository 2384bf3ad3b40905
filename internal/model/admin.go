package model

import "time"

// Admin is one allowlist record: only listed emails may sign in to the
// dashboard. Default entries are seeded idempotently at startup; an admin
// becomes Registered once they set a password.
type Admin struct {
	Email        string `gorm:"primaryKey"`
	UID          *string
	PasswordHash *string
	Registered   bool `gorm:"not null;default:false"`
	CreatedAt    time.Time
	LastLoginAt  *time.Time
}
