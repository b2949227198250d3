package models

import "time"

// Invitation grants a role to whoever redeems its token before it expires.
type Invitation struct {
	ID         string     `db:"id" json:"id"`
	Email      string     `db:"email" json:"email"`
	Role       string     `db:"role" json:"role"`
	SecretHash string     `db:"secret_hash" json:"-"`
	InvitedBy  string     `db:"invited_by" json:"invited_by"`
	ExpiresAt  time.Time  `db:"expires_at" json:"expires_at"`
	UsedAt     *time.Time `db:"used_at" json:"used_at,omitempty"`
	UsedBy     *string    `db:"used_by" json:"used_by,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}
