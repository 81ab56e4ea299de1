package models

import "time"

// User is the authenticated account the vault manager acts for.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

// AuthRequest for login.
type AuthRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenInfo stores session details persisted between runs.
type TokenInfo struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
}

// IsExpired checks if the token has expired.
func (t *TokenInfo) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}
