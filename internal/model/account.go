package model

import "time"

// AccountID uniquely identifies an account across the system
type AccountID string

// Account is a stored credential record. The email is the unique login key
// and is immutable after sign-up.
type Account struct {
	ID           AccountID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"` // bcrypt hash, never plaintext
	CreatedAt    time.Time `json:"created_at"`
}

// User is the public projection of an Account: the subset that is safe to
// hand to UI layers. It must never carry the password hash.
type User struct {
	ID        AccountID `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// PublicUser returns the account's public projection
func (a *Account) PublicUser() *User {
	return &User{
		ID:        a.ID,
		Email:     a.Email,
		CreatedAt: a.CreatedAt,
	}
}
