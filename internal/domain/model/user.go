package model

import (
	"strings"
	"time"

	"invoiceflow/internal/domain"
)

// User is an account that owns subscriptions and invoices.
type User struct {
	ID            string // UUID
	Email         string
	Name          string
	PasswordHash  string // bcrypt
	WalletAddress string // default payout address, free text
	CreatedAt     time.Time
}

// NewUser creates an account. passwordHash must already be hashed; the
// model never sees plaintext passwords.
func NewUser(id, email, name, passwordHash string) (*User, error) {
	if id == "" || passwordHash == "" {
		return nil, domain.ErrInvalidArgument
	}
	email = strings.TrimSpace(email)
	if !emailPattern.MatchString(email) {
		return nil, domain.ErrInvalidArgument
	}
	return &User{
		ID:           id,
		Email:        strings.ToLower(email),
		Name:         strings.TrimSpace(name),
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}, nil
}
