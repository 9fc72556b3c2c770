package models

import (
	"time"

	"github.com/google/uuid"
)

// Account is the local record bound to a Keycloak identity by email
type Account struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Email       string    `json:"email" db:"email"`
	KeycloakSub string    `json:"keycloak_sub,omitempty" db:"keycloak_sub"` // Empty until first seen via introspection
	DisplayName string    `json:"display_name" db:"display_name"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Account model
func (Account) TableName() string {
	return "accounts"
}

// NewAccount creates a new Account instance
func NewAccount(email, displayName string) *Account {
	now := time.Now()
	return &Account{
		ID:          uuid.New(),
		Email:       email,
		DisplayName: displayName,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
