package models

import (
	"time"

	"github.com/dmitrijs2005/ledgerkeeper/internal/secret"
)

type Card struct {
	ID        string
	OwnerID   string
	Name      string
	AccountID *string
	Number    secret.Secret
	CVV       secret.Secret
	ExpiresAt *time.Time
}

type Password struct {
	ID       string
	OwnerID  string
	Title    string
	Login    string
	Password secret.Secret
}

// Archive is a free-text secret (recovery codes, notes).
type Archive struct {
	ID      string
	OwnerID string
	Title   string
	Secret  secret.Secret
}
