// Package models defines the rows persisted by ledgerkeeper.
//
// Money is always decimal.Decimal. Reference fields that may be absent are
// *string.
package models

import (
	"github.com/dmitrijs2005/ledgerkeeper/internal/secret"
	"github.com/shopspring/decimal"
)

// Account is a bank or cash account. CurrentBalance is a cache of
// sum(received revenues) - sum(payed expenses) and is only written by the
// reconciliation engine.
type Account struct {
	ID             string
	OwnerID        string
	Name           string
	Number         secret.Secret
	CurrentBalance decimal.Decimal
}
