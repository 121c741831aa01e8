package accounts

import (
	"context"

	"github.com/dmitrijs2005/ledgerkeeper/internal/server/models"
	"github.com/shopspring/decimal"
)

type Repository interface {
	Create(ctx context.Context, a *models.Account) error
	GetByID(ctx context.Context, id string) (*models.Account, error)
	// LockByID reads the account and holds a row lock until the enclosing
	// transaction ends. The lock must not conflict with the KEY SHARE lock a
	// referencing expense or revenue insert takes on the same row.
	LockByID(ctx context.Context, id string) (*models.Account, error)
	// UpdateBalance writes only current_balance. It is the single write path
	// for the derived balance and never triggers reconciliation.
	UpdateBalance(ctx context.Context, id string, balance decimal.Decimal) error
	ListIDs(ctx context.Context, ownerID string) ([]string, error)
}
