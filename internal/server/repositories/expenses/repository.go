package expenses

import (
	"context"

	"github.com/dmitrijs2005/ledgerkeeper/internal/server/models"
	"github.com/shopspring/decimal"
)

type Repository interface {
	Create(ctx context.Context, e *models.Expense) error
	GetByID(ctx context.Context, id string) (*models.Expense, error)
	Update(ctx context.Context, e *models.Expense) error
	Delete(ctx context.Context, id string) error
	// GetByTransfer returns the expense generated for transferID.
	GetByTransfer(ctx context.Context, transferID string) (*models.Expense, error)
	DeleteByTransfer(ctx context.Context, transferID string) (int64, error)
	// SumPayedByAccount sums the values of payed expenses on accountID.
	SumPayedByAccount(ctx context.Context, accountID string) (decimal.Decimal, error)
	// SumByLoan sums the values of all expenses referencing loanID.
	SumByLoan(ctx context.Context, loanID string) (decimal.Decimal, error)
}
