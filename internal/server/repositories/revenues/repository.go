package revenues

import (
	"context"

	"github.com/dmitrijs2005/ledgerkeeper/internal/server/models"
	"github.com/shopspring/decimal"
)

type Repository interface {
	Create(ctx context.Context, e *models.Revenue) error
	GetByID(ctx context.Context, id string) (*models.Revenue, error)
	Update(ctx context.Context, e *models.Revenue) error
	Delete(ctx context.Context, id string) error
	// GetByTransfer returns the revenue generated for transferID.
	GetByTransfer(ctx context.Context, transferID string) (*models.Revenue, error)
	DeleteByTransfer(ctx context.Context, transferID string) (int64, error)
	// SumReceivedByAccount sums the values of received revenues on accountID.
	SumReceivedByAccount(ctx context.Context, accountID string) (decimal.Decimal, error)
	// SumByLoan sums the values of all revenues referencing loanID.
	SumByLoan(ctx context.Context, loanID string) (decimal.Decimal, error)
}
