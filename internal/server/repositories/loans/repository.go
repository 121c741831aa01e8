package loans

import (
	"context"

	"github.com/dmitrijs2005/ledgerkeeper/internal/server/models"
	"github.com/shopspring/decimal"
)

type Repository interface {
	Create(ctx context.Context, l *models.Loan) error
	GetByID(ctx context.Context, id string) (*models.Loan, error)
	LockByID(ctx context.Context, id string) (*models.Loan, error)
	// UpdateState writes only paid_value and status.
	UpdateState(ctx context.Context, id string, paid decimal.Decimal, status models.LoanStatus) error
	ListIDs(ctx context.Context, ownerID string) ([]string, error)
}
