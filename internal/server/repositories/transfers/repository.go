package transfers

import (
	"context"

	"github.com/dmitrijs2005/ledgerkeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, t *models.Transfer) error
	GetByID(ctx context.Context, id string) (*models.Transfer, error)
	LockByID(ctx context.Context, id string) (*models.Transfer, error)
	MarkConfirmed(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}
