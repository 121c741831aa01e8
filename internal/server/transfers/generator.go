// Package transfers turns confirmed transfers into their double-entry rows:
// one settled expense on the origin account and one settled revenue on the
// destination account, both pointing back at the transfer.
package transfers

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/ledgerkeeper/internal/common"
	"github.com/dmitrijs2005/ledgerkeeper/internal/dbx"
	"github.com/dmitrijs2005/ledgerkeeper/internal/logging"
	"github.com/dmitrijs2005/ledgerkeeper/internal/server/models"
	"github.com/dmitrijs2005/ledgerkeeper/internal/server/reconcile"
	"github.com/dmitrijs2005/ledgerkeeper/internal/server/repositories/expenses"
	"github.com/dmitrijs2005/ledgerkeeper/internal/server/repositories/revenues"
	"github.com/dmitrijs2005/ledgerkeeper/internal/server/repositories/transfers"
	"github.com/google/uuid"
)

var (
	ErrSameAccount   = fmt.Errorf("%w: origin and destination must differ", common.ErrorValidation)
	ErrInvalidAmount = fmt.Errorf("%w: value must be positive and fee not negative", common.ErrorValidation)
)

// Validate checks a transfer before it is stored.
func Validate(t *models.Transfer) error {
	if t.OriginID == "" || t.DestinationID == "" {
		return fmt.Errorf("%w: origin and destination are required", common.ErrorValidation)
	}
	if t.OriginID == t.DestinationID {
		return ErrSameAccount
	}
	if !t.Value.IsPositive() || t.Fee.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

type Repos interface {
	Transfers(db dbx.DBTX) transfers.Repository
	Expenses(db dbx.DBTX) expenses.Repository
	Revenues(db dbx.DBTX) revenues.Repository
}

// Reconciler is the part of reconcile.Engine the generator needs.
type Reconciler interface {
	Apply(ctx context.Context, tx dbx.DBTX, c reconcile.Change) error
}

type Generator struct {
	repos  Repos
	engine Reconciler
	logger logging.Logger
	newID  func() string
}

func NewGenerator(repos Repos, engine Reconciler, logger logging.Logger) *Generator {
	return &Generator{
		repos:  repos,
		engine: engine,
		logger: logger.With("module", "transfers"),
		newID:  uuid.NewString,
	}
}

// Confirm marks the transfer confirmed and makes sure its expense and
// revenue exist, then reconciles both accounts. Calling it again for the
// same transfer creates nothing new. tx must be a transaction; the transfer
// row lock serialises concurrent confirmations.
func (g *Generator) Confirm(ctx context.Context, tx dbx.DBTX, transferID string) (*models.Transfer, error) {
	t, err := g.repos.Transfers(tx).LockByID(ctx, transferID)
	if err != nil {
		return nil, fmt.Errorf("lock transfer %s: %w", transferID, err)
	}

	if !t.Confirmed {
		if err := g.repos.Transfers(tx).MarkConfirmed(ctx, t.ID); err != nil {
			return nil, fmt.Errorf("confirm transfer %s: %w", t.ID, err)
		}
		t.Confirmed = true
	}

	if err := g.ensureExpense(ctx, tx, t); err != nil {
		return nil, err
	}
	if err := g.ensureRevenue(ctx, tx, t); err != nil {
		return nil, err
	}

	if err := g.engine.Apply(ctx, tx, reconcile.Change{Accounts: []string{t.OriginID, t.DestinationID}}); err != nil {
		return nil, err
	}
	return t, nil
}

func (g *Generator) ensureExpense(ctx context.Context, tx dbx.DBTX, t *models.Transfer) error {
	repo := g.repos.Expenses(tx)
	_, err := repo.GetByTransfer(ctx, t.ID)
	if err == nil {
		g.logger.Debug(ctx, "transfer expense already generated", "transfer_id", t.ID)
		return nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return err
	}

	e := &models.Expense{
		ID:          g.newID(),
		OwnerID:     t.OwnerID,
		Description: t.Description,
		Value:       t.OriginAmount(),
		Date:        t.Date,
		Payed:       true,
		AccountID:   models.Ref(t.OriginID),
		TransferID:  models.Ref(t.ID),
	}
	if err := repo.Create(ctx, e); err != nil {
		return fmt.Errorf("create transfer expense: %w", err)
	}
	return nil
}

func (g *Generator) ensureRevenue(ctx context.Context, tx dbx.DBTX, t *models.Transfer) error {
	repo := g.repos.Revenues(tx)
	_, err := repo.GetByTransfer(ctx, t.ID)
	if err == nil {
		g.logger.Debug(ctx, "transfer revenue already generated", "transfer_id", t.ID)
		return nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return err
	}

	r := &models.Revenue{
		ID:          g.newID(),
		OwnerID:     t.OwnerID,
		Description: t.Description,
		Value:       t.Value,
		Date:        t.Date,
		Received:    true,
		AccountID:   models.Ref(t.DestinationID),
		TransferID:  models.Ref(t.ID),
	}
	if err := repo.Create(ctx, r); err != nil {
		return fmt.Errorf("create transfer revenue: %w", err)
	}
	return nil
}

// Delete removes the transfer together with its generated rows and
// reconciles both accounts.
func (g *Generator) Delete(ctx context.Context, tx dbx.DBTX, transferID string) error {
	t, err := g.repos.Transfers(tx).LockByID(ctx, transferID)
	if err != nil {
		return fmt.Errorf("lock transfer %s: %w", transferID, err)
	}

	if _, err := g.repos.Expenses(tx).DeleteByTransfer(ctx, t.ID); err != nil {
		return err
	}
	if _, err := g.repos.Revenues(tx).DeleteByTransfer(ctx, t.ID); err != nil {
		return err
	}
	if err := g.repos.Transfers(tx).Delete(ctx, t.ID); err != nil {
		return err
	}

	return g.engine.Apply(ctx, tx, reconcile.Change{Accounts: []string{t.OriginID, t.DestinationID}})
}
