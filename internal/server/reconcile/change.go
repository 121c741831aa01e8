package reconcile

import (
	"context"

	"github.com/dmitrijs2005/ledgerkeeper/internal/common"
	"github.com/dmitrijs2005/ledgerkeeper/internal/dbx"
	"github.com/dmitrijs2005/ledgerkeeper/internal/server/models"
)

// Change collects the aggregate owners touched by a source-row mutation.
// Updates add both the old and the new row so a moved row is subtracted
// from its previous owner.
type Change struct {
	Accounts []string
	Loans    []string
}

func (c *Change) AddExpense(e *models.Expense) {
	if e == nil {
		return
	}
	c.Accounts = append(c.Accounts, models.Deref(e.AccountID))
	c.Loans = append(c.Loans, models.Deref(e.LoanID))
}

func (c *Change) AddRevenue(r *models.Revenue) {
	if r == nil {
		return
	}
	c.Accounts = append(c.Accounts, models.Deref(r.AccountID))
	c.Loans = append(c.Loans, models.Deref(r.LoanID))
}

// Apply reconciles every owner in c once. Accounts are locked before loans
// and each kind in id order, so concurrent callers always lock in the same
// order.
func (e *Engine) Apply(ctx context.Context, tx dbx.DBTX, c Change) error {
	for _, id := range common.SortedUnique(c.Accounts...) {
		if err := e.ReconcileAccount(ctx, tx, id); err != nil {
			return err
		}
	}
	for _, id := range common.SortedUnique(c.Loans...) {
		if err := e.ReconcileLoan(ctx, tx, id); err != nil {
			return err
		}
	}
	return nil
}

// Summary counts the owners visited by ReconcileAll.
type Summary struct {
	Accounts int
	Loans    int
}

// ReconcileAll rebuilds every account and loan of ownerID, or of everyone
// when ownerID is empty. Each owner row is reconciled in its own
// transaction.
func (e *Engine) ReconcileAll(ctx context.Context, db dbx.DB, ownerID string) (Summary, error) {
	var sum Summary

	accountIDs, err := e.repos.Accounts(db).ListIDs(ctx, ownerID)
	if err != nil {
		return sum, err
	}
	loanIDs, err := e.repos.Loans(db).ListIDs(ctx, ownerID)
	if err != nil {
		return sum, err
	}

	for _, id := range accountIDs {
		err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			return e.ReconcileAccount(ctx, tx, id)
		})
		if err != nil {
			return sum, err
		}
		sum.Accounts++
	}

	for _, id := range loanIDs {
		err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			return e.ReconcileLoan(ctx, tx, id)
		})
		if err != nil {
			return sum, err
		}
		sum.Loans++
	}

	e.logger.Info(ctx, "reconciliation finished", "owner_id", ownerID, "accounts", sum.Accounts, "loans", sum.Loans)
	return sum, nil
}
