// Package reconcile recomputes derived aggregates from their source rows:
// account balances from expenses and revenues, loan paid value and status
// from the rows that reference the loan.
//
// Every recomputation starts from scratch. The owner row is locked first, the
// source rows are summed, and the derived columns are written through the
// repositories' dedicated UpdateBalance/UpdateState paths, which never call
// back into the engine.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/ledgerkeeper/internal/common"
	"github.com/dmitrijs2005/ledgerkeeper/internal/dbx"
	"github.com/dmitrijs2005/ledgerkeeper/internal/logging"
	"github.com/dmitrijs2005/ledgerkeeper/internal/server/models"
	"github.com/dmitrijs2005/ledgerkeeper/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/ledgerkeeper/internal/server/repositories/expenses"
	"github.com/dmitrijs2005/ledgerkeeper/internal/server/repositories/loans"
	"github.com/dmitrijs2005/ledgerkeeper/internal/server/repositories/revenues"
	"github.com/shopspring/decimal"
)

// ErrStaleOwner means the account or loan vanished before it could be
// reconciled. The engine logs it and carries on.
var ErrStaleOwner = errors.New("aggregate owner no longer exists")

// Repos vends the repositories the engine reads and writes.
type Repos interface {
	Accounts(db dbx.DBTX) accounts.Repository
	Loans(db dbx.DBTX) loans.Repository
	Expenses(db dbx.DBTX) expenses.Repository
	Revenues(db dbx.DBTX) revenues.Repository
}

type Engine struct {
	repos  Repos
	logger logging.Logger
	now    func() time.Time
}

func NewEngine(repos Repos, logger logging.Logger) *Engine {
	return &Engine{
		repos:  repos,
		logger: logger.With("module", "reconcile"),
		now:    time.Now,
	}
}

// ReconcileAccount sets the account balance to
// sum(received revenues) - sum(payed expenses). An empty id is a no-op.
func (e *Engine) ReconcileAccount(ctx context.Context, tx dbx.DBTX, id string) error {
	if id == "" {
		return nil
	}

	acc, err := e.repos.Accounts(tx).LockByID(ctx, id)
	if err != nil {
		return e.ownerError(ctx, "account", id, err)
	}

	received, err := e.repos.Revenues(tx).SumReceivedByAccount(ctx, id)
	if err != nil {
		return fmt.Errorf("sum revenues of account %s: %w", id, err)
	}
	payed, err := e.repos.Expenses(tx).SumPayedByAccount(ctx, id)
	if err != nil {
		return fmt.Errorf("sum expenses of account %s: %w", id, err)
	}

	balance := received.Sub(payed)
	if balance.Equal(acc.CurrentBalance) {
		return nil
	}

	if err := e.repos.Accounts(tx).UpdateBalance(ctx, id, balance); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return e.ownerError(ctx, "account", id, err)
		}
		return fmt.Errorf("update balance of account %s: %w", id, err)
	}

	e.logger.Debug(ctx, "account reconciled", "account_id", id, "balance", balance.String())
	return nil
}

// ReconcileLoan sets the loan paid value to the sum of all expenses and
// revenues referencing it and derives the status from it. Nothing is written
// when neither changed. An empty id is a no-op.
func (e *Engine) ReconcileLoan(ctx context.Context, tx dbx.DBTX, id string) error {
	if id == "" {
		return nil
	}

	loan, err := e.repos.Loans(tx).LockByID(ctx, id)
	if err != nil {
		return e.ownerError(ctx, "loan", id, err)
	}

	fromExpenses, err := e.repos.Expenses(tx).SumByLoan(ctx, id)
	if err != nil {
		return fmt.Errorf("sum expenses of loan %s: %w", id, err)
	}
	fromRevenues, err := e.repos.Revenues(tx).SumByLoan(ctx, id)
	if err != nil {
		return fmt.Errorf("sum revenues of loan %s: %w", id, err)
	}

	paid := fromExpenses.Add(fromRevenues)
	status := LoanStatus(loan.Status, loan.TotalValue, paid, loan.DueDate, e.now())

	if paid.Equal(loan.PaidValue) && status == loan.Status {
		return nil
	}

	if err := e.repos.Loans(tx).UpdateState(ctx, id, paid, status); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return e.ownerError(ctx, "loan", id, err)
		}
		return fmt.Errorf("update state of loan %s: %w", id, err)
	}

	e.logger.Debug(ctx, "loan reconciled",
		"loan_id", id, "paid_value", paid.String(), "status", string(status))
	return nil
}

func (e *Engine) ownerError(ctx context.Context, kind, id string, err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		e.logger.Warn(ctx, "skipping reconciliation", "owner", kind, "id", id, "error", ErrStaleOwner.Error())
		return nil
	}
	return fmt.Errorf("lock %s %s: %w", kind, id, err)
}

// LoanStatus derives a loan's status. A cancelled loan stays cancelled.
// Otherwise the loan is paid once paid reaches total, overdue when its due
// date is before today's date and something remains, and active in all
// other cases. A due date of today is not overdue.
func LoanStatus(current models.LoanStatus, total, paid decimal.Decimal, due *time.Time, now time.Time) models.LoanStatus {
	if current == models.LoanCancelled {
		return models.LoanCancelled
	}
	remaining := (&models.Loan{TotalValue: total, PaidValue: paid}).Remaining()
	if remaining.IsZero() {
		return models.LoanPaid
	}
	if due != nil && dateOf(*due).Before(dateOf(now)) {
		return models.LoanOverdue
	}
	return models.LoanActive
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
