// Package services contains server-side business logic. LedgerService is
// the mutation path for money rows: every write runs in one transaction
// together with the reconciliation of the aggregates it touches.
package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/ledgerkeeper/internal/common"
	"github.com/dmitrijs2005/ledgerkeeper/internal/dbx"
	"github.com/dmitrijs2005/ledgerkeeper/internal/logging"
	"github.com/dmitrijs2005/ledgerkeeper/internal/server/models"
	"github.com/dmitrijs2005/ledgerkeeper/internal/server/reconcile"
	"github.com/dmitrijs2005/ledgerkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/ledgerkeeper/internal/server/transfers"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrGeneratedRow is returned when a caller edits an expense or revenue
	// that belongs to a transfer. Such rows change only with their transfer.
	ErrGeneratedRow  = fmt.Errorf("%w: row is managed by its transfer", common.ErrorValidation)
	ErrLoanCancelled = fmt.Errorf("%w: loan is cancelled", common.ErrorValidation)
)

type LedgerService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	engine      *reconcile.Engine
	generator   *transfers.Generator
	logger      logging.Logger
	newID       func() string
	now         func() time.Time
}

func NewLedgerService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *LedgerService {
	engine := reconcile.NewEngine(m, logger)
	return &LedgerService{
		db:          db,
		repomanager: m,
		engine:      engine,
		generator:   transfers.NewGenerator(m, engine, logger),
		logger:      logger.With("module", "ledger"),
		newID:       uuid.NewString,
		now:         time.Now,
	}
}

// Engine exposes the reconciliation engine for repair jobs.
func (s *LedgerService) Engine() *reconcile.Engine { return s.engine }

func checkAmount(v decimal.Decimal) error {
	if v.IsNegative() {
		return fmt.Errorf("%w: value must not be negative", common.ErrorValidation)
	}
	return nil
}

// Expenses

// CreateExpense stores e and reconciles its account and loan. The ID is
// generated when empty.
func (s *LedgerService) CreateExpense(ctx context.Context, e *models.Expense) (*models.Expense, error) {
	if err := checkAmount(e.Value); err != nil {
		return nil, err
	}
	if e.TransferID != nil {
		return nil, ErrGeneratedRow
	}
	if e.ID == "" {
		e.ID = s.newID()
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Expenses(tx).Create(ctx, e); err != nil {
			return fmt.Errorf("error creating expense: %w", err)
		}
		var c reconcile.Change
		c.AddExpense(e)
		return s.engine.Apply(ctx, tx, c)
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

// UpdateExpense replaces the mutable fields of an expense. Both the previous
// and the new account and loan are reconciled.
func (s *LedgerService) UpdateExpense(ctx context.Context, e *models.Expense) (*models.Expense, error) {
	if err := checkAmount(e.Value); err != nil {
		return nil, err
	}

	var after *models.Expense
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Expenses(tx)
		before, err := repo.GetByID(ctx, e.ID)
		if err != nil {
			return err
		}
		if before.TransferID != nil {
			return ErrGeneratedRow
		}
		if err := repo.Update(ctx, e); err != nil {
			return fmt.Errorf("error updating expense: %w", err)
		}
		if after, err = repo.GetByID(ctx, e.ID); err != nil {
			return err
		}
		var c reconcile.Change
		c.AddExpense(before)
		c.AddExpense(after)
		return s.engine.Apply(ctx, tx, c)
	})
	if err != nil {
		return nil, err
	}
	return after, nil
}

func (s *LedgerService) DeleteExpense(ctx context.Context, id string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Expenses(tx)
		before, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if before.TransferID != nil {
			return ErrGeneratedRow
		}
		if err := repo.Delete(ctx, id); err != nil {
			return fmt.Errorf("error deleting expense: %w", err)
		}
		var c reconcile.Change
		c.AddExpense(before)
		return s.engine.Apply(ctx, tx, c)
	})
}

// Revenues

func (s *LedgerService) CreateRevenue(ctx context.Context, r *models.Revenue) (*models.Revenue, error) {
	if err := checkAmount(r.Value); err != nil {
		return nil, err
	}
	if r.TransferID != nil {
		return nil, ErrGeneratedRow
	}
	if r.ID == "" {
		r.ID = s.newID()
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Revenues(tx).Create(ctx, r); err != nil {
			return fmt.Errorf("error creating revenue: %w", err)
		}
		var c reconcile.Change
		c.AddRevenue(r)
		return s.engine.Apply(ctx, tx, c)
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *LedgerService) UpdateRevenue(ctx context.Context, r *models.Revenue) (*models.Revenue, error) {
	if err := checkAmount(r.Value); err != nil {
		return nil, err
	}

	var after *models.Revenue
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Revenues(tx)
		before, err := repo.GetByID(ctx, r.ID)
		if err != nil {
			return err
		}
		if before.TransferID != nil {
			return ErrGeneratedRow
		}
		if err := repo.Update(ctx, r); err != nil {
			return fmt.Errorf("error updating revenue: %w", err)
		}
		if after, err = repo.GetByID(ctx, r.ID); err != nil {
			return err
		}
		var c reconcile.Change
		c.AddRevenue(before)
		c.AddRevenue(after)
		return s.engine.Apply(ctx, tx, c)
	})
	if err != nil {
		return nil, err
	}
	return after, nil
}

func (s *LedgerService) DeleteRevenue(ctx context.Context, id string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Revenues(tx)
		before, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if before.TransferID != nil {
			return ErrGeneratedRow
		}
		if err := repo.Delete(ctx, id); err != nil {
			return fmt.Errorf("error deleting revenue: %w", err)
		}
		var c reconcile.Change
		c.AddRevenue(before)
		return s.engine.Apply(ctx, tx, c)
	})
}

// Transfers

// CreateTransfer validates and stores t. A transfer created already
// confirmed gets its expense and revenue in the same transaction.
func (s *LedgerService) CreateTransfer(ctx context.Context, t *models.Transfer) (*models.Transfer, error) {
	if err := transfers.Validate(t); err != nil {
		return nil, err
	}
	if t.ID == "" {
		t.ID = s.newID()
	}
	confirm := t.Confirmed
	t.Confirmed = false

	var out *models.Transfer
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Transfers(tx).Create(ctx, t); err != nil {
			return fmt.Errorf("error creating transfer: %w", err)
		}
		out = t
		if !confirm {
			return nil
		}
		var err error
		out, err = s.generator.Confirm(ctx, tx, t.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ConfirmTransfer is safe to retry.
func (s *LedgerService) ConfirmTransfer(ctx context.Context, id string) (*models.Transfer, error) {
	var out *models.Transfer
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		out, err = s.generator.Confirm(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "transfer confirmed", "transfer_id", id)
	return out, nil
}

func (s *LedgerService) DeleteTransfer(ctx context.Context, id string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.generator.Delete(ctx, tx, id)
	})
}

// Loans

// CreateLoan stores l with no payments and lets reconciliation set its
// initial status.
func (s *LedgerService) CreateLoan(ctx context.Context, l *models.Loan) (*models.Loan, error) {
	if !l.TotalValue.IsPositive() {
		return nil, fmt.Errorf("%w: total value must be positive", common.ErrorValidation)
	}
	if l.ID == "" {
		l.ID = s.newID()
	}
	l.PaidValue = decimal.Zero
	l.Status = models.LoanActive

	var out *models.Loan
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Loans(tx)
		if err := repo.Create(ctx, l); err != nil {
			return fmt.Errorf("error creating loan: %w", err)
		}
		if err := s.engine.ReconcileLoan(ctx, tx, l.ID); err != nil {
			return err
		}
		var err error
		out, err = repo.GetByID(ctx, l.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CancelLoan moves a loan to the terminal cancelled status.
func (s *LedgerService) CancelLoan(ctx context.Context, id string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Loans(tx)
		l, err := repo.LockByID(ctx, id)
		if err != nil {
			return err
		}
		if l.Status == models.LoanCancelled {
			return nil
		}
		if err := repo.UpdateState(ctx, id, l.PaidValue, models.LoanCancelled); err != nil {
			return fmt.Errorf("error cancelling loan: %w", err)
		}
		return s.engine.ReconcileLoan(ctx, tx, id)
	})
}

// PayLoanRequest describes one loan installment.
type PayLoanRequest struct {
	LoanID      string
	AccountID   string // optional; when set the payment also leaves this account
	Value       decimal.Decimal
	Description string
}

// PayLoan records a payed expense referencing the loan and, when given, the
// paying account, then reconciles both.
func (s *LedgerService) PayLoan(ctx context.Context, req PayLoanRequest) (*models.Expense, error) {
	if !req.Value.IsPositive() {
		return nil, fmt.Errorf("%w: payment must be positive", common.ErrorValidation)
	}

	var payment *models.Expense
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		// read only; the engine takes the locks in account, loan order
		l, err := s.repomanager.Loans(tx).GetByID(ctx, req.LoanID)
		if err != nil {
			return err
		}
		if l.Status == models.LoanCancelled {
			return ErrLoanCancelled
		}

		payment = &models.Expense{
			ID:          s.newID(),
			OwnerID:     l.OwnerID,
			Description: req.Description,
			Value:       req.Value,
			Date:        s.now().UTC(),
			Payed:       true,
			AccountID:   models.Ref(req.AccountID),
			LoanID:      models.Ref(l.ID),
		}
		if payment.Description == "" {
			payment.Description = "Payment: " + l.Title
		}
		if err := s.repomanager.Expenses(tx).Create(ctx, payment); err != nil {
			return fmt.Errorf("error creating loan payment: %w", err)
		}

		var c reconcile.Change
		c.AddExpense(payment)
		return s.engine.Apply(ctx, tx, c)
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// Reads

func (s *LedgerService) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	return s.repomanager.Accounts(s.db).GetByID(ctx, id)
}

func (s *LedgerService) GetLoan(ctx context.Context, id string) (*models.Loan, error) {
	return s.repomanager.Loans(s.db).GetByID(ctx, id)
}

func (s *LedgerService) GetTransfer(ctx context.Context, id string) (*models.Transfer, error) {
	return s.repomanager.Transfers(s.db).GetByID(ctx, id)
}
