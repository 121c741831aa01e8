// Package expenses provides the PostgreSQL repository for expense rows and
// the aggregate queries the reconciliation engine reads.
package expenses

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/ledgerkeeper/internal/common"
	"github.com/dmitrijs2005/ledgerkeeper/internal/dbx"
	"github.com/dmitrijs2005/ledgerkeeper/internal/server/models"
	"github.com/shopspring/decimal"
)

const selectColumns = `SELECT id, owner_id, description, value, date, payed, account_id, loan_id, transfer_id FROM expenses`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, e *models.Expense) error {
	query := `
		INSERT INTO expenses (id, owner_id, description, value, date, payed, account_id, loan_id, transfer_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.OwnerID, e.Description, e.Value, e.Date, e.Payed, e.AccountID, e.LoanID, e.TransferID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Expense, error) {
	return r.get(ctx, selectColumns+` WHERE id = $1`, id)
}

func (r *PostgresRepository) GetByTransfer(ctx context.Context, transferID string) (*models.Expense, error) {
	return r.get(ctx, selectColumns+` WHERE transfer_id = $1`, transferID)
}

func (r *PostgresRepository) get(ctx context.Context, query string, arg string) (*models.Expense, error) {
	var (
		e                          models.Expense
		account, loan, transferRef sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&e.ID, &e.OwnerID, &e.Description, &e.Value, &e.Date, &e.Payed, &account, &loan, &transferRef)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	e.AccountID = nullable(account)
	e.LoanID = nullable(loan)
	e.TransferID = nullable(transferRef)
	return &e, nil
}

func (r *PostgresRepository) Update(ctx context.Context, e *models.Expense) error {
	query := `
		UPDATE expenses
		SET description = $2, value = $3, date = $4, payed = $5, account_id = $6, loan_id = $7
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query,
		e.ID, e.Description, e.Value, e.Date, e.Payed, e.AccountID, e.LoanID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.RequireOneRow(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.RequireOneRow(res)
}

func (r *PostgresRepository) DeleteByTransfer(ctx context.Context, transferID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE transfer_id = $1`, transferID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) SumPayedByAccount(ctx context.Context, accountID string) (decimal.Decimal, error) {
	return dbx.SumDecimal(ctx, r.db,
		`SELECT COALESCE(SUM(value), 0) FROM expenses WHERE account_id = $1 AND payed`, accountID)
}

func (r *PostgresRepository) SumByLoan(ctx context.Context, loanID string) (decimal.Decimal, error) {
	return dbx.SumDecimal(ctx, r.db,
		`SELECT COALESCE(SUM(value), 0) FROM expenses WHERE loan_id = $1`, loanID)
}

func nullable(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
