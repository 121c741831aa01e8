// Package revenues provides the PostgreSQL repository for revenue rows and
// the aggregate queries the reconciliation engine reads.
package revenues

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

const selectColumns = `SELECT id, owner_id, description, value, date, received, account_id, loan_id, transfer_id FROM revenues`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, rv *models.Revenue) error {
	query := `
		INSERT INTO revenues (id, owner_id, description, value, date, received, account_id, loan_id, transfer_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		rv.ID, rv.OwnerID, rv.Description, rv.Value, rv.Date, rv.Received, rv.AccountID, rv.LoanID, rv.TransferID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Revenue, error) {
	return r.get(ctx, selectColumns+` WHERE id = $1`, id)
}

func (r *PostgresRepository) GetByTransfer(ctx context.Context, transferID string) (*models.Revenue, error) {
	return r.get(ctx, selectColumns+` WHERE transfer_id = $1`, transferID)
}

func (r *PostgresRepository) get(ctx context.Context, query string, arg string) (*models.Revenue, error) {
	var (
		rv                         models.Revenue
		account, loan, transferRef sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&rv.ID, &rv.OwnerID, &rv.Description, &rv.Value, &rv.Date, &rv.Received, &account, &loan, &transferRef)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	rv.AccountID = nullable(account)
	rv.LoanID = nullable(loan)
	rv.TransferID = nullable(transferRef)
	return &rv, nil
}

func (r *PostgresRepository) Update(ctx context.Context, rv *models.Revenue) error {
	query := `
		UPDATE revenues
		SET description = $2, value = $3, date = $4, received = $5, account_id = $6, loan_id = $7
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query,
		rv.ID, rv.Description, rv.Value, rv.Date, rv.Received, rv.AccountID, rv.LoanID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.RequireOneRow(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM revenues WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.RequireOneRow(res)
}

func (r *PostgresRepository) DeleteByTransfer(ctx context.Context, transferID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM revenues WHERE transfer_id = $1`, transferID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) SumReceivedByAccount(ctx context.Context, accountID string) (decimal.Decimal, error) {
	return dbx.SumDecimal(ctx, r.db,
		`SELECT COALESCE(SUM(value), 0) FROM revenues WHERE account_id = $1 AND received`, accountID)
}

func (r *PostgresRepository) SumByLoan(ctx context.Context, loanID string) (decimal.Decimal, error) {
	return dbx.SumDecimal(ctx, r.db,
		`SELECT COALESCE(SUM(value), 0) FROM revenues WHERE loan_id = $1`, loanID)
}

func nullable(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
