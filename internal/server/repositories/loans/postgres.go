// Package loans provides the PostgreSQL repository for loans.
package loans

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

const selectColumns = `SELECT id, owner_id, title, account_id, total_value, paid_value, due_date, status FROM loans`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, l *models.Loan) error {
	query := `
		INSERT INTO loans (id, owner_id, title, account_id, total_value, paid_value, due_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		l.ID, l.OwnerID, l.Title, l.AccountID, l.TotalValue, l.PaidValue, l.DueDate, string(l.Status))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Loan, error) {
	return r.get(ctx, selectColumns+` WHERE id = $1`, id)
}

func (r *PostgresRepository) LockByID(ctx context.Context, id string) (*models.Loan, error) {
	return r.get(ctx, selectColumns+` WHERE id = $1 FOR NO KEY UPDATE`, id)
}

func (r *PostgresRepository) get(ctx context.Context, query, id string) (*models.Loan, error) {
	var (
		l       models.Loan
		account sql.NullString
		due     sql.NullTime
		status  string
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&l.ID, &l.OwnerID, &l.Title, &account, &l.TotalValue, &l.PaidValue, &due, &status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if account.Valid {
		l.AccountID = &account.String
	}
	if due.Valid {
		d := due.Time
		l.DueDate = &d
	}
	l.Status = models.LoanStatus(status)
	if !l.Status.Valid() {
		return nil, fmt.Errorf("loan %s: unknown status %q", l.ID, status)
	}
	return &l, nil
}

func (r *PostgresRepository) UpdateState(ctx context.Context, id string, paid decimal.Decimal, status models.LoanStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE loans SET paid_value = $2, status = $3 WHERE id = $1`, id, paid, string(status))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.RequireOneRow(res)
}

func (r *PostgresRepository) ListIDs(ctx context.Context, ownerID string) ([]string, error) {
	if ownerID == "" {
		return dbx.QueryStrings(ctx, r.db, `SELECT id FROM loans ORDER BY id`)
	}
	return dbx.QueryStrings(ctx, r.db, `SELECT id FROM loans WHERE owner_id = $1 ORDER BY id`, ownerID)
}
