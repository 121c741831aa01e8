// Package accounts provides the PostgreSQL repository for accounts and their
// cached balances.
package accounts

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

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, a *models.Account) error {
	query := `
		INSERT INTO accounts (id, owner_id, name, number, current_balance)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query, a.ID, a.OwnerID, a.Name, a.Number, a.CurrentBalance)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	return r.get(ctx, `SELECT id, owner_id, name, number, current_balance FROM accounts WHERE id = $1`, id)
}

// LockByID uses FOR NO KEY UPDATE: a concurrent insert of an expense for the
// same account holds FOR KEY SHARE here through the foreign key, which
// FOR UPDATE would deadlock against.
func (r *PostgresRepository) LockByID(ctx context.Context, id string) (*models.Account, error) {
	return r.get(ctx, `SELECT id, owner_id, name, number, current_balance FROM accounts WHERE id = $1 FOR NO KEY UPDATE`, id)
}

func (r *PostgresRepository) get(ctx context.Context, query, id string) (*models.Account, error) {
	a := &models.Account{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&a.ID, &a.OwnerID, &a.Name, &a.Number, &a.CurrentBalance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) UpdateBalance(ctx context.Context, id string, balance decimal.Decimal) error {
	res, err := r.db.ExecContext(ctx, `UPDATE accounts SET current_balance = $2 WHERE id = $1`, id, balance)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.RequireOneRow(res)
}

func (r *PostgresRepository) ListIDs(ctx context.Context, ownerID string) ([]string, error) {
	query := `SELECT id FROM accounts ORDER BY id`
	args := []any{}
	if ownerID != "" {
		query = `SELECT id FROM accounts WHERE owner_id = $1 ORDER BY id`
		args = append(args, ownerID)
	}
	return dbx.QueryStrings(ctx, r.db, query, args...)
}
