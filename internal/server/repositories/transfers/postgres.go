// Package transfers provides the PostgreSQL repository for transfers between
// accounts.
package transfers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/ledgerkeeper/internal/common"
	"github.com/dmitrijs2005/ledgerkeeper/internal/dbx"
	"github.com/dmitrijs2005/ledgerkeeper/internal/server/models"
)

const selectColumns = `SELECT id, owner_id, description, origin_id, destination_id, value, fee, date, confirmed FROM transfers`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, t *models.Transfer) error {
	query := `
		INSERT INTO transfers (id, owner_id, description, origin_id, destination_id, value, fee, date, confirmed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		t.ID, t.OwnerID, t.Description, t.OriginID, t.DestinationID, t.Value, t.Fee, t.Date, t.Confirmed)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Transfer, error) {
	return r.get(ctx, selectColumns+` WHERE id = $1`, id)
}

func (r *PostgresRepository) LockByID(ctx context.Context, id string) (*models.Transfer, error) {
	return r.get(ctx, selectColumns+` WHERE id = $1 FOR NO KEY UPDATE`, id)
}

func (r *PostgresRepository) get(ctx context.Context, query, id string) (*models.Transfer, error) {
	t := &models.Transfer{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.OwnerID, &t.Description, &t.OriginID, &t.DestinationID, &t.Value, &t.Fee, &t.Date, &t.Confirmed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) MarkConfirmed(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE transfers SET confirmed = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.RequireOneRow(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transfers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.RequireOneRow(res)
}
