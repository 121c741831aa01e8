// Package archives stores free-text secrets.
package archives

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/ledgerkeeper/internal/common"
	"github.com/dmitrijs2005/ledgerkeeper/internal/dbx"
	"github.com/dmitrijs2005/ledgerkeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, a *models.Archive) error
	GetByID(ctx context.Context, id string) (*models.Archive, error)
}

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, a *models.Archive) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO archives (id, owner_id, title, secret) VALUES ($1, $2, $3, $4)`,
		a.ID, a.OwnerID, a.Title, a.Secret)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Archive, error) {
	a := &models.Archive{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, title, secret FROM archives WHERE id = $1`, id).
		Scan(&a.ID, &a.OwnerID, &a.Title, &a.Secret)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}
