// Package passwords stores login credentials with an encrypted password.
package passwords

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
	Create(ctx context.Context, p *models.Password) error
	GetByID(ctx context.Context, id string) (*models.Password, error)
}

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, p *models.Password) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO passwords (id, owner_id, title, login, password) VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.OwnerID, p.Title, p.Login, p.Password)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Password, error) {
	p := &models.Password{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, title, login, password FROM passwords WHERE id = $1`, id).
		Scan(&p.ID, &p.OwnerID, &p.Title, &p.Login, &p.Password)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}
