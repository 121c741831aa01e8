// Package cards stores payment cards. Number and CVV are encrypted
// secret.Secret columns; this package never sees plaintext.
package cards

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
	Create(ctx context.Context, c *models.Card) error
	GetByID(ctx context.Context, id string) (*models.Card, error)
}

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, c *models.Card) error {
	query := `
		INSERT INTO cards (id, owner_id, name, account_id, number, cvv, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query, c.ID, c.OwnerID, c.Name, c.AccountID, c.Number, c.CVV, c.ExpiresAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Card, error) {
	var (
		c       models.Card
		account sql.NullString
		expires sql.NullTime
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, name, account_id, number, cvv, expires_at FROM cards WHERE id = $1`, id).
		Scan(&c.ID, &c.OwnerID, &c.Name, &account, &c.Number, &c.CVV, &expires)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if account.Valid {
		c.AccountID = &account.String
	}
	if expires.Valid {
		t := expires.Time
		c.ExpiresAt = &t
	}
	return &c, nil
}
