// Package secrets gives key rotation generic access to every encrypted
// column. Tables and columns come from the fixed Targets list, never from
// user input.
package secrets

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/ledgerkeeper/internal/dbx"
)

// Target is one encrypted column.
type Target struct {
	Table  string
	Column string
}

func (t Target) String() string { return t.Table + "." + t.Column }

// Targets lists every encrypted column in the schema.
var Targets = []Target{
	{Table: "accounts", Column: "number"},
	{Table: "cards", Column: "number"},
	{Table: "cards", Column: "cvv"},
	{Table: "passwords", Column: "password"},
	{Table: "archives", Column: "secret"},
}

// Row is one stored ciphertext.
type Row struct {
	ID    string
	Token string
}

type Repository interface {
	// LockBatch returns up to limit non-null values of target with id greater
	// than afterID, in id order, locked until the transaction ends. A
	// non-empty ownerID restricts the scan to that owner's rows.
	LockBatch(ctx context.Context, target Target, ownerID, afterID string, limit int) ([]Row, error)
	// Update writes a single ciphertext.
	Update(ctx context.Context, target Target, id, token string) error
}

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func known(t Target) error {
	for _, k := range Targets {
		if k == t {
			return nil
		}
	}
	return fmt.Errorf("unknown encrypted column %s", t)
}

func (r *PostgresRepository) LockBatch(ctx context.Context, target Target, ownerID, afterID string, limit int) ([]Row, error) {
	if err := known(target); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(
		`SELECT id, %[2]s FROM %[1]s WHERE id > $1 AND %[2]s IS NOT NULL ORDER BY id LIMIT $2 FOR NO KEY UPDATE`,
		target.Table, target.Column)
	args := []any{afterID, limit}
	if ownerID != "" {
		query = fmt.Sprintf(
			`SELECT id, %[2]s FROM %[1]s WHERE id > $1 AND %[2]s IS NOT NULL AND owner_id = $3 ORDER BY id LIMIT $2 FOR NO KEY UPDATE`,
			target.Table, target.Column)
		args = append(args, ownerID)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select %s: %w", target, err)
	}
	defer rows.Close()

	var result []Row
	for rows.Next() {
		var row Row
		if err := rows.Scan(&row.ID, &row.Token); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Update(ctx context.Context, target Target, id, token string) error {
	if err := known(target); err != nil {
		return err
	}
	query := fmt.Sprintf(`UPDATE %s SET %s = $2 WHERE id = $1`, target.Table, target.Column)
	res, err := r.db.ExecContext(ctx, query, id, token)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.RequireOneRow(res)
}
