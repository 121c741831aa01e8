package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/ledgerkeeper/internal/dbx"
	"github.com/dmitrijs2005/ledgerkeeper/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/ledgerkeeper/internal/server/repositories/archives"
	"github.com/dmitrijs2005/ledgerkeeper/internal/server/repositories/cards"
	"github.com/dmitrijs2005/ledgerkeeper/internal/server/repositories/expenses"
	"github.com/dmitrijs2005/ledgerkeeper/internal/server/repositories/loans"
	"github.com/dmitrijs2005/ledgerkeeper/internal/server/repositories/passwords"
	"github.com/dmitrijs2005/ledgerkeeper/internal/server/repositories/revenues"
	"github.com/dmitrijs2005/ledgerkeeper/internal/server/repositories/secrets"
	"github.com/dmitrijs2005/ledgerkeeper/internal/server/repositories/transfers"
)

// RepositoryManager vends repositories bound to a DBTX, so the same code
// runs against *sql.DB or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	Loans(db dbx.DBTX) loans.Repository
	Expenses(db dbx.DBTX) expenses.Repository
	Revenues(db dbx.DBTX) revenues.Repository
	Transfers(db dbx.DBTX) transfers.Repository
	Cards(db dbx.DBTX) cards.Repository
	Passwords(db dbx.DBTX) passwords.Repository
	Archives(db dbx.DBTX) archives.Repository
	Secrets(db dbx.DBTX) secrets.Repository
}
