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
	"github.com/dmitrijs2005/ledgerkeeper/internal/server/repositories/memory"
	"github.com/dmitrijs2005/ledgerkeeper/internal/server/repositories/passwords"
	"github.com/dmitrijs2005/ledgerkeeper/internal/server/repositories/revenues"
	"github.com/dmitrijs2005/ledgerkeeper/internal/server/repositories/secrets"
	"github.com/dmitrijs2005/ledgerkeeper/internal/server/repositories/transfers"
)

// InMemoryRepositoryManager hands out the same in-memory repositories for any
// DBTX. See package memory for its limits.
type InMemoryRepositoryManager struct {
	Repos *memory.Repos
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{Repos: memory.NewRepos(memory.NewStore())}
}

func (m *InMemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *InMemoryRepositoryManager) Accounts(dbx.DBTX) accounts.Repository {
	return m.Repos.Accounts
}

func (m *InMemoryRepositoryManager) Loans(dbx.DBTX) loans.Repository {
	return m.Repos.Loans
}

func (m *InMemoryRepositoryManager) Expenses(dbx.DBTX) expenses.Repository {
	return m.Repos.Expenses
}

func (m *InMemoryRepositoryManager) Revenues(dbx.DBTX) revenues.Repository {
	return m.Repos.Revenues
}

func (m *InMemoryRepositoryManager) Transfers(dbx.DBTX) transfers.Repository {
	return m.Repos.Transfers
}

func (m *InMemoryRepositoryManager) Cards(dbx.DBTX) cards.Repository {
	return m.Repos.Cards
}

func (m *InMemoryRepositoryManager) Passwords(dbx.DBTX) passwords.Repository {
	return m.Repos.Passwords
}

func (m *InMemoryRepositoryManager) Archives(dbx.DBTX) archives.Repository {
	return m.Repos.Archives
}

func (m *InMemoryRepositoryManager) Secrets(dbx.DBTX) secrets.Repository {
	return m.Repos.Secrets
}
