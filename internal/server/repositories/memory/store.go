// Package memory is an in-memory implementation of every repository. It is
// not transactional: writes are visible immediately and are not undone when
// the surrounding transaction rolls back. Row locks are no-ops. Tests use it
// to check reconciliation and transfer semantics without PostgreSQL.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/dmitrijs2005/ledgerkeeper/internal/common"
	"github.com/dmitrijs2005/ledgerkeeper/internal/server/models"
	"github.com/shopspring/decimal"
)

// Store holds all rows.
type Store struct {
	mu        sync.Mutex
	accounts  map[string]models.Account
	loans     map[string]models.Loan
	expenses  map[string]models.Expense
	revenues  map[string]models.Revenue
	transfers map[string]models.Transfer
	cards     map[string]models.Card
	passwords map[string]models.Password
	archives  map[string]models.Archive
	failures  map[string]error

	// BalanceWrites counts UpdateBalance calls, LoanWrites UpdateState calls.
	BalanceWrites int
	LoanWrites    int
}

func NewStore() *Store {
	return &Store{
		accounts:  map[string]models.Account{},
		loans:     map[string]models.Loan{},
		expenses:  map[string]models.Expense{},
		revenues:  map[string]models.Revenue{},
		transfers: map[string]models.Transfer{},
		cards:     map[string]models.Card{},
		passwords: map[string]models.Password{},
		archives:  map[string]models.Archive{},
		failures:  map[string]error{},
	}
}

// FailOn makes the named operation ("accounts.UpdateBalance",
// "expenses.Create", ...) return err until cleared with a nil err.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

func (s *Store) fail(op string) error {
	return s.failures[op]
}

func cloneRef(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func sortedKeys[V any](m map[string]V, keep func(V) bool) []string {
	var ids []string
	for id, v := range m {
		if keep(v) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Accounts

type AccountRepository struct{ s *Store }

func (r *AccountRepository) Create(ctx context.Context, a *models.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("accounts.Create"); err != nil {
		return err
	}
	r.s.accounts[a.ID] = *a
	return nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.accounts[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &a, nil
}

func (r *AccountRepository) LockByID(ctx context.Context, id string) (*models.Account, error) {
	r.s.mu.Lock()
	err := r.s.fail("accounts.LockByID")
	r.s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *AccountRepository) UpdateBalance(ctx context.Context, id string, balance decimal.Decimal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("accounts.UpdateBalance"); err != nil {
		return err
	}
	a, ok := r.s.accounts[id]
	if !ok {
		return common.ErrorNotFound
	}
	a.CurrentBalance = balance
	r.s.accounts[id] = a
	r.s.BalanceWrites++
	return nil
}

func (r *AccountRepository) ListIDs(ctx context.Context, ownerID string) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return sortedKeys(r.s.accounts, func(a models.Account) bool {
		return ownerID == "" || a.OwnerID == ownerID
	}), nil
}

// Delete removes an account row; used by tests to simulate a concurrent delete.
func (r *AccountRepository) Delete(id string) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.accounts, id)
}

// Loans

type LoanRepository struct{ s *Store }

func (r *LoanRepository) Create(ctx context.Context, l *models.Loan) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *l
	c.AccountID = cloneRef(l.AccountID)
	r.s.loans[l.ID] = c
	return nil
}

func (r *LoanRepository) GetByID(ctx context.Context, id string) (*models.Loan, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.loans[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	l.AccountID = cloneRef(l.AccountID)
	return &l, nil
}

func (r *LoanRepository) LockByID(ctx context.Context, id string) (*models.Loan, error) {
	return r.GetByID(ctx, id)
}

func (r *LoanRepository) UpdateState(ctx context.Context, id string, paid decimal.Decimal, status models.LoanStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("loans.UpdateState"); err != nil {
		return err
	}
	l, ok := r.s.loans[id]
	if !ok {
		return common.ErrorNotFound
	}
	l.PaidValue = paid
	l.Status = status
	r.s.loans[id] = l
	r.s.LoanWrites++
	return nil
}

func (r *LoanRepository) ListIDs(ctx context.Context, ownerID string) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return sortedKeys(r.s.loans, func(l models.Loan) bool {
		return ownerID == "" || l.OwnerID == ownerID
	}), nil
}

// Delete removes a loan row; used by tests to simulate a concurrent delete.
func (r *LoanRepository) Delete(id string) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.loans, id)
}
