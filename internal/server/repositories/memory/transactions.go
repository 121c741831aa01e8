package memory

import (
	"context"

	"github.com/dmitrijs2005/ledgerkeeper/internal/common"
	"github.com/dmitrijs2005/ledgerkeeper/internal/server/models"
	"github.com/shopspring/decimal"
)

func cloneExpense(e models.Expense) models.Expense {
	e.AccountID = cloneRef(e.AccountID)
	e.LoanID = cloneRef(e.LoanID)
	e.TransferID = cloneRef(e.TransferID)
	return e
}

func cloneRevenue(rv models.Revenue) models.Revenue {
	rv.AccountID = cloneRef(rv.AccountID)
	rv.LoanID = cloneRef(rv.LoanID)
	rv.TransferID = cloneRef(rv.TransferID)
	return rv
}

type ExpenseRepository struct{ s *Store }

func (r *ExpenseRepository) Create(ctx context.Context, e *models.Expense) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("expenses.Create"); err != nil {
		return err
	}
	r.s.expenses[e.ID] = cloneExpense(*e)
	return nil
}

func (r *ExpenseRepository) GetByID(ctx context.Context, id string) (*models.Expense, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.expenses[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	e = cloneExpense(e)
	return &e, nil
}

func (r *ExpenseRepository) Update(ctx context.Context, e *models.Expense) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	old, ok := r.s.expenses[e.ID]
	if !ok {
		return common.ErrorNotFound
	}
	c := cloneExpense(*e)
	c.OwnerID = old.OwnerID
	c.TransferID = old.TransferID
	r.s.expenses[e.ID] = c
	return nil
}

func (r *ExpenseRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.expenses[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.expenses, id)
	return nil
}

func (r *ExpenseRepository) GetByTransfer(ctx context.Context, transferID string) (*models.Expense, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.expenses {
		if models.Deref(e.TransferID) == transferID {
			e = cloneExpense(e)
			return &e, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *ExpenseRepository) DeleteByTransfer(ctx context.Context, transferID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, e := range r.s.expenses {
		if models.Deref(e.TransferID) == transferID {
			delete(r.s.expenses, id)
			n++
		}
	}
	return n, nil
}

func (r *ExpenseRepository) SumPayedByAccount(ctx context.Context, accountID string) (decimal.Decimal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sum := decimal.Zero
	for _, e := range r.s.expenses {
		if e.Payed && models.Deref(e.AccountID) == accountID {
			sum = sum.Add(e.Value)
		}
	}
	return sum, nil
}

func (r *ExpenseRepository) SumByLoan(ctx context.Context, loanID string) (decimal.Decimal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sum := decimal.Zero
	for _, e := range r.s.expenses {
		if models.Deref(e.LoanID) == loanID {
			sum = sum.Add(e.Value)
		}
	}
	return sum, nil
}

// Count returns the number of stored expenses.
func (r *ExpenseRepository) Count() int {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.expenses)
}

type RevenueRepository struct{ s *Store }

func (r *RevenueRepository) Create(ctx context.Context, rv *models.Revenue) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("revenues.Create"); err != nil {
		return err
	}
	r.s.revenues[rv.ID] = cloneRevenue(*rv)
	return nil
}

func (r *RevenueRepository) GetByID(ctx context.Context, id string) (*models.Revenue, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rv, ok := r.s.revenues[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	rv = cloneRevenue(rv)
	return &rv, nil
}

func (r *RevenueRepository) Update(ctx context.Context, rv *models.Revenue) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	old, ok := r.s.revenues[rv.ID]
	if !ok {
		return common.ErrorNotFound
	}
	c := cloneRevenue(*rv)
	c.OwnerID = old.OwnerID
	c.TransferID = old.TransferID
	r.s.revenues[rv.ID] = c
	return nil
}

func (r *RevenueRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.revenues[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.revenues, id)
	return nil
}

func (r *RevenueRepository) GetByTransfer(ctx context.Context, transferID string) (*models.Revenue, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, rv := range r.s.revenues {
		if models.Deref(rv.TransferID) == transferID {
			rv = cloneRevenue(rv)
			return &rv, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *RevenueRepository) DeleteByTransfer(ctx context.Context, transferID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, rv := range r.s.revenues {
		if models.Deref(rv.TransferID) == transferID {
			delete(r.s.revenues, id)
			n++
		}
	}
	return n, nil
}

func (r *RevenueRepository) SumReceivedByAccount(ctx context.Context, accountID string) (decimal.Decimal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sum := decimal.Zero
	for _, rv := range r.s.revenues {
		if rv.Received && models.Deref(rv.AccountID) == accountID {
			sum = sum.Add(rv.Value)
		}
	}
	return sum, nil
}

func (r *RevenueRepository) SumByLoan(ctx context.Context, loanID string) (decimal.Decimal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sum := decimal.Zero
	for _, rv := range r.s.revenues {
		if models.Deref(rv.LoanID) == loanID {
			sum = sum.Add(rv.Value)
		}
	}
	return sum, nil
}

// Count returns the number of stored revenues.
func (r *RevenueRepository) Count() int {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.revenues)
}

type TransferRepository struct{ s *Store }

func (r *TransferRepository) Create(ctx context.Context, t *models.Transfer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.transfers[t.ID] = *t
	return nil
}

func (r *TransferRepository) GetByID(ctx context.Context, id string) (*models.Transfer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.transfers[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &t, nil
}

func (r *TransferRepository) LockByID(ctx context.Context, id string) (*models.Transfer, error) {
	return r.GetByID(ctx, id)
}

func (r *TransferRepository) MarkConfirmed(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.transfers[id]
	if !ok {
		return common.ErrorNotFound
	}
	t.Confirmed = true
	r.s.transfers[id] = t
	return nil
}

func (r *TransferRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.transfers[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.transfers, id)
	return nil
}
