package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type LoanStatus string

const (
	LoanActive    LoanStatus = "active"
	LoanPaid      LoanStatus = "paid"
	LoanOverdue   LoanStatus = "overdue"
	LoanCancelled LoanStatus = "cancelled"
)

func (s LoanStatus) Valid() bool {
	switch s {
	case LoanActive, LoanPaid, LoanOverdue, LoanCancelled:
		return true
	}
	return false
}

// Loan tracks a debt. PaidValue and Status are derived from the expenses and
// revenues that reference the loan.
type Loan struct {
	ID         string
	OwnerID    string
	Title      string
	AccountID  *string
	TotalValue decimal.Decimal
	PaidValue  decimal.Decimal
	DueDate    *time.Time
	Status     LoanStatus
}

// Remaining is TotalValue - PaidValue, never below zero.
func (l *Loan) Remaining() decimal.Decimal {
	r := l.TotalValue.Sub(l.PaidValue)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}
