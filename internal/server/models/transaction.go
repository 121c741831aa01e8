package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense is a source-of-truth outflow. It counts against AccountID's
// balance only when Payed, and towards LoanID's paid value always.
type Expense struct {
	ID          string
	OwnerID     string
	Description string
	Value       decimal.Decimal
	Date        time.Time
	Payed       bool
	AccountID   *string
	LoanID      *string
	TransferID  *string
}

// Revenue is a source-of-truth inflow. It counts towards AccountID's
// balance only when Received.
type Revenue struct {
	ID          string
	OwnerID     string
	Description string
	Value       decimal.Decimal
	Date        time.Time
	Received    bool
	AccountID   *string
	LoanID      *string
	TransferID  *string
}

// Deref returns *p or "" for nil.
func Deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// Ref returns a pointer to s, or nil for "".
func Ref(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
