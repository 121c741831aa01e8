package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRefDeref(t *testing.T) {
	assert.Nil(t, Ref(""))
	assert.Equal(t, "", Deref(nil))
	assert.Equal(t, "a1", Deref(Ref("a1")))
}

func TestTransfer_OriginAmount(t *testing.T) {
	tr := &Transfer{Value: decimal.RequireFromString("100.00"), Fee: decimal.RequireFromString("2.50")}
	assert.True(t, decimal.RequireFromString("102.50").Equal(tr.OriginAmount()))
}

func TestLoan_Remaining(t *testing.T) {
	l := &Loan{TotalValue: decimal.NewFromInt(100), PaidValue: decimal.NewFromInt(40)}
	assert.True(t, decimal.NewFromInt(60).Equal(l.Remaining()))

	l.PaidValue = decimal.NewFromInt(130)
	assert.True(t, l.Remaining().IsZero())
}

func TestLoanStatus_Valid(t *testing.T) {
	for _, s := range []LoanStatus{LoanActive, LoanPaid, LoanOverdue, LoanCancelled} {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, LoanStatus("frozen").Valid())
}
