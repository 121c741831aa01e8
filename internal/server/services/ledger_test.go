package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/ledgerkeeper/internal/common"
	"github.com/dmitrijs2005/ledgerkeeper/internal/logging"
	"github.com/dmitrijs2005/ledgerkeeper/internal/server/models"
	"github.com/dmitrijs2005/ledgerkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/ledgerkeeper/internal/server/transfers"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- helpers ---

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

type ledgerFixture struct {
	svc  *LedgerService
	rm   *repomanager.InMemoryRepositoryManager
	mock sqlmock.Sqlmock
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	db, mock := newSQLMockDB(t)
	rm := repomanager.NewInMemoryRepositoryManager()
	svc := NewLedgerService(db, rm, logging.Discard())
	n := 0
	svc.newID = func() string { n++; return fmt.Sprintf("id-%d", n) }
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }

	for _, id := range []string{"A", "B"} {
		require.NoError(t, rm.Repos.Accounts.Create(context.Background(), &models.Account{ID: id, OwnerID: "u1", Name: id}))
	}
	return &ledgerFixture{svc: svc, rm: rm, mock: mock}
}

func (f *ledgerFixture) commit() {
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
}

func (f *ledgerFixture) rollback() {
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()
}

func (f *ledgerFixture) balance(t *testing.T, id string) decimal.Decimal {
	t.Helper()
	a, err := f.svc.GetAccount(context.Background(), id)
	require.NoError(t, err)
	return a.CurrentBalance
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, d(want).Equal(got), "want %s, got %s", want, got)
}

// --- expenses and revenues ---

func TestLedger_ExpenseLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)

	f.commit()
	_, err := f.svc.CreateRevenue(ctx, &models.Revenue{OwnerID: "u1", Value: d("500"), Received: true, AccountID: models.Ref("A")})
	require.NoError(t, err)

	f.commit()
	e, err := f.svc.CreateExpense(ctx, &models.Expense{OwnerID: "u1", Value: d("120"), Payed: true, AccountID: models.Ref("A")})
	require.NoError(t, err)
	assert.Equal(t, "id-2", e.ID)
	assertDecimal(t, "380", f.balance(t, "A"))

	// move the expense to B: A gets its money back, B goes negative
	f.commit()
	e.AccountID = models.Ref("B")
	_, err = f.svc.UpdateExpense(ctx, e)
	require.NoError(t, err)
	assertDecimal(t, "500", f.balance(t, "A"))
	assertDecimal(t, "-120", f.balance(t, "B"))

	f.commit()
	e.Payed = false
	_, err = f.svc.UpdateExpense(ctx, e)
	require.NoError(t, err)
	assertDecimal(t, "0", f.balance(t, "B"))

	f.commit()
	require.NoError(t, f.svc.DeleteExpense(ctx, e.ID))
	assertDecimal(t, "0", f.balance(t, "B"))

	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestLedger_RevenueLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)

	f.commit()
	r, err := f.svc.CreateRevenue(ctx, &models.Revenue{OwnerID: "u1", Value: d("75.25"), Received: false, AccountID: models.Ref("A")})
	require.NoError(t, err)
	assertDecimal(t, "0", f.balance(t, "A"))

	f.commit()
	r.Received = true
	_, err = f.svc.UpdateRevenue(ctx, r)
	require.NoError(t, err)
	assertDecimal(t, "75.25", f.balance(t, "A"))

	f.commit()
	require.NoError(t, f.svc.DeleteRevenue(ctx, r.ID))
	assertDecimal(t, "0", f.balance(t, "A"))

	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestLedger_RejectsNegativeValue(t *testing.T) {
	f := newLedgerFixture(t)

	_, err := f.svc.CreateExpense(context.Background(), &models.Expense{Value: d("-1")})
	assert.ErrorIs(t, err, common.ErrorValidation)
	_, err = f.svc.CreateRevenue(context.Background(), &models.Revenue{Value: d("-1")})
	assert.ErrorIs(t, err, common.ErrorValidation)
	require.NoError(t, f.mock.ExpectationsWereMet(), "no transaction for invalid input")
}

func TestLedger_UpdateMissingExpenseRollsBack(t *testing.T) {
	f := newLedgerFixture(t)
	f.rollback()

	_, err := f.svc.UpdateExpense(context.Background(), &models.Expense{ID: "nope", Value: d("1")})
	assert.ErrorIs(t, err, common.ErrorNotFound)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestLedger_ReconcileFailureRollsBack(t *testing.T) {
	f := newLedgerFixture(t)
	boom := errors.New("lock timeout")
	f.rm.Repos.Store.FailOn("accounts.UpdateBalance", boom)
	f.rollback()

	_, err := f.svc.CreateRevenue(context.Background(), &models.Revenue{OwnerID: "u1", Value: d("5"), Received: true, AccountID: models.Ref("A")})
	assert.ErrorIs(t, err, boom)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestLedger_CreateExpenseAtomicWithPostgres(t *testing.T) {
	db, mock := newSQLMockDB(t)
	svc := NewLedgerService(db, repomanager.NewPostgresRepositoryManager(), logging.Discard())

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO expenses`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM accounts WHERE id = $1 FOR NO KEY UPDATE`)).
		WithArgs("A").
		WillReturnError(errors.New("canceling statement due to lock timeout"))
	mock.ExpectRollback()

	_, err := svc.CreateExpense(context.Background(), &models.Expense{OwnerID: "u1", Value: d("1"), Payed: true, AccountID: models.Ref("A")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lock timeout")
	require.NoError(t, mock.ExpectationsWereMet())
}

// --- transfers ---

func TestLedger_TransferRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)

	f.commit()
	_, err := f.svc.CreateRevenue(ctx, &models.Revenue{OwnerID: "u1", Value: d("1000"), Received: true, AccountID: models.Ref("A")})
	require.NoError(t, err)

	f.commit()
	tr, err := f.svc.CreateTransfer(ctx, &models.Transfer{OwnerID: "u1", OriginID: "A", DestinationID: "B", Value: d("300"), Fee: d("2.5")})
	require.NoError(t, err)
	assert.False(t, tr.Confirmed)
	assertDecimal(t, "1000", f.balance(t, "A"))

	f.commit()
	f.commit()
	for i := 0; i < 2; i++ {
		_, err = f.svc.ConfirmTransfer(ctx, tr.ID)
		require.NoError(t, err)
	}
	assertDecimal(t, "697.5", f.balance(t, "A"))
	assertDecimal(t, "300", f.balance(t, "B"))
	assert.Equal(t, 1, f.rm.Repos.Expenses.Count())

	// generated rows are not editable directly
	gen, err := f.rm.Repos.Expenses.GetByTransfer(ctx, tr.ID)
	require.NoError(t, err)
	f.rollback()
	assert.ErrorIs(t, f.svc.DeleteExpense(ctx, gen.ID), ErrGeneratedRow)

	f.commit()
	require.NoError(t, f.svc.DeleteTransfer(ctx, tr.ID))
	assertDecimal(t, "1000", f.balance(t, "A"))
	assertDecimal(t, "0", f.balance(t, "B"))

	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestLedger_CreateConfirmedTransfer(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)

	f.commit()
	tr, err := f.svc.CreateTransfer(ctx, &models.Transfer{OwnerID: "u1", OriginID: "A", DestinationID: "B", Value: d("10"), Confirmed: true})
	require.NoError(t, err)
	assert.True(t, tr.Confirmed)
	assertDecimal(t, "-10", f.balance(t, "A"))
	assertDecimal(t, "10", f.balance(t, "B"))
}

func TestLedger_CreateTransferValidation(t *testing.T) {
	f := newLedgerFixture(t)
	_, err := f.svc.CreateTransfer(context.Background(), &models.Transfer{OriginID: "A", DestinationID: "A", Value: d("1")})
	assert.ErrorIs(t, err, transfers.ErrSameAccount)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

// --- loans ---

func TestLedger_LoanPayments(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)
	due := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	f.commit()
	loan, err := f.svc.CreateLoan(ctx, &models.Loan{OwnerID: "u1", Title: "car", TotalValue: d("1000"), DueDate: &due})
	require.NoError(t, err)
	assert.Equal(t, models.LoanOverdue, loan.Status, "due date already passed")

	f.commit()
	p, err := f.svc.PayLoan(ctx, PayLoanRequest{LoanID: loan.ID, AccountID: "A", Value: d("400")})
	require.NoError(t, err)
	assert.Equal(t, "Payment: car", p.Description)
	assertDecimal(t, "-400", f.balance(t, "A"))

	f.commit()
	_, err = f.svc.PayLoan(ctx, PayLoanRequest{LoanID: loan.ID, Value: d("600")})
	require.NoError(t, err)

	got, err := f.svc.GetLoan(ctx, loan.ID)
	require.NoError(t, err)
	assertDecimal(t, "1000", got.PaidValue)
	assert.Equal(t, models.LoanPaid, got.Status)

	// removing a payment reopens the loan
	f.commit()
	require.NoError(t, f.svc.DeleteExpense(ctx, p.ID))
	got, err = f.svc.GetLoan(ctx, loan.ID)
	require.NoError(t, err)
	assertDecimal(t, "600", got.PaidValue)
	assert.Equal(t, models.LoanOverdue, got.Status)
	assertDecimal(t, "0", f.balance(t, "A"))

	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestLedger_CancelLoan(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)

	f.commit()
	loan, err := f.svc.CreateLoan(ctx, &models.Loan{OwnerID: "u1", Title: "tv", TotalValue: d("100")})
	require.NoError(t, err)
	assert.Equal(t, models.LoanActive, loan.Status)

	f.commit()
	require.NoError(t, f.svc.CancelLoan(ctx, loan.ID))
	got, err := f.svc.GetLoan(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LoanCancelled, got.Status)

	f.rollback()
	_, err = f.svc.PayLoan(ctx, PayLoanRequest{LoanID: loan.ID, Value: d("1")})
	assert.ErrorIs(t, err, ErrLoanCancelled)

	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestLedger_CreateLoanValidation(t *testing.T) {
	f := newLedgerFixture(t)
	_, err := f.svc.CreateLoan(context.Background(), &models.Loan{TotalValue: decimal.Zero})
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = f.svc.PayLoan(context.Background(), PayLoanRequest{LoanID: "x", Value: decimal.Zero})
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestLedger_UpdateExpenseReturnsStoredRow(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)

	f.commit()
	e, err := f.svc.CreateExpense(ctx, &models.Expense{OwnerID: "u1", Value: d("10"), Payed: true, AccountID: models.Ref("A")})
	require.NoError(t, err)

	f.commit()
	got, err := f.svc.UpdateExpense(ctx, &models.Expense{ID: e.ID, Value: d("12"), Payed: true, AccountID: models.Ref("A"), TransferID: models.Ref("t-x")})
	require.NoError(t, err)
	assert.Nil(t, got.TransferID, "transfer_id is not writable through UpdateExpense")
	assert.Equal(t, "u1", got.OwnerID)
	assertDecimal(t, "12", got.Value)
	assertDecimal(t, "-12", f.balance(t, "A"))

	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestLedger_UpdateRevenueReturnsStoredRow(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)

	f.commit()
	r, err := f.svc.CreateRevenue(ctx, &models.Revenue{OwnerID: "u1", Value: d("10"), Received: true, AccountID: models.Ref("B")})
	require.NoError(t, err)

	f.commit()
	got, err := f.svc.UpdateRevenue(ctx, &models.Revenue{ID: r.ID, Value: d("3"), Received: true, AccountID: models.Ref("B"), TransferID: models.Ref("t-x")})
	require.NoError(t, err)
	assert.Nil(t, got.TransferID)
	assert.Equal(t, "u1", got.OwnerID)
	assertDecimal(t, "3", f.balance(t, "B"))

	require.NoError(t, f.mock.ExpectationsWereMet())
}

// Source rows are written before the owner lock, so their foreign keys
// already hold KEY SHARE on the owner. The owner locks must be
// FOR NO KEY UPDATE, and the loan is read without any lock.
func TestLedger_PayLoanLockModesWithPostgres(t *testing.T) {
	db, mock := newSQLMockDB(t)
	svc := NewLedgerService(db, repomanager.NewPostgresRepositoryManager(), logging.Discard())
	svc.newID = func() string { return "p1" }

	loanCols := []string{"id", "owner_id", "title", "account_id", "total_value", "paid_value", "due_date", "status"}
	loanRow := func() *sqlmock.Rows {
		return sqlmock.NewRows(loanCols).AddRow("l1", "u1", "car", nil, "1000", "0", nil, "active")
	}
	sum := func(v string) *sqlmock.Rows { return sqlmock.NewRows([]string{"sum"}).AddRow(v) }

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM loans WHERE id = \$1$`).WithArgs("l1").WillReturnRows(loanRow())
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO expenses`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`FROM accounts WHERE id = \$1 FOR NO KEY UPDATE$`).WithArgs("A").
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "name", "number", "current_balance"}).
			AddRow("A", "u1", "main", nil, "0"))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM revenues WHERE account_id = $1 AND received`)).WithArgs("A").WillReturnRows(sum("0"))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM expenses WHERE account_id = $1 AND payed`)).WithArgs("A").WillReturnRows(sum("400"))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE accounts SET current_balance = $2 WHERE id = $1`)).
		WithArgs("A", "-400").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`FROM loans WHERE id = \$1 FOR NO KEY UPDATE$`).WithArgs("l1").WillReturnRows(loanRow())
	mock.ExpectQuery(regexp.QuoteMeta(`FROM expenses WHERE loan_id = $1`)).WithArgs("l1").WillReturnRows(sum("400"))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM revenues WHERE loan_id = $1`)).WithArgs("l1").WillReturnRows(sum("0"))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE loans SET paid_value = $2, status = $3 WHERE id = $1`)).
		WithArgs("l1", "400", "active").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	p, err := svc.PayLoan(context.Background(), PayLoanRequest{LoanID: "l1", AccountID: "A", Value: d("400")})
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
