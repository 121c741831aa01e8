package loans

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/ledgerkeeper/internal/common"
	"github.com/dmitrijs2005/ledgerkeeper/internal/server/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

var columns = []string{"id", "owner_id", "title", "account_id", "total_value", "paid_value", "due_date", "status"}

func TestLockByID_Nullables(t *testing.T) {
	r, mock := newRepo(t)
	due := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(selectColumns + ` WHERE id = $1 FOR NO KEY UPDATE`)).
		WithArgs("l1").
		WillReturnRows(sqlmock.NewRows(columns).AddRow("l1", "u1", "car", nil, "1000", "250.5", due, "overdue"))

	l, err := r.LockByID(context.Background(), "l1")
	require.NoError(t, err)
	assert.Nil(t, l.AccountID)
	require.NotNil(t, l.DueDate)
	assert.True(t, due.Equal(*l.DueDate))
	assert.Equal(t, models.LoanOverdue, l.Status)
	assert.True(t, decimal.RequireFromString("749.5").Equal(l.Remaining()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID_WithAccount(t *testing.T) {
	r, mock := newRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(selectColumns + ` WHERE id = $1`)).
		WithArgs("l1").
		WillReturnRows(sqlmock.NewRows(columns).AddRow("l1", "u1", "tv", "a1", "10", "0", nil, "active"))

	l, err := r.GetByID(context.Background(), "l1")
	require.NoError(t, err)
	assert.Equal(t, "a1", models.Deref(l.AccountID))
	assert.Nil(t, l.DueDate)
}

func TestGetByID_NotFound(t *testing.T) {
	r, mock := newRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta(selectColumns)).WillReturnRows(sqlmock.NewRows(columns))

	_, err := r.GetByID(context.Background(), "x")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestCreate(t *testing.T) {
	r, mock := newRepo(t)
	l := &models.Loan{ID: "l1", OwnerID: "u1", Title: "tv", TotalValue: decimal.NewFromInt(10), Status: models.LoanActive}

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO loans`)).
		WithArgs("l1", "u1", "tv", nil, "10", "0", nil, "active").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, r.Create(context.Background(), l))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateState(t *testing.T) {
	r, mock := newRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE loans SET paid_value = $2, status = $3 WHERE id = $1`)).
		WithArgs("l1", "10", "paid").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, r.UpdateState(context.Background(), "l1", decimal.NewFromInt(10), models.LoanPaid))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID_UnknownStatus(t *testing.T) {
	r, mock := newRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta(selectColumns)).
		WillReturnRows(sqlmock.NewRows(columns).AddRow("l1", "u1", "tv", nil, "10", "0", nil, "frozen"))

	_, err := r.GetByID(context.Background(), "l1")
	assert.ErrorContains(t, err, `unknown status "frozen"`)
	require.NoError(t, mock.ExpectationsWereMet())
}
