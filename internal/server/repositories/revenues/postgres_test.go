package revenues

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
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

func TestSumReceivedByAccount_OnlyReceived(t *testing.T) {
	r, mock := newRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(SUM(value), 0) FROM revenues WHERE account_id = $1 AND received`)).
		WithArgs("a1").
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow("250.00"))

	sum, err := r.SumReceivedByAccount(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, "250", sum.String())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByTransfer_NotFound(t *testing.T) {
	r, mock := newRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(selectColumns + ` WHERE transfer_id = $1`)).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := r.GetByTransfer(context.Background(), "t1")
	assert.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteByTransfer(t *testing.T) {
	r, mock := newRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM revenues WHERE transfer_id = $1`)).
		WithArgs("t1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := r.DeleteByTransfer(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	require.NoError(t, mock.ExpectationsWereMet())
}
