package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankdesk/models"
	"bankdesk/store"
)

const (
	srcNumber = "4081781011111111"
	dstNumber = "4081781022222222"
)

var accountCols = []string{"account_number", "user_id", "account_type", "currency", "balance", "overdraft_limit", "created_at"}

func accountRow(number, balance string) *sqlmock.Rows {
	return sqlmock.NewRows(accountCols).
		AddRow(number, int64(1), "Checking", "RUB", balance, "0", "2024-03-01 10:00:00.000000")
}

func newMockLedger(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewService(store.New(db, store.SQLite)), mock
}

func expectPosting(mock sqlmock.Sqlmock, number, balanceBefore, balanceAfter string) {
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT account_number, user_id").WithArgs(number).
		WillReturnRows(accountRow(number, balanceBefore))
	mock.ExpectExec("UPDATE accounts SET balance").WithArgs(balanceAfter, number).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO transactions").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectCommit()
}

func expectTransferPreconditions(mock sqlmock.Sqlmock) {
	mock.ExpectQuery("SELECT account_number, user_id").WithArgs(srcNumber).
		WillReturnRows(accountRow(srcNumber, "1000"))
	mock.ExpectQuery("SELECT account_number, user_id").WithArgs(dstNumber).
		WillReturnRows(accountRow(dstNumber, "0"))
}

func TestTransferCompensatesFailedCredit(t *testing.T) {
	svc, mock := newMockLedger(t)
	creditErr := errors.New("database is locked")

	expectTransferPreconditions(mock)
	expectPosting(mock, srcNumber, "1000", "600")

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT account_number, user_id").WithArgs(dstNumber).
		WillReturnError(creditErr)
	mock.ExpectRollback()

	expectPosting(mock, srcNumber, "600", "1000")

	err := svc.Transfer(context.Background(), srcNumber, dstNumber, dec("400"), "")

	assert.ErrorIs(t, err, models.ErrTransferFailed)
	assert.ErrorIs(t, err, creditErr)
	assert.NotErrorIs(t, err, models.ErrCompensationFailed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransferReportsFailedCompensation(t *testing.T) {
	svc, mock := newMockLedger(t)
	creditErr := errors.New("database is locked")
	compErr := errors.New("disk I/O error")

	expectTransferPreconditions(mock)
	expectPosting(mock, srcNumber, "1000", "600")

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT account_number, user_id").WithArgs(dstNumber).
		WillReturnError(creditErr)
	mock.ExpectRollback()

	mock.ExpectBegin().WillReturnError(compErr)

	err := svc.Transfer(context.Background(), srcNumber, dstNumber, dec("400"), "")

	require.ErrorIs(t, err, models.ErrCompensationFailed)
	var cfe *models.CompensationFailedError
	require.ErrorAs(t, err, &cfe)
	assert.Equal(t, srcNumber, cfe.Account)
	assert.True(t, cfe.Amount.Equal(dec("400")))
	assert.ErrorIs(t, err, creditErr)
	assert.ErrorIs(t, err, compErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransferDebitFailureLeavesDestinationAlone(t *testing.T) {
	svc, mock := newMockLedger(t)

	expectTransferPreconditions(mock)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT account_number, user_id").WithArgs(srcNumber).
		WillReturnRows(accountRow(srcNumber, "1000"))
	mock.ExpectExec("UPDATE accounts SET balance").
		WillReturnError(errors.New("database is locked"))
	mock.ExpectRollback()

	err := svc.Transfer(context.Background(), srcNumber, dstNumber, dec("400"), "")

	assert.ErrorIs(t, err, models.ErrStorage)
	assert.NotErrorIs(t, err, models.ErrTransferFailed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDepositRollsBackWhenLogAppendFails(t *testing.T) {
	svc, mock := newMockLedger(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT account_number, user_id").WithArgs(srcNumber).
		WillReturnRows(accountRow(srcNumber, "100"))
	mock.ExpectExec("UPDATE accounts SET balance").WithArgs("150", srcNumber).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO transactions").
		WillReturnError(errors.New("no such table: transactions"))
	mock.ExpectRollback()

	err := svc.Deposit(context.Background(), srcNumber, dec("50"), "")

	var se *models.StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "deposit", se.Op)
	assert.NoError(t, mock.ExpectationsWereMet())
}
