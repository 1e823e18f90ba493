package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), Config{Driver: "sqlite", URL: filepath.Join(t.TempDir(), "bank.db")})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Init(context.Background()))
	return s
}

func insertUser(t *testing.T, s *Store, username string) int64 {
	t.Helper()
	row, err := s.QueryOne(context.Background(), `INSERT INTO users (first_name, last_name, date_of_birth, street, city,
		zip_code, country, phone_number, email, username, password_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		"Ivan", "Ivanov", "15.05.1990", "Lenina 10", "Moscow", "101000", "Russia", "+79161234567",
		"ivanov@example.com", username, "x")
	require.NoError(t, err)
	require.NotNil(t, row)
	return row.Int64("id")
}

func TestInitIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)
	id := insertUser(t, s, "ivanov")

	require.NoError(t, s.Init(ctx))

	row, err := s.QueryOne(ctx, "SELECT username FROM users WHERE id = ?", id)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, "ivanov", row.String("username"))
}

func TestQueryOneAbsent(t *testing.T) {
	s := openTemp(t)
	row, err := s.QueryOne(context.Background(), "SELECT id FROM users WHERE username = ?", "nobody")
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestQueryAllAddressableByColumn(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)
	id := insertUser(t, s, "ivanov")

	_, err := s.Exec(ctx, `INSERT INTO accounts (account_number, user_id, account_type, currency, balance, overdraft_limit, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, "4081781011111111", id, "Checking", "RUB", decimal.NewFromFloat(12.5), decimal.Zero, "2025-01-02 03:04:05.000000")
	require.NoError(t, err)

	rows, err := s.QueryAll(ctx, `SELECT a.account_number, a.balance, a.created_at, u.username
		FROM accounts a JOIN users u ON a.user_id = u.id WHERE u.id = ?`, id)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	bal, err := rows[0].Decimal("balance")
	require.NoError(t, err)
	assert.True(t, bal.Equal(decimal.RequireFromString("12.5")))
	assert.Equal(t, "4081781011111111", rows[0].String("account_number"))
	assert.Equal(t, "ivanov", rows[0].String("username"))
	assert.Equal(t, 2025, rows[0].Time("created_at").Year())
}

func TestDuplicateKeyIsReported(t *testing.T) {
	s := openTemp(t)
	insertUser(t, s, "ivanov")

	_, err := s.QueryOne(context.Background(), `INSERT INTO users (first_name, last_name, date_of_birth, street, city,
		zip_code, country, phone_number, email, username, password_hash)
		VALUES ('a', 'b', 'c', 'd', 'e', 'f', 'g', 'h', 'i', 'ivanov', 'x') RETURNING id`)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateKey)

	var qe *QueryError
	assert.True(t, errors.As(err, &qe))
}

func TestInTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)
	boom := errors.New("boom")

	err := s.InTx(ctx, func(q Querier) error {
		if _, err := q.Exec(ctx, `INSERT INTO users (first_name, last_name, date_of_birth, street, city,
			zip_code, country, phone_number, email, username, password_hash)
			VALUES ('a', 'b', 'c', 'd', 'e', 'f', 'g', 'h', 'i', 'ghost', 'x')`); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	row, err := s.QueryOne(ctx, "SELECT id FROM users WHERE username = ?", "ghost")
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestQueryErrorWrapsDriverFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT balance FROM accounts").WillReturnError(errors.New("disk I/O error"))

	s := New(db, SQLite)
	_, err = s.QueryOne(context.Background(), "SELECT balance FROM accounts WHERE account_number = ?", "1")

	var qe *QueryError
	require.True(t, errors.As(err, &qe))
	assert.Contains(t, qe.Query, "SELECT balance")
	assert.NotErrorIs(t, err, ErrDuplicateKey)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInTxCommitFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE accounts").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit().WillReturnError(errors.New("database is locked"))

	s := New(db, SQLite)
	err = s.InTx(context.Background(), func(q Querier) error {
		_, err := q.Exec(context.Background(), "UPDATE accounts SET balance = ? WHERE account_number = ?", "1", "2")
		return err
	})

	var qe *QueryError
	require.True(t, errors.As(err, &qe))
	assert.Equal(t, "COMMIT", qe.Query)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRebind(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		in      string
		want    string
	}{
		{"sqlite untouched", SQLite, "SELECT * FROM t WHERE a = ? AND b = ?", "SELECT * FROM t WHERE a = ? AND b = ?"},
		{"postgres numbered", Postgres, "SELECT * FROM t WHERE a = ? AND b = ?", "SELECT * FROM t WHERE a = $1 AND b = $2"},
		{"quoted marks kept", Postgres, "SELECT '?' FROM t WHERE a = ?", "SELECT '?' FROM t WHERE a = $1"},
		{"no placeholders", Postgres, "SELECT 1", "SELECT 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.dialect.Rebind(tt.in))
		})
	}
}

func TestDialectFor(t *testing.T) {
	d, err := DialectFor("postgresql")
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name)

	d, err = DialectFor("")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", d.Name)

	_, err = DialectFor("oracle")
	assert.ErrorIs(t, err, ErrUnknownDriver)
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "file:bank.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", sqliteDSN(""))
	assert.Equal(t, "file:x.db?mode=rwc&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", sqliteDSN("file:x.db?mode=rwc"))
	assert.Equal(t, "file:y.db?_pragma=journal_mode(wal)", sqliteDSN("file:y.db?_pragma=journal_mode(wal)"))
}
