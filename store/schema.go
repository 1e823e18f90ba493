package store

import "context"

// Decimal columns are TEXT on SQLite so balances never pass through REAL.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		date_of_birth TEXT NOT NULL,
		street TEXT NOT NULL,
		city TEXT NOT NULL,
		zip_code TEXT NOT NULL,
		country TEXT NOT NULL,
		phone_number TEXT NOT NULL,
		email TEXT NOT NULL,
		username TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS accounts (
		account_number TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL REFERENCES users(id),
		account_type TEXT NOT NULL,
		currency TEXT NOT NULL,
		balance TEXT NOT NULL DEFAULT '0',
		overdraft_limit TEXT NOT NULL DEFAULT '0',
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		account_number TEXT NOT NULL REFERENCES accounts(account_number),
		transaction_type TEXT NOT NULL,
		amount TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		reference TEXT NOT NULL DEFAULT '',
		timestamp TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_accounts_user ON accounts(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_account ON transactions(account_number, timestamp)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		date_of_birth TEXT NOT NULL,
		street TEXT NOT NULL,
		city TEXT NOT NULL,
		zip_code TEXT NOT NULL,
		country TEXT NOT NULL,
		phone_number TEXT NOT NULL,
		email TEXT NOT NULL,
		username TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS accounts (
		account_number TEXT PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id),
		account_type TEXT NOT NULL,
		currency TEXT NOT NULL,
		balance NUMERIC(20, 2) NOT NULL DEFAULT 0,
		overdraft_limit NUMERIC(20, 2) NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id BIGSERIAL PRIMARY KEY,
		account_number TEXT NOT NULL REFERENCES accounts(account_number),
		transaction_type TEXT NOT NULL,
		amount NUMERIC(20, 2) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		reference TEXT NOT NULL DEFAULT '',
		timestamp TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_accounts_user ON accounts(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_account ON transactions(account_number, timestamp)`,
}

// Init creates the users, accounts and transactions tables if they do not
// exist yet. It is safe to call on every startup.
func (s *Store) Init(ctx context.Context) error {
	for _, stmt := range s.dialect.schema {
		if _, err := s.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
