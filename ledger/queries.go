package ledger

const (
	selectUserExistsQuery = `SELECT id FROM users WHERE id = ?`

	selectAccountNumberQuery = `SELECT account_number FROM accounts WHERE account_number = ?`

	insertAccountQuery = `INSERT INTO accounts (
		account_number, user_id, account_type, currency,
		balance, overdraft_limit, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?)`

	accountColumns = `account_number, user_id, account_type, currency, balance, overdraft_limit, created_at`

	selectAccountQuery = `SELECT ` + accountColumns + ` FROM accounts WHERE account_number = ?`

	selectAccountsQuery = `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = ?
		ORDER BY created_at, account_number`

	updateBalanceQuery = `UPDATE accounts SET balance = ? WHERE account_number = ?`

	insertTransactionQuery = `INSERT INTO transactions (
		account_number, transaction_type, amount, description, reference, timestamp
	) VALUES (?, ?, ?, ?, ?, ?) RETURNING id`

	selectTransactionsQuery = `SELECT id, account_number, transaction_type, amount, description, reference, timestamp
		FROM transactions WHERE account_number = ?
		ORDER BY timestamp DESC, id DESC
		LIMIT ?`

	selectOwnerQuery = `SELECT u.first_name, u.last_name, u.username
		FROM accounts a
		JOIN users u ON a.user_id = u.id
		WHERE a.account_number = ?`
)
