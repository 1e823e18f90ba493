package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType is the closed set of account kinds a customer can open.
type AccountType string

const (
	Checking AccountType = "Checking"
	Savings  AccountType = "Savings"
	Deposit  AccountType = "Deposit"
)

// Valid reports whether t is one of the known account types.
func (t AccountType) Valid() bool {
	switch t {
	case Checking, Savings, Deposit:
		return true
	}
	return false
}

// TransactionType marks the direction of a ledger row. Transfers are
// recorded as a WITHDRAWAL on the source and a DEPOSIT on the destination.
type TransactionType string

const (
	TypeDeposit    TransactionType = "DEPOSIT"
	TypeWithdrawal TransactionType = "WITHDRAWAL"
)

// Profile is the full customer record as registered.
type Profile struct {
	ID          int64  `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	DateOfBirth string `json:"date_of_birth"`
	Street      string `json:"street"`
	City        string `json:"city"`
	ZipCode     string `json:"zip_code"`
	Country     string `json:"country"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	Username    string `json:"username"`
}

// UserSummary is what a successful authentication yields.
type UserSummary struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
}

// Session identifies the authenticated customer for one presentation call.
// It is created by the presentation layer and passed explicitly; the core
// services never hold one.
type Session struct {
	User UserSummary
}

// Owns reports whether the session's user owns the account.
func (s Session) Owns(acc *Account) bool {
	return acc != nil && acc.UserID == s.User.ID
}

// Account struct
type Account struct {
	Number         string          `json:"account_number"`
	UserID         int64           `json:"user_id"`
	Type           AccountType     `json:"account_type"`
	Currency       string          `json:"currency"`
	Balance        decimal.Decimal `json:"balance"`
	OverdraftLimit decimal.Decimal `json:"overdraft_limit"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Available is the most that can be withdrawn: balance plus overdraft.
func (a *Account) Available() decimal.Decimal {
	return a.Balance.Add(a.OverdraftLimit)
}

// Transaction is one append-only ledger row.
type Transaction struct {
	ID            int64           `json:"id"`
	AccountNumber string          `json:"account_number"`
	Type          TransactionType `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description"`
	Reference     string          `json:"reference,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
}

// Signed returns the amount with the sign of its effect on the balance.
func (t Transaction) Signed() decimal.Decimal {
	if t.Type == TypeWithdrawal {
		return t.Amount.Neg()
	}
	return t.Amount
}

// Owner is the display identity of an account holder.
type Owner struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
}
