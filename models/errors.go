package models

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrAccountNotFound     = errors.New("account not found")
	ErrSourceNotFound      = errors.New("source account not found")
	ErrDestinationNotFound = errors.New("destination account not found")
	ErrCurrencyMismatch    = errors.New("accounts have different currencies")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrUsernameTaken       = errors.New("username already taken")
	ErrTransferFailed      = errors.New("transfer failed")
	ErrCompensationFailed  = errors.New("transfer compensation failed")
	ErrStorage             = errors.New("storage failure")
	ErrPasswordHash        = errors.New("password hashing failed")

	ErrInvalidAccountType       = errors.New("unknown account type")
	ErrInvalidCurrency          = errors.New("currency is required")
	ErrUserNotFound             = errors.New("user not found")
	ErrAccountNumberUnavailable = errors.New("could not allocate a unique account number")
)

// InsufficientFundsError carries what the account could have paid out.
type InsufficientFundsError struct {
	Account   string
	Currency  string
	Available decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds on %s: available %s %s", e.Account, e.Available.StringFixed(2), e.Currency)
}

func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}

// CompensationFailedError means a transfer debited the source, could not
// credit the destination, and then could not put the money back either.
// Amount is stranded outside Account until an operator intervenes.
type CompensationFailedError struct {
	Account string
	Amount  decimal.Decimal
	Cause   error
}

func (e *CompensationFailedError) Error() string {
	return fmt.Sprintf("transfer compensation failed: %s stranded from account %s: %v", e.Amount.StringFixed(2), e.Account, e.Cause)
}

func (e *CompensationFailedError) Is(target error) bool {
	return target == ErrCompensationFailed
}

func (e *CompensationFailedError) Unwrap() error {
	return e.Cause
}

// StorageError wraps a failure of the record store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// HashError wraps a failure to hash a password.
type HashError struct {
	Err error
}

func (e *HashError) Error() string {
	return fmt.Sprintf("password hashing failed: %v", e.Err)
}

func (e *HashError) Is(target error) bool {
	return target == ErrPasswordHash
}

func (e *HashError) Unwrap() error {
	return e.Err
}

// ValidationError represents a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}
