// Package ledger owns accounts and the balance-changing operations on them.
//
// Every mutation runs under one service-wide mutex and inside a database
// transaction, so a balance and the ledger row that explains it are always
// written together. Transfers are the exception by construction: the debit
// and the credit are two separate units of work, joined by a shared
// reference and a compensating credit when the second leg fails.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"bankdesk/events"
	"bankdesk/models"
	"bankdesk/store"
)

const (
	// AccountPrefix is the fixed institutional part of every account number.
	AccountPrefix = "40817810"

	// DefaultHistoryLimit applies when GetTransactions is asked for limit <= 0.
	DefaultHistoryLimit = 10

	maxNumberAttempts = 10

	// minorUnits is how many decimal places the ledger columns keep.
	minorUnits = 2
)

// Service implements the ledger operations on top of the record store.
type Service struct {
	store     *store.Store
	log       *slog.Logger
	publisher events.Publisher
	newNumber func() string
	now       func() time.Time

	mu sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger; slog.Default() is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithPublisher mirrors every committed ledger row to p.
func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithNumberGenerator replaces GenerateAccountNumber for account creation.
func WithNumberGenerator(gen func() string) Option {
	return func(s *Service) { s.newNumber = gen }
}

// WithClock replaces time.Now for row timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService builds a ledger service on top of the record store.
func NewService(st *store.Store, opts ...Option) *Service {
	s := &Service{
		store:     st,
		log:       slog.Default(),
		publisher: events.Discard{},
		newNumber: GenerateAccountNumber,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.publisher == nil {
		s.publisher = events.Discard{}
	}
	return s
}

// GenerateAccountNumber returns AccountPrefix followed by eight random
// digits. Uniqueness is checked by CreateAccount, not here.
func GenerateAccountNumber() string {
	return fmt.Sprintf("%s%d", AccountPrefix, 10000000+rand.IntN(90000000))
}

// CreateAccount opens a zero-balance account for userID and returns its
// number.
func (s *Service) CreateAccount(ctx context.Context, userID int64, typ models.AccountType, currency string, overdraft decimal.Decimal) (string, error) {
	if !typ.Valid() {
		return "", fmt.Errorf("%w: %q", models.ErrInvalidAccountType, typ)
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		return "", models.ErrInvalidCurrency
	}
	if overdraft.IsNegative() {
		return "", fmt.Errorf("%w: overdraft limit cannot be negative", models.ErrInvalidAmount)
	}
	if !wholeMinorUnits(overdraft) {
		return "", fmt.Errorf("%w: overdraft limit has more than %d decimal places", models.ErrInvalidAmount, minorUnits)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	owner, err := s.store.QueryOne(ctx, selectUserExistsQuery, userID)
	if err != nil {
		return "", &models.StorageError{Op: "create account", Err: err}
	}
	if owner == nil {
		return "", models.ErrUserNotFound
	}

	createdAt := s.timestamp()
	for attempt := 1; attempt <= maxNumberAttempts; attempt++ {
		number := s.newNumber()

		taken, err := s.store.QueryOne(ctx, selectAccountNumberQuery, number)
		if err != nil {
			return "", &models.StorageError{Op: "create account", Err: err}
		}
		if taken != nil {
			s.log.Debug("account number collision", "account", number, "attempt", attempt)
			continue
		}

		_, err = s.store.Exec(ctx, insertAccountQuery,
			number, userID, string(typ), currency,
			decimal.Zero.String(), overdraft.String(), createdAt)
		if errors.Is(err, store.ErrDuplicateKey) {
			s.log.Debug("account number collision on insert", "account", number, "attempt", attempt)
			continue
		}
		if err != nil {
			return "", &models.StorageError{Op: "create account", Err: err}
		}

		s.log.Info("account created", "account", number, "user_id", userID, "type", typ, "currency", currency)
		return number, nil
	}
	return "", models.ErrAccountNumberUnavailable
}

// GetAccounts lists the accounts owned by userID, oldest first.
func (s *Service) GetAccounts(ctx context.Context, userID int64) ([]models.Account, error) {
	rows, err := s.store.QueryAll(ctx, selectAccountsQuery, userID)
	if err != nil {
		return nil, &models.StorageError{Op: "get accounts", Err: err}
	}
	accounts := make([]models.Account, 0, len(rows))
	for _, r := range rows {
		acc, err := scanAccount(r)
		if err != nil {
			return nil, &models.StorageError{Op: "get accounts", Err: err}
		}
		accounts = append(accounts, *acc)
	}
	return accounts, nil
}

// GetAccount returns the account, or nil when the number is unknown.
func (s *Service) GetAccount(ctx context.Context, number string) (*models.Account, error) {
	acc, err := s.loadAccount(ctx, s.store, number, false)
	if err != nil {
		return nil, &models.StorageError{Op: "get account", Err: err}
	}
	return acc, nil
}

// GetTransactions returns the most recent rows for the account, newest
// first. A limit <= 0 means DefaultHistoryLimit.
func (s *Service) GetTransactions(ctx context.Context, number string, limit int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	rows, err := s.store.QueryAll(ctx, selectTransactionsQuery, number, limit)
	if err != nil {
		return nil, &models.StorageError{Op: "get transactions", Err: err}
	}
	out := make([]models.Transaction, 0, len(rows))
	for _, r := range rows {
		tx, err := scanTransaction(r)
		if err != nil {
			return nil, &models.StorageError{Op: "get transactions", Err: err}
		}
		out = append(out, tx)
	}
	return out, nil
}

// GetAccountOwner returns who holds the account, or nil when the number is
// unknown.
func (s *Service) GetAccountOwner(ctx context.Context, number string) (*models.Owner, error) {
	row, err := s.store.QueryOne(ctx, selectOwnerQuery, number)
	if err != nil {
		return nil, &models.StorageError{Op: "get account owner", Err: err}
	}
	if row == nil {
		return nil, nil
	}
	return &models.Owner{
		FirstName: row.String("first_name"),
		LastName:  row.String("last_name"),
		Username:  row.String("username"),
	}, nil
}

func (s *Service) loadAccount(ctx context.Context, q store.Querier, number string, lock bool) (*models.Account, error) {
	query := selectAccountQuery
	if lock {
		query += s.store.Dialect().LockClause
	}
	row, err := q.QueryOne(ctx, query, number)
	if err != nil || row == nil {
		return nil, err
	}
	return scanAccount(row)
}

func (s *Service) timestamp() string {
	return s.now().UTC().Format(store.TimeLayout)
}
