package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bankdesk/events"
	"bankdesk/models"
	"bankdesk/store"
)

// posting is one balance change and the ledger row that records it.
type posting struct {
	account     string
	kind        models.TransactionType
	amount      decimal.Decimal
	description string
	reference   string
}

// Deposit credits amount to the account.
func (s *Service) Deposit(ctx context.Context, number string, amount decimal.Decimal, description string) error {
	if err := checkAmount(amount); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.post(ctx, posting{account: number, kind: models.TypeDeposit, amount: amount, description: description})
	return s.resolve("deposit", err)
}

// Withdraw debits amount from the account. The balance may go negative
// down to the overdraft limit and no further.
func (s *Service) Withdraw(ctx context.Context, number string, amount decimal.Decimal, description string) error {
	if err := checkAmount(amount); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.post(ctx, posting{account: number, kind: models.TypeWithdrawal, amount: amount, description: description})
	return s.resolve("withdraw", err)
}

// Transfer moves amount between two accounts of the same currency.
//
// The debit and the credit commit separately. When the credit fails the
// debit is undone with a compensating credit to the source and the result
// matches models.ErrTransferFailed. When that compensation fails too, the
// amount is stranded and a *models.CompensationFailedError is returned.
func (s *Service) Transfer(ctx context.Context, from, to string, amount decimal.Decimal, description string) error {
	if err := checkAmount(amount); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	src, err := s.loadAccount(ctx, s.store, from, false)
	if err != nil {
		return &models.StorageError{Op: "transfer", Err: err}
	}
	if src == nil {
		return models.ErrSourceNotFound
	}
	dst, err := s.loadAccount(ctx, s.store, to, false)
	if err != nil {
		return &models.StorageError{Op: "transfer", Err: err}
	}
	if dst == nil {
		return models.ErrDestinationNotFound
	}
	if src.Currency != dst.Currency {
		return fmt.Errorf("%w: %s is %s, %s is %s", models.ErrCurrencyMismatch, from, src.Currency, to, dst.Currency)
	}
	if amount.GreaterThan(src.Available()) {
		return &models.InsufficientFundsError{Account: from, Currency: src.Currency, Available: src.Available()}
	}

	ref := uuid.NewString()
	log := s.log.With("from", from, "to", to, "amount", amount.String(), "reference", ref)

	_, err = s.post(ctx, posting{
		account:     from,
		kind:        models.TypeWithdrawal,
		amount:      amount,
		description: joinDescription("Transfer to "+to+".", description),
		reference:   ref,
	})
	if err != nil {
		return s.resolve("transfer", err)
	}

	_, creditErr := s.post(ctx, posting{
		account:     to,
		kind:        models.TypeDeposit,
		amount:      amount,
		description: joinDescription("Transfer from "+from+".", description),
		reference:   ref,
	})
	if creditErr == nil {
		log.Info("transfer completed")
		return nil
	}

	log.Warn("transfer credit failed, compensating", "error", creditErr)
	_, compErr := s.post(ctx, posting{
		account:     from,
		kind:        models.TypeDeposit,
		amount:      amount,
		description: "Transfer rollback: credit to " + to + " failed",
		reference:   ref,
	})
	if compErr != nil {
		log.Error("transfer compensation failed, funds stranded", "credit_error", creditErr, "compensation_error", compErr)
		return &models.CompensationFailedError{
			Account: from,
			Amount:  amount,
			Cause:   fmt.Errorf("credit %s: %w; compensation: %w", to, creditErr, compErr),
		}
	}
	log.Warn("transfer reversed")
	return fmt.Errorf("%w: %w", models.ErrTransferFailed, creditErr)
}

// post applies p in its own database transaction: it locks and reads the
// account, checks the overdraft limit for debits, writes the new balance and
// appends the ledger row. The entry is published only after commit.
func (s *Service) post(ctx context.Context, p posting) (events.Entry, error) {
	var entry events.Entry
	err := s.store.InTx(ctx, func(q store.Querier) error {
		acc, err := s.loadAccount(ctx, q, p.account, true)
		if err != nil {
			return err
		}
		if acc == nil {
			return models.ErrAccountNotFound
		}

		balance := acc.Balance.Add(p.amount)
		if p.kind == models.TypeWithdrawal {
			if p.amount.GreaterThan(acc.Available()) {
				return &models.InsufficientFundsError{Account: acc.Number, Currency: acc.Currency, Available: acc.Available()}
			}
			balance = acc.Balance.Sub(p.amount)
		}

		if _, err := q.Exec(ctx, updateBalanceQuery, balance.String(), p.account); err != nil {
			return err
		}
		ts := s.now().UTC()
		if _, err := q.QueryOne(ctx, insertTransactionQuery,
			p.account, string(p.kind), p.amount.String(), p.description, p.reference,
			ts.Format(store.TimeLayout)); err != nil {
			return err
		}

		entry = events.Entry{
			AccountNumber: p.account,
			Type:          string(p.kind),
			Amount:        p.amount,
			BalanceAfter:  balance,
			Description:   p.description,
			Reference:     p.reference,
			Timestamp:     ts,
		}
		return nil
	})
	if err != nil {
		return events.Entry{}, err
	}

	s.log.Debug("ledger row committed", "account", p.account, "type", p.kind, "amount", p.amount.String(), "balance", entry.BalanceAfter.String())
	if err := s.publisher.Publish(ctx, entry); err != nil {
		s.log.Warn("error publishing ledger entry", "account", p.account, "error", err)
	}
	return entry, nil
}

// resolve maps an error from post onto the error taxonomy. Business
// outcomes pass through; anything else came from the store.
func (s *Service) resolve(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, models.ErrAccountNotFound), errors.Is(err, models.ErrInsufficientFunds):
		return err
	}
	return &models.StorageError{Op: op, Err: err}
}

// checkAmount accepts strictly positive amounts in whole minor units.
func checkAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return models.ErrInvalidAmount
	}
	if !wholeMinorUnits(amount) {
		return fmt.Errorf("%w: at most %d decimal places", models.ErrInvalidAmount, minorUnits)
	}
	return nil
}

func wholeMinorUnits(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(minorUnits))
}

func joinDescription(prefix, description string) string {
	if description == "" {
		return prefix
	}
	return prefix + " " + description
}
