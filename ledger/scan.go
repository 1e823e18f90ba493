package ledger

import (
	"fmt"

	"bankdesk/models"
	"bankdesk/store"
)

func scanAccount(r store.Row) (*models.Account, error) {
	balance, err := r.Decimal("balance")
	if err != nil {
		return nil, err
	}
	overdraft, err := r.Decimal("overdraft_limit")
	if err != nil {
		return nil, err
	}
	return &models.Account{
		Number:         r.String("account_number"),
		UserID:         r.Int64("user_id"),
		Type:           models.AccountType(r.String("account_type")),
		Currency:       r.String("currency"),
		Balance:        balance,
		OverdraftLimit: overdraft,
		CreatedAt:      r.Time("created_at"),
	}, nil
}

func scanTransaction(r store.Row) (models.Transaction, error) {
	amount, err := r.Decimal("amount")
	if err != nil {
		return models.Transaction{}, fmt.Errorf("transaction %d: %w", r.Int64("id"), err)
	}
	return models.Transaction{
		ID:            r.Int64("id"),
		AccountNumber: r.String("account_number"),
		Type:          models.TransactionType(r.String("transaction_type")),
		Amount:        amount,
		Description:   r.String("description"),
		Reference:     r.String("reference"),
		Timestamp:     r.Time("timestamp"),
	}, nil
}
