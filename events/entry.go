// Package events mirrors committed ledger rows to a message queue and keeps
// a document journal of them. Nothing here is on the path that decides
// whether money moved; the relational store remains the source of truth.
package events

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Entry is one committed ledger row together with the balance it produced.
type Entry struct {
	AccountNumber string          `json:"account_number"`
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	Description   string          `json:"description,omitempty"`
	Reference     string          `json:"reference,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
}

// Publisher delivers entries somewhere outside the ledger database.
type Publisher interface {
	Publish(ctx context.Context, e Entry) error
}

// Discard drops every entry. It is the publisher used when no broker is
// configured.
type Discard struct{}

func (Discard) Publish(context.Context, Entry) error { return nil }
