package events

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// journalRecord is how an entry is stored in MongoDB.
type journalRecord struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty"`
	AccountNumber string               `bson:"account_number"`
	Type          string               `bson:"type"`
	Amount        primitive.Decimal128 `bson:"amount"`
	BalanceAfter  primitive.Decimal128 `bson:"balance_after"`
	Description   string               `bson:"description"`
	Reference     string               `bson:"reference,omitempty"`
	CreatedAt     time.Time            `bson:"created_at"`
}

// Journal is a MongoDB collection of ledger entries, queried by account.
type Journal struct {
	coll *mongo.Collection
}

// NewJournal wraps an existing collection.
func NewJournal(coll *mongo.Collection) *Journal {
	return &Journal{coll: coll}
}

// ConnectJournal opens a client and returns the journal on database/collection
// together with a function that disconnects the client.
func ConnectJournal(ctx context.Context, uri, database, collection string) (*Journal, func(context.Context) error, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return NewJournal(client.Database(database).Collection(collection)), client.Disconnect, nil
}

// Record inserts one entry.
func (j *Journal) Record(ctx context.Context, e Entry) error {
	rec, err := toRecord(e)
	if err != nil {
		return err
	}
	if _, err := j.coll.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("journal insert: %w", err)
	}
	return nil
}

// History returns up to limit entries for the account, newest first.
func (j *Journal) History(ctx context.Context, account string, limit int) ([]Entry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := j.coll.Find(ctx, bson.M{"account_number": account}, opts)
	if err != nil {
		return nil, fmt.Errorf("journal find: %w", err)
	}
	defer cursor.Close(ctx)

	var recs []journalRecord
	if err := cursor.All(ctx, &recs); err != nil {
		return nil, fmt.Errorf("journal decode: %w", err)
	}

	out := make([]Entry, 0, len(recs))
	for _, rec := range recs {
		e, err := fromRecord(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// toRecord stores amounts at the ledger's two-place scale so "0.10" stays
// "0.10" in the journal.
func toRecord(e Entry) (journalRecord, error) {
	amount, err := primitive.ParseDecimal128(e.Amount.StringFixed(2))
	if err != nil {
		return journalRecord{}, fmt.Errorf("amount %s: %w", e.Amount, err)
	}
	balance, err := primitive.ParseDecimal128(e.BalanceAfter.StringFixed(2))
	if err != nil {
		return journalRecord{}, fmt.Errorf("balance %s: %w", e.BalanceAfter, err)
	}
	return journalRecord{
		AccountNumber: e.AccountNumber,
		Type:          e.Type,
		Amount:        amount,
		BalanceAfter:  balance,
		Description:   e.Description,
		Reference:     e.Reference,
		CreatedAt:     e.Timestamp.UTC(),
	}, nil
}

func fromRecord(rec journalRecord) (Entry, error) {
	amount, err := decimal.NewFromString(rec.Amount.String())
	if err != nil {
		return Entry{}, fmt.Errorf("stored amount %s: %w", rec.Amount, err)
	}
	balance, err := decimal.NewFromString(rec.BalanceAfter.String())
	if err != nil {
		return Entry{}, fmt.Errorf("stored balance %s: %w", rec.BalanceAfter, err)
	}
	return Entry{
		AccountNumber: rec.AccountNumber,
		Type:          rec.Type,
		Amount:        amount,
		BalanceAfter:  balance,
		Description:   rec.Description,
		Reference:     rec.Reference,
		Timestamp:     rec.CreatedAt,
	}, nil
}
