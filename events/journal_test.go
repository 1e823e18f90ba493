package events

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func mustDecimal128(t *testing.T, s string) primitive.Decimal128 {
	t.Helper()
	d, err := primitive.ParseDecimal128(s)
	require.NoError(t, err)
	return d
}

func TestJournal(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("record keeps exact amounts", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		j := NewJournal(mt.Coll)
		err := j.Record(context.Background(), Entry{
			AccountNumber: "4081781012345678",
			Type:          "WITHDRAWAL",
			Amount:        decimal.RequireFromString("0.10"),
			BalanceAfter:  decimal.RequireFromString("-2000.30"),
			Description:   "Transfer to 4081781087654321. rent",
			Reference:     "6f1c1a52-8d0e-4c59-9a39-1f7b8e3f2a10",
			Timestamp:     time.Now(),
		})
		require.NoError(t, err)

		cmd := mt.GetStartedEvent().Command
		assert.Equal(t, "0.10", cmd.Lookup("documents", "0", "amount").Decimal128().String())
		assert.Equal(t, "-2000.30", cmd.Lookup("documents", "0", "balance_after").Decimal128().String())
		assert.Equal(t, "4081781012345678", cmd.Lookup("documents", "0", "account_number").StringValue())
	})

	mt.Run("record pads whole amounts to cents", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		err := NewJournal(mt.Coll).Record(context.Background(), Entry{
			AccountNumber: "4081781012345678",
			Type:          "DEPOSIT",
			Amount:        decimal.NewFromInt(10000),
			BalanceAfter:  decimal.RequireFromString("10000.5"),
			Timestamp:     time.Now(),
		})
		require.NoError(t, err)

		cmd := mt.GetStartedEvent().Command
		assert.Equal(t, "10000.00", cmd.Lookup("documents", "0", "amount").Decimal128().String())
		assert.Equal(t, "10000.50", cmd.Lookup("documents", "0", "balance_after").Decimal128().String())
	})

	mt.Run("record surfaces write errors", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))

		err := NewJournal(mt.Coll).Record(context.Background(), Entry{
			Amount:       decimal.NewFromInt(1),
			BalanceAfter: decimal.NewFromInt(1),
		})
		assert.ErrorContains(t, err, "journal insert")
	})

	mt.Run("history decodes newest first", func(mt *mtest.T) {
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		newer := time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC)
		older := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{
				{Key: "_id", Value: primitive.NewObjectID()},
				{Key: "account_number", Value: "4081781012345678"},
				{Key: "type", Value: "WITHDRAWAL"},
				{Key: "amount", Value: mustDecimal128(t, "12000")},
				{Key: "balance_after", Value: mustDecimal128(t, "-2000")},
				{Key: "created_at", Value: newer},
			},
			bson.D{
				{Key: "_id", Value: primitive.NewObjectID()},
				{Key: "account_number", Value: "4081781012345678"},
				{Key: "type", Value: "DEPOSIT"},
				{Key: "amount", Value: mustDecimal128(t, "10000")},
				{Key: "balance_after", Value: mustDecimal128(t, "10000")},
				{Key: "created_at", Value: older},
			},
		))

		got, err := NewJournal(mt.Coll).History(context.Background(), "4081781012345678", 10)
		require.NoError(t, err)
		require.Len(t, got, 2)

		assert.Equal(t, "WITHDRAWAL", got[0].Type)
		assert.True(t, got[0].BalanceAfter.Equal(decimal.NewFromInt(-2000)))
		assert.True(t, got[1].Amount.Equal(decimal.NewFromInt(10000)))
		assert.True(t, got[0].Timestamp.Equal(newer))

		cmd := mt.GetStartedEvent().Command
		assert.Equal(t, int32(-1), cmd.Lookup("sort", "created_at").Int32())
		assert.Equal(t, "4081781012345678", cmd.Lookup("filter", "account_number").StringValue())
	})
}
