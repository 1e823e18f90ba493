package events

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/streadway/amqp"
)

// Sink receives relayed entries. *Journal is the production sink.
type Sink interface {
	Record(ctx context.Context, e Entry) error
}

type outcome int

const (
	ack outcome = iota
	requeue
	drop
)

// Relay moves entries from the queue into a sink.
type Relay struct {
	deliveries <-chan amqp.Delivery
	sink       Sink
	log        *slog.Logger
}

// NewRelay creates a relay over an already registered consumer.
func NewRelay(deliveries <-chan amqp.Delivery, sink Sink, log *slog.Logger) *Relay {
	if log == nil {
		log = slog.Default()
	}
	return &Relay{deliveries: deliveries, sink: sink, log: log}
}

// Run consumes until ctx is cancelled or the delivery channel closes.
// Entries are acknowledged once the sink has them, requeued when the sink
// fails and dropped when they cannot be decoded.
func (r *Relay) Run(ctx context.Context) error {
	r.log.Info("relay waiting for ledger entries")
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-r.deliveries:
			if !ok {
				r.log.Warn("delivery channel closed")
				return nil
			}
			r.settle(d, r.handle(ctx, d.Body))
		}
	}
}

func (r *Relay) handle(ctx context.Context, body []byte) outcome {
	var e Entry
	if err := json.Unmarshal(body, &e); err != nil {
		// redelivering a malformed message would loop forever
		r.log.Error("undecodable ledger entry", "error", err, "body", string(body))
		return drop
	}
	if err := r.sink.Record(ctx, e); err != nil {
		r.log.Error("error recording ledger entry", "account", e.AccountNumber, "reference", e.Reference, "error", err)
		return requeue
	}
	r.log.Debug("ledger entry recorded", "account", e.AccountNumber, "type", e.Type, "amount", e.Amount.String())
	return ack
}

func (r *Relay) settle(d amqp.Delivery, o outcome) {
	var err error
	switch o {
	case ack:
		err = d.Ack(false)
	case requeue:
		err = d.Nack(false, true)
	case drop:
		err = d.Nack(false, false)
	}
	if err != nil {
		r.log.Error("error settling delivery", "delivery_tag", d.DeliveryTag, "error", err)
	}
}
