package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/streadway/amqp"
)

// DefaultQueue is the queue ledger entries are published to.
const DefaultQueue = "ledger_entries"

// RabbitMQ connection wrapper
type RabbitMQ struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string

	// publishes on one channel must not interleave
	mu sync.Mutex
}

// NewRabbitMQ dials the broker and declares the durable entry queue.
func NewRabbitMQ(uri, queue string) (*RabbitMQ, error) {
	if queue == "" {
		queue = DefaultQueue
	}

	conn, err := amqp.Dial(uri)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	// Declare queue
	_, err = ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}

	return &RabbitMQ{
		conn:    conn,
		channel: ch,
		queue:   queue,
	}, nil
}

// Queue returns the name of the declared queue.
func (r *RabbitMQ) Queue() string {
	return r.queue
}

// Close connections
func (r *RabbitMQ) Close() {
	if r.channel != nil {
		r.channel.Close()
	}
	if r.conn != nil {
		r.conn.Close()
	}
}

// Publish sends the entry as a persistent JSON message.
func (r *RabbitMQ) Publish(ctx context.Context, e Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(e)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.channel.Publish(
		"",      // exchange
		r.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			MessageId:    e.Reference,
			Timestamp:    e.Timestamp,
			Body:         body,
		},
	)
}

// Consume registers a manual-ack consumer on the entry queue. prefetch
// bounds the number of unacknowledged deliveries in flight.
func (r *RabbitMQ) Consume(prefetch int) (<-chan amqp.Delivery, error) {
	if prefetch > 0 {
		if err := r.channel.Qos(prefetch, 0, false); err != nil {
			return nil, fmt.Errorf("set qos: %w", err)
		}
	}
	msgs, err := r.channel.Consume(
		r.queue, // queue
		"",      // consumer
		false,   // auto-ack
		false,   // exclusive
		false,   // no-local
		false,   // no-wait
		nil,     // args
	)
	if err != nil {
		return nil, fmt.Errorf("register consumer: %w", err)
	}
	return msgs, nil
}
