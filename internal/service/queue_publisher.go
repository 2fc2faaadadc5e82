package service

import (
    "context"
    "encoding/json"
    "fmt"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    q "github.com/iliyamo/pos-backoffice/internal/queue"
)

// EventPublisher publishes stock events.
type EventPublisher interface {
    PublishStockFinalized(ctx context.Context, event q.StockFinalizedEvent) error
}

// AMQPPublisher publishes events to RabbitMQ.  Each call dials, declares the
// durable queue and publishes one persistent message; failures are returned
// so callers can log and carry on.
type AMQPPublisher struct {
    URL string
}

// PublishStockFinalized publishes event to the stock.finalized queue.
func (p AMQPPublisher) PublishStockFinalized(ctx context.Context, event q.StockFinalizedEvent) error {
    conn, err := amqp.Dial(p.URL)
    if err != nil {
        return fmt.Errorf("rabbitmq dial: %w", err)
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("rabbitmq channel: %w", err)
    }
    defer func() { _ = ch.Close() }()

    // Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
    if _, err := ch.QueueDeclare(
        q.StockFinalizedQueue, // name
        true,                  // durable
        false,                 // autoDelete
        false,                 // exclusive
        false,                 // noWait
        nil,                   // args
    ); err != nil {
        return fmt.Errorf("rabbitmq queue declare: %w", err)
    }

    body, err := json.Marshal(event)
    if err != nil {
        return fmt.Errorf("marshal event: %w", err)
    }

    return ch.PublishWithContext(ctx,
        "",                    // default exchange
        q.StockFinalizedQueue, // routing key = queue name
        false,                 // mandatory
        false,                 // immediate
        amqp.Publishing{
            ContentType:  "application/json",
            DeliveryMode: amqp.Persistent,
            Timestamp:    time.Now().UTC(),
            Body:         body,
        },
    )
}

// NopPublisher drops every event.  It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishStockFinalized(context.Context, q.StockFinalizedEvent) error { return nil }
