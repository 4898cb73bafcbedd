package queue

import (
    "context"
    "encoding/json"
    "fmt"
    "time"

    "github.com/hashicorp/go-hclog"
    amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher sends SeatReservedEvents to the broker.  Each call dials its
// own connection; reservations are rare enough that pooling buys nothing.
type Publisher struct {
    url string
    log hclog.Logger
}

// NewPublisher returns a Publisher for the broker at url.
func NewPublisher(url string, log hclog.Logger) *Publisher {
    if log == nil {
        log = hclog.NewNullLogger()
    }
    return &Publisher{url: url, log: log}
}

// PublishSeatReserved publishes ev as a persistent JSON message.  Errors
// are logged and returned so the caller can ignore them without failing
// the request.
func (p *Publisher) PublishSeatReserved(ctx context.Context, ev SeatReservedEvent) error {
    body, err := json.Marshal(ev)
    if err != nil {
        return fmt.Errorf("marshal event: %w", err)
    }

    conn, err := amqp.Dial(p.url)
    if err != nil {
        p.log.Warn("dial failed", "error", err)
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        p.log.Warn("channel open failed", "error", err)
        return err
    }
    defer func() { _ = ch.Close() }()

    if _, err := ch.QueueDeclare(
        SeatReservedQueue, // name
        true,              // durable
        false,             // autoDelete
        false,             // exclusive
        false,             // noWait
        nil,               // args
    ); err != nil {
        p.log.Warn("queue declare failed", "error", err)
        return err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", SeatReservedQueue, false, false, pub); err != nil {
        p.log.Warn("publish failed", "error", err)
        return err
    }
    return nil
}
