package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "time"

    "github.com/hashicorp/go-hclog"
    amqp "github.com/rabbitmq/amqp091-go"
)

// Consumer reads the seat.reserved queue and appends one line per message
// to reservations.log under Dir.
type Consumer struct {
    URL string
    Dir string
    Log hclog.Logger
}

// Run connects to the broker and consumes until ctx is cancelled,
// reconnecting with exponential backoff after any failure.  Messages that
// cannot be handled are rejected without requeue.
func (c *Consumer) Run(ctx context.Context) {
    log := c.Log
    if log == nil {
        log = hclog.NewNullLogger()
    }
    backoff := time.Second
    for {
        conn, err := amqp.Dial(c.URL)
        if err != nil {
            log.Warn("failed to dial broker", "error", err, "retry_in", backoff)
            if !sleepCtx(ctx, backoff) {
                return
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = c.consume(ctx, conn, log)
        _ = conn.Close()
        if ctx.Err() != nil {
            return
        }
        log.Warn("consume loop ended; reconnecting", "error", err)
        if !sleepCtx(ctx, 2*time.Second) {
            return
        }
    }
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection, log hclog.Logger) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        log.Warn("set QoS failed", "error", err)
    }
    if _, err := ch.QueueDeclare(SeatReservedQueue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(SeatReservedQueue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := c.handleMessage(d.Body); err != nil {
                log.Error("handle message failed", "error", err)
                _ = d.Nack(false, false)
                continue
            }
            _ = d.Ack(false)
        }
    }
}

func (c *Consumer) handleMessage(body []byte) error {
    var ev SeatReservedEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.EventID == "" || ev.SeatID == "" || ev.UserID == "" {
        return errors.New("incomplete event")
    }
    dir := c.Dir
    if dir == "" {
        dir = "logs"
    }
    if err := os.MkdirAll(dir, 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    f, err := os.OpenFile(filepath.Join(dir, "reservations.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    line := fmt.Sprintf("[%s] Seat reserved | event_id=%s | event=%q | seat_id=%s | user_id=%s\n",
        ev.ReservedAt, ev.EventID, ev.EventTitle, ev.SeatID, ev.UserID)
    if _, err := f.WriteString(line); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}
