package queue

import (
    "context"
    "encoding/json"
    "fmt"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/rs/zerolog/log"
)

// Publisher sends booking events to BookingQueue over one lazily opened
// connection.  A failed publish drops the connection so the next call
// redials.  Publisher is safe for concurrent use.
type Publisher struct {
    url string

    mu   sync.Mutex
    conn *amqp.Connection
    ch   *amqp.Channel
}

// NewPublisher returns a Publisher for the broker at url.  No connection
// is made until the first Publish.
func NewPublisher(url string) *Publisher { return &Publisher{url: url} }

// PublishBookingCreated publishes ev as a persistent JSON message.
func (p *Publisher) PublishBookingCreated(ctx context.Context, ev BookingCreatedEvent) error {
    body, err := json.Marshal(ev)
    if err != nil {
        return fmt.Errorf("marshal event: %w", err)
    }

    p.mu.Lock()
    defer p.mu.Unlock()
    if err := p.ensureChannel(); err != nil {
        return err
    }
    err = p.ch.PublishWithContext(ctx, "", BookingQueue, false, false, amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        MessageId:    ev.EventID,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    })
    if err != nil {
        p.reset()
        return fmt.Errorf("publish: %w", err)
    }
    log.Debug().Str("event_id", ev.EventID).Uint64("booking_id", ev.BookingID).Msg("booking event published")
    return nil
}

func (p *Publisher) ensureChannel() error {
    if p.ch != nil && !p.ch.IsClosed() {
        return nil
    }
    p.reset()
    conn, err := amqp.Dial(p.url)
    if err != nil {
        return fmt.Errorf("dial broker: %w", err)
    }
    ch, err := conn.Channel()
    if err != nil {
        _ = conn.Close()
        return fmt.Errorf("open channel: %w", err)
    }
    if _, err := ch.QueueDeclare(BookingQueue, true, false, false, false, nil); err != nil {
        _ = conn.Close()
        return fmt.Errorf("declare queue: %w", err)
    }
    p.conn, p.ch = conn, ch
    return nil
}

func (p *Publisher) reset() {
    if p.ch != nil {
        _ = p.ch.Close()
    }
    if p.conn != nil {
        _ = p.conn.Close()
    }
    p.conn, p.ch = nil, nil
}

// Close releases the broker connection.
func (p *Publisher) Close() error {
    p.mu.Lock()
    defer p.mu.Unlock()
    p.reset()
    return nil
}
