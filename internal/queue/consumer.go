package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/rs/zerolog/log"

    "github.com/iliyamo/movie-booking/internal/model"
)

// Consumer appends one line per booking event to LogPath.
type Consumer struct {
    URL     string
    LogPath string // defaults to logs/booking.log
}

// Run consumes BookingQueue until ctx is canceled, redialing the broker
// with exponential backoff.  Messages that cannot be decoded or written
// are rejected without requeue.
func (c *Consumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(c.URL)
        if err != nil {
            log.Warn().Err(err).Dur("retry_in", backoff).Msg("booking consumer: dial failed")
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            backoff = min(backoff*2, 30*time.Second)
            continue
        }
        backoff = time.Second
        err = c.consume(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        log.Warn().Err(err).Msg("booking consumer: reconnecting")
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        return fmt.Errorf("qos: %w", err)
    }
    if _, err := ch.QueueDeclare(BookingQueue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.ConsumeWithContext(ctx, BookingQueue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }
    log.Info().Str("queue", BookingQueue).Msg("booking consumer started")

    for d := range msgs {
        if err := c.Handle(d.Body); err != nil {
            log.Error().Err(err).Str("message_id", d.MessageId).Msg("booking consumer: rejecting message")
            _ = d.Nack(false, false)
            continue
        }
        _ = d.Ack(false)
    }
    return errors.New("deliveries channel closed")
}

// Handle decodes one message body and appends its log line.
func (c *Consumer) Handle(body []byte) error {
    var ev BookingCreatedEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.BookingID == 0 {
        return errors.New("event without booking_id")
    }
    path := c.LogPath
    if path == "" {
        path = filepath.Join("logs", "booking.log")
    }
    if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
        return fmt.Errorf("mkdir: %w", err)
    }
    f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()
    if _, err := f.WriteString(FormatLine(ev)); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

// FormatLine renders ev as a single newline-terminated log line.
func FormatLine(ev BookingCreatedEvent) string {
    when := ev.Date
    if ev.Time != "" {
        when += " " + ev.Time
    }
    return fmt.Sprintf("[%s] Booking created | booking_id=%d | user_id=%d | showtime_id=%d | movie=%q | hall=%q | when=%q | tickets=%d | total=%s\n",
        ev.CreatedAt, ev.BookingID, ev.UserID, ev.ShowtimeID, ev.MovieTitle, ev.CinemaHall, when, ev.Tickets, model.FormatCents(ev.TotalCostCents))
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}
