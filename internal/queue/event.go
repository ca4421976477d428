// Package queue publishes booking events to RabbitMQ and consumes them
// into an append-only booking log.
package queue

import (
    "time"

    "github.com/google/uuid"

    "github.com/iliyamo/movie-booking/internal/model"
)

// BookingQueue is the durable queue booking events are routed to.
const BookingQueue = "booking.created"

// BookingCreatedEvent is published after a booking row is committed.  It
// carries enough of the showtime and movie for consumers to log or notify
// without querying the database.
type BookingCreatedEvent struct {
    EventID        string `json:"event_id"`
    BookingID      uint64 `json:"booking_id"`
    UserID         uint64 `json:"user_id"`
    ShowtimeID     uint64 `json:"showtime_id"`
    MovieID        uint64 `json:"movie_id"`
    MovieTitle     string `json:"movie_title"`
    CinemaHall     string `json:"cinema_hall"`
    Date           string `json:"date,omitempty"`
    Time           string `json:"time,omitempty"`
    Tickets        uint32 `json:"tickets"`
    TotalCostCents int64  `json:"total_cost_cents"`
    CreatedAt      string `json:"created_at"` // RFC 3339, UTC
}

// NewBookingCreatedEvent builds the event for b on showtime s of movie m.
func NewBookingCreatedEvent(b model.Booking, s model.Showtime, m model.Movie) BookingCreatedEvent {
    ev := BookingCreatedEvent{
        EventID:        uuid.NewString(),
        BookingID:      b.ID,
        UserID:         b.UserID,
        ShowtimeID:     s.ID,
        MovieID:        m.ID,
        MovieTitle:     m.Title,
        CinemaHall:     s.CinemaHall,
        Tickets:        b.Tickets,
        TotalCostCents: b.TotalCostCents,
        CreatedAt:      b.CreatedAt.UTC().Format(time.RFC3339),
    }
    if s.Date != nil {
        ev.Date = *s.Date
    }
    if s.Time != nil {
        ev.Time = *s.Time
    }
    return ev
}
