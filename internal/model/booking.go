package model

import (
    "fmt"
    "time"
)

// Booking records a user's ticket purchase for a showtime.  The
// total is stored in cents so that tickets × unit price never
// drifts.  A booking is removed when its user or showtime is.
//
// Fields:
//  ID             – primary key identifier.
//  UserID         – user who booked.
//  ShowtimeID     – showtime being booked.
//  Tickets        – number of tickets, at least 1.
//  TotalCostCents – total price in cents.
//  CreatedAt      – creation timestamp.
type Booking struct {
    ID             uint64    // bookings.id
    UserID         uint64    // bookings.user_id
    ShowtimeID     uint64    // bookings.showtime_id
    Tickets        uint32    // bookings.tickets
    TotalCostCents int64     // bookings.total_cost_cents
    CreatedAt      time.Time // bookings.created_at
}

// BookingDetail is a booking joined with its showtime and movie, as
// shown in a user's booking history.
type BookingDetail struct {
    Booking
    MovieID    uint64
    MovieTitle string
    CinemaHall string
    Date       *string
    Time       *string
}

// FormatCents renders an amount of cents as a fixed two-decimal string
// such as "30.00".
func FormatCents(c int64) string {
    sign := ""
    if c < 0 {
        sign = "-"
        c = -c
    }
    return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}
