// Package booking creates ticket bookings for authenticated principals.
package booking

import (
	"context"

	"github.com/iliyamo/movie-booking/internal/model"
	"github.com/iliyamo/movie-booking/internal/repository"
	"github.com/iliyamo/movie-booking/internal/validation"
)

// UnitPriceCents is the flat price of one ticket.
const UnitPriceCents int64 = 1000

// Rejections reported by Book before any write.
var (
	ErrNotAuthenticated = model.ErrNotAuthenticated
	ErrInactiveAccount  = model.ErrInactiveAccount
	ErrShowtimeNotFound = repository.ErrShowtimeNotFound
)

// ShowtimeFinder resolves a showtime by ID, returning ErrShowtimeNotFound
// when it does not exist.
type ShowtimeFinder interface {
	GetByID(ctx context.Context, id uint64) (*model.Showtime, error)
}

// BookingCreator inserts a booking and fills in its ID and creation time.
type BookingCreator interface {
	Create(ctx context.Context, b *model.Booking) error
}

// Request is the validated booking payload.  Tickets is a pointer so that
// a missing value is distinguishable from zero.
type Request struct {
	Tickets *int `json:"tickets" validate:"required,gte=1,lte=4294967295"`
}

// Processor validates and persists bookings.
type Processor struct {
	Showtimes ShowtimeFinder
	Bookings  BookingCreator
}

// Book creates one booking of tickets seats for p on showtimeID.  The
// principal is checked first, then the showtime, then the ticket count.
// Validation failures are returned as *model.ValidationError.  No seat
// capacity is enforced.
func (p *Processor) Book(ctx context.Context, who *model.Principal, showtimeID uint64, tickets *int) (*model.Booking, error) {
	st, err := p.Check(ctx, who, showtimeID)
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(Request{Tickets: tickets}); err != nil {
		return nil, err
	}
	n := uint32(*tickets)
	b := &model.Booking{
		UserID:         who.UserID,
		ShowtimeID:     st.ID,
		Tickets:        n,
		TotalCostCents: Total(n),
	}
	if err := p.Bookings.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Check runs the checks that precede payload validation: the principal
// must be active and the showtime must exist.  Callers that fail to decode
// a booking payload use it to report those errors first.
func (p *Processor) Check(ctx context.Context, who *model.Principal, showtimeID uint64) (*model.Showtime, error) {
	if err := who.Authorize(false); err != nil {
		return nil, err
	}
	return p.Showtimes.GetByID(ctx, showtimeID)
}

// Total returns the cost in cents of n tickets.
func Total(n uint32) int64 { return int64(n) * UnitPriceCents }
