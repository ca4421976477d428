package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog/log"

    "github.com/iliyamo/movie-booking/internal/booking"
    "github.com/iliyamo/movie-booking/internal/middleware"
    "github.com/iliyamo/movie-booking/internal/model"
    "github.com/iliyamo/movie-booking/internal/queue"
)

// BookingStore is the bookings storage behind the history endpoints.
type BookingStore interface {
    ListByUser(ctx context.Context, userID uint64) ([]model.BookingDetail, error)
    DeleteForUser(ctx context.Context, id, userID uint64) error
    DeleteAllForUser(ctx context.Context, userID uint64) (int64, error)
}

// BookingNotifier publishes booking events.  *queue.Publisher implements it.
type BookingNotifier interface {
    PublishBookingCreated(ctx context.Context, ev queue.BookingCreatedEvent) error
}

// ShowtimeLookup and MovieLookup resolve the details of a booking event.
type ShowtimeLookup interface {
    GetByID(ctx context.Context, id uint64) (*model.Showtime, error)
}
type MovieLookup interface {
    GetByID(ctx context.Context, id uint64) (*model.Movie, error)
}

// BookingHandler serves ticket purchases and booking history.
type BookingHandler struct {
    Processor *booking.Processor
    Bookings  BookingStore
    // Notifier, Showtimes and Movies are only needed when booking events
    // are published.  A nil Notifier disables publishing.
    Notifier  BookingNotifier
    Showtimes ShowtimeLookup
    Movies    MovieLookup
}

// BookingResp is a booking as returned by the API.
type BookingResp struct {
    ID             uint64    `json:"id"`
    ShowtimeID     uint64    `json:"showtime_id"`
    Tickets        uint32    `json:"tickets"`
    TotalCost      string    `json:"total_cost"`
    TotalCostCents int64     `json:"total_cost_cents"`
    CreatedAt      time.Time `json:"created_at"`
}

// BookingHistoryItem is a booking with its showtime and movie.
type BookingHistoryItem struct {
    BookingResp
    MovieID    uint64  `json:"movie_id"`
    MovieTitle string  `json:"movie_title"`
    CinemaHall string  `json:"cinema_hall"`
    Date       *string `json:"date"`
    Time       *string `json:"time"`
}

func toBookingResp(b model.Booking) BookingResp {
    return BookingResp{
        ID:             b.ID,
        ShowtimeID:     b.ShowtimeID,
        Tickets:        b.Tickets,
        TotalCost:      model.FormatCents(b.TotalCostCents),
        TotalCostCents: b.TotalCostCents,
        CreatedAt:      b.CreatedAt,
    }
}

// Book creates a booking for the showtime in the path.
func (h *BookingHandler) Book(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return badID(c)
    }
    ctx, cancel := dbContext(c)
    defer cancel()
    who := middleware.PrincipalFrom(c)

    var req booking.Request
    if err := c.Bind(&req); err != nil {
        // Account and showtime errors take precedence over the payload.
        if _, cerr := h.Processor.Check(ctx, who, id); cerr != nil {
            return respondError(c, cerr)
        }
        return respondError(c, bindFailure(err))
    }

    b, err := h.Processor.Book(ctx, who, id, req.Tickets)
    if err != nil {
        return respondError(c, err)
    }
    log.Info().Uint64("booking_id", b.ID).Uint64("user_id", b.UserID).Uint64("showtime_id", b.ShowtimeID).
        Uint32("tickets", b.Tickets).Int64("total_cents", b.TotalCostCents).Msg("booking created")
    h.notify(ctx, *b)
    return c.JSON(http.StatusCreated, toBookingResp(*b))
}

// notify publishes the booking event.  Failures are logged; the booking
// itself is already committed.
func (h *BookingHandler) notify(ctx context.Context, b model.Booking) {
    if h.Notifier == nil {
        return
    }
    st, err := h.Showtimes.GetByID(ctx, b.ShowtimeID)
    if err != nil {
        log.Warn().Err(err).Uint64("booking_id", b.ID).Msg("booking event: load showtime")
        return
    }
    m, err := h.Movies.GetByID(ctx, st.MovieID)
    if err != nil {
        log.Warn().Err(err).Uint64("booking_id", b.ID).Msg("booking event: load movie")
        return
    }
    pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
    defer cancel()
    if err := h.Notifier.PublishBookingCreated(pubCtx, queue.NewBookingCreatedEvent(b, *st, *m)); err != nil {
        log.Warn().Err(err).Uint64("booking_id", b.ID).Msg("booking event not published")
    }
}

// List returns the caller's bookings, newest first.
func (h *BookingHandler) List(c echo.Context) error {
    p := middleware.PrincipalFrom(c)
    if p == nil {
        return respondError(c, model.ErrNotAuthenticated)
    }
    ctx, cancel := dbContext(c)
    defer cancel()

    items, err := h.Bookings.ListByUser(ctx, p.UserID)
    if err != nil {
        return respondError(c, err)
    }
    out := make([]BookingHistoryItem, 0, len(items))
    for _, d := range items {
        out = append(out, BookingHistoryItem{
            BookingResp: toBookingResp(d.Booking),
            MovieID:     d.MovieID,
            MovieTitle:  d.MovieTitle,
            CinemaHall:  d.CinemaHall,
            Date:        d.Date,
            Time:        d.Time,
        })
    }
    return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// Delete removes one of the caller's bookings.
func (h *BookingHandler) Delete(c echo.Context) error {
    p := middleware.PrincipalFrom(c)
    if p == nil {
        return respondError(c, model.ErrNotAuthenticated)
    }
    id, ok := parseID(c, "id")
    if !ok {
        return badID(c)
    }
    ctx, cancel := dbContext(c)
    defer cancel()

    if err := h.Bookings.DeleteForUser(ctx, id, p.UserID); err != nil {
        return respondError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// DeleteAll removes every booking of the caller.
func (h *BookingHandler) DeleteAll(c echo.Context) error {
    p := middleware.PrincipalFrom(c)
    if p == nil {
        return respondError(c, model.ErrNotAuthenticated)
    }
    ctx, cancel := dbContext(c)
    defer cancel()

    n, err := h.Bookings.DeleteAllForUser(ctx, p.UserID)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"deleted": n})
}
