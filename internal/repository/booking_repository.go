package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/movie-booking/internal/model"
)

// ErrBookingNotFound indicates that a booking was not located in the DB.
var ErrBookingNotFound = errors.New("booking not found")

// BookingRepo manages persistence for bookings.  Foreign keys with ON
// DELETE CASCADE remove bookings together with their user or showtime.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo constructs a BookingRepo with the given DB handle.
func NewBookingRepo(db *sql.DB) *BookingRepo {
	return &BookingRepo{db: db}
}

// Create inserts b and populates its ID and created_at.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
	const q = `INSERT INTO bookings (user_id, showtime_id, tickets, total_cost_cents) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, b.UserID, b.ShowtimeID, b.Tickets, b.TotalCostCents)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return r.db.QueryRowContext(ctx, `SELECT created_at FROM bookings WHERE id = ?`, b.ID).Scan(&b.CreatedAt)
}

// ListByUser returns the user's bookings joined with showtime and movie,
// newest first.  An empty slice is returned when there are none.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]model.BookingDetail, error) {
	const q = `SELECT b.id, b.user_id, b.showtime_id, b.tickets, b.total_cost_cents, b.created_at,
	                  m.id, m.title, s.cinema_hall,
	                  DATE_FORMAT(s.show_date, '%Y-%m-%d'), TIME_FORMAT(s.show_time, '%H:%i')
	           FROM bookings b
	           JOIN showtimes s ON s.id = b.showtime_id
	           JOIN movies m    ON m.id = s.movie_id
	           WHERE b.user_id = ?
	           ORDER BY b.created_at DESC, b.id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.BookingDetail{}
	for rows.Next() {
		var (
			d    model.BookingDetail
			date sql.NullString
			tm   sql.NullString
		)
		if err := rows.Scan(
			&d.ID, &d.UserID, &d.ShowtimeID, &d.Tickets, &d.TotalCostCents, &d.CreatedAt,
			&d.MovieID, &d.MovieTitle, &d.CinemaHall, &date, &tm,
		); err != nil {
			return nil, err
		}
		d.Date = fromNullString(date)
		d.Time = fromNullString(tm)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CountByUser returns how many bookings the user holds.
func (r *BookingRepo) CountByUser(ctx context.Context, userID uint64) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings WHERE user_id = ?`, userID).Scan(&n)
	return n, err
}

// DeleteForUser removes one booking owned by userID.  ErrBookingNotFound
// is returned when no such booking exists and ErrForbidden when it
// belongs to another user.
func (r *BookingRepo) DeleteForUser(ctx context.Context, id, userID uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bookings WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	// Determine if it's "not found" or "someone else's booking".
	var owner uint64
	if err := r.db.QueryRowContext(ctx, `SELECT user_id FROM bookings WHERE id = ?`, id).Scan(&owner); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrBookingNotFound
		}
		return err
	}
	return ErrForbidden
}

// DeleteAllForUser removes every booking of the user and returns the
// number of rows removed.
func (r *BookingRepo) DeleteAllForUser(ctx context.Context, userID uint64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bookings WHERE user_id = ?`, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
