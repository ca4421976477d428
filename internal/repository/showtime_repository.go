package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/movie-booking/internal/model"
)

// ErrShowtimeNotFound indicates that a showtime was not located in the DB.
var ErrShowtimeNotFound = errors.New("showtime not found")

// ErrShowtimeExists is returned by Create for a duplicate natural key.
var ErrShowtimeExists = errors.New("showtime already exists")

// ShowtimeRepo manages persistence for showtimes.
type ShowtimeRepo struct {
	db *sql.DB
}

// NewShowtimeRepo constructs a ShowtimeRepo with the given DB handle.
func NewShowtimeRepo(db *sql.DB) *ShowtimeRepo {
	return &ShowtimeRepo{db: db}
}

// Dates and times leave the DB in the same text forms the API accepts.
const showtimeColumns = `id, movie_id, cinema_hall, DATE_FORMAT(show_date, '%Y-%m-%d'), TIME_FORMAT(show_time, '%H:%i')`

// GetOrCreate inserts s unless a showtime with the same movie, date, time
// and hall exists, and sets s.ID to the stored row in both cases.  The
// boolean reports whether a row was inserted.  See MovieRepo.GetOrCreate
// for the LAST_INSERT_ID idiom.
func (r *ShowtimeRepo) GetOrCreate(ctx context.Context, s *model.Showtime) (bool, error) {
	const q = `INSERT INTO showtimes (movie_id, cinema_hall, show_date, show_time)
	           VALUES (?, ?, ?, ?)
	           ON DUPLICATE KEY UPDATE id = LAST_INSERT_ID(id)`
	res, err := r.db.ExecContext(ctx, q, s.MovieID, s.CinemaHall, nullString(s.Date), nullString(s.Time))
	if err != nil {
		return false, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	s.ID = uint64(id)
	return n == 1, nil
}

// Create inserts a new showtime and assigns the generated ID back to s.
// A showtime identical to an existing one is reported as a duplicate via
// ErrShowtimeExists.
func (r *ShowtimeRepo) Create(ctx context.Context, s *model.Showtime) error {
	const q = `INSERT INTO showtimes (movie_id, cinema_hall, show_date, show_time) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, s.MovieID, s.CinemaHall, nullString(s.Date), nullString(s.Time))
	if err != nil {
		if isDuplicate(err) {
			return ErrShowtimeExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// GetByID retrieves a showtime by its ID.  It returns ErrShowtimeNotFound
// if there is no matching row.
func (r *ShowtimeRepo) GetByID(ctx context.Context, id uint64) (*model.Showtime, error) {
	s, err := scanShowtime(r.db.QueryRowContext(ctx, `SELECT `+showtimeColumns+` FROM showtimes WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrShowtimeNotFound
		}
		return nil, err
	}
	return s, nil
}

// ListByMovie returns the showtimes of one movie in schedule order.
func (r *ShowtimeRepo) ListByMovie(ctx context.Context, movieID uint64) ([]model.Showtime, error) {
	return r.list(ctx, `SELECT `+showtimeColumns+` FROM showtimes WHERE movie_id = ?
	                    ORDER BY show_date ASC, show_time ASC, id ASC`, movieID)
}

// ListAll returns every showtime grouped by movie and in schedule order.
func (r *ShowtimeRepo) ListAll(ctx context.Context) ([]model.Showtime, error) {
	return r.list(ctx, `SELECT `+showtimeColumns+` FROM showtimes
	                    ORDER BY movie_id ASC, show_date ASC, show_time ASC, id ASC`)
}

func (r *ShowtimeRepo) list(ctx context.Context, q string, args ...any) ([]model.Showtime, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Showtime
	for rows.Next() {
		s, err := scanShowtime(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanShowtime(row rowScanner) (*model.Showtime, error) {
	var (
		s    model.Showtime
		date sql.NullString
		tm   sql.NullString
	)
	if err := row.Scan(&s.ID, &s.MovieID, &s.CinemaHall, &date, &tm); err != nil {
		return nil, err
	}
	s.Date = fromNullString(date)
	s.Time = fromNullString(tm)
	return &s, nil
}
