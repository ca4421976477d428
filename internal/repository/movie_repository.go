// Package repository contains data access logic for the catalog. This file
// defines the movie repository. Titles are unique in the schema, which lets
// GetOrCreate resolve a concurrent duplicate insert inside MySQL instead of
// with an application-level lock.
package repository

import (
	"context"      // context for controlling query lifetime
	"database/sql" // sql provides DB abstraction
	"errors"       // errors for sentinel definitions

	"github.com/iliyamo/movie-booking/internal/model"
)

// ErrMovieNotFound indicates that a movie was not located in the DB.
var ErrMovieNotFound = errors.New("movie not found")

// MovieRepo manages persistence for movies.
type MovieRepo struct {
	db *sql.DB
}

// NewMovieRepo constructs a MovieRepo with the given DB handle.
func NewMovieRepo(db *sql.DB) *MovieRepo {
	return &MovieRepo{db: db}
}

const movieColumns = `id, title, genre, duration_min, rating, poster_url`

// GetOrCreate inserts m unless a movie with the same title exists.  In
// both cases m is overwritten with the stored row, so an existing movie's
// fields win over m's.  The boolean reports whether a row was inserted.
//
// LAST_INSERT_ID(id) makes the driver report the existing row's ID when
// the unique key on title fires; affected rows is 1 on insert and 0 when
// the row was left untouched.
func (r *MovieRepo) GetOrCreate(ctx context.Context, m *model.Movie) (bool, error) {
	const q = `INSERT INTO movies (title, genre, duration_min, rating, poster_url)
	           VALUES (?, ?, ?, ?, ?)
	           ON DUPLICATE KEY UPDATE id = LAST_INSERT_ID(id)`
	res, err := r.db.ExecContext(ctx, q, m.Title, nullString(m.Genre), nullInt(m.Duration), nullFloat(m.Rating), nullString(m.PosterURL))
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
	stored, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return false, err
	}
	*m = *stored
	return n == 1, nil
}

// Create inserts a new movie and assigns the generated ID back to m.
// ErrTitleExists is returned when the title is taken.
func (r *MovieRepo) Create(ctx context.Context, m *model.Movie) error {
	const q = `INSERT INTO movies (title, genre, duration_min, rating, poster_url) VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, m.Title, nullString(m.Genre), nullInt(m.Duration), nullFloat(m.Rating), nullString(m.PosterURL))
	if err != nil {
		if isDuplicate(err) {
			return ErrTitleExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return nil
}

// GetByID retrieves a movie by its ID.  It returns ErrMovieNotFound if
// there is no matching row.
func (r *MovieRepo) GetByID(ctx context.Context, id uint64) (*model.Movie, error) {
	return scanMovie(r.db.QueryRowContext(ctx, `SELECT `+movieColumns+` FROM movies WHERE id = ?`, id))
}

// GetByTitle retrieves a movie by exact title.
func (r *MovieRepo) GetByTitle(ctx context.Context, title string) (*model.Movie, error) {
	return scanMovie(r.db.QueryRowContext(ctx, `SELECT `+movieColumns+` FROM movies WHERE title = ?`, title))
}

// List returns all movies ordered by title.
func (r *MovieRepo) List(ctx context.Context) ([]model.Movie, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+movieColumns+` FROM movies ORDER BY title ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Movie
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdatePosterURL sets the poster URL of a movie.
func (r *MovieRepo) UpdatePosterURL(ctx context.Context, id uint64, url string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE movies SET poster_url = ? WHERE id = ?`, url, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var one int
		if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM movies WHERE id = ?`, id).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrMovieNotFound
			}
			return err
		}
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanMovie(row rowScanner) (*model.Movie, error) {
	var (
		m        model.Movie
		genre    sql.NullString
		duration sql.NullInt64
		rating   sql.NullFloat64
		poster   sql.NullString
	)
	if err := row.Scan(&m.ID, &m.Title, &genre, &duration, &rating, &poster); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMovieNotFound
		}
		return nil, err
	}
	m.Genre = fromNullString(genre)
	if duration.Valid {
		d := int(duration.Int64)
		m.Duration = &d
	}
	if rating.Valid {
		v := rating.Float64
		m.Rating = &v
	}
	m.PosterURL = fromNullString(poster)
	return &m, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func fromNullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
