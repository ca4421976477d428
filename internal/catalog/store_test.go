package catalog_test

import (
	"context"
	"sort"
	"sync"

	"github.com/iliyamo/movie-booking/internal/catalog"
	"github.com/iliyamo/movie-booking/internal/model"
)

// memMovies and memShowtimes are in-memory stores keyed the same way as
// the unique constraints of the schema.
type memMovies struct {
	mu     sync.Mutex
	rows   map[uint64]model.Movie
	nextID uint64
	err    error
}

func newMemMovies() *memMovies { return &memMovies{rows: map[uint64]model.Movie{}} }

func (s *memMovies) GetOrCreate(_ context.Context, m *model.Movie) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}
	for _, row := range s.rows {
		if row.Title == m.Title {
			*m = row
			return false, nil
		}
	}
	s.nextID++
	m.ID = s.nextID
	s.rows[m.ID] = *m
	return true, nil
}

func (s *memMovies) Create(_ context.Context, m *model.Movie) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.rows {
		if row.Title == m.Title {
			return catalog.ErrTitleExists
		}
	}
	s.nextID++
	m.ID = s.nextID
	s.rows[m.ID] = *m
	return nil
}

func (s *memMovies) GetByID(_ context.Context, id uint64) (*model.Movie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok {
		return nil, catalog.ErrMovieNotFound
	}
	return &row, nil
}

func (s *memMovies) GetByTitle(_ context.Context, title string) (*model.Movie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.rows {
		if row.Title == title {
			r := row
			return &r, nil
		}
	}
	return nil, catalog.ErrMovieNotFound
}

func (s *memMovies) List(_ context.Context) ([]model.Movie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Movie, 0, len(s.rows))
	for _, row := range s.rows {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (s *memMovies) UpdatePosterURL(_ context.Context, id uint64, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok {
		return catalog.ErrMovieNotFound
	}
	row.PosterURL = &url
	s.rows[id] = row
	return nil
}

type memShowtimes struct {
	mu   sync.Mutex
	rows []model.Showtime
}

func sameShowtime(a, b model.Showtime) bool {
	return a.MovieID == b.MovieID && a.CinemaHall == b.CinemaHall &&
		deref(a.Date) == deref(b.Date) && deref(a.Time) == deref(b.Time)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (s *memShowtimes) GetOrCreate(_ context.Context, st *model.Showtime) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.rows {
		if sameShowtime(row, *st) {
			st.ID = row.ID
			return false, nil
		}
	}
	st.ID = uint64(len(s.rows) + 1)
	s.rows = append(s.rows, *st)
	return true, nil
}

func (s *memShowtimes) Create(_ context.Context, st *model.Showtime) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.rows {
		if sameShowtime(row, *st) {
			return catalog.ErrShowtimeExists
		}
	}
	st.ID = uint64(len(s.rows) + 1)
	s.rows = append(s.rows, *st)
	return nil
}

func (s *memShowtimes) ListByMovie(_ context.Context, movieID uint64) ([]model.Showtime, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Showtime
	for _, row := range s.rows {
		if row.MovieID == movieID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *memShowtimes) ListAll(_ context.Context) ([]model.Showtime, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Showtime(nil), s.rows...), nil
}
