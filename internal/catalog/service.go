package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/iliyamo/movie-booking/internal/model"
	"github.com/iliyamo/movie-booking/internal/repository"
	"github.com/iliyamo/movie-booking/internal/validation"
)

// MovieRepository is the movie storage used by Service.
type MovieRepository interface {
	MovieStore
	Create(ctx context.Context, m *model.Movie) error
	GetByID(ctx context.Context, id uint64) (*model.Movie, error)
	GetByTitle(ctx context.Context, title string) (*model.Movie, error)
	List(ctx context.Context) ([]model.Movie, error)
	UpdatePosterURL(ctx context.Context, id uint64, url string) error
}

// ShowtimeRepository is the showtime storage used by Service.
type ShowtimeRepository interface {
	ShowtimeStore
	Create(ctx context.Context, s *model.Showtime) error
	ListByMovie(ctx context.Context, movieID uint64) ([]model.Showtime, error)
	ListAll(ctx context.Context) ([]model.Showtime, error)
}

// Storage sentinels surfaced unchanged by Service.
var (
	ErrMovieNotFound  = repository.ErrMovieNotFound
	ErrShowtimeExists = repository.ErrShowtimeExists
	ErrTitleExists    = repository.ErrTitleExists
)

// Service exposes the catalog operations behind the HTTP and CLI layers.
type Service struct {
	Movies    MovieRepository
	Showtimes ShowtimeRepository
	Posters   *Posters
	Logger    zerolog.Logger
}

// NewShowtime is a user-supplied showtime for AddShowtime.
type NewShowtime struct {
	Date       string `json:"date" validate:"required"`
	Time       string `json:"time" validate:"required"`
	CinemaHall string `json:"cinema_hall" validate:"required,max=255"`
}

// NewMovie is a staff-supplied movie for CreateMovie.  Only the title is
// required.
type NewMovie struct {
	Title     string   `json:"title" validate:"required,max=255"`
	Genre     *string  `json:"genre" validate:"omitempty,max=100"`
	Duration  *int     `json:"duration" validate:"omitempty,gte=0,lte=100000"`
	Rating    *float64 `json:"rating" validate:"omitempty,gte=0,lte=99.9"`
	PosterURL *string  `json:"poster_url" validate:"omitempty,url,max=500"`
}

// Ingestor returns an Ingestor over the service's stores.
func (s *Service) Ingestor() *Ingestor {
	return &Ingestor{Movies: s.Movies, Showtimes: s.Showtimes, Logger: s.Logger}
}

// Ingest runs a catalog payload on behalf of a staff principal.
func (s *Service) Ingest(ctx context.Context, p *model.Principal, entries []Entry) (Report, error) {
	if err := p.Authorize(true); err != nil {
		return Report{}, err
	}
	return s.Ingestor().Ingest(ctx, entries)
}

// ListWithShowtimes returns every movie, ordered by title, with its
// showtimes in schedule order.
func (s *Service) ListWithShowtimes(ctx context.Context) ([]model.MovieWithShowtimes, error) {
	movies, err := s.Movies.List(ctx)
	if err != nil {
		return nil, err
	}
	all, err := s.Showtimes.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	byMovie := make(map[uint64][]model.Showtime, len(movies))
	for _, st := range all {
		byMovie[st.MovieID] = append(byMovie[st.MovieID], st)
	}
	out := make([]model.MovieWithShowtimes, 0, len(movies))
	for _, m := range movies {
		sts := byMovie[m.ID]
		if sts == nil {
			sts = []model.Showtime{}
		}
		out = append(out, model.MovieWithShowtimes{Movie: m, Showtimes: sts})
	}
	return out, nil
}

// GetWithShowtimes returns one movie with its showtimes.
func (s *Service) GetWithShowtimes(ctx context.Context, id uint64) (*model.MovieWithShowtimes, error) {
	m, err := s.Movies.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	sts, err := s.Showtimes.ListByMovie(ctx, id)
	if err != nil {
		return nil, err
	}
	if sts == nil {
		sts = []model.Showtime{}
	}
	return &model.MovieWithShowtimes{Movie: *m, Showtimes: sts}, nil
}

// PosterURL resolves the poster displayed for m.
func (s *Service) PosterURL(m model.Movie) string { return s.Posters.URLFor(m) }

// AddShowtime schedules a showtime for an existing movie.  The principal
// is checked first, then the movie, then the payload.
func (s *Service) AddShowtime(ctx context.Context, p *model.Principal, movieID uint64, in NewShowtime) (*model.Showtime, error) {
	if err := s.CheckShowtimeTarget(ctx, p, movieID); err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	date, err := NormalizeDate(in.Date)
	if err != nil {
		return nil, model.NewValidationError("date", "must be a date in YYYY-MM-DD form")
	}
	tm, err := NormalizeTime(in.Time)
	if err != nil {
		return nil, model.NewValidationError("time", "must be a time in HH:MM form")
	}
	st := &model.Showtime{
		MovieID:    movieID,
		CinemaHall: strings.TrimSpace(in.CinemaHall),
		Date:       &date,
		Time:       &tm,
	}
	if st.CinemaHall == "" {
		return nil, model.NewValidationError("cinema_hall", "is required")
	}
	if err := s.Showtimes.Create(ctx, st); err != nil {
		return nil, err
	}
	s.Logger.Info().Uint64("user_id", p.UserID).Uint64("movie_id", movieID).
		Uint64("showtime_id", st.ID).Msg("showtime added")
	return st, nil
}

// CheckShowtimeTarget reports whether p may add a showtime to movieID:
// the principal must be active and the movie must exist.
func (s *Service) CheckShowtimeTarget(ctx context.Context, p *model.Principal, movieID uint64) error {
	if err := p.Authorize(false); err != nil {
		return err
	}
	_, err := s.Movies.GetByID(ctx, movieID)
	return err
}

// CreateMovie adds a movie on behalf of a staff principal.  Omitted
// fields stay NULL.
func (s *Service) CreateMovie(ctx context.Context, p *model.Principal, in NewMovie) (*model.Movie, error) {
	if err := p.Authorize(true); err != nil {
		return nil, err
	}
	in.Title = strings.TrimSpace(in.Title)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	m := &model.Movie{
		Title:     in.Title,
		Genre:     in.Genre,
		Duration:  in.Duration,
		Rating:    in.Rating,
		PosterURL: in.PosterURL,
	}
	if err := s.Movies.Create(ctx, m); err != nil {
		return nil, err
	}
	s.Logger.Info().Uint64("user_id", p.UserID).Uint64("movie_id", m.ID).Str("title", m.Title).Msg("movie created")
	return m, nil
}

// BackfillReport summarizes a poster backfill.
type BackfillReport struct {
	Updated   []string `json:"updated"`
	Unchanged []string `json:"unchanged"`
	Missing   []string `json:"missing"`
}

// BackfillPosters stores the poster table's URL on every movie whose
// title appears in the table.  Titles without a movie are reported as
// missing.
func (s *Service) BackfillPosters(ctx context.Context) (BackfillReport, error) {
	rep := BackfillReport{Updated: []string{}, Unchanged: []string{}, Missing: []string{}}
	for _, title := range s.Posters.Titles() {
		url, _ := s.Posters.Lookup(title)
		m, err := s.Movies.GetByTitle(ctx, title)
		if err != nil {
			if errors.Is(err, ErrMovieNotFound) {
				rep.Missing = append(rep.Missing, title)
				s.Logger.Warn().Str("title", title).Msg("poster backfill: movie not found")
				continue
			}
			return rep, err
		}
		if m.PosterURL != nil && *m.PosterURL == url {
			rep.Unchanged = append(rep.Unchanged, title)
			continue
		}
		if err := s.Movies.UpdatePosterURL(ctx, m.ID, url); err != nil {
			return rep, err
		}
		rep.Updated = append(rep.Updated, title)
		s.Logger.Info().Uint64("movie_id", m.ID).Str("title", title).Msg("poster URL updated")
	}
	return rep, nil
}

// BackfillPostersAs runs BackfillPosters on behalf of a staff principal.
func (s *Service) BackfillPostersAs(ctx context.Context, p *model.Principal) (BackfillReport, error) {
	if err := p.Authorize(true); err != nil {
		return BackfillReport{}, err
	}
	return s.BackfillPosters(ctx)
}
