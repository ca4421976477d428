package catalog

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/iliyamo/movie-booking/internal/model"
)

// MovieStore finds a movie by title or creates it.  On return m holds the
// stored row and created reports whether it was inserted.
type MovieStore interface {
	GetOrCreate(ctx context.Context, m *model.Movie) (created bool, err error)
}

// ShowtimeStore finds a showtime by movie, date, time and hall or creates
// it, setting s.ID in both cases.
type ShowtimeStore interface {
	GetOrCreate(ctx context.Context, s *model.Showtime) (created bool, err error)
}

// Warning describes one skipped entry or showtime.  Warnings never abort
// an ingestion run.
//
// Fields:
//  Entry    – index of the entry in the payload.
//  Showtime – index of the showtime inside the entry, nil for entry-level warnings.
//  Field    – JSON field at fault.
//  Message  – human-readable reason.
type Warning struct {
	Entry    int    `json:"entry"`
	Showtime *int   `json:"showtime,omitempty"`
	Field    string `json:"field"`
	Message  string `json:"message"`
}

func (w *Warning) Error() string { return w.Field + ": " + w.Message }

// Report summarizes an ingestion run.
type Report struct {
	MoviesCreated     int       `json:"movies_created"`
	MoviesExisting    int       `json:"movies_existing"`
	ShowtimesCreated  int       `json:"showtimes_created"`
	ShowtimesExisting int       `json:"showtimes_existing"`
	EntriesSkipped    int       `json:"entries_skipped"`
	Warnings          []Warning `json:"warnings"`
}

// Ingestor applies catalog entries to storage.
type Ingestor struct {
	Movies    MovieStore
	Showtimes ShowtimeStore
	Logger    zerolog.Logger
}

// Ingest processes entries in order.  A malformed entry or showtime is
// skipped with a warning; a storage error stops the run and is returned
// together with the report of the work done so far.
func (ing *Ingestor) Ingest(ctx context.Context, entries []Entry) (Report, error) {
	rep := Report{Warnings: []Warning{}}
	for i, e := range entries {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		in, warns, err := e.Parse()
		if err != nil {
			w := asWarning(err)
			w.Entry = i
			rep.Warnings = append(rep.Warnings, w)
			rep.EntriesSkipped++
			ing.Logger.Warn().Int("entry", i).Str("field", w.Field).Msg("skipping movie: " + w.Message)
			continue
		}
		if err := ing.ingestOne(ctx, i, in, &rep); err != nil {
			return rep, err
		}
		for _, w := range warns {
			w.Entry = i
			rep.Warnings = append(rep.Warnings, w)
			ing.Logger.Warn().Int("entry", i).Str("title", in.Title).Str("field", w.Field).
				Msg("skipping showtime: " + w.Message)
		}
	}
	ing.Logger.Info().
		Int("movies_created", rep.MoviesCreated).
		Int("movies_existing", rep.MoviesExisting).
		Int("showtimes_created", rep.ShowtimesCreated).
		Int("showtimes_existing", rep.ShowtimesExisting).
		Int("warnings", len(rep.Warnings)).
		Msg("catalog ingestion completed")
	return rep, nil
}

func (ing *Ingestor) ingestOne(ctx context.Context, idx int, in MovieInput, rep *Report) error {
	genre, duration, rating := in.Genre, in.Duration, in.Rating
	m := &model.Movie{
		Title:     in.Title,
		Genre:     &genre,
		Duration:  &duration,
		Rating:    &rating,
		PosterURL: in.PosterURL,
	}
	created, err := ing.Movies.GetOrCreate(ctx, m)
	if err != nil {
		ing.Logger.Error().Err(err).Int("entry", idx).Str("title", in.Title).Msg("ingestion aborted")
		return err
	}
	if created {
		rep.MoviesCreated++
		ing.Logger.Info().Uint64("movie_id", m.ID).Str("title", m.Title).Msg("added movie")
	} else {
		rep.MoviesExisting++
		ing.Logger.Info().Uint64("movie_id", m.ID).Str("title", m.Title).Msg("movie already exists")
	}

	for _, st := range in.Showtimes {
		s := &model.Showtime{
			MovieID:    m.ID,
			CinemaHall: st.CinemaHall,
			Date:       model.StrPtr(st.Date),
			Time:       model.StrPtr(st.Time),
		}
		created, err := ing.Showtimes.GetOrCreate(ctx, s)
		if err != nil {
			ing.Logger.Error().Err(err).Int("entry", idx).Str("title", in.Title).
				Str("date", st.Date).Str("time", st.Time).Msg("ingestion aborted")
			return err
		}
		ev := ing.Logger.Info().Uint64("showtime_id", s.ID).Str("title", m.Title).
			Str("hall", st.CinemaHall).Str("date", st.Date).Str("time", st.Time)
		if created {
			rep.ShowtimesCreated++
			ev.Msg("added showtime")
		} else {
			rep.ShowtimesExisting++
			ev.Msg("showtime already exists")
		}
	}
	return nil
}

func asWarning(err error) Warning {
	if w, ok := err.(*Warning); ok {
		return *w
	}
	return Warning{Field: "entry", Message: err.Error()}
}
