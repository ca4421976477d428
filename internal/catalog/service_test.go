package catalog_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-booking/internal/catalog"
	"github.com/iliyamo/movie-booking/internal/model"
)

var (
	member   = &model.Principal{UserID: 1, IsActive: true}
	staff    = &model.Principal{UserID: 2, IsActive: true, IsStaff: true}
	inactive = &model.Principal{UserID: 3}
)

func newService(t *testing.T, posters string) (*catalog.Service, *memMovies, *memShowtimes) {
	t.Helper()
	p, err := catalog.ParsePosters([]byte(posters))
	require.NoError(t, err)
	movies, shows := newMemMovies(), &memShowtimes{}
	return &catalog.Service{Movies: movies, Showtimes: shows, Posters: p, Logger: zerolog.Nop()}, movies, shows
}

func TestDefaultPostersLoad(t *testing.T) {
	p, err := catalog.DefaultPosters()
	require.NoError(t, err)
	assert.Greater(t, p.Len(), 0)
	_, ok := p.Lookup("Dune")
	assert.True(t, ok)

	same, err := catalog.LoadPosters("")
	require.NoError(t, err)
	assert.Equal(t, p.Len(), same.Len())
}

func TestLoadPostersFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "posters.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"Heat": "https://img/heat.jpg"}`), 0o600))

	p, err := catalog.LoadPosters(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Heat"}, p.Titles())

	_, err = catalog.LoadPosters(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
	_, err = catalog.ParsePosters([]byte(`["not", "an", "object"]`))
	assert.Error(t, err)
}

func TestURLForFallbacks(t *testing.T) {
	p, err := catalog.ParsePosters([]byte(`{"Heat": "https://img/heat.jpg"}`))
	require.NoError(t, err)

	assert.Equal(t, "https://stored/x.jpg", p.URLFor(model.Movie{Title: "Heat", PosterURL: model.StrPtr("https://stored/x.jpg")}))
	assert.Equal(t, "https://img/heat.jpg", p.URLFor(model.Movie{Title: "Heat"}))
	assert.Equal(t, "https://img/heat.jpg", p.URLFor(model.Movie{Title: "Heat", PosterURL: model.StrPtr("")}))
	assert.Equal(t, catalog.PlaceholderPoster, p.URLFor(model.Movie{Title: "Ran"}))

	var none *catalog.Posters
	assert.Equal(t, catalog.PlaceholderPoster, none.URLFor(model.Movie{Title: "Heat"}))
}

func TestListWithShowtimesGroupsByMovie(t *testing.T) {
	svc, _, _ := newService(t, `{}`)
	ctx := context.Background()
	_, err := svc.Ingestor().Ingest(ctx, decode(t, `[
		{"title": "Dune", "showtimes": [{"date": "2024-01-01", "time": "18:00"}, {"date": "2024-01-02", "time": "18:00"}]},
		{"title": "Alien"}
	]`))
	require.NoError(t, err)

	list, err := svc.ListWithShowtimes(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Alien", list[0].Title)
	assert.NotNil(t, list[0].Showtimes)
	assert.Empty(t, list[0].Showtimes)
	assert.Equal(t, "Dune", list[1].Title)
	assert.Len(t, list[1].Showtimes, 2)

	one, err := svc.GetWithShowtimes(ctx, list[1].ID)
	require.NoError(t, err)
	assert.Len(t, one.Showtimes, 2)

	_, err = svc.GetWithShowtimes(ctx, 999)
	assert.ErrorIs(t, err, catalog.ErrMovieNotFound)
}

func TestAddShowtime(t *testing.T) {
	svc, movies, shows := newService(t, `{}`)
	ctx := context.Background()
	m := &model.Movie{Title: "Dune"}
	require.NoError(t, movies.Create(ctx, m))
	in := catalog.NewShowtime{Date: "2024-01-01", Time: "18:00:00", CinemaHall: "Hall A"}

	_, err := svc.AddShowtime(ctx, nil, m.ID, in)
	assert.ErrorIs(t, err, model.ErrNotAuthenticated)
	_, err = svc.AddShowtime(ctx, inactive, m.ID, in)
	assert.ErrorIs(t, err, model.ErrInactiveAccount)
	_, err = svc.AddShowtime(ctx, member, 999, in)
	assert.ErrorIs(t, err, catalog.ErrMovieNotFound)

	st, err := svc.AddShowtime(ctx, member, m.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "18:00", *st.Time)
	assert.Len(t, shows.rows, 1)

	_, err = svc.AddShowtime(ctx, member, m.ID, in)
	assert.ErrorIs(t, err, catalog.ErrShowtimeExists)
}

func TestAddShowtimeValidation(t *testing.T) {
	svc, movies, shows := newService(t, `{}`)
	ctx := context.Background()
	m := &model.Movie{Title: "Dune"}
	require.NoError(t, movies.Create(ctx, m))

	cases := map[string]catalog.NewShowtime{
		"date":        {Date: "2024-13-01", Time: "18:00", CinemaHall: "A"},
		"time":        {Date: "2024-01-01", Time: "6pm", CinemaHall: "A"},
		"cinema_hall": {Date: "2024-01-01", Time: "18:00", CinemaHall: "   "},
	}
	for field, in := range cases {
		_, err := svc.AddShowtime(ctx, member, m.ID, in)
		var ve *model.ValidationError
		require.ErrorAs(t, err, &ve, field)
		assert.Contains(t, ve.Fields, field)
	}

	_, err := svc.AddShowtime(ctx, member, m.ID, catalog.NewShowtime{})
	var ve *model.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Fields, 3)
	assert.Empty(t, shows.rows)
}

func TestCreateMovie(t *testing.T) {
	svc, _, _ := newService(t, `{}`)
	ctx := context.Background()

	_, err := svc.CreateMovie(ctx, member, catalog.NewMovie{Title: "Heat"})
	assert.ErrorIs(t, err, model.ErrNotStaff)

	_, err = svc.CreateMovie(ctx, staff, catalog.NewMovie{Title: " "})
	var ve *model.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "is required", ve.Fields["title"])

	m, err := svc.CreateMovie(ctx, staff, catalog.NewMovie{Title: " Heat "})
	require.NoError(t, err)
	assert.Equal(t, "Heat", m.Title)
	assert.Nil(t, m.Genre)

	_, err = svc.CreateMovie(ctx, staff, catalog.NewMovie{Title: "Heat"})
	assert.ErrorIs(t, err, catalog.ErrTitleExists)
}

func TestBackfillPosters(t *testing.T) {
	svc, movies, _ := newService(t, `{"Dune": "https://img/dune.jpg", "Heat": "https://img/heat.jpg", "Ran": "https://img/ran.jpg"}`)
	ctx := context.Background()
	require.NoError(t, movies.Create(ctx, &model.Movie{Title: "Dune"}))
	require.NoError(t, movies.Create(ctx, &model.Movie{Title: "Heat", PosterURL: model.StrPtr("https://img/heat.jpg")}))

	_, err := svc.BackfillPostersAs(ctx, member)
	assert.ErrorIs(t, err, model.ErrNotStaff)

	rep, err := svc.BackfillPostersAs(ctx, staff)
	require.NoError(t, err)
	assert.Equal(t, []string{"Dune"}, rep.Updated)
	assert.Equal(t, []string{"Heat"}, rep.Unchanged)
	assert.Equal(t, []string{"Ran"}, rep.Missing)

	d, err := movies.GetByTitle(ctx, "Dune")
	require.NoError(t, err)
	assert.Equal(t, "https://img/dune.jpg", *d.PosterURL)
}

func TestIngestRequiresStaff(t *testing.T) {
	svc, movies, _ := newService(t, `{}`)
	_, err := svc.Ingest(context.Background(), member, decode(t, dune))
	assert.ErrorIs(t, err, model.ErrNotStaff)
	assert.Empty(t, movies.rows)

	rep, err := svc.Ingest(context.Background(), staff, decode(t, dune))
	require.NoError(t, err)
	assert.Equal(t, 1, rep.MoviesCreated)
}

func TestCheckShowtimeTarget(t *testing.T) {
	svc, movies, _ := newService(t, `{}`)
	ctx := context.Background()
	m := &model.Movie{Title: "Heat"}
	require.NoError(t, movies.Create(ctx, m))

	assert.ErrorIs(t, svc.CheckShowtimeTarget(ctx, nil, m.ID), model.ErrNotAuthenticated)
	assert.ErrorIs(t, svc.CheckShowtimeTarget(ctx, inactive, 999), model.ErrInactiveAccount)
	assert.ErrorIs(t, svc.CheckShowtimeTarget(ctx, member, 999), catalog.ErrMovieNotFound)
	assert.NoError(t, svc.CheckShowtimeTarget(ctx, member, m.ID))
}
