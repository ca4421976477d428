package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/movie-booking/internal/catalog"
    "github.com/iliyamo/movie-booking/internal/middleware"
    "github.com/iliyamo/movie-booking/internal/model"
)

// MovieHandler serves the public catalog and the add-showtime action.
type MovieHandler struct {
    Catalog *catalog.Service
    // Purge drops cached listings after a catalog write.  Optional.
    Purge func(echo.Context)
}

// MovieResp is a movie as returned by the API.  PosterURL is always set,
// falling back to the poster table and then a placeholder.
type MovieResp struct {
    ID        uint64         `json:"id"`
    Title     string         `json:"title"`
    Genre     *string        `json:"genre"`
    Duration  *int           `json:"duration"`
    Rating    *float64       `json:"rating"`
    PosterURL string         `json:"poster_url"`
    Showtimes []ShowtimeResp `json:"showtimes,omitempty"`
}

// ShowtimeResp is a showtime as returned by the API.
type ShowtimeResp struct {
    ID         uint64  `json:"id"`
    MovieID    uint64  `json:"movie_id"`
    CinemaHall string  `json:"cinema_hall"`
    Date       *string `json:"date"`
    Time       *string `json:"time"`
}

func toShowtimeResp(s model.Showtime) ShowtimeResp {
    return ShowtimeResp{ID: s.ID, MovieID: s.MovieID, CinemaHall: s.CinemaHall, Date: s.Date, Time: s.Time}
}

func (h *MovieHandler) toMovieResp(m model.Movie, sts []model.Showtime) MovieResp {
    r := MovieResp{
        ID:        m.ID,
        Title:     m.Title,
        Genre:     m.Genre,
        Duration:  m.Duration,
        Rating:    m.Rating,
        PosterURL: h.Catalog.PosterURL(m),
    }
    if sts != nil {
        r.Showtimes = make([]ShowtimeResp, 0, len(sts))
        for _, s := range sts {
            r.Showtimes = append(r.Showtimes, toShowtimeResp(s))
        }
    }
    return r
}

// List returns every movie with its showtimes.
func (h *MovieHandler) List(c echo.Context) error {
    ctx, cancel := dbContext(c)
    defer cancel()

    items, err := h.Catalog.ListWithShowtimes(ctx)
    if err != nil {
        return respondError(c, err)
    }
    out := make([]MovieResp, 0, len(items))
    for _, it := range items {
        out = append(out, h.toMovieResp(it.Movie, it.Showtimes))
    }
    return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// Get returns one movie with its showtimes.
func (h *MovieHandler) Get(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return badID(c)
    }
    ctx, cancel := dbContext(c)
    defer cancel()

    it, err := h.Catalog.GetWithShowtimes(ctx, id)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, h.toMovieResp(it.Movie, it.Showtimes))
}

// AddShowtime schedules a showtime for the movie in the path.
func (h *MovieHandler) AddShowtime(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return badID(c)
    }
    ctx, cancel := dbContext(c)
    defer cancel()
    who := middleware.PrincipalFrom(c)

    var req catalog.NewShowtime
    if err := c.Bind(&req); err != nil {
        if cerr := h.Catalog.CheckShowtimeTarget(ctx, who, id); cerr != nil {
            return respondError(c, cerr)
        }
        return respondError(c, bindFailure(err))
    }

    st, err := h.Catalog.AddShowtime(ctx, who, id, req)
    if err != nil {
        return respondError(c, err)
    }
    if h.Purge != nil {
        h.Purge(c)
    }
    return c.JSON(http.StatusCreated, toShowtimeResp(*st))
}
