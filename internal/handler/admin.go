package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/movie-booking/internal/catalog"
    "github.com/iliyamo/movie-booking/internal/middleware"
)

// maxCatalogBytes caps the size of an uploaded catalog payload.
const maxCatalogBytes = 8 << 20

// AdminHandler serves the staff catalog actions.
type AdminHandler struct {
    Catalog *catalog.Service
    Movies  *MovieHandler // shared response mapping
    Purge   func(echo.Context)
}

func (h *AdminHandler) purge(c echo.Context) {
    if h.Purge != nil {
        h.Purge(c)
    }
}

// CreateMovie adds a movie.  Only the title is required.
func (h *AdminHandler) CreateMovie(c echo.Context) error {
    var req catalog.NewMovie
    if err := c.Bind(&req); err != nil {
        return respondError(c, bindFailure(err))
    }
    ctx, cancel := dbContext(c)
    defer cancel()

    m, err := h.Catalog.CreateMovie(ctx, middleware.PrincipalFrom(c), req)
    if err != nil {
        return respondError(c, err)
    }
    h.purge(c)
    return c.JSON(http.StatusCreated, h.Movies.toMovieResp(*m, nil))
}

// Ingest runs the catalog ingestor on the request body.  The response is
// the ingestion report, including per-entry warnings.
func (h *AdminHandler) Ingest(c echo.Context) error {
    body := http.MaxBytesReader(c.Response(), c.Request().Body, maxCatalogBytes)
    entries, err := catalog.Decode(body)
    if err != nil {
        return respondError(c, err)
    }
    // Ingestion may touch many rows; it is bounded by the request context only.
    rep, err := h.Catalog.Ingest(c.Request().Context(), middleware.PrincipalFrom(c), entries)
    if err != nil {
        return respondError(c, err)
    }
    h.purge(c)
    return c.JSON(http.StatusOK, rep)
}

// BackfillPosters copies poster table URLs onto matching movies.
func (h *AdminHandler) BackfillPosters(c echo.Context) error {
    ctx, cancel := dbContext(c)
    defer cancel()

    rep, err := h.Catalog.BackfillPostersAs(ctx, middleware.PrincipalFrom(c))
    if err != nil {
        return respondError(c, err)
    }
    h.purge(c)
    return c.JSON(http.StatusOK, rep)
}
