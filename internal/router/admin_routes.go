package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/movie-booking/internal/middleware"
)

// RegisterAdmin registers staff-only catalog endpoints under /v1/admin.
func RegisterAdmin(e *echo.Echo, d Deps) {
    a := d.Admin
    mw := append(d.protected(), middleware.RequireStaff())
    g := e.Group("/v1/admin", mw...)
    g.POST("/movies", a.CreateMovie)
    g.POST("/catalog/ingest", a.Ingest)
    g.POST("/posters/backfill", a.BackfillPosters)
}
