package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/movie-booking/internal/middleware"
)

// RegisterMovies registers the catalog browse routes, which are public and
// cached, and the authenticated add-showtime route.
func RegisterMovies(e *echo.Echo, d Deps) {
    m := d.Movies
    cache := middleware.NewRedisCache(d.Cache, d.Redis)
    e.GET("/v1/movies", m.List, cache)
    e.GET("/v1/movies/:id", m.Get, cache)

    g := e.Group("/v1/movies", d.protected()...)
    g.POST("/:id/showtimes", m.AddShowtime)
}
