package router

import (
    "github.com/labstack/echo/v4"
)

// RegisterBookings registers the booking endpoints.  All routes require a
// valid JWT; the caller's account state is checked by the processor.
func RegisterBookings(e *echo.Echo, d Deps) {
    b := d.Bookings
    mw := append(d.protected(), d.limiter())
    g := e.Group("/v1", mw...)
    g.POST("/showtimes/:id/bookings", b.Book)
    g.GET("/bookings", b.List)
    g.DELETE("/bookings", b.DeleteAll)
    g.DELETE("/bookings/:id", b.Delete)
}
