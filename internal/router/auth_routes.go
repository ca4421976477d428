package router

import (
    "github.com/labstack/echo/v4"
)

// RegisterAuth registers the account routes.  Token operations live under
// /v1/auth and need no session; the profile lives at /v1/me and requires
// a valid access token.
func RegisterAuth(e *echo.Echo, d Deps) {
    a := d.Auth
    g := e.Group("/v1/auth", d.limiter())
    g.POST("/register", a.Register)
    g.POST("/login", a.Login)
    g.POST("/refresh", a.Refresh)
    // Logout takes a refresh_token body or a Bearer header, so it is not
    // behind JWTAuth.
    g.POST("/logout", a.Logout)

    me := e.Group("/v1/me", d.protected()...)
    me.GET("", a.Me)
    me.PATCH("", a.UpdateMe)
}
