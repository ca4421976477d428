package middleware

import (
    "strconv"

    "github.com/labstack/echo/v4"
)

// identity names the caller for rate limit keys: the authenticated user
// ID when JWTAuth has run, otherwise "anon".
func identity(c echo.Context) string {
    if id, ok := UserIDFrom(c); ok {
        return strconv.FormatUint(id, 10)
    }
    return "anon"
}
