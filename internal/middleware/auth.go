package middleware // middleware provides shared request processing for handlers

import (
    "context"
    "database/sql"
    "errors"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog/log"

    "github.com/iliyamo/movie-booking/internal/model"
    "github.com/iliyamo/movie-booking/internal/utils"
)

// Context keys set by the authentication middleware.
const (
    ctxUserID    = "user_id"   // uint64, from the token subject
    ctxStaff     = "staff"     // bool, staff claim of the token
    ctxPrincipal = "principal" // *model.Principal, built by LoadPrincipal
)

// UserLookup loads the current users row for a principal.
type UserLookup interface {
    GetByID(ctx context.Context, id uint64) (model.User, error)
}

// JWTAuth validates a Bearer access token signed with secret and stores
// its subject and staff claims in the context.  Requests without a valid
// token are rejected with 401.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get(echo.HeaderAuthorization)
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            claims, err := utils.ParseAccessToken(secret, strings.TrimPrefix(auth, "Bearer "))
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }
            c.Set(ctxUserID, claims.UserID)
            c.Set(ctxStaff, claims.Staff)
            return next(c)
        }
    }
}

// LoadPrincipal resolves the token subject to the current users row so
// that deactivation and staff changes take effect immediately.  It must
// run after JWTAuth.  A subject with no users row is rejected with 401.
func LoadPrincipal(users UserLookup) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            id, ok := UserIDFrom(c)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
            }
            u, err := users.GetByID(c.Request().Context(), id)
            if err != nil {
                if errors.Is(err, sql.ErrNoRows) {
                    return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unknown user"})
                }
                log.Error().Err(err).Uint64("user_id", id).Msg("load principal")
                return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
            }
            c.Set(ctxPrincipal, u.Principal())
            return next(c)
        }
    }
}

// RequireStaff rejects principals without the staff flag with 403.  It
// must run after LoadPrincipal.
func RequireStaff() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            p := PrincipalFrom(c)
            if p == nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
            }
            if !p.IsActive || !p.IsStaff {
                return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
            }
            return next(c)
        }
    }
}

// UserIDFrom returns the authenticated user ID stored by JWTAuth.
func UserIDFrom(c echo.Context) (uint64, bool) {
    id, ok := c.Get(ctxUserID).(uint64)
    return id, ok && id > 0
}

// PrincipalFrom returns the principal stored by LoadPrincipal, or nil.
func PrincipalFrom(c echo.Context) *model.Principal {
    p, _ := c.Get(ctxPrincipal).(*model.Principal)
    return p
}
