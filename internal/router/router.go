package router // package router defines how HTTP routes are registered for the API

import (
    "context"
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"
    "github.com/redis/go-redis/v9"
    "github.com/rs/zerolog/log"

    "github.com/iliyamo/movie-booking/internal/config"
    "github.com/iliyamo/movie-booking/internal/handler"
    "github.com/iliyamo/movie-booking/internal/middleware"
    "github.com/iliyamo/movie-booking/internal/validation"
)

// Deps carries everything the routes need.  Redis may be nil, in which
// case caching and rate limiting are disabled.
type Deps struct {
    Cfg       config.Config
    Cache     config.CacheConfig
    RateLimit config.RateLimitConfig
    Redis     *redis.Client
    DB        handler.Pinger
    Users     middleware.UserLookup

    Auth     *handler.AuthHandler
    Movies   *handler.MovieHandler
    Bookings *handler.BookingHandler
    Admin    *handler.AdminHandler
}

// New builds the Echo instance with every route registered.
func New(d Deps) *echo.Echo {
    e := echo.New()
    e.HideBanner = true
    e.Validator = validation.Echo{}
    e.Use(echomw.Recover())
    e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
    e.Use(requestLogger())

    purge := d.purger()
    if d.Movies != nil {
        d.Movies.Purge = purge
    }
    if d.Admin != nil {
        d.Admin.Purge = purge
    }

    RegisterRoutes(e, d.DB)
    RegisterAuth(e, d)
    RegisterMovies(e, d)
    RegisterBookings(e, d)
    RegisterAdmin(e, d)
    return e
}

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
    e.GET("/healthz", handler.Health(db))
}

// protected returns the middleware chain shared by every authenticated
// route: token check, then the current users row.
func (d Deps) protected() []echo.MiddlewareFunc {
    return []echo.MiddlewareFunc{
        middleware.JWTAuth(d.Cfg.JWTSecret),
        middleware.LoadPrincipal(d.Users),
    }
}

func (d Deps) limiter() echo.MiddlewareFunc {
    return middleware.NewTokenBucket(d.RateLimit, d.Redis)
}

// purger drops cached catalog responses.  Failures only cost staleness
// until the TTL expires.
func (d Deps) purger() func(echo.Context) {
    return func(c echo.Context) {
        if d.Redis == nil || !d.Cache.Enabled {
            return
        }
        ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request().Context()), 2*time.Second)
        defer cancel()
        if err := middleware.PurgeCache(ctx, d.Cache, d.Redis); err != nil {
            log.Warn().Err(err).Msg("cache purge failed")
        }
    }
}

func requestLogger() echo.MiddlewareFunc {
    return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
        LogMethod:    true,
        LogURI:       true,
        LogStatus:    true,
        LogLatency:   true,
        LogRequestID: true,
        LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
            log.Info().
                Str("request_id", v.RequestID).
                Str("method", v.Method).
                Str("uri", v.URI).
                Int("status", v.Status).
                Dur("latency", v.Latency).
                Msg("request")
            return nil
        },
    })
}
