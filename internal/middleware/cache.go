package middleware

import (
    "bytes"
    "context"
    "crypto/sha1"
    "encoding/json"
    "fmt"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "github.com/rs/zerolog/log"

    "github.com/iliyamo/movie-booking/internal/config"
)

// cachedResponse is the Redis value stored for one cached response.
type cachedResponse struct {
    Status int         `json:"s"`
    Header http.Header `json:"h"`
    Body   []byte      `json:"b"`
}

// captureWriter tees the response body into buf, up to limit bytes,
// while forwarding everything to the client.  overflow is set once the
// body exceeds limit so the response is not cached truncated.
type captureWriter struct {
    http.ResponseWriter
    status   int
    buf      bytes.Buffer
    limit    int
    overflow bool
}

func (cw *captureWriter) WriteHeader(code int) {
    cw.status = code
    cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
    if !cw.overflow {
        if cw.limit > 0 && cw.buf.Len()+len(b) > cw.limit {
            cw.overflow = true
            cw.buf.Reset()
        } else {
            cw.buf.Write(b)
        }
    }
    return cw.ResponseWriter.Write(b)
}

// cacheKey derives the Redis key for a request from the configured
// strategy.  The variable part is hashed to keep keys short.
func cacheKey(cfg config.CacheConfig, c echo.Context) string {
    r := c.Request()
    var tail string
    switch strings.ToLower(cfg.KeyStrategy) {
    case "route":
        tail = "route:" + c.Path()
    case "full_url":
        tail = "url:" + r.URL.RequestURI()
    default: // route_query
        tail = "route:" + c.Path() + ":q:" + r.URL.Query().Encode()
    }
    // Path parameters distinguish /v1/movies/1 from /v1/movies/2 under
    // the route strategies.
    for _, name := range c.ParamNames() {
        tail += ":" + name + "=" + c.Param(name)
    }
    sum := sha1.Sum([]byte(r.Method + " " + tail))
    return fmt.Sprintf("%s:%x", cfg.Prefix, sum[:])
}

// NewRedisCache caches successful responses of the configured methods in
// Redis for cfg.TTL.  Hits are answered with X-Cache: HIT.  When caching
// is disabled or rdb is nil the middleware is a pass-through.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return passThrough
    }
    ttl := cfg.TTL
    if ttl <= 0 {
        ttl = 30 * time.Second
    }

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if !cfg.Methods[c.Request().Method] {
                return next(c)
            }
            ctx := c.Request().Context()
            key := cacheKey(cfg, c)

            if bs, err := rdb.Get(ctx, key).Bytes(); err == nil {
                var cr cachedResponse
                if json.Unmarshal(bs, &cr) == nil && cr.Status > 0 {
                    h := c.Response().Header()
                    for k, vals := range cr.Header {
                        if strings.EqualFold(k, echo.HeaderContentLength) {
                            continue
                        }
                        h[k] = vals
                    }
                    h.Set("X-Cache", "HIT")
                    return c.Blob(cr.Status, h.Get(echo.HeaderContentType), cr.Body)
                }
            } else if err != redis.Nil {
                log.Warn().Err(err).Str("key", key).Msg("cache read failed")
            }

            cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
            c.Response().Writer = cw
            c.Response().Header().Set("X-Cache", "MISS")
            if err := next(c); err != nil {
                return err
            }
            if cw.status != http.StatusOK || cw.overflow {
                return nil
            }

            hdr := c.Response().Header().Clone()
            hdr.Del("X-Cache")
            payload, err := json.Marshal(cachedResponse{Status: cw.status, Header: hdr, Body: cw.buf.Bytes()})
            if err != nil {
                return nil
            }
            // The request context may already be canceled once the
            // client has its response.
            if err := rdb.Set(context.WithoutCancel(ctx), key, payload, ttl).Err(); err != nil {
                log.Warn().Err(err).Str("key", key).Msg("cache write failed")
            }
            return nil
        }
    }
}

// PurgeCache removes every cached response under cfg.Prefix.  It is
// called after catalog writes so that listings are not served stale.
func PurgeCache(ctx context.Context, cfg config.CacheConfig, rdb *redis.Client) error {
    if rdb == nil {
        return nil
    }
    iter := rdb.Scan(ctx, 0, cfg.Prefix+":*", 100).Iterator()
    var keys []string
    for iter.Next(ctx) {
        keys = append(keys, iter.Val())
    }
    if err := iter.Err(); err != nil {
        return err
    }
    if len(keys) == 0 {
        return nil
    }
    return rdb.Del(ctx, keys...).Err()
}

func passThrough(next echo.HandlerFunc) echo.HandlerFunc { return next }
