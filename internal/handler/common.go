// Package handler exposes the HTTP handlers of the booking API.  Handlers
// bind and validate requests, call into the catalog and booking services
// and translate domain errors into JSON responses.
package handler

import (
    "context"
    "encoding/json"
    "errors"
    "net/http"
    "reflect"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog/log"

    "github.com/iliyamo/movie-booking/internal/catalog"
    "github.com/iliyamo/movie-booking/internal/model"
    "github.com/iliyamo/movie-booking/internal/repository"
)

// dbTimeout bounds the storage work of a single request.
const dbTimeout = 5 * time.Second

func dbContext(c echo.Context) (context.Context, context.CancelFunc) {
    return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// parseID reads a positive numeric path parameter.
func parseID(c echo.Context, name string) (uint64, bool) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    return id, err == nil && id > 0
}

func badID(c echo.Context) error {
    return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
}

func badBody(c echo.Context) error {
    return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
}

// errMalformedBody reports a request body that is not decodable JSON.
var errMalformedBody = errors.New("invalid body")

// bindFailure turns a c.Bind error into the error reported to the client.
// A value of the wrong JSON type becomes a field-level validation error
// for that field.
func bindFailure(err error) error {
    var ute *json.UnmarshalTypeError
    if errors.As(err, &ute) && ute.Field != "" {
        return model.NewValidationError(ute.Field, "must be a valid "+typeName(ute))
    }
    return errMalformedBody
}

func typeName(ute *json.UnmarshalTypeError) string {
    if ute.Type == nil {
        return "value"
    }
    switch ute.Type.Kind() {
    case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
        reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
        return "whole number"
    case reflect.Float32, reflect.Float64:
        return "number"
    case reflect.String:
        return "string"
    case reflect.Bool:
        return "boolean"
    }
    return "value"
}

// respondError maps a domain or storage error to its HTTP response.
// Unrecognized errors are logged and reported as 500.
func respondError(c echo.Context, err error) error {
    var ve *model.ValidationError
    switch {
    case errors.As(err, &ve):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": ve.Fields})
    case errors.Is(err, catalog.ErrMalformedPayload), errors.Is(err, errMalformedBody):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    case errors.Is(err, model.ErrNotAuthenticated):
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": err.Error()})
    case errors.Is(err, model.ErrInactiveAccount),
        errors.Is(err, model.ErrNotStaff),
        errors.Is(err, repository.ErrForbidden):
        return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
    case errors.Is(err, repository.ErrMovieNotFound),
        errors.Is(err, repository.ErrShowtimeNotFound),
        errors.Is(err, repository.ErrBookingNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
    case errors.Is(err, repository.ErrEmailExists),
        errors.Is(err, repository.ErrTitleExists),
        errors.Is(err, repository.ErrShowtimeExists):
        return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
    case errors.Is(err, context.DeadlineExceeded):
        return c.JSON(http.StatusGatewayTimeout, echo.Map{"error": "timeout"})
    }
    log.Error().Err(err).Str("method", c.Request().Method).Str("path", c.Path()).Msg("request failed")
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
