package middleware

import (
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/pos-backoffice/internal/service"
)

// StatusFor maps a service error to its HTTP status.
func StatusFor(err error) int {
    switch {
    case errors.Is(err, service.ErrUserNotFound):
        // the client shows this under the forgot-password form
        return http.StatusBadRequest
    case errors.Is(err, service.ErrValidation),
        errors.Is(err, service.ErrAuth),
        errors.Is(err, service.ErrConflict):
        return http.StatusBadRequest
    case errors.Is(err, service.ErrForbidden):
        return http.StatusForbidden
    case errors.Is(err, service.ErrNotFound):
        return http.StatusNotFound
    default:
        return http.StatusInternalServerError
    }
}

// WriteError replies with {message} for err.  Server-side failures are
// logged with their internal cause; the client only sees the public text.
func WriteError(c echo.Context, log *logrus.Entry, err error, fallback string) error {
    status := StatusFor(err)
    if status >= http.StatusInternalServerError {
        log.WithError(err).WithFields(logrus.Fields{
            "path":       c.Path(),
            "username":   Username(c),
            "request_id": c.Response().Header().Get(echo.HeaderXRequestID),
        }).Error("request failed")
    }
    return c.JSON(status, echo.Map{"message": service.PublicMessage(err, fallback)})
}
