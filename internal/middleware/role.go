package middleware // middleware provides shared request processing for handlers

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/pos-backoffice/internal/model"
    "github.com/iliyamo/pos-backoffice/internal/service"
)

// RequireAdmin aborts with 403 unless the session token carries the admin
// flag ("T" or "t").  It must run after JWTAuth.
func RequireAdmin() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            cl := Claims(c)
            if cl == nil || !model.FlagSet(cl.Admin) {
                return c.JSON(http.StatusForbidden, echo.Map{"message": service.PublicMessage(service.ErrAdminOnly, "")})
            }
            return next(c)
        }
    }
}
