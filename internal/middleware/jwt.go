package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

    "github.com/iliyamo/pos-backoffice/internal/service"
    "github.com/iliyamo/pos-backoffice/internal/utils"
)

// TokenVerifier validates a raw session token.
type TokenVerifier interface {
    VerifyToken(raw string) (*utils.SessionClaims, error)
}

// JWTAuth returns an Echo middleware that validates the Bearer session
// token and injects its claims and username into the request context.
// Every rejection is a 403 with the message the browser client expects:
// no header, a header without a token, or a bad/expired token.
func JWTAuth(v TokenVerifier) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get(echo.HeaderAuthorization)
            if auth == "" {
                return c.JSON(http.StatusForbidden, echo.Map{"message": service.PublicMessage(service.ErrMissingHeader, "")})
            }
            // The token is the second space separated part, as in "Bearer <token>".
            _, raw, _ := strings.Cut(strings.TrimSpace(auth), " ")
            claims, err := v.VerifyToken(strings.TrimSpace(raw))
            if err != nil {
                return c.JSON(http.StatusForbidden, echo.Map{"message": service.PublicMessage(err, "Invalid or expired token")})
            }
            c.Set(ctxClaims, claims)
            c.Set(ctxUsername, claims.Username)
            return next(c)
        }
    }
}
