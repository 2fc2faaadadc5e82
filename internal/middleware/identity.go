package middleware

// identity.go holds the context keys shared by the middleware chain and the
// handlers: the verified session claims, the signed-in username and the
// tenant pool resolved for the request.

import (
    "github.com/jmoiron/sqlx"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/pos-backoffice/internal/database"
    "github.com/iliyamo/pos-backoffice/internal/utils"
)

const (
    ctxClaims   = "session_claims"
    ctxUsername = "username"
    ctxTenantDB = "tenant_db"
    ctxTarget   = "tenant_target"
)

// Claims returns the session claims stored by JWTAuth, or nil.
func Claims(c echo.Context) *utils.SessionClaims {
    cl, _ := c.Get(ctxClaims).(*utils.SessionClaims)
    return cl
}

// Username returns the signed-in username, or "" on public routes.
func Username(c echo.Context) string {
    s, _ := c.Get(ctxUsername).(string)
    return s
}

// TenantDB returns the tenant pool bound by Tenant, or nil.
func TenantDB(c echo.Context) *sqlx.DB {
    db, _ := c.Get(ctxTenantDB).(*sqlx.DB)
    return db
}

// TenantTarget returns the tenant server bound by Tenant.
func TenantTarget(c echo.Context) database.Target {
    t, _ := c.Get(ctxTarget).(database.Target)
    return t
}

// userID identifies the caller for rate limit and cache keys.  It returns
// "guest" when no user is authenticated.
func userID(c echo.Context) string {
    if u := Username(c); u != "" {
        return u
    }
    return "guest"
}
