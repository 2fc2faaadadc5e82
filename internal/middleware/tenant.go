package middleware

import (
    "context"
    "errors"

    "github.com/jmoiron/sqlx"
    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/pos-backoffice/internal/database"
    "github.com/iliyamo/pos-backoffice/internal/service"
)

// TargetResolver maps a username to its tenant server.
type TargetResolver interface {
    Resolve(ctx context.Context, username string) (database.Target, error)
}

// PoolBorrower pins the pool of a tenant server until done is called.
type PoolBorrower interface {
    Borrow(ctx context.Context, t database.Target) (db *sqlx.DB, done func(), err error)
}

// Tenant binds the request to the tenant pool of the signed-in user.  Each
// request resolves its own target, so concurrent sessions of different
// tenants never share a connection.  The pool stays pinned until the
// handler returns, so a logout elsewhere cannot close it mid-request.  It
// must run after JWTAuth.
func Tenant(targets TargetResolver, pools PoolBorrower, log *logrus.Logger) echo.MiddlewareFunc {
    entry := log.WithField("component", "tenant")
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            ctx := c.Request().Context()
            t, err := targets.Resolve(ctx, Username(c))
            if err != nil {
                if errors.Is(err, service.ErrUserNotFound) {
                    err = service.ErrInvalidToken
                }
                return WriteError(c, entry, err, "Failed to connect to the database")
            }
            db, done, err := pools.Borrow(ctx, t)
            if err != nil {
                return WriteError(c, entry, service.WrapConnection(err), "Failed to connect to the database")
            }
            defer done()
            c.Set(ctxTarget, t)
            c.Set(ctxTenantDB, db)
            return next(c)
        }
    }
}
