package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/pos-backoffice/internal/handler"
	"github.com/iliyamo/pos-backoffice/internal/model"
	"github.com/iliyamo/pos-backoffice/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the account endpoints.  Credential endpoints run
// behind the rate limiter; close-connection is called on logout with only a
// username and takes no token.  The connection update needs an admin token
// but no tenant pool, so it sits outside the tenant group.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, verifier middleware.TokenVerifier, limiter echo.MiddlewareFunc) {
	e.POST("/login", a.Login, limiter)
	e.POST("/register", a.Register, limiter)
	e.POST("/forgot-password", a.ForgotPassword, limiter)
	e.POST("/reset-password", a.ResetPassword, limiter)
	e.POST("/close-connection", a.CloseConnection)

	e.PUT("/reset-database-connection", a.ResetDatabaseConnection,
		middleware.JWTAuth(verifier),
		middleware.RequireAdmin(),
	)
}

// TenantGroup returns the group every tenant-scoped endpoint lives in: the
// session token is verified first, then the request is bound to the pool
// of the user's tenant server.
func TenantGroup(e *echo.Echo, verifier middleware.TokenVerifier, tenant echo.MiddlewareFunc) *echo.Group {
	return e.Group("", middleware.JWTAuth(verifier), tenant)
}

// RegisterReports registers the company list and the sales reports.  Only
// the company list is cached; the reports rebuild staging tables on every
// call.
func RegisterReports(g *echo.Group, r *handler.ReportHandler, cache echo.MiddlewareFunc) {
	g.GET("/companies", r.Companies, cache)

	g.GET("/dashboard-data", r.Dashboard)
	g.GET("/department-data", r.Detail(model.DepartmentReport))
	g.GET("/category-data", r.Detail(model.CategoryReport))
	g.GET("/sub-category-data", r.Detail(model.SubCategoryReport))
	g.GET("/vendor-data", r.Detail(model.VendorReport))
}

// RegisterStock registers barcode lookup and the stock count endpoints.
func RegisterStock(g *echo.Group, s *handler.StockHandler) {
	g.GET("/scan", s.Scan)

	// ---- Stock counts ----
	g.POST("/update-temp-sales-table", s.Stage)
	g.GET("/stock-update", s.List)
	g.DELETE("/stock-update-delete", s.Delete)
	g.GET("/final-stock-update", s.Finalize)
}
