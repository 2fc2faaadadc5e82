package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/pos-backoffice/internal/middleware"
	"github.com/iliyamo/pos-backoffice/internal/model"
	"github.com/iliyamo/pos-backoffice/internal/repository"
	"github.com/iliyamo/pos-backoffice/internal/service"
)

// StockHandler serves barcode lookup and the stock count screens.
type StockHandler struct {
	Stock         *service.StockService
	ProductSchema string
	Log           *logrus.Entry
}

func NewStockHandler(s *service.StockService, productSchema string, log *logrus.Logger) *StockHandler {
	return &StockHandler{Stock: s, ProductSchema: productSchema, Log: log.WithField("handler", "stock")}
}

// stockEntryReq is the body of a staged count.  Numbers may arrive as JSON
// numbers or numeric strings (the quantity field is a text input).
type stockEntryReq struct {
	Company     string              `json:"company"`
	Count       string              `json:"count"`
	Type        string              `json:"type"`
	ProductCode string              `json:"productCode"`
	ProductName string              `json:"productName"`
	CostPrice   decimal.NullDecimal `json:"costPrice"`
	ScalePrice  decimal.NullDecimal `json:"scalePrice"`
	Stock       decimal.NullDecimal `json:"stock"`
	Quantity    decimal.NullDecimal `json:"quantity"`
}

func num(d decimal.NullDecimal) float64 {
	if !d.Valid {
		return 0
	}
	return d.Decimal.InexactFloat64()
}

// Scan looks up a scanned barcode or product code.
func (h *StockHandler) Scan(c echo.Context) error {
	products := repository.NewProductRepo(middleware.TenantDB(c), h.ProductSchema)
	res, err := h.Stock.Scan(c.Request().Context(), products, c.QueryParam("data"), c.QueryParam("company"))
	if err != nil {
		return middleware.WriteError(c, h.Log, err, "Failed to retrieve barcode data")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message":   "Item Found Successfully",
		"salesData": []model.Product{res.Product},
		"amount":    res.OnHand,
	})
}

// Stage records one physical count for the signed-in user.
func (h *StockHandler) Stage(c echo.Context) error {
	var req stockEntryReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	entry := model.StockCount{
		CompanyCode: req.Company,
		CountStatus: req.Count,
		Type:        req.Type,
		ProductCode: req.ProductCode,
		ProductName: req.ProductName,
		CostPrice:   num(req.CostPrice),
		UnitPrice:   num(req.ScalePrice),
		CurStock:    num(req.Stock),
		PhyStock:    num(req.Quantity),
	}
	store := repository.NewStockRepo(middleware.TenantDB(c))
	if err := h.Stock.Stage(c.Request().Context(), store, middleware.Username(c), entry); err != nil {
		return middleware.WriteError(c, h.Log, err, "Failed to update table")
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "Table Updated successfully"})
}

// company reads the company query parameter.  The list screen sends it as
// "code", the finalize button as "company".
func company(c echo.Context) string {
	if v := c.QueryParam("company"); v != "" {
		return v
	}
	return c.QueryParam("code")
}

// List returns the counts the signed-in user staged for a company.  Any
// name/username query parameter is ignored in favour of the session user.
func (h *StockHandler) List(c echo.Context) error {
	store := repository.NewStockRepo(middleware.TenantDB(c))
	rows, err := h.Stock.List(c.Request().Context(), store, middleware.Username(c), company(c))
	if err != nil {
		return middleware.WriteError(c, h.Log, err, "Failed to retrieve data")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Stock data Found Successfully", "stockData": rows})
}

// Delete removes one staged count by IDX.
func (h *StockHandler) Delete(c echo.Context) error {
	store := repository.NewStockRepo(middleware.TenantDB(c))
	if err := h.Stock.Delete(c.Request().Context(), store, c.QueryParam("idx")); err != nil {
		return middleware.WriteError(c, h.Log, err, "Failed to delete stock data")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Stock data deleted successfully"})
}

// Finalize moves the user's staged counts for a company into the ledger.
func (h *StockHandler) Finalize(c echo.Context) error {
	store := repository.NewStockRepo(middleware.TenantDB(c))
	n, err := h.Stock.Finalize(c.Request().Context(), store, middleware.Username(c), company(c), middleware.TenantTarget(c).String())
	if err != nil {
		return c.JSON(middleware.StatusFor(err), echo.Map{
			"success": false,
			"message": service.PublicMessage(err, "Unexpected error occurred during the process."),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Data moved and deleted successfully", "rows": n})
}
