package handler

import (
	"database/sql"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/pos-backoffice/internal/middleware"
	"github.com/iliyamo/pos-backoffice/internal/model"
	"github.com/iliyamo/pos-backoffice/internal/repository"
	"github.com/iliyamo/pos-backoffice/internal/service"
)

const reportOK = "Processed parameters for company codes"

// ReportHandler serves the company list and the five sales reports from the
// tenant pool bound to the request.
type ReportHandler struct {
	Reports *service.ReportService
	Log     *logrus.Entry
}

func NewReportHandler(r *service.ReportService, log *logrus.Logger) *ReportHandler {
	return &ReportHandler{Reports: r, Log: log.WithField("handler", "report")}
}

// reportRequest reads the report query.  Company codes arrive either as
// selectedOptions[]=A&selectedOptions[]=B (axios) or as repeated
// selectedOptions=A.
func reportRequest(c echo.Context) service.ReportRequest {
	q := c.QueryParams()
	companies := append([]string{}, q["selectedOptions[]"]...)
	companies = append(companies, q["selectedOptions"]...)
	return service.ReportRequest{
		Username:    middleware.Username(c),
		Companies:   companies,
		CurrentDate: q.Get("currentDate"),
		FromDate:    q.Get("fromDate"),
		ToDate:      q.Get("toDate"),
	}
}

// Companies lists the tenant's companies with trimmed codes and names.
func (h *ReportHandler) Companies(c echo.Context) error {
	rows, err := service.ListCompanies(c.Request().Context(), repository.NewCompanyRepo(middleware.TenantDB(c)))
	if err != nil {
		return middleware.WriteError(c, h.Log, err, "Failed to retrieve dashboard data")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Dashboard data retrieved successfully", "userData": rows})
}

// Dashboard serves the company sales summary.
func (h *ReportHandler) Dashboard(c echo.Context) error {
	store := repository.NewReportRepo(middleware.TenantDB(c))
	res, err := h.Reports.CompanyReport(c.Request().Context(), store, reportRequest(c))
	if err != nil {
		return middleware.WriteError(c, h.Log, err, "Failed to process parameters")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message":            reportOK,
		"success":            true,
		"result":             res.Totals,
		"record":             res.ByCompany,
		"cashierPointRecord": res.ByUnit,
		"staging":            res.Staging,
	})
}

// Detail returns the handler of a breakdown report kind.
func (h *ReportHandler) Detail(kind model.ReportKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		store := repository.NewReportRepo(middleware.TenantDB(c))
		res, err := h.Reports.DetailReport(c.Request().Context(), store, kind, reportRequest(c))
		if err != nil {
			return middleware.WriteError(c, h.Log, err, "Failed to process parameters")
		}
		d := res.Dimension
		return c.JSON(http.StatusOK, echo.Map{
			"message":                reportOK,
			"success":                true,
			d.Key("TableRecords"):     tableRows(d, res.Rows),
			d.Key("AmountBarChart"):   chartRows(d, "AMOUNT", res.Amount, true),
			d.Key("QuantityBarChart"): chartRows(d, "QUANTITY", res.Quantity, false),
			"staging":                res.Staging,
		})
	}
}

func nullable(s sql.NullString) interface{} {
	if !s.Valid {
		return nil
	}
	return s.String
}

func tableRows(d model.Dimension, rows []model.BreakdownRow) []echo.Map {
	out := make([]echo.Map, 0, len(rows))
	for _, r := range rows {
		out = append(out, echo.Map{
			"COMPANY_CODE": r.CompanyCode,
			d.CodeKey:      r.Code,
			d.NameKey:      nullable(r.Name),
			"QUANTITY":     model.Quantity(r.Quantity),
			"AMOUNT":       model.Money(r.Amount),
		})
	}
	return out
}

// chartRows keys each bar by the dimension's name column, as the chart
// widgets expect, e.g. {"DEPTNAME": "Dairy", "AMOUNT": "190.25"}.
func chartRows(d model.Dimension, valueKey string, pts []model.ChartPoint, money bool) []echo.Map {
	out := make([]echo.Map, 0, len(pts))
	for _, p := range pts {
		var v interface{} = model.Quantity(p.Value)
		if money {
			v = model.Money(p.Value)
		}
		out = append(out, echo.Map{d.NameColumn: nullable(p.Label), valueKey: v})
	}
	return out
}
