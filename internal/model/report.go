package model

import (
    "database/sql"
    "strings"

    "github.com/shopspring/decimal"
)

// StagingType is the REPORT_TYPE argument of the staging procedures.  Each
// type writes into its own staging table.
type StagingType string

const (
    StagingSummary StagingType = "SALESSUM1"
    StagingDetail  StagingType = "SALESDET"
)

// Table returns the staging table populated for this type.
func (s StagingType) Table() string {
    if s == StagingSummary {
        return "tb_SALES_DASHBOARD_VIEW"
    }
    return "tb_SALESVIEW"
}

// ReportKind enumerates the sales reports.
type ReportKind int

const (
    CompanyReport ReportKind = iota + 1
    DepartmentReport
    CategoryReport
    SubCategoryReport
    VendorReport
)

func (k ReportKind) String() string {
    switch k {
    case CompanyReport:
        return "company"
    case DepartmentReport:
        return "department"
    case CategoryReport:
        return "category"
    case SubCategoryReport:
        return "sub-category"
    case VendorReport:
        return "vendor"
    }
    return "unknown"
}

// Staging returns the staging type the kind is built from.
func (k ReportKind) Staging() StagingType {
    if k == CompanyReport {
        return StagingSummary
    }
    return StagingDetail
}

// Dimension describes how a detail report groups the SALESDET staging rows
// and how its rows are named on the wire.
type Dimension struct {
    CodeColumn string // staging column holding the code
    NameColumn string // staging column holding the display name
    CodeKey    string // JSON key of the code in table rows
    NameKey    string // JSON key of the name in table rows
    prefix     string // response key prefix; empty for the department report
}

// Key returns the response field name for base ("TableRecords",
// "AmountBarChart" or "QuantityBarChart").
func (d Dimension) Key(base string) string {
    if d.prefix == "" {
        return strings.ToLower(base[:1]) + base[1:]
    }
    return d.prefix + base
}

var dimensions = map[ReportKind]Dimension{
    DepartmentReport:  {CodeColumn: "DEPTCODE", NameColumn: "DEPTNAME", CodeKey: "DEPARTMENT_CODE", NameKey: "DEPARTMENT_NAME"},
    CategoryReport:    {CodeColumn: "CATCODE", NameColumn: "CATNAME", CodeKey: "CATEGORY_CODE", NameKey: "CATEGORY_NAME", prefix: "category"},
    SubCategoryReport: {CodeColumn: "SCATCODE", NameColumn: "SCATNAME", CodeKey: "SUBCATEGORY_CODE", NameKey: "SUBCATEGORY_NAME", prefix: "subCategory"},
    VendorReport:      {CodeColumn: "VENDORCODE", NameColumn: "VENDORNAME", CodeKey: "VENDOR_CODE", NameKey: "VENDOR_NAME", prefix: "vendor"},
}

// Dimension returns the grouping of a detail report.  ok is false for the
// company report, which has no dimension.
func (k ReportKind) Dimension() (Dimension, bool) {
    d, ok := dimensions[k]
    return d, ok
}

// SalesTotals is one aggregate row of tb_SALES_DASHBOARD_VIEW.  CompanyCode
// and UnitNo are empty when the query does not group by them.
type SalesTotals struct {
    CompanyCode  string              `db:"COMPANY_CODE"`
    UnitNo       string              `db:"UNITNO"`
    NetSales     decimal.NullDecimal `db:"NETSALES"`
    CashSales    decimal.NullDecimal `db:"CASHSALES"`
    CardSales    decimal.NullDecimal `db:"CARDSALES"`
    CreditSales  decimal.NullDecimal `db:"CREDITSALES"`
    OtherPayment decimal.NullDecimal `db:"OTHER_PAYMENT"`
}

// Empty reports whether every sum is NULL, i.e. no staging row matched.
func (t SalesTotals) Empty() bool {
    return !t.NetSales.Valid && !t.CashSales.Valid && !t.CardSales.Valid && !t.CreditSales.Valid && !t.OtherPayment.Valid
}

// SalesTotalsView is the wire form of SalesTotals with money as strings.
type SalesTotalsView struct {
    CompanyCode  string `json:"COMPANY_CODE,omitempty"`
    UnitNo       string `json:"UNITNO,omitempty"`
    NetSales     string `json:"NETSALES"`
    CashSales    string `json:"CASHSALES"`
    CardSales    string `json:"CARDSALES"`
    CreditSales  string `json:"CREDITSALES"`
    OtherPayment string `json:"OTHER_PAYMENT"`
}

// View formats every sum with two decimals.
func (t SalesTotals) View() SalesTotalsView {
    return SalesTotalsView{
        CompanyCode:  strings.TrimSpace(t.CompanyCode),
        UnitNo:       strings.TrimSpace(t.UnitNo),
        NetSales:     Money(t.NetSales),
        CashSales:    Money(t.CashSales),
        CardSales:    Money(t.CardSales),
        CreditSales:  Money(t.CreditSales),
        OtherPayment: Money(t.OtherPayment),
    }
}

// BreakdownRow is a detail-report table row grouped by company and
// dimension code/name.
type BreakdownRow struct {
    CompanyCode string              `db:"COMPANY_CODE"`
    Code        string              `db:"ITEM_CODE"`
    Name        sql.NullString      `db:"ITEM_NAME"`
    Quantity    decimal.NullDecimal `db:"QUANTITY"`
    Amount      decimal.NullDecimal `db:"AMOUNT"`
}

// ChartPoint is one bar of an amount or quantity chart.
type ChartPoint struct {
    Label sql.NullString      `db:"CHART_LABEL"`
    Value decimal.NullDecimal `db:"CHART_VALUE"`
}

// Money renders a currency sum with exactly two decimals; NULL renders as
// "0.00".
func Money(d decimal.NullDecimal) string {
    if !d.Valid {
        return "0.00"
    }
    return d.Decimal.StringFixed(2)
}

// Quantity renders a quantity sum as a JSON number.
func Quantity(d decimal.NullDecimal) float64 {
    if !d.Valid {
        return 0
    }
    return d.Decimal.InexactFloat64()
}
