package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/pos-backoffice/internal/model"
)

// ReportRepo runs the staging procedures and the aggregate queries over the
// per-user staging tables of a tenant database.
type ReportRepo struct{ DB *sqlx.DB }

func NewReportRepo(db *sqlx.DB) *ReportRepo { return &ReportRepo{DB: db} }

// ClearStaging deletes the staging rows owned by user from the table of st.
func (r *ReportRepo) ClearStaging(ctx context.Context, st model.StagingType, user string) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM "+st.Table()+" WHERE REPUSER = ?", user)
	return err
}

// StageCurrent fills the staging table for one company and a single
// business day (date as DD/MM/YYYY).
func (r *ReportRepo) StageCurrent(ctx context.Context, company, date, user string, st model.StagingType) error {
	_, err := r.DB.ExecContext(ctx, "CALL Sp_SalesCurView(?, ?, ?, ?)", company, date, user, string(st))
	return err
}

// StageRange fills the staging table for one company over [from, to].
func (r *ReportRepo) StageRange(ctx context.Context, company, from, to, user string, st model.StagingType) error {
	_, err := r.DB.ExecContext(ctx, "CALL Sp_SalesView(?, ?, ?, ?, ?)", company, from, to, user, string(st))
	return err
}

const salesSums = `
	SUM(NETSALES) AS NETSALES,
	SUM(CASHSALES) AS CASHSALES,
	SUM(CARDSALES) AS CARDSALES,
	SUM(CREDITSALES) AS CREDITSALES,
	SUM(OTHER_PAYMENT) AS OTHER_PAYMENT`

// Totals sums the summary staging rows of user over companies.  The
// returned row has every field NULL when nothing matched.
func (r *ReportRepo) Totals(ctx context.Context, user string, companies []string) (model.SalesTotals, error) {
	var t model.SalesTotals
	q, args, err := r.in(`SELECT `+salesSums+`
		FROM tb_SALES_DASHBOARD_VIEW
		WHERE REPUSER = ? AND COMPANY_CODE IN (?)`, user, companies)
	if err != nil {
		return t, err
	}
	err = r.DB.GetContext(ctx, &t, q, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return t, nil
	}
	return t, err
}

// TotalsByCompany groups the summary staging rows by company.
func (r *ReportRepo) TotalsByCompany(ctx context.Context, user string, companies []string) ([]model.SalesTotals, error) {
	return r.selectTotals(ctx, `SELECT TRIM(COMPANY_CODE) AS COMPANY_CODE,`+salesSums+`
		FROM tb_SALES_DASHBOARD_VIEW
		WHERE REPUSER = ? AND COMPANY_CODE IN (?)
		GROUP BY COMPANY_CODE
		ORDER BY COMPANY_CODE`, user, companies)
}

// TotalsByUnit groups the summary staging rows by company and cashier
// point.
func (r *ReportRepo) TotalsByUnit(ctx context.Context, user string, companies []string) ([]model.SalesTotals, error) {
	return r.selectTotals(ctx, `SELECT TRIM(COMPANY_CODE) AS COMPANY_CODE, COALESCE(UNITNO, '') AS UNITNO,`+salesSums+`
		FROM tb_SALES_DASHBOARD_VIEW
		WHERE REPUSER = ? AND COMPANY_CODE IN (?)
		GROUP BY COMPANY_CODE, UNITNO
		ORDER BY COMPANY_CODE, UNITNO`, user, companies)
}

func (r *ReportRepo) selectTotals(ctx context.Context, query, user string, companies []string) ([]model.SalesTotals, error) {
	q, args, err := r.in(query, user, companies)
	if err != nil {
		return nil, err
	}
	out := []model.SalesTotals{}
	if err := r.DB.SelectContext(ctx, &out, q, args...); err != nil {
		return nil, err
	}
	return out, nil
}

// Breakdown groups the detail staging rows by company and by the code/name
// columns of d.
func (r *ReportRepo) Breakdown(ctx context.Context, d model.Dimension, user string, companies []string) ([]model.BreakdownRow, error) {
	query := fmt.Sprintf(`SELECT
		TRIM(COMPANY_CODE) AS COMPANY_CODE,
		COALESCE(TRIM(%[1]s), '') AS ITEM_CODE,
		%[2]s AS ITEM_NAME,
		SUM(QTY) AS QUANTITY,
		SUM(AMOUNT) AS AMOUNT
		FROM tb_SALESVIEW
		WHERE REPUSER = ? AND COMPANY_CODE IN (?)
		GROUP BY COMPANY_CODE, %[1]s, %[2]s
		ORDER BY COMPANY_CODE, %[1]s`, d.CodeColumn, d.NameColumn)
	q, args, err := r.in(query, user, companies)
	if err != nil {
		return nil, err
	}
	out := []model.BreakdownRow{}
	if err := r.DB.SelectContext(ctx, &out, q, args...); err != nil {
		return nil, err
	}
	return out, nil
}

// AmountChart sums AMOUNT per display name of d.
func (r *ReportRepo) AmountChart(ctx context.Context, d model.Dimension, user string, companies []string) ([]model.ChartPoint, error) {
	return r.chart(ctx, d, "AMOUNT", user, companies)
}

// QuantityChart sums QTY per display name of d.
func (r *ReportRepo) QuantityChart(ctx context.Context, d model.Dimension, user string, companies []string) ([]model.ChartPoint, error) {
	return r.chart(ctx, d, "QTY", user, companies)
}

func (r *ReportRepo) chart(ctx context.Context, d model.Dimension, column, user string, companies []string) ([]model.ChartPoint, error) {
	query := fmt.Sprintf(`SELECT %[1]s AS CHART_LABEL, SUM(%[2]s) AS CHART_VALUE
		FROM tb_SALESVIEW
		WHERE REPUSER = ? AND COMPANY_CODE IN (?)
		GROUP BY %[1]s
		ORDER BY %[1]s`, d.NameColumn, column)
	q, args, err := r.in(query, user, companies)
	if err != nil {
		return nil, err
	}
	out := []model.ChartPoint{}
	if err := r.DB.SelectContext(ctx, &out, q, args...); err != nil {
		return nil, err
	}
	return out, nil
}

// in expands the company list into the IN clause and rebinds for the
// driver.
func (r *ReportRepo) in(query, user string, companies []string) (string, []interface{}, error) {
	q, args, err := sqlx.In(query, user, companies)
	if err != nil {
		return "", nil, err
	}
	return r.DB.Rebind(q), args, nil
}
