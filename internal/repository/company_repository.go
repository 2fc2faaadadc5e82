package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/pos-backoffice/internal/model"
)

// CompanyRepo lists the companies of a tenant database.
type CompanyRepo struct{ DB *sqlx.DB }

func NewCompanyRepo(db *sqlx.DB) *CompanyRepo { return &CompanyRepo{DB: db} }

// List returns every company with trimmed code and name, ordered by code.
func (r *CompanyRepo) List(ctx context.Context) ([]model.Company, error) {
	out := []model.Company{}
	err := r.DB.SelectContext(ctx, &out, `
		SELECT TRIM(COMPANY_CODE) AS COMPANY_CODE, TRIM(COALESCE(COMPANY_NAME, '')) AS COMPANY_NAME
		FROM tb_COMPANY
		ORDER BY COMPANY_CODE`)
	return out, err
}
