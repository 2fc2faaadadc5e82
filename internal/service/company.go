package service

import (
	"context"

	"github.com/iliyamo/pos-backoffice/internal/model"
)

// CompanyStore lists the companies of a tenant.
type CompanyStore interface {
	List(ctx context.Context) ([]model.Company, error)
}

// ListCompanies returns the companies the signed-in user can report on.
func ListCompanies(ctx context.Context, store CompanyStore) ([]model.Company, error) {
	rows, err := store.List(ctx)
	if err != nil {
		return nil, wrap(ErrStore, err)
	}
	if len(rows) == 0 {
		return nil, ErrCompanyNotFound
	}
	return rows, nil
}
