package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/pos-backoffice/internal/model"
	q "github.com/iliyamo/pos-backoffice/internal/queue"
	"github.com/iliyamo/pos-backoffice/internal/repository"
)

// StockStore is the tenant storage of staged stock counts.
type StockStore interface {
	Insert(ctx context.Context, s model.StockCount) error
	List(ctx context.Context, user, company string) ([]model.StockCount, error)
	DeleteByID(ctx context.Context, idx int64) error
	Finalize(ctx context.Context, user, company string) ([]model.StockCount, error)
}

// ProductStore looks products up for the scan screen.
type ProductStore interface {
	FindByCode(ctx context.Context, code string) (model.Product, error)
	OnHand(ctx context.Context, productCode, company string) (float64, error)
}

// ScanResult is a product found by code with its floor stock.
type ScanResult struct {
	Product model.Product
	OnHand  float64
}

// StockService stages physical stock counts and finalizes them into the
// reconciliation ledger.
type StockService struct {
	Events EventPublisher
	Log    *logrus.Entry

	now func() time.Time
}

func NewStockService(events EventPublisher, log *logrus.Logger) *StockService {
	return &StockService{Events: events, Log: log.WithField("component", "stock"), now: time.Now}
}

// Stage records one count for user.  Repeated counts of the same product
// are kept as separate rows.
func (s *StockService) Stage(ctx context.Context, store StockStore, user string, c model.StockCount) error {
	c.CompanyCode = strings.TrimSpace(c.CompanyCode)
	c.ProductCode = strings.TrimSpace(c.ProductCode)
	if c.CompanyCode == "" || c.ProductCode == "" {
		return ErrBadStockEntry
	}
	c.RepUser = user
	if err := store.Insert(ctx, c); err != nil {
		return wrap(ErrStockStore, err)
	}
	return nil
}

// List returns the counts user staged for company.
func (s *StockService) List(ctx context.Context, store StockStore, user, company string) ([]model.StockCount, error) {
	company = strings.TrimSpace(company)
	if company == "" {
		return nil, ErrCompanyRequired
	}
	rows, err := store.List(ctx, user, company)
	if err != nil {
		return nil, wrap(ErrStore, err)
	}
	if len(rows) == 0 {
		return nil, ErrStockNotFound
	}
	return rows, nil
}

// Delete removes one staged count by its IDX.
func (s *StockService) Delete(ctx context.Context, store StockStore, idx string) error {
	idx = strings.TrimSpace(idx)
	if idx == "" {
		return ErrIdxRequired
	}
	n, err := strconv.ParseInt(idx, 10, 64)
	if err != nil {
		return ErrStockNotFound
	}
	err = store.DeleteByID(ctx, n)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrStockNotFound
	}
	if err != nil {
		return wrap(ErrStore, err)
	}
	return nil
}

// Finalize moves every count user staged for company into the ledger in
// one transaction, then publishes a stock.finalized event.  tenant names
// the tenant server for the event.  The number of moved rows is returned.
func (s *StockService) Finalize(ctx context.Context, store StockStore, user, company, tenant string) (int, error) {
	company = strings.TrimSpace(company)
	if company == "" {
		return 0, ErrCompanyRequired
	}
	rows, err := store.Finalize(ctx, user, company)
	switch {
	case errors.Is(err, repository.ErrNoDataFound):
		return 0, ErrNoDataFound
	case errors.Is(err, repository.ErrStaleRows):
		return 0, ErrStockChanged
	case err != nil:
		return 0, wrap(ErrStore, err)
	}

	ev := q.StockFinalizedEvent{
		Username:    user,
		CompanyCode: company,
		Tenant:      tenant,
		Rows:        len(rows),
		FinalizedAt: s.now().UTC().Format(time.RFC3339),
	}
	for _, r := range rows {
		ev.Products = append(ev.Products, q.FinalizedItem{ProductCode: r.ProductCode, CurStock: r.CurStock, PhyStock: r.PhyStock})
	}
	if err := s.Events.PublishStockFinalized(ctx, ev); err != nil {
		s.Log.WithError(err).WithFields(logrus.Fields{"username": user, "company": company}).Warn("stock.finalized publish failed")
	}
	return len(rows), nil
}

// Scan resolves a scanned barcode or typed product code and reports its
// floor stock at company.
func (s *StockService) Scan(ctx context.Context, products ProductStore, code, company string) (ScanResult, error) {
	code = strings.TrimSpace(code)
	if code == "" || code == "No result" {
		return ScanResult{}, ErrNoScanCode
	}
	p, err := products.FindByCode(ctx, code)
	if errors.Is(err, repository.ErrNotFound) {
		return ScanResult{}, ErrProductNotFound
	}
	if err != nil {
		return ScanResult{}, wrap(ErrStore, err)
	}
	n, err := products.OnHand(ctx, p.Code, strings.TrimSpace(company))
	if err != nil {
		return ScanResult{}, wrap(ErrStore, err)
	}
	return ScanResult{Product: p, OnHand: n}, nil
}
