package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/pos-backoffice/internal/model"
	"github.com/iliyamo/pos-backoffice/internal/repository"
)

type fakeStockStore struct {
	inserted  []model.StockCount
	rows      []model.StockCount
	deleteErr error
	finalize  func() ([]model.StockCount, error)
}

func (f *fakeStockStore) Insert(_ context.Context, s model.StockCount) error {
	f.inserted = append(f.inserted, s)
	return nil
}

func (f *fakeStockStore) List(context.Context, string, string) ([]model.StockCount, error) {
	return f.rows, nil
}

func (f *fakeStockStore) DeleteByID(context.Context, int64) error { return f.deleteErr }

func (f *fakeStockStore) Finalize(context.Context, string, string) ([]model.StockCount, error) {
	return f.finalize()
}

type fakeProducts struct {
	p   model.Product
	err error
}

func (f fakeProducts) FindByCode(context.Context, string) (model.Product, error) { return f.p, f.err }
func (f fakeProducts) OnHand(context.Context, string, string) (float64, error)   { return 12, nil }

func newStockService(pub *recordingPublisher) *StockService {
	s := NewStockService(pub, quietLogger())
	s.now = func() time.Time { return time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC) }
	return s
}

func TestStockStageUsesSessionUser(t *testing.T) {
	store := &fakeStockStore{}
	svc := newStockService(&recordingPublisher{})
	entry := model.StockCount{CompanyCode: " C1 ", ProductCode: "P1", PhyStock: 3, RepUser: "spoofed"}

	require.NoError(t, svc.Stage(context.Background(), store, "alice", entry))
	require.NoError(t, svc.Stage(context.Background(), store, "alice", entry))
	require.Len(t, store.inserted, 2)
	assert.Equal(t, "alice", store.inserted[0].RepUser)
	assert.Equal(t, "C1", store.inserted[0].CompanyCode)

	assert.ErrorIs(t, svc.Stage(context.Background(), store, "alice", model.StockCount{CompanyCode: "C1"}), ErrValidation)
}

func TestStockListAndDelete(t *testing.T) {
	svc := newStockService(&recordingPublisher{})
	ctx := context.Background()

	_, err := svc.List(ctx, &fakeStockStore{}, "alice", "C1")
	assert.ErrorIs(t, err, ErrStockNotFound)
	_, err = svc.List(ctx, &fakeStockStore{}, "alice", "")
	assert.ErrorIs(t, err, ErrCompanyRequired)

	rows, err := svc.List(ctx, &fakeStockStore{rows: []model.StockCount{{IDX: 1}}}, "alice", "C1")
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	assert.ErrorIs(t, svc.Delete(ctx, &fakeStockStore{}, ""), ErrIdxRequired)
	assert.ErrorIs(t, svc.Delete(ctx, &fakeStockStore{}, "abc"), ErrStockNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, &fakeStockStore{deleteErr: repository.ErrNotFound}, "7"), ErrStockNotFound)
	assert.NoError(t, svc.Delete(ctx, &fakeStockStore{}, "7"))
}

func TestStockFinalize(t *testing.T) {
	ctx := context.Background()
	t.Run("publishes after commit", func(t *testing.T) {
		pub := &recordingPublisher{}
		store := &fakeStockStore{finalize: func() ([]model.StockCount, error) {
			return []model.StockCount{{ProductCode: "P1", CurStock: 4, PhyStock: 3}, {ProductCode: "P2"}}, nil
		}}
		n, err := newStockService(pub).Finalize(ctx, store, "alice", "C1", "10.0.0.5:3306")
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		require.Len(t, pub.events, 1)
		ev := pub.events[0]
		assert.Equal(t, "alice", ev.Username)
		assert.Equal(t, "C1", ev.CompanyCode)
		assert.Equal(t, 2, ev.Rows)
		assert.Equal(t, "2024-03-01T10:00:00Z", ev.FinalizedAt)
		assert.Equal(t, "P1", ev.Products[0].ProductCode)
	})
	t.Run("publish failure is not fatal", func(t *testing.T) {
		pub := &recordingPublisher{err: errors.New("broker down")}
		store := &fakeStockStore{finalize: func() ([]model.StockCount, error) { return []model.StockCount{{}}, nil }}
		_, err := newStockService(pub).Finalize(ctx, store, "alice", "C1", "")
		assert.NoError(t, err)
	})
	t.Run("nothing staged", func(t *testing.T) {
		pub := &recordingPublisher{}
		store := &fakeStockStore{finalize: func() ([]model.StockCount, error) { return nil, repository.ErrNoDataFound }}
		_, err := newStockService(pub).Finalize(ctx, store, "alice", "C1", "")
		assert.ErrorIs(t, err, ErrNoDataFound)
		assert.Empty(t, pub.events)
	})
	t.Run("staged rows changed", func(t *testing.T) {
		pub := &recordingPublisher{}
		store := &fakeStockStore{finalize: func() ([]model.StockCount, error) { return nil, repository.ErrStaleRows }}
		_, err := newStockService(pub).Finalize(ctx, store, "alice", "C1", "")
		assert.ErrorIs(t, err, ErrStockChanged)
		assert.ErrorIs(t, err, ErrConflict)
		assert.Equal(t, "Stock data changed, please try again", PublicMessage(err, ""))
		assert.Empty(t, pub.events)
	})
}

func TestStockScan(t *testing.T) {
	svc := newStockService(&recordingPublisher{})
	ctx := context.Background()

	for _, code := range []string{"", "  ", "No result"} {
		_, err := svc.Scan(ctx, fakeProducts{}, code, "C1")
		assert.ErrorIs(t, err, ErrNoScanCode)
	}
	_, err := svc.Scan(ctx, fakeProducts{err: repository.ErrNotFound}, "123", "C1")
	assert.ErrorIs(t, err, ErrProductNotFound)

	res, err := svc.Scan(ctx, fakeProducts{p: model.Product{Code: "P1"}}, "123", "C1")
	require.NoError(t, err)
	assert.Equal(t, "P1", res.Product.Code)
	assert.Equal(t, 12.0, res.OnHand)
}
