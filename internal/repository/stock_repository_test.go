package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/pos-backoffice/internal/model"
)

func count(user, company, product string, phy float64) model.StockCount {
	return model.StockCount{
		CompanyCode: company, CountStatus: "C1", Type: "N",
		ProductCode: product, ProductName: "Item " + product,
		CostPrice: 10, UnitPrice: 12.5, CurStock: 4, PhyStock: phy, RepUser: user,
	}
}

func countRows(t *testing.T, repo *StockRepo, table string) int {
	t.Helper()
	var n int
	require.NoError(t, repo.DB.Get(&n, "SELECT COUNT(*) FROM "+table))
	return n
}

func TestStockRepoInsertListDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewStockRepo(newTestDB(t))

	require.NoError(t, repo.Insert(ctx, count("alice", "C1", "P1", 3)))
	require.NoError(t, repo.Insert(ctx, count("alice", "C1", "P1", 3)))
	require.NoError(t, repo.Insert(ctx, count("alice", "C2", "P2", 1)))
	require.NoError(t, repo.Insert(ctx, count("bob", "C1", "P3", 1)))

	rows, err := repo.List(ctx, "alice", "C1")
	require.NoError(t, err)
	require.Len(t, rows, 2, "duplicates are kept")
	assert.Equal(t, "P1", rows[0].ProductCode)
	assert.Equal(t, 12.5, rows[0].UnitPrice)
	assert.Less(t, rows[0].IDX, rows[1].IDX)

	require.NoError(t, repo.DeleteByID(ctx, rows[0].IDX))
	assert.ErrorIs(t, repo.DeleteByID(ctx, rows[0].IDX), ErrNotFound)

	rows, err = repo.List(ctx, "carol", "C1")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestStockRepoFinalizeMovesRows(t *testing.T) {
	ctx := context.Background()
	repo := NewStockRepo(newTestDB(t))
	require.NoError(t, repo.Insert(ctx, count("alice", "C1", "P1", 3)))
	require.NoError(t, repo.Insert(ctx, count("alice", "C1", "P2", 5)))
	require.NoError(t, repo.Insert(ctx, count("alice", "C2", "P3", 1)))

	moved, err := repo.Finalize(ctx, "alice", "C1")
	require.NoError(t, err)
	assert.Len(t, moved, 2)

	assert.Equal(t, 1, countRows(t, repo, "tb_STOCKRECONCILATION_DATAENTRYTEMP"))
	assert.Equal(t, 2, countRows(t, repo, "tb_STOCKRECONCILATION_DATAENTRY"))

	_, err = repo.Finalize(ctx, "alice", "C1")
	assert.ErrorIs(t, err, ErrNoDataFound)
}

func TestStockRepoFinalizeRollsBackOnInsertFailure(t *testing.T) {
	ctx := context.Background()
	repo := NewStockRepo(newTestDB(t))
	require.NoError(t, repo.Insert(ctx, count("alice", "C1", "P1", 3)))
	require.NoError(t, repo.Insert(ctx, count("alice", "C1", "BOOM", 5)))

	_, err := repo.Finalize(ctx, "alice", "C1")
	require.Error(t, err)

	assert.Equal(t, 2, countRows(t, repo, "tb_STOCKRECONCILATION_DATAENTRYTEMP"))
	assert.Equal(t, 0, countRows(t, repo, "tb_STOCKRECONCILATION_DATAENTRY"))
}

func TestStockRepoFinalizeLeavesConcurrentStagingAlone(t *testing.T) {
	ctx := context.Background()
	repo := NewStockRepo(newTestDB(t))
	require.NoError(t, repo.Insert(ctx, count("alice", "C1", "P1", 3)))
	require.NoError(t, repo.Insert(ctx, count("alice", "C1", "P2", 5)))
	// stages another count for the same user and company mid-transaction
	mustExec(t, repo.DB, `CREATE TRIGGER late_count AFTER INSERT ON tb_STOCKRECONCILATION_DATAENTRY
		WHEN NEW.PRODUCT_CODE = 'P1'
		BEGIN
			INSERT INTO tb_STOCKRECONCILATION_DATAENTRYTEMP (COMPANY_CODE, PRODUCT_CODE, REPUSER)
			VALUES ('C1', 'LATE', 'alice');
		END`)

	moved, err := repo.Finalize(ctx, "alice", "C1")
	require.NoError(t, err)
	require.Len(t, moved, 2)
	assert.Equal(t, "P1", moved[0].ProductCode)
	assert.Equal(t, "P2", moved[1].ProductCode)

	assert.Equal(t, 2, countRows(t, repo, "tb_STOCKRECONCILATION_DATAENTRY"))
	staged, err := repo.List(ctx, "alice", "C1")
	require.NoError(t, err)
	require.Len(t, staged, 1)
	assert.Equal(t, "LATE", staged[0].ProductCode)
}

func TestStockRepoFinalizeRollsBackWhenStagedRowVanishes(t *testing.T) {
	ctx := context.Background()
	repo := NewStockRepo(newTestDB(t))
	require.NoError(t, repo.Insert(ctx, count("alice", "C1", "P1", 3)))
	require.NoError(t, repo.Insert(ctx, count("alice", "C1", "P2", 5)))
	// removes the second staged row after it was read but before the delete
	mustExec(t, repo.DB, `CREATE TRIGGER vanish AFTER INSERT ON tb_STOCKRECONCILATION_DATAENTRY
		WHEN NEW.PRODUCT_CODE = 'P1'
		BEGIN
			DELETE FROM tb_STOCKRECONCILATION_DATAENTRYTEMP WHERE PRODUCT_CODE = 'P2';
		END`)

	_, err := repo.Finalize(ctx, "alice", "C1")
	assert.ErrorIs(t, err, ErrStaleRows)

	assert.Equal(t, 2, countRows(t, repo, "tb_STOCKRECONCILATION_DATAENTRYTEMP"))
	assert.Equal(t, 0, countRows(t, repo, "tb_STOCKRECONCILATION_DATAENTRY"))
}
