package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/pos-backoffice/internal/model"
)

const stockColumns = `COMPANY_CODE, COUNT_STATUS, TYPE, PRODUCT_CODE, PRODUCT_NAMELONG, COSTPRICE, UNITPRICE, CUR_STOCK, PHY_STOCK, REPUSER`

// StockRepo manages stock counts staged in
// tb_STOCKRECONCILATION_DATAENTRYTEMP and their move into the ledger.
type StockRepo struct{ DB *sqlx.DB }

func NewStockRepo(db *sqlx.DB) *StockRepo { return &StockRepo{DB: db} }

// Insert stages one count.
func (r *StockRepo) Insert(ctx context.Context, s model.StockCount) error {
	_, err := r.DB.NamedExecContext(ctx, `INSERT INTO tb_STOCKRECONCILATION_DATAENTRYTEMP
		(`+stockColumns+`)
		VALUES (:COMPANY_CODE, :COUNT_STATUS, :TYPE, :PRODUCT_CODE, :PRODUCT_NAMELONG,
		        :COSTPRICE, :UNITPRICE, :CUR_STOCK, :PHY_STOCK, :REPUSER)`, s)
	return err
}

// List returns the counts staged by user for company in insertion order.
func (r *StockRepo) List(ctx context.Context, user, company string) ([]model.StockCount, error) {
	out := []model.StockCount{}
	err := r.DB.SelectContext(ctx, &out,
		`SELECT IDX, `+stockColumns+` FROM tb_STOCKRECONCILATION_DATAENTRYTEMP
		 WHERE REPUSER = ? AND COMPANY_CODE = ? ORDER BY IDX`, user, company)
	return out, err
}

// DeleteByID removes one staged count.  ErrNotFound when idx does not exist.
func (r *StockRepo) DeleteByID(ctx context.Context, idx int64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM tb_STOCKRECONCILATION_DATAENTRYTEMP WHERE IDX = ?", idx)
	if err != nil {
		return err
	}
	return expectRows(res)
}

// Finalize moves every count staged by user for company into
// tb_STOCKRECONCILATION_DATAENTRY in one transaction and returns the moved
// rows.  Only the rows read at the start are deleted, by IDX, so a count
// staged while the transaction runs stays staged.  When nothing is staged,
// or the delete removes nothing, the transaction is rolled back and
// ErrNoDataFound is returned.  When the delete removes fewer rows than were
// copied it is rolled back with ErrStaleRows.
func (r *StockRepo) Finalize(ctx context.Context, user, company string) ([]model.StockCount, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var rows []model.StockCount
	if err := tx.SelectContext(ctx, &rows,
		`SELECT IDX, `+stockColumns+` FROM tb_STOCKRECONCILATION_DATAENTRYTEMP
		 WHERE REPUSER = ? AND COMPANY_CODE = ? ORDER BY IDX`, user, company); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoDataFound
	}

	ins, err := tx.PrepareNamedContext(ctx, `INSERT INTO tb_STOCKRECONCILATION_DATAENTRY
		(`+stockColumns+`)
		VALUES (:COMPANY_CODE, :COUNT_STATUS, :TYPE, :PRODUCT_CODE, :PRODUCT_NAMELONG,
		        :COSTPRICE, :UNITPRICE, :CUR_STOCK, :PHY_STOCK, :REPUSER)`)
	if err != nil {
		return nil, err
	}
	defer ins.Close()
	ids := make([]int64, 0, len(rows))
	for _, s := range rows {
		if _, err := ins.ExecContext(ctx, s); err != nil {
			return nil, err
		}
		ids = append(ids, s.IDX)
	}

	q, args, err := sqlx.In("DELETE FROM tb_STOCKRECONCILATION_DATAENTRYTEMP WHERE IDX IN (?)", ids)
	if err != nil {
		return nil, err
	}
	res, err := tx.ExecContext(ctx, tx.Rebind(q), args...)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	switch {
	case n == 0:
		return nil, ErrNoDataFound
	case n != int64(len(rows)):
		return nil, ErrStaleRows
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return rows, nil
}
