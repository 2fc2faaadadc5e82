package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/pos-backoffice/internal/model"
)

// ProductRepo looks products up in the product schema of a tenant server.
// Schema is the schema qualifier (POSBACK_SYSTEM by default); tables are
// addressed as Schema.tb_*.
type ProductRepo struct {
	DB     *sqlx.DB
	Schema string
}

func NewProductRepo(db *sqlx.DB, schema string) *ProductRepo {
	return &ProductRepo{DB: db, Schema: schema}
}

func (r *ProductRepo) table(name string) string {
	if r.Schema == "" {
		return name
	}
	return r.Schema + "." + name
}

// FindByCode resolves a scanned barcode or typed product code.  The barcode
// link table is consulted first; otherwise the product code and both
// barcode columns of the product table are matched.
func (r *ProductRepo) FindByCode(ctx context.Context, code string) (model.Product, error) {
	var p model.Product
	err := r.DB.GetContext(ctx, &p, `
		SELECT p.PRODUCT_CODE, COALESCE(p.PRODUCT_NAMELONG, '') AS PRODUCT_NAMELONG, COALESCE(p.COSTPRICE, 0) AS COSTPRICE, COALESCE(p.SCALEPRICE, 0) AS SCALEPRICE
		FROM `+r.table("tb_BARCODELINK")+` b
		JOIN `+r.table("tb_PRODUCT")+` p ON p.PRODUCT_CODE = b.PRODUCT_CODE
		WHERE b.BARCODE = ?
		LIMIT 1`, code)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return p, err
	}
	err = r.DB.GetContext(ctx, &p, `
		SELECT PRODUCT_CODE, COALESCE(PRODUCT_NAMELONG, '') AS PRODUCT_NAMELONG, COALESCE(COSTPRICE, 0) AS COSTPRICE, COALESCE(SCALEPRICE, 0) AS SCALEPRICE
		FROM `+r.table("tb_PRODUCT")+`
		WHERE PRODUCT_CODE = ? OR BARCODE = ? OR BARCODE2 = ?
		LIMIT 1`, code, code, code)
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrNotFound
	}
	return p, err
}

// OnHand sums the floor stock of a product at one company.  Rows with bin
// 'F' or no bin count as floor stock.
func (r *ProductRepo) OnHand(ctx context.Context, productCode, company string) (float64, error) {
	var n sql.NullFloat64
	err := r.DB.GetContext(ctx, &n, `
		SELECT SUM(STOCK) FROM `+r.table("tb_STOCK")+`
		WHERE PRODUCT_CODE = ? AND COMPANY_CODE = ? AND (BIN = 'F' OR BIN IS NULL)`, productCode, company)
	if err != nil {
		return 0, err
	}
	return n.Float64, nil
}
