package repository

import (
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

const testSchema = `
CREATE TABLE tb_USERS (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL UNIQUE,
	password TEXT NOT NULL,
	email TEXT UNIQUE,
	admin TEXT,
	dashboard TEXT,
	ip_address TEXT,
	port TEXT,
	registered_by TEXT,
	resetToken TEXT,
	resetTokenExpiry INTEGER
);
CREATE TABLE tb_LOG (username TEXT, ip TEXT, datetime TEXT);
CREATE TABLE tb_COMPANY (COMPANY_CODE TEXT, COMPANY_NAME TEXT);
CREATE TABLE tb_SALES_DASHBOARD_VIEW (
	COMPANY_CODE TEXT, UNITNO TEXT, REPUSER TEXT,
	NETSALES REAL, CASHSALES REAL, CARDSALES REAL, CREDITSALES REAL, OTHER_PAYMENT REAL
);
CREATE TABLE tb_SALESVIEW (
	COMPANY_CODE TEXT, REPUSER TEXT, QTY REAL, AMOUNT REAL,
	DEPTCODE TEXT, DEPTNAME TEXT, CATCODE TEXT, CATNAME TEXT,
	SCATCODE TEXT, SCATNAME TEXT, VENDORCODE TEXT, VENDORNAME TEXT
);
CREATE TABLE tb_STOCKRECONCILATION_DATAENTRYTEMP (
	IDX INTEGER PRIMARY KEY AUTOINCREMENT,
	COMPANY_CODE TEXT, COUNT_STATUS TEXT, TYPE TEXT, PRODUCT_CODE TEXT, PRODUCT_NAMELONG TEXT,
	COSTPRICE REAL, UNITPRICE REAL, CUR_STOCK REAL, PHY_STOCK REAL, REPUSER TEXT
);
CREATE TABLE tb_STOCKRECONCILATION_DATAENTRY (
	IDX INTEGER PRIMARY KEY AUTOINCREMENT,
	COMPANY_CODE TEXT, COUNT_STATUS TEXT, TYPE TEXT,
	PRODUCT_CODE TEXT CHECK (PRODUCT_CODE <> 'BOOM'),
	PRODUCT_NAMELONG TEXT,
	COSTPRICE REAL, UNITPRICE REAL, CUR_STOCK REAL, PHY_STOCK REAL, REPUSER TEXT
);
ATTACH DATABASE ':memory:' AS POSBACK_SYSTEM;
CREATE TABLE POSBACK_SYSTEM.tb_BARCODELINK (BARCODE TEXT, PRODUCT_CODE TEXT);
CREATE TABLE POSBACK_SYSTEM.tb_PRODUCT (
	PRODUCT_CODE TEXT, PRODUCT_NAMELONG TEXT, COSTPRICE REAL, SCALEPRICE REAL, BARCODE TEXT, BARCODE2 TEXT
);
CREATE TABLE POSBACK_SYSTEM.tb_STOCK (PRODUCT_CODE TEXT, COMPANY_CODE TEXT, BIN TEXT, STOCK REAL);
`

// newTestDB returns an in-memory database holding the directory, tenant
// and product tables.  A single connection keeps the attached schema
// visible to every query.
func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(testSchema)
	require.NoError(t, err)
	return db
}

func mustExec(t *testing.T, db *sqlx.DB, q string, args ...interface{}) {
	t.Helper()
	_, err := db.Exec(q, args...)
	require.NoError(t, err)
}
