package handler_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stockEntry(code string, qty interface{}) echo.Map {
	return echo.Map{
		"company": "C1", "count": "1", "type": "FULL",
		"productCode": code, "productName": "Milk 1L",
		"costPrice": 1.2, "scalePrice": "1.50", "stock": 10, "quantity": qty,
	}
}

func TestScan(t *testing.T) {
	a := newApp(t)
	tok := a.signup(t, "alice", "F")
	a.exec(t, `INSERT INTO tb_PRODUCT VALUES ('P1', 'Milk 1L', 1.2, 1.5, '111', NULL)`)
	a.exec(t, `INSERT INTO tb_BARCODELINK VALUES ('999', 'P1')`)
	a.exec(t, `INSERT INTO tb_STOCK VALUES ('P1', 'C1', 'F', 4), ('P1', 'C1', NULL, 2), ('P1', 'C1', 'B', 50)`)

	r := a.do(t, http.MethodGet, "/scan?data=999&company=C1", tok, nil)
	require.Equal(t, http.StatusOK, r.code, r.body)
	assert.Equal(t, "Item Found Successfully", r.body["message"])
	assert.Equal(t, float64(6), r.body["amount"])
	items := r.body["salesData"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, "P1", items[0].(map[string]interface{})["PRODUCT_CODE"])

	r = a.do(t, http.MethodGet, "/scan?data=No%20result&company=C1", tok, nil)
	assert.Equal(t, http.StatusNotFound, r.code)
	assert.Equal(t, "Please provide code or scanned barcode", r.body["message"])

	r = a.do(t, http.MethodGet, "/scan?data=000&company=C1", tok, nil)
	assert.Equal(t, http.StatusNotFound, r.code)
	assert.Equal(t, "Product not found", r.body["message"])
}

func TestStockCountFlow(t *testing.T) {
	a := newApp(t)
	tok := a.signup(t, "alice", "F")
	other := a.signup(t, "bob", "F")

	r := a.do(t, http.MethodPost, "/update-temp-sales-table", tok, stockEntry("P1", "3"))
	require.Equal(t, http.StatusCreated, r.code, r.body)
	assert.Equal(t, "Table Updated successfully", r.body["message"])
	r = a.do(t, http.MethodPost, "/update-temp-sales-table", tok, stockEntry("P2", 7.5))
	require.Equal(t, http.StatusCreated, r.code, r.body)
	r = a.do(t, http.MethodPost, "/update-temp-sales-table", other, stockEntry("P9", 1))
	require.Equal(t, http.StatusCreated, r.code, r.body)

	r = a.do(t, http.MethodPost, "/update-temp-sales-table", tok, stockEntry("", 1))
	assert.Equal(t, http.StatusBadRequest, r.code)

	r = a.do(t, http.MethodGet, "/stock-update?name=bob&code=C1", tok, nil)
	require.Equal(t, http.StatusOK, r.code)
	assert.Equal(t, "Stock data Found Successfully", r.body["message"])
	rows := r.body["stockData"].([]interface{})
	require.Len(t, rows, 2, "only the signed-in user's counts are listed")
	first := rows[0].(map[string]interface{})
	assert.Equal(t, float64(3), first["PHY_STOCK"])
	assert.Equal(t, 1.5, first["UNITPRICE"])
	assert.NotContains(t, first, "REPUSER")

	r = a.do(t, http.MethodDelete, "/stock-update-delete", tok, nil)
	assert.Equal(t, http.StatusBadRequest, r.code)
	assert.Equal(t, "Missing 'idx' parameter", r.body["message"])

	r = a.do(t, http.MethodDelete, "/stock-update-delete?idx=4242", tok, nil)
	assert.Equal(t, http.StatusNotFound, r.code)

	idx := int64(rows[1].(map[string]interface{})["IDX"].(float64))
	r = a.do(t, http.MethodDelete, fmt.Sprintf("/stock-update-delete?idx=%d", idx), tok, nil)
	assert.Equal(t, http.StatusOK, r.code)
	assert.Equal(t, "Stock data deleted successfully", r.body["message"])

	r = a.do(t, http.MethodGet, "/final-stock-update?username=bob&company=C1", tok, nil)
	require.Equal(t, http.StatusOK, r.code, r.body)
	assert.Equal(t, true, r.body["success"])
	assert.Equal(t, "Data moved and deleted successfully", r.body["message"])

	var ledger, staged int
	require.NoError(t, a.db.Get(&ledger, "SELECT COUNT(*) FROM tb_STOCKRECONCILATION_DATAENTRY WHERE REPUSER = 'alice'"))
	require.NoError(t, a.db.Get(&staged, "SELECT COUNT(*) FROM tb_STOCKRECONCILATION_DATAENTRYTEMP"))
	assert.Equal(t, 1, ledger)
	assert.Equal(t, 1, staged, "bob's count is untouched")

	require.Len(t, a.events.got, 1)
	ev := a.events.got[0]
	assert.Equal(t, "alice", ev.Username)
	assert.Equal(t, "C1", ev.CompanyCode)
	assert.Equal(t, target().String(), ev.Tenant)
	assert.Equal(t, 1, ev.Rows)

	r = a.do(t, http.MethodGet, "/final-stock-update?company=C1", tok, nil)
	assert.Equal(t, http.StatusNotFound, r.code)
	assert.Equal(t, false, r.body["success"])
	assert.Equal(t, "No data found", r.body["message"])

	r = a.do(t, http.MethodGet, "/stock-update?code=C1", tok, nil)
	assert.Equal(t, http.StatusNotFound, r.code)
}
