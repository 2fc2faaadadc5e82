package model

// StockCount is a physical count staged in
// tb_STOCKRECONCILATION_DATAENTRYTEMP, or a finalized row of
// tb_STOCKRECONCILATION_DATAENTRY.
type StockCount struct {
    IDX         int64   `db:"IDX" json:"IDX"`
    CompanyCode string  `db:"COMPANY_CODE" json:"COMPANY_CODE"`
    CountStatus string  `db:"COUNT_STATUS" json:"COUNT_STATUS"`
    Type        string  `db:"TYPE" json:"TYPE"`
    ProductCode string  `db:"PRODUCT_CODE" json:"PRODUCT_CODE"`
    ProductName string  `db:"PRODUCT_NAMELONG" json:"PRODUCT_NAMELONG"`
    CostPrice   float64 `db:"COSTPRICE" json:"COSTPRICE"`
    UnitPrice   float64 `db:"UNITPRICE" json:"UNITPRICE"`
    CurStock    float64 `db:"CUR_STOCK" json:"CUR_STOCK"`
    PhyStock    float64 `db:"PHY_STOCK" json:"PHY_STOCK"`
    RepUser     string  `db:"REPUSER" json:"-"`
}

// Product is the result of a barcode or product code lookup.
type Product struct {
    Code       string  `db:"PRODUCT_CODE" json:"PRODUCT_CODE"`
    Name       string  `db:"PRODUCT_NAMELONG" json:"PRODUCT_NAMELONG"`
    CostPrice  float64 `db:"COSTPRICE" json:"COSTPRICE"`
    ScalePrice float64 `db:"SCALEPRICE" json:"SCALEPRICE"`
}
