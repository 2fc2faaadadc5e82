// Package queue defines message payloads exchanged over the message broker
// and the background consumer that records them.
package queue

// StockFinalizedQueue is the durable queue carrying StockFinalizedEvent.
const StockFinalizedQueue = "stock.finalized"

// StockFinalizedEvent is published after a stock count batch has been moved
// into the reconciliation ledger.  It carries enough detail for downstream
// consumers to log or audit the batch without querying the tenant database.
type StockFinalizedEvent struct {
    Username    string          `json:"username"`
    CompanyCode string          `json:"company_code"`
    Tenant      string          `json:"tenant"`
    Rows        int             `json:"rows"`
    Products    []FinalizedItem `json:"products"`
    FinalizedAt string          `json:"finalized_at"`
}

// FinalizedItem is one counted product in a finalized batch.
type FinalizedItem struct {
    ProductCode string  `json:"product_code"`
    CurStock    float64 `json:"cur_stock"`
    PhyStock    float64 `json:"phy_stock"`
}
