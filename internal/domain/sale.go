package domain

import (
	"time"

	"github.com/google/uuid"
)

// SaleStatus is the lifecycle state of a sale.
type SaleStatus string

const (
	SaleStatusPending   SaleStatus = "pending"
	SaleStatusCompleted SaleStatus = "completed"
	// SaleStatusCancelled exists in the schema but no flow sets it; there is
	// no cancellation API.
	SaleStatusCancelled SaleStatus = "cancelled"
)

// Sale is a completed (or in-flight) sales transaction. The three totals are
// derived sums over the items, persisted as a cache. Invariant after totals
// computation: TotalAmount == TotalCost + TotalProfit.
type Sale struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	TotalAmount float64    `json:"total_amount" db:"total_amount"`
	TotalCost   float64    `json:"total_cost" db:"total_cost"`
	TotalProfit float64    `json:"total_profit" db:"total_profit"`
	Status      SaleStatus `json:"status" db:"status"`
	Items       []SaleItem `json:"items,omitempty"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// SaleItem is one line of a sale. UnitPrice and UnitCost are snapshots of the
// product's prices at the instant of sale. ProductName and ProductSKU are
// joined in on reads for response shaping; they are not stored on the row.
type SaleItem struct {
	ID          uuid.UUID `json:"id" db:"id"`
	SaleID      uuid.UUID `json:"sale_id" db:"sale_id"`
	ProductID   uuid.UUID `json:"product_id" db:"product_id"`
	Quantity    int       `json:"quantity" db:"quantity"`
	UnitPrice   float64   `json:"unit_price" db:"unit_price"`
	UnitCost    float64   `json:"unit_cost" db:"unit_cost"`
	ProductName string    `json:"product_name,omitempty" db:"-"`
	ProductSKU  string    `json:"product_sku,omitempty" db:"-"`
}

// ItemSubtotal returns quantity * unit price for one sale line.
func ItemSubtotal(quantity int, unitPrice float64) float64 {
	return float64(quantity) * unitPrice
}

// ItemCost returns quantity * unit cost for one sale line.
func ItemCost(quantity int, unitCost float64) float64 {
	return float64(quantity) * unitCost
}

// ItemProfit returns the profit contributed by one sale line.
func ItemProfit(quantity int, unitPrice, unitCost float64) float64 {
	return ItemSubtotal(quantity, unitPrice) - ItemCost(quantity, unitCost)
}

// SaleTotals computes the aggregate amount, cost and profit over a set of
// items. Profit is derived as amount minus cost so the totals identity holds
// by construction.
func SaleTotals(items []SaleItem) (amount, cost, profit float64) {
	for _, item := range items {
		amount += ItemSubtotal(item.Quantity, item.UnitPrice)
		cost += ItemCost(item.Quantity, item.UnitCost)
	}
	return amount, cost, amount - cost
}

// SaleProfitMargin returns the sale-level margin percentage, 0 when the
// total amount is zero.
func SaleProfitMargin(totalAmount, totalProfit float64) float64 {
	if totalAmount == 0 {
		return 0
	}
	return totalProfit / totalAmount * 100
}
