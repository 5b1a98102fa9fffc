package domain

import (
	"time"

	"github.com/google/uuid"
)

// Inventory is the per-product stock record. One row per product, created
// lazily on the first stock addition. Quantity never goes below zero: the
// only decrement path is a conditional update that refuses insufficiency.
type Inventory struct {
	ID          uuid.UUID `json:"id" db:"id"`
	ProductID   uuid.UUID `json:"product_id" db:"product_id"`
	Quantity    int       `json:"quantity" db:"quantity"`
	LastUpdated time.Time `json:"last_updated" db:"last_updated"`
}

// Valuation is the monetary view of a stock quantity at given prices.
type Valuation struct {
	TotalCost       float64 `json:"total_cost"`
	TotalValue      float64 `json:"total_value"`
	ProjectedProfit float64 `json:"projected_profit"`
}

// Valuate prices a stock quantity: cost to acquire, value at sale price,
// and the profit projected if every unit sells.
func Valuate(quantity int, costPrice, salePrice float64) Valuation {
	totalCost := float64(quantity) * costPrice
	totalValue := float64(quantity) * salePrice
	return Valuation{
		TotalCost:       totalCost,
		TotalValue:      totalValue,
		ProjectedProfit: totalValue - totalCost,
	}
}
