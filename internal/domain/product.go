package domain

import (
	"time"

	"github.com/google/uuid"
)

// Product represents a sellable item in the catalog. Prices are snapshotted
// into sale items at sale time, so editing a product never rewrites history.
type Product struct {
	ID          uuid.UUID `json:"id" db:"id"`
	SKU         string    `json:"sku" db:"sku"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	CostPrice   float64   `json:"cost_price" db:"cost_price"`
	SalePrice   float64   `json:"sale_price" db:"sale_price"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// ProfitMargin returns the margin percentage for the given prices.
// A zero sale price yields 0 rather than a division by zero.
func ProfitMargin(costPrice, salePrice float64) float64 {
	if salePrice == 0 {
		return 0
	}
	return (salePrice - costPrice) / salePrice * 100
}

// UnitProfit returns the profit earned per unit sold.
func UnitProfit(costPrice, salePrice float64) float64 {
	return salePrice - costPrice
}
