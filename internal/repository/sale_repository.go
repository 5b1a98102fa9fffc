package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"stockledger/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrSaleNotFound = errors.New("sale not found")
)

// SaleStatistics aggregates completed sales for the reporting endpoint.
type SaleStatistics struct {
	TotalSales          int     `json:"total_sales"`
	TotalRevenue        float64 `json:"total_revenue"`
	TotalCost           float64 `json:"total_cost"`
	TotalProfit         float64 `json:"total_profit"`
	AverageSaleValue    float64 `json:"average_sale_value"`
	AverageProfitMargin float64 `json:"average_profit_margin"`
}

// SaleRepository defines the interface for sale data access
type SaleRepository interface {
	Create(ctx context.Context, sale *domain.Sale) error
	CreateItem(ctx context.Context, item *domain.SaleItem) error
	UpdateTotals(ctx context.Context, sale *domain.Sale) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.SaleStatus) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Sale, error)
	List(ctx context.Context) ([]*domain.Sale, error)
	CompletedStatistics(ctx context.Context) (*SaleStatistics, error)
}

type saleRepository struct {
	db DBTX
}

// NewSaleRepository creates a new instance of SaleRepository
func NewSaleRepository(db DBTX) SaleRepository {
	return &saleRepository{db: db}
}

// Create inserts a new sale row
func (r *saleRepository) Create(ctx context.Context, sale *domain.Sale) error {
	query := `
		INSERT INTO sales (id, total_amount, total_cost, total_profit, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		sale.ID,
		sale.TotalAmount,
		sale.TotalCost,
		sale.TotalProfit,
		sale.Status,
		sale.CreatedAt,
		sale.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create sale: %w", err)
	}

	return nil
}

// CreateItem inserts a sale item with its snapshotted prices
func (r *saleRepository) CreateItem(ctx context.Context, item *domain.SaleItem) error {
	query := `
		INSERT INTO sale_items (id, sale_id, product_id, quantity, unit_price, unit_cost)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		item.ID,
		item.SaleID,
		item.ProductID,
		item.Quantity,
		item.UnitPrice,
		item.UnitCost,
	)

	if err != nil {
		return fmt.Errorf("failed to create sale item: %w", err)
	}

	return nil
}

// UpdateTotals persists the recomputed totals of a sale
func (r *saleRepository) UpdateTotals(ctx context.Context, sale *domain.Sale) error {
	query := `
		UPDATE sales
		SET total_amount = $2, total_cost = $3, total_profit = $4, updated_at = $5
		WHERE id = $1
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		sale.ID,
		sale.TotalAmount,
		sale.TotalCost,
		sale.TotalProfit,
		time.Now().UTC(),
	)

	if err != nil {
		return fmt.Errorf("failed to update sale totals: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrSaleNotFound
	}

	return nil
}

// UpdateStatus transitions a sale to the given lifecycle state
func (r *saleRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.SaleStatus) error {
	query := `
		UPDATE sales
		SET status = $2, updated_at = $3
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update sale status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrSaleNotFound
	}

	return nil
}

// FindByID retrieves a sale with its items, each joined with the product's
// current name and SKU for display.
func (r *saleRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Sale, error) {
	query := `
		SELECT id, total_amount, total_cost, total_profit, status, created_at, updated_at
		FROM sales
		WHERE id = $1
	`

	sale := &domain.Sale{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&sale.ID,
		&sale.TotalAmount,
		&sale.TotalCost,
		&sale.TotalProfit,
		&sale.Status,
		&sale.CreatedAt,
		&sale.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrSaleNotFound
		}
		return nil, fmt.Errorf("failed to find sale: %w", err)
	}

	items, err := r.findItems(ctx, id)
	if err != nil {
		return nil, err
	}
	sale.Items = items

	return sale, nil
}

func (r *saleRepository) findItems(ctx context.Context, saleID uuid.UUID) ([]domain.SaleItem, error) {
	query := `
		SELECT si.id, si.sale_id, si.product_id, si.quantity, si.unit_price, si.unit_cost,
		       p.name, p.sku
		FROM sale_items si
		JOIN products p ON p.id = si.product_id
		WHERE si.sale_id = $1
		ORDER BY p.name ASC
	`

	rows, err := r.db.QueryContext(ctx, query, saleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sale items: %w", err)
	}
	defer rows.Close()

	items := []domain.SaleItem{}
	for rows.Next() {
		item := domain.SaleItem{}
		err := rows.Scan(
			&item.ID,
			&item.SaleID,
			&item.ProductID,
			&item.Quantity,
			&item.UnitPrice,
			&item.UnitCost,
			&item.ProductName,
			&item.ProductSKU,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sale item: %w", err)
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sale items: %w", err)
	}

	return items, nil
}

// List retrieves all sales newest first, without items
func (r *saleRepository) List(ctx context.Context) ([]*domain.Sale, error) {
	query := `
		SELECT id, total_amount, total_cost, total_profit, status, created_at, updated_at
		FROM sales
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}
	defer rows.Close()

	sales := []*domain.Sale{}
	for rows.Next() {
		sale := &domain.Sale{}
		err := rows.Scan(
			&sale.ID,
			&sale.TotalAmount,
			&sale.TotalCost,
			&sale.TotalProfit,
			&sale.Status,
			&sale.CreatedAt,
			&sale.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		sales = append(sales, sale)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sales: %w", err)
	}

	return sales, nil
}

// CompletedStatistics aggregates count, sums and averages over completed
// sales. The average margin is computed per sale then averaged, matching the
// reporting contract.
func (r *saleRepository) CompletedStatistics(ctx context.Context) (*SaleStatistics, error) {
	query := `
		SELECT COUNT(*),
		       COALESCE(SUM(total_amount), 0),
		       COALESCE(SUM(total_cost), 0),
		       COALESCE(SUM(total_profit), 0),
		       COALESCE(AVG(total_amount), 0),
		       COALESCE(AVG(CASE WHEN total_amount = 0 THEN 0
		                         ELSE total_profit / total_amount * 100 END), 0)
		FROM sales
		WHERE status = 'completed'
	`

	stats := &SaleStatistics{}
	err := r.db.QueryRowContext(ctx, query).Scan(
		&stats.TotalSales,
		&stats.TotalRevenue,
		&stats.TotalCost,
		&stats.TotalProfit,
		&stats.AverageSaleValue,
		&stats.AverageProfitMargin,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to aggregate sale statistics: %w", err)
	}

	return stats, nil
}
