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
	ErrInventoryNotFound = errors.New("inventory record not found")
)

// InventoryRecord is an inventory row joined with the owning product's
// pricing, used by the status and summary read paths.
type InventoryRecord struct {
	ProductID   uuid.UUID `json:"product_id"`
	SKU         string    `json:"sku"`
	Name        string    `json:"name"`
	Quantity    int       `json:"quantity"`
	CostPrice   float64   `json:"cost_price"`
	SalePrice   float64   `json:"sale_price"`
	LastUpdated time.Time `json:"last_updated"`
}

// InventoryRepository defines the interface for inventory data access
type InventoryRepository interface {
	FindByProduct(ctx context.Context, productID uuid.UUID) (*domain.Inventory, error)
	EnsureRecord(ctx context.Context, productID uuid.UUID) error
	AddQuantity(ctx context.Context, productID uuid.UUID, quantity int) (*domain.Inventory, error)
	DecrementIfAvailable(ctx context.Context, productID uuid.UUID, quantity int) (bool, error)
	List(ctx context.Context) ([]*InventoryRecord, error)
}

type inventoryRepository struct {
	db DBTX
}

// NewInventoryRepository creates a new instance of InventoryRepository
func NewInventoryRepository(db DBTX) InventoryRepository {
	return &inventoryRepository{db: db}
}

// FindByProduct retrieves the inventory record for a product
func (r *inventoryRepository) FindByProduct(ctx context.Context, productID uuid.UUID) (*domain.Inventory, error) {
	query := `
		SELECT id, product_id, quantity, last_updated
		FROM inventory
		WHERE product_id = $1
	`

	inventory := &domain.Inventory{}
	err := r.db.QueryRowContext(ctx, query, productID).Scan(
		&inventory.ID,
		&inventory.ProductID,
		&inventory.Quantity,
		&inventory.LastUpdated,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrInventoryNotFound
		}
		return nil, fmt.Errorf("failed to find inventory: %w", err)
	}

	return inventory, nil
}

// EnsureRecord creates a zero-quantity inventory row for the product if one
// does not exist yet. Idempotent: an existing row is left untouched.
func (r *inventoryRepository) EnsureRecord(ctx context.Context, productID uuid.UUID) error {
	query := `
		INSERT INTO inventory (id, product_id, quantity, last_updated)
		VALUES ($1, $2, 0, $3)
		ON CONFLICT (product_id) DO NOTHING
	`

	_, err := r.db.ExecContext(ctx, query, uuid.New(), productID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to ensure inventory record: %w", err)
	}

	return nil
}

// AddQuantity increments the product's stock and refreshes last_updated,
// returning the updated record.
func (r *inventoryRepository) AddQuantity(ctx context.Context, productID uuid.UUID, quantity int) (*domain.Inventory, error) {
	query := `
		UPDATE inventory
		SET quantity = quantity + $2, last_updated = $3
		WHERE product_id = $1
		RETURNING id, product_id, quantity, last_updated
	`

	inventory := &domain.Inventory{}
	err := r.db.QueryRowContext(ctx, query, productID, quantity, time.Now().UTC()).Scan(
		&inventory.ID,
		&inventory.ProductID,
		&inventory.Quantity,
		&inventory.LastUpdated,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrInventoryNotFound
		}
		return nil, fmt.Errorf("failed to add quantity: %w", err)
	}

	return inventory, nil
}

// DecrementIfAvailable atomically removes quantity from the product's stock,
// refusing when the remaining stock is insufficient. The condition and the
// decrement are a single statement, so two concurrent sales cannot both
// succeed against the same units. Returns false (not an error) when stock is
// insufficient or no inventory record exists.
func (r *inventoryRepository) DecrementIfAvailable(ctx context.Context, productID uuid.UUID, quantity int) (bool, error) {
	query := `
		UPDATE inventory
		SET quantity = quantity - $2, last_updated = $3
		WHERE product_id = $1 AND quantity >= $2
	`

	result, err := r.db.ExecContext(ctx, query, productID, quantity, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("failed to decrement inventory: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected == 1, nil
}

// List retrieves all inventory records joined with product pricing
func (r *inventoryRepository) List(ctx context.Context) ([]*InventoryRecord, error) {
	query := `
		SELECT i.product_id, p.sku, p.name, i.quantity, p.cost_price, p.sale_price, i.last_updated
		FROM inventory i
		JOIN products p ON p.id = i.product_id
		ORDER BY p.name ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}
	defer rows.Close()

	records := []*InventoryRecord{}
	for rows.Next() {
		record := &InventoryRecord{}
		err := rows.Scan(
			&record.ProductID,
			&record.SKU,
			&record.Name,
			&record.Quantity,
			&record.CostPrice,
			&record.SalePrice,
			&record.LastUpdated,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan inventory record: %w", err)
		}
		records = append(records, record)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating inventory: %w", err)
	}

	return records, nil
}
