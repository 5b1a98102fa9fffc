package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"stockledger/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrProductNotFound = errors.New("product not found")
)

// ProductWithStock pairs a product with its current inventory quantity.
// Products without an inventory record report zero stock.
type ProductWithStock struct {
	domain.Product
	StockQuantity int `json:"stock_quantity"`
}

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	FindBySKU(ctx context.Context, sku string) (*domain.Product, error)
	List(ctx context.Context) ([]*ProductWithStock, error)
}

type productRepository struct {
	db DBTX
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db DBTX) ProductRepository {
	return &productRepository{db: db}
}

// Create inserts a new product into the database using parameterized queries
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (id, sku, name, description, cost_price, sale_price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.SKU,
		product.Name,
		product.Description,
		product.CostPrice,
		product.SalePrice,
		product.CreatedAt,
		product.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// Update updates an existing product in the database using parameterized queries
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET sku = $2, name = $3, description = $4, cost_price = $5,
		    sale_price = $6, updated_at = $7
		WHERE id = $1
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.SKU,
		product.Name,
		product.Description,
		product.CostPrice,
		product.SalePrice,
		product.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// Delete removes a product from the database. The inventory row, if any,
// goes with it via ON DELETE CASCADE.
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM products WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// FindByID retrieves a product by ID using parameterized queries
func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := `
		SELECT id, sku, name, description, cost_price, sale_price, created_at, updated_at
		FROM products
		WHERE id = $1
	`

	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// FindBySKU retrieves a product by its SKU
func (r *productRepository) FindBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	query := `
		SELECT id, sku, name, description, cost_price, sale_price, created_at, updated_at
		FROM products
		WHERE sku = $1
	`

	return r.scanOne(r.db.QueryRowContext(ctx, query, sku))
}

func (r *productRepository) scanOne(row *sql.Row) (*domain.Product, error) {
	product := &domain.Product{}
	err := row.Scan(
		&product.ID,
		&product.SKU,
		&product.Name,
		&product.Description,
		&product.CostPrice,
		&product.SalePrice,
		&product.CreatedAt,
		&product.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}

	return product, nil
}

// List retrieves all products joined with their stock quantity
func (r *productRepository) List(ctx context.Context) ([]*ProductWithStock, error) {
	query := `
		SELECT p.id, p.sku, p.name, p.description, p.cost_price, p.sale_price,
		       p.created_at, p.updated_at, COALESCE(i.quantity, 0)
		FROM products p
		LEFT JOIN inventory i ON i.product_id = p.id
		ORDER BY p.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*ProductWithStock{}
	for rows.Next() {
		product := &ProductWithStock{}
		err := rows.Scan(
			&product.ID,
			&product.SKU,
			&product.Name,
			&product.Description,
			&product.CostPrice,
			&product.SalePrice,
			&product.CreatedAt,
			&product.UpdatedAt,
			&product.StockQuantity,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}
