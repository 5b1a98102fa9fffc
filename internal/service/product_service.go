package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stockledger/internal/domain"
	"stockledger/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrSKUAlreadyExists = errors.New("product with this SKU already exists")
)

// CreateProductInput carries validated fields for product creation.
type CreateProductInput struct {
	SKU         string
	Name        string
	Description string
	CostPrice   float64
	SalePrice   float64
}

// UpdateProductInput carries a partial update; nil fields are left unchanged.
type UpdateProductInput struct {
	SKU         *string
	Name        *string
	Description *string
	CostPrice   *float64
	SalePrice   *float64
}

// ProductDetail pairs a product with its inventory record (nil when the
// product has never been stocked).
type ProductDetail struct {
	Product   *domain.Product
	Inventory *domain.Inventory
}

// ProductService defines the interface for product business logic
type ProductService interface {
	List(ctx context.Context) ([]*repository.ProductWithStock, error)
	Create(ctx context.Context, input CreateProductInput) (*domain.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*ProductDetail, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*domain.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type productService struct {
	productRepo   repository.ProductRepository
	inventoryRepo repository.InventoryRepository
	logger        *zap.Logger
}

// NewProductService creates a new instance of ProductService
func NewProductService(
	productRepo repository.ProductRepository,
	inventoryRepo repository.InventoryRepository,
	logger *zap.Logger,
) ProductService {
	return &productService{
		productRepo:   productRepo,
		inventoryRepo: inventoryRepo,
		logger:        logger,
	}
}

// List retrieves all products with their stock quantities
func (s *productService) List(ctx context.Context) ([]*repository.ProductWithStock, error) {
	products, err := s.productRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// Create stores a new product after checking SKU uniqueness
func (s *productService) Create(ctx context.Context, input CreateProductInput) (*domain.Product, error) {
	existing, err := s.productRepo.FindBySKU(ctx, input.SKU)
	if err != nil && !errors.Is(err, repository.ErrProductNotFound) {
		return nil, fmt.Errorf("failed to check existing SKU: %w", err)
	}
	if existing != nil {
		return nil, ErrSKUAlreadyExists
	}

	now := time.Now().UTC()
	product := &domain.Product{
		ID:          uuid.New(),
		SKU:         input.SKU,
		Name:        input.Name,
		Description: input.Description,
		CostPrice:   input.CostPrice,
		SalePrice:   input.SalePrice,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info("Product created",
		zap.String("product_id", product.ID.String()),
		zap.String("sku", product.SKU),
	)

	return product, nil
}

// Get retrieves a product with its inventory record
func (s *productService) Get(ctx context.Context, id uuid.UUID) (*ProductDetail, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	inventory, err := s.inventoryRepo.FindByProduct(ctx, id)
	if err != nil && !errors.Is(err, repository.ErrInventoryNotFound) {
		return nil, fmt.Errorf("failed to load product inventory: %w", err)
	}

	return &ProductDetail{Product: product, Inventory: inventory}, nil
}

// Update applies a partial update. A changed SKU is checked for uniqueness
// with the product itself excluded, so re-submitting the current SKU is fine.
func (s *productService) Update(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*domain.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.SKU != nil && *input.SKU != product.SKU {
		existing, err := s.productRepo.FindBySKU(ctx, *input.SKU)
		if err != nil && !errors.Is(err, repository.ErrProductNotFound) {
			return nil, fmt.Errorf("failed to check existing SKU: %w", err)
		}
		if existing != nil && existing.ID != id {
			return nil, ErrSKUAlreadyExists
		}
	}

	if input.SKU != nil {
		product.SKU = *input.SKU
	}
	if input.Name != nil {
		product.Name = *input.Name
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.CostPrice != nil {
		product.CostPrice = *input.CostPrice
	}
	if input.SalePrice != nil {
		product.SalePrice = *input.SalePrice
	}
	product.UpdatedAt = time.Now().UTC()

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	s.logger.Info("Product updated", zap.String("product_id", product.ID.String()))

	return product, nil
}

// Delete removes a product and, via cascade, its inventory record
func (s *productService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("Product deleted", zap.String("product_id", id.String()))
	return nil
}
