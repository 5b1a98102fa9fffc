package service

import (
	"context"
	"errors"
	"fmt"

	"stockledger/internal/domain"
	"stockledger/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")
)

// InventorySummary is the aggregate view over every inventory row joined to
// product pricing.
type InventorySummary struct {
	TotalItems      int     `json:"total_items"`
	TotalUnits      int     `json:"total_units"`
	TotalCost       float64 `json:"total_cost"`
	TotalValue      float64 `json:"total_value"`
	ProjectedProfit float64 `json:"projected_profit"`
	ProfitMargin    float64 `json:"profit_margin"`
}

// InventoryStatus is one row of the status listing, an inventory record with
// its valuation attached.
type InventoryStatus struct {
	repository.InventoryRecord
	domain.Valuation
}

// InventoryService is the stock ledger: additions, availability checks and
// read-side valuations.
type InventoryService interface {
	AddStock(ctx context.Context, productID uuid.UUID, quantity int) (*domain.Inventory, error)
	HasStock(ctx context.Context, productID uuid.UUID, quantity int) (bool, error)
	GetProductInventory(ctx context.Context, productID uuid.UUID) (*domain.Inventory, error)
	Status(ctx context.Context) ([]*InventoryStatus, *InventorySummary, error)
}

type inventoryService struct {
	uow           repository.UnitOfWorkFactory
	inventoryRepo repository.InventoryRepository
	productRepo   repository.ProductRepository
	logger        *zap.Logger
}

// NewInventoryService creates a new instance of InventoryService
func NewInventoryService(
	uow repository.UnitOfWorkFactory,
	inventoryRepo repository.InventoryRepository,
	productRepo repository.ProductRepository,
	logger *zap.Logger,
) InventoryService {
	return &inventoryService{
		uow:           uow,
		inventoryRepo: inventoryRepo,
		productRepo:   productRepo,
		logger:        logger,
	}
}

// AddStock increments the product's stock, lazily creating the inventory
// record on first addition. Init and increment run in one transaction.
func (s *inventoryService) AddStock(ctx context.Context, productID uuid.UUID, quantity int) (*domain.Inventory, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return nil, err
	}

	uow, err := s.uow.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start stock transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.Inventory().EnsureRecord(ctx, productID); err != nil {
		return nil, err
	}

	inventory, err := uow.Inventory().AddQuantity(ctx, productID, quantity)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit stock addition: %w", err)
	}

	s.logger.Info("Stock added",
		zap.String("product_id", productID.String()),
		zap.Int("quantity", quantity),
		zap.Int("new_total", inventory.Quantity),
	)

	return inventory, nil
}

// HasStock reports whether the product has at least quantity units. A
// product with no inventory record has no stock; that is not an error.
func (s *inventoryService) HasStock(ctx context.Context, productID uuid.UUID, quantity int) (bool, error) {
	inventory, err := s.inventoryRepo.FindByProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrInventoryNotFound) {
			return false, nil
		}
		return false, err
	}

	return inventory.Quantity >= quantity, nil
}

// GetProductInventory retrieves the product's inventory record, nil when
// none exists yet.
func (s *inventoryService) GetProductInventory(ctx context.Context, productID uuid.UUID) (*domain.Inventory, error) {
	inventory, err := s.inventoryRepo.FindByProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrInventoryNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return inventory, nil
}

// Status returns the per-product listing and the aggregate summary in one
// pass over the inventory.
func (s *inventoryService) Status(ctx context.Context) ([]*InventoryStatus, *InventorySummary, error) {
	records, err := s.inventoryRepo.List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load inventory status: %w", err)
	}

	statuses := make([]*InventoryStatus, 0, len(records))
	summary := &InventorySummary{}

	for _, record := range records {
		valuation := domain.Valuate(record.Quantity, record.CostPrice, record.SalePrice)
		statuses = append(statuses, &InventoryStatus{
			InventoryRecord: *record,
			Valuation:       valuation,
		})

		summary.TotalItems++
		summary.TotalUnits += record.Quantity
		summary.TotalCost += valuation.TotalCost
		summary.TotalValue += valuation.TotalValue
	}

	summary.ProjectedProfit = summary.TotalValue - summary.TotalCost
	if summary.TotalValue > 0 {
		summary.ProfitMargin = summary.ProjectedProfit / summary.TotalValue * 100
	}

	return statuses, summary, nil
}
