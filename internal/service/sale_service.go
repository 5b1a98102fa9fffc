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

// EventSaleCompleted is the outbox event type emitted when a sale commits.
const EventSaleCompleted = "sale.completed"

var (
	ErrSaleNotFound = errors.New("sale not found")
	ErrNoSaleItems  = errors.New("sale must contain at least one item")
)

// StockInsufficientError reports a sale line that asked for more units than
// the product has in stock. It is an expected business outcome, not a defect.
type StockInsufficientError struct {
	ProductID   uuid.UUID
	ProductName string
}

func (e *StockInsufficientError) Error() string {
	return fmt.Sprintf("insufficient stock for product: %s", e.ProductName)
}

// SaleLine is one requested line of a sale: which product and how many units.
type SaleLine struct {
	ProductID uuid.UUID
	Quantity  int
}

// SaleService turns an ordered list of sale lines into a single completed
// sale, or no persisted change at all.
type SaleService interface {
	CreateSale(ctx context.Context, lines []SaleLine) (*domain.Sale, error)
	GetSale(ctx context.Context, id uuid.UUID) (*domain.Sale, error)
	ListSales(ctx context.Context) ([]*domain.Sale, error)
	Statistics(ctx context.Context) (*repository.SaleStatistics, error)
}

type saleService struct {
	uow           repository.UnitOfWorkFactory
	saleRepo      repository.SaleRepository
	productRepo   repository.ProductRepository
	inventoryRepo repository.InventoryRepository
	logger        *zap.Logger
}

// NewSaleService creates a new instance of SaleService
func NewSaleService(
	uow repository.UnitOfWorkFactory,
	saleRepo repository.SaleRepository,
	productRepo repository.ProductRepository,
	inventoryRepo repository.InventoryRepository,
	logger *zap.Logger,
) SaleService {
	return &saleService{
		uow:           uow,
		saleRepo:      saleRepo,
		productRepo:   productRepo,
		inventoryRepo: inventoryRepo,
		logger:        logger,
	}
}

// CreateSale runs the sale-creation transaction:
//
//  1. Advisory pre-flight: every line is checked against current stock so an
//     obviously doomed request fails fast with the offending product named.
//     This check takes no locks; the decrement inside the transaction is the
//     authoritative guard.
//  2. One transaction: a pending sale row, one item per line with the
//     product's prices snapshotted, an atomic conditional stock decrement per
//     line, totals recomputed from the items, the status flipped to
//     completed, and a sale.completed outbox event. Any failure rolls the
//     whole thing back.
//
// The decrement-if-sufficient inside the transaction means two concurrent
// sales can never drive stock negative: the loser of the race aborts.
func (s *saleService) CreateSale(ctx context.Context, lines []SaleLine) (*domain.Sale, error) {
	if len(lines) == 0 {
		return nil, ErrNoSaleItems
	}

	for _, line := range lines {
		if err := s.checkStock(ctx, line); err != nil {
			return nil, err
		}
	}

	uow, err := s.uow.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start sale transaction: %w", err)
	}
	defer uow.Rollback()

	now := time.Now().UTC()
	sale := &domain.Sale{
		ID:        uuid.New(),
		Status:    domain.SaleStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := uow.Sales().Create(ctx, sale); err != nil {
		return nil, err
	}

	items := make([]domain.SaleItem, 0, len(lines))
	for _, line := range lines {
		product, err := uow.Products().FindByID(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, repository.ErrProductNotFound) {
				return nil, fmt.Errorf("%w: %s", repository.ErrProductNotFound, line.ProductID)
			}
			return nil, err
		}

		item := domain.SaleItem{
			ID:          uuid.New(),
			SaleID:      sale.ID,
			ProductID:   product.ID,
			Quantity:    line.Quantity,
			UnitPrice:   product.SalePrice,
			UnitCost:    product.CostPrice,
			ProductName: product.Name,
			ProductSKU:  product.SKU,
		}

		if err := uow.Sales().CreateItem(ctx, &item); err != nil {
			return nil, err
		}

		// The authoritative stock guard. A missing inventory record counts
		// as insufficiency, same as too few units.
		ok, err := uow.Inventory().DecrementIfAvailable(ctx, product.ID, line.Quantity)
		if err != nil {
			return nil, err
		}
		if !ok {
			s.logger.Warn("Sale aborted on stock decrement",
				zap.String("sale_id", sale.ID.String()),
				zap.String("product_id", product.ID.String()),
				zap.Int("quantity", line.Quantity),
			)
			return nil, &StockInsufficientError{ProductID: product.ID, ProductName: product.Name}
		}

		items = append(items, item)
	}

	sale.Items = items
	sale.TotalAmount, sale.TotalCost, sale.TotalProfit = domain.SaleTotals(items)

	if err := uow.Sales().UpdateTotals(ctx, sale); err != nil {
		return nil, err
	}

	if err := uow.Sales().UpdateStatus(ctx, sale.ID, domain.SaleStatusCompleted); err != nil {
		return nil, err
	}
	sale.Status = domain.SaleStatusCompleted

	if err := uow.Outbox().Enqueue(ctx, EventSaleCompleted, sale); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit sale: %w", err)
	}

	s.logger.Info("Sale completed",
		zap.String("sale_id", sale.ID.String()),
		zap.Int("items", len(sale.Items)),
		zap.Float64("total_amount", sale.TotalAmount),
		zap.Float64("total_profit", sale.TotalProfit),
	)

	return sale, nil
}

// checkStock is the advisory pre-flight for one line. Insufficiency is
// surfaced with the product's name; an unknown product surfaces as not found.
func (s *saleService) checkStock(ctx context.Context, line SaleLine) error {
	product, err := s.productRepo.FindByID(ctx, line.ProductID)
	if err != nil {
		return err
	}

	inventory, err := s.inventoryRepo.FindByProduct(ctx, line.ProductID)
	if err != nil {
		if errors.Is(err, repository.ErrInventoryNotFound) {
			return &StockInsufficientError{ProductID: product.ID, ProductName: product.Name}
		}
		return err
	}

	if inventory.Quantity < line.Quantity {
		return &StockInsufficientError{ProductID: product.ID, ProductName: product.Name}
	}

	return nil
}

// GetSale retrieves a sale with its items
func (s *saleService) GetSale(ctx context.Context, id uuid.UUID) (*domain.Sale, error) {
	sale, err := s.saleRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrSaleNotFound) {
			return nil, ErrSaleNotFound
		}
		return nil, fmt.Errorf("failed to get sale: %w", err)
	}
	return sale, nil
}

// ListSales retrieves all sales newest first
func (s *saleService) ListSales(ctx context.Context) ([]*domain.Sale, error) {
	sales, err := s.saleRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}
	return sales, nil
}

// Statistics aggregates completed sales
func (s *saleService) Statistics(ctx context.Context) (*repository.SaleStatistics, error) {
	stats, err := s.saleRepo.CompletedStatistics(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compute sale statistics: %w", err)
	}
	return stats, nil
}
