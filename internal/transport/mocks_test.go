package transport

import (
	"context"
	"errors"

	"stockledger/internal/domain"
	"stockledger/internal/repository"
	"stockledger/internal/service"

	"github.com/google/uuid"
)

// Function-field service mocks for the handler tests. Unset fields return a
// generic error so a test only wires what it exercises.

var errNotWired = errors.New("not wired in this test")

type mockProductService struct {
	listFn   func(ctx context.Context) ([]*repository.ProductWithStock, error)
	createFn func(ctx context.Context, input service.CreateProductInput) (*domain.Product, error)
	getFn    func(ctx context.Context, id uuid.UUID) (*service.ProductDetail, error)
	updateFn func(ctx context.Context, id uuid.UUID, input service.UpdateProductInput) (*domain.Product, error)
	deleteFn func(ctx context.Context, id uuid.UUID) error
}

func (m *mockProductService) List(ctx context.Context) ([]*repository.ProductWithStock, error) {
	if m.listFn == nil {
		return nil, errNotWired
	}
	return m.listFn(ctx)
}

func (m *mockProductService) Create(ctx context.Context, input service.CreateProductInput) (*domain.Product, error) {
	if m.createFn == nil {
		return nil, errNotWired
	}
	return m.createFn(ctx, input)
}

func (m *mockProductService) Get(ctx context.Context, id uuid.UUID) (*service.ProductDetail, error) {
	if m.getFn == nil {
		return nil, errNotWired
	}
	return m.getFn(ctx, id)
}

func (m *mockProductService) Update(ctx context.Context, id uuid.UUID, input service.UpdateProductInput) (*domain.Product, error) {
	if m.updateFn == nil {
		return nil, errNotWired
	}
	return m.updateFn(ctx, id, input)
}

func (m *mockProductService) Delete(ctx context.Context, id uuid.UUID) error {
	if m.deleteFn == nil {
		return errNotWired
	}
	return m.deleteFn(ctx, id)
}

type mockInventoryService struct {
	addStockFn func(ctx context.Context, productID uuid.UUID, quantity int) (*domain.Inventory, error)
	hasStockFn func(ctx context.Context, productID uuid.UUID, quantity int) (bool, error)
	getFn      func(ctx context.Context, productID uuid.UUID) (*domain.Inventory, error)
	statusFn   func(ctx context.Context) ([]*service.InventoryStatus, *service.InventorySummary, error)
}

func (m *mockInventoryService) AddStock(ctx context.Context, productID uuid.UUID, quantity int) (*domain.Inventory, error) {
	if m.addStockFn == nil {
		return nil, errNotWired
	}
	return m.addStockFn(ctx, productID, quantity)
}

func (m *mockInventoryService) HasStock(ctx context.Context, productID uuid.UUID, quantity int) (bool, error) {
	if m.hasStockFn == nil {
		return false, errNotWired
	}
	return m.hasStockFn(ctx, productID, quantity)
}

func (m *mockInventoryService) GetProductInventory(ctx context.Context, productID uuid.UUID) (*domain.Inventory, error) {
	if m.getFn == nil {
		return nil, errNotWired
	}
	return m.getFn(ctx, productID)
}

func (m *mockInventoryService) Status(ctx context.Context) ([]*service.InventoryStatus, *service.InventorySummary, error) {
	if m.statusFn == nil {
		return nil, nil, errNotWired
	}
	return m.statusFn(ctx)
}

type mockSaleService struct {
	createFn     func(ctx context.Context, lines []service.SaleLine) (*domain.Sale, error)
	getFn        func(ctx context.Context, id uuid.UUID) (*domain.Sale, error)
	listFn       func(ctx context.Context) ([]*domain.Sale, error)
	statisticsFn func(ctx context.Context) (*repository.SaleStatistics, error)
}

func (m *mockSaleService) CreateSale(ctx context.Context, lines []service.SaleLine) (*domain.Sale, error) {
	if m.createFn == nil {
		return nil, errNotWired
	}
	return m.createFn(ctx, lines)
}

func (m *mockSaleService) GetSale(ctx context.Context, id uuid.UUID) (*domain.Sale, error) {
	if m.getFn == nil {
		return nil, errNotWired
	}
	return m.getFn(ctx, id)
}

func (m *mockSaleService) ListSales(ctx context.Context) ([]*domain.Sale, error) {
	if m.listFn == nil {
		return nil, errNotWired
	}
	return m.listFn(ctx)
}

func (m *mockSaleService) Statistics(ctx context.Context) (*repository.SaleStatistics, error) {
	if m.statisticsFn == nil {
		return nil, errNotWired
	}
	return m.statisticsFn(ctx)
}
