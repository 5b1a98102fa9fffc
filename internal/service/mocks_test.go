package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"stockledger/internal/domain"
	"stockledger/internal/repository"

	"github.com/google/uuid"
)

// Mock repositories backed by maps, shared by the service tests. The mock
// unit of work snapshots them on Begin and restores on Rollback so the
// transactional paths can be tested without a database.

type mockProductRepository struct {
	products map[uuid.UUID]*domain.Product
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{products: make(map[uuid.UUID]*domain.Product)}
}

func (m *mockProductRepository) Create(_ context.Context, product *domain.Product) error {
	p := *product
	m.products[product.ID] = &p
	return nil
}

func (m *mockProductRepository) Update(_ context.Context, product *domain.Product) error {
	if _, ok := m.products[product.ID]; !ok {
		return repository.ErrProductNotFound
	}
	p := *product
	m.products[product.ID] = &p
	return nil
}

func (m *mockProductRepository) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductRepository) FindByID(_ context.Context, id uuid.UUID) (*domain.Product, error) {
	product, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	p := *product
	return &p, nil
}

func (m *mockProductRepository) FindBySKU(_ context.Context, sku string) (*domain.Product, error) {
	for _, product := range m.products {
		if product.SKU == sku {
			p := *product
			return &p, nil
		}
	}
	return nil, repository.ErrProductNotFound
}

func (m *mockProductRepository) List(_ context.Context) ([]*repository.ProductWithStock, error) {
	result := make([]*repository.ProductWithStock, 0, len(m.products))
	for _, product := range m.products {
		result = append(result, &repository.ProductWithStock{Product: *product})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

type mockInventoryRepository struct {
	records map[uuid.UUID]*domain.Inventory // keyed by product ID
	// products supplies pricing for List; nil disables the join
	products *mockProductRepository
	// beforeDecrement runs just before each conditional decrement, letting a
	// test mutate stock as a concurrent writer would
	beforeDecrement func()
}

func newMockInventoryRepository(products *mockProductRepository) *mockInventoryRepository {
	return &mockInventoryRepository{
		records:  make(map[uuid.UUID]*domain.Inventory),
		products: products,
	}
}

func (m *mockInventoryRepository) FindByProduct(_ context.Context, productID uuid.UUID) (*domain.Inventory, error) {
	record, ok := m.records[productID]
	if !ok {
		return nil, repository.ErrInventoryNotFound
	}
	r := *record
	return &r, nil
}

func (m *mockInventoryRepository) EnsureRecord(_ context.Context, productID uuid.UUID) error {
	if _, ok := m.records[productID]; ok {
		return nil
	}
	m.records[productID] = &domain.Inventory{
		ID:          uuid.New(),
		ProductID:   productID,
		Quantity:    0,
		LastUpdated: time.Now().UTC(),
	}
	return nil
}

func (m *mockInventoryRepository) AddQuantity(_ context.Context, productID uuid.UUID, quantity int) (*domain.Inventory, error) {
	record, ok := m.records[productID]
	if !ok {
		return nil, repository.ErrInventoryNotFound
	}
	record.Quantity += quantity
	record.LastUpdated = time.Now().UTC()
	r := *record
	return &r, nil
}

func (m *mockInventoryRepository) DecrementIfAvailable(_ context.Context, productID uuid.UUID, quantity int) (bool, error) {
	if m.beforeDecrement != nil {
		m.beforeDecrement()
	}
	record, ok := m.records[productID]
	if !ok || record.Quantity < quantity {
		return false, nil
	}
	record.Quantity -= quantity
	record.LastUpdated = time.Now().UTC()
	return true, nil
}

func (m *mockInventoryRepository) List(_ context.Context) ([]*repository.InventoryRecord, error) {
	result := make([]*repository.InventoryRecord, 0, len(m.records))
	for productID, record := range m.records {
		entry := &repository.InventoryRecord{
			ProductID:   productID,
			Quantity:    record.Quantity,
			LastUpdated: record.LastUpdated,
		}
		if m.products != nil {
			if product, ok := m.products.products[productID]; ok {
				entry.SKU = product.SKU
				entry.Name = product.Name
				entry.CostPrice = product.CostPrice
				entry.SalePrice = product.SalePrice
			}
		}
		result = append(result, entry)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result, nil
}

func (m *mockInventoryRepository) quantity(productID uuid.UUID) int {
	record, ok := m.records[productID]
	if !ok {
		return 0
	}
	return record.Quantity
}

type mockSaleRepository struct {
	sales map[uuid.UUID]*domain.Sale
	items map[uuid.UUID][]domain.SaleItem // keyed by sale ID
}

func newMockSaleRepository() *mockSaleRepository {
	return &mockSaleRepository{
		sales: make(map[uuid.UUID]*domain.Sale),
		items: make(map[uuid.UUID][]domain.SaleItem),
	}
}

func (m *mockSaleRepository) Create(_ context.Context, sale *domain.Sale) error {
	s := *sale
	s.Items = nil
	m.sales[sale.ID] = &s
	return nil
}

func (m *mockSaleRepository) CreateItem(_ context.Context, item *domain.SaleItem) error {
	if _, ok := m.sales[item.SaleID]; !ok {
		return fmt.Errorf("sale %s does not exist", item.SaleID)
	}
	m.items[item.SaleID] = append(m.items[item.SaleID], *item)
	return nil
}

func (m *mockSaleRepository) UpdateTotals(_ context.Context, sale *domain.Sale) error {
	stored, ok := m.sales[sale.ID]
	if !ok {
		return repository.ErrSaleNotFound
	}
	stored.TotalAmount = sale.TotalAmount
	stored.TotalCost = sale.TotalCost
	stored.TotalProfit = sale.TotalProfit
	return nil
}

func (m *mockSaleRepository) UpdateStatus(_ context.Context, id uuid.UUID, status domain.SaleStatus) error {
	stored, ok := m.sales[id]
	if !ok {
		return repository.ErrSaleNotFound
	}
	stored.Status = status
	return nil
}

func (m *mockSaleRepository) FindByID(_ context.Context, id uuid.UUID) (*domain.Sale, error) {
	stored, ok := m.sales[id]
	if !ok {
		return nil, repository.ErrSaleNotFound
	}
	s := *stored
	s.Items = append([]domain.SaleItem(nil), m.items[id]...)
	return &s, nil
}

func (m *mockSaleRepository) List(_ context.Context) ([]*domain.Sale, error) {
	result := make([]*domain.Sale, 0, len(m.sales))
	for id, stored := range m.sales {
		s := *stored
		s.Items = append([]domain.SaleItem(nil), m.items[id]...)
		result = append(result, &s)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (m *mockSaleRepository) CompletedStatistics(_ context.Context) (*repository.SaleStatistics, error) {
	stats := &repository.SaleStatistics{}
	var marginSum float64
	for _, sale := range m.sales {
		if sale.Status != domain.SaleStatusCompleted {
			continue
		}
		stats.TotalSales++
		stats.TotalRevenue += sale.TotalAmount
		stats.TotalCost += sale.TotalCost
		stats.TotalProfit += sale.TotalProfit
		marginSum += domain.SaleProfitMargin(sale.TotalAmount, sale.TotalProfit)
	}
	if stats.TotalSales > 0 {
		stats.AverageSaleValue = stats.TotalRevenue / float64(stats.TotalSales)
		stats.AverageProfitMargin = marginSum / float64(stats.TotalSales)
	}
	return stats, nil
}

type mockOutboxRepository struct {
	events []*repository.OutboxEvent
}

func newMockOutboxRepository() *mockOutboxRepository {
	return &mockOutboxRepository{}
}

func (m *mockOutboxRepository) Enqueue(_ context.Context, eventType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	m.events = append(m.events, &repository.OutboxEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Payload:   data,
		Status:    repository.OutboxStatusPending,
		CreatedAt: time.Now().UTC(),
	})
	return nil
}

func (m *mockOutboxRepository) FetchPending(_ context.Context, limit int) ([]*repository.OutboxEvent, error) {
	result := make([]*repository.OutboxEvent, 0, limit)
	for _, event := range m.events {
		if event.Status != repository.OutboxStatusPending {
			continue
		}
		result = append(result, event)
		if len(result) == limit {
			break
		}
	}
	return result, nil
}

func (m *mockOutboxRepository) MarkProcessed(_ context.Context, id uuid.UUID) error {
	for _, event := range m.events {
		if event.ID == id {
			event.Status = repository.OutboxStatusProcessed
			return nil
		}
	}
	return fmt.Errorf("event %s not found", id)
}

func (m *mockOutboxRepository) RecordFailure(_ context.Context, id uuid.UUID, cause string) error {
	for _, event := range m.events {
		if event.ID == id {
			event.Attempts++
			event.LastError.String = cause
			event.LastError.Valid = true
			return nil
		}
	}
	return fmt.Errorf("event %s not found", id)
}

// mockUnitOfWork snapshots the backing maps on Begin and restores them on
// Rollback unless Commit ran first, mirroring a real transaction closely
// enough for the service tests.
type mockUnitOfWork struct {
	factory   *mockUnitOfWorkFactory
	committed bool

	productSnapshot   map[uuid.UUID]*domain.Product
	inventorySnapshot map[uuid.UUID]*domain.Inventory
	saleSnapshot      map[uuid.UUID]*domain.Sale
	itemSnapshot      map[uuid.UUID][]domain.SaleItem
	outboxSnapshot    []*repository.OutboxEvent
}

type mockUnitOfWorkFactory struct {
	products  *mockProductRepository
	inventory *mockInventoryRepository
	sales     *mockSaleRepository
	outbox    *mockOutboxRepository

	beginErr error
}

func newMockUnitOfWorkFactory(
	products *mockProductRepository,
	inventory *mockInventoryRepository,
	sales *mockSaleRepository,
	outbox *mockOutboxRepository,
) *mockUnitOfWorkFactory {
	return &mockUnitOfWorkFactory{
		products:  products,
		inventory: inventory,
		sales:     sales,
		outbox:    outbox,
	}
}

func (f *mockUnitOfWorkFactory) Begin(_ context.Context) (repository.UnitOfWork, error) {
	if f.beginErr != nil {
		return nil, f.beginErr
	}

	uow := &mockUnitOfWork{
		factory:           f,
		productSnapshot:   make(map[uuid.UUID]*domain.Product, len(f.products.products)),
		inventorySnapshot: make(map[uuid.UUID]*domain.Inventory, len(f.inventory.records)),
		saleSnapshot:      make(map[uuid.UUID]*domain.Sale, len(f.sales.sales)),
		itemSnapshot:      make(map[uuid.UUID][]domain.SaleItem, len(f.sales.items)),
		outboxSnapshot:    append([]*repository.OutboxEvent(nil), f.outbox.events...),
	}
	for id, product := range f.products.products {
		p := *product
		uow.productSnapshot[id] = &p
	}
	for id, record := range f.inventory.records {
		r := *record
		uow.inventorySnapshot[id] = &r
	}
	for id, sale := range f.sales.sales {
		s := *sale
		uow.saleSnapshot[id] = &s
	}
	for id, items := range f.sales.items {
		uow.itemSnapshot[id] = append([]domain.SaleItem(nil), items...)
	}
	return uow, nil
}

func (u *mockUnitOfWork) Products() repository.ProductRepository   { return u.factory.products }
func (u *mockUnitOfWork) Inventory() repository.InventoryRepository { return u.factory.inventory }
func (u *mockUnitOfWork) Sales() repository.SaleRepository          { return u.factory.sales }
func (u *mockUnitOfWork) Outbox() repository.OutboxRepository       { return u.factory.outbox }

func (u *mockUnitOfWork) Commit() error {
	u.committed = true
	return nil
}

func (u *mockUnitOfWork) Rollback() error {
	if u.committed {
		return nil
	}
	u.factory.products.products = u.productSnapshot
	u.factory.inventory.records = u.inventorySnapshot
	u.factory.sales.sales = u.saleSnapshot
	u.factory.sales.items = u.itemSnapshot
	u.factory.outbox.events = u.outboxSnapshot
	return nil
}
