package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// UnitOfWork is one atomic boundary over the repositories. Everything done
// through its repositories either commits together or leaves no trace.
type UnitOfWork interface {
	Products() ProductRepository
	Inventory() InventoryRepository
	Sales() SaleRepository
	Outbox() OutboxRepository
	Commit() error
	Rollback() error
}

// UnitOfWorkFactory opens units of work. Services depend on this rather than
// on *sql.DB so tests can substitute in-memory fakes.
type UnitOfWorkFactory interface {
	Begin(ctx context.Context) (UnitOfWork, error)
}

type sqlUnitOfWorkFactory struct {
	db *sql.DB
}

// NewUnitOfWorkFactory creates a factory backed by database transactions
func NewUnitOfWorkFactory(db *sql.DB) UnitOfWorkFactory {
	return &sqlUnitOfWorkFactory{db: db}
}

func (f *sqlUnitOfWorkFactory) Begin(ctx context.Context) (UnitOfWork, error) {
	tx, err := f.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	return &sqlUnitOfWork{tx: tx}, nil
}

type sqlUnitOfWork struct {
	tx *sql.Tx
}

func (u *sqlUnitOfWork) Products() ProductRepository {
	return NewProductRepository(u.tx)
}

func (u *sqlUnitOfWork) Inventory() InventoryRepository {
	return NewInventoryRepository(u.tx)
}

func (u *sqlUnitOfWork) Sales() SaleRepository {
	return NewSaleRepository(u.tx)
}

func (u *sqlUnitOfWork) Outbox() OutboxRepository {
	return NewOutboxRepository(u.tx)
}

func (u *sqlUnitOfWork) Commit() error {
	return u.tx.Commit()
}

func (u *sqlUnitOfWork) Rollback() error {
	return u.tx.Rollback()
}
