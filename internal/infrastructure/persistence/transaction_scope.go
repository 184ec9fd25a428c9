package persistence

import (
	"context"

	"gorm.io/gorm"

	appinv "github.com/shopstock/backend/internal/application/inventory"
	"github.com/shopstock/backend/internal/domain/inventory"
	"github.com/shopstock/backend/internal/domain/sales"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appinv.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormTransactionalRepositories{tx: tx}
		return fn(repos)
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// Products returns the product repository scoped to the current transaction
func (r *gormTransactionalRepositories) Products() inventory.ProductRepository {
	return NewGormProductRepository(r.tx)
}

// Batches returns the batch repository scoped to the current transaction
func (r *gormTransactionalRepositories) Batches() inventory.BatchRepository {
	return NewGormBatchRepository(r.tx)
}

// Sales returns the sale repository scoped to the current transaction
func (r *gormTransactionalRepositories) Sales() sales.SaleRepository {
	return NewGormSaleRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appinv.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appinv.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
