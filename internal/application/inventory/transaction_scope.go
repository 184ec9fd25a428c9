package inventory

import (
	"context"

	"github.com/shopstock/backend/internal/domain/inventory"
	"github.com/shopstock/backend/internal/domain/sales"
)

// TransactionScope provides transactional access to the inventory and sales
// repositories. When a function is executed within a transaction scope, all
// repository operations will be part of the same database transaction and
// will be committed or rolled back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all repositories within a
// transaction. All repositories returned share the same underlying database
// transaction.
//
// Aggregate boundary notes:
//   - Products: the product roll-up aggregate. Stored totals and weighted
//     prices are derived values; the batch list is the source of truth.
//   - Batches: individual purchase batches, the costing source of truth.
//   - Sales: append-only completed sale records.
type TransactionalRepositories interface {
	// Products returns the product repository scoped to the current transaction
	Products() inventory.ProductRepository
	// Batches returns the batch repository scoped to the current transaction
	Batches() inventory.BatchRepository
	// Sales returns the sale repository scoped to the current transaction
	Sales() sales.SaleRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use
// transactions. This is useful for testing or when transaction support is
// not required.
type NoOpTransactionScope struct {
	products inventory.ProductRepository
	batches  inventory.BatchRepository
	sales    sales.SaleRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	products inventory.ProductRepository,
	batches inventory.BatchRepository,
	saleRepo sales.SaleRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		products: products,
		batches:  batches,
		sales:    saleRepo,
	}
}

// Execute runs the function without a real transaction (for testing/compatibility).
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// Products returns the product repository.
func (s *NoOpTransactionScope) Products() inventory.ProductRepository {
	return s.products
}

// Batches returns the batch repository.
func (s *NoOpTransactionScope) Batches() inventory.BatchRepository {
	return s.batches
}

// Sales returns the sale repository.
func (s *NoOpTransactionScope) Sales() sales.SaleRepository {
	return s.sales
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
