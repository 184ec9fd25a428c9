package inventory

import (
	"context"

	"github.com/google/uuid"

	"github.com/shopstock/backend/internal/domain/shared"
)

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	// FindByID finds a product by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindByIDs finds multiple products by their IDs
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error)

	// FindAll finds all products matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Product, error)

	// FindBelowThreshold finds products whose rollup quantity is below their
	// low stock threshold
	FindBelowThreshold(ctx context.Context) ([]Product, error)

	// Save creates or updates a product
	Save(ctx context.Context, product *Product) error

	// SaveWithLock saves with optimistic locking (checks version)
	SaveWithLock(ctx context.Context, product *Product) error

	// Count counts products matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}

// BatchRepository defines the interface for inventory batch persistence.
// Batches are append-and-mutate records: they are created on receipt,
// consumed by sales, and never deleted.
type BatchRepository interface {
	// FindByID finds a batch by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*InventoryBatch, error)

	// FindByBatchNumber finds a batch by its unique batch number
	FindByBatchNumber(ctx context.Context, batchNumber string) (*InventoryBatch, error)

	// FindByProduct finds all batches for a product, any status. Roll-up
	// recomputation depends on the full list, so this is not paginated.
	FindByProduct(ctx context.Context, productID uuid.UUID) ([]InventoryBatch, error)

	// FindAvailable finds consumable batches for a product in FIFO order
	// (purchase date ascending, creation sequence breaking ties)
	FindAvailable(ctx context.Context, productID uuid.UUID) ([]InventoryBatch, error)

	// FindExpiringSoon finds active batches expiring within the given days
	FindExpiringSoon(ctx context.Context, withinDays int, filter shared.Filter) ([]InventoryBatch, error)

	// ExistsByBatchNumber checks whether a batch number is already taken
	ExistsByBatchNumber(ctx context.Context, batchNumber string) (bool, error)

	// Save creates or updates a batch
	Save(ctx context.Context, batch *InventoryBatch) error

	// SaveAll creates or updates multiple batches
	SaveAll(ctx context.Context, batches []InventoryBatch) error

	// CountByProduct counts batches for a product
	CountByProduct(ctx context.Context, productID uuid.UUID) (int64, error)
}
