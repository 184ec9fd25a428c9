package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopstock/backend/internal/domain/inventory"
	"github.com/shopstock/backend/internal/domain/shared"
)

// GormBatchRepository implements BatchRepository using GORM
type GormBatchRepository struct {
	db *gorm.DB
}

// NewGormBatchRepository creates a new GormBatchRepository
func NewGormBatchRepository(db *gorm.DB) *GormBatchRepository {
	return &GormBatchRepository{db: db}
}

// FindByID finds a batch by its ID
func (r *GormBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.InventoryBatch, error) {
	var batch inventory.InventoryBatch
	if err := r.db.WithContext(ctx).First(&batch, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &batch, nil
}

// FindByBatchNumber finds a batch by its unique batch number
func (r *GormBatchRepository) FindByBatchNumber(ctx context.Context, batchNumber string) (*inventory.InventoryBatch, error) {
	var batch inventory.InventoryBatch
	if err := r.db.WithContext(ctx).
		Where("batch_number = ?", batchNumber).
		First(&batch).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &batch, nil
}

// FindByProduct finds all batches for a product, any status
func (r *GormBatchRepository) FindByProduct(ctx context.Context, productID uuid.UUID) ([]inventory.InventoryBatch, error) {
	var batches []inventory.InventoryBatch
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("purchase_date ASC, sequence ASC").
		Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

// FindAvailable finds consumable batches for a product in FIFO order.
// Ordering matches the allocation engine: purchase date ascending with the
// creation sequence breaking ties.
func (r *GormBatchRepository) FindAvailable(ctx context.Context, productID uuid.UUID) ([]inventory.InventoryBatch, error) {
	var batches []inventory.InventoryBatch
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND status = ? AND remaining_quantity > 0",
			productID, inventory.BatchStatusActive).
		Order("purchase_date ASC, sequence ASC").
		Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

// FindExpiringSoon finds active batches expiring within the given days
func (r *GormBatchRepository) FindExpiringSoon(ctx context.Context, withinDays int, filter shared.Filter) ([]inventory.InventoryBatch, error) {
	cutoff := time.Now().AddDate(0, 0, withinDays)

	var batches []inventory.InventoryBatch
	query := r.db.WithContext(ctx).
		Where("status = ? AND expiry_date IS NOT NULL AND expiry_date <= ?",
			inventory.BatchStatusActive, cutoff).
		Order("expiry_date ASC")
	query = applyPagination(query, filter)

	if err := query.Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

// ExistsByBatchNumber checks whether a batch number is already taken
func (r *GormBatchRepository) ExistsByBatchNumber(ctx context.Context, batchNumber string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&inventory.InventoryBatch{}).
		Where("batch_number = ?", batchNumber).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a batch
func (r *GormBatchRepository) Save(ctx context.Context, batch *inventory.InventoryBatch) error {
	return r.db.WithContext(ctx).Save(batch).Error
}

// SaveAll creates or updates multiple batches
func (r *GormBatchRepository) SaveAll(ctx context.Context, batches []inventory.InventoryBatch) error {
	if len(batches) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Save(&batches).Error
}

// CountByProduct counts batches for a product
func (r *GormBatchRepository) CountByProduct(ctx context.Context, productID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&inventory.InventoryBatch{}).
		Where("product_id = ?", productID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyPagination applies paging and ordering from a filter
func applyPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}
	if filter.OrderBy != "" {
		orderDir := "ASC"
		if strings.ToLower(filter.OrderDir) == "desc" {
			orderDir = "DESC"
		}
		query = query.Order(filter.OrderBy + " " + orderDir)
	}
	return query
}

// Ensure GormBatchRepository implements BatchRepository
var _ inventory.BatchRepository = (*GormBatchRepository)(nil)
