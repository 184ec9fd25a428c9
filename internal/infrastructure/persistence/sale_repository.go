package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopstock/backend/internal/domain/sales"
	"github.com/shopstock/backend/internal/domain/shared"
)

// GormSaleRepository implements SaleRepository using GORM. Sales are
// append only; there is deliberately no update or delete path.
type GormSaleRepository struct {
	db *gorm.DB
}

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

// Create persists a new sale with its lines and batch allocations
func (r *GormSaleRepository) Create(ctx context.Context, sale *sales.Sale) error {
	return r.db.WithContext(ctx).Create(sale).Error
}

// FindByID finds a sale by its ID, including lines and allocations
func (r *GormSaleRepository) FindByID(ctx context.Context, id uuid.UUID) (*sales.Sale, error) {
	var sale sales.Sale
	if err := r.db.WithContext(ctx).
		Preload("Lines.Allocations").
		Preload("Lines").
		First(&sale, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &sale, nil
}

// FindByReceiptNumber finds a sale by its receipt number
func (r *GormSaleRepository) FindByReceiptNumber(ctx context.Context, receiptNumber string) (*sales.Sale, error) {
	var sale sales.Sale
	if err := r.db.WithContext(ctx).
		Preload("Lines.Allocations").
		Preload("Lines").
		Where("receipt_number = ?", receiptNumber).
		First(&sale).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &sale, nil
}

// FindByDateRange finds sales within the date range, newest first
func (r *GormSaleRepository) FindByDateRange(ctx context.Context, from, to time.Time, filter shared.Filter) ([]*sales.Sale, error) {
	var found []*sales.Sale
	query := r.db.WithContext(ctx).
		Preload("Lines.Allocations").
		Preload("Lines").
		Where("sold_at >= ? AND sold_at < ?", from, to).
		Order("sold_at DESC")
	query = applyPagination(query, filter)

	if err := query.Find(&found).Error; err != nil {
		return nil, err
	}
	return found, nil
}

// Count counts all sales
func (r *GormSaleRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&sales.Sale{}).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure GormSaleRepository implements SaleRepository
var _ sales.SaleRepository = (*GormSaleRepository)(nil)
