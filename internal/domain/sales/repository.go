package sales

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/shopstock/backend/internal/domain/shared"
)

// SaleRepository persists completed sales. Sales are append only: there is
// a Create but deliberately no update or delete.
type SaleRepository interface {
	Create(ctx context.Context, sale *Sale) error
	FindByID(ctx context.Context, id uuid.UUID) (*Sale, error)
	FindByReceiptNumber(ctx context.Context, receiptNumber string) (*Sale, error)
	FindByDateRange(ctx context.Context, from, to time.Time, filter shared.Filter) ([]*Sale, error)
	Count(ctx context.Context) (int64, error)
}
