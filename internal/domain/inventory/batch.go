package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopstock/backend/internal/domain/shared"
)

// BatchStatus represents the lifecycle state of an inventory batch
type BatchStatus string

const (
	BatchStatusActive    BatchStatus = "ACTIVE"
	BatchStatusDepleted  BatchStatus = "DEPLETED"
	BatchStatusExpired   BatchStatus = "EXPIRED"
	BatchStatusCancelled BatchStatus = "CANCELLED"
)

// IsValid checks if the status is a valid BatchStatus
func (s BatchStatus) IsValid() bool {
	switch s {
	case BatchStatusActive, BatchStatusDepleted, BatchStatusExpired, BatchStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of BatchStatus
func (s BatchStatus) String() string {
	return string(s)
}

// IsTerminal returns true for states that never transition back to ACTIVE
func (s BatchStatus) IsTerminal() bool {
	return s == BatchStatusDepleted || s == BatchStatusExpired || s == BatchStatusCancelled
}

// InventoryBatch represents one purchase lot of a product at a fixed unit cost.
// A batch is never deleted; it is retained for audit even after depletion,
// expiry or cancellation. RemainingQuantity only decreases, via allocation
// consumption.
type InventoryBatch struct {
	shared.BaseEntity
	ProductID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	BatchNumber         string          `gorm:"size:64;not null;uniqueIndex"`
	BuyPrice            decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	SellPriceAtPurchase decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // informational snapshot
	InitialQuantity     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	RemainingQuantity   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	PurchaseDate        time.Time       `gorm:"not null;index"`
	ExpiryDate          *time.Time
	Status              BatchStatus `gorm:"size:16;not null;default:'ACTIVE';index"`
	Sequence            int64       `gorm:"autoIncrement;uniqueIndex;<-:create"` // creation order, FIFO tie-break for equal purchase dates
	SupplierName        string      `gorm:"size:255"`
	Notes               string
	CancelReason        string `gorm:"size:255"`
}

// TableName returns the table name for GORM
func (InventoryBatch) TableName() string {
	return "inventory_batches"
}

// NewInventoryBatch creates a new batch from a receive-inventory action.
// RemainingQuantity is initialized equal to InitialQuantity. The purchase
// date must not lie after now, the caller's clock.
func NewInventoryBatch(
	productID uuid.UUID,
	batchNumber string,
	buyPrice, sellPrice, quantity decimal.Decimal,
	purchaseDate time.Time,
	expiryDate *time.Time,
	now time.Time,
) (*InventoryBatch, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if batchNumber == "" {
		return nil, shared.NewDomainError("INVALID_BATCH_NUMBER", "Batch number cannot be empty")
	}
	if buyPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_BUY_PRICE", "Buy price cannot be negative")
	}
	if sellPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_SELL_PRICE", "Sell price cannot be negative")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Initial quantity must be positive")
	}
	if purchaseDate.After(now) {
		return nil, shared.NewDomainError("INVALID_PURCHASE_DATE", "Purchase date cannot be in the future")
	}
	if expiryDate != nil && !expiryDate.After(purchaseDate) {
		return nil, shared.NewDomainError("INVALID_EXPIRY_DATE", "Expiry date must be after purchase date")
	}

	return &InventoryBatch{
		BaseEntity:          shared.NewBaseEntity(),
		ProductID:           productID,
		BatchNumber:         batchNumber,
		BuyPrice:            buyPrice,
		SellPriceAtPurchase: sellPrice,
		InitialQuantity:     quantity,
		RemainingQuantity:   quantity,
		PurchaseDate:        purchaseDate,
		ExpiryDate:          expiryDate,
		Status:              BatchStatusActive,
	}, nil
}

// IsExpired returns true if the batch expiry date has elapsed at the given time
func (b *InventoryBatch) IsExpired(now time.Time) bool {
	if b.ExpiryDate == nil {
		return false
	}
	return !b.ExpiryDate.After(now)
}

// RefreshStatus lazily applies the active -> expired transition. Expiry is
// evaluated on read/write, not by a background clock. Returns true if the
// status changed.
func (b *InventoryBatch) RefreshStatus(now time.Time) bool {
	if b.Status == BatchStatusActive && b.IsExpired(now) {
		b.Status = BatchStatusExpired
		b.UpdatedAt = now
		return true
	}
	return false
}

// IsAvailable returns true if the batch can still be consumed by allocations
func (b *InventoryBatch) IsAvailable(now time.Time) bool {
	return b.Status == BatchStatusActive &&
		b.RemainingQuantity.GreaterThan(decimal.Zero) &&
		!b.IsExpired(now)
}

// Consume reduces the remaining quantity by exactly the given amount.
// The batch transitions to DEPLETED when remaining reaches zero.
func (b *InventoryBatch) Consume(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Consumed quantity must be positive")
	}
	if b.Status != BatchStatusActive {
		return shared.NewDomainError("INVALID_STATE", "Only active batches can be consumed")
	}
	if quantity.GreaterThan(b.RemainingQuantity) {
		return shared.NewDomainError("CONSUME_EXCEEDS_REMAINING", "Consumed quantity exceeds remaining quantity")
	}

	b.RemainingQuantity = b.RemainingQuantity.Sub(quantity)
	if b.RemainingQuantity.IsZero() {
		b.Status = BatchStatusDepleted
	}
	b.UpdatedAt = time.Now()
	return nil
}

// Cancel deactivates an erroneously entered batch by explicit operator
// action, regardless of how much has already been consumed. Past sales keep
// their allocations: they copied the unit cost at consumption time and
// reference the batch by ID. The record is retained for audit.
func (b *InventoryBatch) Cancel(reason string) error {
	if b.Status != BatchStatusActive {
		return shared.NewDomainError("INVALID_STATE", "Only active batches can be cancelled")
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Cancel reason is required")
	}

	b.Status = BatchStatusCancelled
	b.CancelReason = reason
	b.UpdatedAt = time.Now()
	return nil
}

// ConsumedQuantity returns how much of the batch has been sold
func (b *InventoryBatch) ConsumedQuantity() decimal.Decimal {
	return b.InitialQuantity.Sub(b.RemainingQuantity)
}

// Value returns the cost value of the remaining stock (remaining * buy price)
func (b *InventoryBatch) Value() decimal.Decimal {
	return b.RemainingQuantity.Mul(b.BuyPrice)
}

// WillExpireWithin returns true if the batch expires within the given duration
func (b *InventoryBatch) WillExpireWithin(now time.Time, window time.Duration) bool {
	if b.ExpiryDate == nil {
		return false
	}
	return b.ExpiryDate.Before(now.Add(window))
}
