package inventory

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopstock/backend/internal/domain/shared"
)

// Event types for the inventory domain
const (
	EventTypeBatchReceived       = "inventory.batch_received"
	EventTypeBatchDepleted       = "inventory.batch_depleted"
	EventTypeBatchExpired        = "inventory.batch_expired"
	EventTypeBatchCancelled      = "inventory.batch_cancelled"
	EventTypeStockBelowThreshold = "inventory.stock_below_threshold"
	EventTypeProductRecomputed   = "inventory.product_recomputed"
)

// BatchReceivedEvent is emitted when a new batch enters inventory
type BatchReceivedEvent struct {
	shared.BaseDomainEvent
	ProductID   uuid.UUID       `json:"product_id"`
	BatchNumber string          `json:"batch_number"`
	Quantity    decimal.Decimal `json:"quantity"`
	BuyPrice    decimal.Decimal `json:"buy_price"`
}

// NewBatchReceivedEvent creates a new BatchReceivedEvent
func NewBatchReceivedEvent(batch *InventoryBatch) *BatchReceivedEvent {
	return &BatchReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBatchReceived, "InventoryBatch", batch.ID),
		ProductID:       batch.ProductID,
		BatchNumber:     batch.BatchNumber,
		Quantity:        batch.InitialQuantity,
		BuyPrice:        batch.BuyPrice,
	}
}

// BatchDepletedEvent is emitted when consumption drains a batch to zero
type BatchDepletedEvent struct {
	shared.BaseDomainEvent
	ProductID   uuid.UUID `json:"product_id"`
	BatchNumber string    `json:"batch_number"`
}

// NewBatchDepletedEvent creates a new BatchDepletedEvent
func NewBatchDepletedEvent(batch *InventoryBatch) *BatchDepletedEvent {
	return &BatchDepletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBatchDepleted, "InventoryBatch", batch.ID),
		ProductID:       batch.ProductID,
		BatchNumber:     batch.BatchNumber,
	}
}

// BatchExpiredEvent is emitted when the lazy expiry check flips a batch
type BatchExpiredEvent struct {
	shared.BaseDomainEvent
	ProductID         uuid.UUID       `json:"product_id"`
	BatchNumber       string          `json:"batch_number"`
	RemainingQuantity decimal.Decimal `json:"remaining_quantity"`
}

// NewBatchExpiredEvent creates a new BatchExpiredEvent
func NewBatchExpiredEvent(batch *InventoryBatch) *BatchExpiredEvent {
	return &BatchExpiredEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeBatchExpired, "InventoryBatch", batch.ID),
		ProductID:         batch.ProductID,
		BatchNumber:       batch.BatchNumber,
		RemainingQuantity: batch.RemainingQuantity,
	}
}

// BatchCancelledEvent is emitted on explicit operator cancellation
type BatchCancelledEvent struct {
	shared.BaseDomainEvent
	ProductID   uuid.UUID `json:"product_id"`
	BatchNumber string    `json:"batch_number"`
	Reason      string    `json:"reason"`
}

// NewBatchCancelledEvent creates a new BatchCancelledEvent
func NewBatchCancelledEvent(batch *InventoryBatch) *BatchCancelledEvent {
	return &BatchCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBatchCancelled, "InventoryBatch", batch.ID),
		ProductID:       batch.ProductID,
		BatchNumber:     batch.BatchNumber,
		Reason:          batch.CancelReason,
	}
}

// StockBelowThresholdEvent is emitted when a recompute drops the rollup
// below the configured low-stock threshold
type StockBelowThresholdEvent struct {
	shared.BaseDomainEvent
	ProductName   string          `json:"product_name"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
	Threshold     decimal.Decimal `json:"threshold"`
}

// NewStockBelowThresholdEvent creates a new StockBelowThresholdEvent
func NewStockBelowThresholdEvent(product *Product) *StockBelowThresholdEvent {
	return &StockBelowThresholdEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockBelowThreshold, "Product", product.ID),
		ProductName:     product.Name,
		TotalQuantity:   product.TotalQuantity,
		Threshold:       product.LowStockThreshold,
	}
}
