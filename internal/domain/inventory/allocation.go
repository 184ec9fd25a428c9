package inventory

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopstock/backend/internal/domain/shared"
)

// InsufficientStockError is returned when the total available quantity across
// a product's batches is less than requested. It is a business condition, not
// a bug; the caller rejects the whole sale with zero mutation.
type InsufficientStockError struct {
	ProductID uuid.UUID
	Requested decimal.Decimal
	Available decimal.Decimal
}

// Error implements the error interface
func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested=%s available=%s",
		e.ProductID, e.Requested.String(), e.Available.String())
}

// Unwrap allows errors.Is(err, shared.ErrInsufficientStock)
func (e *InsufficientStockError) Unwrap() error {
	return shared.ErrInsufficientStock
}

// BatchConsumption records how much of a single batch an allocation consumes
// and at what unit cost. Batches are referenced by stable ID, never by
// position, so historical records stay correct if batches are later
// deactivated.
type BatchConsumption struct {
	BatchID     uuid.UUID       `json:"batch_id"`
	BatchNumber string          `json:"batch_number"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"` // copied from batch.BuyPrice at consumption time
	Cost        decimal.Decimal `json:"cost"`      // Quantity * UnitCost, exact
}

// AllocationResult is the outcome of a FIFO allocation over a batch snapshot
type AllocationResult struct {
	ProductID        uuid.UUID          `json:"product_id"`
	Consumptions     []BatchConsumption `json:"consumptions"`
	TotalQuantity    decimal.Decimal    `json:"total_quantity"`
	TotalCost        decimal.Decimal    `json:"total_cost"` // exact, unrounded
	WeightedUnitCost decimal.Decimal    `json:"weighted_unit_cost"`
}

// AllocationEngine selects batches in FIFO order and computes per-batch
// consumption for a requested quantity. It is a pure computation over a
// snapshot: no batch is mutated here. The orchestrator applies the result
// inside its transaction boundary.
type AllocationEngine struct {
	now func() time.Time
}

// AllocationEngineOption is a functional option for configuring the engine
type AllocationEngineOption func(*AllocationEngine)

// WithClock overrides the engine clock, used for lazy expiry checks
func WithClock(now func() time.Time) AllocationEngineOption {
	return func(e *AllocationEngine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewAllocationEngine creates a new allocation engine
func NewAllocationEngine(opts ...AllocationEngineOption) *AllocationEngine {
	e := &AllocationEngine{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Allocate walks the product's batches in FIFO order, consuming
// min(remaining requested, batch remaining) from each, and fails with
// InsufficientStockError when the batches cannot satisfy the full amount.
// A request of exactly zero returns an empty allocation and no error.
//
// The walk is all-or-nothing: on shortage nothing is reported as consumed,
// so the caller observes no partial effect.
func (e *AllocationEngine) Allocate(productID uuid.UUID, requested decimal.Decimal, batches []InventoryBatch) (*AllocationResult, error) {
	if requested.IsNegative() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Requested quantity cannot be negative")
	}

	result := &AllocationResult{
		ProductID:    productID,
		Consumptions: make([]BatchConsumption, 0),
	}
	if requested.IsZero() {
		return result, nil
	}

	available := e.AvailableBatches(productID, batches)

	// Read-only availability pass before consuming anything.
	totalAvailable := decimal.Zero
	for _, batch := range available {
		totalAvailable = totalAvailable.Add(batch.RemainingQuantity)
	}
	if totalAvailable.LessThan(requested) {
		return nil, &InsufficientStockError{
			ProductID: productID,
			Requested: requested,
			Available: totalAvailable,
		}
	}

	remaining := requested
	totalCost := decimal.Zero
	for _, batch := range available {
		if remaining.IsZero() {
			break
		}

		take := decimal.Min(remaining, batch.RemainingQuantity)
		cost := take.Mul(batch.BuyPrice)

		result.Consumptions = append(result.Consumptions, BatchConsumption{
			BatchID:     batch.ID,
			BatchNumber: batch.BatchNumber,
			Quantity:    take,
			UnitCost:    batch.BuyPrice,
			Cost:        cost,
		})

		totalCost = totalCost.Add(cost)
		remaining = remaining.Sub(take)
	}

	result.TotalQuantity = requested
	result.TotalCost = totalCost
	if requested.GreaterThan(decimal.Zero) {
		result.WeightedUnitCost = totalCost.Div(requested).Round(4)
	}

	return result, nil
}

// AvailableBatches filters the snapshot down to consumable batches for the
// product and sorts them in FIFO order.
func (e *AllocationEngine) AvailableBatches(productID uuid.UUID, batches []InventoryBatch) []InventoryBatch {
	now := e.now()
	available := make([]InventoryBatch, 0, len(batches))
	for _, batch := range batches {
		if batch.ProductID != productID {
			continue
		}
		if batch.IsAvailable(now) {
			available = append(available, batch)
		}
	}
	SortFIFO(available)
	return available
}

// Available returns the total consumable quantity for the product
func (e *AllocationEngine) Available(productID uuid.UUID, batches []InventoryBatch) decimal.Decimal {
	total := decimal.Zero
	for _, batch := range e.AvailableBatches(productID, batches) {
		total = total.Add(batch.RemainingQuantity)
	}
	return total
}

// SortFIFO sorts batches ascending by purchase date, breaking ties on
// creation order so consumption order is a total order regardless of
// execution thread.
func SortFIFO(batches []InventoryBatch) {
	sort.SliceStable(batches, func(i, j int) bool {
		if !batches[i].PurchaseDate.Equal(batches[j].PurchaseDate) {
			return batches[i].PurchaseDate.Before(batches[j].PurchaseDate)
		}
		if batches[i].Sequence != batches[j].Sequence {
			return batches[i].Sequence < batches[j].Sequence
		}
		return batches[i].CreatedAt.Before(batches[j].CreatedAt)
	})
}

// ApplyAllocation executes an allocation result against the live batch
// entities, consuming the computed quantity from each. Every consumed batch
// must be present; a mismatch means the snapshot went stale and the caller
// should retry inside a fresh transaction.
func ApplyAllocation(batches []*InventoryBatch, result *AllocationResult) error {
	if result == nil {
		return shared.NewDomainError("INVALID_RESULT", "Allocation result cannot be nil")
	}

	byID := make(map[uuid.UUID]*InventoryBatch, len(batches))
	for _, batch := range batches {
		byID[batch.ID] = batch
	}

	for _, consumption := range result.Consumptions {
		batch, ok := byID[consumption.BatchID]
		if !ok {
			return shared.NewDomainError("BATCH_NOT_FOUND", "Batch not found: "+consumption.BatchID.String())
		}
		if err := batch.Consume(consumption.Quantity); err != nil {
			return err
		}
	}

	return nil
}
