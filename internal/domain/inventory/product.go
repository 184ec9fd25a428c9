package inventory

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/shopstock/backend/internal/domain/shared"
)

// rollupTolerance is the maximum divergence allowed between stored rollups
// and the live batch sum before reconciliation reports a consistency error.
var rollupTolerance = decimal.NewFromFloat(0.01)

// Product is the aggregate root for a sellable product's derived stock
// rollups. TotalQuantity and the weighted prices are always derivable from
// the product's batches; they are never the source of truth for quantity or
// cost, only a read-optimized summary maintained by Recompute.
type Product struct {
	shared.BaseAggregateRoot
	Name              string          `gorm:"size:255;not null"`
	TotalQuantity     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	WeightedBuyPrice  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	WeightedSellPrice decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	LowStockThreshold decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`

	// Association - loaded lazily
	Batches []InventoryBatch `gorm:"foreignKey:ProductID;references:ID"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new product with zeroed rollups
func NewProduct(name string, lowStockThreshold decimal.Decimal) (*Product, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if lowStockThreshold.IsNegative() {
		return nil, shared.NewDomainError("INVALID_THRESHOLD", "Low stock threshold cannot be negative")
	}

	return &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		TotalQuantity:     decimal.Zero,
		WeightedBuyPrice:  decimal.Zero,
		WeightedSellPrice: decimal.Zero,
		LowStockThreshold: lowStockThreshold,
		Batches:           make([]InventoryBatch, 0),
	}, nil
}

// Rollup is the derived summary of a product's active batches
type Rollup struct {
	TotalQuantity     decimal.Decimal
	WeightedBuyPrice  decimal.Decimal
	WeightedSellPrice decimal.Decimal
	TotalValue        decimal.Decimal // remaining quantity * buy price, summed
}

// ComputeRollup derives the product summary from a batch snapshot. This is
// the single authoritative derivation; every code path that needs the
// summary goes through it. Pure function of batch state: calling it twice
// with the same input yields identical output.
func ComputeRollup(batches []InventoryBatch, now time.Time) Rollup {
	totalQty := decimal.Zero
	buyValue := decimal.Zero
	sellValue := decimal.Zero

	for _, batch := range batches {
		if !batch.IsAvailable(now) {
			continue
		}
		totalQty = totalQty.Add(batch.RemainingQuantity)
		buyValue = buyValue.Add(batch.RemainingQuantity.Mul(batch.BuyPrice))
		sellValue = sellValue.Add(batch.RemainingQuantity.Mul(batch.SellPriceAtPurchase))
	}

	rollup := Rollup{
		TotalQuantity: totalQty,
		TotalValue:    buyValue,
	}
	if totalQty.GreaterThan(decimal.Zero) {
		rollup.WeightedBuyPrice = buyValue.Div(totalQty).Round(4)
		rollup.WeightedSellPrice = sellValue.Div(totalQty).Round(4)
	} else {
		rollup.WeightedBuyPrice = decimal.Zero
		rollup.WeightedSellPrice = decimal.Zero
	}
	return rollup
}

// Recompute overwrites the stored rollups from the batch snapshot. Invoked
// after every mutation that changes batch remaining quantity or status, and
// exposed as an idempotent repair operation for reconciliation.
func (p *Product) Recompute(batches []InventoryBatch, now time.Time) {
	rollup := ComputeRollup(batches, now)

	p.TotalQuantity = rollup.TotalQuantity
	p.WeightedBuyPrice = rollup.WeightedBuyPrice
	p.WeightedSellPrice = rollup.WeightedSellPrice
	p.UpdatedAt = now
	p.IncrementVersion()

	if p.IsBelowThreshold() {
		p.AddDomainEvent(NewStockBelowThresholdEvent(p))
	}
}

// CheckConsistency compares the stored rollups against the live batch sum
// and returns a ConsistencyError when they diverge beyond tolerance. This is
// an internal condition surfaced only to the operational repair path.
func (p *Product) CheckConsistency(batches []InventoryBatch, now time.Time) error {
	rollup := ComputeRollup(batches, now)
	if p.TotalQuantity.Sub(rollup.TotalQuantity).Abs().GreaterThan(rollupTolerance) {
		return &ConsistencyError{
			ProductID:      p.ID,
			StoredQuantity: p.TotalQuantity,
			LiveQuantity:   rollup.TotalQuantity,
		}
	}
	return nil
}

// IsBelowThreshold returns true when the rollup quantity has fallen below
// the configured low stock threshold
func (p *Product) IsBelowThreshold() bool {
	return p.LowStockThreshold.GreaterThan(decimal.Zero) &&
		p.TotalQuantity.LessThan(p.LowStockThreshold)
}

// SetLowStockThreshold updates the alerting threshold
func (p *Product) SetLowStockThreshold(threshold decimal.Decimal) error {
	if threshold.IsNegative() {
		return shared.NewDomainError("INVALID_THRESHOLD", "Low stock threshold cannot be negative")
	}
	p.LowStockThreshold = threshold
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// Rename updates the product display name
func (p *Product) Rename(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	p.Name = name
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}
