package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopstock/backend/internal/domain/inventory"
	"github.com/shopstock/backend/internal/domain/shared"
)

// totalTolerance is the currency tolerance for client-supplied totals
var totalTolerance = decimal.NewFromFloat(0.01)

// BatchAllocation records the consumption of one batch by one sale line.
// It references the batch by stable ID, never by position, and copies the
// unit cost at consumption time so profit reports stay correct even if the
// batch is later deactivated.
type BatchAllocation struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	LineID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	BatchID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	BatchNumber string          `gorm:"size:64;not null"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitCost    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Profit      decimal.Decimal `gorm:"type:decimal(18,2);not null"` // rounded at the reporting edge
	CreatedAt   time.Time
}

// TableName returns the table name for GORM
func (BatchAllocation) TableName() string {
	return "sale_batch_allocations"
}

// SaleLine is one product line in a sale, carrying the FIFO cost breakdown
// it consumed
type SaleLine struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	SaleID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductName   string          `gorm:"size:255;not null"` // snapshot at sale time
	Quantity      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitSellPrice decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	LineTotal     decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	CostTotal     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Profit        decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	CreatedAt     time.Time

	Allocations []BatchAllocation `gorm:"foreignKey:LineID;references:ID"`
}

// TableName returns the table name for GORM
func (SaleLine) TableName() string {
	return "sale_lines"
}

// NewSaleLine validates and creates a sale line. The client-supplied line
// total must match unit price times quantity within the currency tolerance.
func NewSaleLine(productID uuid.UUID, productName string, quantity, unitSellPrice, lineTotal decimal.Decimal) (*SaleLine, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if productName == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Line quantity must be positive")
	}
	if unitSellPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit sell price cannot be negative")
	}

	expected := quantity.Mul(unitSellPrice)
	if lineTotal.Sub(expected).Abs().GreaterThan(totalTolerance) {
		return nil, shared.NewDomainError("LINE_TOTAL_MISMATCH",
			"Line total does not match quantity times unit price")
	}

	return &SaleLine{
		ID:            uuid.New(),
		ProductID:     productID,
		ProductName:   productName,
		Quantity:      quantity,
		UnitSellPrice: unitSellPrice,
		LineTotal:     lineTotal.Round(2),
		CreatedAt:     time.Now(),
		Allocations:   make([]BatchAllocation, 0),
	}, nil
}

// AttachAllocation copies the engine's batch consumption breakdown onto the
// line and derives cost and profit, stamping each allocation with now, the
// caller's clock. The consumed quantities must sum to the line quantity
// exactly.
func (l *SaleLine) AttachAllocation(result *inventory.AllocationResult, now time.Time) error {
	if result == nil {
		return shared.NewDomainError("INVALID_ALLOCATION", "Allocation result cannot be nil")
	}

	consumed := decimal.Zero
	allocations := make([]BatchAllocation, 0, len(result.Consumptions))

	for _, c := range result.Consumptions {
		profit := l.UnitSellPrice.Sub(c.UnitCost).Mul(c.Quantity).Round(2)
		allocations = append(allocations, BatchAllocation{
			ID:          uuid.New(),
			LineID:      l.ID,
			BatchID:     c.BatchID,
			BatchNumber: c.BatchNumber,
			Quantity:    c.Quantity,
			UnitCost:    c.UnitCost,
			Profit:      profit,
			CreatedAt:   now,
		})
		consumed = consumed.Add(c.Quantity)
	}

	if !consumed.Equal(l.Quantity) {
		return shared.NewDomainError("ALLOCATION_MISMATCH",
			"Allocated quantity does not match line quantity")
	}

	l.Allocations = allocations
	l.CostTotal = result.TotalCost
	l.Profit = l.Quantity.Mul(l.UnitSellPrice).Sub(result.TotalCost).Round(2)
	return nil
}

// Sale is an immutable record of one completed transaction. Corrections are
// modeled as new compensating records, never as mutation of a persisted sale.
type Sale struct {
	shared.BaseAggregateRoot
	ReceiptNumber string          `gorm:"size:64;not null;uniqueIndex"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	TotalCost     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TotalProfit   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	SoldAt        time.Time       `gorm:"not null;index"`
	Note          string

	Lines []SaleLine `gorm:"foreignKey:SaleID;references:ID"`
}

// TableName returns the table name for GORM
func (Sale) TableName() string {
	return "sales"
}

// NewSale assembles a sale from validated, allocation-carrying lines. The
// client-supplied total must match the line total sum within tolerance.
func NewSale(receiptNumber string, lines []*SaleLine, totalAmount decimal.Decimal, note string) (*Sale, error) {
	if receiptNumber == "" {
		return nil, shared.NewDomainError("INVALID_RECEIPT", "Receipt number cannot be empty")
	}
	if len(lines) == 0 {
		return nil, shared.NewDomainError("NO_LINES", "A sale requires at least one line")
	}

	lineSum := decimal.Zero
	totalCost := decimal.Zero
	for _, line := range lines {
		if len(line.Allocations) == 0 {
			return nil, shared.NewDomainError("MISSING_ALLOCATION",
				"Every sale line must carry its batch allocation")
		}
		lineSum = lineSum.Add(line.LineTotal)
		totalCost = totalCost.Add(line.CostTotal)
	}

	if lineSum.Sub(totalAmount).Abs().GreaterThan(totalTolerance) {
		return nil, shared.NewDomainError("TOTAL_MISMATCH",
			"Sale total does not match the sum of line totals")
	}

	sale := &Sale{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ReceiptNumber:     receiptNumber,
		TotalAmount:       totalAmount.Round(2),
		TotalCost:         totalCost,
		TotalProfit:       totalAmount.Sub(totalCost).Round(2),
		SoldAt:            time.Now(),
		Note:              note,
		Lines:             make([]SaleLine, 0, len(lines)),
	}

	for _, line := range lines {
		line.SaleID = sale.ID
		sale.Lines = append(sale.Lines, *line)
	}

	sale.AddDomainEvent(NewSaleCompletedEvent(sale))

	return sale, nil
}

// TotalQuantity returns the sum of all line quantities
func (s *Sale) TotalQuantity() decimal.Decimal {
	total := decimal.Zero
	for _, line := range s.Lines {
		total = total.Add(line.Quantity)
	}
	return total
}

// ProductIDs returns the distinct products touched by this sale
func (s *Sale) ProductIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(s.Lines))
	ids := make([]uuid.UUID, 0, len(s.Lines))
	for _, line := range s.Lines {
		if _, ok := seen[line.ProductID]; ok {
			continue
		}
		seen[line.ProductID] = struct{}{}
		ids = append(ids, line.ProductID)
	}
	return ids
}
