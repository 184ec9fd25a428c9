package sales

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopstock/backend/internal/domain/inventory"
	"github.com/shopstock/backend/internal/domain/shared"
)

func allocationResult(productID uuid.UUID, consumptions ...inventory.BatchConsumption) *inventory.AllocationResult {
	result := &inventory.AllocationResult{
		ProductID:    productID,
		Consumptions: consumptions,
	}
	for _, c := range consumptions {
		result.TotalQuantity = result.TotalQuantity.Add(c.Quantity)
		result.TotalCost = result.TotalCost.Add(c.Cost)
	}
	return result
}

func consumption(number string, qty, unitCost float64) inventory.BatchConsumption {
	q := decimal.NewFromFloat(qty)
	c := decimal.NewFromFloat(unitCost)
	return inventory.BatchConsumption{
		BatchID:     uuid.New(),
		BatchNumber: number,
		Quantity:    q,
		UnitCost:    c,
		Cost:        q.Mul(c),
	}
}

func allocatedLine(t *testing.T, qty, unitSell float64, consumptions ...inventory.BatchConsumption) *SaleLine {
	t.Helper()
	q := decimal.NewFromFloat(qty)
	price := decimal.NewFromFloat(unitSell)
	line, err := NewSaleLine(uuid.New(), "Umbrella", q, price, q.Mul(price))
	require.NoError(t, err)
	require.NoError(t, line.AttachAllocation(allocationResult(line.ProductID, consumptions...), time.Now()))
	return line
}

func TestNewSaleLine(t *testing.T) {
	productID := uuid.New()

	t.Run("accepts line total within tolerance", func(t *testing.T) {
		line, err := NewSaleLine(productID, "Umbrella",
			decimal.NewFromInt(3), decimal.NewFromFloat(19.99), decimal.NewFromFloat(59.98))
		require.NoError(t, err)
		assert.True(t, line.LineTotal.Equal(decimal.NewFromFloat(59.98)))
	})

	t.Run("rejects line total off by more than a cent", func(t *testing.T) {
		_, err := NewSaleLine(productID, "Umbrella",
			decimal.NewFromInt(3), decimal.NewFromFloat(19.99), decimal.NewFromFloat(59.00))
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "LINE_TOTAL_MISMATCH", domainErr.Code)
	})

	t.Run("rejects zero and negative quantity", func(t *testing.T) {
		_, err := NewSaleLine(productID, "Umbrella", decimal.Zero, decimal.NewFromInt(10), decimal.Zero)
		require.Error(t, err)
		_, err = NewSaleLine(productID, "Umbrella", decimal.NewFromInt(-1), decimal.NewFromInt(10), decimal.NewFromInt(-10))
		require.Error(t, err)
	})

	t.Run("rejects missing product", func(t *testing.T) {
		_, err := NewSaleLine(uuid.Nil, "Umbrella", decimal.NewFromInt(1), decimal.NewFromInt(10), decimal.NewFromInt(10))
		require.Error(t, err)
	})
}

func TestAttachAllocation(t *testing.T) {
	t.Run("derives cost and profit from consumptions", func(t *testing.T) {
		line, err := NewSaleLine(uuid.New(), "Umbrella",
			decimal.NewFromInt(7), decimal.NewFromInt(1500), decimal.NewFromInt(10500))
		require.NoError(t, err)

		attachedAt := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
		result := allocationResult(line.ProductID,
			consumption("B-001", 5, 1000),
			consumption("B-002", 2, 1200),
		)
		require.NoError(t, line.AttachAllocation(result, attachedAt))

		require.Len(t, line.Allocations, 2)
		assert.Equal(t, attachedAt, line.Allocations[0].CreatedAt)
		assert.Equal(t, attachedAt, line.Allocations[1].CreatedAt)
		assert.True(t, line.CostTotal.Equal(decimal.NewFromInt(7400)))
		// 10500 - 7400
		assert.True(t, line.Profit.Equal(decimal.NewFromInt(3100)))
		// Per-batch profit: (1500-1000)*5 and (1500-1200)*2
		assert.True(t, line.Allocations[0].Profit.Equal(decimal.NewFromInt(2500)))
		assert.True(t, line.Allocations[1].Profit.Equal(decimal.NewFromInt(600)))
	})

	t.Run("rejects allocation not covering the line quantity", func(t *testing.T) {
		line, err := NewSaleLine(uuid.New(), "Umbrella",
			decimal.NewFromInt(7), decimal.NewFromInt(1500), decimal.NewFromInt(10500))
		require.NoError(t, err)

		result := allocationResult(line.ProductID, consumption("B-001", 5, 1000))
		err = line.AttachAllocation(result, time.Now())
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "ALLOCATION_MISMATCH", domainErr.Code)
	})

	t.Run("rejects nil result", func(t *testing.T) {
		line, err := NewSaleLine(uuid.New(), "Umbrella",
			decimal.NewFromInt(1), decimal.NewFromInt(10), decimal.NewFromInt(10))
		require.NoError(t, err)
		require.Error(t, line.AttachAllocation(nil, time.Now()))
	})
}

func TestNewSale(t *testing.T) {
	t.Run("assembles immutable record with totals and event", func(t *testing.T) {
		lineA := allocatedLine(t, 2, 1500, consumption("B-001", 2, 1000))
		lineB := allocatedLine(t, 1, 800, consumption("B-002", 1, 500))

		sale, err := NewSale("RCP-20240201-AB12CD34", []*SaleLine{lineA, lineB},
			decimal.NewFromInt(3800), "walk-in")
		require.NoError(t, err)

		assert.True(t, sale.TotalAmount.Equal(decimal.NewFromInt(3800)))
		assert.True(t, sale.TotalCost.Equal(decimal.NewFromInt(2500)))
		assert.True(t, sale.TotalProfit.Equal(decimal.NewFromInt(1300)))
		assert.True(t, sale.TotalQuantity().Equal(decimal.NewFromInt(3)))
		require.Len(t, sale.Lines, 2)
		assert.Equal(t, sale.ID, sale.Lines[0].SaleID)

		events := sale.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeSaleCompleted, events[0].EventType())
	})

	t.Run("rejects total off by more than a cent", func(t *testing.T) {
		line := allocatedLine(t, 2, 1500, consumption("B-010", 2, 1000))
		_, err := NewSale("RCP-X", []*SaleLine{line}, decimal.NewFromInt(3002), "")
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "TOTAL_MISMATCH", domainErr.Code)
	})

	t.Run("rejects empty line set", func(t *testing.T) {
		_, err := NewSale("RCP-X", nil, decimal.Zero, "")
		require.Error(t, err)
	})

	t.Run("rejects lines without allocations", func(t *testing.T) {
		line, err := NewSaleLine(uuid.New(), "Umbrella",
			decimal.NewFromInt(1), decimal.NewFromInt(10), decimal.NewFromInt(10))
		require.NoError(t, err)

		_, err = NewSale("RCP-X", []*SaleLine{line}, decimal.NewFromInt(10), "")
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "MISSING_ALLOCATION", domainErr.Code)
	})

	t.Run("rejects empty receipt number", func(t *testing.T) {
		line := allocatedLine(t, 1, 10, consumption("B-020", 1, 5))
		_, err := NewSale("", []*SaleLine{line}, decimal.NewFromInt(10), "")
		require.Error(t, err)
	})
}

func TestSaleProductIDs(t *testing.T) {
	lineA := allocatedLine(t, 1, 10, consumption("B-001", 1, 5))
	lineB := allocatedLine(t, 1, 20, consumption("B-002", 1, 5))
	// Third line repeats the first product.
	lineC, err := NewSaleLine(lineA.ProductID, "Umbrella",
		decimal.NewFromInt(1), decimal.NewFromInt(10), decimal.NewFromInt(10))
	require.NoError(t, err)
	require.NoError(t, lineC.AttachAllocation(allocationResult(lineC.ProductID, consumption("B-003", 1, 5)), time.Now()))

	sale, err := NewSale("RCP-Y", []*SaleLine{lineA, lineB, lineC}, decimal.NewFromInt(40), "")
	require.NoError(t, err)

	ids := sale.ProductIDs()
	assert.Len(t, ids, 2)
}

func TestGenerateReceiptNumber(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	number := GenerateReceiptNumber(now)
	assert.True(t, strings.HasPrefix(number, "RCP-20240315-"), "got %s", number)
	assert.Len(t, number, len("RCP-20240315-")+8)
	assert.NotEqual(t, number, GenerateReceiptNumber(now))
}
