package inventory

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopstock/backend/internal/domain/shared"
)

func mustBatch(t *testing.T, productID uuid.UUID, number string, buyPrice, qty float64, purchaseDate time.Time) InventoryBatch {
	t.Helper()
	batch, err := NewInventoryBatch(
		productID,
		number,
		decimal.NewFromFloat(buyPrice),
		decimal.NewFromFloat(buyPrice*1.5),
		decimal.NewFromFloat(qty),
		purchaseDate,
		nil,
		time.Now(),
	)
	require.NoError(t, err)
	return *batch
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestAllocationEngineAllocate(t *testing.T) {
	productID := uuid.New()
	now := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	engine := NewAllocationEngine(WithClock(fixedClock(now)))

	jan1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	jan15 := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	t.Run("spans batches in purchase date order", func(t *testing.T) {
		batches := []InventoryBatch{
			mustBatch(t, productID, "B-002", 1200, 5, jan15),
			mustBatch(t, productID, "B-001", 1000, 5, jan1),
		}

		result, err := engine.Allocate(productID, decimal.NewFromInt(7), batches)
		require.NoError(t, err)
		require.Len(t, result.Consumptions, 2)

		assert.Equal(t, "B-001", result.Consumptions[0].BatchNumber)
		assert.True(t, result.Consumptions[0].Quantity.Equal(decimal.NewFromInt(5)))
		assert.Equal(t, "B-002", result.Consumptions[1].BatchNumber)
		assert.True(t, result.Consumptions[1].Quantity.Equal(decimal.NewFromInt(2)))

		// 5*1000 + 2*1200
		assert.True(t, result.TotalCost.Equal(decimal.NewFromInt(7400)),
			"total cost = %s", result.TotalCost)
		assert.True(t, result.WeightedUnitCost.Equal(decimal.NewFromFloat(1057.1429)),
			"weighted unit cost = %s", result.WeightedUnitCost)
	})

	t.Run("purchase date wins over creation order", func(t *testing.T) {
		// Entered later but purchased earlier, so it is consumed first.
		late := mustBatch(t, productID, "B-LATE", 900, 3, jan1)
		late.Sequence = 99
		early := mustBatch(t, productID, "B-EARLY", 1100, 3, jan15)
		early.Sequence = 1

		result, err := engine.Allocate(productID, decimal.NewFromInt(4), []InventoryBatch{early, late})
		require.NoError(t, err)
		require.Len(t, result.Consumptions, 2)
		assert.Equal(t, "B-LATE", result.Consumptions[0].BatchNumber)
		assert.Equal(t, "B-EARLY", result.Consumptions[1].BatchNumber)
	})

	t.Run("equal purchase dates break ties on sequence", func(t *testing.T) {
		first := mustBatch(t, productID, "B-SEQ1", 1000, 2, jan1)
		first.Sequence = 1
		second := mustBatch(t, productID, "B-SEQ2", 1000, 2, jan1)
		second.Sequence = 2

		result, err := engine.Allocate(productID, decimal.NewFromInt(3), []InventoryBatch{second, first})
		require.NoError(t, err)
		require.Len(t, result.Consumptions, 2)
		assert.Equal(t, "B-SEQ1", result.Consumptions[0].BatchNumber)
	})

	t.Run("insufficient stock reports shortage without consumption", func(t *testing.T) {
		batches := []InventoryBatch{
			mustBatch(t, productID, "B-010", 1000, 5, jan1),
			mustBatch(t, productID, "B-011", 1200, 5, jan15),
		}

		result, err := engine.Allocate(productID, decimal.NewFromInt(20), batches)
		require.Error(t, err)
		assert.Nil(t, result)

		var stockErr *InsufficientStockError
		require.ErrorAs(t, err, &stockErr)
		assert.True(t, stockErr.Requested.Equal(decimal.NewFromInt(20)))
		assert.True(t, stockErr.Available.Equal(decimal.NewFromInt(10)))
		assert.True(t, errors.Is(err, shared.ErrInsufficientStock))
	})

	t.Run("zero quantity yields empty allocation", func(t *testing.T) {
		batches := []InventoryBatch{mustBatch(t, productID, "B-020", 1000, 5, jan1)}

		result, err := engine.Allocate(productID, decimal.Zero, batches)
		require.NoError(t, err)
		assert.Empty(t, result.Consumptions)
		assert.True(t, result.TotalCost.IsZero())
	})

	t.Run("negative quantity rejected", func(t *testing.T) {
		_, err := engine.Allocate(productID, decimal.NewFromInt(-1), nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.NewDomainError("INVALID_QUANTITY", "")))
	})

	t.Run("skips expired and foreign batches", func(t *testing.T) {
		expiry := now.Add(-24 * time.Hour)
		expired := mustBatch(t, productID, "B-030", 800, 5, jan1)
		expired.ExpiryDate = &expiry
		other := mustBatch(t, uuid.New(), "B-031", 700, 5, jan1)
		good := mustBatch(t, productID, "B-032", 1000, 5, jan15)

		result, err := engine.Allocate(productID, decimal.NewFromInt(5), []InventoryBatch{expired, other, good})
		require.NoError(t, err)
		require.Len(t, result.Consumptions, 1)
		assert.Equal(t, "B-032", result.Consumptions[0].BatchNumber)
	})

	t.Run("fractional quantities allocate exactly", func(t *testing.T) {
		batches := []InventoryBatch{
			mustBatch(t, productID, "B-040", 10.5, 1.5, jan1),
			mustBatch(t, productID, "B-041", 12, 2, jan15),
		}

		result, err := engine.Allocate(productID, decimal.NewFromFloat(2.5), batches)
		require.NoError(t, err)
		require.Len(t, result.Consumptions, 2)
		// 1.5*10.5 + 1*12 = 27.75
		assert.True(t, result.TotalCost.Equal(decimal.NewFromFloat(27.75)),
			"total cost = %s", result.TotalCost)
	})
}

func TestApplyAllocation(t *testing.T) {
	productID := uuid.New()
	now := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	engine := NewAllocationEngine(WithClock(fixedClock(now)))
	jan1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("consumes computed quantities and depletes emptied batches", func(t *testing.T) {
		b1 := mustBatch(t, productID, "B-100", 1000, 5, jan1)
		b2 := mustBatch(t, productID, "B-101", 1200, 5, jan1.AddDate(0, 0, 7))

		result, err := engine.Allocate(productID, decimal.NewFromInt(7), []InventoryBatch{b1, b2})
		require.NoError(t, err)

		live := []*InventoryBatch{&b1, &b2}
		require.NoError(t, ApplyAllocation(live, result))

		assert.True(t, b1.RemainingQuantity.IsZero())
		assert.Equal(t, BatchStatusDepleted, b1.Status)
		assert.True(t, b2.RemainingQuantity.Equal(decimal.NewFromInt(3)))
		assert.Equal(t, BatchStatusActive, b2.Status)
	})

	t.Run("fails when a consumed batch is missing", func(t *testing.T) {
		b1 := mustBatch(t, productID, "B-110", 1000, 5, jan1)
		result, err := engine.Allocate(productID, decimal.NewFromInt(3), []InventoryBatch{b1})
		require.NoError(t, err)

		err = ApplyAllocation([]*InventoryBatch{}, result)
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "BATCH_NOT_FOUND", domainErr.Code)
	})

	t.Run("nil result rejected", func(t *testing.T) {
		err := ApplyAllocation(nil, nil)
		require.Error(t, err)
	})
}

func TestSortFIFO(t *testing.T) {
	productID := uuid.New()
	jan1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	a := mustBatch(t, productID, "A", 1, 1, jan1.AddDate(0, 0, 2))
	b := mustBatch(t, productID, "B", 1, 1, jan1)
	c := mustBatch(t, productID, "C", 1, 1, jan1)
	b.Sequence = 2
	c.Sequence = 1

	batches := []InventoryBatch{a, b, c}
	SortFIFO(batches)

	assert.Equal(t, "C", batches[0].BatchNumber)
	assert.Equal(t, "B", batches[1].BatchNumber)
	assert.Equal(t, "A", batches[2].BatchNumber)
}
