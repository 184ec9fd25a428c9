package inventory

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProduct(t *testing.T) {
	t.Run("creates product with zeroed rollups", func(t *testing.T) {
		product, err := NewProduct("Umbrella", decimal.NewFromInt(3))
		require.NoError(t, err)
		assert.True(t, product.TotalQuantity.IsZero())
		assert.True(t, product.WeightedBuyPrice.IsZero())
		assert.True(t, product.WeightedSellPrice.IsZero())
		assert.Equal(t, 1, product.Version)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewProduct("", decimal.Zero)
		require.Error(t, err)
	})

	t.Run("rejects negative threshold", func(t *testing.T) {
		_, err := NewProduct("Umbrella", decimal.NewFromInt(-1))
		require.Error(t, err)
	})
}

func TestComputeRollup(t *testing.T) {
	productID := uuid.New()
	now := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	jan1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("derives weighted prices from available batches", func(t *testing.T) {
		batches := []InventoryBatch{
			mustBatch(t, productID, "R-001", 1000, 5, jan1),
			mustBatch(t, productID, "R-002", 1200, 5, jan1.AddDate(0, 0, 14)),
		}

		rollup := ComputeRollup(batches, now)
		assert.True(t, rollup.TotalQuantity.Equal(decimal.NewFromInt(10)))
		// (5*1000 + 5*1200) / 10
		assert.True(t, rollup.WeightedBuyPrice.Equal(decimal.NewFromInt(1100)),
			"weighted buy = %s", rollup.WeightedBuyPrice)
		assert.True(t, rollup.TotalValue.Equal(decimal.NewFromInt(11000)))
	})

	t.Run("excludes expired cancelled and depleted batches", func(t *testing.T) {
		expiry := now.Add(-time.Hour)
		expired := mustBatch(t, productID, "R-010", 1000, 5, jan1)
		expired.ExpiryDate = &expiry

		cancelled := mustBatch(t, productID, "R-011", 1000, 5, jan1)
		require.NoError(t, cancelled.Cancel("entry error"))

		depleted := mustBatch(t, productID, "R-012", 1000, 5, jan1)
		require.NoError(t, depleted.Consume(decimal.NewFromInt(5)))

		active := mustBatch(t, productID, "R-013", 800, 2, jan1)

		rollup := ComputeRollup([]InventoryBatch{expired, cancelled, depleted, active}, now)
		assert.True(t, rollup.TotalQuantity.Equal(decimal.NewFromInt(2)))
		assert.True(t, rollup.WeightedBuyPrice.Equal(decimal.NewFromInt(800)))
	})

	t.Run("empty stock yields zero prices not division error", func(t *testing.T) {
		rollup := ComputeRollup(nil, now)
		assert.True(t, rollup.TotalQuantity.IsZero())
		assert.True(t, rollup.WeightedBuyPrice.IsZero())
		assert.True(t, rollup.WeightedSellPrice.IsZero())
	})

	t.Run("is a pure function of its input", func(t *testing.T) {
		batches := []InventoryBatch{
			mustBatch(t, productID, "R-020", 999.5, 3, jan1),
			mustBatch(t, productID, "R-021", 1200.25, 7, jan1),
		}
		first := ComputeRollup(batches, now)
		second := ComputeRollup(batches, now)
		assert.True(t, first.TotalQuantity.Equal(second.TotalQuantity))
		assert.True(t, first.WeightedBuyPrice.Equal(second.WeightedBuyPrice))
		assert.True(t, first.WeightedSellPrice.Equal(second.WeightedSellPrice))
	})

	t.Run("rounds weighted prices to four decimals", func(t *testing.T) {
		batches := []InventoryBatch{
			mustBatch(t, productID, "R-030", 10, 1, jan1),
			mustBatch(t, productID, "R-031", 20, 2, jan1),
		}
		rollup := ComputeRollup(batches, now)
		// 50/3 = 16.666666... -> 16.6667
		assert.True(t, rollup.WeightedBuyPrice.Equal(decimal.NewFromFloat(16.6667)),
			"weighted buy = %s", rollup.WeightedBuyPrice)
	})
}

func TestProductRecompute(t *testing.T) {
	now := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	jan1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("overwrites rollups and bumps version", func(t *testing.T) {
		product, err := NewProduct("Umbrella", decimal.Zero)
		require.NoError(t, err)
		versionBefore := product.Version

		batches := []InventoryBatch{mustBatch(t, product.ID, "P-001", 500, 4, jan1)}
		product.Recompute(batches, now)

		assert.True(t, product.TotalQuantity.Equal(decimal.NewFromInt(4)))
		assert.True(t, product.WeightedBuyPrice.Equal(decimal.NewFromInt(500)))
		assert.Equal(t, versionBefore+1, product.Version)
	})

	t.Run("is idempotent for the same snapshot", func(t *testing.T) {
		product, err := NewProduct("Umbrella", decimal.Zero)
		require.NoError(t, err)
		batches := []InventoryBatch{mustBatch(t, product.ID, "P-010", 500, 4, jan1)}

		product.Recompute(batches, now)
		qty, buy := product.TotalQuantity, product.WeightedBuyPrice
		product.Recompute(batches, now)

		assert.True(t, product.TotalQuantity.Equal(qty))
		assert.True(t, product.WeightedBuyPrice.Equal(buy))
	})

	t.Run("emits low stock event when threshold crossed", func(t *testing.T) {
		product, err := NewProduct("Umbrella", decimal.NewFromInt(3))
		require.NoError(t, err)

		batch := mustBatch(t, product.ID, "P-020", 500, 2, jan1)
		product.Recompute([]InventoryBatch{batch}, now)

		events := product.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeStockBelowThreshold, events[0].EventType())
	})

	t.Run("no event at or above threshold", func(t *testing.T) {
		product, err := NewProduct("Umbrella", decimal.NewFromInt(3))
		require.NoError(t, err)

		batch := mustBatch(t, product.ID, "P-021", 500, 3, jan1)
		product.Recompute([]InventoryBatch{batch}, now)
		assert.Empty(t, product.GetDomainEvents())
	})
}

func TestProductCheckConsistency(t *testing.T) {
	now := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	jan1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("passes when stored matches live within tolerance", func(t *testing.T) {
		product, err := NewProduct("Umbrella", decimal.Zero)
		require.NoError(t, err)
		batches := []InventoryBatch{mustBatch(t, product.ID, "C-001", 500, 4, jan1)}
		product.Recompute(batches, now)

		assert.NoError(t, product.CheckConsistency(batches, now))
	})

	t.Run("reports drift beyond tolerance", func(t *testing.T) {
		product, err := NewProduct("Umbrella", decimal.Zero)
		require.NoError(t, err)
		batches := []InventoryBatch{mustBatch(t, product.ID, "C-010", 500, 4, jan1)}
		product.Recompute(batches, now)
		product.TotalQuantity = product.TotalQuantity.Add(decimal.NewFromInt(1))

		err = product.CheckConsistency(batches, now)
		require.Error(t, err)
		var consErr *ConsistencyError
		require.ErrorAs(t, err, &consErr)
		assert.True(t, consErr.Drift().Equal(decimal.NewFromInt(1)))
	})
}

func TestProductIsBelowThreshold(t *testing.T) {
	product, err := NewProduct("Umbrella", decimal.NewFromInt(5))
	require.NoError(t, err)

	product.TotalQuantity = decimal.NewFromInt(4)
	assert.True(t, product.IsBelowThreshold())

	product.TotalQuantity = decimal.NewFromInt(5)
	assert.False(t, product.IsBelowThreshold())

	// Zero threshold disables the alert entirely.
	require.NoError(t, product.SetLowStockThreshold(decimal.Zero))
	product.TotalQuantity = decimal.Zero
	assert.False(t, product.IsBelowThreshold())
}
