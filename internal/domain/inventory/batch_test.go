package inventory

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopstock/backend/internal/domain/shared"
)

func TestNewInventoryBatch(t *testing.T) {
	productID := uuid.New()
	now := time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)
	purchaseDate := now.AddDate(0, 0, -1)

	t.Run("creates batch with remaining equal to initial", func(t *testing.T) {
		batch, err := NewInventoryBatch(
			productID,
			"B20240101-ABC",
			decimal.NewFromInt(1000),
			decimal.NewFromInt(1500),
			decimal.NewFromInt(5),
			purchaseDate,
			nil,
			now,
		)
		require.NoError(t, err)
		assert.Equal(t, BatchStatusActive, batch.Status)
		assert.True(t, batch.RemainingQuantity.Equal(batch.InitialQuantity))
		assert.True(t, batch.RemainingQuantity.Equal(decimal.NewFromInt(5)))
	})

	t.Run("rejects invalid inputs", func(t *testing.T) {
		cases := []struct {
			name      string
			productID uuid.UUID
			number    string
			buyPrice  decimal.Decimal
			quantity  decimal.Decimal
			purchased time.Time
			code      string
		}{
			{"empty product", uuid.Nil, "B1", decimal.NewFromInt(1), decimal.NewFromInt(1), purchaseDate, "INVALID_PRODUCT"},
			{"empty batch number", productID, "", decimal.NewFromInt(1), decimal.NewFromInt(1), purchaseDate, "INVALID_BATCH_NUMBER"},
			{"negative buy price", productID, "B1", decimal.NewFromInt(-1), decimal.NewFromInt(1), purchaseDate, "INVALID_BUY_PRICE"},
			{"zero quantity", productID, "B1", decimal.NewFromInt(1), decimal.Zero, purchaseDate, "INVALID_QUANTITY"},
			{"future purchase date", productID, "B1", decimal.NewFromInt(1), decimal.NewFromInt(1), now.Add(time.Hour), "INVALID_PURCHASE_DATE"},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := NewInventoryBatch(tc.productID, tc.number, tc.buyPrice, decimal.Zero, tc.quantity, tc.purchased, nil, now)
				require.Error(t, err)
				var domainErr *shared.DomainError
				require.ErrorAs(t, err, &domainErr)
				assert.Equal(t, tc.code, domainErr.Code)
			})
		}
	})

	t.Run("rejects expiry before purchase", func(t *testing.T) {
		expiry := purchaseDate.Add(-time.Hour)
		_, err := NewInventoryBatch(productID, "B1", decimal.NewFromInt(1), decimal.Zero, decimal.NewFromInt(1), purchaseDate, &expiry, now)
		require.Error(t, err)
	})
}

func TestInventoryBatchConsume(t *testing.T) {
	productID := uuid.New()
	purchaseDate := time.Now().AddDate(0, 0, -1)

	newBatch := func(t *testing.T, qty int64) *InventoryBatch {
		t.Helper()
		batch, err := NewInventoryBatch(productID, "B-"+uuid.NewString()[:8],
			decimal.NewFromInt(100), decimal.NewFromInt(150), decimal.NewFromInt(qty), purchaseDate, nil, time.Now())
		require.NoError(t, err)
		return batch
	}

	t.Run("reduces remaining quantity", func(t *testing.T) {
		batch := newBatch(t, 5)
		require.NoError(t, batch.Consume(decimal.NewFromInt(2)))
		assert.True(t, batch.RemainingQuantity.Equal(decimal.NewFromInt(3)))
		assert.Equal(t, BatchStatusActive, batch.Status)
		assert.True(t, batch.ConsumedQuantity().Equal(decimal.NewFromInt(2)))
	})

	t.Run("transitions to depleted at exactly zero", func(t *testing.T) {
		batch := newBatch(t, 5)
		require.NoError(t, batch.Consume(decimal.NewFromInt(5)))
		assert.True(t, batch.RemainingQuantity.IsZero())
		assert.Equal(t, BatchStatusDepleted, batch.Status)
	})

	t.Run("rejects over-consumption", func(t *testing.T) {
		batch := newBatch(t, 5)
		err := batch.Consume(decimal.NewFromInt(6))
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "CONSUME_EXCEEDS_REMAINING", domainErr.Code)
		assert.True(t, batch.RemainingQuantity.Equal(decimal.NewFromInt(5)))
	})

	t.Run("rejects consumption of non-active batch", func(t *testing.T) {
		batch := newBatch(t, 5)
		require.NoError(t, batch.Cancel("entry error"))
		err := batch.Consume(decimal.NewFromInt(1))
		require.Error(t, err)
	})
}

func TestInventoryBatchCancel(t *testing.T) {
	productID := uuid.New()
	purchaseDate := time.Now().AddDate(0, 0, -1)

	t.Run("cancels untouched batch with reason", func(t *testing.T) {
		batch, err := NewInventoryBatch(productID, "B-C1", decimal.NewFromInt(100), decimal.Zero,
			decimal.NewFromInt(5), purchaseDate, nil, time.Now())
		require.NoError(t, err)

		require.NoError(t, batch.Cancel("duplicate entry"))
		assert.Equal(t, BatchStatusCancelled, batch.Status)
		assert.Equal(t, "duplicate entry", batch.CancelReason)
	})

	t.Run("cancels partially consumed batch", func(t *testing.T) {
		batch, err := NewInventoryBatch(productID, "B-C2", decimal.NewFromInt(100), decimal.Zero,
			decimal.NewFromInt(5), purchaseDate, nil, time.Now())
		require.NoError(t, err)
		require.NoError(t, batch.Consume(decimal.NewFromInt(2)))

		require.NoError(t, batch.Cancel("entered against the wrong product"))
		assert.Equal(t, BatchStatusCancelled, batch.Status)
		assert.Equal(t, "entered against the wrong product", batch.CancelReason)
		// Consumption history is preserved on the cancelled record.
		assert.True(t, batch.RemainingQuantity.Equal(decimal.NewFromInt(3)))
		assert.True(t, batch.ConsumedQuantity().Equal(decimal.NewFromInt(2)))
	})

	t.Run("rejects cancelling a depleted batch", func(t *testing.T) {
		batch, err := NewInventoryBatch(productID, "B-C4", decimal.NewFromInt(100), decimal.Zero,
			decimal.NewFromInt(5), purchaseDate, nil, time.Now())
		require.NoError(t, err)
		require.NoError(t, batch.Consume(decimal.NewFromInt(5)))

		err = batch.Cancel("too late")
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_STATE", domainErr.Code)
		assert.Equal(t, BatchStatusDepleted, batch.Status)
	})

	t.Run("requires a reason", func(t *testing.T) {
		batch, err := NewInventoryBatch(productID, "B-C3", decimal.NewFromInt(100), decimal.Zero,
			decimal.NewFromInt(5), purchaseDate, nil, time.Now())
		require.NoError(t, err)
		require.Error(t, batch.Cancel(""))
	})
}

func TestInventoryBatchExpiry(t *testing.T) {
	productID := uuid.New()
	purchaseDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	expiry := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	batch, err := NewInventoryBatch(productID, "B-E1", decimal.NewFromInt(100), decimal.Zero,
		decimal.NewFromInt(5), purchaseDate, &expiry, purchaseDate)
	require.NoError(t, err)

	t.Run("not expired before expiry date", func(t *testing.T) {
		now := expiry.Add(-time.Hour)
		assert.False(t, batch.IsExpired(now))
		assert.True(t, batch.IsAvailable(now))
	})

	t.Run("expired at and after expiry date", func(t *testing.T) {
		assert.True(t, batch.IsExpired(expiry))
		assert.False(t, batch.IsAvailable(expiry.Add(time.Hour)))
	})

	t.Run("RefreshStatus lazily marks expired", func(t *testing.T) {
		b := *batch
		changed := b.RefreshStatus(expiry.Add(time.Hour))
		assert.True(t, changed)
		assert.Equal(t, BatchStatusExpired, b.Status)

		// Second call is a no-op.
		assert.False(t, b.RefreshStatus(expiry.Add(2*time.Hour)))
	})

	t.Run("WillExpireWithin honors the window", func(t *testing.T) {
		now := expiry.AddDate(0, 0, -10)
		assert.True(t, batch.WillExpireWithin(now, 30*24*time.Hour))
		assert.False(t, batch.WillExpireWithin(now, 24*time.Hour))
	})
}

func TestGenerateBatchNumber(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	number := GenerateBatchNumber(now)
	assert.True(t, strings.HasPrefix(number, "B20240315-"), "got %s", number)
	assert.Len(t, number, len("B20240315-")+8)

	// Random suffix keeps concurrent generations distinct.
	assert.NotEqual(t, number, GenerateBatchNumber(now))
}
