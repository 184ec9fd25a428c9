package persistence

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shopstock/backend/internal/domain/inventory"
)

func storedBatch(t *testing.T) *inventory.InventoryBatch {
	t.Helper()
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	batch, err := inventory.NewInventoryBatch(
		uuid.New(), "B20240301-AB12CD",
		decimal.NewFromInt(1000), decimal.NewFromInt(1500), decimal.NewFromInt(5),
		now.AddDate(0, 0, -1), nil, now,
	)
	require.NoError(t, err)
	// A persisted batch carries its database-assigned sequence.
	batch.Sequence = 42
	return batch
}

// The sequence column is assigned by the database. Updates and upserts must
// leave it alone or Postgres rejects the write for the identity column.
func TestGormBatchRepositorySequenceColumn(t *testing.T) {
	t.Run("update does not set sequence", func(t *testing.T) {
		db, _ := newMockDB(t)
		batch := storedBatch(t)

		stmt := db.Session(&gorm.Session{DryRun: true}).Save(batch).Statement
		sql := stmt.SQL.String()

		assert.Contains(t, sql, `UPDATE "inventory_batches"`)
		assert.NotContains(t, sql, `"sequence"=`)
	})

	t.Run("upsert does not reassign sequence on conflict", func(t *testing.T) {
		db, _ := newMockDB(t)
		batches := []inventory.InventoryBatch{*storedBatch(t), *storedBatch(t)}

		stmt := db.Session(&gorm.Session{DryRun: true}).Save(&batches).Statement
		sql := stmt.SQL.String()

		require.Contains(t, sql, `INSERT INTO "inventory_batches"`)
		parts := strings.SplitN(sql, "DO UPDATE", 2)
		require.Len(t, parts, 2)
		assert.NotContains(t, parts[1], `"sequence"`)
	})

	t.Run("insert of a fresh batch omits the zero sequence", func(t *testing.T) {
		db, _ := newMockDB(t)
		batch := storedBatch(t)
		batch.Sequence = 0

		stmt := db.Session(&gorm.Session{DryRun: true}).Create(batch).Statement
		sql := stmt.SQL.String()

		assert.Contains(t, sql, `INSERT INTO "inventory_batches"`)
		assert.NotContains(t, sql, `"sequence"`)
	})
}
