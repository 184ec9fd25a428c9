package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"

	"github.com/shopstock/backend/internal/domain/inventory"
	"github.com/shopstock/backend/internal/domain/shared"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 glogger.Default.LogMode(glogger.Silent),
	})
	require.NoError(t, err)
	return gormDB, mock
}

func TestGormProductRepositorySaveWithLock(t *testing.T) {
	ctx := context.Background()

	t.Run("commits when the stored version matches", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewGormProductRepository(db)

		product, err := inventory.NewProduct("Umbrella", decimal.Zero)
		require.NoError(t, err)
		product.Version = 2

		mock.ExpectExec(`UPDATE "products" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.SaveWithLock(ctx, product))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reports a conflict when no row matches the expected version", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewGormProductRepository(db)

		product, err := inventory.NewProduct("Umbrella", decimal.Zero)
		require.NoError(t, err)
		product.Version = 2

		mock.ExpectExec(`UPDATE "products" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err = repo.SaveWithLock(ctx, product)
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrConcurrencyConflict))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormProductRepositoryFindByID(t *testing.T) {
	ctx := context.Background()

	t.Run("maps a missing row to the not found error", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewGormProductRepository(db)

		mock.ExpectQuery(`SELECT \* FROM "products"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.FindByID(ctx, uuid.New())
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})

	t.Run("hydrates the product row", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewGormProductRepository(db)
		id := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "products"`).
			WillReturnRows(sqlmock.NewRows(
				[]string{"id", "name", "total_quantity", "weighted_buy_price", "version"}).
				AddRow(id.String(), "Umbrella", "10", "1100", 3))

		product, err := repo.FindByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, id, product.ID)
		assert.Equal(t, "Umbrella", product.Name)
		assert.Equal(t, "10", product.TotalQuantity.String())
		assert.Equal(t, 3, product.Version)
	})
}

func TestGormBatchRepositoryQueries(t *testing.T) {
	ctx := context.Background()

	t.Run("available batches are fetched in consumption order", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewGormBatchRepository(db)
		productID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "inventory_batches" WHERE .* ORDER BY purchase_date ASC, sequence ASC`).
			WillReturnRows(sqlmock.NewRows(
				[]string{"id", "product_id", "batch_number", "remaining_quantity", "status"}).
				AddRow(uuid.NewString(), productID.String(), "B-001", "5", "ACTIVE").
				AddRow(uuid.NewString(), productID.String(), "B-002", "3", "ACTIVE"))

		batches, err := repo.FindAvailable(ctx, productID)
		require.NoError(t, err)
		require.Len(t, batches, 2)
		assert.Equal(t, "B-001", batches[0].BatchNumber)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("batch number existence check", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewGormBatchRepository(db)

		mock.ExpectQuery(`SELECT count\(\*\) FROM "inventory_batches"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		exists, err := repo.ExistsByBatchNumber(ctx, "B-001")
		require.NoError(t, err)
		assert.True(t, exists)
	})
}
