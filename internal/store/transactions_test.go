package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Ywatch15/Bank-Transaction-Sys/internal/engine"
	"github.com/Ywatch15/Bank-Transaction-Sys/internal/models"
	"github.com/Ywatch15/Bank-Transaction-Sys/internal/store"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "store.db")), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Transaction{}))
	return db
}

func seedTx(t *testing.T, txs *store.TransactionStore, createdAt time.Time, amount string) *models.Transaction {
	t.Helper()
	tx := &models.Transaction{
		Model:          gorm.Model{CreatedAt: createdAt, UpdatedAt: createdAt},
		Reference:      uuid.NewString(),
		FromAccountID:  1,
		ToAccountID:    2,
		Amount:         decimal.RequireFromString(amount),
		IdempotencyKey: uuid.NewString(),
		Status:         models.TransactionCompleted,
	}
	require.NoError(t, txs.Create(context.Background(), tx))
	return tx
}

// Five transactions a minute apart; ids ascend with created_at, so a
// created_at desc walk must visit ids 5..1 exactly once.
func seedFive(t *testing.T, txs *store.TransactionStore) {
	t.Helper()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i, amount := range []string{"10", "20", "30", "40", "50"} {
		seedTx(t, txs, base.Add(time.Duration(i)*time.Minute), amount)
	}
}

func collectBatches(t *testing.T, txs *store.TransactionStore, q engine.HistoryQuery, batchSize int) ([]uint, []int) {
	t.Helper()
	var ids []uint
	var sizes []int
	err := txs.QueryBatch(context.Background(), q, batchSize, func(batch []models.Transaction) error {
		sizes = append(sizes, len(batch))
		for _, tx := range batch {
			ids = append(ids, tx.ID)
		}
		return nil
	})
	require.NoError(t, err)
	return ids, sizes
}

func TestQueryBatchHonorsSortAcrossBatches(t *testing.T) {
	txs := store.NewTransactionStore(testDB(t))
	seedFive(t, txs)

	q := engine.HistoryQuery{AccountIDs: []uint{1}, SortBy: "created_at", SortDesc: true}
	ids, sizes := collectBatches(t, txs, q, 2)

	assert.Equal(t, []uint{5, 4, 3, 2, 1}, ids)
	assert.Equal(t, []int{2, 2, 1}, sizes)
}

func TestQueryBatchEmitsEveryRowOnce(t *testing.T) {
	txs := store.NewTransactionStore(testDB(t))
	// Identical created_at forces the id tiebreak to keep pages stable.
	at := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for _, amount := range []string{"10", "20", "30", "40", "50"} {
		seedTx(t, txs, at, amount)
	}

	q := engine.HistoryQuery{AccountIDs: []uint{1}, SortBy: "created_at", SortDesc: true}
	ids, _ := collectBatches(t, txs, q, 2)

	require.Len(t, ids, 5)
	seen := make(map[uint]bool, len(ids))
	for _, id := range ids {
		assert.False(t, seen[id], "id %d emitted twice", id)
		seen[id] = true
	}
}

func TestQueryBatchExactMultipleOfBatchSize(t *testing.T) {
	txs := store.NewTransactionStore(testDB(t))
	seedFive(t, txs)
	seedTx(t, txs, time.Date(2026, 8, 1, 13, 0, 0, 0, time.UTC), "60")

	q := engine.HistoryQuery{AccountIDs: []uint{1}, SortBy: "created_at", SortDesc: false}
	ids, sizes := collectBatches(t, txs, q, 3)

	assert.Equal(t, []uint{1, 2, 3, 4, 5, 6}, ids)
	assert.Equal(t, []int{3, 3}, sizes)
}

func TestQueryBatchStopsOnCallbackError(t *testing.T) {
	txs := store.NewTransactionStore(testDB(t))
	seedFive(t, txs)

	boom := errors.New("writer closed")
	calls := 0
	err := txs.QueryBatch(context.Background(), engine.HistoryQuery{
		AccountIDs: []uint{1}, SortBy: "created_at",
	}, 2, func([]models.Transaction) error {
		calls++
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestCreateTranslatesDuplicateIdempotencyKey(t *testing.T) {
	txs := store.NewTransactionStore(testDB(t))
	first := seedTx(t, txs, time.Now(), "10")

	dup := &models.Transaction{
		Reference:      uuid.NewString(),
		FromAccountID:  1,
		ToAccountID:    2,
		Amount:         decimal.RequireFromString("10"),
		IdempotencyKey: first.IdempotencyKey,
		Status:         models.TransactionPending,
	}
	err := txs.Create(context.Background(), dup)
	require.ErrorIs(t, err, engine.ErrDuplicateKey)

	got, err := txs.GetByIdempotencyKey(context.Background(), first.IdempotencyKey)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
}

func TestGetByIdempotencyKeyNotFound(t *testing.T) {
	txs := store.NewTransactionStore(testDB(t))

	_, err := txs.GetByIdempotencyKey(context.Background(), "never-seen")
	require.ErrorIs(t, err, engine.ErrNotFound)
}
