package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/Ywatch15/Bank-Transaction-Sys/internal/engine"
	"github.com/Ywatch15/Bank-Transaction-Sys/internal/models"
)

type TransactionStore struct {
	db *gorm.DB
}

func NewTransactionStore(db *gorm.DB) *TransactionStore {
	return &TransactionStore{db: db}
}

// Create inserts a transfer record. The unique index on
// idempotency_key makes this the authoritative test-and-set: a racing
// duplicate insert returns engine.ErrDuplicateKey instead of forking
// the transfer.
func (s *TransactionStore) Create(ctx context.Context, tx *models.Transaction) error {
	return translate(s.db.WithContext(ctx).Create(tx).Error)
}

func (s *TransactionStore) GetByID(ctx context.Context, id uint) (*models.Transaction, error) {
	var tx models.Transaction
	if err := s.db.WithContext(ctx).First(&tx, id).Error; err != nil {
		return nil, translate(err)
	}
	return &tx, nil
}

func (s *TransactionStore) GetByIdempotencyKey(ctx context.Context, key string) (*models.Transaction, error) {
	var tx models.Transaction
	err := s.db.WithContext(ctx).
		Where("idempotency_key = ?", key).
		First(&tx).Error
	if err != nil {
		return nil, translate(err)
	}
	return &tx, nil
}

func (s *TransactionStore) UpdateStatus(ctx context.Context, id uint, status models.TransactionStatus) error {
	res := s.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound)
	}
	return nil
}

func (s *TransactionStore) Query(ctx context.Context, q engine.HistoryQuery) ([]models.Transaction, int64, error) {
	scoped := s.applyFilters(ctx, q)

	var total int64
	if err := scoped.Model(&models.Transaction{}).Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	var txs []models.Transaction
	err := scoped.
		Order(orderClause(q)).
		Order("id").
		Limit(q.Limit).
		Offset(q.Offset).
		Find(&txs).Error
	if err != nil {
		return nil, 0, translate(err)
	}
	return txs, total, nil
}

// QueryBatch walks the filtered result set in sort order without
// loading it whole; the export path streams each batch out before the
// next is fetched. Pagination is explicit Limit/Offset: FindInBatches
// orders by primary key and cannot honor the caller's sort. The id
// tiebreak keeps pages stable when the sort column has duplicates.
func (s *TransactionStore) QueryBatch(ctx context.Context, q engine.HistoryQuery, batchSize int, fn func([]models.Transaction) error) error {
	for offset := 0; ; offset += batchSize {
		var batch []models.Transaction
		err := s.applyFilters(ctx, q).
			Order(orderClause(q)).
			Order("id").
			Limit(batchSize).
			Offset(offset).
			Find(&batch).Error
		if err != nil {
			return translate(err)
		}
		if len(batch) == 0 {
			return nil
		}
		if err := fn(batch); err != nil {
			return err
		}
		if len(batch) < batchSize {
			return nil
		}
	}
}

func (s *TransactionStore) applyFilters(ctx context.Context, q engine.HistoryQuery) *gorm.DB {
	db := s.db.WithContext(ctx)

	switch q.Direction {
	case engine.DirectionDebit:
		db = db.Where("from_account_id IN ?", q.AccountIDs)
	case engine.DirectionCredit:
		db = db.Where("to_account_id IN ?", q.AccountIDs)
	default:
		db = db.Where("from_account_id IN ? OR to_account_id IN ?", q.AccountIDs, q.AccountIDs)
	}

	if q.From != nil {
		db = db.Where("created_at >= ?", *q.From)
	}
	if q.To != nil {
		db = db.Where("created_at <= ?", *q.To)
	}
	if q.MinAmount != nil {
		db = db.Where("amount >= ?", *q.MinAmount)
	}
	if q.MaxAmount != nil {
		db = db.Where("amount <= ?", *q.MaxAmount)
	}
	return db
}

func orderClause(q engine.HistoryQuery) string {
	dir := "asc"
	if q.SortDesc {
		dir = "desc"
	}
	// SortBy has passed the engine's allow list; never interpolate
	// caller input here directly.
	return fmt.Sprintf("%s %s", q.SortBy, dir)
}
