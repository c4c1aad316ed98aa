package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/Ywatch15/Bank-Transaction-Sys/internal/models"
)

// LedgerStore is append-only by construction: it offers no update or
// delete. Entries written here are the system's permanent record.
type LedgerStore struct {
	db *gorm.DB
}

func NewLedgerStore(db *gorm.DB) *LedgerStore {
	return &LedgerStore{db: db}
}

func (s *LedgerStore) Append(ctx context.Context, entry *models.LedgerEntry) error {
	return translate(s.db.WithContext(ctx).Create(entry).Error)
}

func (s *LedgerStore) EntriesByAccount(ctx context.Context, accountID uint) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := s.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("id").
		Find(&entries).Error
	if err != nil {
		return nil, translate(err)
	}
	return entries, nil
}

func (s *LedgerStore) EntriesByTransaction(ctx context.Context, transactionID uint) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := s.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		Order("id").
		Find(&entries).Error
	if err != nil {
		return nil, translate(err)
	}
	return entries, nil
}
