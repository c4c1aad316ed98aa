package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/Ywatch15/Bank-Transaction-Sys/internal/models"
)

// AuditStore is append-only, like the ledger: audit history is never
// rewritten.
type AuditStore struct {
	db *gorm.DB
}

func NewAuditStore(db *gorm.DB) *AuditStore {
	return &AuditStore{db: db}
}

func (s *AuditStore) Append(ctx context.Context, entry *models.AuditLog) error {
	return translate(s.db.WithContext(ctx).Create(entry).Error)
}
