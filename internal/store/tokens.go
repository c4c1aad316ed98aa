package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Ywatch15/Bank-Transaction-Sys/internal/engine"
	"github.com/Ywatch15/Bank-Transaction-Sys/internal/models"
)

// TokenStore backs logout: revoked JWTs are stored (hashed) until they
// would have expired anyway.
type TokenStore struct {
	db *gorm.DB
}

func NewTokenStore(db *gorm.DB) *TokenStore {
	return &TokenStore{db: db}
}

func (s *TokenStore) Revoke(ctx context.Context, tokenHash string, expiresAt time.Time) error {
	err := s.db.WithContext(ctx).Create(&models.RevokedToken{
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
	}).Error
	// Revoking the same token twice is a no-op.
	if errors.Is(translate(err), engine.ErrDuplicateKey) {
		return nil
	}
	return translate(err)
}

func (s *TokenStore) IsRevoked(ctx context.Context, tokenHash string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.RevokedToken{}).
		Where("token_hash = ?", tokenHash).
		Count(&count).Error
	if err != nil {
		return false, translate(err)
	}
	return count > 0, nil
}

// PurgeExpired deletes rows whose underlying JWT has expired; run once
// on startup.
func (s *TokenStore) PurgeExpired(ctx context.Context) error {
	return translate(s.db.WithContext(ctx).
		Unscoped().
		Where("expires_at < ?", time.Now()).
		Delete(&models.RevokedToken{}).Error)
}
