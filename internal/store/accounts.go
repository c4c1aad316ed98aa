package store

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Ywatch15/Bank-Transaction-Sys/internal/models"
)

type AccountStore struct {
	db *gorm.DB
}

func NewAccountStore(db *gorm.DB) *AccountStore {
	return &AccountStore{db: db}
}

func (s *AccountStore) Get(ctx context.Context, id uint) (*models.Account, error) {
	var account models.Account
	if err := s.db.WithContext(ctx).First(&account, id).Error; err != nil {
		return nil, translate(err)
	}
	return &account, nil
}

// GetForUpdate takes a SELECT ... FOR UPDATE row lock. Concurrent
// transfers sharing a source account serialize here, so the balance
// fold and the debit write cannot interleave with a rival's.
func (s *AccountStore) GetForUpdate(ctx context.Context, id uint) (*models.Account, error) {
	var account models.Account
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&account, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &account, nil
}

func (s *AccountStore) Create(ctx context.Context, account *models.Account) error {
	return translate(s.db.WithContext(ctx).Create(account).Error)
}

func (s *AccountStore) ListByUser(ctx context.Context, userID uint) ([]models.Account, error) {
	var accounts []models.Account
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id").
		Find(&accounts).Error
	if err != nil {
		return nil, translate(err)
	}
	return accounts, nil
}

func (s *AccountStore) UpdateStatus(ctx context.Context, id uint, status models.AccountStatus) error {
	res := s.db.WithContext(ctx).
		Model(&models.Account{}).
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
