package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Ywatch15/Bank-Transaction-Sys/internal/engine"
)

// GormStore implements engine.Store over a gorm connection. Outside
// WithinTx every call runs on the shared pool; inside, all three
// sub-stores share one database transaction so the coordinator's four
// writes commit or roll back together.
type GormStore struct {
	db           *gorm.DB
	accounts     *AccountStore
	ledger       *LedgerStore
	transactions *TransactionStore
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		db:           db,
		accounts:     &AccountStore{db: db},
		ledger:       &LedgerStore{db: db},
		transactions: &TransactionStore{db: db},
	}
}

func (s *GormStore) Accounts() engine.AccountStore         { return s.accounts }
func (s *GormStore) Ledger() engine.LedgerStore            { return s.ledger }
func (s *GormStore) Transactions() engine.TransactionStore { return s.transactions }

// WithinTx scopes fn to one database transaction. A returned error
// rolls everything back; cancellation of ctx aborts the transaction, so
// partially-written ledger entries can never become visible.
func (s *GormStore) WithinTx(ctx context.Context, fn func(engine.Stores) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewGormStore(tx))
	})
}

// translate maps gorm driver errors onto the engine's sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return engine.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return engine.ErrDuplicateKey
	default:
		return err
	}
}
