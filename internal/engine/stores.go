// Package engine implements the funds-transfer core: balance derivation
// over an append-only ledger, idempotent transfer coordination, and
// administrative account lifecycle transitions. It is storage-agnostic;
// durable and in-memory store implementations live under internal/store.
package engine

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Ywatch15/Bank-Transaction-Sys/internal/models"
)

// AccountStore persists accounts. Only AccountLifecycle writes Status.
type AccountStore interface {
	Get(ctx context.Context, id uint) (*models.Account, error)

	// GetForUpdate locks the account row for the remainder of the
	// surrounding unit of work. Callers must be inside WithinTx.
	GetForUpdate(ctx context.Context, id uint) (*models.Account, error)

	Create(ctx context.Context, account *models.Account) error
	ListByUser(ctx context.Context, userID uint) ([]models.Account, error)
	UpdateStatus(ctx context.Context, id uint, status models.AccountStatus) error
}

// LedgerStore is append-only. There is deliberately no update or delete:
// ledger immutability is structural, not intercepted at write time.
type LedgerStore interface {
	Append(ctx context.Context, entry *models.LedgerEntry) error
	EntriesByAccount(ctx context.Context, accountID uint) ([]models.LedgerEntry, error)
	EntriesByTransaction(ctx context.Context, transactionID uint) ([]models.LedgerEntry, error)
}

// TransactionStore persists transfer records. Create must fail with
// ErrDuplicateKey when the idempotency key already exists, enforced by
// a storage-layer unique index so racing inserts cannot both succeed.
type TransactionStore interface {
	Create(ctx context.Context, tx *models.Transaction) error
	GetByID(ctx context.Context, id uint) (*models.Transaction, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*models.Transaction, error)
	UpdateStatus(ctx context.Context, id uint, status models.TransactionStatus) error
	Query(ctx context.Context, q HistoryQuery) ([]models.Transaction, int64, error)

	// QueryBatch feeds fn successive batches of the filtered result set
	// in sort order, for streaming export. Iteration stops on error.
	QueryBatch(ctx context.Context, q HistoryQuery, batchSize int, fn func([]models.Transaction) error) error
}

// Stores groups the three collections a unit of work spans.
type Stores interface {
	Accounts() AccountStore
	Ledger() LedgerStore
	Transactions() TransactionStore
}

// Store is the engine's view of durable storage. WithinTx runs fn
// against stores scoped to one atomic unit of work: every write inside
// fn commits together or not at all, including on cancellation.
type Store interface {
	Stores
	WithinTx(ctx context.Context, fn func(Stores) error) error
}

// Direction filters history relative to the requesting owner's accounts.
type Direction string

const (
	DirectionAny    Direction = ""
	DirectionCredit Direction = "credit"
	DirectionDebit  Direction = "debit"
)

// HistoryQuery scopes a transaction-history read to an owner's accounts
// and optional filters. SortBy accepts only the allow-listed columns
// created_at, updated_at, amount and status; anything else falls back
// to created_at descending.
type HistoryQuery struct {
	AccountIDs []uint
	From       *time.Time
	To         *time.Time
	MinAmount  *decimal.Decimal
	MaxAmount  *decimal.Decimal
	Direction  Direction
	SortBy     string
	SortDesc   bool
	Limit      int
	Offset     int
}

// NormalizeSort clamps SortBy to the allow list, defaulting to
// created_at newest-first.
func (q *HistoryQuery) NormalizeSort() {
	switch q.SortBy {
	case "created_at", "updated_at", "amount", "status":
	default:
		q.SortBy = "created_at"
		q.SortDesc = true
	}
}
