// Package memstore is an in-memory engine.Store used by tests and local
// experiments. A single mutex serializes units of work, which satisfies
// the engine's isolation contract (coarsely) without a database.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Ywatch15/Bank-Transaction-Sys/internal/engine"
	"github.com/Ywatch15/Bank-Transaction-Sys/internal/models"
)

type state struct {
	accounts     map[uint]models.Account
	transactions map[uint]models.Transaction
	txByKey      map[string]uint
	entries      []models.LedgerEntry

	nextAccountID uint
	nextTxID      uint
	nextEntryID   uint
}

func newState() *state {
	return &state{
		accounts:      map[uint]models.Account{},
		transactions:  map[uint]models.Transaction{},
		txByKey:       map[string]uint{},
		nextAccountID: 1,
		nextTxID:      1,
		nextEntryID:   1,
	}
}

func (s *state) clone() *state {
	c := newState()
	c.nextAccountID = s.nextAccountID
	c.nextTxID = s.nextTxID
	c.nextEntryID = s.nextEntryID
	for k, v := range s.accounts {
		c.accounts[k] = v
	}
	for k, v := range s.transactions {
		c.transactions[k] = v
	}
	for k, v := range s.txByKey {
		c.txByKey[k] = v
	}
	c.entries = append(c.entries, s.entries...)
	return c
}

// MemStore implements engine.Store.
type MemStore struct {
	mu sync.Mutex
	st *state
}

func New() *MemStore {
	return &MemStore{st: newState()}
}

func (m *MemStore) Accounts() engine.AccountStore         { return &lockedAccounts{m} }
func (m *MemStore) Ledger() engine.LedgerStore            { return &lockedLedger{m} }
func (m *MemStore) Transactions() engine.TransactionStore { return &lockedTransactions{m} }

// WithinTx runs fn under the store mutex against a working copy of the
// state. On error or cancellation the copy is discarded, so no partial
// writes survive.
func (m *MemStore) WithinTx(ctx context.Context, fn func(engine.Stores) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	working := m.st.clone()
	if err := fn(&rawStores{st: working}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.st = working
	return nil
}

// rawStores operates directly on a state, without locking; only valid
// while WithinTx holds the mutex.
type rawStores struct {
	st *state
}

func (r *rawStores) Accounts() engine.AccountStore         { return (*rawAccounts)(r) }
func (r *rawStores) Ledger() engine.LedgerStore            { return (*rawLedger)(r) }
func (r *rawStores) Transactions() engine.TransactionStore { return (*rawTransactions)(r) }

// ---- accounts ----

type rawAccounts rawStores

func (r *rawAccounts) Get(_ context.Context, id uint) (*models.Account, error) {
	a, ok := r.st.accounts[id]
	if !ok {
		return nil, engine.ErrNotFound
	}
	return &a, nil
}

func (r *rawAccounts) GetForUpdate(ctx context.Context, id uint) (*models.Account, error) {
	// The store mutex already serializes units of work.
	return r.Get(ctx, id)
}

func (r *rawAccounts) Create(_ context.Context, account *models.Account) error {
	account.ID = r.st.nextAccountID
	r.st.nextAccountID++
	now := time.Now()
	account.CreatedAt = now
	account.UpdatedAt = now
	if account.Status == "" {
		account.Status = models.AccountActive
	}
	r.st.accounts[account.ID] = *account
	return nil
}

func (r *rawAccounts) ListByUser(_ context.Context, userID uint) ([]models.Account, error) {
	var out []models.Account
	for _, a := range r.st.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *rawAccounts) UpdateStatus(_ context.Context, id uint, status models.AccountStatus) error {
	a, ok := r.st.accounts[id]
	if !ok {
		return engine.ErrNotFound
	}
	a.Status = status
	a.UpdatedAt = time.Now()
	r.st.accounts[id] = a
	return nil
}

// ---- ledger (append-only) ----

type rawLedger rawStores

func (r *rawLedger) Append(_ context.Context, entry *models.LedgerEntry) error {
	entry.ID = r.st.nextEntryID
	r.st.nextEntryID++
	entry.CreatedAt = time.Now()
	r.st.entries = append(r.st.entries, *entry)
	return nil
}

func (r *rawLedger) EntriesByAccount(_ context.Context, accountID uint) ([]models.LedgerEntry, error) {
	var out []models.LedgerEntry
	for _, e := range r.st.entries {
		if e.AccountID == accountID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *rawLedger) EntriesByTransaction(_ context.Context, transactionID uint) ([]models.LedgerEntry, error) {
	var out []models.LedgerEntry
	for _, e := range r.st.entries {
		if e.TransactionID == transactionID {
			out = append(out, e)
		}
	}
	return out, nil
}

// ---- transactions ----

type rawTransactions rawStores

func (r *rawTransactions) Create(_ context.Context, tx *models.Transaction) error {
	if _, exists := r.st.txByKey[tx.IdempotencyKey]; exists {
		return engine.ErrDuplicateKey
	}
	tx.ID = r.st.nextTxID
	r.st.nextTxID++
	now := time.Now()
	tx.CreatedAt = now
	tx.UpdatedAt = now
	r.st.transactions[tx.ID] = *tx
	r.st.txByKey[tx.IdempotencyKey] = tx.ID
	return nil
}

func (r *rawTransactions) GetByID(_ context.Context, id uint) (*models.Transaction, error) {
	tx, ok := r.st.transactions[id]
	if !ok {
		return nil, engine.ErrNotFound
	}
	return &tx, nil
}

func (r *rawTransactions) GetByIdempotencyKey(_ context.Context, key string) (*models.Transaction, error) {
	id, ok := r.st.txByKey[key]
	if !ok {
		return nil, engine.ErrNotFound
	}
	tx := r.st.transactions[id]
	return &tx, nil
}

func (r *rawTransactions) UpdateStatus(_ context.Context, id uint, status models.TransactionStatus) error {
	tx, ok := r.st.transactions[id]
	if !ok {
		return engine.ErrNotFound
	}
	tx.Status = status
	tx.UpdatedAt = time.Now()
	r.st.transactions[id] = tx
	return nil
}

func (r *rawTransactions) Query(_ context.Context, q engine.HistoryQuery) ([]models.Transaction, int64, error) {
	matched := r.filtered(q)
	total := int64(len(matched))

	if q.Offset > 0 {
		if q.Offset >= len(matched) {
			return []models.Transaction{}, total, nil
		}
		matched = matched[q.Offset:]
	}
	if q.Limit > 0 && q.Limit < len(matched) {
		matched = matched[:q.Limit]
	}
	return matched, total, nil
}

func (r *rawTransactions) QueryBatch(ctx context.Context, q engine.HistoryQuery, batchSize int, fn func([]models.Transaction) error) error {
	matched := r.filtered(q)
	for start := 0; start < len(matched); start += batchSize {
		end := start + batchSize
		if end > len(matched) {
			end = len(matched)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(matched[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (r *rawTransactions) filtered(q engine.HistoryQuery) []models.Transaction {
	owned := map[uint]bool{}
	for _, id := range q.AccountIDs {
		owned[id] = true
	}

	var matched []models.Transaction
	for _, tx := range r.st.transactions {
		switch q.Direction {
		case engine.DirectionDebit:
			if !owned[tx.FromAccountID] {
				continue
			}
		case engine.DirectionCredit:
			if !owned[tx.ToAccountID] {
				continue
			}
		default:
			if !owned[tx.FromAccountID] && !owned[tx.ToAccountID] {
				continue
			}
		}
		if q.From != nil && tx.CreatedAt.Before(*q.From) {
			continue
		}
		if q.To != nil && tx.CreatedAt.After(*q.To) {
			continue
		}
		if q.MinAmount != nil && tx.Amount.LessThan(*q.MinAmount) {
			continue
		}
		if q.MaxAmount != nil && tx.Amount.GreaterThan(*q.MaxAmount) {
			continue
		}
		matched = append(matched, tx)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		less := lessBy(q.SortBy, &matched[i], &matched[j])
		if q.SortDesc {
			return !less && !equalBy(q.SortBy, &matched[i], &matched[j])
		}
		return less
	})
	return matched
}

func lessBy(field string, a, b *models.Transaction) bool {
	switch field {
	case "amount":
		return a.Amount.LessThan(b.Amount)
	case "status":
		return strings.Compare(string(a.Status), string(b.Status)) < 0
	case "updated_at":
		return a.UpdatedAt.Before(b.UpdatedAt)
	default:
		return a.CreatedAt.Before(b.CreatedAt)
	}
}

func equalBy(field string, a, b *models.Transaction) bool {
	switch field {
	case "amount":
		return a.Amount.Equal(b.Amount)
	case "status":
		return a.Status == b.Status
	case "updated_at":
		return a.UpdatedAt.Equal(b.UpdatedAt)
	default:
		return a.CreatedAt.Equal(b.CreatedAt)
	}
}

// ---- locked wrappers (outside units of work) ----

type lockedAccounts struct{ m *MemStore }

func (l *lockedAccounts) Get(ctx context.Context, id uint) (*models.Account, error) {
	l.m.mu.Lock()
	defer l.m.mu.Unlock()
	return (&rawAccounts{st: l.m.st}).Get(ctx, id)
}

func (l *lockedAccounts) GetForUpdate(ctx context.Context, id uint) (*models.Account, error) {
	l.m.mu.Lock()
	defer l.m.mu.Unlock()
	return (&rawAccounts{st: l.m.st}).GetForUpdate(ctx, id)
}

func (l *lockedAccounts) Create(ctx context.Context, account *models.Account) error {
	l.m.mu.Lock()
	defer l.m.mu.Unlock()
	return (&rawAccounts{st: l.m.st}).Create(ctx, account)
}

func (l *lockedAccounts) ListByUser(ctx context.Context, userID uint) ([]models.Account, error) {
	l.m.mu.Lock()
	defer l.m.mu.Unlock()
	return (&rawAccounts{st: l.m.st}).ListByUser(ctx, userID)
}

func (l *lockedAccounts) UpdateStatus(ctx context.Context, id uint, status models.AccountStatus) error {
	l.m.mu.Lock()
	defer l.m.mu.Unlock()
	return (&rawAccounts{st: l.m.st}).UpdateStatus(ctx, id, status)
}

type lockedLedger struct{ m *MemStore }

func (l *lockedLedger) Append(ctx context.Context, entry *models.LedgerEntry) error {
	l.m.mu.Lock()
	defer l.m.mu.Unlock()
	return (&rawLedger{st: l.m.st}).Append(ctx, entry)
}

func (l *lockedLedger) EntriesByAccount(ctx context.Context, accountID uint) ([]models.LedgerEntry, error) {
	l.m.mu.Lock()
	defer l.m.mu.Unlock()
	return (&rawLedger{st: l.m.st}).EntriesByAccount(ctx, accountID)
}

func (l *lockedLedger) EntriesByTransaction(ctx context.Context, transactionID uint) ([]models.LedgerEntry, error) {
	l.m.mu.Lock()
	defer l.m.mu.Unlock()
	return (&rawLedger{st: l.m.st}).EntriesByTransaction(ctx, transactionID)
}

type lockedTransactions struct{ m *MemStore }

func (l *lockedTransactions) Create(ctx context.Context, tx *models.Transaction) error {
	l.m.mu.Lock()
	defer l.m.mu.Unlock()
	return (&rawTransactions{st: l.m.st}).Create(ctx, tx)
}

func (l *lockedTransactions) GetByID(ctx context.Context, id uint) (*models.Transaction, error) {
	l.m.mu.Lock()
	defer l.m.mu.Unlock()
	return (&rawTransactions{st: l.m.st}).GetByID(ctx, id)
}

func (l *lockedTransactions) GetByIdempotencyKey(ctx context.Context, key string) (*models.Transaction, error) {
	l.m.mu.Lock()
	defer l.m.mu.Unlock()
	return (&rawTransactions{st: l.m.st}).GetByIdempotencyKey(ctx, key)
}

func (l *lockedTransactions) UpdateStatus(ctx context.Context, id uint, status models.TransactionStatus) error {
	l.m.mu.Lock()
	defer l.m.mu.Unlock()
	return (&rawTransactions{st: l.m.st}).UpdateStatus(ctx, id, status)
}

func (l *lockedTransactions) Query(ctx context.Context, q engine.HistoryQuery) ([]models.Transaction, int64, error) {
	l.m.mu.Lock()
	defer l.m.mu.Unlock()
	return (&rawTransactions{st: l.m.st}).Query(ctx, q)
}

func (l *lockedTransactions) QueryBatch(ctx context.Context, q engine.HistoryQuery, batchSize int, fn func([]models.Transaction) error) error {
	l.m.mu.Lock()
	defer l.m.mu.Unlock()
	return (&rawTransactions{st: l.m.st}).QueryBatch(ctx, q, batchSize, fn)
}
