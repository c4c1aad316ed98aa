package engine_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Ywatch15/Bank-Transaction-Sys/internal/engine"
	"github.com/Ywatch15/Bank-Transaction-Sys/internal/models"
	"github.com/Ywatch15/Bank-Transaction-Sys/internal/store/memstore"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newCoordinator(st engine.Store) *engine.TransactionCoordinator {
	return engine.NewTransactionCoordinator(st, nil, zap.NewNop())
}

// newAccount creates an ACTIVE account for userID.
func newAccount(t *testing.T, st engine.Store, userID uint) *models.Account {
	t.Helper()
	account := &models.Account{UserID: userID, Currency: "USD", Status: models.AccountActive}
	require.NoError(t, st.Accounts().Create(context.Background(), account))
	return account
}

// fund credits an account through the same double-entry path the seed
// uses: a COMPLETED grant transaction with a debit on a funding account
// and a credit on the target.
func fund(t *testing.T, st engine.Store, fundingID, accountID uint, amount decimal.Decimal) {
	t.Helper()
	ctx := context.Background()
	err := st.WithinTx(ctx, func(s engine.Stores) error {
		grant := &models.Transaction{
			Reference:      uuid.NewString(),
			FromAccountID:  fundingID,
			ToAccountID:    accountID,
			Amount:         amount,
			IdempotencyKey: uuid.NewString(),
			Status:         models.TransactionCompleted,
		}
		if err := s.Transactions().Create(ctx, grant); err != nil {
			return err
		}
		if err := s.Ledger().Append(ctx, &models.LedgerEntry{
			TransactionID: grant.ID, AccountID: fundingID,
			Amount: amount, Type: models.EntryDebit,
		}); err != nil {
			return err
		}
		return s.Ledger().Append(ctx, &models.LedgerEntry{
			TransactionID: grant.ID, AccountID: accountID,
			Amount: amount, Type: models.EntryCredit,
		})
	})
	require.NoError(t, err)
}

func balanceOf(t *testing.T, st engine.Store, accountID uint) decimal.Decimal {
	t.Helper()
	balance, err := engine.NewBalanceCalculator(st).Balance(context.Background(), accountID)
	require.NoError(t, err)
	return balance
}

func setup(t *testing.T, opening string) (engine.Store, *engine.TransactionCoordinator, *models.Account, *models.Account) {
	t.Helper()
	st := memstore.New()
	funding := newAccount(t, st, 999)
	from := newAccount(t, st, 1)
	to := newAccount(t, st, 2)
	if opening != "" {
		fund(t, st, funding.ID, from.ID, dec(opening))
	}
	return st, newCoordinator(st), from, to
}

func TestCreateTransferHappyPath(t *testing.T) {
	st, coord, from, to := setup(t, "100000")
	ctx := context.Background()

	tx, err := coord.CreateTransfer(ctx, engine.TransferRequest{
		FromAccountID:  from.ID,
		ToAccountID:    to.ID,
		Amount:         dec("500"),
		IdempotencyKey: "k1",
	})
	require.NoError(t, err)
	require.NotNil(t, tx)
	assert.Equal(t, models.TransactionCompleted, tx.Status)
	assert.NotEmpty(t, tx.Reference)

	assert.True(t, balanceOf(t, st, from.ID).Equal(dec("99500")))
	assert.True(t, balanceOf(t, st, to.ID).Equal(dec("500")))

	entries, err := st.Ledger().EntriesByTransaction(ctx, tx.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	var debit, credit *models.LedgerEntry
	for i := range entries {
		switch entries[i].Type {
		case models.EntryDebit:
			debit = &entries[i]
		case models.EntryCredit:
			credit = &entries[i]
		}
	}
	require.NotNil(t, debit)
	require.NotNil(t, credit)
	assert.Equal(t, from.ID, debit.AccountID)
	assert.Equal(t, to.ID, credit.AccountID)
	assert.True(t, debit.Amount.Equal(dec("500")))
	assert.True(t, credit.Amount.Equal(dec("500")))
}

func TestCreateTransferIdempotentReplay(t *testing.T) {
	st, coord, from, to := setup(t, "100000")
	ctx := context.Background()

	req := engine.TransferRequest{
		FromAccountID:  from.ID,
		ToAccountID:    to.ID,
		Amount:         dec("500"),
		IdempotencyKey: "k1",
	}

	first, err := coord.CreateTransfer(ctx, req)
	require.NoError(t, err)

	entriesBefore, err := st.Ledger().EntriesByAccount(ctx, from.ID)
	require.NoError(t, err)

	second, err := coord.CreateTransfer(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, models.TransactionCompleted, second.Status)

	entriesAfter, err := st.Ledger().EntriesByAccount(ctx, from.ID)
	require.NoError(t, err)
	assert.Len(t, entriesAfter, len(entriesBefore))

	assert.True(t, balanceOf(t, st, from.ID).Equal(dec("99500")))
	assert.True(t, balanceOf(t, st, to.ID).Equal(dec("500")))
}

func TestCreateTransferInsufficientFunds(t *testing.T) {
	st, coord, from, to := setup(t, "100")
	ctx := context.Background()

	_, err := coord.CreateTransfer(ctx, engine.TransferRequest{
		FromAccountID:  from.ID,
		ToAccountID:    to.ID,
		Amount:         dec("150"),
		IdempotencyKey: "k-over",
	})

	var insufficient *engine.InsufficientFundsError
	require.ErrorAs(t, err, &insufficient)
	assert.True(t, insufficient.Balance.Equal(dec("100")))
	assert.True(t, insufficient.Requested.Equal(dec("150")))

	assert.True(t, balanceOf(t, st, from.ID).Equal(dec("100")))
	entries, err := st.Ledger().EntriesByAccount(ctx, to.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCreateTransferFrozenParty(t *testing.T) {
	st, coord, from, to := setup(t, "1000")
	ctx := context.Background()

	require.NoError(t, st.Accounts().UpdateStatus(ctx, from.ID, models.AccountFrozen))

	_, err := coord.CreateTransfer(ctx, engine.TransferRequest{
		FromAccountID:  from.ID,
		ToAccountID:    to.ID,
		Amount:         dec("10"),
		IdempotencyKey: "k-frozen-src",
	})
	var inactive *engine.InactiveAccountError
	require.ErrorAs(t, err, &inactive)
	assert.Equal(t, from.ID, inactive.AccountID)
	assert.Equal(t, models.AccountFrozen, inactive.Status)

	// Frozen destination is rejected too.
	require.NoError(t, st.Accounts().UpdateStatus(ctx, from.ID, models.AccountActive))
	require.NoError(t, st.Accounts().UpdateStatus(ctx, to.ID, models.AccountFrozen))

	_, err = coord.CreateTransfer(ctx, engine.TransferRequest{
		FromAccountID:  from.ID,
		ToAccountID:    to.ID,
		Amount:         dec("10"),
		IdempotencyKey: "k-frozen-dst",
	})
	require.ErrorAs(t, err, &inactive)
	assert.Equal(t, to.ID, inactive.AccountID)

	assert.True(t, balanceOf(t, st, from.ID).Equal(dec("1000")))
}

func TestCreateTransferValidation(t *testing.T) {
	_, coord, from, to := setup(t, "1000")
	ctx := context.Background()

	cases := []struct {
		name string
		req  engine.TransferRequest
	}{
		{"zero amount", engine.TransferRequest{FromAccountID: from.ID, ToAccountID: to.ID, Amount: dec("0"), IdempotencyKey: "k"}},
		{"negative amount", engine.TransferRequest{FromAccountID: from.ID, ToAccountID: to.ID, Amount: dec("-5"), IdempotencyKey: "k"}},
		{"missing key", engine.TransferRequest{FromAccountID: from.ID, ToAccountID: to.ID, Amount: dec("5")}},
		{"same account", engine.TransferRequest{FromAccountID: from.ID, ToAccountID: from.ID, Amount: dec("5"), IdempotencyKey: "k"}},
		{"missing from", engine.TransferRequest{ToAccountID: to.ID, Amount: dec("5"), IdempotencyKey: "k"}},
		{"missing to", engine.TransferRequest{FromAccountID: from.ID, Amount: dec("5"), IdempotencyKey: "k"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := coord.CreateTransfer(ctx, tc.req)
			var validation *engine.ValidationError
			assert.ErrorAs(t, err, &validation)
		})
	}
}

func TestCreateTransferUnknownAccount(t *testing.T) {
	_, coord, from, _ := setup(t, "1000")

	_, err := coord.CreateTransfer(context.Background(), engine.TransferRequest{
		FromAccountID:  from.ID,
		ToAccountID:    9999,
		Amount:         dec("5"),
		IdempotencyKey: "k-missing",
	})
	assert.ErrorIs(t, err, engine.ErrNotFound)
}

func TestCreateTransferPendingKeyConflicts(t *testing.T) {
	st, coord, from, to := setup(t, "1000")
	ctx := context.Background()

	pending := &models.Transaction{
		Reference:      uuid.NewString(),
		FromAccountID:  from.ID,
		ToAccountID:    to.ID,
		Amount:         dec("5"),
		IdempotencyKey: "k-pending",
		Status:         models.TransactionPending,
	}
	require.NoError(t, st.Transactions().Create(ctx, pending))

	_, err := coord.CreateTransfer(ctx, engine.TransferRequest{
		FromAccountID:  from.ID,
		ToAccountID:    to.ID,
		Amount:         dec("5"),
		IdempotencyKey: "k-pending",
	})
	var conflict *engine.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "k-pending", conflict.IdempotencyKey)
}

func TestCreateTransferPriorTerminalOutcomes(t *testing.T) {
	st, coord, from, to := setup(t, "1000")
	ctx := context.Background()

	for _, status := range []models.TransactionStatus{models.TransactionFailed, models.TransactionReversed} {
		key := "k-" + string(status)
		prior := &models.Transaction{
			Reference:      uuid.NewString(),
			FromAccountID:  from.ID,
			ToAccountID:    to.ID,
			Amount:         dec("5"),
			IdempotencyKey: key,
			Status:         status,
		}
		require.NoError(t, st.Transactions().Create(ctx, prior))

		_, err := coord.CreateTransfer(ctx, engine.TransferRequest{
			FromAccountID:  from.ID,
			ToAccountID:    to.ID,
			Amount:         dec("5"),
			IdempotencyKey: key,
		})
		var outcome *engine.PriorOutcomeError
		require.ErrorAs(t, err, &outcome)
		assert.Equal(t, status, outcome.Status)
	}
}

// Scenario: two concurrent 60-unit transfers from a 100-unit account.
// Exactly one may pass the sufficiency check; the balance never goes
// negative.
func TestConcurrentTransfersCannotOverdraw(t *testing.T) {
	st := memstore.New()
	funding := newAccount(t, st, 999)
	from := newAccount(t, st, 1)
	dst1 := newAccount(t, st, 2)
	dst2 := newAccount(t, st, 3)
	fund(t, st, funding.ID, from.ID, dec("100"))

	coord := newCoordinator(st)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, dst := range []uint{dst1.ID, dst2.ID} {
		wg.Add(1)
		go func(i int, dst uint) {
			defer wg.Done()
			_, errs[i] = coord.CreateTransfer(ctx, engine.TransferRequest{
				FromAccountID:  from.ID,
				ToAccountID:    dst,
				Amount:         dec("60"),
				IdempotencyKey: uuid.NewString(),
			})
		}(i, dst)
	}
	wg.Wait()

	var succeeded, overdrawn int
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var insufficient *engine.InsufficientFundsError
		require.ErrorAs(t, err, &insufficient)
		overdrawn++
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, overdrawn)

	final := balanceOf(t, st, from.ID)
	assert.True(t, final.Equal(dec("40")), "final balance %s", final)
	assert.False(t, final.IsNegative())
}

// Two concurrent submissions of the same key must produce exactly one
// COMPLETED transaction and one entry pair.
func TestConcurrentSameKeySingleEffect(t *testing.T) {
	st, coord, from, to := setup(t, "1000")
	ctx := context.Background()

	req := engine.TransferRequest{
		FromAccountID:  from.ID,
		ToAccountID:    to.ID,
		Amount:         dec("25"),
		IdempotencyKey: "k-race",
	}

	var wg sync.WaitGroup
	results := make([]*models.Transaction, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = coord.CreateTransfer(ctx, req)
		}(i)
	}
	wg.Wait()

	// Each caller either gets the committed transfer or a conflict
	// while it was in flight; never a second transfer.
	for i := range errs {
		if errs[i] != nil {
			var conflict *engine.ConflictError
			require.ErrorAs(t, errs[i], &conflict)
		} else {
			require.NotNil(t, results[i])
		}
	}

	committed, err := st.Transactions().GetByIdempotencyKey(ctx, "k-race")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionCompleted, committed.Status)

	entries, err := st.Ledger().EntriesByTransaction(ctx, committed.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	assert.True(t, balanceOf(t, st, from.ID).Equal(dec("975")))
	assert.True(t, balanceOf(t, st, to.ID).Equal(dec("25")))
}

// brokenLedger fails the credit-side append to simulate a storage fault
// mid unit of work.
type brokenLedger struct {
	engine.LedgerStore
	failOn int
	calls  int
}

func (b *brokenLedger) Append(ctx context.Context, entry *models.LedgerEntry) error {
	b.calls++
	if b.calls == b.failOn {
		return errors.New("disk full")
	}
	return b.LedgerStore.Append(ctx, entry)
}

// nonAtomicStore applies writes directly with no rollback, modeling a
// backend whose unit of work is not actually atomic.
type nonAtomicStore struct {
	*memstore.MemStore
	ledger *brokenLedger
}

func (s *nonAtomicStore) Ledger() engine.LedgerStore { return s.ledger }

func (s *nonAtomicStore) WithinTx(_ context.Context, fn func(engine.Stores) error) error {
	return fn(s)
}

// When the write phase dies on a non-atomic backend, the coordinator
// must not leave the PENDING record behind: it reconciles it to FAILED.
func TestWriteFailureReconcilesPendingToFailed(t *testing.T) {
	mem := memstore.New()
	funding := newAccount(t, mem, 999)
	from := newAccount(t, mem, 1)
	to := newAccount(t, mem, 2)
	fund(t, mem, funding.ID, from.ID, dec("1000"))

	st := &nonAtomicStore{
		MemStore: mem,
		ledger:   &brokenLedger{LedgerStore: mem.Ledger(), failOn: 2},
	}
	coord := newCoordinator(st)
	ctx := context.Background()

	_, err := coord.CreateTransfer(ctx, engine.TransferRequest{
		FromAccountID:  from.ID,
		ToAccountID:    to.ID,
		Amount:         dec("10"),
		IdempotencyKey: "k-fail",
	})
	var internal *engine.InternalError
	require.ErrorAs(t, err, &internal)

	prior, err := st.Transactions().GetByIdempotencyKey(ctx, "k-fail")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionFailed, prior.Status)
}

// A cancelled context must abort the unit of work with nothing written.
func TestCancelledContextWritesNothing(t *testing.T) {
	st, coord, from, to := setup(t, "1000")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := coord.CreateTransfer(ctx, engine.TransferRequest{
		FromAccountID:  from.ID,
		ToAccountID:    to.ID,
		Amount:         dec("10"),
		IdempotencyKey: "k-cancel",
	})
	require.Error(t, err)

	entries, lerr := st.Ledger().EntriesByAccount(context.Background(), to.ID)
	require.NoError(t, lerr)
	assert.Empty(t, entries)
	assert.True(t, balanceOf(t, st, from.ID).Equal(dec("1000")))
}
