package engine_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ywatch15/Bank-Transaction-Sys/internal/engine"
	"github.com/Ywatch15/Bank-Transaction-Sys/internal/store/memstore"
)

func TestBalanceUnknownAccount(t *testing.T) {
	st := memstore.New()
	calc := engine.NewBalanceCalculator(st)

	_, err := calc.Balance(context.Background(), 42)
	assert.ErrorIs(t, err, engine.ErrNotFound)
}

func TestBalanceEmptyLedgerIsZero(t *testing.T) {
	st := memstore.New()
	account := newAccount(t, st, 1)

	balance, err := engine.NewBalanceCalculator(st).Balance(context.Background(), account.ID)
	require.NoError(t, err)
	assert.True(t, balance.IsZero())
}

func TestBalanceIsSignedSumOfEntries(t *testing.T) {
	st := memstore.New()
	funding := newAccount(t, st, 999)
	account := newAccount(t, st, 1)
	other := newAccount(t, st, 2)

	fund(t, st, funding.ID, account.ID, dec("100.50"))
	fund(t, st, funding.ID, account.ID, dec("0.25"))
	fund(t, st, account.ID, other.ID, dec("30.75"))

	balance, err := engine.NewBalanceCalculator(st).Balance(context.Background(), account.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(dec("70")), "got %s", balance)

	// The funding side carries the matching negative sum.
	fundingBalance, err := engine.NewBalanceCalculator(st).Balance(context.Background(), funding.ID)
	require.NoError(t, err)
	assert.True(t, fundingBalance.Equal(dec("-100.75")), "got %s", fundingBalance)
}

// The signed sum over every account is zero after any number of
// transfers: double entry conserves value.
func TestBalancesSumToZeroAcrossTransfers(t *testing.T) {
	st := memstore.New()
	funding := newAccount(t, st, 999)
	a := newAccount(t, st, 1)
	b := newAccount(t, st, 2)
	fund(t, st, funding.ID, a.ID, dec("1000"))

	coord := newCoordinator(st)
	ctx := context.Background()
	for _, amount := range []string{"10", "250.25", "0.01"} {
		_, err := coord.CreateTransfer(ctx, engine.TransferRequest{
			FromAccountID:  a.ID,
			ToAccountID:    b.ID,
			Amount:         dec(amount),
			IdempotencyKey: uuid.NewString(),
		})
		require.NoError(t, err)
	}

	total := dec("0")
	for _, id := range []uint{funding.ID, a.ID, b.ID} {
		total = total.Add(balanceOf(t, st, id))
	}
	assert.True(t, total.IsZero(), "ledger imbalance: %s", total)
}
