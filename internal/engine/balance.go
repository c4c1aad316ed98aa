package engine

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Ywatch15/Bank-Transaction-Sys/internal/models"
)

// BalanceCalculator derives balances by folding ledger entries. No
// balance is ever persisted; the fold is the account's balance.
type BalanceCalculator struct {
	stores Stores
}

func NewBalanceCalculator(stores Stores) *BalanceCalculator {
	return &BalanceCalculator{stores: stores}
}

// Balance returns Σ(credits) − Σ(debits) over the account's full ledger
// history. Linear in entry count; see the materialized-snapshot note in
// DESIGN.md for the planned fix once histories grow.
func (c *BalanceCalculator) Balance(ctx context.Context, accountID uint) (decimal.Decimal, error) {
	if _, err := c.stores.Accounts().Get(ctx, accountID); err != nil {
		return decimal.Zero, err
	}
	return foldBalance(ctx, c.stores, accountID)
}

// foldBalance is the shared fold used both by the public read path and
// by the coordinator inside its unit of work, where it runs under the
// source account's row lock.
func foldBalance(ctx context.Context, stores Stores, accountID uint) (decimal.Decimal, error) {
	entries, err := stores.Ledger().EntriesByAccount(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	balance := decimal.Zero
	for _, e := range entries {
		switch e.Type {
		case models.EntryCredit:
			balance = balance.Add(e.Amount)
		case models.EntryDebit:
			balance = balance.Sub(e.Amount)
		}
	}
	return balance, nil
}
