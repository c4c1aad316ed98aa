package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/Ywatch15/Bank-Transaction-Sys/internal/models"
)

// AccountLifecycle owns Account.Status. No other component writes it.
// The transitions are ACTIVE↔FROZEN only; CLOSED is terminal and
// rejects both operations.
type AccountLifecycle struct {
	accounts AccountStore
	log      *zap.Logger
}

func NewAccountLifecycle(accounts AccountStore, log *zap.Logger) *AccountLifecycle {
	return &AccountLifecycle{accounts: accounts, log: log}
}

// Freeze moves an account to FROZEN, blocking it as a party to any
// future transfer.
func (l *AccountLifecycle) Freeze(ctx context.Context, accountID uint) (*models.Account, error) {
	account, err := l.accounts.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}
	switch account.Status {
	case models.AccountFrozen:
		return nil, ErrAlreadyFrozen
	case models.AccountClosed:
		return nil, ErrAccountClosed
	}
	if err := l.accounts.UpdateStatus(ctx, accountID, models.AccountFrozen); err != nil {
		return nil, err
	}
	account.Status = models.AccountFrozen
	l.log.Info("account frozen", zap.Uint("account_id", accountID))
	return account, nil
}

// Unfreeze restores a FROZEN account to ACTIVE.
func (l *AccountLifecycle) Unfreeze(ctx context.Context, accountID uint) (*models.Account, error) {
	account, err := l.accounts.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.Status != models.AccountFrozen {
		return nil, ErrNotFrozen
	}
	if err := l.accounts.UpdateStatus(ctx, accountID, models.AccountActive); err != nil {
		return nil, err
	}
	account.Status = models.AccountActive
	l.log.Info("account unfrozen", zap.Uint("account_id", accountID))
	return account, nil
}
