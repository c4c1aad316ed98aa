package engine

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Ywatch15/Bank-Transaction-Sys/internal/models"
)

// Sentinels surfaced by stores and lifecycle operations.
var (
	// ErrNotFound is returned when an account or transaction does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned by a transaction store when an insert
	// violates the idempotency-key unique index. Stores must translate
	// their driver's duplicate error into this sentinel.
	ErrDuplicateKey = errors.New("duplicate idempotency key")

	// ErrAlreadyFrozen / ErrNotFrozen guard the lifecycle transitions.
	ErrAlreadyFrozen = errors.New("account is already frozen")
	ErrNotFrozen     = errors.New("account is not frozen")

	// ErrAccountClosed rejects lifecycle changes on a terminal account.
	ErrAccountClosed = errors.New("account is closed")
)

// ValidationError reports a structurally invalid transfer request.
// It is produced before any mutation, so callers may retry freely.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ConflictError reports an idempotency key whose prior attempt is still
// PENDING. The caller must not resubmit until it resolves.
type ConflictError struct {
	IdempotencyKey string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("transfer with key %q is still processing", e.IdempotencyKey)
}

// InactiveAccountError reports a party that is not ACTIVE, carrying the
// offending account and its current status for client correction.
type InactiveAccountError struct {
	AccountID uint
	Status    models.AccountStatus
}

func (e *InactiveAccountError) Error() string {
	return fmt.Sprintf("account %d is not active (status %s)", e.AccountID, e.Status)
}

// InsufficientFundsError carries the balance observed at check time and
// the amount requested.
type InsufficientFundsError struct {
	AccountID uint
	Balance   decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("account %d has %s, requested %s",
		e.AccountID, e.Balance.String(), e.Requested.String())
}

// PriorOutcomeError reports a replayed key whose earlier attempt ended
// in a terminal non-success state (FAILED or REVERSED).
type PriorOutcomeError struct {
	IdempotencyKey string
	Status         models.TransactionStatus
}

func (e *PriorOutcomeError) Error() string {
	return fmt.Sprintf("transfer with key %q previously ended %s", e.IdempotencyKey, e.Status)
}

// InternalError wraps a storage or atomicity failure during the write
// phase. The wrapped cause is preserved for logging, not for clients.
type InternalError struct {
	Err error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("transfer write failed: %v", e.Err)
}

func (e *InternalError) Unwrap() error { return e.Err }
