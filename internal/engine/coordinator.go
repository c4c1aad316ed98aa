package engine

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Ywatch15/Bank-Transaction-Sys/internal/models"
)

// TransferRequest is the transport-agnostic transfer input.
type TransferRequest struct {
	FromAccountID  uint
	ToAccountID    uint
	Amount         decimal.Decimal
	IdempotencyKey string
}

// TransferNotifier receives best-effort completion notifications. It
// must never block the transfer path; the coordinator invokes it on a
// detached goroutine and ignores its outcome.
type TransferNotifier interface {
	TransferCompleted(ctx context.Context, tx *models.Transaction)
}

// TransactionCoordinator orchestrates a transfer end to end: structural
// validation, idempotency resolution, eligibility and sufficiency
// checks, and one atomic unit of work writing the transaction record,
// both ledger entries, and the COMPLETED status transition.
type TransactionCoordinator struct {
	store    Store
	guard    *IdempotencyGuard
	notifier TransferNotifier
	log      *zap.Logger
}

func NewTransactionCoordinator(store Store, notifier TransferNotifier, log *zap.Logger) *TransactionCoordinator {
	return &TransactionCoordinator{
		store:    store,
		guard:    NewIdempotencyGuard(store.Transactions()),
		notifier: notifier,
		log:      log,
	}
}

// CreateTransfer moves req.Amount between two accounts with
// exactly-once semantics. Every failure before the unit of work leaves
// no persisted mutation, so callers may retry the same key safely.
func (c *TransactionCoordinator) CreateTransfer(ctx context.Context, req TransferRequest) (*models.Transaction, error) {
	if err := validateTransfer(req); err != nil {
		return nil, err
	}

	from, err := c.store.Accounts().Get(ctx, req.FromAccountID)
	if err != nil {
		return nil, err
	}
	to, err := c.store.Accounts().Get(ctx, req.ToAccountID)
	if err != nil {
		return nil, err
	}

	decision, err := c.guard.Resolve(ctx, req.IdempotencyKey)
	if err != nil {
		return nil, &InternalError{Err: err}
	}
	if decision.Kind != Proceed {
		return mapDecision(req.IdempotencyKey, decision)
	}

	if from.Status != models.AccountActive {
		return nil, &InactiveAccountError{AccountID: from.ID, Status: from.Status}
	}
	if to.Status != models.AccountActive {
		return nil, &InactiveAccountError{AccountID: to.ID, Status: to.Status}
	}

	// Fast pre-check outside the unit of work. The authoritative check
	// re-runs inside, under the source account's row lock.
	balance, err := foldBalance(ctx, c.store, from.ID)
	if err != nil {
		return nil, &InternalError{Err: err}
	}
	if balance.LessThan(req.Amount) {
		return nil, &InsufficientFundsError{AccountID: from.ID, Balance: balance, Requested: req.Amount}
	}

	result, err := c.commitTransfer(ctx, req)
	if err != nil {
		return nil, err
	}

	if c.notifier != nil {
		// Detached from the request context: the monetary state is
		// already committed and a notification failure must not undo or
		// misreport it.
		go c.notifier.TransferCompleted(context.Background(), result)
	}
	return result, nil
}

// commitTransfer runs the atomic unit of work: lock the source account,
// re-verify eligibility and sufficiency, then write the PENDING record,
// both ledger entries, and the COMPLETED transition as one commit.
func (c *TransactionCoordinator) commitTransfer(ctx context.Context, req TransferRequest) (*models.Transaction, error) {
	var result *models.Transaction

	err := c.store.WithinTx(ctx, func(s Stores) error {
		from, err := s.Accounts().GetForUpdate(ctx, req.FromAccountID)
		if err != nil {
			return err
		}
		to, err := s.Accounts().Get(ctx, req.ToAccountID)
		if err != nil {
			return err
		}
		if from.Status != models.AccountActive {
			return &InactiveAccountError{AccountID: from.ID, Status: from.Status}
		}
		if to.Status != models.AccountActive {
			return &InactiveAccountError{AccountID: to.ID, Status: to.Status}
		}

		balance, err := foldBalance(ctx, s, from.ID)
		if err != nil {
			return err
		}
		if balance.LessThan(req.Amount) {
			return &InsufficientFundsError{AccountID: from.ID, Balance: balance, Requested: req.Amount}
		}

		txn := &models.Transaction{
			Reference:      uuid.NewString(),
			FromAccountID:  from.ID,
			ToAccountID:    to.ID,
			Amount:         req.Amount,
			IdempotencyKey: req.IdempotencyKey,
			Status:         models.TransactionPending,
		}
		if err := s.Transactions().Create(ctx, txn); err != nil {
			return err
		}

		debit := &models.LedgerEntry{
			TransactionID: txn.ID,
			AccountID:     from.ID,
			Amount:        req.Amount,
			Type:          models.EntryDebit,
		}
		if err := s.Ledger().Append(ctx, debit); err != nil {
			return err
		}
		credit := &models.LedgerEntry{
			TransactionID: txn.ID,
			AccountID:     to.ID,
			Amount:        req.Amount,
			Type:          models.EntryCredit,
		}
		if err := s.Ledger().Append(ctx, credit); err != nil {
			return err
		}

		if err := s.Transactions().UpdateStatus(ctx, txn.ID, models.TransactionCompleted); err != nil {
			return err
		}
		txn.Status = models.TransactionCompleted
		result = txn
		return nil
	})
	if err == nil {
		return result, nil
	}

	// A racing caller won the unique-index test-and-set. Defer to the
	// committed (or in-flight) attempt.
	if errors.Is(err, ErrDuplicateKey) {
		decision, rerr := c.guard.Resolve(ctx, req.IdempotencyKey)
		if rerr != nil || decision.Kind == Proceed {
			return nil, &ConflictError{IdempotencyKey: req.IdempotencyKey}
		}
		return mapDecision(req.IdempotencyKey, decision)
	}

	var inactive *InactiveAccountError
	var insufficient *InsufficientFundsError
	if errors.As(err, &inactive) || errors.As(err, &insufficient) || errors.Is(err, ErrNotFound) {
		return nil, err
	}

	c.reconcileFailed(ctx, req.IdempotencyKey, err)
	return nil, &InternalError{Err: err}
}

// reconcileFailed closes the zombie-PENDING hole: if the unit of work
// died after the PENDING record became visible (a storage backend
// without full atomicity), the record is marked FAILED so the key has
// an unambiguous terminal outcome instead of blocking retries forever.
func (c *TransactionCoordinator) reconcileFailed(ctx context.Context, key string, cause error) {
	prior, err := c.store.Transactions().GetByIdempotencyKey(ctx, key)
	if err != nil {
		return
	}
	if prior.Status != models.TransactionPending {
		return
	}
	if err := c.store.Transactions().UpdateStatus(ctx, prior.ID, models.TransactionFailed); err != nil {
		c.log.Error("failed to reconcile pending transaction",
			zap.Uint("transaction_id", prior.ID), zap.Error(err))
		return
	}
	c.log.Warn("marked orphaned transaction FAILED",
		zap.Uint("transaction_id", prior.ID), zap.NamedError("cause", cause))
}

func validateTransfer(req TransferRequest) error {
	if req.FromAccountID == 0 {
		return &ValidationError{Field: "fromAccount", Reason: "required"}
	}
	if req.ToAccountID == 0 {
		return &ValidationError{Field: "toAccount", Reason: "required"}
	}
	if req.IdempotencyKey == "" {
		return &ValidationError{Field: "idempotencyKey", Reason: "required"}
	}
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return &ValidationError{Field: "amount", Reason: "must be positive"}
	}
	if req.FromAccountID == req.ToAccountID {
		return &ValidationError{Field: "toAccount", Reason: "must differ from fromAccount"}
	}
	return nil
}

func mapDecision(key string, decision Decision) (*models.Transaction, error) {
	switch decision.Kind {
	case AlreadyDone:
		return decision.Prior, nil
	case InProgress:
		return nil, &ConflictError{IdempotencyKey: key}
	case PriorFailure:
		return nil, &PriorOutcomeError{IdempotencyKey: key, Status: models.TransactionFailed}
	case PriorReversal:
		return nil, &PriorOutcomeError{IdempotencyKey: key, Status: models.TransactionReversed}
	default:
		return nil, &ConflictError{IdempotencyKey: key}
	}
}
