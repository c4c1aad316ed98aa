package engine

import (
	"context"
	"errors"

	"github.com/Ywatch15/Bank-Transaction-Sys/internal/models"
)

// DecisionKind classifies what the coordinator may do with a key.
type DecisionKind int

const (
	// Proceed: no prior transaction bears this key.
	Proceed DecisionKind = iota
	// AlreadyDone: a COMPLETED transaction exists; return it as-is.
	AlreadyDone
	// InProgress: a PENDING transaction exists; the caller must wait.
	InProgress
	// PriorFailure: the earlier attempt ended FAILED.
	PriorFailure
	// PriorReversal: the earlier attempt was compensated.
	PriorReversal
)

// Decision is the outcome of resolving an idempotency key. Prior is set
// for every kind except Proceed.
type Decision struct {
	Kind  DecisionKind
	Prior *models.Transaction
}

// IdempotencyGuard resolves duplicate submissions against the
// transaction log. Resolution alone is advisory: the authoritative
// test-and-set is the unique index hit when the coordinator inserts the
// PENDING record, so a racing duplicate fails instead of forking.
type IdempotencyGuard struct {
	transactions TransactionStore
}

func NewIdempotencyGuard(transactions TransactionStore) *IdempotencyGuard {
	return &IdempotencyGuard{transactions: transactions}
}

func (g *IdempotencyGuard) Resolve(ctx context.Context, key string) (Decision, error) {
	prior, err := g.transactions.GetByIdempotencyKey(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return Decision{Kind: Proceed}, nil
	}
	if err != nil {
		return Decision{}, err
	}
	return decide(prior), nil
}

func decide(prior *models.Transaction) Decision {
	switch prior.Status {
	case models.TransactionCompleted:
		return Decision{Kind: AlreadyDone, Prior: prior}
	case models.TransactionPending:
		return Decision{Kind: InProgress, Prior: prior}
	case models.TransactionFailed:
		return Decision{Kind: PriorFailure, Prior: prior}
	case models.TransactionReversed:
		return Decision{Kind: PriorReversal, Prior: prior}
	default:
		// Unknown status rows are treated as in flight rather than
		// risking a duplicate credit.
		return Decision{Kind: InProgress, Prior: prior}
	}
}
