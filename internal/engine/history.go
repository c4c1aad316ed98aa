package engine

import (
	"context"

	"github.com/Ywatch15/Bank-Transaction-Sys/internal/models"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// HistoryService is the read-only projection over the transaction log.
// It consumes the atomic core's output but is not part of it.
type HistoryService struct {
	stores Stores
}

func NewHistoryService(stores Stores) *HistoryService {
	return &HistoryService{stores: stores}
}

// QueryHistory returns one page of the owner's transactions plus the
// total match count. The query is scoped to accounts the owner holds;
// an owner with no accounts gets an empty page, not an error.
func (h *HistoryService) QueryHistory(ctx context.Context, ownerID uint, q HistoryQuery) ([]models.Transaction, int64, error) {
	ids, err := h.ownedAccountIDs(ctx, ownerID)
	if err != nil {
		return nil, 0, err
	}
	if len(ids) == 0 {
		return []models.Transaction{}, 0, nil
	}
	q.AccountIDs = ids
	q.NormalizeSort()
	if q.Limit <= 0 {
		q.Limit = defaultPageSize
	}
	if q.Limit > maxPageSize {
		q.Limit = maxPageSize
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return h.stores.Transactions().Query(ctx, q)
}

func (h *HistoryService) ownedAccountIDs(ctx context.Context, ownerID uint) ([]uint, error) {
	accounts, err := h.stores.Accounts().ListByUser(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(accounts))
	for _, a := range accounts {
		ids = append(ids, a.ID)
	}
	return ids, nil
}
