package engine

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/Ywatch15/Bank-Transaction-Sys/internal/models"
)

// exportBatchSize bounds how much of the result set is resident at
// once; exports stream batch by batch, never materializing the whole
// filtered history.
const exportBatchSize = 500

var exportHeader = []string{
	"reference", "from_account", "to_account", "amount",
	"status", "idempotency_key", "created_at", "updated_at",
}

// StreamExport writes the owner's filtered transactions to w as CSV,
// one row per transaction, in the query's sort order. The stream is
// finite and not restartable mid-way.
func (h *HistoryService) StreamExport(ctx context.Context, ownerID uint, q HistoryQuery, w io.Writer) error {
	ids, err := h.ownedAccountIDs(ctx, ownerID)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	if len(ids) == 0 {
		cw.Flush()
		return cw.Error()
	}

	q.AccountIDs = ids
	q.NormalizeSort()
	q.Limit = 0
	q.Offset = 0

	err = h.stores.Transactions().QueryBatch(ctx, q, exportBatchSize, func(batch []models.Transaction) error {
		for i := range batch {
			if err := cw.Write(exportRow(&batch[i])); err != nil {
				return err
			}
		}
		// Flush per batch so large exports stream to the client
		// instead of buffering server-side.
		cw.Flush()
		return cw.Error()
	})
	if err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func exportRow(tx *models.Transaction) []string {
	return []string{
		tx.Reference,
		uintString(tx.FromAccountID),
		uintString(tx.ToAccountID),
		tx.Amount.String(),
		string(tx.Status),
		tx.IdempotencyKey,
		tx.CreatedAt.UTC().Format(time.RFC3339),
		tx.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func uintString(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
