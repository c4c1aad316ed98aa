package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Ywatch15/Bank-Transaction-Sys/internal/engine"
	"github.com/Ywatch15/Bank-Transaction-Sys/internal/httputil"
	"github.com/Ywatch15/Bank-Transaction-Sys/internal/logger"
	"github.com/Ywatch15/Bank-Transaction-Sys/internal/middleware"
)

type TransferRequest struct {
	FromAccount    uint            `json:"fromAccount"`
	ToAccount      uint            `json:"toAccount"`
	Amount         decimal.Decimal `json:"amount"`
	IdempotencyKey string          `json:"idempotencyKey"`
}

func (h *Handlers) Transfer(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDContextKey).(uint)
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// Ownership is checked before the engine runs so one user cannot
	// spend from another's account.
	if req.FromAccount != 0 {
		account, err := h.accounts.Get(r.Context(), req.FromAccount)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		if account.UserID != userID {
			httputil.WriteError(w, http.StatusForbidden, "not your account")
			return
		}
	}

	tx, err := h.coordinator.CreateTransfer(r.Context(), engine.TransferRequest{
		FromAccountID:  req.FromAccount,
		ToAccountID:    req.ToAccount,
		Amount:         req.Amount,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, tx)
}

// Transactions returns one page of the caller's transfer history.
// Query params: from, to (RFC 3339), min_amount, max_amount, direction
// (credit|debit), sort_by, order (asc|desc), limit, offset.
func (h *Handlers) Transactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDContextKey).(uint)
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	q, err := historyQueryFromParams(r)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	txs, total, err := h.history.QueryHistory(r.Context(), userID, q)
	if err != nil {
		logger.Log.Error("failed to query history", zap.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to fetch transactions")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"transactions": txs,
		"total":        total,
	})
}

// ExportTransactions streams the caller's filtered history as CSV. The
// response is written incrementally and is not restartable.
func (h *Handlers) ExportTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDContextKey).(uint)
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	q, err := historyQueryFromParams(r)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="transactions.csv"`)

	if err := h.history.StreamExport(r.Context(), userID, q, w); err != nil {
		// Headers are committed; all we can do is log the truncation.
		logger.Log.Error("transaction export aborted", zap.Error(err))
	}
}

func historyQueryFromParams(r *http.Request) (engine.HistoryQuery, error) {
	var q engine.HistoryQuery
	params := r.URL.Query()

	if v := params.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return q, &engine.ValidationError{Field: "from", Reason: "must be RFC 3339"}
		}
		q.From = &t
	}
	if v := params.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return q, &engine.ValidationError{Field: "to", Reason: "must be RFC 3339"}
		}
		q.To = &t
	}
	if v := params.Get("min_amount"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return q, &engine.ValidationError{Field: "min_amount", Reason: "must be a decimal"}
		}
		q.MinAmount = &d
	}
	if v := params.Get("max_amount"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return q, &engine.ValidationError{Field: "max_amount", Reason: "must be a decimal"}
		}
		q.MaxAmount = &d
	}

	switch params.Get("direction") {
	case "":
		q.Direction = engine.DirectionAny
	case "credit":
		q.Direction = engine.DirectionCredit
	case "debit":
		q.Direction = engine.DirectionDebit
	default:
		return q, &engine.ValidationError{Field: "direction", Reason: "must be credit or debit"}
	}

	q.SortBy = params.Get("sort_by")
	switch params.Get("order") {
	case "asc":
		q.SortDesc = false
	case "desc", "":
		q.SortDesc = true
	default:
		return q, &engine.ValidationError{Field: "order", Reason: "must be asc or desc"}
	}

	if v := params.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return q, &engine.ValidationError{Field: "limit", Reason: "must be a non-negative integer"}
		}
		q.Limit = n
	}
	if v := params.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return q, &engine.ValidationError{Field: "offset", Reason: "must be a non-negative integer"}
		}
		q.Offset = n
	}
	return q, nil
}
