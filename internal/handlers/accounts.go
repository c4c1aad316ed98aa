package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Ywatch15/Bank-Transaction-Sys/internal/httputil"
	"github.com/Ywatch15/Bank-Transaction-Sys/internal/logger"
	"github.com/Ywatch15/Bank-Transaction-Sys/internal/middleware"
	"github.com/Ywatch15/Bank-Transaction-Sys/internal/models"
)

type CreateAccountRequest struct {
	Currency string `json:"currency"`
}

func (h *Handlers) CreateAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDContextKey).(uint)
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Currency) != 3 {
		httputil.WriteError(w, http.StatusBadRequest, "currency must be a 3-letter code")
		return
	}

	account := models.Account{
		UserID:   userID,
		Currency: req.Currency,
		Status:   models.AccountActive,
	}
	if err := h.accounts.Create(r.Context(), &account); err != nil {
		logger.Log.Error("failed to create account", zap.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to create account")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, account)
}

func (h *Handlers) GetAccounts(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDContextKey).(uint)
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	accounts, err := h.accounts.ListByUser(r.Context(), userID)
	if err != nil {
		logger.Log.Error("failed to fetch accounts", zap.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to fetch accounts")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, accounts)
}

// AccountBalance folds the account's ledger into its current balance.
// Only the owning user may read it.
func (h *Handlers) AccountBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDContextKey).(uint)
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	accountID, err := parseIDParam(r, "id")
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid account id")
		return
	}

	account, err := h.accounts.Get(r.Context(), accountID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if account.UserID != userID {
		httputil.WriteError(w, http.StatusForbidden, "not your account")
		return
	}

	balance, err := h.balances.Balance(r.Context(), accountID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"account_id": accountID,
		"currency":   account.Currency,
		"balance":    balance.String(),
	})
}

func parseIDParam(r *http.Request, name string) (uint, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
