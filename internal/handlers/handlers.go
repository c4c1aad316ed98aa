package handlers

import (
	"errors"
	"net/http"

	"github.com/Ywatch15/Bank-Transaction-Sys/internal/engine"
	"github.com/Ywatch15/Bank-Transaction-Sys/internal/httputil"
	"github.com/Ywatch15/Bank-Transaction-Sys/internal/notify"
	"github.com/Ywatch15/Bank-Transaction-Sys/internal/store"
)

// Handlers is the HTTP surface over the transfer engine and its
// supporting stores.
type Handlers struct {
	users       *store.UserStore
	accounts    engine.AccountStore
	tokens      *store.TokenStore
	coordinator *engine.TransactionCoordinator
	balances    *engine.BalanceCalculator
	lifecycle   *engine.AccountLifecycle
	history     *engine.HistoryService
	mailer      *notify.Mailer
}

func New(
	users *store.UserStore,
	accounts engine.AccountStore,
	tokens *store.TokenStore,
	coordinator *engine.TransactionCoordinator,
	balances *engine.BalanceCalculator,
	lifecycle *engine.AccountLifecycle,
	history *engine.HistoryService,
	mailer *notify.Mailer,
) *Handlers {
	return &Handlers{
		users:       users,
		accounts:    accounts,
		tokens:      tokens,
		coordinator: coordinator,
		balances:    balances,
		lifecycle:   lifecycle,
		history:     history,
		mailer:      mailer,
	}
}

// writeEngineError maps the engine's error taxonomy onto HTTP statuses.
func writeEngineError(w http.ResponseWriter, err error) {
	var validation *engine.ValidationError
	var inactive *engine.InactiveAccountError
	var insufficient *engine.InsufficientFundsError
	var conflict *engine.ConflictError
	var prior *engine.PriorOutcomeError

	switch {
	case errors.As(err, &validation):
		httputil.WriteError(w, http.StatusBadRequest, validation.Error())
	case errors.Is(err, engine.ErrNotFound):
		httputil.WriteError(w, http.StatusNotFound, "not found")
	case errors.As(err, &conflict):
		httputil.WriteError(w, http.StatusConflict, conflict.Error())
	case errors.As(err, &inactive):
		httputil.WriteError(w, http.StatusBadRequest, inactive.Error())
	case errors.As(err, &insufficient):
		httputil.WriteError(w, http.StatusBadRequest, insufficient.Error())
	case errors.As(err, &prior):
		httputil.WriteError(w, http.StatusConflict, prior.Error())
	case errors.Is(err, engine.ErrAlreadyFrozen),
		errors.Is(err, engine.ErrNotFrozen),
		errors.Is(err, engine.ErrAccountClosed):
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		httputil.WriteError(w, http.StatusInternalServerError, "internal server error")
	}
}
