package handlers

import (
	"net/http"

	"github.com/Ywatch15/Bank-Transaction-Sys/internal/httputil"
)

// FreezeAccount suspends an account; frozen accounts are rejected as a
// party to any transfer.
func (h *Handlers) FreezeAccount(w http.ResponseWriter, r *http.Request) {
	accountID, err := parseIDParam(r, "id")
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid account id")
		return
	}

	account, err := h.lifecycle.Freeze(r.Context(), accountID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "account has been frozen",
		"account": account,
	})
}

func (h *Handlers) UnfreezeAccount(w http.ResponseWriter, r *http.Request) {
	accountID, err := parseIDParam(r, "id")
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid account id")
		return
	}

	account, err := h.lifecycle.Unfreeze(r.Context(), accountID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "account has been unfrozen",
		"account": account,
	})
}
