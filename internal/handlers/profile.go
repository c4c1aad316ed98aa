package handlers

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Ywatch15/Bank-Transaction-Sys/internal/httputil"
	"github.com/Ywatch15/Bank-Transaction-Sys/internal/logger"
	"github.com/Ywatch15/Bank-Transaction-Sys/internal/middleware"
	"github.com/Ywatch15/Bank-Transaction-Sys/internal/models"
)

var phonePattern = regexp.MustCompile(`^\+?[\d\s\-()]{7,20}$`)

type UpdateProfileRequest struct {
	Name        *string `json:"name"`
	PhoneNumber *string `json:"phone_number"`
	Address     *string `json:"address"`
	DateOfBirth *string `json:"date_of_birth"`
}

func (h *Handlers) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDContextKey).(uint)
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, http.StatusNotFound, "user not found")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, profileView(user))
}

// UpdateProfile applies the allow-listed fields only. Email and
// password changes are deliberately excluded from this endpoint.
func (h *Handlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDContextKey).(uint)
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updates := map[string]any{}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if len(name) < 2 || len(name) > 100 {
			httputil.WriteError(w, http.StatusUnprocessableEntity, "name must be between 2 and 100 characters")
			return
		}
		updates["name"] = name
	}
	if req.PhoneNumber != nil {
		phone := strings.TrimSpace(*req.PhoneNumber)
		if !phonePattern.MatchString(phone) {
			httputil.WriteError(w, http.StatusUnprocessableEntity, "invalid phone number")
			return
		}
		updates["phone_number"] = phone
	}
	if req.Address != nil {
		address := strings.TrimSpace(*req.Address)
		if len(address) > 300 {
			httputil.WriteError(w, http.StatusUnprocessableEntity, "address must be at most 300 characters")
			return
		}
		updates["address"] = address
	}
	if req.DateOfBirth != nil {
		dob, err := time.Parse("2006-01-02", *req.DateOfBirth)
		if err != nil {
			httputil.WriteError(w, http.StatusUnprocessableEntity, "date_of_birth must be YYYY-MM-DD")
			return
		}
		if !dob.Before(time.Now()) {
			httputil.WriteError(w, http.StatusUnprocessableEntity, "date_of_birth cannot be in the future")
			return
		}
		updates["date_of_birth"] = dob
	}

	if len(updates) == 0 {
		httputil.WriteError(w, http.StatusBadRequest, "no valid fields provided for update")
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), userID, updates)
	if err != nil {
		logger.Log.Error("failed to update profile", zap.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to update profile")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, profileView(user))
}

func profileView(user *models.User) map[string]any {
	view := map[string]any{
		"id":           user.ID,
		"name":         user.Name,
		"email":        user.Email,
		"phone_number": user.PhoneNumber,
		"address":      user.Address,
		"created_at":   user.CreatedAt,
	}
	if user.DateOfBirth != nil {
		view["date_of_birth"] = user.DateOfBirth.Format("2006-01-02")
	}
	return view
}
