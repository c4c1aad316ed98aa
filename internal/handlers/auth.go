package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Ywatch15/Bank-Transaction-Sys/configs"
	"github.com/Ywatch15/Bank-Transaction-Sys/internal/engine"
	"github.com/Ywatch15/Bank-Transaction-Sys/internal/httputil"
	"github.com/Ywatch15/Bank-Transaction-Sys/internal/logger"
	"github.com/Ywatch15/Bank-Transaction-Sys/internal/middleware"
	"github.com/Ywatch15/Bank-Transaction-Sys/internal/models"
)

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if len(req.Name) < 2 || len(req.Name) > 100 {
		httputil.WriteError(w, http.StatusBadRequest, "name must be between 2 and 100 characters")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid email address")
		return
	}
	if len(req.Password) < 6 {
		httputil.WriteError(w, http.StatusBadRequest, "password must be at least 6 characters")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Log.Error("failed to hash password", zap.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to register")
		return
	}

	user := models.User{Name: req.Name, Email: req.Email, Password: string(hash), Role: "user"}
	if err := h.users.Create(r.Context(), &user); err != nil {
		if errors.Is(err, engine.ErrDuplicateKey) {
			httputil.WriteError(w, http.StatusConflict, "email already registered")
			return
		}
		logger.Log.Error("failed to create user", zap.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to register")
		return
	}

	go h.mailer.Welcome(user.Email, user.Name)

	httputil.WriteJSON(w, http.StatusCreated, map[string]any{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
	})
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		httputil.WriteError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := h.users.GetByEmail(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		httputil.WriteError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		httputil.WriteError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	ttl := time.Duration(configs.AppConfig.JWT.TTLHours) * time.Hour
	claims := jwt.MapClaims{
		"sub":  user.ID,
		"role": user.Role,
		"exp":  time.Now().Add(ttl).Unix(),
		"iat":  time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(configs.AppConfig.JWT.SECRET))
	if err != nil {
		logger.Log.Error("failed to sign jwt", zap.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to create token")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, LoginResponse{Token: signed})
}

// Logout revokes the presented token until its natural expiry.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		httputil.WriteError(w, http.StatusBadRequest, "missing bearer token")
		return
	}
	tokenStr := parts[1]

	expiresAt := time.Now().Add(time.Duration(configs.AppConfig.JWT.TTLHours) * time.Hour)
	if token, _, err := jwt.NewParser().ParseUnverified(tokenStr, jwt.MapClaims{}); err == nil {
		if exp, err := token.Claims.GetExpirationTime(); err == nil && exp != nil {
			expiresAt = exp.Time
		}
	}

	if err := h.tokens.Revoke(r.Context(), middleware.HashToken(tokenStr), expiresAt); err != nil {
		logger.Log.Error("failed to revoke token", zap.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to log out")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
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

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
		"role":  user.Role,
	})
}
