package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/Ywatch15/Bank-Transaction-Sys/internal/handlers"
	appmw "github.com/Ywatch15/Bank-Transaction-Sys/internal/middleware"
)

func New(h *handlers.Handlers, auth *appmw.Auth, audit *appmw.Audit) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(audit.Record)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	r.Post("/auth/register", h.Register)
	r.Post("/auth/login", h.Login)
	r.Post("/auth/logout", h.Logout)
	r.With(auth.Authenticated).Get("/auth/me", h.Me)

	r.Group(func(r chi.Router) {
		r.Use(auth.Authenticated)

		r.Post("/accounts", h.CreateAccount)
		r.Get("/accounts", h.GetAccounts)
		r.Get("/accounts/{id}/balance", h.AccountBalance)

		r.Post("/transactions/transfer", h.Transfer)
		r.Get("/transactions", h.Transactions)
		r.Get("/transactions/export", h.ExportTransactions)

		r.Get("/profile", h.GetProfile)
		r.Patch("/profile", h.UpdateProfile)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.Authenticated, auth.AdminOnly)

		r.Post("/admin/accounts/{id}/freeze", h.FreezeAccount)
		r.Post("/admin/accounts/{id}/unfreeze", h.UnfreezeAccount)
	})

	r.Get("/swagger/*", httpSwagger.WrapHandler)

	return r
}
