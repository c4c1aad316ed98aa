package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Ywatch15/Bank-Transaction-Sys/configs"
	"github.com/Ywatch15/Bank-Transaction-Sys/internal/engine"
	"github.com/Ywatch15/Bank-Transaction-Sys/internal/handlers"
	"github.com/Ywatch15/Bank-Transaction-Sys/internal/logger"
	appmw "github.com/Ywatch15/Bank-Transaction-Sys/internal/middleware"
	"github.com/Ywatch15/Bank-Transaction-Sys/internal/notify"
	"github.com/Ywatch15/Bank-Transaction-Sys/internal/routes"
	"github.com/Ywatch15/Bank-Transaction-Sys/internal/seed"
	"github.com/Ywatch15/Bank-Transaction-Sys/internal/store"
)

func main() {
	logger.Init()
	defer logger.Log.Sync()

	configs.LoadConfig()
	store.NewDB()
	store.DBMigrate()
	if configs.AppConfig.Seed.Enabled {
		seed.Run()
	}

	db := store.DB
	engineStore := store.NewGormStore(db)
	users := store.NewUserStore(db)
	tokens := store.NewTokenStore(db)
	audits := store.NewAuditStore(db)

	if err := tokens.PurgeExpired(context.Background()); err != nil {
		logger.Log.Warn("failed to purge expired tokens", zap.Error(err))
	}

	smtp := configs.AppConfig.SMTP
	mailer := notify.NewMailer(notify.Config{
		Host:     smtp.Host,
		Port:     smtp.Port,
		User:     smtp.User,
		Password: smtp.Password,
		From:     smtp.From,
		Disabled: smtp.Disabled,
	}, users, engineStore.Accounts(), logger.Log)

	coordinator := engine.NewTransactionCoordinator(engineStore, mailer, logger.Log)
	balances := engine.NewBalanceCalculator(engineStore)
	lifecycle := engine.NewAccountLifecycle(engineStore.Accounts(), logger.Log)
	history := engine.NewHistoryService(engineStore)

	h := handlers.New(users, engineStore.Accounts(), tokens, coordinator, balances, lifecycle, history, mailer)
	auth := appmw.NewAuth(tokens)
	audit := appmw.NewAudit(audits)

	router := routes.New(h, auth, audit)

	srv := &http.Server{
		Addr:         configs.AppConfig.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("server error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	logger.Log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("graceful shutdown failed", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Log.Error("db close skipped, reason:", zap.Error(err))
	} else {
		sqlDB.Close()
		logger.Log.Info("db closed")
	}

	logger.Log.Info("server stopped")
}
