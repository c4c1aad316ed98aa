package store

import (
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Ywatch15/Bank-Transaction-Sys/configs"
	"github.com/Ywatch15/Bank-Transaction-Sys/internal/logger"
	"github.com/Ywatch15/Bank-Transaction-Sys/internal/models"
)

var DB *gorm.DB

func NewDB() {
	dsn := configs.AppConfig.DB.DSN
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: false,
	}), &gorm.Config{
		// Needed so unique-index violations surface as
		// gorm.ErrDuplicatedKey; the idempotency test-and-set relies
		// on catching that error.
		TranslateError: true,
	})
	if err != nil {
		logger.Log.Fatal("failed to connect to database", zap.Error(err))
	}
	DB = db
	logger.Log.Info("connected to the database")
}

func DBMigrate() {
	DB.AutoMigrate(
		&models.User{},
		&models.Account{},
		&models.Transaction{},
		&models.LedgerEntry{},
		&models.AuditLog{},
		&models.RevokedToken{},
	)
	logger.Log.Info("migrations loaded")
}
