package seed

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Ywatch15/Bank-Transaction-Sys/internal/logger"
	"github.com/Ywatch15/Bank-Transaction-Sys/internal/models"
	"github.com/Ywatch15/Bank-Transaction-Sys/internal/store"
)

const (
	seedPassword = "password123"
	systemEmail  = "system@bank.local"
	adminEmail   = "admin@bank.local"
)

var testUsers = []struct {
	Name  string
	Email string
}{
	{"Test User 1", "user1@test.com"},
	{"Test User 2", "user2@test.com"},
	{"Test User 3", "user3@test.com"},
}

var openingBalances = map[string]decimal.Decimal{
	"USD": decimal.RequireFromString("1000.00"),
	"EUR": decimal.RequireFromString("500.00"),
}

// Run creates demo users and funds their accounts. Opening balances go
// through the same double-entry write path as transfers: one COMPLETED
// transaction per grant, a DEBIT on the system account and a CREDIT on
// the user account. The system account is the one account allowed to
// run negative; it is the counterparty of all issued funds.
func Run() {
	db := store.DB
	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", systemEmail).Count(&count).Error; err != nil {
		logger.Log.Fatal("seed check failed", zap.Error(err))
	}
	if count > 0 {
		logger.Log.Info("seed already applied, skipping")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
	if err != nil {
		logger.Log.Fatal("failed to hash seed password", zap.Error(err))
	}
	hashed := string(hash)

	err = db.Transaction(func(tx *gorm.DB) error {
		sys := models.User{Name: "System", Email: systemEmail, Password: hashed, Role: "admin"}
		if err := tx.Create(&sys).Error; err != nil {
			return err
		}
		admin := models.User{Name: "Admin", Email: adminEmail, Password: hashed, Role: "admin"}
		if err := tx.Create(&admin).Error; err != nil {
			return err
		}

		sysAccounts := map[string]models.Account{}
		for currency := range openingBalances {
			acct := models.Account{UserID: sys.ID, Currency: currency, Status: models.AccountActive}
			if err := tx.Create(&acct).Error; err != nil {
				return err
			}
			sysAccounts[currency] = acct
		}

		for _, u := range testUsers {
			user := models.User{Name: u.Name, Email: u.Email, Password: hashed, Role: "user"}
			if err := tx.Create(&user).Error; err != nil {
				return err
			}

			for currency, amount := range openingBalances {
				acct := models.Account{UserID: user.ID, Currency: currency, Status: models.AccountActive}
				if err := tx.Create(&acct).Error; err != nil {
					return err
				}

				grant := models.Transaction{
					Reference:      uuid.NewString(),
					FromAccountID:  sysAccounts[currency].ID,
					ToAccountID:    acct.ID,
					Amount:         amount,
					IdempotencyKey: "seed-" + u.Email + "-" + currency,
					Status:         models.TransactionCompleted,
				}
				if err := tx.Create(&grant).Error; err != nil {
					return err
				}

				entries := []models.LedgerEntry{
					{TransactionID: grant.ID, AccountID: sysAccounts[currency].ID, Amount: amount, Type: models.EntryDebit},
					{TransactionID: grant.ID, AccountID: acct.ID, Amount: amount, Type: models.EntryCredit},
				}
				for i := range entries {
					if err := tx.Create(&entries[i]).Error; err != nil {
						return err
					}
				}
			}
		}
		return nil
	})
	if err != nil {
		logger.Log.Fatal("seed failed", zap.Error(err))
	}
	logger.Log.Info("seeded demo users, all share the demo password", zap.Int("users", len(testUsers)))
}
