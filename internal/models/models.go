package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AccountStatus is the closed set of account states. CLOSED is terminal.
type AccountStatus string

const (
	AccountActive AccountStatus = "ACTIVE"
	AccountFrozen AccountStatus = "FROZEN"
	AccountClosed AccountStatus = "CLOSED"
)

// TransactionStatus is the closed set of transfer states.
type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "PENDING"
	TransactionCompleted TransactionStatus = "COMPLETED"
	TransactionFailed    TransactionStatus = "FAILED"
	TransactionReversed  TransactionStatus = "REVERSED"
)

// EntryType distinguishes the two sides of a double-entry pair.
type EntryType string

const (
	EntryDebit  EntryType = "DEBIT"
	EntryCredit EntryType = "CREDIT"
)

type User struct {
	gorm.Model
	Name        string `gorm:"size:100;not null"`
	Email       string `gorm:"uniqueIndex;size:255;not null"`
	Password    string `gorm:"size:255" json:"-"`
	Role        string `gorm:"size:20;default:user"`
	PhoneNumber string `gorm:"size:20"`
	Address     string `gorm:"size:300"`
	DateOfBirth *time.Time
}

// Account carries no balance column. Balances are derived from the
// ledger, which is the sole source of truth.
type Account struct {
	gorm.Model
	UserID   uint          `gorm:"index;not null"`
	Currency string        `gorm:"size:3;not null"`
	Status   AccountStatus `gorm:"size:10;index;not null;default:ACTIVE"`
}

type Transaction struct {
	gorm.Model
	Reference      string            `gorm:"size:36;uniqueIndex;not null"`
	FromAccountID  uint              `gorm:"index;not null"`
	ToAccountID    uint              `gorm:"index;not null"`
	Amount         decimal.Decimal   `gorm:"type:numeric(20,4);not null"`
	IdempotencyKey string            `gorm:"size:255;uniqueIndex;not null"`
	Status         TransactionStatus `gorm:"size:10;index;not null"`
}

// LedgerEntry is write-once. The ledger store exposes no update or
// delete operation, so immutability holds structurally.
type LedgerEntry struct {
	gorm.Model
	TransactionID uint            `gorm:"index;not null"`
	AccountID     uint            `gorm:"index;not null"`
	Amount        decimal.Decimal `gorm:"type:numeric(20,4);not null"`
	Type          EntryType       `gorm:"size:6;not null"`
}

// AuditLog stores one row per inbound request. Only safe metadata is
// captured; never passwords, tokens or card data.
type AuditLog struct {
	gorm.Model
	UserID *uint  `gorm:"index"`
	IP     string `gorm:"size:45"`
	Method string `gorm:"size:10;not null"`
	Route  string `gorm:"size:255;not null"`
	Meta   string `gorm:"type:text"`
}

// RevokedToken backs logout. Rows past ExpiresAt are purged on startup.
type RevokedToken struct {
	gorm.Model
	TokenHash string    `gorm:"size:64;uniqueIndex;not null"`
	ExpiresAt time.Time `gorm:"index;not null"`
}
