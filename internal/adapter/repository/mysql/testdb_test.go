package mysql

import (
	"testing"
	"time"

	"microloan-backend/internal/domain/delinquency"
	"microloan-backend/internal/domain/ledger"
	loanDomain "microloan-backend/internal/domain/loan"
	"microloan-backend/internal/domain/notification"
	"microloan-backend/internal/domain/user"
	"microloan-backend/pkg/id"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// openTestDB creates an in-memory sqlite DB with the full schema.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// every pooled connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(
		&loanDomain.Loan{},
		&ledger.Transaction{},
		&delinquency.Record{},
		&notification.Notification{},
		&user.User{},
	); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db
}

func makeLoan(t *testing.T, borrowerID string, created time.Time) *loanDomain.Loan {
	t.Helper()
	l, err := loanDomain.NewRequest(id.NewID32(), borrowerID, "Borrower", loanDomain.Terms{
		Amount:       decimal.RequireFromString("5000"),
		DurationDays: 10,
		DailyRate:    decimal.RequireFromString("0.001"),
	}, "stock", created)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	return l
}
