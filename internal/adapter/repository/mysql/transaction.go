package mysql

import (
	"context"

	"microloan-backend/internal/domain/ledger"

	"gorm.io/gorm"
)

type TransactionRepository struct{ db *gorm.DB }

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Create appends to the ledger; rows are never updated.
func (r *TransactionRepository) Create(ctx context.Context, t *ledger.Transaction) error {
	return translate("create transaction", r.db.WithContext(ctx).Create(t).Error)
}

func (r *TransactionRepository) ListByLoan(ctx context.Context, loanID string, ordered bool) ([]*ledger.Transaction, error) {
	var out []*ledger.Transaction
	q := r.db.WithContext(ctx).Where("loan_id = ?", loanID)
	if ordered {
		q = q.Order("timestamp DESC, id DESC")
	}
	res := q.Find(&out)
	return out, translate("list transactions", res.Error)
}
