package mysql

import (
	"context"

	"microloan-backend/internal/domain/delinquency"

	"gorm.io/gorm"
)

type DefaultRepository struct{ db *gorm.DB }

func NewDefaultRepository(db *gorm.DB) *DefaultRepository { return &DefaultRepository{db: db} }

// Create relies on ux_defaults_loan_id to refuse a second record per loan.
func (r *DefaultRepository) Create(ctx context.Context, rec *delinquency.Record) error {
	return translate("create default", r.db.WithContext(ctx).Create(rec).Error)
}

func (r *DefaultRepository) Save(ctx context.Context, rec *delinquency.Record) error {
	return translate("save default", r.db.WithContext(ctx).Save(rec).Error)
}

func (r *DefaultRepository) ListByLoanID(ctx context.Context, loanID string) ([]*delinquency.Record, error) {
	var out []*delinquency.Record
	res := r.db.WithContext(ctx).Where("loan_id = ?", loanID).Order("id").Find(&out)
	return out, translate("list defaults by loan", res.Error)
}

func (r *DefaultRepository) List(ctx context.Context, ordered bool) ([]*delinquency.Record, error) {
	var out []*delinquency.Record
	q := r.db.WithContext(ctx)
	if ordered {
		q = q.Order("defaulted_at DESC, id DESC")
	}
	res := q.Find(&out)
	return out, translate("list defaults", res.Error)
}
