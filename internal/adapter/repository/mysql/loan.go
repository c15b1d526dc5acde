package mysql

import (
	"context"

	loanDomain "microloan-backend/internal/domain/loan"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LoanRepository struct{ db *gorm.DB }

func NewLoanRepository(db *gorm.DB) *LoanRepository { return &LoanRepository{db: db} }

// Tx runs fn in a db transaction, passing a repo bound to the tx
func (r *LoanRepository) Tx(ctx context.Context, fn func(repo loanDomain.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&LoanRepository{db: tx})
	})
}

func (r *LoanRepository) Create(ctx context.Context, l *loanDomain.Loan) error {
	return translate("create loan", r.db.WithContext(ctx).Create(l).Error)
}

func (r *LoanRepository) Save(ctx context.Context, l *loanDomain.Loan) error {
	return translate("save loan", r.db.WithContext(ctx).Save(l).Error)
}

func (r *LoanRepository) GetByLoanID(ctx context.Context, loanID string) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := r.db.WithContext(ctx).Where("loan_id = ?", loanID).First(&out)
	if res.Error != nil {
		return nil, translate("get loan", res.Error)
	}
	return &out, nil
}

func (r *LoanRepository) GetByLoanIDForUpdate(ctx context.Context, loanID string) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("loan_id = ?", loanID).
		First(&out)
	if res.Error != nil {
		return nil, translate("lock loan", res.Error)
	}
	return &out, nil
}

func (r *LoanRepository) ListByStatus(ctx context.Context, status loanDomain.Status) ([]*loanDomain.Loan, error) {
	var out []*loanDomain.Loan
	res := r.db.WithContext(ctx).Where("status = ?", status).Order("id").Find(&out)
	return out, translate("list loans by status", res.Error)
}

// ListRefsByStatus scans into Ref, so Loan hooks do not run and a malformed
// row cannot hide the others.
func (r *LoanRepository) ListRefsByStatus(ctx context.Context, status loanDomain.Status) ([]loanDomain.Ref, error) {
	var out []loanDomain.Ref
	res := r.db.WithContext(ctx).
		Model(&loanDomain.Loan{}).
		Select("loan_id", "start_date").
		Where("status = ?", status).
		Order("id").
		Scan(&out)
	return out, translate("list loan refs by status", res.Error)
}

func (r *LoanRepository) ListByBorrower(ctx context.Context, borrowerID string, ordered bool) ([]*loanDomain.Loan, error) {
	return r.listBy(ctx, "borrower_id", borrowerID, ordered)
}

func (r *LoanRepository) ListByLender(ctx context.Context, lenderID string, ordered bool) ([]*loanDomain.Loan, error) {
	return r.listBy(ctx, "lender_id", lenderID, ordered)
}

func (r *LoanRepository) listBy(ctx context.Context, column, value string, ordered bool) ([]*loanDomain.Loan, error) {
	var out []*loanDomain.Loan
	q := r.db.WithContext(ctx).Where(clause.Eq{Column: clause.Column{Name: column}, Value: value})
	if ordered {
		q = q.Order("created_at DESC, id DESC")
	}
	res := q.Find(&out)
	return out, translate("list loans by "+column, res.Error)
}

func (r *LoanRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	res := r.db.WithContext(ctx).Model(&loanDomain.Loan{}).Count(&n)
	return n, translate("count loans", res.Error)
}

func (r *LoanRepository) ListAll(ctx context.Context) ([]*loanDomain.Loan, error) {
	var out []*loanDomain.Loan
	res := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&out)
	return out, translate("list loans", res.Error)
}
