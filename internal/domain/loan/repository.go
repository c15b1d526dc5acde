package loan

import (
	"context"
	"time"
)

// Ref is the part of a loan row the sweep needs to pick candidates. It is
// read without row validation.
type Ref struct {
	LoanID    string
	StartDate *time.Time
}

type Repository interface {
	Create(ctx context.Context, l *Loan) error
	Save(ctx context.Context, l *Loan) error
	GetByLoanID(ctx context.Context, loanID string) (*Loan, error)
	// GetByLoanIDForUpdate locks the row for the rest of the surrounding tx.
	GetByLoanIDForUpdate(ctx context.Context, loanID string) (*Loan, error)

	ListByStatus(ctx context.Context, status Status) ([]*Loan, error)
	ListRefsByStatus(ctx context.Context, status Status) ([]Ref, error)
	// ListByBorrower and ListByLender order by created_at desc when ordered is set;
	// they fail with query.ErrMissingIndex when the store cannot order.
	ListByBorrower(ctx context.Context, borrowerID string, ordered bool) ([]*Loan, error)
	ListByLender(ctx context.Context, lenderID string, ordered bool) ([]*Loan, error)
	Count(ctx context.Context) (int64, error)
	ListAll(ctx context.Context) ([]*Loan, error)
}
