package delinquency

import "context"

type Repository interface {
	// Create fails when the loan already has a record.
	Create(ctx context.Context, r *Record) error
	Save(ctx context.Context, r *Record) error
	ListByLoanID(ctx context.Context, loanID string) ([]*Record, error)
	// List orders by defaulted_at desc when ordered is set.
	List(ctx context.Context, ordered bool) ([]*Record, error)
}
