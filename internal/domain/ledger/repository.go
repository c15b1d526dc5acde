package ledger

import "context"

type Repository interface {
	Create(ctx context.Context, t *Transaction) error
	// ListByLoan orders by timestamp desc when ordered is set.
	ListByLoan(ctx context.Context, loanID string, ordered bool) ([]*Transaction, error)
}
