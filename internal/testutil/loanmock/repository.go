package loanmock

import (
	"context"

	domain "microloan-backend/internal/domain/loan"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
// Writers default to a nil error, readers to context.Canceled.
type Repo struct {
	CreateFn               func(ctx context.Context, l *domain.Loan) error
	SaveFn                 func(ctx context.Context, l *domain.Loan) error
	GetByLoanIDFn          func(ctx context.Context, loanID string) (*domain.Loan, error)
	GetByLoanIDForUpdateFn func(ctx context.Context, loanID string) (*domain.Loan, error)
	ListByStatusFn         func(ctx context.Context, status domain.Status) ([]*domain.Loan, error)
	ListRefsByStatusFn     func(ctx context.Context, status domain.Status) ([]domain.Ref, error)
	ListByBorrowerFn       func(ctx context.Context, borrowerID string, ordered bool) ([]*domain.Loan, error)
	ListByLenderFn         func(ctx context.Context, lenderID string, ordered bool) ([]*domain.Loan, error)
	CountFn                func(ctx context.Context) (int64, error)
	ListAllFn              func(ctx context.Context) ([]*domain.Loan, error)
}

func (m *Repo) Create(ctx context.Context, l *domain.Loan) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, l)
	}
	return nil
}

func (m *Repo) Save(ctx context.Context, l *domain.Loan) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, l)
	}
	return nil
}

func (m *Repo) GetByLoanID(ctx context.Context, loanID string) (*domain.Loan, error) {
	if m.GetByLoanIDFn != nil {
		return m.GetByLoanIDFn(ctx, loanID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByLoanIDForUpdate(ctx context.Context, loanID string) (*domain.Loan, error) {
	if m.GetByLoanIDForUpdateFn != nil {
		return m.GetByLoanIDForUpdateFn(ctx, loanID)
	}
	return nil, context.Canceled
}

func (m *Repo) ListByStatus(ctx context.Context, status domain.Status) ([]*domain.Loan, error) {
	if m.ListByStatusFn != nil {
		return m.ListByStatusFn(ctx, status)
	}
	return nil, context.Canceled
}

// ListRefsByStatus falls back to ListByStatusFn when only that is set.
func (m *Repo) ListRefsByStatus(ctx context.Context, status domain.Status) ([]domain.Ref, error) {
	if m.ListRefsByStatusFn != nil {
		return m.ListRefsByStatusFn(ctx, status)
	}
	if m.ListByStatusFn != nil {
		loans, err := m.ListByStatusFn(ctx, status)
		if err != nil {
			return nil, err
		}
		refs := make([]domain.Ref, 0, len(loans))
		for _, l := range loans {
			refs = append(refs, domain.Ref{LoanID: l.LoanID, StartDate: l.StartDate})
		}
		return refs, nil
	}
	return nil, context.Canceled
}

func (m *Repo) ListByBorrower(ctx context.Context, borrowerID string, ordered bool) ([]*domain.Loan, error) {
	if m.ListByBorrowerFn != nil {
		return m.ListByBorrowerFn(ctx, borrowerID, ordered)
	}
	return nil, context.Canceled
}

func (m *Repo) ListByLender(ctx context.Context, lenderID string, ordered bool) ([]*domain.Loan, error) {
	if m.ListByLenderFn != nil {
		return m.ListByLenderFn(ctx, lenderID, ordered)
	}
	return nil, context.Canceled
}

func (m *Repo) Count(ctx context.Context) (int64, error) {
	if m.CountFn != nil {
		return m.CountFn(ctx)
	}
	return 0, context.Canceled
}

func (m *Repo) ListAll(ctx context.Context) ([]*domain.Loan, error) {
	if m.ListAllFn != nil {
		return m.ListAllFn(ctx)
	}
	return nil, context.Canceled
}
