package uowmock

import (
	"context"
	"errors"
	"sync"

	"microloan-backend/internal/domain/loan"
	"microloan-backend/internal/domain/uow"
)

var _ uow.UnitOfWork = (*UoW)(nil)

var errUnimplemented = errors.New("uowmock: method not implemented")

// UoW is a function-backed uow.UnitOfWork. Unset functions return
// errUnimplemented. Every WithinLoanTx call is recorded in Locked.
type UoW struct {
	WithinTxFn     func(ctx context.Context, fn func(r uow.Repos) error) error
	WithinLoanTxFn func(ctx context.Context, loanID string, fn func(r uow.Repos, l *loan.Loan) error) error

	mu     sync.Mutex
	locked []string
}

// Passthrough runs bodies straight against repos, without a transaction.
// WithinLoanTx loads the loan through GetByLoanIDForUpdate like the gorm one.
func Passthrough(repos uow.Repos) *UoW {
	return &UoW{
		WithinTxFn: func(_ context.Context, fn func(uow.Repos) error) error {
			return fn(repos)
		},
		WithinLoanTxFn: func(ctx context.Context, loanID string, fn func(uow.Repos, *loan.Loan) error) error {
			l, err := repos.Loans.GetByLoanIDForUpdate(ctx, loanID)
			if err != nil {
				return err
			}
			return fn(repos, l)
		},
	}
}

func (m *UoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	if m.WithinTxFn == nil {
		return errUnimplemented
	}
	return m.WithinTxFn(ctx, fn)
}

func (m *UoW) WithinLoanTx(ctx context.Context, loanID string, fn func(r uow.Repos, l *loan.Loan) error) error {
	m.mu.Lock()
	m.locked = append(m.locked, loanID)
	m.mu.Unlock()
	if m.WithinLoanTxFn == nil {
		return errUnimplemented
	}
	return m.WithinLoanTxFn(ctx, loanID, fn)
}

// Locked returns the loan ids WithinLoanTx was called with, in call order.
func (m *UoW) Locked() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.locked...)
}
