package uow

import (
	"context"

	"microloan-backend/internal/domain/delinquency"
	"microloan-backend/internal/domain/ledger"
	"microloan-backend/internal/domain/loan"
	"microloan-backend/internal/domain/notification"
	"microloan-backend/internal/domain/user"
)

// Repos are bound to the same transaction.
type Repos struct {
	Loans         loan.Repository
	Transactions  ledger.Repository
	Defaults      delinquency.Repository
	Notifications notification.Repository
	Users         user.Repository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// lock the loan first, then pass it in; all of fn commits or none does
	WithinLoanTx(ctx context.Context, loanID string, fn func(r Repos, l *loan.Loan) error) error
}
