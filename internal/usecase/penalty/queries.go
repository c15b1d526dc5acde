package penalty

import (
	"context"
	"errors"
	"time"

	"microloan-backend/internal/domain/delinquency"
	"microloan-backend/internal/domain/errs"
	"microloan-backend/internal/domain/ledger"
	"microloan-backend/internal/domain/loan"
	"microloan-backend/internal/domain/query"
	"microloan-backend/internal/domain/uow"
	"microloan-backend/internal/infrastructure/metrics"

	"github.com/shopspring/decimal"
)

type Summary struct {
	LoanID       string          `json:"loan_id"`
	TotalPenalty decimal.Decimal `json:"total_penalty"`
	DaysOverdue  int             `json:"days_overdue"`
	LateFees     decimal.Decimal `json:"late_fees"`
	Status       loan.Status     `json:"status"`
	IsDefaulted  bool            `json:"is_defaulted"`
}

// PenaltySummary is a read-only projection. Loans that never started show a
// zero penalty.
func (o *Orchestrator) PenaltySummary(ctx context.Context, loanID string, now time.Time) (*Summary, error) {
	l, err := o.repos.Loans.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	overdue, err := loan.DaysOverdue(l, now)
	if err != nil && !errors.Is(err, errs.ErrInvalidLoanState) {
		return nil, err
	}
	return &Summary{
		LoanID:       l.LoanID,
		TotalPenalty: loan.TotalPenalty(l, now).Round(2),
		DaysOverdue:  overdue,
		LateFees:     l.LateFees,
		Status:       l.Status,
		IsDefaulted:  l.Status == loan.StatusDefaulted,
	}, nil
}

// ResolveDefault closes a defaulted loan and every default record for it.
func (o *Orchestrator) ResolveDefault(ctx context.Context, loanID, actorID string, rt loan.ResolutionType, notes string) (*loan.Loan, error) {
	now := o.clock.Now()
	var out *loan.Loan
	err := o.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *loan.Loan) error {
		if err := l.Resolve(rt, notes, now); err != nil {
			return err
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		records, err := r.Defaults.ListByLoanID(ctx, loanID)
		if err != nil {
			return err
		}
		for _, rec := range records {
			rec.Resolve(delinquency.Resolution{ResolvedAt: now, Type: string(rt), Notes: notes})
			if err := r.Defaults.Save(ctx, rec); err != nil {
				return err
			}
		}
		out = l
		return r.Transactions.Create(ctx, ledger.New(o.newID(), actorID, loanID, ledger.TypeResolution,
			decimal.Zero, "Default resolved: "+string(rt)))
	})
	if err != nil {
		return nil, err
	}
	metrics.LoanEvents.WithLabelValues("resolved").Inc()
	return out, nil
}

func (o *Orchestrator) DefaultStatistics(ctx context.Context) (delinquency.Statistics, error) {
	records, err := o.repos.Defaults.List(ctx, false)
	if err != nil {
		return delinquency.Statistics{}, err
	}
	total, err := o.repos.Loans.Count(ctx)
	if err != nil {
		return delinquency.Statistics{}, err
	}
	return delinquency.Summarize(records, total), nil
}

func (o *Orchestrator) ListDefaults(ctx context.Context) ([]*delinquency.Record, error) {
	return query.NewestFirst(ctx, o.repos.Defaults.List,
		func(r *delinquency.Record) time.Time { return r.DefaultedAt })
}
