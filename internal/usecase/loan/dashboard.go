package loan

import (
	"context"

	"microloan-backend/internal/domain/loan"

	"github.com/shopspring/decimal"
)

// BorrowerDashboard totals use simple interest; installments use compound.
func (u *Usecase) BorrowerDashboard(ctx context.Context, borrowerID string) (*BorrowerDashboard, error) {
	loans, err := u.ListByBorrower(ctx, borrowerID)
	if err != nil {
		return nil, err
	}
	now := u.clock.Now()
	d := &BorrowerDashboard{TotalBorrowed: decimal.Zero, PendingRepayments: decimal.Zero, Loans: loans}
	for _, l := range loans {
		if l.Status != loan.StatusActive {
			continue
		}
		d.ActiveLoans++
		d.TotalBorrowed = d.TotalBorrowed.Add(l.Amount)
		d.PendingRepayments = d.PendingRepayments.Add(loan.AccruedInterestSimple(l, loan.DaysElapsed(l, now)))
	}
	d.PendingRepayments = d.PendingRepayments.Round(2)
	return d, nil
}

func (u *Usecase) LenderDashboard(ctx context.Context, lenderID string) (*LenderDashboard, error) {
	loans, err := u.ListByLender(ctx, lenderID)
	if err != nil {
		return nil, err
	}
	d := &LenderDashboard{TotalLent: decimal.Zero, TotalEarnings: decimal.Zero, Loans: loans}
	for _, l := range loans {
		switch l.Status {
		case loan.StatusActive:
			d.ActiveInvestments++
			d.TotalLent = d.TotalLent.Add(l.Amount)
		case loan.StatusRepaid:
			d.TotalLent = d.TotalLent.Add(l.Amount)
			// earned over the full term
			d.TotalEarnings = d.TotalEarnings.Add(loan.AccruedInterestSimple(l, l.DurationDays))
		}
	}
	d.TotalEarnings = d.TotalEarnings.Round(2)
	return d, nil
}

func (u *Usecase) AdminOverview(ctx context.Context) (*AdminOverview, error) {
	loans, err := u.repos.Loans.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	o := &AdminOverview{TotalLoans: len(loans), TotalVolume: decimal.Zero, Defaulted: []*loan.Loan{}}
	for _, l := range loans {
		o.TotalVolume = o.TotalVolume.Add(l.Amount)
		switch l.Status {
		case loan.StatusActive:
			o.ActiveLoans++
		case loan.StatusDefaulted:
			o.DefaultedLoans++
			o.Defaulted = append(o.Defaulted, l)
		}
	}
	return o, nil
}
