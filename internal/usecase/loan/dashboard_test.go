package loan

import (
	"context"
	"testing"

	domain "microloan-backend/internal/domain/loan"
)

func funded(status domain.Status, amount string, days int) *domain.Loan {
	start := t0
	end := start.AddDate(0, 0, days)
	lid := lenderID
	return &domain.Loan{
		LoanID: string(status) + amount, BorrowerID: borrowerID, LenderID: &lid,
		Amount: dec(amount), DurationDays: days, DailyRate: dec("0.001"),
		Status: status, StartDate: &start, EndDate: &end, CreatedAt: t0,
	}
}

func TestBorrowerDashboard(t *testing.T) {
	f := newFixture(t0.AddDate(0, 0, 4))
	f.repo.ListByBorrowerFn = func(context.Context, string, bool) ([]*domain.Loan, error) {
		return []*domain.Loan{
			funded(domain.StatusActive, "5000", 10),
			funded(domain.StatusActive, "1000", 10),
			funded(domain.StatusCompleted, "2000", 10),
			{LoanID: "req", Amount: dec("700"), Status: domain.StatusRequested},
		}, nil
	}
	d, err := f.uc.BorrowerDashboard(context.Background(), borrowerID)
	if err != nil {
		t.Fatalf("BorrowerDashboard: %v", err)
	}
	if d.ActiveLoans != 2 || !d.TotalBorrowed.Equal(dec("6000")) {
		t.Fatalf("active=%d borrowed=%s", d.ActiveLoans, d.TotalBorrowed)
	}
	// 6000 * 0.001 * 4 days
	if !d.PendingRepayments.Equal(dec("24")) {
		t.Fatalf("pending = %s", d.PendingRepayments)
	}
	if len(d.Loans) != 4 {
		t.Fatalf("loans = %d", len(d.Loans))
	}
}

func TestLenderDashboard(t *testing.T) {
	f := newFixture(t0.AddDate(0, 0, 20))
	f.repo.ListByLenderFn = func(context.Context, string, bool) ([]*domain.Loan, error) {
		return []*domain.Loan{
			funded(domain.StatusActive, "5000", 10),
			funded(domain.StatusRepaid, "2000", 15),
			funded(domain.StatusDefaulted, "9000", 10),
		}, nil
	}
	d, err := f.uc.LenderDashboard(context.Background(), lenderID)
	if err != nil {
		t.Fatalf("LenderDashboard: %v", err)
	}
	if d.ActiveInvestments != 1 || !d.TotalLent.Equal(dec("7000")) {
		t.Fatalf("active=%d lent=%s", d.ActiveInvestments, d.TotalLent)
	}
	// 2000 * 0.001 * 15
	if !d.TotalEarnings.Equal(dec("30")) {
		t.Fatalf("earnings = %s", d.TotalEarnings)
	}
}

func TestAdminOverview(t *testing.T) {
	f := newFixture(t0)
	f.repo.ListAllFn = func(context.Context) ([]*domain.Loan, error) {
		return []*domain.Loan{
			funded(domain.StatusActive, "5000", 10),
			funded(domain.StatusDefaulted, "1000", 10),
			{LoanID: "req", Amount: dec("250"), Status: domain.StatusRequested},
		}, nil
	}
	o, err := f.uc.AdminOverview(context.Background())
	if err != nil {
		t.Fatalf("AdminOverview: %v", err)
	}
	if o.TotalLoans != 3 || o.ActiveLoans != 1 || o.DefaultedLoans != 1 || !o.TotalVolume.Equal(dec("6250")) {
		t.Fatalf("unexpected overview: %+v", o)
	}
	if len(o.Defaulted) != 1 || o.Defaulted[0].Status != domain.StatusDefaulted {
		t.Fatalf("defaulted list = %+v", o.Defaulted)
	}
}
