package loan

import (
	"time"

	"microloan-backend/internal/domain/errs"

	"github.com/shopspring/decimal"
)

// DefaultThresholdDays is how long a loan may stay overdue before it defaults.
const DefaultThresholdDays = 30

var lateFeeRate = decimal.RequireFromString("0.02")

// DaysElapsed is the number of whole days since the loan started, 0 if it
// has not started.
func DaysElapsed(l *Loan, now time.Time) int {
	if l.StartDate == nil {
		return 0
	}
	d := now.Sub(*l.StartDate)
	days := int(d / oneDay)
	if d < 0 && d%oneDay != 0 {
		days--
	}
	return days
}

// AccruedInterestSimple is principal * rate * days. Dashboards and the
// overdue penalty base use it.
func AccruedInterestSimple(l *Loan, days int) decimal.Decimal {
	return l.Amount.Mul(l.DailyRate).Mul(decimal.NewFromInt(int64(days)))
}

// CompoundAmountAtDay is principal * (1+rate)^day, the amount owed for the
// installment of that day.
func CompoundAmountAtDay(l *Loan, day int) decimal.Decimal {
	factor := decimal.NewFromInt(1)
	base := factor.Add(l.DailyRate)
	for i := 0; i < day; i++ {
		factor = factor.Mul(base)
	}
	return l.Amount.Mul(factor)
}

// DaysOverdue fails with ErrInvalidLoanState for loans that never started.
func DaysOverdue(l *Loan, now time.Time) (int, error) {
	if l.StartDate == nil {
		return 0, errs.ErrInvalidLoanState
	}
	return max(0, DaysElapsed(l, now)-l.DurationDays), nil
}

func LateFee(overdueAmount decimal.Decimal) decimal.Decimal {
	return overdueAmount.Mul(lateFeeRate)
}

type Penalty struct {
	DaysOverdue   int
	OverdueAmount decimal.Decimal
	LateFee       decimal.Decimal
	Total         decimal.Decimal
}

// ComputePenalty returns the penalty figures for the loan at now.
func ComputePenalty(l *Loan, now time.Time) (Penalty, error) {
	overdue, err := DaysOverdue(l, now)
	if err != nil {
		return Penalty{}, err
	}
	if overdue == 0 {
		return Penalty{OverdueAmount: decimal.Zero, LateFee: decimal.Zero, Total: decimal.Zero}, nil
	}
	amount := AccruedInterestSimple(l, overdue)
	fee := LateFee(amount)
	return Penalty{
		DaysOverdue:   overdue,
		OverdueAmount: amount,
		LateFee:       fee,
		Total:         amount.Add(fee),
	}, nil
}

// TotalPenalty is the display variant: loans that never started owe nothing.
func TotalPenalty(l *Loan, now time.Time) decimal.Decimal {
	p, err := ComputePenalty(l, now)
	if err != nil {
		return decimal.Zero
	}
	return p.Total
}
