package loan

import (
	"time"

	"microloan-backend/internal/domain/errs"

	"github.com/shopspring/decimal"
)

type Installment struct {
	Day       int             `json:"day"`
	DueDate   time.Time       `json:"due_date"`
	AmountDue decimal.Decimal `json:"amount_due"`
	IsOverdue bool            `json:"is_overdue"`
	Paid      bool            `json:"paid"`
}

// BuildSchedule lists one installment per day of the loan. It never mutates l.
func BuildSchedule(l *Loan, now time.Time) ([]Installment, error) {
	if l.StartDate == nil {
		return nil, errs.ErrInvalidLoanState
	}
	out := make([]Installment, 0, l.DurationDays)
	for d := 1; d <= l.DurationDays; d++ {
		due := l.StartDate.AddDate(0, 0, d)
		out = append(out, Installment{
			Day:       d,
			DueDate:   due,
			AmountDue: CompoundAmountAtDay(l, d),
			IsOverdue: due.Before(now),
			Paid:      l.PaidDays.Contains(d),
		})
	}
	return out, nil
}

// NextInstallment returns the first installment whose day is unpaid.
// ok is false once every day has been paid.
func NextInstallment(schedule []Installment, paid PaidDays) (Installment, bool) {
	for _, in := range schedule {
		if !paid.Contains(in.Day) {
			return in, true
		}
	}
	return Installment{}, false
}

type ScheduleView struct {
	LoanID          string        `json:"loan_id"`
	Installments    []Installment `json:"installments"`
	Next            *Installment  `json:"next,omitempty"`
	ProgressPercent int           `json:"progress_percent"`
	FullyScheduled  bool          `json:"fully_scheduled"`
}

func ViewSchedule(l *Loan, now time.Time) (*ScheduleView, error) {
	items, err := BuildSchedule(l, now)
	if err != nil {
		return nil, err
	}
	v := &ScheduleView{LoanID: l.LoanID, Installments: items}
	if next, ok := NextInstallment(items, l.PaidDays); ok {
		v.Next = &next
	} else {
		v.FullyScheduled = true
	}
	v.ProgressPercent = min(100, int(float64(len(l.PaidDays))/float64(l.DurationDays)*100+0.5))
	return v, nil
}
