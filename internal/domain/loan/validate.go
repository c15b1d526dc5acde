package loan

import (
	"fmt"

	"microloan-backend/internal/domain/errs"
)

// Validate checks the structural invariants of a loan record.
func (l *Loan) Validate() error {
	if l.LoanID == "" {
		return errs.Invalid("loan_id", "is required")
	}
	if l.BorrowerID == "" {
		return errs.Invalid("borrower_id", "is required")
	}
	if err := l.Terms().Validate(); err != nil {
		return err
	}
	if !l.Status.Valid() {
		return errs.Invalid("status", fmt.Sprintf("unknown value %q", l.Status))
	}
	funded := l.LenderID != nil && *l.LenderID != ""
	if funded != l.Status.Funded() {
		return errs.Invalid("lender_id", "must be set exactly when the loan is funded")
	}
	if (l.StartDate != nil) != funded {
		return errs.Invalid("start_date", "must be set exactly when lender_id is set")
	}
	if l.StartDate != nil {
		if l.EndDate == nil || !l.EndDate.Equal(l.StartDate.AddDate(0, 0, l.DurationDays)) {
			return errs.Invalid("end_date", "must equal start_date plus duration_days")
		}
	}
	prev := 0
	for _, d := range l.PaidDays {
		if d < 1 || d > l.DurationDays {
			return errs.Invalid("paid_days", fmt.Sprintf("day %d out of range", d))
		}
		if d == prev {
			return errs.Invalid("paid_days", fmt.Sprintf("day %d repeated", d))
		}
		prev = d
	}
	if l.LateFees.IsNegative() {
		return errs.Invalid("late_fees", "must not be negative")
	}
	if l.DaysOverdue < 0 {
		return errs.Invalid("days_overdue", "must not be negative")
	}
	if l.TotalPenalty.Valid && l.DefaultedAt == nil {
		return errs.Invalid("total_penalty", "is only set once the loan has defaulted")
	}
	if l.ResolutionType != nil && l.Status != StatusResolved {
		return errs.Invalid("resolution_type", "is only set on resolved loans")
	}
	return nil
}
