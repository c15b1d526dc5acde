package penalty

import (
	"context"
	"fmt"
	"time"

	"microloan-backend/internal/domain/delinquency"
	"microloan-backend/internal/domain/ledger"
	"microloan-backend/internal/domain/loan"
	"microloan-backend/internal/domain/notification"
	"microloan-backend/internal/domain/uow"

	"github.com/dustin/go-humanize"
)

// Batch is everything one penalty action writes. Nil fields are not written.
type Batch struct {
	Action       loan.Action
	Loan         *loan.Loan
	Transaction  *ledger.Transaction
	Default      *delinquency.Record
	Notification *notification.Notification
}

// Plan decides the penalty action for l at now and returns the writes it
// implies. l itself is left untouched; Batch.Loan is an updated copy.
func Plan(l *loan.Loan, now time.Time, newID func() string) (*Batch, error) {
	a, err := loan.Assess(l, now)
	if err != nil {
		return nil, err
	}
	b := &Batch{Action: a.Action}
	if a.Action == loan.ActionNone {
		return b, nil
	}

	next := *l
	b.Loan = &next
	switch a.Action {
	case loan.ActionLateFee:
		if err := next.ApplyLateFee(a, now); err != nil {
			return nil, err
		}
		b.Transaction = ledger.New(newID(), l.BorrowerID, l.LoanID, ledger.TypePenalty,
			a.LateFee.Round(2), fmt.Sprintf("Late fee for %d days overdue", a.DaysOverdue))
	case loan.ActionDefault:
		if err := next.MarkDefaulted(a, now); err != nil {
			return nil, err
		}
		b.Transaction = ledger.New(newID(), l.BorrowerID, l.LoanID, ledger.TypePenalty,
			a.Total.Round(2), fmt.Sprintf("Defaulted after %d days overdue", a.DaysOverdue))
		b.Default = &delinquency.Record{
			DefaultID:   newID(),
			LoanID:      l.LoanID,
			DefaultedAt: now,
			TotalAmount: a.Total.Round(2),
			Status:      delinquency.StatusActive,
		}
		if l.LenderID != nil {
			b.Notification = &notification.Notification{
				UserID:    *l.LenderID,
				Type:      notification.TypeDefault,
				Title:     "Loan Defaulted",
				Message:   fmt.Sprintf("Loan of ₹%s has been marked as defaulted.", humanize.CommafWithDigits(l.Amount.InexactFloat64(), 2)),
				LoanID:    l.LoanID,
				CreatedAt: now,
			}
		}
	}
	return b, nil
}

// Apply persists b through r. Callers run it inside one transaction so the
// status change and its records commit together.
func Apply(ctx context.Context, r uow.Repos, b *Batch) error {
	if b.Action == loan.ActionNone {
		return nil
	}
	if err := r.Loans.Save(ctx, b.Loan); err != nil {
		return err
	}
	if err := r.Transactions.Create(ctx, b.Transaction); err != nil {
		return err
	}
	if b.Default != nil {
		if err := r.Defaults.Create(ctx, b.Default); err != nil {
			return err
		}
	}
	if b.Notification != nil {
		return r.Notifications.Create(ctx, b.Notification)
	}
	return nil
}
