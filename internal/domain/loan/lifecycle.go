package loan

import (
	"fmt"
	"time"

	"microloan-backend/internal/domain/errs"

	"github.com/shopspring/decimal"
)

var transitions = map[Status][]Status{
	StatusRequested: {StatusActive},
	StatusActive:    {StatusRepaid, StatusCompleted, StatusDefaulted},
	StatusRepaid:    {StatusCompleted},
	StatusDefaulted: {StatusResolved},
}

func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func (l *Loan) transition(to Status) error {
	if !CanTransition(l.Status, to) {
		return fmt.Errorf("%w: %s -> %s", errs.ErrInvalidTransition, l.Status, to)
	}
	l.Status = to
	return nil
}

// reconcile derives the status from the two "fully paid" facts: every
// installment paid wins over the lender's repaid mark.
func (l *Loan) reconcile() {
	switch l.Status {
	case StatusActive, StatusRepaid:
		if l.AllInstallmentsPaid() {
			l.Status = StatusCompleted
		} else if l.LenderMarkedRepaid {
			l.Status = StatusRepaid
		}
	}
}

// NewRequest builds a loan in the requested state.
func NewRequest(loanID, borrowerID, borrowerName string, terms Terms, purpose string, now time.Time) (*Loan, error) {
	if err := terms.Validate(); err != nil {
		return nil, err
	}
	if borrowerID == "" {
		return nil, errs.Invalid("borrower_id", "is required")
	}
	return &Loan{
		LoanID:       loanID,
		BorrowerID:   borrowerID,
		BorrowerName: borrowerName,
		Amount:       terms.Amount,
		DurationDays: terms.DurationDays,
		DailyRate:    terms.DailyRate,
		Purpose:      purpose,
		Status:       StatusRequested,
		LateFees:     decimal.Zero,
		CreatedAt:    now,
	}, nil
}

// Activate attaches the lender and starts the repayment clock.
func (l *Loan) Activate(lenderID, lenderName string, now time.Time) error {
	if lenderID == "" {
		return errs.Invalid("lender_id", "is required")
	}
	if lenderID == l.BorrowerID {
		return errs.Invalid("lender_id", "must differ from borrower")
	}
	if err := l.transition(StatusActive); err != nil {
		return err
	}
	start := now.UTC().Truncate(time.Millisecond)
	end := start.AddDate(0, 0, l.DurationDays)
	l.LenderID = &lenderID
	l.LenderName = &lenderName
	l.ApprovedAt = &start
	l.StartDate = &start
	l.EndDate = &end
	return nil
}

// PayInstallment records the payment of day. Repayment is sequential: only
// the next unpaid day is payable.
func (l *Loan) PayInstallment(day int) error {
	if l.Status != StatusActive && l.Status != StatusRepaid {
		return fmt.Errorf("%w: cannot pay installment on %s loan", errs.ErrInvalidTransition, l.Status)
	}
	if day < 1 || day > l.DurationDays {
		return errs.Invalid("day", fmt.Sprintf("must be in [1, %d]", l.DurationDays))
	}
	if l.PaidDays.Contains(day) {
		return errs.ErrAlreadyPaid
	}
	for d := 1; d < day; d++ {
		if !l.PaidDays.Contains(d) {
			return fmt.Errorf("%w: day %d is due before day %d", errs.ErrInvalidTransition, d, day)
		}
	}
	l.PaidDays = l.PaidDays.With(day)
	l.reconcile()
	return nil
}

// MarkRepaid records the lender's statement that the loan was repaid.
func (l *Loan) MarkRepaid() error {
	if l.Status != StatusActive {
		return fmt.Errorf("%w: cannot mark %s loan repaid", errs.ErrInvalidTransition, l.Status)
	}
	l.LenderMarkedRepaid = true
	l.reconcile()
	return nil
}

type Action int

const (
	ActionNone Action = iota
	ActionLateFee
	ActionDefault
)

func (a Action) String() string {
	switch a {
	case ActionLateFee:
		return "late_fee"
	case ActionDefault:
		return "default"
	}
	return "none"
}

// Assessment is the penalty decision for one loan at one instant.
type Assessment struct {
	Action Action
	Penalty
}

// PenalizedOn reports whether a penalty action was already applied on the
// calendar date of now.
func (l *Loan) PenalizedOn(now time.Time) bool {
	return l.LastPenaltyApplied != nil && DateOf(*l.LastPenaltyApplied).Equal(DateOf(now))
}

// Assess decides the penalty action for an active loan.
func Assess(l *Loan, now time.Time) (Assessment, error) {
	if l.Status != StatusActive {
		return Assessment{Action: ActionNone}, nil
	}
	p, err := ComputePenalty(l, now)
	if err != nil {
		return Assessment{}, err
	}
	a := Assessment{Action: ActionNone, Penalty: p}
	// The per-day key limits late fees only. Defaulting leaves active, so it
	// cannot repeat.
	switch {
	case p.DaysOverdue == 0:
	case p.DaysOverdue >= DefaultThresholdDays:
		a.Action = ActionDefault
	case !l.PenalizedOn(now):
		a.Action = ActionLateFee
	}
	return a, nil
}

func (l *Loan) ApplyLateFee(a Assessment, now time.Time) error {
	if l.Status != StatusActive || a.Action != ActionLateFee {
		return fmt.Errorf("%w: late fee on %s loan", errs.ErrInvalidTransition, l.Status)
	}
	if l.PenalizedOn(now) {
		return fmt.Errorf("%w: already penalized on %s", errs.ErrInvalidTransition, DateOf(now).Format(time.DateOnly))
	}
	l.LateFees = l.LateFees.Add(a.LateFee)
	l.DaysOverdue = a.DaysOverdue
	l.LastPenaltyApplied = &now
	return nil
}

func (l *Loan) MarkDefaulted(a Assessment, now time.Time) error {
	if a.Action != ActionDefault {
		return fmt.Errorf("%w: %d days overdue is below the default threshold", errs.ErrInvalidTransition, a.DaysOverdue)
	}
	if err := l.transition(StatusDefaulted); err != nil {
		return err
	}
	l.DaysOverdue = a.DaysOverdue
	l.DefaultedAt = &now
	l.TotalPenalty = decimal.NewNullDecimal(a.Total)
	l.LastPenaltyApplied = &now
	return nil
}

func (l *Loan) Resolve(rt ResolutionType, notes string, now time.Time) error {
	if !CanTransition(l.Status, StatusResolved) {
		return fmt.Errorf("%w: only defaulted loans can be resolved, loan is %s", errs.ErrInvalidTransition, l.Status)
	}
	if !rt.Valid() {
		return errs.Invalid("resolution_type", "must be recovered or written_off")
	}
	l.Status = StatusResolved
	l.ResolvedAt = &now
	l.ResolutionType = &rt
	l.ResolutionNotes = notes
	return nil
}
