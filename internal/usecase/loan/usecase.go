package loan

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"microloan-backend/internal/domain/errs"
	"microloan-backend/internal/domain/ledger"
	"microloan-backend/internal/domain/loan"
	"microloan-backend/internal/domain/notification"
	"microloan-backend/internal/domain/query"
	"microloan-backend/internal/domain/uow"
	"microloan-backend/internal/domain/user"
	"microloan-backend/internal/infrastructure/metrics"
	"microloan-backend/pkg/id"
)

type Usecase struct {
	uow    uow.UnitOfWork
	repos  uow.Repos // reads outside a tx
	clock  loan.Clock
	limits Limits
	newID  func() string
}

func NewUsecase(u uow.UnitOfWork, repos uow.Repos, clock loan.Clock, limits Limits) *Usecase {
	return &Usecase{uow: u, repos: repos, clock: clock, limits: limits, newID: id.NewID32}
}

func (u *Usecase) Request(ctx context.Context, in RequestInput) (*loan.Loan, error) {
	if !id.Valid(in.BorrowerID) {
		return nil, errs.Invalid("borrower_id", "must be 32 hex chars")
	}
	terms := loan.Terms{Amount: in.Amount, DurationDays: in.DurationDays, DailyRate: u.limits.DefaultDailyRate}
	if in.DailyRate != nil {
		terms.DailyRate = *in.DailyRate
	}
	if u.limits.MaxAmount.IsPositive() && terms.Amount.GreaterThan(u.limits.MaxAmount) {
		return nil, errs.Invalid("amount", "must not exceed "+u.limits.MaxAmount.String())
	}

	name, err := u.displayName(ctx, u.repos, in.BorrowerID)
	if err != nil {
		return nil, err
	}
	l, err := loan.NewRequest(u.newID(), in.BorrowerID, name, terms, in.Purpose, u.clock.Now())
	if err != nil {
		return nil, err
	}

	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		if err := r.Loans.Create(ctx, l); err != nil {
			return err
		}
		return r.Transactions.Create(ctx, ledger.New(u.newID(), l.BorrowerID, l.LoanID,
			ledger.TypeRequest, l.Amount, "Loan requested"))
	})
	if err != nil {
		return nil, err
	}
	metrics.LoanEvents.WithLabelValues("requested").Inc()
	return l, nil
}

// Activate funds a requested loan and starts its repayment clock.
func (u *Usecase) Activate(ctx context.Context, loanID, lenderID string) (*loan.Loan, error) {
	if !id.Valid(lenderID) {
		return nil, errs.Invalid("lender_id", "must be 32 hex chars")
	}
	var out *loan.Loan
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *loan.Loan) error {
		name, err := u.displayName(ctx, r, lenderID)
		if err != nil {
			return err
		}
		if err := l.Activate(lenderID, name, u.clock.Now()); err != nil {
			return err
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		out = l
		return r.Transactions.Create(ctx, ledger.New(u.newID(), lenderID, l.LoanID,
			ledger.TypeActivate, l.Amount, "Loan funded"))
	})
	if err != nil {
		return nil, err
	}
	metrics.LoanEvents.WithLabelValues("activated").Inc()
	return out, nil
}

// PayInstallment records a captured payment for day. Only the borrower pays.
func (u *Usecase) PayInstallment(ctx context.Context, loanID string, day int, actorID string) (*PaymentResult, error) {
	var res PaymentResult
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *loan.Loan) error {
		if actorID != l.BorrowerID {
			return fmt.Errorf("%w: only the borrower pays installments", errs.ErrForbidden)
		}
		if err := l.PayInstallment(day); err != nil {
			return err
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		txn := ledger.New(u.newID(), actorID, l.LoanID, ledger.TypePayment,
			loan.CompoundAmountAtDay(l, day).Round(2), fmt.Sprintf("Installment for day %d", day))
		if err := r.Transactions.Create(ctx, txn); err != nil {
			return err
		}
		res = PaymentResult{Loan: l, Transaction: txn}
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.LoanEvents.WithLabelValues("installment_paid").Inc()
	return &res, nil
}

// MarkRepaid is the lender's statement that the loan was settled.
func (u *Usecase) MarkRepaid(ctx context.Context, loanID, actorID string) (*loan.Loan, error) {
	var out *loan.Loan
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *loan.Loan) error {
		if l.LenderID == nil || *l.LenderID != actorID {
			return fmt.Errorf("%w: only the lender marks a loan repaid", errs.ErrForbidden)
		}
		if err := l.MarkRepaid(); err != nil {
			return err
		}
		out = l
		return r.Loans.Save(ctx, l)
	})
	if err != nil {
		return nil, err
	}
	metrics.LoanEvents.WithLabelValues("repaid").Inc()
	return out, nil
}

func (u *Usecase) Get(ctx context.Context, loanID string) (*loan.Loan, error) {
	return u.repos.Loans.GetByLoanID(ctx, loanID)
}

// Viewer is the caller reading a single loan.
type Viewer struct {
	UserID string
	Role   user.Role
}

// Visible loads a loan and fails with errs.ErrForbidden unless v is an admin,
// a party to it, or a lender looking at an unfunded request.
func (u *Usecase) Visible(ctx context.Context, loanID string, v Viewer) (*loan.Loan, error) {
	l, err := u.repos.Loans.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if !canView(l, v) {
		return nil, fmt.Errorf("%w: loan %s is not visible to %s", errs.ErrForbidden, loanID, v.UserID)
	}
	return l, nil
}

func canView(l *loan.Loan, v Viewer) bool {
	switch {
	case v.Role == user.RoleAdmin, l.BorrowerID == v.UserID:
		return true
	case l.LenderID != nil:
		return *l.LenderID == v.UserID
	}
	// open requests are listed to every lender
	return v.Role == user.RoleLender && l.Status == loan.StatusRequested
}

func (u *Usecase) Schedule(ctx context.Context, loanID string) (*loan.ScheduleView, error) {
	l, err := u.repos.Loans.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	return loan.ViewSchedule(l, u.clock.Now())
}

func loanCreated(l *loan.Loan) time.Time { return l.CreatedAt }

func (u *Usecase) ListByBorrower(ctx context.Context, borrowerID string) ([]*loan.Loan, error) {
	return query.NewestFirst(ctx, func(ctx context.Context, ordered bool) ([]*loan.Loan, error) {
		return u.repos.Loans.ListByBorrower(ctx, borrowerID, ordered)
	}, loanCreated)
}

func (u *Usecase) ListByLender(ctx context.Context, lenderID string) ([]*loan.Loan, error) {
	return query.NewestFirst(ctx, func(ctx context.Context, ordered bool) ([]*loan.Loan, error) {
		return u.repos.Loans.ListByLender(ctx, lenderID, ordered)
	}, loanCreated)
}

// OpenRequests lists loans waiting for a lender, newest first.
func (u *Usecase) OpenRequests(ctx context.Context) ([]*loan.Loan, error) {
	out, err := u.repos.Loans.ListByStatus(ctx, loan.StatusRequested)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(out, func(a, b *loan.Loan) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

func (u *Usecase) Transactions(ctx context.Context, loanID string) ([]*ledger.Transaction, error) {
	if _, err := u.repos.Loans.GetByLoanID(ctx, loanID); err != nil {
		return nil, err
	}
	return query.NewestFirst(ctx, func(ctx context.Context, ordered bool) ([]*ledger.Transaction, error) {
		return u.repos.Transactions.ListByLoan(ctx, loanID, ordered)
	}, func(t *ledger.Transaction) time.Time { return t.Timestamp })
}

func (u *Usecase) Notifications(ctx context.Context, userID string) ([]*notification.Notification, error) {
	return query.NewestFirst(ctx, func(ctx context.Context, ordered bool) ([]*notification.Notification, error) {
		return u.repos.Notifications.ListByUser(ctx, userID, ordered)
	}, func(n *notification.Notification) time.Time { return n.CreatedAt })
}

// displayName resolves the denormalized party name. Profiles live with the
// identity provider and may lag behind, so an unknown user gets an empty name.
func (u *Usecase) displayName(ctx context.Context, r uow.Repos, userID string) (string, error) {
	p, err := r.Users.GetByUserID(ctx, userID)
	switch {
	case err == nil:
		return p.Name, nil
	case errors.Is(err, errs.ErrNotFound):
		return "", nil
	}
	return "", err
}
