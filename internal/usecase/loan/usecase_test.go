package loan

import (
	"context"
	"errors"
	"testing"
	"time"

	"microloan-backend/internal/domain/errs"
	"microloan-backend/internal/domain/ledger"
	domain "microloan-backend/internal/domain/loan"
	"microloan-backend/internal/domain/query"
	"microloan-backend/internal/domain/uow"
	"microloan-backend/internal/domain/user"
	"microloan-backend/internal/testutil/loanmock"
	"microloan-backend/internal/testutil/repomock"
	"microloan-backend/internal/testutil/uowmock"

	"github.com/shopspring/decimal"
)

const (
	borrowerID = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	lenderID   = "cccccccccccccccccccccccccccccccc"
)

var t0 = time.Date(2025, 9, 1, 9, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// fixture keeps loans in a map behind the function-backed mocks.
type fixture struct {
	loans map[string]*domain.Loan
	repo  *loanmock.Repo
	txns  *repomock.Ledger
	users *repomock.Users
	uc    *Usecase
}

func newFixture(now time.Time) *fixture {
	f := &fixture{
		loans: map[string]*domain.Loan{},
		txns:  &repomock.Ledger{},
		users: &repomock.Users{ByID: map[string]*user.User{
			borrowerID: {UserID: borrowerID, Name: "Asha", Role: user.RoleBorrower},
			lenderID:   {UserID: lenderID, Name: "Ravi", Role: user.RoleLender},
		}},
	}
	get := func(_ context.Context, loanID string) (*domain.Loan, error) {
		if l, ok := f.loans[loanID]; ok {
			cp := *l
			return &cp, nil
		}
		return nil, errs.ErrNotFound
	}
	put := func(_ context.Context, l *domain.Loan) error {
		cp := *l
		f.loans[l.LoanID] = &cp
		return nil
	}
	f.repo = &loanmock.Repo{
		CreateFn:               put,
		SaveFn:                 put,
		GetByLoanIDFn:          get,
		GetByLoanIDForUpdateFn: get,
	}
	repos := uow.Repos{Loans: f.repo, Transactions: f.txns, Users: f.users}
	f.uc = NewUsecase(uowmock.Passthrough(repos), repos, domain.FixedClock(now), Limits{
		MaxAmount:        dec("20000"),
		DefaultDailyRate: dec("0.001"),
	})
	return f
}

func (f *fixture) request(t *testing.T, amount string, days int) *domain.Loan {
	t.Helper()
	l, err := f.uc.Request(context.Background(), RequestInput{
		BorrowerID: borrowerID, Amount: dec(amount), DurationDays: days, Purpose: "inventory",
	})
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	return l
}

func TestRequest_DefaultsRateAndWritesLedger(t *testing.T) {
	f := newFixture(t0)
	l := f.request(t, "5000", 10)

	if l.Status != domain.StatusRequested || !l.DailyRate.Equal(dec("0.001")) {
		t.Fatalf("unexpected loan: %+v", l)
	}
	if l.BorrowerName != "Asha" {
		t.Fatalf("borrower name = %q", l.BorrowerName)
	}
	if len(l.LoanID) != 32 {
		t.Fatalf("loan id %q is not 32 chars", l.LoanID)
	}
	if len(f.txns.Created) != 1 {
		t.Fatalf("want 1 transaction, got %d", len(f.txns.Created))
	}
	txn := f.txns.Created[0]
	if txn.Type != ledger.TypeRequest || !txn.Amount.Equal(dec("5000")) || *txn.LoanID != l.LoanID || txn.UserID != borrowerID {
		t.Fatalf("unexpected transaction: %+v", txn)
	}
}

func TestRequest_Validation(t *testing.T) {
	f := newFixture(t0)
	rate := dec("1.5")
	cases := []struct {
		name  string
		in    RequestInput
		field string
	}{
		{"over max", RequestInput{BorrowerID: borrowerID, Amount: dec("20000.01"), DurationDays: 10}, "amount"},
		{"zero amount", RequestInput{BorrowerID: borrowerID, Amount: decimal.Zero, DurationDays: 10}, "amount"},
		{"zero duration", RequestInput{BorrowerID: borrowerID, Amount: dec("100"), DurationDays: 0}, "duration_days"},
		{"rate too high", RequestInput{BorrowerID: borrowerID, Amount: dec("100"), DurationDays: 5, DailyRate: &rate}, "daily_rate"},
		{"bad borrower", RequestInput{BorrowerID: "nope", Amount: dec("100"), DurationDays: 5}, "borrower_id"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.uc.Request(context.Background(), tc.in)
			var ve *errs.ValidationError
			if !errors.As(err, &ve) || ve.Field != tc.field {
				t.Fatalf("want validation error on %s, got %v", tc.field, err)
			}
		})
	}
	if len(f.loans) != 0 || len(f.txns.Created) != 0 {
		t.Fatalf("rejected requests must not write")
	}
}

func TestRequest_UnknownProfileGetsEmptyName(t *testing.T) {
	f := newFixture(t0)
	delete(f.users.ByID, borrowerID)
	l := f.request(t, "100", 5)
	if l.BorrowerName != "" {
		t.Fatalf("want empty name, got %q", l.BorrowerName)
	}
}

func TestRequest_ProfileStoreDown(t *testing.T) {
	f := newFixture(t0)
	f.users.Err = errs.Unavailable("get user", errors.New("timeout"))
	_, err := f.uc.Request(context.Background(), RequestInput{BorrowerID: borrowerID, Amount: dec("100"), DurationDays: 5})
	if !errors.Is(err, errs.ErrStorageUnavailable) {
		t.Fatalf("want ErrStorageUnavailable, got %v", err)
	}
}

func TestActivate(t *testing.T) {
	f := newFixture(t0)
	l := f.request(t, "5000", 10)

	got, err := f.uc.Activate(context.Background(), l.LoanID, lenderID)
	if err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if got.Status != domain.StatusActive || *got.LenderName != "Ravi" {
		t.Fatalf("unexpected loan: %+v", got)
	}
	if !got.StartDate.Equal(t0) || !got.EndDate.Equal(t0.AddDate(0, 0, 10)) {
		t.Fatalf("start=%v end=%v", got.StartDate, got.EndDate)
	}
	if stored := f.loans[l.LoanID]; stored.Status != domain.StatusActive {
		t.Fatalf("activation not saved")
	}
	last := f.txns.Created[len(f.txns.Created)-1]
	if last.Type != ledger.TypeActivate || last.UserID != lenderID || !last.Amount.Equal(dec("5000")) {
		t.Fatalf("unexpected activate transaction: %+v", last)
	}

	// second activation is illegal
	if _, err := f.uc.Activate(context.Background(), l.LoanID, lenderID); !errors.Is(err, errs.ErrInvalidTransition) {
		t.Fatalf("want ErrInvalidTransition, got %v", err)
	}
}

func TestActivate_SelfFundingRejected(t *testing.T) {
	f := newFixture(t0)
	l := f.request(t, "5000", 10)
	if _, err := f.uc.Activate(context.Background(), l.LoanID, borrowerID); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want validation error, got %v", err)
	}
	if f.loans[l.LoanID].Status != domain.StatusRequested {
		t.Fatal("loan must stay requested")
	}
}

func TestActivate_NotFound(t *testing.T) {
	f := newFixture(t0)
	if _, err := f.uc.Activate(context.Background(), "ffffffffffffffffffffffffffffffff", lenderID); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestPayInstallment_SequentialToCompletion(t *testing.T) {
	f := newFixture(t0)
	l := f.request(t, "10000", 3)
	if _, err := f.uc.Activate(context.Background(), l.LoanID, lenderID); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if _, err := f.uc.PayInstallment(ctx, l.LoanID, 2, borrowerID); !errors.Is(err, errs.ErrInvalidTransition) {
		t.Fatalf("paying day 2 before day 1: want ErrInvalidTransition, got %v", err)
	}

	res, err := f.uc.PayInstallment(ctx, l.LoanID, 1, borrowerID)
	if err != nil {
		t.Fatalf("pay day 1: %v", err)
	}
	if res.Transaction.Type != ledger.TypePayment || !res.Transaction.Amount.Equal(dec("10010")) {
		t.Fatalf("day 1 payment = %+v", res.Transaction)
	}
	if _, err := f.uc.PayInstallment(ctx, l.LoanID, 1, borrowerID); !errors.Is(err, errs.ErrAlreadyPaid) {
		t.Fatalf("repaying day 1: want ErrAlreadyPaid, got %v", err)
	}

	if _, err := f.uc.PayInstallment(ctx, l.LoanID, 2, borrowerID); err != nil {
		t.Fatal(err)
	}
	res, err = f.uc.PayInstallment(ctx, l.LoanID, 3, borrowerID)
	if err != nil {
		t.Fatal(err)
	}
	// 10000 * 1.001^3 = 10030.03001
	if !res.Transaction.Amount.Equal(dec("10030.03")) {
		t.Fatalf("day 3 amount = %s", res.Transaction.Amount)
	}
	if res.Loan.Status != domain.StatusCompleted {
		t.Fatalf("status = %s, want completed", res.Loan.Status)
	}
}

func TestPayInstallment_OnlyBorrower(t *testing.T) {
	f := newFixture(t0)
	l := f.request(t, "1000", 3)
	if _, err := f.uc.Activate(context.Background(), l.LoanID, lenderID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.uc.PayInstallment(context.Background(), l.LoanID, 1, lenderID); !errors.Is(err, errs.ErrForbidden) {
		t.Fatalf("want ErrForbidden, got %v", err)
	}
}

func TestMarkRepaid(t *testing.T) {
	f := newFixture(t0)
	l := f.request(t, "1000", 3)
	ctx := context.Background()
	if _, err := f.uc.MarkRepaid(ctx, l.LoanID, lenderID); !errors.Is(err, errs.ErrForbidden) {
		t.Fatalf("unfunded loan: want ErrForbidden, got %v", err)
	}
	if _, err := f.uc.Activate(ctx, l.LoanID, lenderID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.uc.MarkRepaid(ctx, l.LoanID, borrowerID); !errors.Is(err, errs.ErrForbidden) {
		t.Fatalf("borrower: want ErrForbidden, got %v", err)
	}

	got, err := f.uc.MarkRepaid(ctx, l.LoanID, lenderID)
	if err != nil {
		t.Fatalf("MarkRepaid: %v", err)
	}
	if got.Status != domain.StatusRepaid || !got.LenderMarkedRepaid {
		t.Fatalf("unexpected loan: %+v", got)
	}

	// installments still reconcile a repaid loan to completed
	for day := 1; day <= 3; day++ {
		if _, err := f.uc.PayInstallment(ctx, l.LoanID, day, borrowerID); err != nil {
			t.Fatalf("pay %d: %v", day, err)
		}
	}
	if f.loans[l.LoanID].Status != domain.StatusCompleted {
		t.Fatalf("status = %s, want completed", f.loans[l.LoanID].Status)
	}
}

func TestSchedule(t *testing.T) {
	f := newFixture(t0.AddDate(0, 0, 2))
	l := f.request(t, "10000", 5)
	ctx := context.Background()

	if _, err := f.uc.Schedule(ctx, l.LoanID); !errors.Is(err, errs.ErrInvalidLoanState) {
		t.Fatalf("unstarted loan: want ErrInvalidLoanState, got %v", err)
	}
	if _, err := f.uc.Activate(ctx, l.LoanID, lenderID); err != nil {
		t.Fatal(err)
	}
	v, err := f.uc.Schedule(ctx, l.LoanID)
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if len(v.Installments) != 5 || v.Next == nil || v.Next.Day != 1 {
		t.Fatalf("unexpected view: %+v", v)
	}
}

func TestListByBorrower_FallsBackOnMissingIndex(t *testing.T) {
	f := newFixture(t0)
	older := &domain.Loan{LoanID: "a", CreatedAt: t0}
	newer := &domain.Loan{LoanID: "b", CreatedAt: t0.Add(time.Hour)}
	var calls []bool
	f.repo.ListByBorrowerFn = func(_ context.Context, _ string, ordered bool) ([]*domain.Loan, error) {
		calls = append(calls, ordered)
		if ordered {
			return nil, query.ErrMissingIndex
		}
		return []*domain.Loan{older, newer}, nil
	}

	got, err := f.uc.ListByBorrower(context.Background(), borrowerID)
	if err != nil {
		t.Fatalf("ListByBorrower: %v", err)
	}
	if len(calls) != 2 || !calls[0] || calls[1] {
		t.Fatalf("calls = %v, want ordered then unordered", calls)
	}
	if got[0] != newer || got[1] != older {
		t.Fatalf("not sorted newest first: %s, %s", got[0].LoanID, got[1].LoanID)
	}
}

func TestListByLender_OtherErrorsPropagate(t *testing.T) {
	f := newFixture(t0)
	boom := errs.Unavailable("list", errors.New("down"))
	calls := 0
	f.repo.ListByLenderFn = func(context.Context, string, bool) ([]*domain.Loan, error) {
		calls++
		return nil, boom
	}
	if _, err := f.uc.ListByLender(context.Background(), lenderID); !errors.Is(err, errs.ErrStorageUnavailable) || calls != 1 {
		t.Fatalf("want single failing call, got %v after %d calls", err, calls)
	}
}

func TestOpenRequests_NewestFirst(t *testing.T) {
	f := newFixture(t0)
	f.repo.ListByStatusFn = func(_ context.Context, s domain.Status) ([]*domain.Loan, error) {
		if s != domain.StatusRequested {
			t.Fatalf("status = %s", s)
		}
		return []*domain.Loan{{LoanID: "old", CreatedAt: t0}, {LoanID: "new", CreatedAt: t0.Add(time.Minute)}}, nil
	}
	got, err := f.uc.OpenRequests(context.Background())
	if err != nil || got[0].LoanID != "new" {
		t.Fatalf("OpenRequests = %v, %v", got, err)
	}
}

func TestTransactions_UnknownLoan(t *testing.T) {
	f := newFixture(t0)
	if _, err := f.uc.Transactions(context.Background(), "nope"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestVisible(t *testing.T) {
	f := newFixture(t0)
	open := f.request(t, "1000", 5)
	funded := f.request(t, "1000", 5)
	if _, err := f.uc.Activate(context.Background(), funded.LoanID, lenderID); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	const stranger = "eeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"

	tests := []struct {
		name   string
		loanID string
		viewer Viewer
		want   error
	}{
		{"borrower on own request", open.LoanID, Viewer{borrowerID, user.RoleBorrower}, nil},
		{"any lender on open request", open.LoanID, Viewer{stranger, user.RoleLender}, nil},
		{"other borrower on open request", open.LoanID, Viewer{stranger, user.RoleBorrower}, errs.ErrForbidden},
		{"funding lender", funded.LoanID, Viewer{lenderID, user.RoleLender}, nil},
		{"other lender on funded loan", funded.LoanID, Viewer{stranger, user.RoleLender}, errs.ErrForbidden},
		{"admin", funded.LoanID, Viewer{stranger, user.RoleAdmin}, nil},
		{"missing loan", "ffffffffffffffffffffffffffffffff", Viewer{borrowerID, user.RoleBorrower}, errs.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := f.uc.Visible(context.Background(), tt.loanID, tt.viewer)
			if tt.want == nil {
				if err != nil || l == nil || l.LoanID != tt.loanID {
					t.Fatalf("Visible: %v, %v", l, err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("want %v, got %v", tt.want, err)
			}
		})
	}
}
