package penalty

import (
	"context"
	"errors"
	"log"
	"slices"
	"sync"
	"time"

	"microloan-backend/internal/domain/errs"
	"microloan-backend/internal/domain/loan"
	"microloan-backend/internal/domain/uow"
	"microloan-backend/internal/infrastructure/metrics"
	"microloan-backend/pkg/id"

	"golang.org/x/sync/errgroup"
)

// Locker keeps sweeps from overlapping. cache.SweepLock implements it.
type Locker interface {
	Acquire(ctx context.Context) (release func(), err error)
}

type Orchestrator struct {
	uow     uow.UnitOfWork
	repos   uow.Repos
	clock   loan.Clock
	locker  Locker
	workers int
	newID   func() string
}

type Option func(*Orchestrator)

func WithLocker(l Locker) Option { return func(o *Orchestrator) { o.locker = l } }

func WithWorkers(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.workers = n
		}
	}
}

func NewOrchestrator(u uow.UnitOfWork, repos uow.Repos, clock loan.Clock, opts ...Option) *Orchestrator {
	o := &Orchestrator{uow: u, repos: repos, clock: clock, workers: 1, newID: id.NewID32}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

type SweepResult struct {
	// Flagged counts loans newly penalized or defaulted by this sweep.
	Flagged  int      `json:"flagged"`
	LateFees int      `json:"late_fees"`
	Defaults int      `json:"defaults"`
	Skipped  int      `json:"skipped"`
	Failed   []string `json:"failed"`
}

// SweepOverdueLoans runs one pass over all active loans. It is idempotent per
// calendar day. When some loans fail the result is still returned, together
// with a *PartialSweepError naming them.
func (o *Orchestrator) SweepOverdueLoans(ctx context.Context, now time.Time) (*SweepResult, error) {
	if o.locker != nil {
		release, err := o.locker.Acquire(ctx)
		if err != nil {
			outcome := "error"
			if errors.Is(err, errs.ErrSweepInProgress) {
				outcome = "skipped"
			}
			metrics.SweepsTotal.WithLabelValues(outcome).Inc()
			return nil, err
		}
		defer release()
	}

	started := time.Now()
	defer func() { metrics.SweepDuration.Observe(time.Since(started).Seconds()) }()

	active, err := o.repos.Loans.ListRefsByStatus(ctx, loan.StatusActive)
	if err != nil {
		metrics.SweepsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	res := &SweepResult{Failed: []string{}}
	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(o.workers)
	for _, ref := range active {
		if ref.StartDate == nil {
			// cannot be overdue without having started
			res.Skipped++
			continue
		}
		loanID := ref.LoanID
		g.Go(func() error {
			action, err := o.sweepOne(ctx, loanID, now)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Printf("penalty sweep: loan %s: %v", loanID, err)
				metrics.SweepFailures.Inc()
				res.Failed = append(res.Failed, loanID)
				return nil
			}
			switch action {
			case loan.ActionLateFee:
				res.LateFees++
				metrics.LateFeesApplied.Inc()
			case loan.ActionDefault:
				res.Defaults++
				metrics.LoansDefaulted.Inc()
			}
			return nil
		})
	}
	_ = g.Wait()
	res.Flagged = res.LateFees + res.Defaults

	log.Printf("penalty sweep: %d active, %d late fees, %d defaults, %d skipped, %d failed",
		len(active), res.LateFees, res.Defaults, res.Skipped, len(res.Failed))
	if len(res.Failed) > 0 {
		slices.Sort(res.Failed)
		metrics.SweepsTotal.WithLabelValues("partial").Inc()
		return res, &PartialSweepError{LoanIDs: res.Failed}
	}
	metrics.SweepsTotal.WithLabelValues("ok").Inc()
	return res, nil
}

// sweepOne plans against the locked row, so a payment or another sweep that
// committed first is seen before anything is written. A malformed row fails
// here, on its own.
func (o *Orchestrator) sweepOne(ctx context.Context, loanID string, now time.Time) (loan.Action, error) {
	action := loan.ActionNone
	err := o.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *loan.Loan) error {
		b, err := Plan(l, now, o.newID)
		if err != nil {
			return err
		}
		if err := Apply(ctx, r, b); err != nil {
			return err
		}
		action = b.Action
		return nil
	})
	return action, err
}

// Sweep runs SweepOverdueLoans at the orchestrator's clock.
func (o *Orchestrator) Sweep(ctx context.Context) (*SweepResult, error) {
	return o.SweepOverdueLoans(ctx, o.clock.Now())
}
