// Package repomock holds recording mocks for the ledger, delinquency,
// notification and user ports.
package repomock

import (
	"context"
	"fmt"
	"sync"

	"microloan-backend/internal/domain/delinquency"
	"microloan-backend/internal/domain/errs"
	"microloan-backend/internal/domain/ledger"
	"microloan-backend/internal/domain/notification"
	"microloan-backend/internal/domain/user"
)

var errNotFound = fmt.Errorf("repomock: %w", errs.ErrNotFound)

var (
	_ ledger.Repository       = (*Ledger)(nil)
	_ delinquency.Repository  = (*Defaults)(nil)
	_ notification.Repository = (*Notifications)(nil)
	_ user.Repository         = (*Users)(nil)
)

// Ledger records every created transaction unless CreateFn says otherwise.
type Ledger struct {
	mu           sync.Mutex
	Created      []*ledger.Transaction
	CreateFn     func(ctx context.Context, t *ledger.Transaction) error
	ListByLoanFn func(ctx context.Context, loanID string, ordered bool) ([]*ledger.Transaction, error)
}

func (m *Ledger) Create(ctx context.Context, t *ledger.Transaction) error {
	if m.CreateFn != nil {
		if err := m.CreateFn(ctx, t); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Created = append(m.Created, t)
	return nil
}

func (m *Ledger) ListByLoan(ctx context.Context, loanID string, ordered bool) ([]*ledger.Transaction, error) {
	if m.ListByLoanFn != nil {
		return m.ListByLoanFn(ctx, loanID, ordered)
	}
	return nil, context.Canceled
}

type Defaults struct {
	mu             sync.Mutex
	Created        []*delinquency.Record
	Saved          []*delinquency.Record
	CreateFn       func(ctx context.Context, r *delinquency.Record) error
	ListByLoanIDFn func(ctx context.Context, loanID string) ([]*delinquency.Record, error)
	ListFn         func(ctx context.Context, ordered bool) ([]*delinquency.Record, error)
}

func (m *Defaults) Create(ctx context.Context, r *delinquency.Record) error {
	if m.CreateFn != nil {
		if err := m.CreateFn(ctx, r); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Created = append(m.Created, r)
	return nil
}

func (m *Defaults) Save(_ context.Context, r *delinquency.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Saved = append(m.Saved, r)
	return nil
}

func (m *Defaults) ListByLoanID(ctx context.Context, loanID string) ([]*delinquency.Record, error) {
	if m.ListByLoanIDFn != nil {
		return m.ListByLoanIDFn(ctx, loanID)
	}
	return nil, nil
}

func (m *Defaults) List(ctx context.Context, ordered bool) ([]*delinquency.Record, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, ordered)
	}
	return nil, context.Canceled
}

type Notifications struct {
	mu           sync.Mutex
	Created      []*notification.Notification
	CreateFn     func(ctx context.Context, n *notification.Notification) error
	ListByUserFn func(ctx context.Context, userID string, ordered bool) ([]*notification.Notification, error)
}

func (m *Notifications) Create(ctx context.Context, n *notification.Notification) error {
	if m.CreateFn != nil {
		if err := m.CreateFn(ctx, n); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Created = append(m.Created, n)
	return nil
}

func (m *Notifications) ListByUser(ctx context.Context, userID string, ordered bool) ([]*notification.Notification, error) {
	if m.ListByUserFn != nil {
		return m.ListByUserFn(ctx, userID, ordered)
	}
	return nil, context.Canceled
}

// Users serves profiles from a map keyed by user id.
type Users struct {
	ByID map[string]*user.User
	Err  error
}

func (m *Users) GetByUserID(_ context.Context, userID string) (*user.User, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if u, ok := m.ByID[userID]; ok {
		return u, nil
	}
	return nil, errNotFound
}
