package loan

import (
	"microloan-backend/internal/domain/ledger"
	"microloan-backend/internal/domain/loan"

	"github.com/shopspring/decimal"
)

// Limits is the request policy applied before a loan is created.
type Limits struct {
	MaxAmount        decimal.Decimal
	DefaultDailyRate decimal.Decimal
}

type RequestInput struct {
	BorrowerID   string
	Amount       decimal.Decimal
	DurationDays int
	// nil means Limits.DefaultDailyRate
	DailyRate *decimal.Decimal
	Purpose   string
}

type PaymentResult struct {
	Loan        *loan.Loan          `json:"loan"`
	Transaction *ledger.Transaction `json:"transaction"`
}

type BorrowerDashboard struct {
	ActiveLoans       int             `json:"active_loans"`
	TotalBorrowed     decimal.Decimal `json:"total_borrowed"`
	PendingRepayments decimal.Decimal `json:"pending_repayments"`
	Loans             []*loan.Loan    `json:"loans"`
}

type LenderDashboard struct {
	ActiveInvestments int             `json:"active_investments"`
	TotalLent         decimal.Decimal `json:"total_lent"`
	TotalEarnings     decimal.Decimal `json:"total_earnings"`
	Loans             []*loan.Loan    `json:"loans"`
}

type AdminOverview struct {
	TotalLoans     int             `json:"total_loans"`
	ActiveLoans    int             `json:"active_loans"`
	DefaultedLoans int             `json:"defaulted_loans"`
	TotalVolume    decimal.Decimal `json:"total_volume"`
	Defaulted      []*loan.Loan    `json:"defaulted"`
}
