package loan

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Status string

const (
	StatusRequested Status = "requested"
	StatusActive    Status = "active"
	StatusRepaid    Status = "repaid"
	StatusCompleted Status = "completed"
	StatusDefaulted Status = "defaulted"
	StatusResolved  Status = "resolved"
)

func (s Status) Valid() bool {
	switch s {
	case StatusRequested, StatusActive, StatusRepaid, StatusCompleted, StatusDefaulted, StatusResolved:
		return true
	}
	return false
}

// Funded reports whether a lender is attached in this status.
func (s Status) Funded() bool { return s.Valid() && s != StatusRequested }

func (s Status) Terminal() bool { return s == StatusCompleted || s == StatusResolved }

type ResolutionType string

const (
	ResolutionRecovered  ResolutionType = "recovered"
	ResolutionWrittenOff ResolutionType = "written_off"
)

func (r ResolutionType) Valid() bool { return r == ResolutionRecovered || r == ResolutionWrittenOff }

// PaidDays is the set of installment days already paid, kept sorted.
type PaidDays []int

func (p PaidDays) Contains(day int) bool {
	_, ok := slices.BinarySearch(p, day)
	return ok
}

func (p PaidDays) With(day int) PaidDays {
	if p.Contains(day) {
		return p
	}
	out := append(slices.Clone(p), day)
	slices.Sort(out)
	return out
}

// Table: loans
type Loan struct {
	ID           uint64          `gorm:"primaryKey;column:id" json:"-"`
	LoanID       string          `gorm:"size:32;uniqueIndex:ux_loans_loan_id" json:"loan_id"`
	BorrowerID   string          `gorm:"size:32;index:idx_loans_borrower_created,priority:1" json:"borrower_id"`
	BorrowerName string          `gorm:"size:128" json:"borrower_name"`
	LenderID     *string         `gorm:"size:32;index:idx_loans_lender_created,priority:1" json:"lender_id,omitempty"`
	LenderName   *string         `gorm:"size:128" json:"lender_name,omitempty"`
	Amount       decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	DurationDays int             `gorm:"not null" json:"duration_days"`
	DailyRate    decimal.Decimal `gorm:"type:decimal(10,6);not null" json:"daily_rate"`
	Purpose      string          `gorm:"type:text" json:"purpose"`
	Status       Status          `gorm:"size:16;not null;index:idx_loans_status" json:"status"`

	PaidDays           PaidDays `gorm:"type:text;serializer:json" json:"paid_days"`
	LenderMarkedRepaid bool     `json:"lender_marked_repaid"`

	LateFees           decimal.Decimal     `gorm:"type:decimal(18,2);not null" json:"late_fees"`
	DaysOverdue        int                 `gorm:"not null" json:"days_overdue"`
	TotalPenalty       decimal.NullDecimal `gorm:"type:decimal(18,2)" json:"total_penalty"`
	LastPenaltyApplied *time.Time          `json:"last_penalty_applied,omitempty"`

	ResolutionType  *ResolutionType `gorm:"size:16" json:"resolution_type,omitempty"`
	ResolutionNotes string          `gorm:"type:text" json:"resolution_notes,omitempty"`

	CreatedAt   time.Time  `gorm:"autoCreateTime;index:idx_loans_borrower_created,priority:2;index:idx_loans_lender_created,priority:2" json:"created_at"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	DefaultedAt *time.Time `json:"defaulted_at,omitempty"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Loan) TableName() string { return "loans" }

func (l *Loan) Terms() Terms {
	return Terms{Amount: l.Amount, DurationDays: l.DurationDays, DailyRate: l.DailyRate}
}

func (l *Loan) AllInstallmentsPaid() bool {
	return l.DurationDays > 0 && len(l.PaidDays) >= l.DurationDays
}

// BeforeSave rejects writes that would break the loan invariants.
func (l *Loan) BeforeSave(*gorm.DB) error { return l.Validate() }

// AfterFind rejects malformed rows at the storage boundary.
func (l *Loan) AfterFind(*gorm.DB) error {
	slices.Sort(l.PaidDays)
	return l.Validate()
}
