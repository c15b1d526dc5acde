package delinquency

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusResolved Status = "resolved"
)

// Table: defaults. One row per loan that ever defaulted.
type Record struct {
	ID              uint64          `gorm:"primaryKey;column:id" json:"-"`
	DefaultID       string          `gorm:"size:32;uniqueIndex:ux_defaults_default_id" json:"default_id"`
	LoanID          string          `gorm:"size:32;uniqueIndex:ux_defaults_loan_id" json:"loan_id"`
	DefaultedAt     time.Time       `gorm:"index" json:"defaulted_at"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"total_amount"`
	Status          Status          `gorm:"size:16;not null" json:"status"`
	ResolvedAt      *time.Time      `json:"resolved_at,omitempty"`
	ResolutionType  *string         `gorm:"size:16" json:"resolution_type,omitempty"`
	ResolutionNotes string          `gorm:"type:text" json:"resolution_notes,omitempty"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Record) TableName() string { return "defaults" }

// Resolution holds the fields mirrored from the loan on resolution.
type Resolution struct {
	ResolvedAt time.Time
	Type       string
	Notes      string
}

func (r *Record) Resolve(res Resolution) {
	r.Status = StatusResolved
	r.ResolvedAt = &res.ResolvedAt
	r.ResolutionType = &res.Type
	r.ResolutionNotes = res.Notes
}

type Statistics struct {
	TotalDefaults      int             `json:"total_defaults"`
	TotalDefaultAmount decimal.Decimal `json:"total_default_amount"`
	ResolvedDefaults   int             `json:"resolved_defaults"`
	ActiveDefaults     int             `json:"active_defaults"`
	DefaultRatePercent decimal.Decimal `json:"default_rate_percent"`
}

// Summarize aggregates default records against the total number of loans.
func Summarize(records []*Record, totalLoans int64) Statistics {
	s := Statistics{TotalDefaultAmount: decimal.Zero, DefaultRatePercent: decimal.Zero}
	for _, r := range records {
		s.TotalDefaults++
		s.TotalDefaultAmount = s.TotalDefaultAmount.Add(r.TotalAmount)
		if r.Status == StatusResolved {
			s.ResolvedDefaults++
		} else {
			s.ActiveDefaults++
		}
	}
	if totalLoans > 0 {
		s.DefaultRatePercent = decimal.NewFromInt(int64(s.TotalDefaults)).
			Div(decimal.NewFromInt(totalLoans)).
			Mul(decimal.NewFromInt(100)).
			Round(2)
	}
	return s
}
