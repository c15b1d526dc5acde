package loan

import (
	"time"

	"microloan-backend/internal/domain/errs"

	"github.com/shopspring/decimal"
)

const oneDay = 24 * time.Hour

// RateScale is the number of decimal places daily_rate is stored with.
const RateScale = 6

// Terms are the financial parameters fixed at request time.
type Terms struct {
	Amount       decimal.Decimal
	DurationDays int
	DailyRate    decimal.Decimal // fraction per day, 0.001 = 0.1%/day
}

func (t Terms) Validate() error {
	if !t.Amount.IsPositive() {
		return errs.Invalid("amount", "must be greater than 0")
	}
	if t.DurationDays <= 0 {
		return errs.Invalid("duration_days", "must be greater than 0")
	}
	if t.DailyRate.IsNegative() || t.DailyRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return errs.Invalid("daily_rate", "must be in [0, 1)")
	}
	if !t.DailyRate.Equal(t.DailyRate.Round(RateScale)) {
		return errs.Invalid("daily_rate", "must have at most 6 decimal places")
	}
	return nil
}

// Clock supplies the current instant so computations stay deterministic.
type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

var SystemClock Clock = ClockFunc(func() time.Time { return time.Now().UTC() })

func FixedClock(t time.Time) Clock {
	return ClockFunc(func() time.Time { return t })
}

// DateOf truncates t to its UTC calendar date.
func DateOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
