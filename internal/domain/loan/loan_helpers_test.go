package loan

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 9, 1, 9, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func requestedLoan(t *testing.T, amount string, rate string, days int) *Loan {
	t.Helper()
	l, err := NewRequest(
		"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		"bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
		"Borrower",
		Terms{Amount: dec(amount), DurationDays: days, DailyRate: dec(rate)},
		"inventory",
		t0,
	)
	require.NoError(t, err)
	return l
}

func activeLoan(t *testing.T, amount, rate string, days int, start time.Time) *Loan {
	t.Helper()
	l := requestedLoan(t, amount, rate, days)
	require.NoError(t, l.Activate("cccccccccccccccccccccccccccccccc", "Lender", start))
	return l
}
