package penalty

import (
	"fmt"
	"strings"

	"microloan-backend/internal/domain/errs"
)

// PartialSweepError lists the loans a sweep could not process. They keep
// their prior status and are picked up by the next sweep.
type PartialSweepError struct {
	LoanIDs []string
}

func (e *PartialSweepError) Error() string {
	return fmt.Sprintf("%s: %d loan(s): %s", errs.ErrPartialSweep, len(e.LoanIDs), strings.Join(e.LoanIDs, ","))
}

func (e *PartialSweepError) Is(target error) bool { return target == errs.ErrPartialSweep }
