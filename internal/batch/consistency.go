package batch

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/bank-statement-parser/internal/models"
)

// InconsistencyError describes two adjacent statements that do not fit together.
type InconsistencyError struct {
	Current, Next string
	Reason        string
}

func (e *InconsistencyError) Error() string {
	return fmt.Sprintf("statements %q and %q %s", e.Current, e.Next, e.Reason)
}

// CheckConsistency sorts the statements by period and verifies that every
// statement starts the day after its predecessor ends, with the old balance
// equal to the predecessor's new balance. The first violation is returned.
func CheckConsistency(statements []*models.Statement) error {
	sorted := slices.Clone(statements)
	slices.SortStableFunc(sorted, func(a, b *models.Statement) int {
		if c := a.FromDate.Compare(b.FromDate); c != 0 {
			return c
		}
		return a.ToDate.Compare(b.ToDate)
	})

	for i := 0; i+1 < len(sorted); i++ {
		curr, next := sorted[i], sorted[i+1]

		if !curr.ToDate.AddDate(0, 0, 1).Equal(next.FromDate) {
			return &InconsistencyError{Current: curr.Filename, Next: next.Filename, Reason: "are not consecutive"}
		}

		if !decimal.NewFromFloat32(curr.BalanceNew).Equal(decimal.NewFromFloat32(next.BalanceOld)) {
			return &InconsistencyError{Current: curr.Filename, Next: next.Filename, Reason: "have inconsistent balances"}
		}
	}

	return nil
}
