package batch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightdelivered/bank-statement-parser/internal/models"
)

func statement(name string, from, to time.Time, oldBalance, newBalance float32) *models.Statement {
	return &models.Statement{Filename: name, FromDate: from, ToDate: to, BalanceOld: oldBalance, BalanceNew: newBalance}
}

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func TestCheckConsistency(t *testing.T) {
	april := statement("april.pdf", d(2016, time.April, 2), d(2016, time.June, 2), -9.9, 58.1)
	june := statement("june.pdf", d(2016, time.June, 3), d(2016, time.July, 2), 58.1, 100)
	july := statement("july.pdf", d(2016, time.July, 3), d(2016, time.August, 2), 100, 12.34)

	tests := []struct {
		name       string
		statements []*models.Statement
		wantReason string
	}{
		{"empty", nil, ""},
		{"single", []*models.Statement{june}, ""},
		{"consecutive out of order", []*models.Statement{july, april, june}, ""},
		{"gap", []*models.Statement{april, july}, "are not consecutive"},
		{
			name: "balance mismatch",
			statements: []*models.Statement{
				april,
				statement("june.pdf", d(2016, time.June, 3), d(2016, time.July, 2), 58.2, 100),
			},
			wantReason: "have inconsistent balances",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckConsistency(tt.statements)
			if tt.wantReason == "" {
				assert.NoError(t, err)
				return
			}
			var ie *InconsistencyError
			require.ErrorAs(t, err, &ie)
			assert.Equal(t, tt.wantReason, ie.Reason)
		})
	}
}

func TestCheckConsistency_DoesNotReorderInput(t *testing.T) {
	a := statement("a.pdf", d(2016, time.February, 1), d(2016, time.February, 29), 0, 0)
	b := statement("b.pdf", d(2016, time.January, 1), d(2016, time.January, 31), 0, 0)
	in := []*models.Statement{a, b}

	require.NoError(t, CheckConsistency(in))
	assert.Same(t, a, in[0])
}

func TestInconsistencyError(t *testing.T) {
	err := &InconsistencyError{Current: "a.pdf", Next: "b.pdf", Reason: "are not consecutive"}
	assert.Equal(t, `statements "a.pdf" and "b.pdf" are not consecutive`, err.Error())
}
