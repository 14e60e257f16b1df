package parser

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightdelivered/bank-statement-parser/internal/models"
)

func reconcileStatement() *models.Statement {
	return &models.Statement{
		BalanceOld: -9.9,
		BalanceNew: 58.1,
		SumIn:      968,
		SumOut:     -900,
		Bookings: []models.BookingItem{
			{Amount: 968},
			{Amount: -900},
			{Amount: 0},
		},
	}
}

func TestReconcile(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(st *models.Statement)
		wantMsg string
	}{
		{
			name:   "consistent statement",
			modify: func(st *models.Statement) {},
		},
		{
			name:   "within tolerance",
			modify: func(st *models.Statement) { st.SumIn = 968.01 },
		},
		{
			name:    "incoming summary",
			modify:  func(st *models.Statement) { st.SumIn = 967 },
			wantMsg: "Sanity check on incoming booking summary failed: 968 != 967",
		},
		{
			name:    "outgoing summary",
			modify:  func(st *models.Statement) { st.Bookings[1].Amount = -899 },
			wantMsg: "Sanity check on outgoing booking summary failed: -899 != -900",
		},
		{
			name:    "balance",
			modify:  func(st *models.Statement) { st.BalanceNew = 60 },
			wantMsg: "Sanity check on balance failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := reconcileStatement()
			tt.modify(st)

			err := Reconcile(st, defaultTolerance())
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, IsSanityCheck(err))
			assert.False(t, IsStructural(err))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestReconcile_CustomTolerance(t *testing.T) {
	assert.Equal(t, "0.01", defaultTolerance().String())
	assert.True(t, NewEngine(nil).tolerance.Equal(defaultTolerance()))

	st := reconcileStatement()
	st.SumIn = 968.5

	assert.Error(t, Reconcile(st, defaultTolerance()))
	assert.NoError(t, Reconcile(st, decimal.NewFromInt(1)))
}

func TestSumBookings(t *testing.T) {
	in, out := SumBookings([]models.BookingItem{{Amount: 10.1}, {Amount: -0.1}, {Amount: 0}, {Amount: 0.2}, {Amount: -5}})

	assert.True(t, in.Equal(decimal.RequireFromString("10.3")), in.String())
	assert.True(t, out.Equal(decimal.RequireFromString("-5.1")), out.String())

	in, out = SumBookings(nil)
	assert.True(t, in.IsZero())
	assert.True(t, out.IsZero())
}
