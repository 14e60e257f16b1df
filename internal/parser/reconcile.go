package parser

import (
	"github.com/shopspring/decimal"

	"github.com/insightdelivered/bank-statement-parser/internal/models"
)

// defaultTolerance is the largest difference accepted between computed and
// printed totals unless WithTolerance says otherwise: one cent.
func defaultTolerance() decimal.Decimal {
	return decimal.New(1, -2)
}

// Reconcile recomputes the incoming and outgoing totals from the bookings and
// checks them, and the balance identity old + in + out = new, against the
// values printed on the statement.
func Reconcile(st *models.Statement, tolerance decimal.Decimal) error {
	calcIn, calcOut := SumBookings(st.Bookings)

	sumIn := decimal.NewFromFloat32(st.SumIn)
	sumOut := decimal.NewFromFloat32(st.SumOut)
	oldBalance := decimal.NewFromFloat32(st.BalanceOld)
	newBalance := decimal.NewFromFloat32(st.BalanceNew)

	if calcIn.Sub(sumIn).Abs().GreaterThan(tolerance) {
		return sanityf("Sanity check on incoming booking summary failed: %s != %s", calcIn, sumIn)
	}
	if calcOut.Sub(sumOut).Abs().GreaterThan(tolerance) {
		return sanityf("Sanity check on outgoing booking summary failed: %s != %s", calcOut, sumOut)
	}

	calcNew := oldBalance.Add(sumIn).Add(sumOut)
	if calcNew.Sub(newBalance).Abs().GreaterThan(tolerance) {
		return sanityf("Sanity check on balance failed: %s + %s + %s = %s != %s",
			oldBalance, sumIn, sumOut, calcNew, newBalance)
	}

	return nil
}

// SumBookings returns the sum of all credits (amount >= 0) and the sum of all
// debits (amount < 0).
func SumBookings(items []models.BookingItem) (in, out decimal.Decimal) {
	for _, item := range items {
		amount := decimal.NewFromFloat32(item.Amount)
		if amount.IsNegative() {
			out = out.Add(amount)
		} else {
			in = in.Add(amount)
		}
	}
	return in, out
}
