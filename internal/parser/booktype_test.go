package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/insightdelivered/bank-statement-parser/internal/models"
)

func TestTypeTable_Classify(t *testing.T) {
	tests := []struct {
		name  string
		table typeTable
		label string
		want  models.BookingType
	}{
		{"postbank salary", postbankTypes, "Gehalt/Rente", models.BookingSalary},
		{"postbank credit", postbankTypes, "Gutschr.SEPA", models.BookingCredit},
		{"postbank padded label", postbankTypes, "  Lastschrift ", models.BookingDebit},
		{"postbank first token", postbankTypes, "Dauerauftrag Miete", models.BookingRepeatPayment},
		{"postbank unknown", postbankTypes, "Sonderzahlung", models.BookingOther},
		{"ing direct debit", ingTypes, "Lastschrift", models.BookingPayment},
		{"ing standing order", ingTypes, "Gutschrift/Dauerauftrag", models.BookingRepeatPayment},
		{"psd cash", psdTypes, "Auszahlung girocard", models.BookingATM},
		{"psd no first-token fallback", psdTypes, "Lastschrift (SEPA)", models.BookingOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.table.Classify(tt.label))
		})
	}
}
