package parser

import (
	"strings"

	"github.com/insightdelivered/bank-statement-parser/internal/models"
)

// typeTable maps the booking labels of one dialect to booking types. Labels
// without an exact match fall back to their first word.
type typeTable struct {
	exact      map[string]models.BookingType
	firstToken map[string]models.BookingType
}

// Classify never fails; unknown labels are OTHER.
func (t typeTable) Classify(label string) models.BookingType {
	label = strings.TrimSpace(label)
	if bt, ok := t.exact[label]; ok {
		return bt
	}

	first, _, _ := strings.Cut(label, " ")
	if bt, ok := t.firstToken[first]; ok {
		return bt
	}

	return models.BookingOther
}

var postbankTypes = typeTable{
	exact: map[string]models.BookingType{
		"Auszahlung Geldautomat":   models.BookingATM,
		"Bargeldausz. Geldautomat": models.BookingATM,
		"Kartenverfüg":             models.BookingATM,

		"Auszahlung":        models.BookingCash,
		"Bargeldauszahlung": models.BookingCash,

		"Scheckeinreichung": models.BookingCheck,
		"Scheckeinr":        models.BookingCheck,
		"Inh. Scheck":       models.BookingCheck,

		"Gutschrift":            models.BookingCredit,
		"Gutschr.SEPA":          models.BookingCredit,
		"Gutschr. SEPA":         models.BookingCredit,
		"Storno: SDD Lastschr":  models.BookingCredit,
		"paydirekt Rückzahlung": models.BookingCredit,
		"Einzahlung":            models.BookingCredit,
		"Retoure":               models.BookingCredit,
		"Gehalt/Rente":          models.BookingSalary,

		"Kartenlastschrift": models.BookingDebit,
		"Lastschrift":       models.BookingDebit,
		"SDD Lastschr":      models.BookingDebit,
		"paydirekt Zahlung": models.BookingDebit,

		"Zinsen/Entg.": models.BookingInterest,

		"Überweisung giropay": models.BookingPayment,
		"Kartenzahlung":       models.BookingPayment,
		"Geldkarte":           models.BookingPayment,
		"Gutscheinkauf":       models.BookingPayment,

		"SEPA Überw. Einzel": models.BookingTransfer,
		"SEPA Überw. BZÜ":    models.BookingTransfer,
		"Umbuchung":          models.BookingTransfer,
	},
	firstToken: map[string]models.BookingType{
		"Gut":          models.BookingCredit,
		"Dauerauftrag": models.BookingRepeatPayment,
	},
}

var ingTypes = typeTable{
	exact: map[string]models.BookingType{
		"Abbuchung":               models.BookingDebit,
		"Gutschrift":              models.BookingCredit,
		"Gutschrift/Dauerauftrag": models.BookingRepeatPayment,
		"Lastschrift":             models.BookingPayment,
		"Ueberweisung":            models.BookingTransfer,
	},
}

var psdTypes = typeTable{
	exact: map[string]models.BookingType{
		"Auszahlung girocard": models.BookingATM,
		"EURO-Überweisung":    models.BookingPayment,
		"Lastschrift":         models.BookingDebit,
	},
}
