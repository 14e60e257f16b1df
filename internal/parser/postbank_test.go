package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightdelivered/bank-statement-parser/internal/models"
)

const postbankProducer2014 = "StreamServe Communication Server 5.6.2 GA Build 1210 (64 bit)"

// postbank2014Statement is a two page statement in the 2014 layout.
var postbank2014Statement = []string{
	"Postbank Giro extra plus",
	"Kontoauszug: Postbank Giro extra plus vom 02.04.2016 bis 02.06.2016",
	"Herrn",
	"Goran Bolsec",
	"Auszug Seite IBAN BIC (SWIFT) Alter Kontostand",
	"5 1/2 DE94 1001 0010 0914 0831 13 PBNKDEFF EUR - 9,90",
	"Buchung/Wert Vorgang/Buchungsinformation Soll Haben",
	"27.05./27.05. Gutschr.SEPA + 968,00",
	"GORAN BOLSEC Verwendungszweck INTERNAL",
	"TRANSFER SALLARY GORAN BOLSEC",
	"Auszug Seite IBAN BIC (SWIFT)",
	"5 2/2 DE94 1001 0010 0914 0831 13 PBNKDEFF",
	"Buchung/Wert Vorgang/Buchungsinformation Soll Haben",
	"30.05./30.05. Auszahlung Geldautomat - 900,00",
	"Kontonummer BLZ Summe Zahlungseingänge",
	"914083113 100 100 10 EUR + 968,00",
	"Dispositionskredit Zinssatz für Dispositionskredit Summe Zahlungsausgänge",
	"EUR 0,00 11,40% EUR - 900,00",
	"Zinssatz für geduldete Überziehung Anlage Neuer Kontostand",
	"16,40% EUR + 58,10",
	"Bitte beachten Sie die Hinweise auf der Rückseite.",
	"",
}

func postbankDoc(created time.Time, lines []string) *models.Document {
	return &models.Document{
		Filename: "PB_KAZ_KtoNr_0914083113_06-06-2016.pdf",
		Metadata: models.Metadata{Producer: postbankProducer2014, CreationDate: created},
		Lines:    lines,
	}
}

// replaceLine returns a copy of lines with the first line equal to old
// replaced by the given lines.
func replaceLine(lines []string, old string, with ...string) []string {
	out := make([]string, 0, len(lines)+len(with))
	done := false
	for _, l := range lines {
		if !done && l == old {
			out = append(out, with...)
			done = true
			continue
		}
		out = append(out, l)
	}
	return out
}

func TestPostbankParser_IsApplicable(t *testing.T) {
	p := &PostbankParser{}

	assert.True(t, p.IsApplicable(models.Metadata{Producer: "iText 2.0.8 (by lowagie.com)"}))
	assert.True(t, p.IsApplicable(models.Metadata{Producer: postbankProducer2014}))
	assert.False(t, p.IsApplicable(models.Metadata{Producer: "iText 2.0.8 (by lowagie.com) patched"}))
	assert.False(t, p.IsApplicable(models.Metadata{Producer: "XEP 4.28.759"}))
	assert.False(t, p.IsApplicable(models.Metadata{}))
}

func TestPostbankParser_TwoPages2014(t *testing.T) {
	p := &PostbankParser{}

	st, err := p.ParseRaw(postbankDoc(date(2016, time.June, 3), postbank2014Statement), nil)
	require.NoError(t, err)

	assert.Equal(t, "PB_KAZ_KtoNr_0914083113_06-06-2016.pdf", st.Filename)
	assert.Equal(t, "de-DE", st.Locale.String())
	assert.Equal(t, "PBNKDEFF", st.BankID)
	assert.Equal(t, "DE94100100100914083113", st.AccountID)
	assert.Equal(t, date(2016, time.April, 2), st.FromDate)
	assert.Equal(t, date(2016, time.June, 2), st.ToDate)
	assert.InDelta(t, -9.9, st.BalanceOld, 0.001)
	assert.InDelta(t, 58.1, st.BalanceNew, 0.001)
	assert.InDelta(t, 968, st.SumIn, 0.001)
	assert.InDelta(t, -900, st.SumOut, 0.001)

	require.Len(t, st.Bookings, 2)

	first := st.Bookings[0]
	assert.Equal(t, date(2016, time.May, 27), first.PostDate)
	assert.Equal(t, date(2016, time.May, 27), first.ValueDate)
	assert.InDelta(t, 968, first.Amount, 0.001)
	assert.Equal(t, models.BookingCredit, first.Type)
	assert.Equal(t, []string{
		"Gutschr.SEPA",
		"GORAN BOLSEC Verwendungszweck INTERNAL",
		"TRANSFER SALLARY GORAN BOLSEC",
	}, first.Info)
	assert.Empty(t, first.Category)

	second := st.Bookings[1]
	assert.Equal(t, date(2016, time.May, 30), second.PostDate)
	assert.InDelta(t, -900, second.Amount, 0.001)
	assert.Equal(t, models.BookingATM, second.Type)
	assert.Equal(t, []string{"Auszahlung Geldautomat"}, second.Info)
}

func TestPostbankParser_Layout2017(t *testing.T) {
	lines := []string{
		"Kontoauszug: Postbank Giro plus vom 01.12.2017 bis 05.01.2018",
		"Postbank Ndl der DB Privat- und Firmenkunden AG BIC (SWIFT): PBNKDEFFXXX",
		"Auszug Jahr Seite von IBAN Alter Kontostand",
		"12 2017 1 1 DE94 1001 0010 0914 0831 13 EUR + 100,00",
		"Buchung/Wert Vorgang/Buchungsinformation Soll Haben",
		"29.12./29.12. Kartenzahlung -10,00",
		"REWE SAGT DANKE",
		"02.01./02.01. Gutschrift + 20.00",
		"Kontonummer BLZ Summe Zahlungseingänge",
		"914083113 100 100 10 EUR + 20,00",
		"Eingeräumte Kontoüberziehung Zinssatz für",
		"eingeräumte Kontoüberziehung Summe Zahlungsausgänge",
		"EUR 0,00 11,40% EUR - 10,00",
		"Zinssatz für geduldete Überziehung Anlagen Neuer Kontostand",
		"16,40% EUR + 110,00",
	}

	st, err := (&PostbankParser{}).ParseRaw(postbankDoc(date(2018, time.January, 6), lines), nil)
	require.NoError(t, err)

	assert.Equal(t, "PBNKDEFFXXX", st.BankID)
	assert.Equal(t, "DE94100100100914083113", st.AccountID)
	assert.InDelta(t, 100, st.BalanceOld, 0.001)
	assert.InDelta(t, 110, st.BalanceNew, 0.001)
	assert.InDelta(t, 20, st.SumIn, 0.001)
	assert.InDelta(t, -10, st.SumOut, 0.001)

	require.Len(t, st.Bookings, 2)
	assert.Equal(t, date(2017, time.December, 29), st.Bookings[0].PostDate)
	assert.Equal(t, models.BookingPayment, st.Bookings[0].Type)
	assert.Equal(t, []string{"Kartenzahlung", "REWE SAGT DANKE"}, st.Bookings[0].Info)
	assert.Equal(t, date(2018, time.January, 2), st.Bookings[1].PostDate)
	assert.InDelta(t, 20, st.Bookings[1].Amount, 0.001)
}

func TestPostbankParser_SignOnPreviousLine(t *testing.T) {
	lines := replaceLine(postbank2014Statement,
		"30.05./30.05. Auszahlung Geldautomat - 900,00",
		"-",
		"30.05./30.05. Auszahlung Geldautomat 900,00",
	)

	st, err := (&PostbankParser{}).ParseRaw(postbankDoc(date(2016, time.June, 3), lines), nil)
	require.NoError(t, err)

	require.Len(t, st.Bookings, 2)
	assert.InDelta(t, -900, st.Bookings[1].Amount, 0.001)
	assert.Equal(t, []string{"Auszahlung Geldautomat"}, st.Bookings[1].Info)
}

func TestPostbankParser_UnsignedAmountIsCredit(t *testing.T) {
	lines := replaceLine(postbank2014Statement,
		"27.05./27.05. Gutschr.SEPA + 968,00",
		"27.05./27.05. Gutschr.SEPA 968,00",
	)

	st, err := (&PostbankParser{}).ParseRaw(postbankDoc(date(2016, time.June, 3), lines), nil)
	require.NoError(t, err)
	assert.InDelta(t, 968, st.Bookings[0].Amount, 0.001)
}

func TestPostbankParser_ClosingHintFYRST(t *testing.T) {
	lines := replaceLine(postbank2014Statement,
		"Kontonummer BLZ Summe Zahlungseingänge",
		"31.05./31.05. Rechnungsabschluss - siehe Hinweis ",
		"Abschlusssaldo per 31.05.2016 EUR + 58,10",
		"Kontonummer BLZ Summe Zahlungseingänge",
	)

	st, err := (&PostbankParser{}).ParseRaw(postbankDoc(date(2016, time.June, 3), lines), nil)
	require.NoError(t, err)

	require.Len(t, st.Bookings, 2)
	assert.Equal(t, []string{"Auszahlung Geldautomat"}, st.Bookings[1].Info)
}

func TestPostbankParser_Errors(t *testing.T) {
	tests := []struct {
		name    string
		created time.Time
		lines   []string
		wantMsg string
	}{
		{
			name:    "unsupported format",
			created: date(2014, time.June, 30),
			lines:   postbank2014Statement,
			wantMsg: "unsupported statement format",
		},
		{
			name:    "inconsistent IBAN",
			created: date(2016, time.June, 3),
			lines: replaceLine(postbank2014Statement,
				"5 2/2 DE94 1001 0010 0914 0831 13 PBNKDEFF",
				"5 2/2 DE12 1001 0010 0914 0831 99 PBNKDEFF"),
			wantMsg: "inconsistent IBAN",
		},
		{
			name:    "inconsistent BIC",
			created: date(2016, time.June, 3),
			lines: replaceLine(postbank2014Statement,
				"5 2/2 DE94 1001 0010 0914 0831 13 PBNKDEFF",
				"5 2/2 DE94 1001 0010 0914 0831 13 DEUTDEFF"),
			wantMsg: "inconsistent BIC",
		},
		{
			name:    "duplicate statement dates",
			created: date(2016, time.June, 3),
			lines: replaceLine(postbank2014Statement, "Herrn",
				"Kontoauszug: Postbank Giro extra plus vom 02.04.2016 bis 02.06.2016"),
			wantMsg: "multiple statement dates",
		},
		{
			name:    "missing statement dates",
			created: date(2016, time.June, 3),
			lines: replaceLine(postbank2014Statement,
				"Kontoauszug: Postbank Giro extra plus vom 02.04.2016 bis 02.06.2016", "Kontoauszug"),
			wantMsg: "no statement start date",
		},
		{
			name:    "missing old balance",
			created: date(2016, time.June, 3),
			lines: replaceLine(postbank2014Statement,
				"Auszug Seite IBAN BIC (SWIFT) Alter Kontostand", "Auszug Seite IBAN BIC (SWIFT)"),
			wantMsg: "no old balance",
		},
		{
			name:    "missing new balance",
			created: date(2016, time.June, 3),
			lines:   postbank2014Statement[:16],
			wantMsg: "no outgoing booking summary",
		},
		{
			name:    "unreadable summary",
			created: date(2016, time.June, 3),
			lines: replaceLine(postbank2014Statement, "16,40% EUR + 58,10",
				"16,40% siehe Rückseite"),
			wantMsg: "error parsing booking summary",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := (&PostbankParser{}).ParseRaw(postbankDoc(tt.created, tt.lines), nil)
			require.Error(t, err)
			assert.True(t, IsStructural(err), "expected structural error, got %v", err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestParseSummary(t *testing.T) {
	tests := []struct {
		name     string
		marker   string
		lines    []string
		expected float32
		rest     string
	}{
		{
			name:     "amount on next line",
			marker:   postbankSummaryIn,
			lines:    []string{"Kontonummer BLZ Summe Zahlungseingänge", "914083113 100 100 10 EUR + 968,00", "weiter"},
			expected: 968,
			rest:     "weiter",
		},
		{
			name:   "marker wrapped over three lines",
			marker: postbankSummaryOut,
			lines: []string{
				"Dispositionskredit",
				"Zinssatz für Dispositionskredit",
				"Summe Zahlungsausgänge",
				"EUR 0,00 11,40% EUR - 900,00",
				"weiter",
			},
			expected: -900,
			rest:     "weiter",
		},
		{
			name:     "amount split from its label",
			marker:   postbankSummaryOut,
			lines:    []string{postbankSummaryOut, "EUR 0,00 11,40%", "EUR - 900,00", "weiter"},
			expected: -900,
			rest:     "weiter",
		},
		{
			name:     "amount before its label",
			marker:   postbankBalanceNewSingular,
			lines:    []string{postbankBalanceNewSingular, "- 12,34", "16,40% EUR", "weiter"},
			expected: -12.34,
			rest:     "weiter",
		},
		{
			name:     "zero without sign",
			marker:   postbankSummaryIn,
			lines:    []string{"Summe Zahlungseingänge", "EUR 0,00"},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newLineCursor(tt.lines)
			got, err := parseSummary(tt.marker, c.next(), c)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, got, 0.001)

			if tt.rest != "" {
				require.True(t, c.hasNext())
				assert.Equal(t, tt.rest, c.next())
			}
		})
	}
}

func TestPostbankParser_NoCreationDateAssumes2017Layout(t *testing.T) {
	lines := replaceLine(postbank2014Statement,
		"Auszug Seite IBAN BIC (SWIFT) Alter Kontostand", "BIC (SWIFT): PBNKDEFF")

	st, err := (&PostbankParser{}).ParseRaw(postbankDoc(time.Time{}, lines), nil)
	require.Error(t, err)
	assert.True(t, IsStructural(err))
	assert.Contains(t, err.Error(), "no IBAN found")
	assert.Nil(t, st)
}
