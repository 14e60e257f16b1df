package parser

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/insightdelivered/bank-statement-parser/internal/models"
)

// INGParser handles monthly ING (formerly ING-DiBa) account statements.
// Each booking starts with the post date, type and amount, followed by a line
// with the value date and further narration:
//
//	01.03.2019 Gutschrift Arbeitgeber GmbH 2.500,00
//	01.03.2019 Gehalt Maerz
type INGParser struct{}

func (p *INGParser) Name() string { return "INGPDF" }

func (p *INGParser) BankType() models.BankType { return models.BankING }

var ingProducers = []string{
	"A2WServer V1.0 r26, MHT PDFLib  V2.1 r9, Solaris 2.6-8 or GCC",
	"AFP2web SDK V3.1, MHT PDFLib  V3.0, Solaris 2.6-8 or GCC",
	"Maas PDF Library V3.0",
	"Maas PDF Library V3.1",
}

func (p *INGParser) IsApplicable(meta models.Metadata) bool {
	return slices.Contains(ingProducers, meta.Producer)
}

var (
	ingBookingStart      = regexp.MustCompile(`^(\d{2}\.\d{2}\.\d{4}) (.+) (-?\d+(?:\.\d{3})*,\d{2})$`)
	ingBookingSecondLine = regexp.MustCompile(`^(\d{2}\.\d{2}\.\d{4})(?: (.+))?$`)
)

var germanMonths = map[string]time.Month{
	"Januar":    time.January,
	"Februar":   time.February,
	"März":      time.March,
	"April":     time.April,
	"Mai":       time.May,
	"Juni":      time.June,
	"Juli":      time.July,
	"August":    time.August,
	"September": time.September,
	"Oktober":   time.October,
	"November":  time.November,
	"Dezember":  time.December,
}

type ingParsing struct {
	bic, iban  string
	from, to   time.Time
	balanceOld *float32
	balanceNew *float32

	item     *models.BookingItem
	bookings []models.BookingItem
}

func (p *INGParser) ParseRaw(doc *models.Document, options map[string]string) (*models.Statement, error) {
	st := &ingParsing{}
	c := newLineCursor(trimTrailingBlank(doc.Lines))

scan:
	for c.hasNext() {
		line := c.next()

		switch {
		case strings.HasPrefix(line, "Alter Saldo "):
			v, err := parseEuroBalance(strings.TrimPrefix(line, "Alter Saldo "))
			if err != nil {
				return nil, structuralf(c.lineNo(), "invalid old balance: %v", err)
			}
			st.balanceOld = &v

		case strings.HasPrefix(line, "Neuer Saldo "):
			if st.balanceNew != nil {
				// The new balance is repeated after the last booking.
				break scan
			}
			v, err := parseEuroBalance(strings.TrimPrefix(line, "Neuer Saldo "))
			if err != nil {
				return nil, structuralf(c.lineNo(), "invalid new balance: %v", err)
			}
			st.balanceNew = &v

		case strings.HasPrefix(line, "IBAN "):
			st.iban = strings.ReplaceAll(strings.TrimPrefix(line, "IBAN "), " ", "")

		case strings.HasPrefix(line, "BIC "):
			st.bic = strings.TrimSpace(strings.TrimPrefix(line, "BIC "))

		case strings.HasPrefix(line, "Kontoauszug "):
			if st.from.IsZero() {
				if from, ok := parseMonthYear(strings.TrimPrefix(line, "Kontoauszug ")); ok {
					st.from = from
					st.to = from.AddDate(0, 1, -1)
				}
			}

		case ingBookingStart.MatchString(line):
			if err := st.startBooking(ingBookingStart.FindStringSubmatch(line), c.lineNo()); err != nil {
				return nil, err
			}

		case ingBookingSecondLine.MatchString(line):
			if st.item == nil || !st.item.ValueDate.IsZero() {
				break
			}
			m := ingBookingSecondLine.FindStringSubmatch(line)
			valueDate, err := parseFullDate(m[1])
			if err != nil {
				return nil, structuralf(c.lineNo(), "invalid value date %q", m[1])
			}
			st.item.ValueDate = valueDate
			if m[2] != "" {
				st.item.Info = append(st.item.Info, m[2])
			}

		default:
			if st.item != nil && !st.item.ValueDate.IsZero() {
				st.item.Info = append(st.item.Info, line)
			}
		}
	}

	st.flush()

	switch {
	case st.bic == "":
		return nil, structuralf(c.lineNo(), "no BIC found")
	case st.iban == "":
		return nil, structuralf(c.lineNo(), "no IBAN found")
	case st.from.IsZero():
		return nil, structuralf(c.lineNo(), "no statement month found")
	case st.balanceOld == nil:
		return nil, structuralf(c.lineNo(), "no old balance found")
	case st.balanceNew == nil:
		return nil, structuralf(c.lineNo(), "no new balance found")
	}

	in, out := SumBookings(st.bookings)
	sumIn, _ := in.Float64()
	sumOut, _ := out.Float64()

	return models.NewStatement(models.Statement{
		Filename:   doc.Filename,
		Locale:     language.MustParse("de-DE"),
		BankID:     st.bic,
		AccountID:  st.iban,
		FromDate:   st.from,
		ToDate:     st.to,
		BalanceOld: *st.balanceOld,
		BalanceNew: *st.balanceNew,
		SumIn:      float32(sumIn),
		SumOut:     float32(sumOut),
		Bookings:   st.bookings,
	})
}

func (st *ingParsing) startBooking(m []string, lineNo int) error {
	st.flush()

	postDate, err := parseFullDate(m[1])
	if err != nil {
		return structuralf(lineNo, "invalid post date %q", m[1])
	}
	amount, err := ParseAmount(m[3])
	if err != nil {
		return structuralf(lineNo, "invalid booking amount: %v", err)
	}

	label, info, found := strings.Cut(m[2], " ")
	if !found {
		info = m[2]
	}

	st.item = &models.BookingItem{
		PostDate: postDate,
		Info:     []string{info},
		Amount:   amount,
		Type:     ingTypes.Classify(label),
	}
	return nil
}

func (st *ingParsing) flush() {
	if st.item != nil {
		st.bookings = append(st.bookings, *st.item)
		st.item = nil
	}
}

// parseMonthYear parses "März 2019" into the first day of that month.
func parseMonthYear(s string) (time.Time, bool) {
	name, year, ok := strings.Cut(strings.TrimSpace(s), " ")
	if !ok {
		return time.Time{}, false
	}
	month, ok := germanMonths[name]
	if !ok {
		return time.Time{}, false
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(y, month, 1, 0, 0, 0, 0, time.UTC), true
}

func parseEuroBalance(s string) (float32, error) {
	return ParseAmount(strings.TrimSuffix(strings.TrimSpace(s), " Euro"))
}
