package parser

import (
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/insightdelivered/bank-statement-parser/internal/models"
)

// PostbankDBParser handles Postbank and FYRST statements created after the
// migration to the Deutsche Bank IT system. Booking dates carry their years on
// the line following the booking start:
//
//	Buchung Valuta Vorgang Soll Haben
//	30.05. 30.05. Kartenzahlung - 12,50
//	2023 2023 REWE SAGT DANKE
type PostbankDBParser struct{}

func (p *PostbankDBParser) Name() string { return "PostbankDBPDF" }

func (p *PostbankDBParser) BankType() models.BankType { return models.BankPostbankDB }

var postbankDBProducers = []string{
	"CrawfordTech PDF Driver Version 4.9",
	"XEP 4.28.759",
}

func (p *PostbankDBParser) IsApplicable(meta models.Metadata) bool {
	return hasAnyPrefix(meta.Producer, postbankDBProducers)
}

const (
	postbankDBBIC          = "BIC (SWIFT)"
	postbankDBPageHeader   = "Auszug Seite von IBAN Alter Saldo per"
	postbankDBPageBreak    = "Auszug Seite von IBAN"
	postbankDBTableHeader  = "Buchung Valuta Vorgang Soll Haben"
	postbankDBBalancing    = "Filialnummer Kontonummer Neuer Saldo"
	postbankDBCurrency     = "EUR "
	postbankDBIBANLength   = 22
	postbankDBIBANSkipCols = 3

	postbankDBMigrationNoticePB = "Die Buchung hat technische Gruende: Wir stellen das IT-System fuer alle " +
		"Konten um. Ihr Kontostand vor und nach den Buchungen bleibt gleich."
	postbankDBMigrationNoticeFYRST = "Die Buchung hat technische Gruende aufgrund der Umstellung unseres " +
		"Bank-IT-Systems. Ihr Kontostand vor und nach der Buchung bleibt gleich."
)

var (
	postbankDBStatementDates = regexp.MustCompile(`^Kontoauszug vom (\d{2}\.\d{2}\.\d{4}) bis (\d{2}\.\d{2}\.\d{4})$`)
	postbankDBBookingStart   = regexp.MustCompile(`^(\d{2}\.\d{2}\.) (\d{2}\.\d{2}\.) (.+) ([+-] [\d.,]+)$`)
)

type postbankDBState int

const (
	postbankDBInitial postbankDBState = iota
	postbankDBBookings
	postbankDBBalancingState
)

type postbankDBParsing struct {
	current postbankDBState

	bic, iban  string
	from, to   time.Time
	balanceOld *float32
	balanceNew *float32

	item     *models.BookingItem
	bookings []models.BookingItem
}

func (p *PostbankDBParser) ParseRaw(doc *models.Document, options map[string]string) (*models.Statement, error) {
	st := &postbankDBParsing{}
	c := newLineCursor(doc.Lines)

	for c.hasNext() {
		line := strings.TrimSpace(c.next())

		switch {
		case strings.HasPrefix(line, postbankDBBIC):
			if c.hasNext() {
				bic, _, _ := strings.Cut(c.next(), " ")
				st.bic = strings.TrimSuffix(bic, "XXX")
			}

		case strings.HasPrefix(line, postbankDBPageHeader):
			if c.hasNext() {
				if err := st.parsePageHeader(c.next(), c.lineNo()); err != nil {
					return nil, err
				}
			}

		case postbankDBStatementDates.MatchString(line):
			m := postbankDBStatementDates.FindStringSubmatch(line)
			from, err := parseFullDate(m[1])
			if err != nil {
				return nil, structuralf(c.lineNo(), "invalid statement start date %q", m[1])
			}
			to, err := parseFullDate(m[2])
			if err != nil {
				return nil, structuralf(c.lineNo(), "invalid statement end date %q", m[2])
			}
			st.from, st.to = from, to

		case strings.HasPrefix(line, postbankDBTableHeader):
			if st.current == postbankDBInitial {
				st.current = postbankDBBookings
			}

		case st.current == postbankDBBookings && postbankDBBookingStart.MatchString(line):
			if err := st.parseBooking(postbankDBBookingStart.FindStringSubmatch(line), c); err != nil {
				return nil, err
			}

		case strings.HasPrefix(line, postbankDBBalancing) && st.current == postbankDBBookings:
			st.current = postbankDBBalancingState
			for c.hasNext() {
				balanceLine := c.next()
				if !strings.Contains(balanceLine, postbankDBCurrency) {
					continue
				}
				v, err := parseAfterLastCurrency(balanceLine)
				if err != nil {
					return nil, structuralf(c.lineNo(), "invalid new balance: %v", err)
				}
				st.balanceNew = &v
				break
			}
		}
	}

	st.flush()
	st.fixupMigrationBooking()

	if err := st.checkMandatory(c.lineNo()); err != nil {
		return nil, err
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

// parsePageHeader reads "<page> <of> <n> DE12 3456 ... EUR 1.234,56". The IBAN
// groups follow the page columns and are collected until the IBAN is complete.
func (st *postbankDBParsing) parsePageHeader(line string, lineNo int) error {
	parts := strings.Split(line, " ")
	if len(parts) > postbankDBIBANSkipCols {
		var iban strings.Builder
		for _, part := range parts[postbankDBIBANSkipCols:] {
			if iban.Len() >= postbankDBIBANLength {
				break
			}
			iban.WriteString(part)
		}
		st.iban = iban.String()
	}

	v, err := parseAfterLastCurrency(line)
	if err != nil {
		return structuralf(lineNo, "invalid old balance: %v", err)
	}
	st.balanceOld = &v
	return nil
}

func (st *postbankDBParsing) parseBooking(m []string, c *lineCursor) error {
	st.flush()

	if !c.hasNext() {
		return nil
	}

	yearsLine := c.next()
	parts := strings.SplitN(yearsLine, " ", 3)
	postYear, valueYear := parts[0], ""
	if len(parts) > 1 {
		valueYear = parts[1]
	}

	postDate, err := parseFullDate(m[1] + postYear)
	if err != nil {
		return structuralf(c.lineNo(), "invalid post date %q", m[1]+postYear)
	}
	valueDate, err := parseFullDate(m[2] + valueYear)
	if err != nil {
		return structuralf(c.lineNo(), "invalid value date %q", m[2]+valueYear)
	}
	amount, err := ParseAmount(m[4])
	if err != nil {
		return structuralf(c.lineNo(), "invalid booking amount: %v", err)
	}

	info := []string{m[3]}
	if len(parts) > 2 {
		info = append(info, parts[2])
	}

	for c.hasNext() {
		next := c.next()
		if postbankDBBookingStart.MatchString(next) || next == postbankDBBalancing {
			c.back()
			break
		}
		if next == postbankDBPageBreak {
			// Skip the page header values, the next page continues the table.
			if c.hasNext() {
				c.next()
			}
			break
		}
		info = append(info, next)
	}

	st.item = &models.BookingItem{
		PostDate:  postDate,
		ValueDate: valueDate,
		Info:      info,
		Amount:    amount,
		Type:      postbankTypes.Classify(m[3]),
	}
	return nil
}

func (st *postbankDBParsing) flush() {
	if st.item != nil {
		st.bookings = append(st.bookings, *st.item)
		st.item = nil
	}
}

// fixupMigrationBooking folds the booking that transferred the balance to the
// new IT system into the opening balance. Such statements start with a zero
// balance and the notice booking as the first item.
func (st *postbankDBParsing) fixupMigrationBooking() {
	if st.balanceOld == nil || *st.balanceOld != 0 || len(st.bookings) == 0 {
		return
	}

	first := st.bookings[0]
	info := first.JoinInfo(" ")

	var from time.Time
	switch {
	case strings.Contains(info, postbankDBMigrationNoticePB):
		from = first.PostDate.AddDate(0, 0, 1)
	case strings.Contains(info, postbankDBMigrationNoticeFYRST):
		from = first.ValueDate.AddDate(0, 0, 1)
	default:
		return
	}

	st.bookings = st.bookings[1:]
	st.from = from
	amount := first.Amount
	st.balanceOld = &amount
}

func (st *postbankDBParsing) checkMandatory(lineNo int) error {
	switch {
	case st.bic == "":
		return structuralf(lineNo, "no BIC found")
	case st.iban == "":
		return structuralf(lineNo, "no IBAN found")
	case st.from.IsZero():
		return structuralf(lineNo, "no statement start date found")
	case st.to.IsZero():
		return structuralf(lineNo, "no statement end date found")
	case st.balanceOld == nil:
		return structuralf(lineNo, "no old balance found")
	case st.balanceNew == nil:
		return structuralf(lineNo, "no new balance found")
	}
	return nil
}

func parseAfterLastCurrency(line string) (float32, error) {
	i := strings.LastIndex(line, postbankDBCurrency)
	if i < 0 {
		return ParseAmount(line)
	}
	return ParseAmount(line[i+len(postbankDBCurrency):])
}
