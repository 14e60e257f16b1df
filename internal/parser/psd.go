package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/insightdelivered/bank-statement-parser/internal/models"
)

// PSDParser handles PSD Bank statements. Amounts carry an "H" (Haben,
// credit) or "S" (Soll, debit) suffix instead of a sign, and narration lines
// are indented below the booking line:
//
//	02.01. 02.01. Lastschrift                       49,90 S
//	              STADTWERKE MUSTERSTADT
type PSDParser struct{}

func (p *PSDParser) Name() string { return "PSDBankPDF" }

func (p *PSDParser) BankType() models.BankType { return models.BankPSD }

var psdProducers = []string{
	"Compart MFFPDF I/O Filter",
	"iText 2.1.5 (by lowagie.com)",
	"iText 2.1.7 by 1T3XT",
}

func (p *PSDParser) IsApplicable(meta models.Metadata) bool {
	return hasAnyPrefix(meta.Producer, psdProducers)
}

const psdAmount = `\d+(?:\.\d{3})*,\d{2} [HS]`

var (
	psdIBANAndBIC   = regexp.MustCompile(`^IBAN: ([A-Z]{2}\d{2}(?: \d{4}){4} \d{2}) BIC: ([A-Z\d]{11})$`)
	psdOldBalance   = regexp.MustCompile(`^alter Kontostand vom (\d{2}\.\d{2}\.\d{4})\s+(` + psdAmount + `)$`)
	psdNewBalance   = regexp.MustCompile(`^\s*neuer Kontostand vom (\d{2}\.\d{2}\.\d{4})\s+(` + psdAmount + `)$`)
	psdBookingStart = regexp.MustCompile(`^(\d{2})\.(\d{2})\. (\d{2})\.(\d{2})\. (.+?)\s+(` + psdAmount + `)$`)
	psdIndented     = regexp.MustCompile(`^\s{14,15}\S.*$`)
)

// psdPending is a booking whose dates still lack a year, as the statement
// period is only known once the new balance has been read.
type psdPending struct {
	postDay, postMonth   int
	valueDay, valueMonth int
	info                 []string
	amount               float32
	label                string
}

type psdBalancing struct {
	date    time.Time
	balance float32
}

type psdParsing struct {
	bic, iban string
	opening   *psdBalancing
	closing   *psdBalancing

	current *psdPending
	pending []psdPending
}

func (p *PSDParser) ParseRaw(doc *models.Document, options map[string]string) (*models.Statement, error) {
	st := &psdParsing{}
	c := newLineCursor(trimTrailingBlank(doc.Lines))

	for c.hasNext() {
		line := c.next()

		if st.current != nil {
			for psdIndented.MatchString(line) {
				st.current.info = append(st.current.info, strings.TrimLeft(line, " \t"))
				if !c.hasNext() {
					line = ""
					break
				}
				line = c.next()
			}
			st.pending = append(st.pending, *st.current)
			st.current = nil
		}

		if err := st.parseLine(line, c.lineNo()); err != nil {
			return nil, err
		}
	}

	if st.current != nil {
		st.pending = append(st.pending, *st.current)
		st.current = nil
	}

	var missing []string
	if st.iban == "" {
		missing = append(missing, "accountId")
	}
	if st.bic == "" {
		missing = append(missing, "bankId")
	}
	if st.opening == nil {
		missing = append(missing, "from")
	}
	if st.closing == nil {
		missing = append(missing, "to")
	}
	if len(missing) > 0 {
		return nil, structuralf(c.lineNo(), "the following properties were not found: %s", strings.Join(missing, ", "))
	}

	bookings := make([]models.BookingItem, 0, len(st.pending))
	for _, b := range st.pending {
		bookings = append(bookings, models.BookingItem{
			PostDate:  ResolveDate(b.postDay, b.postMonth, st.opening.date, st.closing.date),
			ValueDate: ResolveDate(b.valueDay, b.valueMonth, st.opening.date, st.closing.date),
			Info:      b.info,
			Amount:    b.amount,
			Type:      psdTypes.Classify(b.label),
		})
	}

	in, out := SumBookings(bookings)
	sumIn, _ := in.Float64()
	sumOut, _ := out.Float64()

	return models.NewStatement(models.Statement{
		Filename:   doc.Filename,
		Locale:     language.MustParse("de-DE"),
		BankID:     st.bic,
		AccountID:  st.iban,
		FromDate:   st.opening.date.AddDate(0, 0, 1),
		ToDate:     st.closing.date,
		BalanceOld: st.opening.balance,
		BalanceNew: st.closing.balance,
		SumIn:      float32(sumIn),
		SumOut:     float32(sumOut),
		Bookings:   bookings,
	})
}

func (st *psdParsing) parseLine(line string, lineNo int) error {
	if m := psdIBANAndBIC.FindStringSubmatch(line); m != nil {
		st.iban = strings.ReplaceAll(m[1], " ", "")
		st.bic = m[2]
		return nil
	}

	if m := psdOldBalance.FindStringSubmatch(line); m != nil {
		b, err := parsePSDBalancing(m[1], m[2])
		if err != nil {
			return structuralf(lineNo, "invalid old balance: %v", err)
		}
		st.opening = b
		return nil
	}

	if m := psdNewBalance.FindStringSubmatch(line); m != nil {
		b, err := parsePSDBalancing(m[1], m[2])
		if err != nil {
			return structuralf(lineNo, "invalid new balance: %v", err)
		}
		st.closing = b
		return nil
	}

	if m := psdBookingStart.FindStringSubmatch(line); m != nil {
		amount, err := parseCreditDebit(m[6])
		if err != nil {
			return structuralf(lineNo, "invalid booking amount: %v", err)
		}
		postDay, _ := strconv.Atoi(m[1])
		postMonth, _ := strconv.Atoi(m[2])
		valueDay, _ := strconv.Atoi(m[3])
		valueMonth, _ := strconv.Atoi(m[4])

		st.current = &psdPending{
			postDay:    postDay,
			postMonth:  postMonth,
			valueDay:   valueDay,
			valueMonth: valueMonth,
			amount:     amount,
			label:      m[5],
		}
	}

	return nil
}

func parsePSDBalancing(date, amount string) (*psdBalancing, error) {
	d, err := parseFullDate(date)
	if err != nil {
		return nil, err
	}
	v, err := parseCreditDebit(amount)
	if err != nil {
		return nil, err
	}
	return &psdBalancing{date: d, balance: v}, nil
}

// parseCreditDebit parses "1.234,56 H" as 1234.56 and "1.234,56 S" as -1234.56.
func parseCreditDebit(s string) (float32, error) {
	number, suffix, ok := strings.Cut(s, " ")
	if !ok {
		return 0, fmt.Errorf("missing credit/debit suffix in %q", s)
	}
	switch suffix {
	case "H":
		return ParseAmount(number)
	case "S":
		return ParseAmount("- " + number)
	default:
		return 0, fmt.Errorf("unsupported number suffix in %q", s)
	}
}
