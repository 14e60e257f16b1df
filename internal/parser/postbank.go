package parser

import (
	"math"
	"regexp"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/insightdelivered/bank-statement-parser/internal/models"
)

// PostbankParser handles Postbank (and FYRST) statement PDFs as produced
// between mid 2014 and the migration to the Deutsche Bank IT system.
//
// A statement consists of an account header, one booking table per page that
// is preceded by a page header carrying IBAN (and BIC for the 2014 layout),
// and a summary block after the last table:
//
//	Auszug Jahr Seite von IBAN Alter Kontostand
//	1 2016 1 2 DE94 1001 0010 0914 0831 13 EUR - 9,90
//	Buchung/Wert Vorgang/Buchungsinformation Soll Haben
//	27.05./27.05. Gutschr.SEPA + 968,00
type PostbankParser struct{}

func (p *PostbankParser) Name() string { return "PostbankPDF" }

func (p *PostbankParser) BankType() models.BankType { return models.BankPostbank }

var postbankProducers = []string{
	"StreamServe Communication Server 5.6.2 GA Build 1210 (64 bit)",
	"StreamServe Communication Server 5.6.2 INTERNAL Build 0 (64 bit)",
	"XEP 4.19 build 20110414",
	"iText 1.4 (by lowagie.com)",
	"iText 2.0.8 (by lowagie.com)",
}

func (p *PostbankParser) IsApplicable(meta models.Metadata) bool {
	return slices.Contains(postbankProducers, meta.Producer)
}

const (
	postbankBICHeader2017 = "BIC (SWIFT):"

	postbankPageHeader2014 = "Auszug Seite IBAN BIC (SWIFT)"
	postbankPageHeader2017 = "Auszug Jahr Seite von IBAN"
	postbankPageHeaderOld  = "Alter Kontostand"

	postbankClosingHintFYRST    = "Rechnungsabschluss - siehe Hinweis"
	postbankClosingBalanceFYRST = "Abschlusssaldo per "

	postbankSummaryIn          = "Summe Zahlungseingänge"
	postbankSummaryOut         = "Dispositionskredit Zinssatz für Dispositionskredit Summe Zahlungsausgänge"
	postbankSummaryOutAlt      = "Eingeräumte Kontoüberziehung Zinssatz für eingeräumte Kontoüberziehung Summe Zahlungsausgänge"
	postbankSummaryOutFYRST    = "Kontokorrentkredit Summe Zahlungsausgänge"
	postbankBalanceNewSingular = "Zinssatz für geduldete Überziehung Anlage Neuer Kontostand"
	postbankBalanceNewPlural   = "Zinssatz für geduldete Überziehung Anlagen Neuer Kontostand"
	postbankBalanceNewFYRST    = "Zinssatz für geduldete Überziehung Neuer Kontostand "
)

var (
	postbankSupportedSince = time.Date(2014, time.July, 1, 0, 0, 0, 0, time.UTC)
	postbankFormat2017     = time.Date(2017, time.June, 1, 0, 0, 0, 0, time.UTC)

	postbankOutMarkers        = []string{postbankSummaryOut, postbankSummaryOutAlt, postbankSummaryOutFYRST}
	postbankBalanceNewMarkers = []string{postbankBalanceNewSingular, postbankBalanceNewPlural, postbankBalanceNewFYRST}
)

// Postbank line patterns.
var (
	postbankStatementDate = regexp.MustCompile(`^Kontoauszug: (.+) vom (\d\d\.\d\d\.\d\d\d\d) bis (\d\d\.\d\d\.\d\d\d\d)$`)
	postbankTableHeader   = regexp.MustCompile(`^Buchung[ /]Wert Vorgang/Buchungsinformation Soll Haben$`)

	postbankItem         = regexp.MustCompile(`^(\d\d\.\d\d\.)[ /](\d\d\.\d\d\.) (.+) ([+-] ?[\d.,]+)$`)
	postbankItemNoSign   = regexp.MustCompile(`^(\d\d\.\d\d\.)[ /](\d\d\.\d\d\.) (.+) ([\d.,]+)$`)
	postbankItemNoAmount = regexp.MustCompile(`^(\d\d\.\d\d\.)[ /](\d\d\.\d\d\.) (.+) $`)
)

type postbankState int

const (
	postbankInitial postbankState = iota
	postbankBookingHeader
	postbankBookingItem
	postbankBookingSummary
)

type postbankParsing struct {
	current    postbankState
	format2014 bool
	pageHeader string

	items []models.BookingItem

	from, to   time.Time
	iban, bic  string
	sumIn      float32
	sumOut     float32
	balanceOld float32
	balanceNew float32

	signLine string
}

func (p *PostbankParser) ParseRaw(doc *models.Document, options map[string]string) (*models.Statement, error) {
	created := doc.Metadata.CreationDate
	if !created.IsZero() && created.Before(postbankSupportedSince) {
		return nil, structuralf(0, "unsupported statement format created on %s", created.Format(time.DateOnly))
	}

	nan := float32(math.NaN())
	st := &postbankParsing{
		format2014: !created.IsZero() && created.Before(postbankFormat2017),
		pageHeader: postbankPageHeader2017,
		sumIn:      nan,
		sumOut:     nan,
		balanceOld: nan,
		balanceNew: nan,
	}
	if st.format2014 {
		st.pageHeader = postbankPageHeader2014
	}

	c := newLineCursor(trimTrailingBlank(doc.Lines))
	for c.hasNext() {
		done, err := st.parseLine(c)
		if err != nil {
			return nil, err
		}
		if done {
			break
		}
	}

	if err := st.checkMandatory(c.lineNo()); err != nil {
		return nil, err
	}

	return models.NewStatement(models.Statement{
		Filename:   doc.Filename,
		Locale:     language.MustParse("de-DE"),
		BankID:     st.bic,
		AccountID:  st.iban,
		FromDate:   st.from,
		ToDate:     st.to,
		BalanceOld: st.balanceOld,
		BalanceNew: st.balanceNew,
		SumIn:      st.sumIn,
		SumOut:     st.sumOut,
		Bookings:   st.items,
	})
}

// parseLine consumes the next line and possibly some look-ahead. It reports
// true once the new balance has been read, which ends the statement.
func (st *postbankParsing) parseLine(c *lineCursor) (bool, error) {
	line := c.next()

	if m := postbankStatementDate.FindStringSubmatch(line); m != nil {
		if !st.from.IsZero() || !st.to.IsZero() {
			return false, structuralf(c.lineNo(), "multiple statement dates found")
		}
		from, err := parseFullDate(m[2])
		if err != nil {
			return false, structuralf(c.lineNo(), "invalid statement start date %q", m[2])
		}
		to, err := parseFullDate(m[3])
		if err != nil {
			return false, structuralf(c.lineNo(), "invalid statement end date %q", m[3])
		}
		st.from, st.to = from, to
		return false, nil
	}

	if !st.format2014 && strings.Contains(line, postbankBICHeader2017) {
		_, after, _ := strings.Cut(line, postbankBICHeader2017)
		st.bic = strings.TrimSpace(after)
		return false, nil
	}

	if strings.HasPrefix(line, st.pageHeader) && c.hasNext() {
		return false, st.parsePageHeader(line, c)
	}

	switch {
	case strings.HasSuffix(line, postbankSummaryIn):
		v, err := parseSummary(postbankSummaryIn, line, c)
		if err != nil {
			return false, err
		}
		st.sumIn = v
		st.current = postbankBookingSummary
		return false, nil
	case matchesAnyPrefix(postbankOutMarkers, line) != "":
		v, err := parseSummary(matchesAnyPrefix(postbankOutMarkers, line), line, c)
		if err != nil {
			return false, err
		}
		st.sumOut = v
		st.current = postbankBookingSummary
		return false, nil
	case matchesAnyPrefix(postbankBalanceNewMarkers, line) != "":
		v, err := parseSummary(matchesAnyPrefix(postbankBalanceNewMarkers, line), line, c)
		if err != nil {
			return false, err
		}
		st.balanceNew = v
		st.current = postbankBookingSummary
		return true, nil
	}

	if line == "+" || line == "-" {
		st.signLine = line
		return false, nil
	}

	// Skip everything up to the booking table header of each page.
	if st.current == postbankInitial {
		if postbankTableHeader.MatchString(line) {
			st.current = postbankBookingHeader
		}
		return false, nil
	}

	m := postbankItem.FindStringSubmatch(line)
	if m == nil {
		if m = postbankItemNoSign.FindStringSubmatch(line); m != nil {
			if st.signLine != "" {
				// The sign was printed on the line before.
				m[4] = st.signLine + " " + m[4]
				st.signLine = ""
			}
		} else if hint := postbankItemNoAmount.FindStringSubmatch(line); hint != nil && hint[3] == postbankClosingHintFYRST {
			if c.hasNext() && !strings.HasPrefix(c.next(), postbankClosingBalanceFYRST) {
				c.back()
			}
			return false, nil
		}
	}

	if m != nil {
		item, err := st.newItem(m, c.lineNo())
		if err != nil {
			return false, err
		}
		st.items = append(st.items, item)
		st.current = postbankBookingItem
	} else if st.current == postbankBookingItem && len(st.items) > 0 {
		last := &st.items[len(st.items)-1]
		last.Info = append(last.Info, line)
	}

	return false, nil
}

func (st *postbankParsing) parsePageHeader(line string, c *lineCursor) error {
	next := c.next()
	info := splitFields(next)

	if len(info) >= 9 {
		// Only the 2014 layout repeats the BIC on every page.
		if st.format2014 {
			if st.bic != "" && st.bic != info[8] {
				return structuralf(c.lineNo(), "inconsistent BIC %q, expected %q", info[8], st.bic)
			}
			st.bic = info[8]
		}

		offset := 4
		if st.format2014 {
			offset = 2
		}
		if len(info) >= offset+6 {
			iban := strings.Join(info[offset:offset+6], "")
			if st.iban != "" && st.iban != iban {
				return structuralf(c.lineNo(), "inconsistent IBAN %q, expected %q", iban, st.iban)
			}
			st.iban = iban
		}
	}

	if strings.HasSuffix(line, postbankPageHeaderOld) {
		if m := summaryAmountPattern.FindStringSubmatch(next); m != nil {
			v, err := ParseAmount(m[3])
			if err != nil {
				return structuralf(c.lineNo(), "invalid old balance: %v", err)
			}
			st.balanceOld = v
		}
	}

	// Look for the table header of the new page.
	st.current = postbankInitial
	return nil
}

func (st *postbankParsing) newItem(m []string, lineNo int) (models.BookingItem, error) {
	postDate, err := ResolveDayMonth(m[1], st.from, st.to)
	if err != nil {
		return models.BookingItem{}, structuralf(lineNo, "invalid post date: %v", err)
	}
	valueDate, err := ResolveDayMonth(m[2], st.from, st.to)
	if err != nil {
		return models.BookingItem{}, structuralf(lineNo, "invalid value date: %v", err)
	}
	amount, err := ParseAmount(m[4])
	if err != nil {
		return models.BookingItem{}, structuralf(lineNo, "invalid booking amount: %v", err)
	}

	return models.BookingItem{
		PostDate:  postDate,
		ValueDate: valueDate,
		Info:      []string{m[3]},
		Amount:    amount,
		Type:      postbankTypes.Classify(m[3]),
	}, nil
}

func (st *postbankParsing) checkMandatory(lineNo int) error {
	switch {
	case st.from.IsZero():
		return structuralf(lineNo, "no statement start date found")
	case st.to.IsZero():
		return structuralf(lineNo, "no statement end date found")
	case st.iban == "":
		return structuralf(lineNo, "no IBAN found")
	case st.bic == "":
		return structuralf(lineNo, "no BIC found")
	case isNaN(st.sumIn):
		return structuralf(lineNo, "no incoming booking summary found")
	case isNaN(st.sumOut):
		return structuralf(lineNo, "no outgoing booking summary found")
	case isNaN(st.balanceOld):
		return structuralf(lineNo, "no old balance found")
	case isNaN(st.balanceNew):
		return structuralf(lineNo, "no new balance found")
	}
	return nil
}

// parseSummary reads the amount that follows a summary marker. The marker may
// be wrapped onto several lines; each line that continues the marker is
// consumed. If the amount line does not match on its own, it is retried
// joined with the next line, in both orders, as the extraction sometimes
// emits the amount before its label.
func parseSummary(marker, line string, c *lineCursor) (float32, error) {
	for {
		if strings.HasPrefix(marker, line) {
			marker = strings.TrimPrefix(strings.TrimPrefix(marker, line), " ")
		}
		if !c.hasNext() {
			break
		}
		line = c.next()
		if marker == "" || !strings.HasPrefix(marker, line) {
			break
		}
	}

	text := line
	m := summaryAmountPattern.FindStringSubmatch(text)
	if m == nil && c.hasNext() {
		next := strings.TrimSpace(c.next())
		text = strings.TrimSpace(line) + " " + next
		if m = summaryAmountPattern.FindStringSubmatch(text); m == nil {
			text = next + " " + strings.TrimSpace(line)
			if m = summaryAmountPattern.FindStringSubmatch(text); m == nil {
				c.back()
			}
		}
	}
	if m == nil {
		return 0, structuralf(c.lineNo(), "error parsing booking summary from text %q", text)
	}

	v, err := ParseAmount(m[3])
	if err != nil {
		return 0, structuralf(c.lineNo(), "invalid booking summary amount: %v", err)
	}
	return v, nil
}

// matchesAnyPrefix returns the first marker the line is a prefix of.
func matchesAnyPrefix(markers []string, line string) string {
	for _, marker := range markers {
		if prefixOf(marker, line) {
			return marker
		}
	}
	return ""
}

func trimTrailingBlank(lines []string) []string {
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func isNaN(f float32) bool {
	return math.IsNaN(float64(f))
}
