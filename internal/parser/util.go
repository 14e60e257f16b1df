package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Common patterns found in German bank statements.
var (
	// 1.234,56 or 1234,56 without any sign
	germanNumberPattern = regexp.MustCompile(`^(?:\d{1,3}(?:\.\d{3})+|\d+)(?:,\d+)?$`)
	// DD.MM. without year, as printed in booking tables
	dayMonthPattern = regexp.MustCompile(`^(\d{2})\.(\d{2})\.$`)
	// "... EUR + 1.234,56" as printed in summary and page header lines
	summaryAmountPattern = regexp.MustCompile(`^(.*) ?(EUR) ((?:\+ |- |)[\d.,]+)$`)
)

// fullDateLayout is the layout of DD.MM.YYYY dates.
const fullDateLayout = "02.01.2006"

// ParseAmount converts a German formatted amount like "+ 1.234,56" or
// "-12,00" to a float32. A missing space after the sign and a period used as
// decimal separator are repaired first. Amounts without a sign are positive.
func ParseAmount(s string) (float32, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\u00A0", " "))
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}

	// Work around a period being used instead of a comma.
	if n := len(s); n >= 3 && s[n-3] == '.' {
		s = s[:n-3] + "," + s[n-2:]
	}

	negative := false
	if s[0] == '+' || s[0] == '-' {
		negative = s[0] == '-'
		s = strings.TrimSpace(s[1:])
	}

	if s == "0,00" {
		return 0, nil
	}

	if !germanNumberPattern.MatchString(s) {
		return 0, fmt.Errorf("invalid amount %q", s)
	}

	d, err := decimal.NewFromString(strings.Replace(strings.ReplaceAll(s, ".", ""), ",", ".", 1))
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if d.IsZero() {
		return 0, nil
	}
	if negative {
		d = d.Neg()
	}

	f, _ := d.Float64()
	return float32(f), nil
}

// ResolveDate finds the year for a day and month printed without one. The
// latest candidate year within [from, to] wins; if no candidate fits, the year
// of from is used.
func ResolveDate(day, month int, from, to time.Time) time.Time {
	resolved := time.Date(from.Year(), time.Month(month), day, 0, 0, 0, 0, time.UTC)

	for year := from.Year(); year <= to.Year(); year++ {
		candidate := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		if candidate.Day() != day || candidate.Month() != time.Month(month) {
			// Not a valid calendar date in this year, e.g. 29.02.
			continue
		}
		if !candidate.Before(from) && !candidate.After(to) {
			resolved = candidate
		}
	}

	return resolved
}

// ResolveDayMonth is ResolveDate for a "DD.MM." token.
func ResolveDayMonth(token string, from, to time.Time) (time.Time, error) {
	m := dayMonthPattern.FindStringSubmatch(token)
	if m == nil {
		return time.Time{}, fmt.Errorf("invalid day and month %q", token)
	}

	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("invalid day and month %q", token)
	}

	return ResolveDate(day, month, from, to), nil
}

func parseFullDate(s string) (time.Time, error) {
	return time.Parse(fullDateLayout, s)
}

// lineCursor walks the lines of a document and supports a single step back,
// which is all the dialects need for their look-ahead.
type lineCursor struct {
	lines []string
	pos   int
}

func newLineCursor(lines []string) *lineCursor {
	return &lineCursor{lines: lines}
}

func (c *lineCursor) hasNext() bool {
	return c.pos < len(c.lines)
}

func (c *lineCursor) next() string {
	line := c.lines[c.pos]
	c.pos++
	return line
}

func (c *lineCursor) back() {
	if c.pos > 0 {
		c.pos--
	}
}

// lineNo is the 1-based number of the line returned last.
func (c *lineCursor) lineNo() int {
	return c.pos
}

// prefixOf reports whether the non-empty line is a prefix of marker, i.e. the
// line may be the beginning of a marker that wraps onto further lines.
func prefixOf(marker, line string) bool {
	return line != "" && strings.HasPrefix(marker, line)
}

// splitFields splits a line on single spaces and drops trailing blanks.
func splitFields(line string) []string {
	parts := strings.Split(line, " ")
	for len(parts) > 0 && strings.TrimSpace(parts[len(parts)-1]) == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}
