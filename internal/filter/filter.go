package filter

import (
	"fmt"
	"regexp"
	"time"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/bank-statement-parser/internal/models"
)

// Criteria selects booking items. Zero values match everything.
type Criteria struct {
	// From is inclusive, To exclusive; both apply to the value date.
	From, To time.Time

	Type    models.BookingType
	TypeNot models.BookingType

	InfoMatches    *regexp.Regexp
	InfoMatchesNot *regexp.Regexp

	LessOrEqual    *decimal.Decimal
	GreaterOrEqual *decimal.Decimal
}

// CompileInfoPattern compiles a case-insensitive info pattern. An empty
// pattern yields nil.
func CompileInfoPattern(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid info pattern %q: %w", pattern, err)
	}
	return re, nil
}

// Match reports whether item satisfies all criteria.
func (c *Criteria) Match(item models.BookingItem) bool {
	if !c.From.IsZero() && item.ValueDate.Before(c.From) {
		return false
	}
	if !c.To.IsZero() && !item.ValueDate.Before(c.To) {
		return false
	}
	if c.Type != "" && item.Type != c.Type {
		return false
	}
	if c.TypeNot != "" && item.Type == c.TypeNot {
		return false
	}

	if c.InfoMatches != nil || c.InfoMatchesNot != nil {
		info := item.JoinInfo(models.DefaultInfoSeparator)
		if c.InfoMatches != nil && !c.InfoMatches.MatchString(info) {
			return false
		}
		if c.InfoMatchesNot != nil && c.InfoMatchesNot.MatchString(info) {
			return false
		}
	}

	amount := decimal.NewFromFloat32(item.Amount)
	if c.LessOrEqual != nil && amount.GreaterThan(*c.LessOrEqual) {
		return false
	}
	if c.GreaterOrEqual != nil && amount.LessThan(*c.GreaterOrEqual) {
		return false
	}
	return true
}

// Apply returns the matching bookings of all statements, in statement order.
func (c *Criteria) Apply(statements []*models.Statement) []models.BookingItem {
	var out []models.BookingItem
	for _, st := range statements {
		for _, item := range st.Bookings {
			if c.Match(item) {
				out = append(out, item)
			}
		}
	}
	return out
}

// Sum adds up the amounts of items.
func Sum(items []models.BookingItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(decimal.NewFromFloat32(item.Amount))
	}
	return sum
}
