package models

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/language"
)

// BankType identifies a supported statement dialect.
type BankType string

const (
	BankPostbank   BankType = "postbank"
	BankPostbankDB BankType = "postbank-db"
	BankING        BankType = "ing"
	BankPSD        BankType = "psd"
)

// Metadata holds the document properties used to pick a dialect.
type Metadata struct {
	Producer     string    `json:"producer,omitempty"`
	CreationDate time.Time `json:"creationDate,omitempty"`
}

// Document is the extracted text of one statement file, one entry per line.
// Pages are separated by a line break, nothing else.
type Document struct {
	Filename string
	Metadata Metadata
	Lines    []string
}

// Text returns the document lines joined by new-lines.
func (d *Document) Text() string {
	return strings.Join(d.Lines, "\n")
}

// Statement is one banking period of one account.
type Statement struct {
	Filename   string        `json:"filename"`
	Locale     language.Tag  `json:"locale"`
	BankID     string        `json:"bankId"`
	AccountID  string        `json:"accountId"`
	FromDate   time.Time     `json:"fromDate"`
	ToDate     time.Time     `json:"toDate"`
	BalanceOld float32       `json:"balanceOld"`
	BalanceNew float32       `json:"balanceNew"`
	SumIn      float32       `json:"sumIn"`
	SumOut     float32       `json:"sumOut"`
	Bookings   []BookingItem `json:"bookings"`
}

// NewStatement validates the identifiers and returns the statement.
func NewStatement(st Statement) (*Statement, error) {
	if strings.IndexFunc(st.BankID, unicode.IsSpace) >= 0 {
		return nil, fmt.Errorf("bank ID %q must not contain whitespace", st.BankID)
	}
	if strings.IndexFunc(st.AccountID, unicode.IsSpace) >= 0 {
		return nil, fmt.Errorf("account ID %q must not contain whitespace", st.AccountID)
	}
	if st.Bookings == nil {
		st.Bookings = []BookingItem{}
	}
	return &st, nil
}

// WithBookings returns a copy of the statement carrying the given bookings.
func (s *Statement) WithBookings(items []BookingItem) *Statement {
	c := *s
	c.Bookings = items
	return &c
}
