package models

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// BookingType is the normalized kind of a booking, loosely following the OFX
// transaction types.
type BookingType string

const (
	BookingATM           BookingType = "ATM"
	BookingCash          BookingType = "CASH"
	BookingCheck         BookingType = "CHECK"
	BookingCredit        BookingType = "CREDIT"
	BookingDebit         BookingType = "DEBIT"
	BookingInterest      BookingType = "INTEREST"
	BookingPayment       BookingType = "PAYMENT"
	BookingRepeatPayment BookingType = "REPEAT_PAYMENT"
	BookingSalary        BookingType = "SALARY"
	BookingTransfer      BookingType = "TRANSFER"
	BookingOther         BookingType = "OTHER"
)

// BookingTypes lists every known booking type in declaration order.
var BookingTypes = []BookingType{
	BookingATM, BookingCash, BookingCheck, BookingCredit, BookingDebit, BookingInterest,
	BookingPayment, BookingRepeatPayment, BookingSalary, BookingTransfer, BookingOther,
}

// ParseBookingType returns the booking type with the given (case-insensitive) name.
func ParseBookingType(s string) (BookingType, bool) {
	for _, t := range BookingTypes {
		if strings.EqualFold(string(t), s) {
			return t, true
		}
	}
	return "", false
}

// BookingItem represents a single transaction of a statement.
type BookingItem struct {
	PostDate  time.Time   `json:"postDate"`
	ValueDate time.Time   `json:"valueDate"`
	Info      []string    `json:"info"`
	Amount    float32     `json:"amount"`
	Type      BookingType `json:"type"`
	Category  string      `json:"category,omitempty"`
}

// DefaultInfoSeparator separates narration lines that are not hyphen-wrapped.
const DefaultInfoSeparator = ", "

// JoinInfo joins the narration lines into a single string. Lines ending in a
// hyphen are glued to the next line: the hyphen is dropped if a lower-case
// word was wrapped ("Telto-" + "wer" -> "Teltower") and kept for compounds
// ("Einreicher-" + "ID" -> "Einreicher-ID").
func (b BookingItem) JoinInfo(sep string) string {
	var sb strings.Builder
	glue := false

	for i, line := range b.Info {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if i > 0 && sb.Len() > 0 && !glue {
			sb.WriteString(sep)
		}

		if glue && startsLower(line) && endsLowerHyphen(sb.String()) {
			s := sb.String()
			sb.Reset()
			sb.WriteString(s[:len(s)-1])
		}

		sb.WriteString(line)
		glue = endsLetterHyphen(line)
	}

	return sb.String()
}

func endsLetterHyphen(s string) bool {
	if !strings.HasSuffix(s, "-") {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(s[:len(s)-1])
	return unicode.IsLetter(r)
}

func endsLowerHyphen(s string) bool {
	if !strings.HasSuffix(s, "-") {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(s[:len(s)-1])
	return unicode.IsLower(r)
}

func startsLower(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsLower(r)
}
