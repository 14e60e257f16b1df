package parser

import (
	"errors"
	"fmt"
)

// ErrUnrecognizedDialect is returned when no registered parser claims a file.
var ErrUnrecognizedDialect = errors.New("no applicable parser found")

// ErrorKind tells structural failures apart from failed sanity checks.
type ErrorKind int

const (
	// KindStructural means a mandatory marker or field was missing or malformed.
	KindStructural ErrorKind = iota
	// KindSanityCheck means the bookings do not add up to the printed totals.
	KindSanityCheck
)

func (k ErrorKind) String() string {
	switch k {
	case KindStructural:
		return "structural"
	case KindSanityCheck:
		return "sanity-check"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// ParseError is returned for statements that could not be parsed. Line is the
// approximate (1-based) line the parser was at, or 0 if not applicable.
type ParseError struct {
	Kind ErrorKind
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s error at line %d: %s", e.Kind, e.Line, e.Msg)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Msg)
}

func structuralf(line int, format string, args ...any) *ParseError {
	return &ParseError{Kind: KindStructural, Line: line, Msg: fmt.Sprintf(format, args...)}
}

func sanityf(format string, args ...any) *ParseError {
	return &ParseError{Kind: KindSanityCheck, Msg: fmt.Sprintf(format, args...)}
}

// IsStructural reports whether err is a structural parse failure.
func IsStructural(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe) && pe.Kind == KindStructural
}

// IsSanityCheck reports whether err is a failed reconciliation.
func IsSanityCheck(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe) && pe.Kind == KindSanityCheck
}
