package parser

import (
	"fmt"
	"strings"

	"github.com/insightdelivered/bank-statement-parser/internal/models"
)

// Parser defines the interface for bank statement dialects.
type Parser interface {
	// Name is the dialect name used in options and log output, e.g. "PostbankPDF".
	Name() string
	// BankType returns the bank this dialect belongs to.
	BankType() models.BankType
	// IsApplicable decides from the document metadata alone whether this
	// dialect can read the file.
	IsApplicable(meta models.Metadata) bool
	// ParseRaw turns the extracted lines into a provisional statement. Bookings
	// carry no category and the totals are not reconciled yet.
	ParseRaw(doc *models.Document, options map[string]string) (*models.Statement, error)
}

// All returns every supported dialect in detection order.
func All() []Parser {
	return []Parser{
		&PostbankParser{},
		&PostbankDBParser{},
		&INGParser{},
		&PSDParser{},
	}
}

// New returns the parser for the given bank type.
func New(bankType models.BankType) (Parser, error) {
	for _, p := range All() {
		if p.BankType() == bankType {
			return p, nil
		}
	}
	return nil, fmt.Errorf("unsupported bank type: %q", bankType)
}

// AutoDetect identifies the bank from the document metadata.
func AutoDetect(meta models.Metadata) (models.BankType, error) {
	p, err := detect(All(), meta)
	if err != nil {
		return "", err
	}
	return p.BankType(), nil
}

func detect(parsers []Parser, meta models.Metadata) (Parser, error) {
	for _, p := range parsers {
		if p.IsApplicable(meta) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w (producer %q)", ErrUnrecognizedDialect, meta.Producer)
}

// dialectOptions picks the options addressed to one dialect. Keys are either
// plain ("textOutputDir") or prefixed with the dialect name ("PostbankPDF.key").
func dialectOptions(name string, options map[string]string) map[string]string {
	out := make(map[string]string, len(options))
	for k, v := range options {
		if dialect, key, ok := strings.Cut(k, "."); ok {
			if dialect == name {
				out[key] = v
			}
			continue
		}
		out[k] = v
	}
	return out
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
