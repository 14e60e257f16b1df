package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/insightdelivered/bank-statement-parser/internal/category"
	"github.com/insightdelivered/bank-statement-parser/internal/extractor"
	"github.com/insightdelivered/bank-statement-parser/internal/logger"
	"github.com/insightdelivered/bank-statement-parser/internal/models"
)

// Options understood by the engine itself. All other options are handed to
// the dialect, see dialectOptions.
const (
	// OptionTextOutputDir names a directory the extracted text is written to.
	OptionTextOutputDir = "textOutputDir"
	// OptionBank forces a dialect by bank type instead of detecting it.
	OptionBank = "bank"
)

// ExtractFunc turns a statement file into lines and metadata.
type ExtractFunc func(path string) (*models.Document, error)

// Observer is notified once per parsed file. dialect is empty if no dialect
// was selected.
type Observer interface {
	Observe(dialect string, bookings int, elapsed time.Duration, err error)
}

// Engine detects the dialect of a statement, parses it, assigns categories
// and reconciles the totals.
type Engine struct {
	parsers   []Parser
	config    *category.Configuration
	extract   ExtractFunc
	tolerance decimal.Decimal
	observer  Observer
	log       zerolog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the logger, which is silent by default.
func WithLogger(log zerolog.Logger) EngineOption {
	return func(e *Engine) { e.log = log }
}

// WithExtractor replaces the PDF extractor.
func WithExtractor(fn ExtractFunc) EngineOption {
	return func(e *Engine) { e.extract = fn }
}

// WithParsers replaces the registered dialects.
func WithParsers(parsers ...Parser) EngineOption {
	return func(e *Engine) { e.parsers = parsers }
}

// WithTolerance sets the accepted difference between computed and printed totals.
func WithTolerance(tolerance decimal.Decimal) EngineOption {
	return func(e *Engine) { e.tolerance = tolerance }
}

// WithObserver reports every parsed file to o, e.g. for metrics.
func WithObserver(o Observer) EngineOption {
	return func(e *Engine) { e.observer = o }
}

// NewEngine returns an engine using cfg for categories; a nil cfg assigns none.
func NewEngine(cfg *category.Configuration, opts ...EngineOption) *Engine {
	if cfg == nil {
		cfg = category.Empty
	}
	e := &Engine{
		parsers:   All(),
		config:    cfg,
		extract:   extractor.ExtractDocument,
		tolerance: defaultTolerance(),
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Parsers returns the registered dialects in detection order.
func (e *Engine) Parsers() []Parser {
	return append([]Parser(nil), e.parsers...)
}

// IsApplicable reports whether any dialect claims the file. Only the
// metadata is read.
func (e *Engine) IsApplicable(path string) bool {
	meta, err := extractor.ReadMetadata(path)
	if err != nil {
		return false
	}
	_, err = e.Detect(meta)
	return err == nil
}

// Detect returns the first dialect that claims a document with the given
// metadata, or ErrUnrecognizedDialect.
func (e *Engine) Detect(meta models.Metadata) (Parser, error) {
	return detect(e.parsers, meta)
}

// ParseFile extracts and parses a statement file. The extracted text is
// written to the directory named by OptionTextOutputDir, which may be given
// globally or for the selected dialect only.
func (e *Engine) ParseFile(path string, options map[string]string) (*models.Statement, error) {
	start := time.Now()

	doc, err := e.extract(path)
	if err != nil {
		err = fmt.Errorf("extracting %s: %w", path, err)
		e.observe("", nil, start, err)
		return nil, err
	}

	p, err := e.selectParser(doc, options)
	if err != nil {
		e.observe("", nil, start, err)
		return nil, err
	}

	if dir := dialectOptions(p.Name(), options)[OptionTextOutputDir]; dir != "" {
		if err := writeTextOutput(dir, path, doc); err != nil {
			e.observe(p.Name(), nil, start, err)
			return nil, err
		}
	}

	st, err := e.parseWith(p, doc, options)
	e.observe(p.Name(), st, start, err)
	return st, err
}

// ParseDocument parses already extracted lines. The returned statement has
// categories assigned and its totals verified.
func (e *Engine) ParseDocument(doc *models.Document, options map[string]string) (*models.Statement, error) {
	start := time.Now()

	p, err := e.selectParser(doc, options)
	if err != nil {
		e.observe("", nil, start, err)
		return nil, err
	}

	st, err := e.parseWith(p, doc, options)
	e.observe(p.Name(), st, start, err)
	return st, err
}

func (e *Engine) parseWith(p Parser, doc *models.Document, options map[string]string) (*models.Statement, error) {
	log := logger.ForStatement(e.log, doc.Filename, p.Name())
	log.Debug().Str("producer", doc.Metadata.Producer).Msg("dialect selected")

	raw, err := p.ParseRaw(doc, dialectOptions(p.Name(), options))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.Name(), err)
	}

	for _, item := range raw.Bookings {
		log.Debug().
			Time("postDate", item.PostDate).
			Float32("amount", item.Amount).
			Str("type", string(item.Type)).
			Msg("booking item created")
	}

	st := raw.WithBookings(e.config.Categorize(raw.Bookings))

	if err := Reconcile(st, e.tolerance); err != nil {
		return nil, fmt.Errorf("%s: %w", p.Name(), err)
	}

	log.Debug().Int("bookings", len(st.Bookings)).Msg("statement parsed")
	return st, nil
}

func (e *Engine) observe(dialect string, st *models.Statement, start time.Time, err error) {
	if e.observer == nil {
		return
	}
	bookings := 0
	if st != nil {
		bookings = len(st.Bookings)
	}
	e.observer.Observe(dialect, bookings, time.Since(start), err)
}

func (e *Engine) selectParser(doc *models.Document, options map[string]string) (Parser, error) {
	if bank := options[OptionBank]; bank != "" {
		for _, p := range e.parsers {
			if string(p.BankType()) == bank || strings.EqualFold(p.Name(), bank) {
				return p, nil
			}
		}
		return nil, fmt.Errorf("%w: unknown bank %q", ErrUnrecognizedDialect, bank)
	}
	return e.Detect(doc.Metadata)
}

func writeTextOutput(dir, path string, doc *models.Document) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating text output directory: %w", err)
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	out := filepath.Join(dir, base+".txt")
	if err := os.WriteFile(out, []byte(doc.Text()+"\n"), 0o644); err != nil {
		return fmt.Errorf("writing text output: %w", err)
	}
	return nil
}
