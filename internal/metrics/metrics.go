package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/insightdelivered/bank-statement-parser/internal/parser"
)

// Outcome labels.
const (
	OutcomeOK           = "ok"
	OutcomeUnrecognized = "unrecognized"
	OutcomeStructural   = "structural"
	OutcomeSanityCheck  = "sanity_check"
	OutcomeError        = "error"
)

// Metrics counts parsed statements.
type Metrics struct {
	parsed   *prometheus.CounterVec
	duration *prometheus.HistogramVec
	bookings prometheus.Counter
}

// New registers the statement metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		parsed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "statements_parsed_total",
				Help: "Total number of statement files processed",
			},
			[]string{"dialect", "outcome"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "statement_parse_duration_seconds",
				Help:    "Duration of extracting and parsing a statement file",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2, 5, 10},
			},
			[]string{"dialect"},
		),
		bookings: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "statement_bookings_total",
				Help: "Total number of booking items parsed",
			},
		),
	}
}

// Observe records one processed file. dialect may be empty if none was found.
func (m *Metrics) Observe(dialect string, bookings int, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	if dialect == "" {
		dialect = "none"
	}
	m.parsed.WithLabelValues(dialect, Outcome(err)).Inc()
	m.duration.WithLabelValues(dialect).Observe(elapsed.Seconds())
	if err == nil {
		m.bookings.Add(float64(bookings))
	}
}

// Outcome maps a parse error to its outcome label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, parser.ErrUnrecognizedDialect):
		return OutcomeUnrecognized
	case parser.IsStructural(err):
		return OutcomeStructural
	case parser.IsSanityCheck(err):
		return OutcomeSanityCheck
	default:
		return OutcomeError
	}
}
