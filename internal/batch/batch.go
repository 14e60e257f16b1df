package batch

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/insightdelivered/bank-statement-parser/internal/logger"
	"github.com/insightdelivered/bank-statement-parser/internal/models"
	"github.com/insightdelivered/bank-statement-parser/internal/parser"
)

// FileParser parses a single statement file. *parser.Engine implements it.
type FileParser interface {
	ParseFile(path string, options map[string]string) (*models.Statement, error)
}

// Result is the outcome of one statement file.
type Result struct {
	Path      string
	Statement *models.Statement
	Err       error
	Elapsed   time.Duration
}

// Skipped reports whether no dialect claimed the file.
func (r Result) Skipped() bool {
	return errors.Is(r.Err, parser.ErrUnrecognizedDialect)
}

// Report collects the results of one run in input order.
type Report struct {
	RunID   uuid.UUID
	Results []Result
}

// Statements returns the successfully parsed statements in input order.
func (r *Report) Statements() []*models.Statement {
	var out []*models.Statement
	for _, res := range r.Results {
		if res.Err == nil {
			out = append(out, res.Statement)
		}
	}
	return out
}

// Failed returns the results of files that could not be parsed, excluding
// files no dialect claimed.
func (r *Report) Failed() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Err != nil && !res.Skipped() {
			out = append(out, res)
		}
	}
	return out
}

// Runner parses many statement files in parallel. A failing file never stops
// the other files.
type Runner struct {
	parser  FileParser
	workers int
	log     zerolog.Logger
}

// NewRunner returns a runner using at most workers goroutines.
func NewRunner(p FileParser, workers int, log zerolog.Logger) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{parser: p, workers: workers, log: log}
}

// Run parses all paths. Files not yet started when ctx is cancelled get the
// context error as their result.
func (r *Runner) Run(ctx context.Context, paths []string, options map[string]string) *Report {
	report := &Report{
		RunID:   uuid.New(),
		Results: make([]Result, len(paths)),
	}
	log := logger.ForRun(r.log, report.RunID)
	log.Info().Int("files", len(paths)).Int("workers", r.workers).Msg("parsing statements")

	var g errgroup.Group
	g.SetLimit(r.workers)

	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				report.Results[i] = Result{Path: path, Err: err}
				return nil
			}

			start := time.Now()
			st, err := r.parser.ParseFile(path, options)
			res := Result{Path: path, Statement: st, Err: err, Elapsed: time.Since(start)}
			report.Results[i] = res

			flog := logger.ForStatement(log, path, "")
			switch {
			case err == nil:
				flog.Info().Str("bank", st.BankID).
					Time("from", st.FromDate).Time("to", st.ToDate).
					Int("bookings", len(st.Bookings)).
					Msg("statement parsed")
			case res.Skipped():
				flog.Warn().Msg("no applicable parser found")
			default:
				flog.Error().Err(err).Msg("error parsing statement")
			}
			return nil
		})
	}

	_ = g.Wait()
	return report
}
