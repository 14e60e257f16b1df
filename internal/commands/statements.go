package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/insightdelivered/bank-statement-parser/internal/batch"
	"github.com/insightdelivered/bank-statement-parser/internal/category"
	"github.com/insightdelivered/bank-statement-parser/internal/parser"
)

// parseFlags are the flags of every command that parses statements.
type parseFlags struct {
	parserOptions []string
	workers       int
}

func (f *parseFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&f.parserOptions, "parser-option", "P", nil,
		`parser option "key=value", or "Parser=key=value" for one parser only, e.g. -P PostbankPDF=textOutputDir=text`)
	cmd.Flags().IntVarP(&f.workers, "workers", "w", 0, "files parsed in parallel, from the settings if 0")
}

// parserOptions merges -P flags into engine options. Options for a single
// parser are keyed "Parser.key"; the parser name is case-insensitive.
func parserOptions(flags []string, parsers []parser.Parser) (map[string]string, error) {
	options := make(map[string]string, len(flags))
	for _, flag := range flags {
		first, rest, ok := strings.Cut(flag, "=")
		if !ok || first == "" {
			return nil, fmt.Errorf("invalid parser option %q, expected key=value", flag)
		}

		key, value, scoped := strings.Cut(rest, "=")
		if !scoped {
			options[first] = rest
			continue
		}
		if key == "" {
			return nil, fmt.Errorf("invalid parser option %q, expected Parser=key=value", flag)
		}

		name, err := parserName(first, parsers)
		if err != nil {
			return nil, err
		}
		options[name+"."+key] = value
	}
	return options, nil
}

func parserName(name string, parsers []parser.Parser) (string, error) {
	names := make([]string, 0, len(parsers))
	for _, p := range parsers {
		if strings.EqualFold(p.Name(), name) {
			return p.Name(), nil
		}
		names = append(names, p.Name())
	}
	return "", fmt.Errorf("parser %q must be one of %s", name, strings.Join(names, ", "))
}

func parserNames(parsers []parser.Parser) string {
	names := make([]string, len(parsers))
	for i, p := range parsers {
		names[i] = p.Name()
	}
	return "[" + strings.Join(names, ", ") + "]"
}

// statementFiles returns the files named by the category configuration
// followed by those matching args.
func (a *app) statementFiles(args []string) ([]string, error) {
	configured, err := a.categories.StatementFiles()
	if err != nil {
		return nil, err
	}
	files, err := category.ResolveGlobs(append(configured, args...))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errors.New("no statement file(s) specified")
	}
	return files, nil
}

// parseStatements parses all statement files and checks that the parsed
// statements form one consistent sequence.
func (a *app) parseStatements(cmd *cobra.Command, args []string, f *parseFlags) (*batch.Report, error) {
	files, err := a.statementFiles(args)
	if err != nil {
		return nil, err
	}

	engine := parser.NewEngine(a.categories, parser.WithLogger(a.log))

	options, err := parserOptions(f.parserOptions, engine.Parsers())
	if err != nil {
		return nil, err
	}
	if _, ok := options[parser.OptionTextOutputDir]; !ok && a.cfg.TextOutputDir != "" {
		options[parser.OptionTextOutputDir] = a.cfg.TextOutputDir
	}

	workers := a.cfg.Workers
	if f.workers > 0 {
		workers = f.workers
	}

	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	fmt.Fprintf(out, "Parsing statements with %s...\n", parserNames(engine.Parsers()))

	report := batch.NewRunner(engine, workers, a.log).Run(cmd.Context(), files, options)
	for _, res := range report.Results {
		switch {
		case res.Err == nil:
			fmt.Fprintf(out, "Successfully parsed statement '%s' dated from %s to %s.\n",
				res.Path, res.Statement.FromDate.Format(dateLayout), res.Statement.ToDate.Format(dateLayout))
		case res.Skipped():
			fmt.Fprintf(out, "No applicable parser found for file '%s'.\n", res.Path)
		default:
			fmt.Fprintf(errOut, "Error parsing '%s': %v\n", res.Path, res.Err)
		}
	}

	statements := report.Statements()
	fmt.Fprintf(out, "Successfully parsed %d of %d statement(s).\n\n", len(statements), len(files))
	if len(statements) == 0 {
		return nil, errors.New("no statements found")
	}

	fmt.Fprintln(out, "Checking parsed statements for consistency...")
	if err := batch.CheckConsistency(statements); err != nil {
		return nil, err
	}
	fmt.Fprintf(out, "All %d parsed statements of originally %d statements passed the consistency checks.\n\n",
		len(statements), len(files))

	return report, nil
}
