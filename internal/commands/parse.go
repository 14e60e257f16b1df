package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/insightdelivered/bank-statement-parser/internal/batch"
	"github.com/insightdelivered/bank-statement-parser/internal/writer"
)

func newParseCommand(a *app) *cobra.Command {
	var pf parseFlags
	var format, outputDir string
	var noHeader bool

	cmd := &cobra.Command{
		Use:   "parse [statement files or globs...]",
		Short: "Parse statements, check them for consistency and optionally export them",
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := a.parseStatements(cmd, args, &pf)
			if err != nil {
				return err
			}
			if format == "" {
				return nil
			}
			return runExport(cmd.OutOrStdout(), report, format, outputDir, !noHeader)
		},
	}

	pf.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "", "export format, csv or json; only consistency checks are run if empty")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "directory for exported files, stdout if empty")
	cmd.Flags().BoolVar(&noHeader, "no-header", false, "omit the statement rows at the top of CSV exports")

	return cmd
}

func runExport(out io.Writer, report *batch.Report, format, outputDir string, includeHeader bool) error {
	w, err := writer.New(format, includeHeader)
	if err != nil {
		return err
	}

	if outputDir != "" {
		if err := os.MkdirAll(outputDir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	fmt.Fprintf(out, "Exporting %s files...\n", format)

	exported := 0
	for _, res := range report.Results {
		if res.Err != nil {
			continue
		}

		if outputDir == "" {
			if err := w.Write(out, res.Statement); err != nil {
				return fmt.Errorf("exporting %s: %w", res.Path, err)
			}
		} else {
			path := writer.OutputPath(w, res.Path, outputDir)
			if err := writer.WriteToFile(w, path, res.Statement); err != nil {
				return err
			}
			fmt.Fprintf(out, "Successfully exported\n\t%s\n", path)
		}
		exported++
	}

	fmt.Fprintf(out, "Exported %d statement(s) in total.\n", exported)
	return nil
}
