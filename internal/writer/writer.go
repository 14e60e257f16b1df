package writer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/insightdelivered/bank-statement-parser/internal/models"
)

// Writer renders a parsed statement.
type Writer interface {
	Write(out io.Writer, st *models.Statement) error
	// Extension is the file extension of the output, including the dot.
	Extension() string
}

// New returns the writer for the given format name ("csv" or "json").
func New(format string, includeHeader bool) (Writer, error) {
	switch strings.ToLower(format) {
	case "csv", "":
		return &CSVWriter{IncludeHeader: includeHeader}, nil
	case "json":
		return &JSONWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format %q, use csv or json", format)
	}
}

// WriteToFile writes st to path.
func WriteToFile(w Writer, path string, st *models.Statement) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}

	if err := w.Write(f, st); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// OutputPath derives the output file for a statement file: the input name with
// the writer's extension, placed in dir or next to the input if dir is empty.
func OutputPath(w Writer, inputPath, dir string) string {
	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath)) + w.Extension()
	if dir == "" {
		dir = filepath.Dir(inputPath)
	}
	return filepath.Join(dir, base)
}
