package writer

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/insightdelivered/bank-statement-parser/internal/models"
)

// JSONWriter writes the whole statement as an indented JSON document.
type JSONWriter struct{}

// Extension implements Writer.
func (w *JSONWriter) Extension() string { return ".json" }

func (w *JSONWriter) Write(out io.Writer, st *models.Statement) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(st); err != nil {
		return fmt.Errorf("failed to write JSON: %w", err)
	}
	return nil
}
