package writer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/insightdelivered/bank-statement-parser/internal/models"
)

// CSVWriter writes the bookings of a statement in CSV format.
type CSVWriter struct {
	IncludeHeader bool
}

// Extension implements Writer.
func (w *CSVWriter) Extension() string { return ".csv" }

// Write writes bookings in CSV format to the given writer.
func (w *CSVWriter) Write(out io.Writer, st *models.Statement) error {
	writer := csv.NewWriter(out)

	// Statement metadata as comment rows
	if w.IncludeHeader {
		meta := [][]string{
			{"# Bank", st.BankID},
			{"# Account", st.AccountID},
			{"# Period", formatDate(st.FromDate) + " - " + formatDate(st.ToDate)},
			{"# Old Balance", formatAmount(st.BalanceOld)},
			{"# New Balance", formatAmount(st.BalanceNew)},
		}
		for _, row := range meta {
			if err := writer.Write(row); err != nil {
				return fmt.Errorf("failed to write CSV metadata: %w", err)
			}
		}
	}

	header := []string{"PostDate", "ValueDate", "Description", "Type", "Category", "Amount"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, item := range st.Bookings {
		row := []string{
			formatDate(item.PostDate),
			formatDate(item.ValueDate),
			item.JoinInfo(models.DefaultInfoSeparator),
			string(item.Type),
			item.Category,
			formatAmount(item.Amount),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatAmount(amount float32) string {
	return strconv.FormatFloat(float64(amount), 'f', 2, 32)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}
