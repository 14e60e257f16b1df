package extractor

import (
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/ledongthuc/pdf"

	"github.com/insightdelivered/bank-statement-parser/internal/models"
)

// ExtractDocument reads a statement file and returns its text lines together
// with the PDF metadata. Plain ".txt" files (e.g. earlier text dumps) are read
// as is and carry no metadata.
func ExtractDocument(filePath string) (*models.Document, error) {
	if strings.EqualFold(filepath.Ext(filePath), ".txt") {
		return readTextFile(filePath)
	}

	meta, err := ReadMetadata(filePath)
	if err != nil {
		return nil, err
	}

	pages, err := extractPages(filePath)
	if err != nil {
		return nil, err
	}

	return &models.Document{
		Filename: filepath.Base(filePath),
		Metadata: meta,
		Lines:    joinPages(pages),
	}, nil
}

// ReadMetadata returns the producer and creation date from the PDF Info
// dictionary. Missing entries are left empty.
func ReadMetadata(filePath string) (meta models.Metadata, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reading PDF metadata of %s: %v", filePath, r)
		}
	}()

	f, r, err := pdf.Open(filePath)
	if err != nil {
		return models.Metadata{}, fmt.Errorf("opening %s: %w", filePath, err)
	}
	defer f.Close()

	info := r.Trailer().Key("Info")
	if info.IsNull() {
		return models.Metadata{}, nil
	}

	meta.Producer = strings.TrimSpace(info.Key("Producer").Text())
	meta.CreationDate, _ = ParsePDFDate(info.Key("CreationDate").Text())
	return meta, nil
}

// ParsePDFDate parses the date part of a PDF date string like
// "D:20160602093012+02'00'".
func ParsePDFDate(s string) (time.Time, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "D:")
	if len(s) < 8 {
		return time.Time{}, fmt.Errorf("invalid PDF date %q", s)
	}
	return time.Parse("20060102", s[:8])
}

// extractPages returns the text of every page. The pdftotext command
// (poppler-utils) is tried when ledongthuc/pdf yields no statement text, e.g.
// for fonts without a usable encoding.
func extractPages(filePath string) ([]string, error) {
	pages, libErr := extractWithLibrary(filePath)
	if libErr == nil && isReadableText(pages) {
		return pages, nil
	}

	pages, popplerErr := extractWithPdftotext(filePath)
	if popplerErr == nil && isReadableText(pages) {
		return pages, nil
	}

	if libErr != nil {
		return nil, fmt.Errorf("extracting text of %s: %w", filePath, libErr)
	}
	return nil, fmt.Errorf("no statement text found in %s; scanned statements are not supported", filePath)
}

func readTextFile(filePath string) (*models.Document, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filePath, err)
	}
	return &models.Document{
		Filename: filepath.Base(filePath),
		Lines:    SplitLines(string(data)),
	}, nil
}

// SplitLines splits already extracted text into lines. Windows line endings
// and trailing empty lines are dropped.
func SplitLines(text string) []string {
	text = strings.TrimRight(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// joinPages splits the pages into lines. Every page ends with a line break so
// the last line of a page never runs into the first line of the next one.
func joinPages(pages []string) []string {
	var lines []string
	for _, page := range pages {
		lines = append(lines, strings.Split(strings.TrimRight(page, "\n"), "\n")...)
	}
	return lines
}

// textQuality returns the ratio of readable characters (ASCII letters and
// digits, German umlauts, common punctuation, whitespace) to total characters.
func textQuality(pages []string) float64 {
	total := 0
	readable := 0
	for _, page := range pages {
		for _, r := range page {
			total++
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
				(r >= '0' && r <= '9') || unicode.IsSpace(r) ||
				strings.ContainsRune(".,-/:;()'\"€%&@#!?+=*", r) ||
				strings.ContainsRune("äöüÄÖÜß", r) {
				readable++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(readable) / float64(total)
}

// commonWords appear in virtually all German bank statements. If the
// extracted text contains none of them, it is likely garbage.
var commonWords = []string{
	"kontoauszug", "konto", "saldo", "kontostand", "iban", "bic",
	"buchung", "datum", "betrag", "seite", "wert", "valuta", "euro", "eur",
}

func containsCommonWords(pages []string) bool {
	combined := strings.ToLower(strings.Join(pages, " "))
	for _, word := range commonWords {
		if strings.Contains(combined, word) {
			return true
		}
	}
	return false
}

// isReadableText requires >50 chars, >60% readable characters and at least
// one common word.
func isReadableText(pages []string) bool {
	if totalTextLen(pages) <= 50 {
		return false
	}
	if textQuality(pages) <= 0.6 {
		return false
	}
	return containsCommonWords(pages)
}

// extractWithPdftotext runs pdftotext in layout mode, which keeps the
// indentation of each line. Pages are separated by form feeds.
func extractWithPdftotext(filePath string) ([]string, error) {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return nil, fmt.Errorf("pdftotext not available: %w", err)
	}

	out, err := exec.Command("pdftotext", "-layout", "-enc", "UTF-8", filePath, "-").Output()
	if err != nil {
		return nil, fmt.Errorf("running pdftotext: %w", err)
	}

	var pages []string
	for _, page := range strings.Split(string(out), "\f") {
		var lines []string
		for _, line := range strings.Split(page, "\n") {
			if line = trimLine(line); line != "" {
				lines = append(lines, line)
			}
		}
		if len(lines) > 0 {
			pages = append(pages, strings.Join(lines, "\n"))
		}
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("pdftotext produced no output")
	}
	return pages, nil
}

// extractWithLibrary uses the ledongthuc/pdf library with row and content
// based extraction.
func extractWithLibrary(filePath string) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("PDF library crashed: %v", r)
		}
	}()

	f, r, openErr := pdf.Open(filePath)
	if openErr != nil {
		return nil, openErr
	}
	defer f.Close()

	numPages := r.NumPage()
	if numPages == 0 {
		return nil, fmt.Errorf("PDF has no pages")
	}

	// GetTextByRow keeps words of a row apart, which the booking patterns rely on.
	pages = extractByRow(r, numPages)
	if isReadableText(pages) {
		return pages, nil
	}

	return extractByContent(r, numPages), nil
}

func extractByRow(r *pdf.Reader, numPages int) []string {
	var pages []string
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		var lines []string
		for _, row := range rows {
			parts := make([]string, 0, len(row.Content))
			for _, word := range row.Content {
				if word.S != "" {
					parts = append(parts, word.S)
				}
			}
			if line := trimLine(strings.Join(parts, " ")); line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return pages
}

// extractByContent groups text pieces by Y coordinate to reconstruct rows,
// then sorts each row by X.
func extractByContent(r *pdf.Reader, numPages int) []string {
	type textItem struct {
		x float64
		s string
	}

	var pages []string
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content := page.Content()
		if len(content.Text) == 0 {
			continue
		}

		// Spaces are kept as glyphs so indented rows stay indented.
		rowMap := make(map[int][]textItem)
		for _, t := range content.Text {
			if t.S == "" {
				continue
			}
			yKey := int(math.Round(t.Y))
			rowMap[yKey] = append(rowMap[yKey], textItem{x: t.X, s: t.S})
		}

		// PDF Y goes bottom-to-top
		yKeys := make([]int, 0, len(rowMap))
		for y := range rowMap {
			yKeys = append(yKeys, y)
		}
		sort.Sort(sort.Reverse(sort.IntSlice(yKeys)))

		var lines []string
		for _, y := range yKeys {
			items := rowMap[y]
			sort.Slice(items, func(a, b int) bool {
				return items[a].x < items[b].x
			})

			var sb strings.Builder
			var prevX float64
			for j, item := range items {
				if j > 0 && item.x-prevX > 15 {
					sb.WriteByte(' ')
				}
				sb.WriteString(item.s)
				prevX = item.x
			}
			if line := trimLine(sb.String()); line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return pages
}

// trimLine drops trailing whitespace only. Leading whitespace is part of the
// layout: PSD Bank narration lines are recognised by their indentation.
func trimLine(line string) string {
	if strings.TrimSpace(line) == "" {
		return ""
	}
	return strings.TrimRight(line, " \t\r")
}

func totalTextLen(pages []string) int {
	n := 0
	for _, p := range pages {
		n += len(strings.TrimSpace(p))
	}
	return n
}
