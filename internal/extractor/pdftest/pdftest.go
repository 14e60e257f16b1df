// Package pdftest builds small statement PDFs for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Info is the document information dictionary of a generated PDF.
type Info struct {
	Producer string
	Created  time.Time
}

// Build returns a single-page PDF showing lines top to bottom in Courier,
// one text object per line. Leading spaces are part of the shown text, the
// way statement printers indent narration lines.
func Build(info Info, lines []string) []byte {
	var content bytes.Buffer
	content.WriteString("BT\n/F1 9 Tf\n")
	for i, line := range lines {
		fmt.Fprintf(&content, "1 0 0 1 30 %d Tm\n(%s) Tj\n", 810-11*i, literal(line))
	}
	content.WriteString("ET\n")

	infoDict := "<< /Producer (" + literal(info.Producer) + ")"
	if !info.Created.IsZero() {
		infoDict += " /CreationDate (D:" + info.Created.Format("20060102150405") + ")"
	}
	infoDict += " >>"

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 595 842] " +
			"/Resources << /Font << /F1 5 0 R >> >> /Contents 4 0 R >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", content.Len(), content.String()),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Courier /Encoding /WinAnsiEncoding >>",
		infoDict,
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R /Info 6 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(objects)+1, xref)

	return buf.Bytes()
}

// Write stores the PDF built from info and lines at path.
func Write(tb testing.TB, path string, info Info, lines []string) {
	tb.Helper()
	require.NoError(tb, os.WriteFile(path, Build(info, lines), 0o644))
}

// literal encodes s as the body of a PDF string literal in WinAnsi, which
// matches Latin-1 for umlauts.
func literal(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '(' || r == ')' || r == '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r < 0x80:
			b.WriteRune(r)
		case r <= 0xff:
			b.WriteByte(byte(r))
		default:
			b.WriteByte('?')
		}
	}
	return b.String()
}
