package extractor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightdelivered/bank-statement-parser/internal/extractor/pdftest"
)

func TestParsePDFDate(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"D:20160602093012+02'00'", time.Date(2016, 6, 2, 0, 0, 0, 0, time.UTC), false},
		{"D:20140701", time.Date(2014, 7, 1, 0, 0, 0, 0, time.UTC), false},
		{"20170531120000Z", time.Date(2017, 5, 31, 0, 0, 0, 0, time.UTC), false},
		{"D:2016", time.Time{}, true},
		{"", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePDFDate(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v", got)
		})
	}
}

func TestExtractDocument_TextFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "PB_KAZ_KtoNr_0914083113_06-06-2016.txt")
	text := "Kontoauszug: Postbank Giro extra plus vom 02.04.2016 bis 02.06.2016\r\n" +
		"BIC (SWIFT): PBNKDEFF\r\n\r\n"
	require.NoError(t, os.WriteFile(path, []byte(text), 0o600))

	doc, err := ExtractDocument(path)
	require.NoError(t, err)

	assert.Equal(t, "PB_KAZ_KtoNr_0914083113_06-06-2016.txt", doc.Filename)
	assert.Empty(t, doc.Metadata.Producer)
	assert.Equal(t, []string{
		"Kontoauszug: Postbank Giro extra plus vom 02.04.2016 bis 02.06.2016",
		"BIC (SWIFT): PBNKDEFF",
	}, doc.Lines)
}

func TestExtractDocument_PDFKeepsIndentation(t *testing.T) {
	lines := []string{
		"IBAN: DE12 3456 7890 1234 5678 90 BIC: GENODEF1P01",
		"alter Kontostand vom 30.12.2019          1.000,00 H",
		"02.01. 02.01. Lastschrift (SEPA)          49,90 S",
		"              STADTWERKE MUSTERSTADT",
		"               ABSCHLAG JANUAR",
		"          neuer Kontostand vom 31.01.2020      950,10 H",
	}
	path := filepath.Join(t.TempDir(), "Kontoauszug_2020_001.pdf")
	created := time.Date(2020, 2, 1, 9, 30, 0, 0, time.UTC)
	pdftest.Write(t, path, pdftest.Info{Producer: "Compart MFFPDF I/O Filter", Created: created}, lines)

	doc, err := ExtractDocument(path)
	require.NoError(t, err)

	assert.Equal(t, "Kontoauszug_2020_001.pdf", doc.Filename)
	assert.Equal(t, "Compart MFFPDF I/O Filter", doc.Metadata.Producer)
	assert.Equal(t, time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC), doc.Metadata.CreationDate)
	assert.Equal(t, lines, doc.Lines)
}

func TestTrimLine(t *testing.T) {
	assert.Equal(t, "              NARRATION", trimLine("              NARRATION \t\r"))
	assert.Equal(t, "", trimLine(" \t "))
}

func TestExtractDocument_MissingFile(t *testing.T) {
	_, err := ExtractDocument(filepath.Join(t.TempDir(), "missing.pdf"))
	assert.Error(t, err)

	_, err = ExtractDocument(filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestJoinPages(t *testing.T) {
	lines := joinPages([]string{"Seite 1\nZeile 2\n", "Seite 2"})
	assert.Equal(t, []string{"Seite 1", "Zeile 2", "Seite 2"}, lines)
}

func TestIsReadableText(t *testing.T) {
	tests := []struct {
		name  string
		pages []string
		want  bool
	}{
		{
			name:  "statement text",
			pages: []string{"Kontoauszug: Postbank Giro extra plus vom 02.04.2016 bis 02.06.2016\nAlter Kontostand EUR - 9,90"},
			want:  true,
		},
		{
			name:  "too short",
			pages: []string{"Saldo 1,00"},
			want:  false,
		},
		{
			name:  "garbage glyphs",
			pages: []string{strings.Repeat("\u0001\u0002\u0003ÿþ", 30)},
			want:  false,
		},
		{
			name:  "no statement words",
			pages: []string{strings.Repeat("lorem ipsum dolor sit amet ", 5)},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isReadableText(tt.pages))
		})
	}
}

func TestSplitLines(t *testing.T) {
	assert.Equal(t, []string{"a", "", "b"}, SplitLines("a\r\n\r\nb\n\n"))
	assert.Nil(t, SplitLines("\n"))
}
