package logger

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{" WARN ", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"disabled", zerolog.Disabled},
		{"", zerolog.InfoLevel},
		{"chatty", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestNew(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, New("debug").GetLevel())
	assert.Equal(t, zerolog.InfoLevel, New("").GetLevel())
}

func TestFieldHelpers(t *testing.T) {
	runID := uuid.MustParse("0b7c8e1a-4a43-4c55-9a51-4f3e2c1d0e9f")

	tests := []struct {
		name string
		log  func(zerolog.Logger) zerolog.Logger
		want []string
		not  []string
	}{
		{
			name: "run",
			log:  func(l zerolog.Logger) zerolog.Logger { return ForRun(l, runID) },
			want: []string{`"run_id":"0b7c8e1a-4a43-4c55-9a51-4f3e2c1d0e9f"`},
		},
		{
			name: "request",
			log:  func(l zerolog.Logger) zerolog.Logger { return ForRequest(l, "abc-123") },
			want: []string{`"request_id":"abc-123"`},
		},
		{
			name: "statement with dialect",
			log:  func(l zerolog.Logger) zerolog.Logger { return ForStatement(l, "Kontoauszug.pdf", "PostbankPDF") },
			want: []string{`"file":"Kontoauszug.pdf"`, `"dialect":"PostbankPDF"`},
		},
		{
			name: "statement before detection",
			log:  func(l zerolog.Logger) zerolog.Logger { return ForStatement(l, "scan.pdf", "") },
			want: []string{`"file":"scan.pdf"`},
			not:  []string{FieldDialect},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := tt.log(zerolog.New(&buf))
			log.Info().Msg("done")

			for _, s := range tt.want {
				assert.Contains(t, buf.String(), s)
			}
			for _, s := range tt.not {
				assert.NotContains(t, buf.String(), s)
			}
		})
	}
}
