package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightdelivered/bank-statement-parser/internal/models"
)

func TestAutoDetect(t *testing.T) {
	tests := []struct {
		name     string
		producer string
		expected models.BankType
		wantErr  bool
	}{
		{
			name:     "detects Postbank",
			producer: "StreamServe Communication Server 5.6.2 GA Build 1210 (64 bit)",
			expected: models.BankPostbank,
		},
		{
			name:     "detects Postbank after migration",
			producer: "CrawfordTech PDF Driver Version 4.9.3",
			expected: models.BankPostbankDB,
		},
		{
			name:     "detects ING",
			producer: "Maas PDF Library V3.1",
			expected: models.BankING,
		},
		{
			name:     "detects PSD Bank",
			producer: "Compart MFFPDF I/O Filter 5.1",
			expected: models.BankPSD,
		},
		{
			name:     "unknown producer returns error",
			producer: "Microsoft Word 2016",
			wantErr:  true,
		},
		{
			name:    "missing producer returns error",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AutoDetect(models.Metadata{Producer: tt.producer})
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnrecognizedDialect)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestDetect_AtMostOneDialect(t *testing.T) {
	var producers []string
	producers = append(producers, postbankProducers...)
	producers = append(producers, postbankDBProducers...)
	producers = append(producers, ingProducers...)
	producers = append(producers, psdProducers...)

	for _, producer := range producers {
		t.Run(producer, func(t *testing.T) {
			var claimed []string
			for _, p := range All() {
				if p.IsApplicable(models.Metadata{Producer: producer}) {
					claimed = append(claimed, p.Name())
				}
			}
			assert.Len(t, claimed, 1, "claimed by %v", claimed)
		})
	}
}

func TestNew(t *testing.T) {
	for _, bt := range []models.BankType{models.BankPostbank, models.BankPostbankDB, models.BankING, models.BankPSD} {
		p, err := New(bt)
		require.NoError(t, err)
		assert.Equal(t, bt, p.BankType())
	}

	_, err := New("hsbc")
	assert.Error(t, err)
}

func TestDialectOptions(t *testing.T) {
	options := map[string]string{
		"textOutputDir":     "/tmp/out",
		"PostbankPDF.debug": "true",
		"INGPDF.debug":      "false",
	}

	assert.Equal(t, map[string]string{
		"textOutputDir": "/tmp/out",
		"debug":         "true",
	}, dialectOptions("PostbankPDF", options))

	assert.Equal(t, map[string]string{
		"textOutputDir": "/tmp/out",
	}, dialectOptions("PSDBankPDF", options))

	assert.Empty(t, dialectOptions("INGPDF", nil))
}
