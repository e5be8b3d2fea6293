package documents

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChequeFieldsCompleteCheque(t *testing.T) {
	lines := []string{
		"FIRST NATIONAL BANK",
		"Cheque No: 004512",
		"Pay to the order of Ultra Property Holdings",
		"$ 1,250.00",
		"Date: 2026-08-15",
	}
	fields := ParseChequeFields(lines)
	assert.Equal(t, "004512", fields.ChequeNumber)
	assert.Equal(t, int64(125000), fields.AmountCents)
	require.NotNil(t, fields.Date)
	assert.Equal(t, time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC), *fields.Date)
	assert.True(t, fields.Complete())
}

func TestParseChequeFieldsDateFormats(t *testing.T) {
	cases := []struct {
		name string
		line string
		want time.Time
	}{
		{"iso", "Date 2026-03-09", time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)},
		{"day first", "Date 09/03/2026", time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)},
		{"abbreviated month", "Date 9 Mar 2026", time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)},
		{"full month", "Date 9 March 2026", time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fields := ParseChequeFields([]string{tc.line})
			require.NotNil(t, fields.Date)
			assert.Equal(t, tc.want, *fields.Date)
		})
	}
}

func TestParseChequeFieldsPartialExtraction(t *testing.T) {
	fields := ParseChequeFields([]string{
		"Check #99881234",
		"illegible scrawl",
	})
	assert.Equal(t, "99881234", fields.ChequeNumber)
	assert.Zero(t, fields.AmountCents)
	assert.Nil(t, fields.Date)
	assert.False(t, fields.Complete())
}

func TestParseChequeFieldsIgnoresNoise(t *testing.T) {
	fields := ParseChequeFields([]string{
		"Account number 123",
		"Cheque 12",
	})
	assert.Empty(t, fields.ChequeNumber, "short digit runs are not cheque numbers")
	assert.False(t, fields.Complete())
}

func TestParseChequeFieldsFirstMatchWins(t *testing.T) {
	fields := ParseChequeFields([]string{
		"Cheque No 11110000",
		"AED 500",
		"Cheque No 22220000",
		"AED 900.50",
	})
	assert.Equal(t, "11110000", fields.ChequeNumber)
	assert.Equal(t, int64(50000), fields.AmountCents)
}
