package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractAmounts(t *testing.T) {
	amounts := extractAmounts("The central bank sold $2.5 billion in bonds and bought €300 million in gold.")

	assert.Len(t, amounts, 2)
	assert.Equal(t, "USD", amounts[0].Currency)
	assert.InDelta(t, 2.5e9, amounts[0].Value, 1)
	assert.Equal(t, "EUR", amounts[1].Currency)
	assert.InDelta(t, 3e8, amounts[1].Value, 1)
}

func TestExtractAmountsHandlesThousandsSeparators(t *testing.T) {
	amounts := extractAmounts("A payout of USD 1,250,000 was announced.")

	assert.Len(t, amounts, 1)
	assert.InDelta(t, 1250000, amounts[0].Value, 1)
}

func TestExtractAmountsNoneFound(t *testing.T) {
	assert.Empty(t, extractAmounts("No monetary values here."))
}

func TestExtractPercentages(t *testing.T) {
	percentages := extractPercentages("Inflation rose 4.5% while unemployment fell by 2 percent.")

	assert.Len(t, percentages, 2)
	assert.InDelta(t, 4.5, percentages[0], 0.001)
	assert.InDelta(t, 2.0, percentages[1], 0.001)
}

func TestExtractorReturnsAmountsAndPercentages(t *testing.T) {
	e := NewExtractor()

	result, err := e.Extract("The treasury raised $1 billion at 5% yield.")
	assert.NoError(t, err)
	assert.Len(t, result.Amounts, 1)
	assert.Len(t, result.Percentages, 1)
}
