package entities

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jdkato/prose/v2"
)

// Amount is a currency mention normalized to base units.
type Amount struct {
	Currency string
	Value    float64
}

// ExtractedEntities is the structured entity output consumed by the
// entity-based indicator calculators.
type ExtractedEntities struct {
	Locations     []string
	Organizations []string
	Amounts       []Amount
	Percentages   []float64
}

var (
	amountPattern     = regexp.MustCompile(`(?i)(\$|€|£|¥|usd|eur|gbp|jpy|try)\s?([0-9][0-9.,]*)\s*(trillion|billion|million|thousand|bn|mn|k)?`)
	percentagePattern = regexp.MustCompile(`([0-9]+(?:\.[0-9]+)?)\s?(?:%|percent)`)
)

var magnitudes = map[string]float64{
	"trillion": 1e12,
	"billion":  1e9,
	"bn":       1e9,
	"million":  1e6,
	"mn":       1e6,
	"thousand": 1e3,
	"k":        1e3,
}

var currencyCodes = map[string]string{
	"$": "USD", "usd": "USD",
	"€": "EUR", "eur": "EUR",
	"£": "GBP", "gbp": "GBP",
	"¥": "JPY", "jpy": "JPY",
	"try": "TRY",
}

// Extractor produces ExtractedEntities from raw article text. Named
// entities come from the prose NER model; amounts and percentages from
// pattern matching, since the model does not label them.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(text string) (ExtractedEntities, error) {
	var result ExtractedEntities

	doc, err := prose.NewDocument(text, prose.WithSegmentation(false))
	if err != nil {
		return result, fmt.Errorf("failed to build prose document: %w", err)
	}

	for _, ent := range doc.Entities() {
		switch ent.Label {
		case "GPE", "LOC", "FAC":
			result.Locations = append(result.Locations, ent.Text)
		case "ORG", "PERSON":
			result.Organizations = append(result.Organizations, ent.Text)
		}
	}

	result.Amounts = extractAmounts(text)
	result.Percentages = extractPercentages(text)

	return result, nil
}

func extractAmounts(text string) []Amount {
	var amounts []Amount
	for _, m := range amountPattern.FindAllStringSubmatch(text, -1) {
		raw := strings.ReplaceAll(m[2], ",", "")
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}

		if mag, ok := magnitudes[strings.ToLower(m[3])]; ok {
			value *= mag
		}

		currency := currencyCodes[strings.ToLower(m[1])]
		if currency == "" {
			currency = strings.ToUpper(m[1])
		}

		amounts = append(amounts, Amount{Currency: currency, Value: value})
	}
	return amounts
}

func extractPercentages(text string) []float64 {
	var percentages []float64
	for _, m := range percentagePattern.FindAllStringSubmatch(text, -1) {
		value, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		percentages = append(percentages, value)
	}
	return percentages
}
