package indicators

import (
	"strings"

	"github.com/horizonbi/backend/internal/entities"
)

const (
	IndicatorCurrencyStability = "ECO_CURRENCY_STABILITY"
	IndicatorGeographicScope   = "GEO_GEOGRAPHIC_SCOPE"

	largeAmountThreshold = 1e9
	entityConfidenceCap  = 0.9
)

// EntityCalculator derives specialized indicator confidences from extracted
// entities. All methods are pure functions of their input.
type EntityCalculator struct{}

func NewEntityCalculator() *EntityCalculator {
	return &EntityCalculator{}
}

// CalculateAll returns a confidence per entity-derived indicator. Indicators
// with no supporting signal score 0.0 and are still present in the map so
// callers can distinguish "no signal" from "not calculated".
func (c *EntityCalculator) CalculateAll(ents entities.ExtractedEntities) map[string]float64 {
	return map[string]float64{
		IndicatorCurrencyStability: c.CurrencyStability(ents),
		IndicatorGeographicScope:   c.GeographicScope(ents),
	}
}

// CurrencyStability scores how strongly an article's monetary mentions
// signal the currency-stability indicator. No amounts means no signal.
func (c *EntityCalculator) CurrencyStability(ents entities.ExtractedEntities) float64 {
	if len(ents.Amounts) == 0 {
		return 0.0
	}

	confidence := 0.6

	currencies := make(map[string]bool)
	largeAmount := false
	for _, amount := range ents.Amounts {
		currencies[amount.Currency] = true
		if amount.Value > largeAmountThreshold {
			largeAmount = true
		}
	}

	if len(currencies) >= 2 {
		confidence += 0.1
	}
	if largeAmount {
		confidence += 0.1
	}
	if len(ents.Percentages) > 0 {
		confidence += 0.1
	}

	if confidence > entityConfidenceCap {
		confidence = entityConfidenceCap
	}
	return confidence
}

// GeographicScope scores location diversity using the Herfindahl-Hirschman
// index over mention frequency. Concentrated coverage (one place repeated)
// floors at 0.4; diverse coverage approaches the 0.9 cap.
func (c *EntityCalculator) GeographicScope(ents entities.ExtractedEntities) float64 {
	if len(ents.Locations) == 0 {
		return 0.0
	}

	counts := make(map[string]int)
	total := 0
	for _, loc := range ents.Locations {
		key := strings.ToLower(strings.TrimSpace(loc))
		if key == "" {
			continue
		}
		counts[key]++
		total++
	}
	if total == 0 {
		return 0.0
	}

	hhi := 0.0
	for _, count := range counts {
		share := float64(count) / float64(total)
		hhi += share * share
	}

	diversity := 1.0 - hhi
	confidence := 0.4 + diversity*0.5

	if len(counts) >= 3 {
		confidence += 0.1
	}

	if confidence > entityConfidenceCap {
		confidence = entityConfidenceCap
	}
	return confidence
}
