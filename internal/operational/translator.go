package operational

import (
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/horizonbi/backend/internal/storage/models"
	"github.com/horizonbi/backend/pkg/logger"
)

// InputWeight ties a national indicator into an operational indicator's
// base value.
type InputWeight struct {
	IndicatorID string
	Weight      float64
}

// Definition describes one company-level operational indicator: which
// national indicators feed it, which company-profile dependency amplifies
// it, and the valid output range.
type Definition struct {
	Code          string
	Name          string
	Inputs        []InputWeight
	DependencyKey string
	Amplification float64
	Min           float64
	Max           float64
}

// Translator maps national indicator state onto company-specific
// operational indicators adjusted by the company profile.
type Translator struct {
	definitions []Definition
}

func NewTranslator(definitions []Definition) *Translator {
	if len(definitions) == 0 {
		definitions = DefaultDefinitions()
	}
	return &Translator{definitions: definitions}
}

// Translate computes each operational indicator from the available national
// values. An indicator whose inputs are entirely missing is omitted; partial
// inputs degrade confidence rather than failing. Output values are clamped
// to the definition's declared range.
func (t *Translator) Translate(national map[string]float64, profile models.CompanyProfile, previous map[string]float64, now time.Time) []models.OperationalIndicatorValue {
	values := make([]models.OperationalIndicatorValue, 0, len(t.definitions))

	for _, def := range t.definitions {
		value, ok := t.translateOne(def, national, profile, previous, now)
		if !ok {
			logger.Debug("Operational indicator omitted, no national inputs available",
				zap.String("company_id", profile.CompanyID),
				zap.String("code", def.Code),
			)
			continue
		}
		values = append(values, value)
	}

	sort.Slice(values, func(i, j int) bool { return values[i].Code < values[j].Code })
	return values
}

func (t *Translator) translateOne(def Definition, national map[string]float64, profile models.CompanyProfile, previous map[string]float64, now time.Time) (models.OperationalIndicatorValue, bool) {
	var weightedSum, weightSum float64
	var used []string

	for _, input := range def.Inputs {
		value, ok := national[input.IndicatorID]
		if !ok {
			continue
		}
		weightedSum += value * input.Weight
		weightSum += input.Weight
		used = append(used, input.IndicatorID)
	}

	if len(used) == 0 || weightSum == 0 {
		return models.OperationalIndicatorValue{}, false
	}

	base := weightedSum / weightSum
	value := t.adjustForProfile(def, base, profile)

	if value < def.Min {
		value = def.Min
	}
	if value > def.Max {
		value = def.Max
	}

	coverage := float64(len(used)) / float64(len(def.Inputs))
	confidence := 0.9 * coverage

	prev := 0.0
	change := 0.0
	if previous != nil {
		if p, ok := previous[def.Code]; ok {
			prev = p
			if p != 0 {
				change = (value - p) / math.Abs(p) * 100
			}
		}
	}

	return models.OperationalIndicatorValue{
		CompanyID:        profile.CompanyID,
		Code:             def.Code,
		Time:             now,
		Value:            value,
		NormalizedValue:  normalize(value, def.Min, def.Max),
		PreviousValue:    prev,
		ChangePercentage: change,
		Confidence:       confidence,
		NationalInputs:   used,
	}, true
}

// adjustForProfile amplifies the deviation from the neutral midpoint when
// the company depends heavily on the underlying factor. A company with no
// stated dependency sees the national value unchanged.
func (t *Translator) adjustForProfile(def Definition, base float64, profile models.CompanyProfile) float64 {
	dependency := profile.Dependencies[def.DependencyKey]
	sensitivity := profile.Sensitivities[def.Code]
	factor := dependency
	if sensitivity > factor {
		factor = sensitivity
	}
	if factor <= 0 || def.Amplification <= 0 {
		return base
	}

	mid := (def.Min + def.Max) / 2
	return mid + (base-mid)*(1+factor*def.Amplification)
}

func normalize(value, min, max float64) float64 {
	if max <= min {
		return 0
	}
	return (value - min) / (max - min) * 100
}

// DefaultDefinitions is the shipped operational indicator catalog.
func DefaultDefinitions() []Definition {
	return []Definition{
		{
			Code: "OPS_SUPPLY_CHAIN_RISK",
			Name: "Supply Chain Risk",
			Inputs: []InputWeight{
				{IndicatorID: "ECO_CURRENCY_STABILITY", Weight: 0.5},
				{IndicatorID: "GEO_GEOGRAPHIC_SCOPE", Weight: 0.2},
				{IndicatorID: "POL_STABILITY", Weight: 0.3},
			},
			DependencyKey: "supply_chain",
			Amplification: 0.6,
			Min:           0,
			Max:           100,
		},
		{
			Code: "OPS_ENERGY_COST_PRESSURE",
			Name: "Energy Cost Pressure",
			Inputs: []InputWeight{
				{IndicatorID: "ECO_ENERGY_PRICES", Weight: 0.7},
				{IndicatorID: "ENV_REGULATION", Weight: 0.3},
			},
			DependencyKey: "energy",
			Amplification: 0.8,
			Min:           0,
			Max:           100,
		},
		{
			Code: "OPS_DEMAND_OUTLOOK",
			Name: "Demand Outlook",
			Inputs: []InputWeight{
				{IndicatorID: "ECO_CONSUMER_CONFIDENCE", Weight: 0.6},
				{IndicatorID: "SOC_SENTIMENT", Weight: 0.4},
			},
			DependencyKey: "consumer_demand",
			Amplification: 0.5,
			Min:           0,
			Max:           100,
		},
		{
			Code: "OPS_FINANCING_COST",
			Name: "Financing Cost",
			Inputs: []InputWeight{
				{IndicatorID: "ECO_INTEREST_RATES", Weight: 0.7},
				{IndicatorID: "ECO_CURRENCY_STABILITY", Weight: 0.3},
			},
			DependencyKey: "external_financing",
			Amplification: 0.7,
			Min:           0,
			Max:           100,
		},
		{
			Code: "OPS_REGULATORY_BURDEN",
			Name: "Regulatory Burden",
			Inputs: []InputWeight{
				{IndicatorID: "LEG_COMPLIANCE_PRESSURE", Weight: 0.6},
				{IndicatorID: "POL_STABILITY", Weight: 0.4},
			},
			DependencyKey: "regulated_markets",
			Amplification: 0.4,
			Min:           0,
			Max:           100,
		},
	}
}
