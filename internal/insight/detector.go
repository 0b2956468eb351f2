package insight

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/horizonbi/backend/internal/analysis"
	"github.com/horizonbi/backend/internal/storage/models"
	"github.com/horizonbi/backend/pkg/logger"
)

type Kind string

const (
	KindRisk        Kind = "risk"
	KindOpportunity Kind = "opportunity"
)

type Comparison string

const (
	Below Comparison = "below"
	Above Comparison = "above"
)

// Rule is one static detection rule evaluated against an operational
// indicator value and its trend. A single evaluation cycle can fire zero,
// one, or many rules.
type Rule struct {
	Code          string
	Description   string
	IndicatorCode string
	Comparison    Comparison
	Threshold     float64
	TrendRequired analysis.Direction
	Kind          Kind

	// Risk rules use Impact and Probability; opportunity rules use
	// PotentialValue and Feasibility. All are on a 1-10 scale.
	Impact         float64
	Probability    float64
	PotentialValue float64
	Feasibility    float64
}

// Detector evaluates operational indicator values against a rule set. It is
// stateless: every call recomputes from the inputs it is given.
type Detector struct {
	rules []Rule
}

func NewDetector(rules []Rule) *Detector {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Detector{rules: rules}
}

// Detect returns the risks and opportunities fired by the current
// operational values. Trends are optional: a rule with a trend requirement
// only fires when the matching trend is known.
func (d *Detector) Detect(companyID string, values []models.OperationalIndicatorValue, trends map[string]analysis.Direction, now time.Time) ([]models.DetectedRisk, []models.DetectedOpportunity) {
	byCode := make(map[string]models.OperationalIndicatorValue, len(values))
	for _, v := range values {
		byCode[v.Code] = v
	}

	var risks []models.DetectedRisk
	var opportunities []models.DetectedOpportunity

	for _, rule := range d.rules {
		value, ok := byCode[rule.IndicatorCode]
		if !ok {
			continue
		}
		if !rule.matches(value.Value, trends[rule.IndicatorCode]) {
			continue
		}

		switch rule.Kind {
		case KindRisk:
			risks = append(risks, models.DetectedRisk{
				ID:                     uuid.New().String(),
				CompanyID:              companyID,
				Code:                   rule.Code,
				Description:            rule.Description,
				Impact:                 rule.Impact,
				Probability:            rule.Probability,
				Score:                  RiskScore(rule.Impact, rule.Probability),
				Confidence:             value.Confidence,
				ContributingIndicators: []string{rule.IndicatorCode},
				DetectedAt:             now,
			})
		case KindOpportunity:
			opportunities = append(opportunities, models.DetectedOpportunity{
				ID:                     uuid.New().String(),
				CompanyID:              companyID,
				Code:                   rule.Code,
				Description:            rule.Description,
				PotentialValue:         rule.PotentialValue,
				Feasibility:            rule.Feasibility,
				Score:                  OpportunityScore(rule.PotentialValue, rule.Feasibility),
				Confidence:             value.Confidence,
				ContributingIndicators: []string{rule.IndicatorCode},
				DetectedAt:             now,
			})
		}
	}

	logger.Debug("Detection cycle completed",
		zap.String("company_id", companyID),
		zap.Int("risks", len(risks)),
		zap.Int("opportunities", len(opportunities)),
	)

	return risks, opportunities
}

func (r Rule) matches(value float64, trend analysis.Direction) bool {
	switch r.Comparison {
	case Below:
		if value >= r.Threshold {
			return false
		}
	case Above:
		if value <= r.Threshold {
			return false
		}
	default:
		return false
	}

	if r.TrendRequired != "" && trend != r.TrendRequired {
		return false
	}
	return true
}

// RiskScore combines a 1-10 impact and a 1-10 probability into a single
// score on a 0-10 scale.
func RiskScore(impact, probability float64) float64 {
	return impact * probability / 10
}

// OpportunityScore mirrors RiskScore for potential value and feasibility.
func OpportunityScore(potentialValue, feasibility float64) float64 {
	return potentialValue * feasibility / 10
}

// DefaultRules is the shipped detection rule set over the default
// operational indicator catalog.
func DefaultRules() []Rule {
	return []Rule{
		{
			Code:          "RISK_SUPPLY_DISRUPTION",
			Description:   "Supply chain risk is elevated and the outlook is deteriorating",
			IndicatorCode: "OPS_SUPPLY_CHAIN_RISK",
			Comparison:    Above,
			Threshold:     70,
			TrendRequired: analysis.DirectionRising,
			Kind:          KindRisk,
			Impact:        8,
			Probability:   6,
		},
		{
			Code:          "RISK_SUPPLY_PRESSURE",
			Description:   "Supply chain risk is elevated",
			IndicatorCode: "OPS_SUPPLY_CHAIN_RISK",
			Comparison:    Above,
			Threshold:     80,
			Kind:          KindRisk,
			Impact:        7,
			Probability:   7,
		},
		{
			Code:          "RISK_ENERGY_COSTS",
			Description:   "Energy cost pressure threatens operating margins",
			IndicatorCode: "OPS_ENERGY_COST_PRESSURE",
			Comparison:    Above,
			Threshold:     65,
			Kind:          KindRisk,
			Impact:        7,
			Probability:   6,
		},
		{
			Code:          "RISK_DEMAND_CONTRACTION",
			Description:   "Demand outlook has fallen below sustainable levels",
			IndicatorCode: "OPS_DEMAND_OUTLOOK",
			Comparison:    Below,
			Threshold:     30,
			Kind:          KindRisk,
			Impact:        8,
			Probability:   5,
		},
		{
			Code:          "RISK_FINANCING_SQUEEZE",
			Description:   "Financing costs are rising toward unsustainable levels",
			IndicatorCode: "OPS_FINANCING_COST",
			Comparison:    Above,
			Threshold:     70,
			TrendRequired: analysis.DirectionRising,
			Kind:          KindRisk,
			Impact:        6,
			Probability:   6,
		},
		{
			Code:           "OPP_DEMAND_EXPANSION",
			Description:    "Strong demand outlook supports capacity expansion",
			IndicatorCode:  "OPS_DEMAND_OUTLOOK",
			Comparison:     Above,
			Threshold:      70,
			Kind:           KindOpportunity,
			PotentialValue: 8,
			Feasibility:    6,
		},
		{
			Code:           "OPP_CHEAP_FINANCING",
			Description:    "Low financing costs favor bringing investment forward",
			IndicatorCode:  "OPS_FINANCING_COST",
			Comparison:     Below,
			Threshold:      30,
			Kind:           KindOpportunity,
			PotentialValue: 7,
			Feasibility:    7,
		},
		{
			Code:           "OPP_REGULATORY_EASE",
			Description:    "Light regulatory burden opens room for new market entry",
			IndicatorCode:  "OPS_REGULATORY_BURDEN",
			Comparison:     Below,
			Threshold:      25,
			Kind:           KindOpportunity,
			PotentialValue: 6,
			Feasibility:    8,
		},
	}
}
