package insight

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/horizonbi/backend/internal/analysis"
	"github.com/horizonbi/backend/internal/storage/models"
)

func opValue(code string, value float64) models.OperationalIndicatorValue {
	return models.OperationalIndicatorValue{
		CompanyID:  "c1",
		Code:       code,
		Value:      value,
		Confidence: 0.8,
	}
}

func TestRiskScoreFormula(t *testing.T) {
	assert.InDelta(t, 4.0, RiskScore(8, 5), 0.0001)
	assert.InDelta(t, 10.0, RiskScore(10, 10), 0.0001)
	assert.InDelta(t, 3.5, OpportunityScore(7, 5), 0.0001)
}

func TestDetectThresholdRule(t *testing.T) {
	d := NewDetector(nil)
	values := []models.OperationalIndicatorValue{opValue("OPS_DEMAND_OUTLOOK", 20)}

	risks, opportunities := d.Detect("c1", values, nil, time.Now())
	require.Len(t, risks, 1)
	assert.Equal(t, "RISK_DEMAND_CONTRACTION", risks[0].Code)
	assert.InDelta(t, 4.0, risks[0].Score, 0.0001)
	assert.Empty(t, opportunities)
}

func TestDetectTrendGatedRule(t *testing.T) {
	d := NewDetector(nil)
	values := []models.OperationalIndicatorValue{opValue("OPS_FINANCING_COST", 80)}

	// No trend known: the trend-gated rule must not fire.
	risks, _ := d.Detect("c1", values, nil, time.Now())
	assert.Empty(t, risks)

	trends := map[string]analysis.Direction{"OPS_FINANCING_COST": analysis.DirectionRising}
	risks, _ = d.Detect("c1", values, trends, time.Now())
	require.Len(t, risks, 1)
	assert.Equal(t, "RISK_FINANCING_SQUEEZE", risks[0].Code)
}

func TestDetectMultipleRulesFire(t *testing.T) {
	d := NewDetector(nil)
	values := []models.OperationalIndicatorValue{
		opValue("OPS_SUPPLY_CHAIN_RISK", 90),
		opValue("OPS_DEMAND_OUTLOOK", 80),
	}
	trends := map[string]analysis.Direction{"OPS_SUPPLY_CHAIN_RISK": analysis.DirectionRising}

	risks, opportunities := d.Detect("c1", values, trends, time.Now())
	assert.Len(t, risks, 2)
	require.Len(t, opportunities, 1)
	assert.Equal(t, "OPP_DEMAND_EXPANSION", opportunities[0].Code)
}

func TestDetectNothingFires(t *testing.T) {
	d := NewDetector(nil)
	values := []models.OperationalIndicatorValue{opValue("OPS_DEMAND_OUTLOOK", 50)}

	risks, opportunities := d.Detect("c1", values, nil, time.Now())
	assert.Empty(t, risks)
	assert.Empty(t, opportunities)
}

func TestPrioritizerOrdersByScore(t *testing.T) {
	p := NewPrioritizer(TieBreakRisksFirst)
	risks := []models.DetectedRisk{
		{Code: "R_LOW", Score: 2.0},
		{Code: "R_HIGH", Score: 8.0},
	}
	opportunities := []models.DetectedOpportunity{{Code: "O_MID", Score: 5.0}}

	ranked := p.Rank(risks, opportunities)
	require.Len(t, ranked, 3)
	assert.Equal(t, "R_HIGH", ranked[0].Code)
	assert.Equal(t, "O_MID", ranked[1].Code)
	assert.Equal(t, "R_LOW", ranked[2].Code)
}

func TestPrioritizerTieBreakPolicies(t *testing.T) {
	risks := []models.DetectedRisk{{Code: "RISK", Score: 5.0}}
	opportunities := []models.DetectedOpportunity{{Code: "OPP", Score: 5.0}}

	ranked := NewPrioritizer(TieBreakRisksFirst).Rank(risks, opportunities)
	assert.Equal(t, "RISK", ranked[0].Code)

	ranked = NewPrioritizer(TieBreakOpportunitiesFirst).Rank(risks, opportunities)
	assert.Equal(t, "OPP", ranked[0].Code)
}

func TestPrioritizerDefaultsUnknownPolicy(t *testing.T) {
	p := NewPrioritizer("nonsense")
	risks := []models.DetectedRisk{{Code: "RISK", Score: 5.0}}
	opportunities := []models.DetectedOpportunity{{Code: "OPP", Score: 5.0}}

	ranked := p.Rank(risks, opportunities)
	assert.Equal(t, "RISK", ranked[0].Code)
}

type stubNarrator struct {
	text string
	err  error
}

func (s *stubNarrator) Narrate(ctx context.Context, payload map[string]interface{}) (string, error) {
	return s.text, s.err
}

func TestRecommenderTemplateFallbackOnNarratorError(t *testing.T) {
	r := NewRecommender(nil, &stubNarrator{err: errors.New("llm down")})
	ranked := []Ranked{{Kind: KindRisk, Code: "RISK_ENERGY_COSTS", Description: "energy", Score: 4.2}}

	recommendations := r.Recommend(context.Background(), "c1", ranked, time.Now())
	require.Len(t, recommendations, 1)
	assert.Equal(t, "template", recommendations[0].GeneratedBy)
	assert.Equal(t, "Hedge energy exposure", recommendations[0].Title)
	assert.NotEmpty(t, recommendations[0].ActionSteps)
}

func TestRecommenderUsesNarrativeWhenAvailable(t *testing.T) {
	r := NewRecommender(nil, &stubNarrator{text: "custom narrative"})
	ranked := []Ranked{{Kind: KindOpportunity, Code: "OPP_CHEAP_FINANCING", Score: 4.9}}

	recommendations := r.Recommend(context.Background(), "c1", ranked, time.Now())
	require.Len(t, recommendations, 1)
	assert.Equal(t, "llm", recommendations[0].GeneratedBy)
	assert.Equal(t, "custom narrative", recommendations[0].Description)
}

func TestRecommenderNilNarratorUsesTemplates(t *testing.T) {
	r := NewRecommender(nil, nil)
	ranked := []Ranked{{Kind: KindRisk, Code: "UNKNOWN_CODE", Description: "something odd", Score: 1.0}}

	recommendations := r.Recommend(context.Background(), "c1", ranked, time.Now())
	require.Len(t, recommendations, 1)
	assert.Equal(t, "template", recommendations[0].GeneratedBy)
	assert.Contains(t, recommendations[0].Title, "UNKNOWN_CODE")
}
