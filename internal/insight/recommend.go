package insight

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/horizonbi/backend/internal/metrics"
	"github.com/horizonbi/backend/internal/storage/models"
	"github.com/horizonbi/backend/pkg/logger"
)

// Narrator generates free-text recommendation narratives from a context
// package. Implemented by the LLM client; nil means the capability is
// disabled and templates are used exclusively.
type Narrator interface {
	Narrate(ctx context.Context, payload map[string]interface{}) (string, error)
}

// Template is a canned recommendation for one risk or opportunity code.
type Template struct {
	Title           string
	Description     string
	ActionSteps     []string
	EstimatedImpact string
}

// Recommender maps ranked insights to action recommendations. An available
// narrator enriches the description; narrator failure or absence silently
// falls back to the template text, never to an error.
type Recommender struct {
	templates map[string]Template
	narrator  Narrator
}

func NewRecommender(templates map[string]Template, narrator Narrator) *Recommender {
	if len(templates) == 0 {
		templates = DefaultTemplates()
	}
	return &Recommender{
		templates: templates,
		narrator:  narrator,
	}
}

func (r *Recommender) Recommend(ctx context.Context, companyID string, ranked []Ranked, now time.Time) []models.Recommendation {
	recommendations := make([]models.Recommendation, 0, len(ranked))

	for _, item := range ranked {
		tmpl, ok := r.templates[item.Code]
		if !ok {
			tmpl = genericTemplate(item)
		}

		description := tmpl.Description
		generatedBy := "template"

		if r.narrator != nil {
			narrative, err := r.narrator.Narrate(ctx, map[string]interface{}{
				"company_id":  companyID,
				"kind":        string(item.Kind),
				"code":        item.Code,
				"description": item.Description,
				"score":       item.Score,
				"confidence":  item.Confidence,
			})
			if err != nil {
				metrics.LLMFallbacks.Inc()
				logger.Warn("Narrative generation failed, using template",
					zap.String("code", item.Code),
					zap.Error(err),
				)
			} else if narrative != "" {
				description = narrative
				generatedBy = "llm"
			}
		}

		recommendations = append(recommendations, models.Recommendation{
			ID:              uuid.New().String(),
			CompanyID:       companyID,
			SourceCode:      item.Code,
			SourceKind:      string(item.Kind),
			Title:           tmpl.Title,
			Description:     description,
			ActionSteps:     tmpl.ActionSteps,
			Priority:        item.Score,
			EstimatedImpact: tmpl.EstimatedImpact,
			GeneratedBy:     generatedBy,
			CreatedAt:       now,
		})
	}

	return recommendations
}

func genericTemplate(item Ranked) Template {
	verb := "Mitigate"
	if item.Kind == KindOpportunity {
		verb = "Pursue"
	}
	return Template{
		Title:           fmt.Sprintf("%s %s", verb, item.Code),
		Description:     item.Description,
		ActionSteps:     []string{"Review the contributing indicators", "Assess exposure with the responsible team"},
		EstimatedImpact: "unquantified",
	}
}

// DefaultTemplates covers the shipped rule set.
func DefaultTemplates() map[string]Template {
	return map[string]Template{
		"RISK_SUPPLY_DISRUPTION": {
			Title:       "Diversify critical suppliers",
			Description: "Supply chain risk is elevated and rising. Concentrated sourcing amplifies exposure to disruption.",
			ActionSteps: []string{
				"Identify single-source components and materials",
				"Qualify at least one alternate supplier per critical input",
				"Increase safety stock for long-lead items",
			},
			EstimatedImpact: "high",
		},
		"RISK_SUPPLY_PRESSURE": {
			Title:       "Review supply commitments",
			Description: "Supply chain risk has crossed the critical threshold.",
			ActionSteps: []string{
				"Re-confirm delivery schedules with key suppliers",
				"Pre-negotiate volume flexibility clauses",
			},
			EstimatedImpact: "high",
		},
		"RISK_ENERGY_COSTS": {
			Title:       "Hedge energy exposure",
			Description: "Energy cost pressure threatens operating margins.",
			ActionSteps: []string{
				"Evaluate fixed-price energy contracts",
				"Prioritize efficiency investments with short payback",
			},
			EstimatedImpact: "medium",
		},
		"RISK_DEMAND_CONTRACTION": {
			Title:       "Protect cash position",
			Description: "Demand outlook has weakened below sustainable levels.",
			ActionSteps: []string{
				"Tighten working capital and inventory levels",
				"Re-forecast revenue under a contraction scenario",
				"Defer discretionary spend",
			},
			EstimatedImpact: "high",
		},
		"RISK_FINANCING_SQUEEZE": {
			Title:       "Restructure debt maturities",
			Description: "Financing costs are rising; refinancing risk is growing.",
			ActionSteps: []string{
				"Extend maturities while terms remain available",
				"Review covenant headroom",
			},
			EstimatedImpact: "medium",
		},
		"OPP_DEMAND_EXPANSION": {
			Title:       "Scale to meet demand",
			Description: "The demand outlook supports capacity expansion.",
			ActionSteps: []string{
				"Stress-test capacity against the upside scenario",
				"Accelerate hiring in constrained functions",
			},
			EstimatedImpact: "high",
		},
		"OPP_CHEAP_FINANCING": {
			Title:       "Bring investment forward",
			Description: "Financing conditions are favorable.",
			ActionSteps: []string{
				"Re-rank the capital project backlog by IRR",
				"Lock in current rates for approved projects",
			},
			EstimatedImpact: "medium",
		},
		"OPP_REGULATORY_EASE": {
			Title:       "Evaluate market entry",
			Description: "Regulatory burden is light; entry barriers are low.",
			ActionSteps: []string{
				"Shortlist adjacent markets with matching regulation",
				"Estimate entry cost and time-to-revenue",
			},
			EstimatedImpact: "medium",
		},
	}
}
