package insight

import (
	"sort"

	"github.com/horizonbi/backend/internal/storage/models"
)

// TieBreakPolicy decides the ordering between a risk and an opportunity of
// equal score. The original system hard-coded risks-first without stating
// why; here it is an explicit, configurable policy.
type TieBreakPolicy string

const (
	// TieBreakRisksFirst ranks risks above opportunities at equal score,
	// on the reasoning that risk mitigation is time-sensitive.
	TieBreakRisksFirst TieBreakPolicy = "risks_first"
	// TieBreakOpportunitiesFirst ranks opportunities above risks at equal
	// score.
	TieBreakOpportunitiesFirst TieBreakPolicy = "opportunities_first"
	// TieBreakScoreOnly keeps the stable input order at equal score.
	TieBreakScoreOnly TieBreakPolicy = "score_only"
)

// Ranked is one entry of the merged priority list.
type Ranked struct {
	Kind        Kind
	Code        string
	Description string
	Score       float64
	Confidence  float64
	Risk        *models.DetectedRisk
	Opportunity *models.DetectedOpportunity
}

// Prioritizer merges detected risks and opportunities into a single list
// ordered by score descending, applying the configured tie-break policy.
type Prioritizer struct {
	policy TieBreakPolicy
}

func NewPrioritizer(policy TieBreakPolicy) *Prioritizer {
	switch policy {
	case TieBreakRisksFirst, TieBreakOpportunitiesFirst, TieBreakScoreOnly:
	default:
		policy = TieBreakRisksFirst
	}
	return &Prioritizer{policy: policy}
}

func (p *Prioritizer) Rank(risks []models.DetectedRisk, opportunities []models.DetectedOpportunity) []Ranked {
	ranked := make([]Ranked, 0, len(risks)+len(opportunities))

	for i := range risks {
		risk := risks[i]
		ranked = append(ranked, Ranked{
			Kind:        KindRisk,
			Code:        risk.Code,
			Description: risk.Description,
			Score:       risk.Score,
			Confidence:  risk.Confidence,
			Risk:        &risk,
		})
	}
	for i := range opportunities {
		opp := opportunities[i]
		ranked = append(ranked, Ranked{
			Kind:        KindOpportunity,
			Code:        opp.Code,
			Description: opp.Description,
			Score:       opp.Score,
			Confidence:  opp.Confidence,
			Opportunity: &opp,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return p.breaksTie(ranked[i], ranked[j])
	})

	return ranked
}

func (p *Prioritizer) breaksTie(a, b Ranked) bool {
	switch p.policy {
	case TieBreakRisksFirst:
		return a.Kind == KindRisk && b.Kind == KindOpportunity
	case TieBreakOpportunitiesFirst:
		return a.Kind == KindOpportunity && b.Kind == KindRisk
	default:
		return false
	}
}
