package catalog

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/horizonbi/backend/internal/storage/models"
	"github.com/horizonbi/backend/internal/storage/sqlite"
	"github.com/horizonbi/backend/pkg/logger"
)

// Seed loads the default indicator catalog into an empty or existing
// database. All inserts are upserts, so seeding is idempotent and safe to
// run on every startup.
func Seed(db *sqlite.Client) error {
	for _, def := range Definitions() {
		d := def
		if err := db.InsertDefinition(&d); err != nil {
			return fmt.Errorf("failed to seed definition %s: %w", def.ID, err)
		}
	}

	for _, kw := range Keywords() {
		k := kw
		if err := db.InsertKeyword(&k); err != nil {
			return fmt.Errorf("failed to seed keyword %s/%s: %w", kw.IndicatorID, kw.Keyword, err)
		}
	}

	for _, dep := range Dependencies() {
		d := dep
		if err := db.InsertDependency(&d); err != nil {
			return fmt.Errorf("failed to seed dependency %s->%s: %w", dep.ParentID, dep.ChildID, err)
		}
	}

	logger.Info("Indicator catalog seeded",
		zap.Int("definitions", len(Definitions())),
		zap.Int("keywords", len(Keywords())),
		zap.Int("dependencies", len(Dependencies())),
	)
	return nil
}

// Definitions is the default national indicator set. IDs are prefixed by
// PESTEL category; the entity-derived indicators (currency stability,
// geographic scope) are included so their values have a definition to hang
// off.
func Definitions() []models.IndicatorDefinition {
	return []models.IndicatorDefinition{
		{ID: "POL_STABILITY", Name: "Political Stability", Category: models.CategoryPolitical, CalculationType: models.CalcFrequencyCount, BaseWeight: 1.0},
		{ID: "POL_TRADE_POLICY", Name: "Trade Policy Pressure", Category: models.CategoryPolitical, CalculationType: models.CalcFrequencyCount, BaseWeight: 0.8},
		{ID: "ECO_INFLATION", Name: "Inflation Pressure", Category: models.CategoryEconomic, CalculationType: models.CalcFrequencyCount, BaseWeight: 1.0},
		{ID: "ECO_INTEREST_RATES", Name: "Interest Rate Level", Category: models.CategoryEconomic, CalculationType: models.CalcFrequencyCount, BaseWeight: 1.0},
		{ID: "ECO_ENERGY_PRICES", Name: "Energy Price Pressure", Category: models.CategoryEconomic, CalculationType: models.CalcFrequencyCount, BaseWeight: 0.9},
		{ID: "ECO_CONSUMER_CONFIDENCE", Name: "Consumer Confidence", Category: models.CategoryEconomic, CalculationType: models.CalcFrequencyCount, BaseWeight: 0.9},
		{ID: "ECO_CURRENCY_STABILITY", Name: "Currency Stability", Category: models.CategoryEconomic, CalculationType: models.CalcNumericExtraction, BaseWeight: 1.0},
		{ID: "GEO_GEOGRAPHIC_SCOPE", Name: "Geographic Scope", Category: models.CategoryEconomic, CalculationType: models.CalcNumericExtraction, BaseWeight: 0.7},
		{ID: "SOC_SENTIMENT", Name: "Public Sentiment", Category: models.CategorySocial, CalculationType: models.CalcSentimentAggregate, BaseWeight: 0.8},
		{ID: "SOC_LABOR_UNREST", Name: "Labor Unrest", Category: models.CategorySocial, CalculationType: models.CalcFrequencyCount, BaseWeight: 0.8},
		{ID: "TECH_ADOPTION", Name: "Technology Adoption", Category: models.CategoryTechnological, CalculationType: models.CalcFrequencyCount, BaseWeight: 0.7},
		{ID: "ENV_REGULATION", Name: "Environmental Regulation", Category: models.CategoryEnvironmental, CalculationType: models.CalcFrequencyCount, BaseWeight: 0.8},
		{ID: "LEG_COMPLIANCE_PRESSURE", Name: "Compliance Pressure", Category: models.CategoryLegal, CalculationType: models.CalcFrequencyCount, BaseWeight: 0.9},
		{ID: "MACRO_STABILITY", Name: "Macro Stability Composite", Category: models.CategoryEconomic, CalculationType: models.CalcComposite, BaseWeight: 1.0},
	}
}

func Keywords() []models.IndicatorKeyword {
	en := func(indicatorID, keyword string, weight float64) models.IndicatorKeyword {
		return models.IndicatorKeyword{IndicatorID: indicatorID, Keyword: keyword, Weight: weight, Language: "en"}
	}

	return []models.IndicatorKeyword{
		en("POL_STABILITY", "election", 1.0),
		en("POL_STABILITY", "coalition", 0.8),
		en("POL_STABILITY", "government crisis", 1.5),
		en("POL_STABILITY", "cabinet reshuffle", 1.2),
		en("POL_TRADE_POLICY", "tariff", 1.2),
		en("POL_TRADE_POLICY", "trade agreement", 1.0),
		en("POL_TRADE_POLICY", "export ban", 1.5),
		en("ECO_INFLATION", "inflation", 1.5),
		en("ECO_INFLATION", "consumer prices", 1.2),
		en("ECO_INFLATION", "price increase", 1.0),
		en("ECO_INTEREST_RATES", "interest rate", 1.5),
		en("ECO_INTEREST_RATES", "central bank", 1.0),
		en("ECO_INTEREST_RATES", "rate hike", 1.5),
		en("ECO_INTEREST_RATES", "rate cut", 1.5),
		en("ECO_ENERGY_PRICES", "energy prices", 1.5),
		en("ECO_ENERGY_PRICES", "electricity cost", 1.2),
		en("ECO_ENERGY_PRICES", "oil price", 1.2),
		en("ECO_ENERGY_PRICES", "natural gas", 1.0),
		en("ECO_CONSUMER_CONFIDENCE", "consumer confidence", 1.5),
		en("ECO_CONSUMER_CONFIDENCE", "retail sales", 1.0),
		en("ECO_CONSUMER_CONFIDENCE", "household spending", 1.0),
		en("SOC_SENTIMENT", "public opinion", 1.0),
		en("SOC_SENTIMENT", "protest", 1.2),
		en("SOC_SENTIMENT", "approval rating", 1.0),
		en("SOC_LABOR_UNREST", "strike", 1.5),
		en("SOC_LABOR_UNREST", "union", 0.8),
		en("SOC_LABOR_UNREST", "walkout", 1.2),
		en("TECH_ADOPTION", "automation", 1.0),
		en("TECH_ADOPTION", "digital transformation", 1.0),
		en("TECH_ADOPTION", "artificial intelligence", 1.0),
		en("ENV_REGULATION", "emissions", 1.2),
		en("ENV_REGULATION", "carbon tax", 1.5),
		en("ENV_REGULATION", "climate regulation", 1.2),
		en("LEG_COMPLIANCE_PRESSURE", "compliance", 1.2),
		en("LEG_COMPLIANCE_PRESSURE", "new legislation", 1.0),
		en("LEG_COMPLIANCE_PRESSURE", "court ruling", 1.0),
		en("LEG_COMPLIANCE_PRESSURE", "regulatory fine", 1.2),
	}
}

// Dependencies is the default causal graph over the national indicators.
// Weights are signed: a negative weight means the parent moving up pushes
// the child down.
func Dependencies() []models.IndicatorDependency {
	return []models.IndicatorDependency{
		{ParentID: "POL_STABILITY", ChildID: "ECO_CURRENCY_STABILITY", Weight: 0.6, Relationship: models.RelationInfluences},
		{ParentID: "POL_TRADE_POLICY", ChildID: "ECO_ENERGY_PRICES", Weight: 0.4, Relationship: models.RelationInfluences},
		{ParentID: "ECO_ENERGY_PRICES", ChildID: "ECO_INFLATION", Weight: 0.7, Relationship: models.RelationCauses},
		{ParentID: "ECO_INFLATION", ChildID: "ECO_INTEREST_RATES", Weight: 0.8, Relationship: models.RelationCauses},
		{ParentID: "ECO_INFLATION", ChildID: "ECO_CONSUMER_CONFIDENCE", Weight: -0.6, Relationship: models.RelationInfluences},
		{ParentID: "ECO_INTEREST_RATES", ChildID: "ECO_CONSUMER_CONFIDENCE", Weight: -0.5, Relationship: models.RelationInfluences},
		{ParentID: "ECO_CURRENCY_STABILITY", ChildID: "ECO_INFLATION", Weight: -0.5, Relationship: models.RelationInfluences},
		{ParentID: "SOC_LABOR_UNREST", ChildID: "SOC_SENTIMENT", Weight: -0.4, Relationship: models.RelationCorrelates},
		{ParentID: "ENV_REGULATION", ChildID: "ECO_ENERGY_PRICES", Weight: 0.3, Relationship: models.RelationInfluences},
		{ParentID: "LEG_COMPLIANCE_PRESSURE", ChildID: "TECH_ADOPTION", Weight: -0.3, Relationship: models.RelationInfluences},
		{ParentID: "MACRO_STABILITY", ChildID: "POL_STABILITY", Weight: 0.4, Relationship: models.RelationCorrelates},
		{ParentID: "MACRO_STABILITY", ChildID: "ECO_CURRENCY_STABILITY", Weight: 0.4, Relationship: models.RelationCorrelates},
		{ParentID: "MACRO_STABILITY", ChildID: "ECO_INFLATION", Weight: 0.2, Relationship: models.RelationCorrelates},
	}
}
