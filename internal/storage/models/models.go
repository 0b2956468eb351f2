package models

import "time"

type Category string

const (
	CategoryPolitical     Category = "political"
	CategoryEconomic      Category = "economic"
	CategorySocial        Category = "social"
	CategoryTechnological Category = "technological"
	CategoryEnvironmental Category = "environmental"
	CategoryLegal         Category = "legal"
)

type CalculationType string

const (
	CalcFrequencyCount     CalculationType = "frequency_count"
	CalcSentimentAggregate CalculationType = "sentiment_aggregate"
	CalcNumericExtraction  CalculationType = "numeric_extraction"
	CalcComposite          CalculationType = "composite"
	CalcRatio              CalculationType = "ratio"
	CalcWeightedAverage    CalculationType = "weighted_average"
)

type RelationshipType string

const (
	RelationCauses     RelationshipType = "causes"
	RelationCorrelates RelationshipType = "correlates"
	RelationInfluences RelationshipType = "influences"
)

type Article struct {
	ID                string
	Title             string
	Body              string
	SourceName        string
	SourceCredibility float64
	Category          Category
	PublishedAt       *time.Time
	IngestedAt        time.Time
}

type IndicatorDefinition struct {
	ID              string
	Name            string
	Category        Category
	CalculationType CalculationType
	BaseWeight      float64
	ThresholdHigh   *float64
	ThresholdLow    *float64
}

type IndicatorKeyword struct {
	IndicatorID string
	Keyword     string
	Weight      float64
	Language    string
}

type ArticleIndicatorMapping struct {
	ArticleID            string
	IndicatorID          string
	MatchConfidence      float64
	MatchedKeywords      []string
	ClassificationMethod string
	ArticlePublishedAt   *time.Time
}

// IndicatorValue is the single authoritative value schema: one row per
// indicator per aggregation bucket.
type IndicatorValue struct {
	IndicatorID string
	Time        time.Time
	Value       float64
	Confidence  float64
	SourceCount int
}

type IndicatorDependency struct {
	ParentID     string
	ChildID      string
	Weight       float64
	Relationship RelationshipType
}

type OperationalIndicatorValue struct {
	CompanyID        string
	Code             string
	Time             time.Time
	Value            float64
	NormalizedValue  float64
	PreviousValue    float64
	ChangePercentage float64
	IndustryAverage  float64
	Confidence       float64
	NationalInputs   []string
}

type CompanyProfile struct {
	CompanyID          string
	Name               string
	Industry           string
	BusinessScale      string
	Dependencies       map[string]float64
	Sensitivities      map[string]float64
	RiskTolerance      float64
	GeographicExposure []string
}

type DetectedRisk struct {
	ID                     string
	CompanyID              string
	Code                   string
	Description            string
	Impact                 float64
	Probability            float64
	Score                  float64
	Confidence             float64
	ContributingIndicators []string
	DetectedAt             time.Time
}

type DetectedOpportunity struct {
	ID                     string
	CompanyID              string
	Code                   string
	Description            string
	PotentialValue         float64
	Feasibility            float64
	Score                  float64
	Confidence             float64
	ContributingIndicators []string
	DetectedAt             time.Time
}

type Recommendation struct {
	ID              string
	CompanyID       string
	SourceCode      string
	SourceKind      string
	Title           string
	Description     string
	ActionSteps     []string
	Priority        float64
	EstimatedImpact string
	GeneratedBy     string
	CreatedAt       time.Time
}
