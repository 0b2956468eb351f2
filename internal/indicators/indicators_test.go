package indicators

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/horizonbi/backend/internal/entities"
	"github.com/horizonbi/backend/internal/storage/models"
)

func TestCurrencyStabilityNoAmounts(t *testing.T) {
	c := NewEntityCalculator()
	assert.Equal(t, 0.0, c.CurrencyStability(entities.ExtractedEntities{}))
}

func TestCurrencyStabilitySingleAmount(t *testing.T) {
	c := NewEntityCalculator()
	ents := entities.ExtractedEntities{
		Amounts: []entities.Amount{{Currency: "USD", Value: 500}},
	}
	assert.InDelta(t, 0.6, c.CurrencyStability(ents), 0.0001)
}

func TestCurrencyStabilityAllBonusesCapped(t *testing.T) {
	c := NewEntityCalculator()
	ents := entities.ExtractedEntities{
		Amounts: []entities.Amount{
			{Currency: "USD", Value: 2e9},
			{Currency: "EUR", Value: 100},
		},
		Percentages: []float64{3.5},
	}
	// 0.6 + 0.1 + 0.1 + 0.1 capped at 0.9.
	assert.InDelta(t, 0.9, c.CurrencyStability(ents), 0.0001)
}

func TestGeographicScopeNoLocations(t *testing.T) {
	c := NewEntityCalculator()
	assert.Equal(t, 0.0, c.GeographicScope(entities.ExtractedEntities{}))
}

func TestGeographicScopeSingleLocationFloor(t *testing.T) {
	c := NewEntityCalculator()
	ents := entities.ExtractedEntities{
		Locations: []string{"Ankara", "ankara", "ANKARA"},
	}
	// HHI = 1.0, diversity = 0 => floor 0.4.
	assert.InDelta(t, 0.4, c.GeographicScope(ents), 0.0001)
}

func TestGeographicScopeFourEqualLocations(t *testing.T) {
	c := NewEntityCalculator()
	ents := entities.ExtractedEntities{
		Locations: []string{"Ankara", "Berlin", "Cairo", "Delhi"},
	}
	// HHI = 0.25, diversity = 0.75 => 0.4 + 0.375 + 0.1 bonus = 0.875.
	assert.InDelta(t, 0.875, c.GeographicScope(ents), 0.0001)
}

func TestArticleWeightBounds(t *testing.T) {
	now := time.Now()

	for days := 0; days <= 365; days += 7 {
		published := now.AddDate(0, 0, -days)
		article := models.Article{PublishedAt: &published, SourceCredibility: 0.8}
		weight := ArticleWeight(article, now)
		assert.Greater(t, weight, 0.0)
		assert.LessOrEqual(t, weight, 1.0)
	}
}

func TestArticleWeightMonotonicInAge(t *testing.T) {
	now := time.Now()
	previous := 2.0

	for days := 0; days <= 60; days++ {
		published := now.AddDate(0, 0, -days)
		article := models.Article{PublishedAt: &published, SourceCredibility: 1.0}
		weight := ArticleWeight(article, now)
		assert.LessOrEqual(t, weight, previous, "weight must not increase with age")
		previous = weight
	}
}

func TestArticleWeightMissingTimestamp(t *testing.T) {
	article := models.Article{SourceCredibility: 0.5}
	assert.InDelta(t, 0.5, ArticleWeight(article, time.Now()), 0.0001)

	article.SourceCredibility = 0
	assert.InDelta(t, 1.0, ArticleWeight(article, time.Now()), 0.0001)
}

func TestArticleWeightFutureTimestampNotBoosted(t *testing.T) {
	now := time.Now()
	future := now.AddDate(0, 0, 3)
	article := models.Article{PublishedAt: &future, SourceCredibility: 1.0}
	assert.InDelta(t, 1.0, ArticleWeight(article, now), 0.0001)
}

func TestCompositeValueNeutralDefault(t *testing.T) {
	assert.Equal(t, 0.0, CompositeValue(map[string]float64{}, nil))
	assert.Equal(t, 0.0, CompositeValue(map[string]float64{"A": 10}, []models.IndicatorDependency{}))
}

func TestCompositeValueWeightedAverage(t *testing.T) {
	children := map[string]float64{"A": 50, "B": 100}
	deps := []models.IndicatorDependency{
		{ParentID: "P", ChildID: "A", Weight: 1},
		{ParentID: "P", ChildID: "B", Weight: 1},
	}
	assert.InDelta(t, 75.0, CompositeValue(children, deps), 0.0001)
}

func TestCompositeValueSkipsMissingChildren(t *testing.T) {
	children := map[string]float64{"A": 40}
	deps := []models.IndicatorDependency{
		{ParentID: "P", ChildID: "A", Weight: 2},
		{ParentID: "P", ChildID: "MISSING", Weight: 5},
	}
	assert.InDelta(t, 40.0, CompositeValue(children, deps), 0.0001)
}

func TestAggregateEqualWeightsYieldsMean(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	published := now

	articles := []models.Article{
		{ID: "a1", PublishedAt: &published},
		{ID: "a2", PublishedAt: &published},
		{ID: "a3", PublishedAt: &published},
	}
	mappings := []models.ArticleIndicatorMapping{
		{ArticleID: "a1", IndicatorID: "ECO_INFLATION", MatchConfidence: 0.6, ArticlePublishedAt: &published},
		{ArticleID: "a2", IndicatorID: "ECO_INFLATION", MatchConfidence: 0.7, ArticlePublishedAt: &published},
		{ArticleID: "a3", IndicatorID: "ECO_INFLATION", MatchConfidence: 0.8, ArticlePublishedAt: &published},
	}

	values := NewAggregator(2).Aggregate(articles, mappings, now)
	require.Len(t, values, 1)
	assert.Equal(t, "ECO_INFLATION", values[0].IndicatorID)
	assert.InDelta(t, 0.7, values[0].Value, 0.0001)
	assert.Equal(t, 3, values[0].SourceCount)
}

func TestAggregateSparseSeries(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	values := NewAggregator(2).Aggregate(nil, nil, now)
	assert.Empty(t, values)
}

func TestAggregateSeparateDayBuckets(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	monday := time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)
	tuesday := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

	articles := []models.Article{
		{ID: "a1", PublishedAt: &monday},
		{ID: "a2", PublishedAt: &tuesday},
	}
	mappings := []models.ArticleIndicatorMapping{
		{ArticleID: "a1", IndicatorID: "ECO_INFLATION", MatchConfidence: 0.4, ArticlePublishedAt: &monday},
		{ArticleID: "a2", IndicatorID: "ECO_INFLATION", MatchConfidence: 0.8, ArticlePublishedAt: &tuesday},
	}

	values := NewAggregator(2).Aggregate(articles, mappings, now)
	require.Len(t, values, 2)
	assert.True(t, values[0].Time.Before(values[1].Time))
}
