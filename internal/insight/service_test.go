package insight

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/horizonbi/backend/internal/analysis"
	"github.com/horizonbi/backend/internal/storage/models"
	"github.com/horizonbi/backend/internal/storage/sqlite"
)

func newServiceDB(t *testing.T) *sqlite.Client {
	t.Helper()

	db, err := sqlite.NewClient(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.InitSchema())
	return db
}

func seedDefinition(t *testing.T, db *sqlite.Client, id string, category models.Category) {
	t.Helper()
	require.NoError(t, db.InsertDefinition(&models.IndicatorDefinition{
		ID: id, Name: id, Category: category,
		CalculationType: models.CalcFrequencyCount, BaseWeight: 1.0,
	}))
}

func seedValue(t *testing.T, db *sqlite.Client, id string, at time.Time, value float64) {
	t.Helper()
	require.NoError(t, db.AppendIndicatorValue(&models.IndicatorValue{
		IndicatorID: id, Time: at, Value: value, Confidence: 0.8, SourceCount: 3,
	}))
}

func TestComputeInsightsEndToEnd(t *testing.T) {
	db := newServiceDB(t)

	require.NoError(t, db.UpsertCompanyProfile(&models.CompanyProfile{
		CompanyID: "acme",
		Name:      "Acme",
		Industry:  "manufacturing",
	}))

	now := time.Now().UTC()
	seedDefinition(t, db, "ECO_CONSUMER_CONFIDENCE", models.CategoryEconomic)
	seedDefinition(t, db, "SOC_SENTIMENT", models.CategorySocial)
	seedValue(t, db, "ECO_CONSUMER_CONFIDENCE", now, 0.8)
	seedValue(t, db, "SOC_SENTIMENT", now, 0.8)

	svc := NewService(db, nil, nil, ServiceConfig{})
	insights, err := svc.ComputeInsights(context.Background(), "acme")
	require.NoError(t, err)

	var demand *models.OperationalIndicatorValue
	for i := range insights.Operational {
		if insights.Operational[i].Code == "OPS_DEMAND_OUTLOOK" {
			demand = &insights.Operational[i]
		}
	}
	require.NotNil(t, demand, "demand outlook should be computed from its national inputs")
	assert.InDelta(t, 80.0, demand.Value, 1e-9)

	// 80 crosses the expansion threshold with no trend requirement.
	require.Len(t, insights.Opportunities, 1)
	assert.Equal(t, "OPP_DEMAND_EXPANSION", insights.Opportunities[0].Code)
	assert.Empty(t, insights.Risks)

	require.Len(t, insights.Recommendations, 1)
	assert.Equal(t, "template", insights.Recommendations[0].GeneratedBy)

	// Operational values are persisted as a side effect.
	stored, err := db.GetLatestOperationalValues("acme")
	require.NoError(t, err)
	assert.InDelta(t, 80.0, stored["OPS_DEMAND_OUTLOOK"], 1e-9)
}

func TestComputeInsightsUnknownCompany(t *testing.T) {
	db := newServiceDB(t)

	svc := NewService(db, nil, nil, ServiceConfig{})
	_, err := svc.ComputeInsights(context.Background(), "ghost")
	assert.Error(t, err)
}

func TestAnalyzeIndicatorRisingSeries(t *testing.T) {
	db := newServiceDB(t)

	now := time.Now().UTC()
	for i := 0; i < 6; i++ {
		day := now.AddDate(0, 0, -6+i)
		seedValue(t, db, "ECO_INFLATION", day, 0.1*float64(i+1))
	}

	svc := NewService(db, nil, nil, ServiceConfig{ForecastDays: 3})
	result, err := svc.AnalyzeIndicator(context.Background(), "ECO_INFLATION")
	require.NoError(t, err)

	assert.Equal(t, 6, result.Points)
	assert.Equal(t, analysis.DirectionRising, result.Trend.Direction)
	assert.Len(t, result.Forecast, 3)
}

func TestAnalyzeIndicatorEmptySeries(t *testing.T) {
	db := newServiceDB(t)

	svc := NewService(db, nil, nil, ServiceConfig{})
	result, err := svc.AnalyzeIndicator(context.Background(), "ECO_NOTHING")
	require.NoError(t, err)

	assert.Zero(t, result.Points)
	assert.Equal(t, analysis.DirectionUnknown, result.Trend.Direction)
	assert.Empty(t, result.Forecast)
}

func TestSimulateShock(t *testing.T) {
	db := newServiceDB(t)

	seedDefinition(t, db, "ECO_INTEREST_RATES", models.CategoryEconomic)
	seedDefinition(t, db, "ECO_CONSUMER_CONFIDENCE", models.CategoryEconomic)
	require.NoError(t, db.InsertDependency(&models.IndicatorDependency{
		ParentID: "ECO_INTEREST_RATES", ChildID: "ECO_CONSUMER_CONFIDENCE",
		Weight: -0.5, Relationship: models.RelationInfluences,
	}))

	svc := NewService(db, nil, nil, ServiceConfig{})
	effects, err := svc.SimulateShock(context.Background(), "ECO_INTEREST_RATES", 10, 5, 0.5)
	require.NoError(t, err)

	require.Len(t, effects, 1)
	assert.Equal(t, "ECO_CONSUMER_CONFIDENCE", effects[0].IndicatorID)
	assert.InDelta(t, -5.0, effects[0].Delta, 1e-9)
}
