package pipeline

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/horizonbi/backend/internal/storage/models"
	"github.com/horizonbi/backend/internal/storage/sqlite"
)

func newTestDB(t *testing.T) *sqlite.Client {
	t.Helper()

	db, err := sqlite.NewClient(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.InitSchema())
	return db
}

func seedArticleWithMapping(t *testing.T, db *sqlite.Client, id string, publishedAt time.Time, confidence float64) {
	t.Helper()

	published := publishedAt
	article := &models.Article{
		ID:                id,
		Title:             "title " + id,
		Body:              "body",
		SourceName:        "wire",
		SourceCredibility: 1.0,
		PublishedAt:       &published,
		IngestedAt:        time.Now().UTC(),
	}
	require.NoError(t, db.InsertArticle(article))

	require.NoError(t, db.InsertMapping(&models.ArticleIndicatorMapping{
		ArticleID:            id,
		IndicatorID:          "ECO_INFLATION",
		MatchConfidence:      confidence,
		ClassificationMethod: "keyword",
		ArticlePublishedAt:   &published,
	}))
}

func TestRunWritesDailyValues(t *testing.T) {
	db := newTestDB(t)

	now := time.Now().UTC()
	seedArticleWithMapping(t, db, "a1", now.Add(-2*time.Hour), 0.6)
	seedArticleWithMapping(t, db, "a2", now.Add(-3*time.Hour), 0.8)

	runner := NewRunner(db, nil, 2, 30)
	report, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Articles)
	assert.Equal(t, 2, report.Mappings)
	assert.Equal(t, 1, report.ValuesWritten)

	series, err := db.GetSeries("ECO_INFLATION", now.Add(-48*time.Hour), now)
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, 2, series[0].SourceCount)
	assert.Greater(t, series[0].Value, 0.0)
}

func TestRunIsIdempotent(t *testing.T) {
	db := newTestDB(t)

	now := time.Now().UTC()
	seedArticleWithMapping(t, db, "a1", now.Add(-time.Hour), 0.7)

	runner := NewRunner(db, nil, 2, 30)

	_, err := runner.Run(context.Background())
	require.NoError(t, err)
	first, err := db.GetSeries("ECO_INFLATION", now.Add(-48*time.Hour), now)
	require.NoError(t, err)

	_, err = runner.Run(context.Background())
	require.NoError(t, err)
	second, err := db.GetSeries("ECO_INFLATION", now.Add(-48*time.Hour), now)
	require.NoError(t, err)

	require.Len(t, second, len(first))
	assert.InDelta(t, first[0].Value, second[0].Value, 1e-9)
}

func TestRunUpdatesComposites(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.InsertDefinition(&models.IndicatorDefinition{
		ID: "ECO_INFLATION", Name: "Inflation", Category: models.CategoryEconomic,
		CalculationType: models.CalcFrequencyCount, BaseWeight: 1.0,
	}))
	require.NoError(t, db.InsertDefinition(&models.IndicatorDefinition{
		ID: "ECO_HEALTH", Name: "Economic Health", Category: models.CategoryEconomic,
		CalculationType: models.CalcComposite, BaseWeight: 1.0,
	}))
	require.NoError(t, db.InsertDependency(&models.IndicatorDependency{
		ParentID: "ECO_HEALTH", ChildID: "ECO_INFLATION", Weight: 1.0, Relationship: models.RelationInfluences,
	}))

	now := time.Now().UTC()
	seedArticleWithMapping(t, db, "a1", now.Add(-time.Hour), 0.8)

	runner := NewRunner(db, nil, 2, 30)
	report, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.CompositesWritten)

	series, err := db.GetSeries("ECO_HEALTH", now.Add(-48*time.Hour), now)
	require.NoError(t, err)
	require.Len(t, series, 1)
	// Single child with full weight: composite mirrors the child.
	assert.InDelta(t, 0.8, series[0].Value, 1e-9)
	assert.InDelta(t, 1.0, series[0].Confidence, 1e-9)
}

func TestRunEmptyWindow(t *testing.T) {
	db := newTestDB(t)

	runner := NewRunner(db, nil, 2, 30)
	report, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, report.Articles)
	assert.Zero(t, report.ValuesWritten)
}
