package ingestion

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/horizonbi/backend/internal/classify"
	"github.com/horizonbi/backend/internal/storage/models"
	"github.com/horizonbi/backend/internal/storage/sqlite"
)

func newTestProcessor(t *testing.T) (*Processor, *sqlite.Client) {
	t.Helper()

	db, err := sqlite.NewClient(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.InitSchema())

	definitions := []models.IndicatorDefinition{
		{ID: "POL_STABILITY", Name: "Political Stability", Category: models.CategoryPolitical, CalculationType: models.CalcFrequencyCount, BaseWeight: 1.0},
		{ID: "ECO_INFLATION", Name: "Inflation Pressure", Category: models.CategoryEconomic, CalculationType: models.CalcFrequencyCount, BaseWeight: 1.0},
	}
	keywords := []models.IndicatorKeyword{
		{IndicatorID: "POL_STABILITY", Keyword: "election", Weight: 1.0, Language: "en"},
		{IndicatorID: "ECO_INFLATION", Keyword: "inflation", Weight: 1.5, Language: "en"},
		{IndicatorID: "ECO_INFLATION", Keyword: "price increase", Weight: 1.0, Language: "en"},
	}

	classifier, err := classify.NewClassifier(definitions, keywords)
	require.NoError(t, err)

	return NewProcessor(db, classifier, definitions), db
}

func TestProcessArticleStoresMappings(t *testing.T) {
	p, db := newTestProcessor(t)

	published := time.Now().Add(-24 * time.Hour)
	result, err := p.ProcessArticle(context.Background(), ArticleInput{
		Title:             "Inflation hits new high after price increase wave",
		Body:              "Central bank officials warned that inflation is accelerating across the region.",
		SourceName:        "test-wire",
		SourceCredibility: 0.8,
		PublishedAt:       &published,
	})
	require.NoError(t, err)

	assert.Equal(t, models.CategoryEconomic, result.Article.Category)

	var keywordMappings []models.ArticleIndicatorMapping
	for _, m := range result.Mappings {
		if m.ClassificationMethod == "keyword" {
			keywordMappings = append(keywordMappings, m)
		}
	}
	require.Len(t, keywordMappings, 1)
	assert.Equal(t, "ECO_INFLATION", keywordMappings[0].IndicatorID)
	assert.Greater(t, keywordMappings[0].MatchConfidence, 0.0)

	stored, err := db.GetMappingsSince(time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Len(t, stored, len(result.Mappings))
}

func TestProcessArticleCleansHTML(t *testing.T) {
	p, _ := newTestProcessor(t)

	html := `<html><head><title>Election results announced</title><style>body{}</style></head>
		<body><nav>menu</nav><p>Voters went to the polls as the election concluded.</p><footer>about</footer></body></html>`

	result, err := p.ProcessArticle(context.Background(), ArticleInput{
		Body:              html,
		SourceName:        "test-wire",
		SourceCredibility: 0.6,
	})
	require.NoError(t, err)

	assert.Equal(t, "Election results announced", result.Article.Title)
	assert.NotContains(t, result.Article.Body, "<p>")
	assert.NotContains(t, result.Article.Body, "menu")
	assert.Equal(t, models.CategoryPolitical, result.Article.Category)
}

func TestProcessArticleRejectsEmpty(t *testing.T) {
	p, _ := newTestProcessor(t)

	_, err := p.ProcessArticle(context.Background(), ArticleInput{SourceName: "test-wire"})
	assert.Error(t, err)
}

func TestProcessArticleEntityAmounts(t *testing.T) {
	p, _ := newTestProcessor(t)

	result, err := p.ProcessArticle(context.Background(), ArticleInput{
		Title:             "Trade deal signed",
		Body:              "The agreement covers $2.5 billion in exports and a further €800 million in services, up 12% year on year. Officials say inflation remains a risk.",
		SourceName:        "test-wire",
		SourceCredibility: 0.9,
	})
	require.NoError(t, err)

	// Two currencies, a large amount and a percentage all present.
	assert.InDelta(t, 0.9, result.EntityScores["ECO_CURRENCY_STABILITY"], 1e-9)

	found := false
	for _, m := range result.Mappings {
		if m.IndicatorID == "ECO_CURRENCY_STABILITY" && m.ClassificationMethod == "entity" {
			found = true
		}
	}
	assert.True(t, found, "entity mapping should be persisted")
}
