package ingestion

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/horizonbi/backend/internal/classify"
	"github.com/horizonbi/backend/internal/entities"
	"github.com/horizonbi/backend/internal/indicators"
	"github.com/horizonbi/backend/internal/storage/models"
	"github.com/horizonbi/backend/internal/storage/sqlite"
	"github.com/horizonbi/backend/pkg/logger"
	"github.com/horizonbi/backend/pkg/utils"
)

// ArticleInput is the raw ingestion payload. Body may be plain text or a
// full HTML page; HTML is detected and stripped before classification.
type ArticleInput struct {
	Title             string
	Body              string
	SourceName        string
	SourceCredibility float64
	PublishedAt       *time.Time
}

// Result reports what a single ingestion produced.
type Result struct {
	Article      models.Article
	Mappings     []models.ArticleIndicatorMapping
	EntityScores map[string]float64
}

// Processor runs the per-article half of the pipeline: cleanup,
// classification, entity extraction and fact persistence. Aggregation into
// indicator values happens later in batch.
type Processor struct {
	db         *sqlite.Client
	classifier *classify.Classifier
	extractor  *entities.Extractor
	entityCalc *indicators.EntityCalculator
	categories map[string]models.Category
}

func NewProcessor(db *sqlite.Client, classifier *classify.Classifier, definitions []models.IndicatorDefinition) *Processor {
	categories := make(map[string]models.Category, len(definitions))
	for _, def := range definitions {
		categories[def.ID] = def.Category
	}

	return &Processor{
		db:         db,
		classifier: classifier,
		extractor:  entities.NewExtractor(),
		entityCalc: indicators.NewEntityCalculator(),
		categories: categories,
	}
}

func (p *Processor) ProcessArticle(ctx context.Context, input ArticleInput) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	body := input.Body
	title := strings.TrimSpace(input.Title)
	if looksLikeHTML(body) {
		body = cleanHTML(body)
		if title == "" {
			title = extractTitle(input.Body)
		}
	}
	body = strings.TrimSpace(body)

	if title == "" && body == "" {
		return nil, fmt.Errorf("no content extracted from article")
	}

	article := models.Article{
		ID:                utils.HashString(input.SourceName + "|" + title),
		Title:             title,
		Body:              body,
		SourceName:        input.SourceName,
		SourceCredibility: input.SourceCredibility,
		PublishedAt:       input.PublishedAt,
		IngestedAt:        time.Now().UTC(),
	}

	matches := p.classifier.Classify(title, body)
	mappings := classify.MappingsFor(article, matches)
	article.Category = p.dominantCategory(matches)

	ents, err := p.extractor.Extract(title + ". " + body)
	if err != nil {
		logger.Warn("Entity extraction failed, continuing with keyword mappings only",
			zap.String("article_id", article.ID),
			zap.Error(err),
		)
		ents = entities.ExtractedEntities{}
	}

	entityScores := p.entityCalc.CalculateAll(ents)
	for indicatorID, confidence := range entityScores {
		if confidence <= 0 {
			continue
		}
		mappings = append(mappings, models.ArticleIndicatorMapping{
			ArticleID:            article.ID,
			IndicatorID:          indicatorID,
			MatchConfidence:      confidence,
			ClassificationMethod: "entity",
			ArticlePublishedAt:   article.PublishedAt,
		})
	}

	err = p.db.InsertArticle(&article)
	if err != nil {
		return nil, fmt.Errorf("failed to store article: %w", err)
	}

	for i := range mappings {
		err = p.db.InsertMapping(&mappings[i])
		if err != nil {
			return nil, fmt.Errorf("failed to store mapping: %w", err)
		}
	}

	logger.Info("Article processed",
		zap.String("article_id", article.ID),
		zap.String("source", article.SourceName),
		zap.Int("mappings", len(mappings)),
	)

	return &Result{
		Article:      article,
		Mappings:     mappings,
		EntityScores: entityScores,
	}, nil
}

// dominantCategory picks the category of the highest-confidence keyword
// match. Ties resolve to the earlier match, which is stable because the
// classifier emits matches in definition order.
func (p *Processor) dominantCategory(matches []classify.Match) models.Category {
	best := ""
	bestConfidence := 0.0
	for _, m := range matches {
		if m.Confidence > bestConfidence {
			best = m.IndicatorID
			bestConfidence = m.Confidence
		}
	}
	return p.categories[best]
}

var whitespacePattern = regexp.MustCompile(`\s+`)

func looksLikeHTML(body string) bool {
	lower := strings.ToLower(body)
	return strings.Contains(lower, "<html") || strings.Contains(lower, "<body") || strings.Contains(lower, "<p>")
}

func cleanHTML(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	doc.Find("script, style, nav, footer, header, aside").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	text := doc.Find("body").Text()
	if text == "" {
		text = doc.Text()
	}

	return strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
}

func extractTitle(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	title := doc.Find("title").First().Text()
	if title == "" {
		title = doc.Find("h1").First().Text()
	}

	return strings.TrimSpace(title)
}
