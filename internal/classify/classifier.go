package classify

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/horizonbi/backend/internal/storage/models"
	"github.com/horizonbi/backend/pkg/logger"
)

var ErrEmptyDefinitions = errors.New("indicator definition table is empty")

const titleBoost = 2.0

// Match is one indicator hit for an article.
type Match struct {
	IndicatorID     string
	Confidence      float64
	MatchedKeywords []string
	KeywordCount    int
}

// Classifier maps raw article text onto indicator definitions using a
// static keyword table. Classification is deterministic: the same keyword
// table and input text always produce the same matches in the same order.
type Classifier struct {
	definitions []models.IndicatorDefinition
	keywords    map[string][]models.IndicatorKeyword
}

func NewClassifier(definitions []models.IndicatorDefinition, keywords []models.IndicatorKeyword) (*Classifier, error) {
	if len(definitions) == 0 {
		return nil, ErrEmptyDefinitions
	}

	known := make(map[string]bool, len(definitions))
	for _, def := range definitions {
		known[def.ID] = true
	}

	byIndicator := make(map[string][]models.IndicatorKeyword)
	for _, kw := range keywords {
		if !known[kw.IndicatorID] {
			logger.Warn("Keyword references unknown indicator, skipping",
				zap.String("indicator_id", kw.IndicatorID),
				zap.String("keyword", kw.Keyword),
			)
			continue
		}
		byIndicator[kw.IndicatorID] = append(byIndicator[kw.IndicatorID], kw)
	}

	return &Classifier{
		definitions: definitions,
		keywords:    byIndicator,
	}, nil
}

// Classify scans title and body for each indicator's keyword set and returns
// one match per indicator with at least one hit. Indicators are evaluated in
// definition order, which makes ordering between equal confidences stable.
// An article with zero keyword hits yields an empty slice.
func (c *Classifier) Classify(title, body string) []Match {
	lowerTitle := strings.ToLower(title)
	lowerBody := strings.ToLower(body)

	var matches []Match
	for _, def := range c.definitions {
		match, ok := c.matchIndicator(def, lowerTitle, lowerBody)
		if ok {
			matches = append(matches, match)
		}
	}

	return matches
}

func (c *Classifier) matchIndicator(def models.IndicatorDefinition, lowerTitle, lowerBody string) (Match, bool) {
	kws := c.keywords[def.ID]
	if len(kws) == 0 {
		return Match{}, false
	}

	var matched []string
	var weightedOccurrences float64
	titleHit := false

	for _, kw := range kws {
		needle := strings.ToLower(kw.Keyword)
		if needle == "" {
			continue
		}

		bodyCount := strings.Count(lowerBody, needle)
		titleCount := strings.Count(lowerTitle, needle)
		if bodyCount == 0 && titleCount == 0 {
			continue
		}

		weight := kw.Weight
		if weight <= 0 {
			weight = 1.0
		}

		matched = append(matched, kw.Keyword)
		weightedOccurrences += weight * (float64(bodyCount) + titleBoost*float64(titleCount))
		if titleCount > 0 {
			titleHit = true
		}
	}

	if len(matched) == 0 {
		return Match{}, false
	}

	confidence := scoreMatch(len(matched), weightedOccurrences, titleHit)

	return Match{
		IndicatorID:     def.ID,
		Confidence:      confidence,
		MatchedKeywords: matched,
		KeywordCount:    len(matched),
	}, true
}

// scoreMatch combines distinct-keyword breadth, weighted occurrence volume
// and a title bonus into a [0,1] confidence.
func scoreMatch(distinct int, weightedOccurrences float64, titleHit bool) float64 {
	confidence := 0.3 + 0.1*float64(distinct-1)

	occBonus := 0.05 * weightedOccurrences
	if occBonus > 0.3 {
		occBonus = 0.3
	}
	confidence += occBonus

	if titleHit {
		confidence += 0.1
	}

	return clamp01(confidence)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// MappingsFor converts classification matches into append-only fact rows for
// the given article.
func MappingsFor(article models.Article, matches []Match) []models.ArticleIndicatorMapping {
	mappings := make([]models.ArticleIndicatorMapping, 0, len(matches))
	for _, m := range matches {
		mappings = append(mappings, models.ArticleIndicatorMapping{
			ArticleID:            article.ID,
			IndicatorID:          m.IndicatorID,
			MatchConfidence:      m.Confidence,
			MatchedKeywords:      m.MatchedKeywords,
			ClassificationMethod: "keyword",
			ArticlePublishedAt:   article.PublishedAt,
		})
	}
	return mappings
}

// String summarizes a match for logs.
func (m Match) String() string {
	return fmt.Sprintf("%s(%.2f, %d keywords)", m.IndicatorID, m.Confidence, m.KeywordCount)
}
