package indicators

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/horizonbi/backend/internal/storage/models"
	"github.com/horizonbi/backend/pkg/logger"
)

// Aggregator reduces weighted per-article confidences into one indicator
// value per (indicator, day) bucket. Buckets with no mapped articles produce
// no row: the resulting series is sparse, never zero-filled.
type Aggregator struct {
	workers int
}

func NewAggregator(workers int) *Aggregator {
	if workers <= 0 {
		workers = 4
	}
	return &Aggregator{workers: workers}
}

type bucketKey struct {
	indicatorID string
	day         time.Time
}

type accumulator struct {
	weightedSum float64
	weightSum   float64
	sources     int
}

// Aggregate computes article weights concurrently and reduces them into a
// single accumulator per bucket. Article weighting shares no state between
// invocations, so the only synchronization point is the reduction map.
func (a *Aggregator) Aggregate(articles []models.Article, mappings []models.ArticleIndicatorMapping, now time.Time) []models.IndicatorValue {
	weights := a.weighArticles(articles, now)

	buckets := make(map[bucketKey]*accumulator)
	for _, m := range mappings {
		weight, ok := weights[m.ArticleID]
		if !ok {
			logger.Debug("Mapping references unknown article, skipping",
				zap.String("article_id", m.ArticleID),
				zap.String("indicator_id", m.IndicatorID),
			)
			continue
		}

		key := bucketKey{
			indicatorID: m.IndicatorID,
			day:         bucketDay(m.ArticlePublishedAt, now),
		}

		acc := buckets[key]
		if acc == nil {
			acc = &accumulator{}
			buckets[key] = acc
		}
		acc.weightedSum += weight * m.MatchConfidence
		acc.weightSum += weight
		acc.sources++
	}

	values := make([]models.IndicatorValue, 0, len(buckets))
	for key, acc := range buckets {
		if acc.weightSum == 0 {
			continue
		}
		values = append(values, models.IndicatorValue{
			IndicatorID: key.indicatorID,
			Time:        key.day,
			Value:       acc.weightedSum / acc.weightSum,
			Confidence:  sourceConfidence(acc.sources),
			SourceCount: acc.sources,
		})
	}

	sort.Slice(values, func(i, j int) bool {
		if values[i].IndicatorID != values[j].IndicatorID {
			return values[i].IndicatorID < values[j].IndicatorID
		}
		return values[i].Time.Before(values[j].Time)
	})

	return values
}

func (a *Aggregator) weighArticles(articles []models.Article, now time.Time) map[string]float64 {
	weights := make(map[string]float64, len(articles))

	var mu sync.Mutex
	var wg sync.WaitGroup
	jobs := make(chan models.Article)

	for i := 0; i < a.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for article := range jobs {
				weight := ArticleWeight(article, now)
				mu.Lock()
				weights[article.ID] = weight
				mu.Unlock()
			}
		}()
	}

	for _, article := range articles {
		jobs <- article
	}
	close(jobs)
	wg.Wait()

	return weights
}

func bucketDay(publishedAt *time.Time, now time.Time) time.Time {
	t := now
	if publishedAt != nil {
		t = *publishedAt
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// sourceConfidence grows with corroborating source count and saturates at 1.
func sourceConfidence(sources int) float64 {
	confidence := 0.5 + 0.1*float64(sources)
	if confidence > 1.0 {
		confidence = 1.0
	}
	return confidence
}

// CompositeValue computes a composite indicator from its children as a
// weighted average. An empty dependency list or zero total weight returns
// the documented neutral default 0.0, not an error.
func CompositeValue(children map[string]float64, deps []models.IndicatorDependency) float64 {
	var weightedSum, weightSum float64
	for _, dep := range deps {
		value, ok := children[dep.ChildID]
		if !ok {
			continue
		}
		weightedSum += value * dep.Weight
		weightSum += dep.Weight
	}

	if weightSum == 0 {
		return 0.0
	}
	return weightedSum / weightSum
}
