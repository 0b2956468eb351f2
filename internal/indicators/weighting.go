package indicators

import (
	"time"

	"github.com/horizonbi/backend/internal/storage/models"
)

const recencyDecayPerDay = 0.2

// ArticleWeight converts an article's recency and source credibility into a
// scalar aggregation weight. It never fails: a missing publish time or
// credibility score falls back to a neutral 1.0 component so weighting can
// never block aggregation.
func ArticleWeight(article models.Article, now time.Time) float64 {
	return recencyWeight(article.PublishedAt, now) * credibilityWeight(article.SourceCredibility)
}

func recencyWeight(publishedAt *time.Time, now time.Time) float64 {
	if publishedAt == nil {
		return 1.0
	}

	daysOld := now.Sub(*publishedAt).Hours() / 24
	if daysOld < 0 {
		daysOld = 0
	}
	daysOld = float64(int(daysOld))

	return 1.0 / (1.0 + daysOld*recencyDecayPerDay)
}

func credibilityWeight(credibility float64) float64 {
	if credibility <= 0 || credibility > 1 {
		return 1.0
	}
	return credibility
}
