package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	cache "github.com/horizonbi/backend/internal/cache/redis"
	"github.com/horizonbi/backend/internal/indicators"
	"github.com/horizonbi/backend/internal/metrics"
	"github.com/horizonbi/backend/internal/storage/models"
	"github.com/horizonbi/backend/internal/storage/sqlite"
	"github.com/horizonbi/backend/pkg/logger"
)

// Runner executes the batch half of the pipeline: it re-aggregates the
// article facts inside the lookback window into daily indicator values,
// recomputes composite indicators and invalidates derived caches.
//
// Runs are idempotent. Aggregation reads append-only facts and writes one
// row per (indicator, day) bucket, so re-running over the same window
// replaces buckets with identical values.
type Runner struct {
	db         *sqlite.Client
	cache      *cache.Client
	aggregator *indicators.Aggregator
	lookback   time.Duration
}

// Report summarizes one pipeline run.
type Report struct {
	Articles          int
	Mappings          int
	ValuesWritten     int
	CompositesWritten int
	Duration          time.Duration
}

func NewRunner(db *sqlite.Client, cacheClient *cache.Client, workers, aggregationDays int) *Runner {
	if aggregationDays <= 0 {
		aggregationDays = 30
	}
	return &Runner{
		db:         db,
		cache:      cacheClient,
		aggregator: indicators.NewAggregator(workers),
		lookback:   time.Duration(aggregationDays) * 24 * time.Hour,
	}
}

func (r *Runner) Run(ctx context.Context) (*Report, error) {
	start := time.Now()

	report, err := r.run(ctx, start)
	if err != nil {
		metrics.PipelineRuns.WithLabelValues("error").Inc()
		return nil, err
	}

	report.Duration = time.Since(start)
	metrics.PipelineRuns.WithLabelValues("success").Inc()
	metrics.PipelineDuration.Observe(report.Duration.Seconds())

	logger.Info("Pipeline run complete",
		zap.Int("articles", report.Articles),
		zap.Int("mappings", report.Mappings),
		zap.Int("values_written", report.ValuesWritten),
		zap.Int("composites_written", report.CompositesWritten),
		zap.Duration("duration", report.Duration),
	)

	return report, nil
}

func (r *Runner) run(ctx context.Context, now time.Time) (*Report, error) {
	since := now.Add(-r.lookback)

	articles, err := r.db.GetArticlesSince(since)
	if err != nil {
		return nil, fmt.Errorf("failed to load articles: %w", err)
	}

	mappings, err := r.db.GetMappingsSince(since)
	if err != nil {
		return nil, fmt.Errorf("failed to load mappings: %w", err)
	}

	values := r.aggregator.Aggregate(articles, mappings, now)
	for i := range values {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		err = r.db.AppendIndicatorValue(&values[i])
		if err != nil {
			return nil, fmt.Errorf("failed to write indicator value: %w", err)
		}
	}
	metrics.IndicatorValuesWritten.Add(float64(len(values)))

	composites, err := r.updateComposites(now)
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		err = r.cache.InvalidateInsights(ctx)
		if err != nil {
			logger.Warn("Failed to invalidate insight cache", zap.Error(err))
		}
	}

	return &Report{
		Articles:          len(articles),
		Mappings:          len(mappings),
		ValuesWritten:     len(values),
		CompositesWritten: composites,
	}, nil
}

// updateComposites recomputes every composite indicator from the latest
// values of its children. A composite with no observed children gets the
// neutral default and is still written, so downstream consumers always see
// a row for it.
func (r *Runner) updateComposites(now time.Time) (int, error) {
	definitions, err := r.db.GetDefinitions()
	if err != nil {
		return 0, fmt.Errorf("failed to load definitions: %w", err)
	}

	dependencies, err := r.db.GetDependencies()
	if err != nil {
		return 0, fmt.Errorf("failed to load dependencies: %w", err)
	}

	latest, err := r.db.GetLatestValues()
	if err != nil {
		return 0, fmt.Errorf("failed to load latest values: %w", err)
	}

	byParent := make(map[string][]models.IndicatorDependency)
	for _, dep := range dependencies {
		byParent[dep.ParentID] = append(byParent[dep.ParentID], dep)
	}

	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	written := 0
	for _, def := range definitions {
		if def.CalculationType != models.CalcComposite {
			continue
		}

		deps := byParent[def.ID]
		value := indicators.CompositeValue(latest, deps)

		observed := 0
		for _, dep := range deps {
			if _, ok := latest[dep.ChildID]; ok {
				observed++
			}
		}

		confidence := 0.0
		if len(deps) > 0 {
			confidence = float64(observed) / float64(len(deps))
		}

		err = r.db.AppendIndicatorValue(&models.IndicatorValue{
			IndicatorID: def.ID,
			Time:        day,
			Value:       value,
			Confidence:  confidence,
			SourceCount: observed,
		})
		if err != nil {
			return written, fmt.Errorf("failed to write composite value: %w", err)
		}
		written++
	}

	return written, nil
}

// RunPeriodic re-runs the pipeline on a fixed interval until the context is
// canceled. Failures are logged and do not stop the loop.
func (r *Runner) RunPeriodic(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Pipeline loop stopped")
			return
		case <-ticker.C:
			_, err := r.Run(ctx)
			if err != nil {
				logger.Error("Pipeline run failed", zap.Error(err))
			}
		}
	}
}
