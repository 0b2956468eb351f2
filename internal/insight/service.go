package insight

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/horizonbi/backend/internal/analysis"
	cache "github.com/horizonbi/backend/internal/cache/redis"
	"github.com/horizonbi/backend/internal/cascade"
	"github.com/horizonbi/backend/internal/metrics"
	"github.com/horizonbi/backend/internal/operational"
	"github.com/horizonbi/backend/internal/storage/models"
	"github.com/horizonbi/backend/internal/storage/sqlite"
	"github.com/horizonbi/backend/pkg/logger"
)

// ServiceConfig collects the tunables of the insight computation.
type ServiceConfig struct {
	LookbackDays   int
	ForecastDays   int
	TieBreakPolicy TieBreakPolicy
	CacheTTL       time.Duration
	Analysis       analysis.Config
}

// CompanyInsights is the full computed insight set for one company.
type CompanyInsights struct {
	CompanyID       string                             `json:"company_id"`
	GeneratedAt     time.Time                          `json:"generated_at"`
	Operational     []models.OperationalIndicatorValue `json:"operational"`
	Risks           []models.DetectedRisk              `json:"risks"`
	Opportunities   []models.DetectedOpportunity       `json:"opportunities"`
	Ranked          []Ranked                           `json:"ranked"`
	Recommendations []models.Recommendation            `json:"recommendations"`
}

// IndicatorAnalysis is the analysis bundle for one national indicator.
type IndicatorAnalysis struct {
	IndicatorID string                   `json:"indicator_id"`
	Points      int                      `json:"points"`
	Trend       analysis.Trend           `json:"trend"`
	Anomalies   []analysis.Anomaly       `json:"anomalies"`
	Forecast    []analysis.ForecastPoint `json:"forecast"`
}

// Service orchestrates the company-facing half of the pipeline: analysis of
// the national indicator series, translation to operational indicators,
// detection, prioritization and recommendation. Results are cached per
// company until the next pipeline run invalidates them.
type Service struct {
	db          *sqlite.Client
	cache       *cache.Client
	analyzer    *analysis.Analyzer
	translator  *operational.Translator
	detector    *Detector
	prioritizer *Prioritizer
	recommender *Recommender
	cfg         ServiceConfig
}

func NewService(db *sqlite.Client, cacheClient *cache.Client, narrator Narrator, cfg ServiceConfig) *Service {
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = 90
	}
	if cfg.ForecastDays <= 0 {
		cfg.ForecastDays = 7
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 15 * time.Minute
	}

	return &Service{
		db:          db,
		cache:       cacheClient,
		analyzer:    analysis.NewAnalyzer(cfg.Analysis),
		translator:  operational.NewTranslator(nil),
		detector:    NewDetector(nil),
		prioritizer: NewPrioritizer(cfg.TieBreakPolicy),
		recommender: NewRecommender(nil, narrator),
		cfg:         cfg,
	}
}

// ComputeInsights runs the full chain for one company. Cached results are
// returned as-is; a miss recomputes and persists the operational values as a
// side effect.
func (s *Service) ComputeInsights(ctx context.Context, companyID string) (*CompanyInsights, error) {
	if s.cache != nil {
		var cached CompanyInsights
		hit, err := s.cache.GetInsights(ctx, companyID, &cached)
		if err != nil {
			logger.Warn("Insight cache read failed", zap.Error(err))
		}
		if hit {
			metrics.CacheHits.WithLabelValues("insights").Inc()
			return &cached, nil
		}
		metrics.CacheMisses.WithLabelValues("insights").Inc()
	}

	start := time.Now()
	now := start.UTC()

	profile, err := s.db.GetCompanyProfile(companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load company profile: %w", err)
	}

	latest, err := s.db.GetLatestValues()
	if err != nil {
		return nil, fmt.Errorf("failed to load latest indicator values: %w", err)
	}

	// Aggregated national values live on a [0,1] confidence scale; the
	// operational catalog works on 0-100.
	national := make(map[string]float64, len(latest))
	for id, v := range latest {
		national[id] = v * 100
	}

	previous, err := s.db.GetLatestOperationalValues(companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load previous operational values: %w", err)
	}

	operationalValues := s.translator.Translate(national, *profile, previous, now)
	for i := range operationalValues {
		err = s.db.InsertOperationalValue(&operationalValues[i])
		if err != nil {
			return nil, fmt.Errorf("failed to store operational value: %w", err)
		}
	}

	trends := s.operationalTrends(now)

	risks, opportunities := s.detector.Detect(companyID, operationalValues, trends, now)
	metrics.RisksDetected.Add(float64(len(risks)))
	metrics.OpportunitiesDetected.Add(float64(len(opportunities)))

	ranked := s.prioritizer.Rank(risks, opportunities)
	recommendations := s.recommender.Recommend(ctx, companyID, ranked, now)

	insights := &CompanyInsights{
		CompanyID:       companyID,
		GeneratedAt:     now,
		Operational:     operationalValues,
		Risks:           risks,
		Opportunities:   opportunities,
		Ranked:          ranked,
		Recommendations: recommendations,
	}

	if s.cache != nil {
		err = s.cache.SetInsights(ctx, companyID, insights, s.cfg.CacheTTL)
		if err != nil {
			logger.Warn("Insight cache write failed", zap.Error(err))
		}
	}

	metrics.InsightDuration.WithLabelValues(companyID).Observe(time.Since(start).Seconds())

	logger.Info("Insights computed",
		zap.String("company_id", companyID),
		zap.Int("operational", len(operationalValues)),
		zap.Int("risks", len(risks)),
		zap.Int("opportunities", len(opportunities)),
	)

	return insights, nil
}

// operationalTrends derives a direction per operational code from its
// heaviest-weighted national input. Operational history is too short-lived
// to fit trends on directly, while the national series carry the full
// lookback window.
func (s *Service) operationalTrends(now time.Time) map[string]analysis.Direction {
	from := now.AddDate(0, 0, -s.cfg.LookbackDays)
	national := make(map[string]analysis.Direction)

	trendFor := func(indicatorID string) analysis.Direction {
		if dir, ok := national[indicatorID]; ok {
			return dir
		}
		dir := analysis.DirectionUnknown
		series, err := s.db.GetSeries(indicatorID, from, now)
		if err != nil {
			logger.Warn("Failed to load series for trend", zap.String("indicator_id", indicatorID), zap.Error(err))
		} else {
			dir = s.analyzer.DetectTrend(toPoints(series, 100)).Direction
		}
		national[indicatorID] = dir
		return dir
	}

	trends := make(map[string]analysis.Direction)
	for _, def := range operational.DefaultDefinitions() {
		var best operational.InputWeight
		for _, input := range def.Inputs {
			if input.Weight > best.Weight {
				best = input
			}
		}
		if best.IndicatorID == "" {
			continue
		}
		trends[def.Code] = trendFor(best.IndicatorID)
	}
	return trends
}

// AnalyzeIndicator returns trend, anomalies and forecast for one national
// indicator over the configured lookback window.
func (s *Service) AnalyzeIndicator(ctx context.Context, indicatorID string) (*IndicatorAnalysis, error) {
	if s.cache != nil {
		var cached IndicatorAnalysis
		hit, err := s.cache.GetAnalysis(ctx, indicatorID, &cached)
		if err != nil {
			logger.Warn("Analysis cache read failed", zap.Error(err))
		}
		if hit {
			metrics.CacheHits.WithLabelValues("analysis").Inc()
			return &cached, nil
		}
		metrics.CacheMisses.WithLabelValues("analysis").Inc()
	}

	now := time.Now().UTC()
	series, err := s.db.GetSeries(indicatorID, now.AddDate(0, 0, -s.cfg.LookbackDays), now)
	if err != nil {
		return nil, fmt.Errorf("failed to load series: %w", err)
	}

	points := toPoints(series, 100)
	result := &IndicatorAnalysis{
		IndicatorID: indicatorID,
		Points:      len(points),
		Trend:       s.analyzer.DetectTrend(points),
		Anomalies:   s.analyzer.DetectAnomalies(points),
		Forecast:    s.analyzer.Forecast(points, s.cfg.ForecastDays),
	}

	if s.cache != nil {
		err = s.cache.SetAnalysis(ctx, indicatorID, result, s.cfg.CacheTTL)
		if err != nil {
			logger.Warn("Analysis cache write failed", zap.Error(err))
		}
	}

	return result, nil
}

// SimulateShock propagates a hypothetical delta on one indicator through the
// dependency graph and returns the downstream effects.
func (s *Service) SimulateShock(ctx context.Context, indicatorID string, delta float64, maxDepth int, minDelta float64) ([]cascade.Effect, error) {
	definitions, err := s.db.GetDefinitions()
	if err != nil {
		return nil, fmt.Errorf("failed to load definitions: %w", err)
	}

	dependencies, err := s.db.GetDependencies()
	if err != nil {
		return nil, fmt.Errorf("failed to load dependencies: %w", err)
	}

	mapper := cascade.NewMapper(definitions, dependencies, cascade.Config{MaxDepth: maxDepth, MinDelta: minDelta})
	effects, err := mapper.Propagate(indicatorID, delta)
	if err != nil {
		return nil, err
	}

	deepest := 0
	for _, e := range effects {
		if e.Depth > deepest {
			deepest = e.Depth
		}
	}
	metrics.CascadeDepth.Observe(float64(deepest))

	return effects, nil
}

func toPoints(series []models.IndicatorValue, scale float64) []analysis.TimePoint {
	points := make([]analysis.TimePoint, 0, len(series))
	for _, v := range series {
		points = append(points, analysis.TimePoint{Time: v.Time, Value: v.Value * scale})
	}
	return points
}
