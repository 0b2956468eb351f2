package analysis

import (
	"math"
	"time"
)

type Direction string

const (
	DirectionRising  Direction = "rising"
	DirectionFalling Direction = "falling"
	DirectionStable  Direction = "stable"
	DirectionUnknown Direction = "unknown"
)

// minPoints is the minimum series length for trend, anomaly and forecast
// methods. Shorter series yield soft sentinel results, never errors, so
// batch runs over sparse indicators do not abort.
const minPoints = 5

type TimePoint struct {
	Time  time.Time
	Value float64
}

type Trend struct {
	Direction Direction
	Slope     float64
	Strength  float64
}

type AnomalyKind string

const (
	AnomalySpike AnomalyKind = "spike"
	AnomalyDrop  AnomalyKind = "drop"
)

type Anomaly struct {
	Point    TimePoint
	Kind     AnomalyKind
	ZScore   float64
	Severity float64
}

type ForecastPoint struct {
	Time  time.Time
	Value float64
}

// Analyzer runs statistical analysis over a read-only ordered indicator
// series. It holds no state between calls.
type Analyzer struct {
	risingSlope      float64
	fallingSlope     float64
	anomalyThreshold float64
}

type Config struct {
	RisingSlope      float64
	FallingSlope     float64
	AnomalyThreshold float64
}

func DefaultConfig() Config {
	return Config{
		RisingSlope:      0.25,
		FallingSlope:     -0.25,
		AnomalyThreshold: 2.0,
	}
}

func NewAnalyzer(cfg Config) *Analyzer {
	if cfg.RisingSlope == 0 {
		cfg.RisingSlope = 0.25
	}
	if cfg.FallingSlope == 0 {
		cfg.FallingSlope = -0.25
	}
	if cfg.AnomalyThreshold == 0 {
		cfg.AnomalyThreshold = 2.0
	}
	return &Analyzer{
		risingSlope:      cfg.RisingSlope,
		fallingSlope:     cfg.FallingSlope,
		anomalyThreshold: cfg.AnomalyThreshold,
	}
}

// MovingAverage computes a trailing mean of the given period at every point
// of the series. A point with fewer than period predecessors still gets an
// average over what is available; only an empty series returns nil.
func (a *Analyzer) MovingAverage(series []TimePoint, period int) []float64 {
	if len(series) == 0 {
		return nil
	}
	if period < 1 {
		period = 1
	}

	averages := make([]float64, len(series))
	sum := 0.0
	for i, point := range series {
		sum += point.Value
		if i >= period {
			sum -= series[i-period].Value
		}
		window := i + 1
		if window > period {
			window = period
		}
		averages[i] = sum / float64(window)
	}
	return averages
}

// DetectTrend fits an ordinary least-squares line of value against sample
// index and classifies the slope. Series shorter than the minimum return an
// unknown direction with zero strength.
func (a *Analyzer) DetectTrend(series []TimePoint) Trend {
	if len(series) < minPoints {
		return Trend{Direction: DirectionUnknown}
	}

	xs := make([]float64, len(series))
	ys := make([]float64, len(series))
	for i, point := range series {
		xs[i] = float64(i)
		ys[i] = point.Value
	}

	slope, intercept, ok := linearFit(xs, ys)
	if !ok {
		return Trend{Direction: DirectionStable}
	}

	direction := DirectionStable
	switch {
	case slope > a.risingSlope:
		direction = DirectionRising
	case slope < a.fallingSlope:
		direction = DirectionFalling
	}

	return Trend{
		Direction: direction,
		Slope:     slope,
		Strength:  rSquared(xs, ys, slope, intercept),
	}
}

// DetectAnomalies flags points whose z-score against the window mean exceeds
// the threshold. Zero-variance windows produce no anomalies.
func (a *Analyzer) DetectAnomalies(series []TimePoint) []Anomaly {
	if len(series) < minPoints {
		return nil
	}

	mean, stddev := meanStddev(series)
	if stddev == 0 {
		return nil
	}

	var anomalies []Anomaly
	for _, point := range series {
		z := (point.Value - mean) / stddev
		if math.Abs(z) <= a.anomalyThreshold {
			continue
		}

		kind := AnomalySpike
		if z < 0 {
			kind = AnomalyDrop
		}
		anomalies = append(anomalies, Anomaly{
			Point:    point,
			Kind:     kind,
			ZScore:   z,
			Severity: math.Abs(z),
		})
	}
	return anomalies
}

// Forecast extrapolates a least-squares fit of value against elapsed days
// forward by the requested horizon, one point per day. Forecast values are
// clamped into [0,100]. Short series return an empty forecast.
func (a *Analyzer) Forecast(series []TimePoint, horizonDays int) []ForecastPoint {
	if len(series) < minPoints || horizonDays <= 0 {
		return nil
	}

	origin := series[0].Time
	xs := make([]float64, len(series))
	ys := make([]float64, len(series))
	for i, point := range series {
		xs[i] = point.Time.Sub(origin).Hours() / 24
		ys[i] = point.Value
	}

	slope, intercept, ok := linearFit(xs, ys)
	if !ok {
		return nil
	}

	last := series[len(series)-1].Time
	lastX := last.Sub(origin).Hours() / 24

	forecast := make([]ForecastPoint, 0, horizonDays)
	for day := 1; day <= horizonDays; day++ {
		value := intercept + slope*(lastX+float64(day))
		if value < 0 {
			value = 0
		}
		if value > 100 {
			value = 100
		}
		forecast = append(forecast, ForecastPoint{
			Time:  last.AddDate(0, 0, day),
			Value: value,
		})
	}
	return forecast
}

func linearFit(xs, ys []float64) (slope, intercept float64, ok bool) {
	n := float64(len(xs))
	var sumX, sumY, sumXY, sumXX float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
		sumXY += xs[i] * ys[i]
		sumXX += xs[i] * xs[i]
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0, 0, false
	}

	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n
	return slope, intercept, true
}

func rSquared(xs, ys []float64, slope, intercept float64) float64 {
	mean := 0.0
	for _, y := range ys {
		mean += y
	}
	mean /= float64(len(ys))

	var ssRes, ssTot float64
	for i := range ys {
		predicted := intercept + slope*xs[i]
		ssRes += (ys[i] - predicted) * (ys[i] - predicted)
		ssTot += (ys[i] - mean) * (ys[i] - mean)
	}

	if ssTot == 0 {
		return 0
	}
	return 1 - ssRes/ssTot
}

func meanStddev(series []TimePoint) (float64, float64) {
	mean := 0.0
	for _, point := range series {
		mean += point.Value
	}
	mean /= float64(len(series))

	variance := 0.0
	for _, point := range series {
		variance += (point.Value - mean) * (point.Value - mean)
	}
	variance /= float64(len(series))

	return mean, math.Sqrt(variance)
}
