package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeSeries(values ...float64) []TimePoint {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	series := make([]TimePoint, len(values))
	for i, v := range values {
		series[i] = TimePoint{Time: start.AddDate(0, 0, i), Value: v}
	}
	return series
}

func TestMovingAverageEmptySeries(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	assert.Nil(t, a.MovingAverage(nil, 7))
}

func TestMovingAveragePartialWindows(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	averages := a.MovingAverage(makeSeries(10, 20, 30, 40), 3)

	require.Len(t, averages, 4)
	assert.InDelta(t, 10.0, averages[0], 0.0001)
	assert.InDelta(t, 15.0, averages[1], 0.0001)
	assert.InDelta(t, 20.0, averages[2], 0.0001)
	assert.InDelta(t, 30.0, averages[3], 0.0001)
}

func TestDetectTrendShortSeries(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	trend := a.DetectTrend(makeSeries(1, 2, 3, 4))

	assert.Equal(t, DirectionUnknown, trend.Direction)
	assert.Equal(t, 0.0, trend.Strength)
}

func TestDetectTrendPerfectlyLinearRising(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	trend := a.DetectTrend(makeSeries(10, 11, 12, 13, 14, 15))

	assert.Equal(t, DirectionRising, trend.Direction)
	assert.InDelta(t, 1.0, trend.Slope, 0.0001)
	assert.InDelta(t, 1.0, trend.Strength, 0.0001)
}

func TestDetectTrendFalling(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	trend := a.DetectTrend(makeSeries(50, 48, 46, 44, 42))

	assert.Equal(t, DirectionFalling, trend.Direction)
}

func TestDetectTrendStable(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	trend := a.DetectTrend(makeSeries(50, 50.1, 49.9, 50.05, 49.95))

	assert.Equal(t, DirectionStable, trend.Direction)
}

func TestDetectAnomaliesConstantSeries(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	assert.Empty(t, a.DetectAnomalies(makeSeries(42, 42, 42, 42, 42, 42)))
}

func TestDetectAnomaliesShortSeries(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	assert.Empty(t, a.DetectAnomalies(makeSeries(1, 100, 1)))
}

func TestDetectAnomaliesSpikeAndDrop(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	series := makeSeries(50, 50, 50, 50, 50, 50, 50, 50, 95, 5)

	anomalies := a.DetectAnomalies(series)
	require.Len(t, anomalies, 2)

	assert.Equal(t, AnomalySpike, anomalies[0].Kind)
	assert.Greater(t, anomalies[0].ZScore, 0.0)
	assert.Equal(t, AnomalyDrop, anomalies[1].Kind)
	assert.Less(t, anomalies[1].ZScore, 0.0)
	assert.Greater(t, anomalies[0].Severity, 2.0)
}

func TestForecastShortSeries(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	assert.Empty(t, a.Forecast(makeSeries(1, 2, 3), 7))
}

func TestForecastLinearContinuation(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	forecast := a.Forecast(makeSeries(10, 12, 14, 16, 18), 3)

	require.Len(t, forecast, 3)
	assert.InDelta(t, 20.0, forecast[0].Value, 0.0001)
	assert.InDelta(t, 22.0, forecast[1].Value, 0.0001)
	assert.InDelta(t, 24.0, forecast[2].Value, 0.0001)
}

func TestForecastClampedToValidRange(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())

	rising := a.Forecast(makeSeries(60, 70, 80, 90, 100), 10)
	require.NotEmpty(t, rising)
	for _, point := range rising {
		assert.LessOrEqual(t, point.Value, 100.0)
	}

	falling := a.Forecast(makeSeries(40, 30, 20, 10, 0), 10)
	require.NotEmpty(t, falling)
	for _, point := range falling {
		assert.GreaterOrEqual(t, point.Value, 0.0)
	}
}
