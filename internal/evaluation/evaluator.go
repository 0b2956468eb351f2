package evaluation

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/horizonbi/backend/internal/classify"
	"github.com/horizonbi/backend/pkg/logger"
)

// DatasetItem is one labeled article: the indicator IDs a human annotator
// says it should map to.
type DatasetItem struct {
	Title    string   `json:"title"`
	Body     string   `json:"body"`
	Expected []string `json:"expected"`
}

type Dataset struct {
	Items []DatasetItem `json:"items"`
}

type IndicatorStats struct {
	TruePositives  int
	FalsePositives int
	FalseNegatives int
}

// Report aggregates micro-averaged precision/recall over a labeled dataset
// plus a per-indicator breakdown.
type Report struct {
	TotalArticles  int
	TruePositives  int
	FalsePositives int
	FalseNegatives int
	Precision      float64
	Recall         float64
	F1             float64
	PerIndicator   map[string]*IndicatorStats
}

// Evaluator measures classifier quality against a labeled dataset. It runs
// offline against a fixed keyword table, so a catalog change can be checked
// for regressions before it ships.
type Evaluator struct {
	classifier *classify.Classifier
}

func NewEvaluator(classifier *classify.Classifier) *Evaluator {
	return &Evaluator{classifier: classifier}
}

func (e *Evaluator) Evaluate(dataset *Dataset) *Report {
	logger.Info("Running classification evaluation", zap.Int("items", len(dataset.Items)))

	report := &Report{
		TotalArticles: len(dataset.Items),
		PerIndicator:  make(map[string]*IndicatorStats),
	}

	for _, item := range dataset.Items {
		matches := e.classifier.Classify(item.Title, item.Body)

		predicted := make(map[string]bool, len(matches))
		for _, m := range matches {
			predicted[m.IndicatorID] = true
		}
		expected := make(map[string]bool, len(item.Expected))
		for _, id := range item.Expected {
			expected[id] = true
		}

		for id := range predicted {
			stats := report.statsFor(id)
			if expected[id] {
				report.TruePositives++
				stats.TruePositives++
			} else {
				report.FalsePositives++
				stats.FalsePositives++
			}
		}
		for id := range expected {
			if !predicted[id] {
				report.FalseNegatives++
				report.statsFor(id).FalseNegatives++
			}
		}
	}

	if report.TruePositives+report.FalsePositives > 0 {
		report.Precision = float64(report.TruePositives) / float64(report.TruePositives+report.FalsePositives)
	}
	if report.TruePositives+report.FalseNegatives > 0 {
		report.Recall = float64(report.TruePositives) / float64(report.TruePositives+report.FalseNegatives)
	}
	if report.Precision+report.Recall > 0 {
		report.F1 = 2 * report.Precision * report.Recall / (report.Precision + report.Recall)
	}

	logger.Info("Classification evaluation completed",
		zap.Float64("precision", report.Precision),
		zap.Float64("recall", report.Recall),
		zap.Float64("f1", report.F1),
	)

	return report
}

func (r *Report) statsFor(indicatorID string) *IndicatorStats {
	stats := r.PerIndicator[indicatorID]
	if stats == nil {
		stats = &IndicatorStats{}
		r.PerIndicator[indicatorID] = stats
	}
	return stats
}

func LoadDatasetFromJSON(jsonData []byte) (*Dataset, error) {
	var dataset Dataset
	err := json.Unmarshal(jsonData, &dataset)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal dataset: %w", err)
	}
	return &dataset, nil
}

func (e *Evaluator) GenerateReport(report *Report) string {
	out := fmt.Sprintf(`
Classification Evaluation
=========================

Articles: %d

Micro-averaged:
- Precision: %.3f
- Recall:    %.3f
- F1:        %.3f

Per indicator (TP/FP/FN):
`,
		report.TotalArticles,
		report.Precision,
		report.Recall,
		report.F1,
	)

	for id, stats := range report.PerIndicator {
		out += fmt.Sprintf("- %s: %d/%d/%d\n", id, stats.TruePositives, stats.FalsePositives, stats.FalseNegatives)
	}
	return out
}
