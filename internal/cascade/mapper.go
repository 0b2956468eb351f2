package cascade

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/horizonbi/backend/internal/storage/models"
	"github.com/horizonbi/backend/pkg/logger"
)

var ErrUnknownIndicator = errors.New("unknown indicator")

// Effect is one predicted secondary change caused by an origin indicator's
// delta, reached through the dependency graph.
type Effect struct {
	IndicatorID  string
	Delta        float64
	Depth        int
	Relationship models.RelationshipType
	Path         []string
}

// Mapper propagates indicator deltas through the weighted dependency graph.
// Edges are loaded once at construction; traversal is iterative with an
// explicit frontier queue and a per-call visited set, so cyclic graphs are
// safe and no node is expanded twice in a single propagation.
type Mapper struct {
	edges    map[string][]models.IndicatorDependency
	known    map[string]bool
	maxDepth int
	minDelta float64
}

type Config struct {
	MaxDepth int
	MinDelta float64
}

func DefaultConfig() Config {
	return Config{MaxDepth: 5, MinDelta: 0.5}
}

func NewMapper(definitions []models.IndicatorDefinition, dependencies []models.IndicatorDependency, cfg Config) *Mapper {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = 5
	}
	if cfg.MinDelta <= 0 {
		cfg.MinDelta = 0.5
	}

	known := make(map[string]bool, len(definitions))
	for _, def := range definitions {
		known[def.ID] = true
	}

	edges := make(map[string][]models.IndicatorDependency)
	for _, dep := range dependencies {
		if dep.ParentID == dep.ChildID {
			logger.Warn("Dependency self-loop rejected", zap.String("indicator_id", dep.ParentID))
			continue
		}
		if !known[dep.ParentID] || !known[dep.ChildID] {
			logger.Warn("Dependency references unknown indicator, edge skipped",
				zap.String("parent_id", dep.ParentID),
				zap.String("child_id", dep.ChildID),
			)
			continue
		}
		if dep.Weight < -1 || dep.Weight > 1 {
			logger.Warn("Dependency weight out of range, edge skipped",
				zap.String("parent_id", dep.ParentID),
				zap.String("child_id", dep.ChildID),
				zap.Float64("weight", dep.Weight),
			)
			continue
		}
		edges[dep.ParentID] = append(edges[dep.ParentID], dep)
	}

	return &Mapper{
		edges:    edges,
		known:    known,
		maxDepth: cfg.MaxDepth,
		minDelta: cfg.MinDelta,
	}
}

type frontierItem struct {
	indicatorID  string
	delta        float64
	depth        int
	relationship models.RelationshipType
	path         []string
}

// Propagate estimates the cascade effects of changing the origin indicator
// by delta. Each hop multiplies the incoming delta by the edge weight,
// preserving sign. Effects below the magnitude cutoff are not expanded
// further, and a node visited once in this propagation is never re-expanded.
// Results are ranked by absolute delta, strongest first.
func (m *Mapper) Propagate(originID string, delta float64) ([]Effect, error) {
	if !m.known[originID] {
		return nil, fmt.Errorf("%w: %s", ErrUnknownIndicator, originID)
	}

	visited := map[string]bool{originID: true}
	queue := []frontierItem{{
		indicatorID: originID,
		delta:       delta,
		depth:       0,
		path:        []string{originID},
	}}

	var effects []Effect
	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		if item.depth >= m.maxDepth {
			continue
		}

		for _, edge := range m.edges[item.indicatorID] {
			if visited[edge.ChildID] {
				continue
			}
			visited[edge.ChildID] = true

			childDelta := item.delta * edge.Weight
			if math.Abs(childDelta) < m.minDelta {
				continue
			}

			path := append(append([]string{}, item.path...), edge.ChildID)
			effects = append(effects, Effect{
				IndicatorID:  edge.ChildID,
				Delta:        childDelta,
				Depth:        item.depth + 1,
				Relationship: edge.Relationship,
				Path:         path,
			})

			queue = append(queue, frontierItem{
				indicatorID: edge.ChildID,
				delta:       childDelta,
				depth:       item.depth + 1,
				path:        path,
			})
		}
	}

	sort.SliceStable(effects, func(i, j int) bool {
		return math.Abs(effects[i].Delta) > math.Abs(effects[j].Delta)
	})

	return effects, nil
}
