package cascade

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/horizonbi/backend/internal/storage/models"
)

func defs(ids ...string) []models.IndicatorDefinition {
	out := make([]models.IndicatorDefinition, len(ids))
	for i, id := range ids {
		out[i] = models.IndicatorDefinition{ID: id}
	}
	return out
}

func TestPropagateUnknownOrigin(t *testing.T) {
	m := NewMapper(defs("A"), nil, DefaultConfig())

	_, err := m.Propagate("MISSING", 10)
	assert.ErrorIs(t, err, ErrUnknownIndicator)
}

func TestPropagateLinearChain(t *testing.T) {
	deps := []models.IndicatorDependency{
		{ParentID: "A", ChildID: "B", Weight: 0.5, Relationship: models.RelationCauses},
		{ParentID: "B", ChildID: "C", Weight: 0.5, Relationship: models.RelationInfluences},
	}
	m := NewMapper(defs("A", "B", "C"), deps, Config{MaxDepth: 5, MinDelta: 0.1})

	effects, err := m.Propagate("A", 10)
	require.NoError(t, err)
	require.Len(t, effects, 2)

	assert.Equal(t, "B", effects[0].IndicatorID)
	assert.InDelta(t, 5.0, effects[0].Delta, 0.0001)
	assert.Equal(t, 1, effects[0].Depth)

	assert.Equal(t, "C", effects[1].IndicatorID)
	assert.InDelta(t, 2.5, effects[1].Delta, 0.0001)
	assert.Equal(t, []string{"A", "B", "C"}, effects[1].Path)
}

func TestPropagateNegativeWeightFlipsSign(t *testing.T) {
	deps := []models.IndicatorDependency{
		{ParentID: "A", ChildID: "B", Weight: -0.8},
	}
	m := NewMapper(defs("A", "B"), deps, Config{MaxDepth: 3, MinDelta: 0.1})

	effects, err := m.Propagate("A", 10)
	require.NoError(t, err)
	require.Len(t, effects, 1)
	assert.InDelta(t, -8.0, effects[0].Delta, 0.0001)
}

func TestPropagateCycleVisitedOnce(t *testing.T) {
	deps := []models.IndicatorDependency{
		{ParentID: "A", ChildID: "B", Weight: 0.9},
		{ParentID: "B", ChildID: "C", Weight: 0.9},
		{ParentID: "C", ChildID: "A", Weight: 0.9},
	}
	m := NewMapper(defs("A", "B", "C"), deps, Config{MaxDepth: 10, MinDelta: 0.01})

	effects, err := m.Propagate("A", 100)
	require.NoError(t, err)

	seen := make(map[string]int)
	for _, effect := range effects {
		seen[effect.IndicatorID]++
	}
	for id, count := range seen {
		assert.Equal(t, 1, count, "indicator %s expanded more than once", id)
	}
	assert.NotContains(t, seen, "A")
}

func TestPropagateMagnitudeCutoff(t *testing.T) {
	deps := []models.IndicatorDependency{
		{ParentID: "A", ChildID: "B", Weight: 0.1},
		{ParentID: "B", ChildID: "C", Weight: 0.1},
	}
	m := NewMapper(defs("A", "B", "C"), deps, Config{MaxDepth: 5, MinDelta: 0.5})

	effects, err := m.Propagate("A", 10)
	require.NoError(t, err)
	// A->B yields 1.0, above cutoff; B->C yields 0.1, below cutoff.
	require.Len(t, effects, 1)
	assert.Equal(t, "B", effects[0].IndicatorID)
}

func TestPropagateDepthBound(t *testing.T) {
	deps := []models.IndicatorDependency{
		{ParentID: "A", ChildID: "B", Weight: 1.0},
		{ParentID: "B", ChildID: "C", Weight: 1.0},
		{ParentID: "C", ChildID: "D", Weight: 1.0},
	}
	m := NewMapper(defs("A", "B", "C", "D"), deps, Config{MaxDepth: 2, MinDelta: 0.01})

	effects, err := m.Propagate("A", 10)
	require.NoError(t, err)
	require.Len(t, effects, 2)
	for _, effect := range effects {
		assert.LessOrEqual(t, effect.Depth, 2)
	}
}

func TestNewMapperRejectsBadEdges(t *testing.T) {
	deps := []models.IndicatorDependency{
		{ParentID: "A", ChildID: "A", Weight: 0.5},       // self-loop
		{ParentID: "A", ChildID: "GHOST", Weight: 0.5},   // unknown child
		{ParentID: "A", ChildID: "B", Weight: 1.5},       // weight out of range
		{ParentID: "A", ChildID: "B", Weight: 0.7},       // valid
	}
	m := NewMapper(defs("A", "B"), deps, DefaultConfig())

	effects, err := m.Propagate("A", 10)
	require.NoError(t, err)
	require.Len(t, effects, 1)
	assert.Equal(t, "B", effects[0].IndicatorID)
	assert.InDelta(t, 7.0, effects[0].Delta, 0.0001)
}

func TestPropagateRankedByMagnitude(t *testing.T) {
	deps := []models.IndicatorDependency{
		{ParentID: "A", ChildID: "B", Weight: 0.2},
		{ParentID: "A", ChildID: "C", Weight: -0.9},
		{ParentID: "A", ChildID: "D", Weight: 0.6},
	}
	m := NewMapper(defs("A", "B", "C", "D"), deps, Config{MaxDepth: 2, MinDelta: 0.1})

	effects, err := m.Propagate("A", 10)
	require.NoError(t, err)
	require.Len(t, effects, 3)
	assert.Equal(t, "C", effects[0].IndicatorID)
	assert.Equal(t, "D", effects[1].IndicatorID)
	assert.Equal(t, "B", effects[2].IndicatorID)
}
