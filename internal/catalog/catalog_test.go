package catalog

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/horizonbi/backend/internal/classify"
	"github.com/horizonbi/backend/internal/storage/sqlite"
)

func TestSeedIsIdempotent(t *testing.T) {
	db, err := sqlite.NewClient(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.InitSchema())

	require.NoError(t, Seed(db))
	require.NoError(t, Seed(db))

	definitions, err := db.GetDefinitions()
	require.NoError(t, err)
	assert.Len(t, definitions, len(Definitions()))

	keywords, err := db.GetKeywords()
	require.NoError(t, err)
	assert.Len(t, keywords, len(Keywords()))
}

func TestCatalogIsInternallyConsistent(t *testing.T) {
	known := make(map[string]bool)
	for _, def := range Definitions() {
		assert.False(t, known[def.ID], "duplicate definition %s", def.ID)
		known[def.ID] = true
	}

	for _, kw := range Keywords() {
		assert.True(t, known[kw.IndicatorID], "keyword %q references unknown indicator %s", kw.Keyword, kw.IndicatorID)
		assert.Greater(t, kw.Weight, 0.0)
	}

	for _, dep := range Dependencies() {
		assert.True(t, known[dep.ParentID], "dependency parent %s unknown", dep.ParentID)
		assert.True(t, known[dep.ChildID], "dependency child %s unknown", dep.ChildID)
		assert.NotEqual(t, dep.ParentID, dep.ChildID)
		assert.GreaterOrEqual(t, dep.Weight, -1.0)
		assert.LessOrEqual(t, dep.Weight, 1.0)
	}
}

func TestCatalogBuildsClassifier(t *testing.T) {
	_, err := classify.NewClassifier(Definitions(), Keywords())
	require.NoError(t, err)
}
