package importer_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gopkg.in/yaml.v3"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/worldgen/internal/importer"
	"github.com/cory-johannsen/worldgen/internal/world"
)

type staticLoader struct {
	table *importer.RawTable
	err   error
}

func (s staticLoader) Load(context.Context) (*importer.RawTable, error) {
	return s.table, s.err
}

func TestImporter_Run_WritesMapFiles(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "maps")
	table := tableOf(t, "MAP_PALLET_TOWN", "MAP_ROUTE1")
	imp := importer.New(staticLoader{table: table}, importer.Static(newFakeConverter()), 2, zaptest.NewLogger(t))

	manifest, err := imp.Run(context.Background(), outDir)
	require.NoError(t, err)
	assert.Equal(t, 2, manifest.Count)
	assert.NotEmpty(t, manifest.RunID)
	assert.Len(t, manifest.Digest, 16)

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"manifest.yaml", "unnamed.PALLET_TOWN.yaml", "unnamed.ROUTE1.yaml"}, names)

	m, err := world.LoadMapFromFile(filepath.Join(outDir, "unnamed.PALLET_TOWN.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "PALLET_TOWN", m.Name)

	data, err := os.ReadFile(filepath.Join(outDir, importer.ManifestFile))
	require.NoError(t, err)
	var onDisk importer.Manifest
	require.NoError(t, yaml.Unmarshal(data, &onDisk))
	assert.Equal(t, *manifest, onDisk)
}

func TestImporter_Run_LoadFailure(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "maps")
	imp := importer.New(staticLoader{err: errors.New("fetching layouts: 503")}, importer.Static(newFakeConverter()), 2, nil)

	_, err := imp.Run(context.Background(), outDir)
	require.Error(t, err)
	_, statErr := os.Stat(outDir)
	assert.True(t, os.IsNotExist(statErr), "no output may be written on failure")
}

func TestImporter_Run_DuplicateWritesNothing(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "maps")
	table := tableOf(t, "MAP_ROUTE_ONE_BUILDING_TWO", "MAP_ROUTE_ONE_BUXXXXXX_TWO")
	imp := importer.New(staticLoader{table: table}, importer.Static(newFakeConverter()), 2, nil)

	_, err := imp.Run(context.Background(), outDir)
	require.ErrorIs(t, err, importer.ErrDuplicateLocation)
	_, statErr := os.Stat(outDir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestWriteGraph_DigestMatchesGraphDigest(t *testing.T) {
	table := tableOf(t, "MAP_A", "MAP_B", "MAP_C")
	graph, err := importer.NewAssembler(table, newFakeConverter(), 2, nil).Assemble(context.Background())
	require.NoError(t, err)

	manifest, err := importer.WriteGraph(graph, t.TempDir(), "run")
	require.NoError(t, err)
	digest, err := importer.GraphDigest(graph)
	require.NoError(t, err)
	assert.Equal(t, digest, manifest.Digest)
	assert.Equal(t, "run", manifest.RunID)
}

// TestImporter_Run_NMapsProducesNFiles is a property-based test verifying that
// Run with N distinct records writes exactly N map files plus the manifest.
func TestImporter_Run_NMapsProducesNFiles(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		ids := rapid.SliceOfNDistinct(rapid.StringMatching(`MAP_[A-Z]{1,10}`), 1, 10, rapid.ID[string]).Draw(rt, "ids")
		outDir, err := os.MkdirTemp(t.TempDir(), "out")
		if err != nil {
			rt.Fatal(err)
		}
		imp := importer.New(staticLoader{table: tableOf(rt, ids...)}, importer.Static(newFakeConverter()), 4, nil)
		if _, err := imp.Run(context.Background(), outDir); err != nil {
			rt.Fatal(err)
		}
		entries, err := os.ReadDir(outDir)
		if err != nil {
			rt.Fatal(err)
		}
		assert.Equal(rt, len(ids)+1, len(entries),
			"Run with %d map(s) must produce %d map file(s) and a manifest", len(ids), len(ids))
	})
}
