package mapping_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/worldgen/internal/mapping"
	"github.com/cory-johannsen/worldgen/internal/world"
)

const mappingsYAML = `
map:
  id:
    MAP_PALLET_TOWN:
      map: kanto
      index: pallet
  name:
    PalletTown: Pallet Town
palettes:
  primary:
    gTileset_General: 0
  secondary:
    gTileset_PalletTown: 1
music:
  MUS_PALLET: pallet
npcs:
  OBJ_EVENT_GFX_MOM: mom
`

func TestParse(t *testing.T) {
	m, err := mapping.Parse([]byte(mappingsYAML))
	require.NoError(t, err)

	loc, ok := m.LocationOverride("MAP_PALLET_TOWN")
	require.True(t, ok)
	assert.Equal(t, world.Location{Map: "kanto", Index: "pallet"}, loc)

	name, ok := m.DisplayName("PalletTown")
	require.True(t, ok)
	assert.Equal(t, "Pallet Town", name)

	p, ok := m.SecondaryPalette("gTileset_PalletTown")
	require.True(t, ok)
	assert.Equal(t, uint8(1), p)

	music, ok := m.MusicID("MUS_PALLET")
	require.True(t, ok)
	assert.Equal(t, "pallet", music)

	npc, ok := m.NPCType("OBJ_EVENT_GFX_MOM")
	require.True(t, ok)
	assert.Equal(t, "mom", npc)

	_, ok = m.NPCType("OBJ_EVENT_GFX_CUT_TREE")
	assert.False(t, ok)
}

func TestParse_PartialDocumentFillsEmptyDictionaries(t *testing.T) {
	m, err := mapping.Parse([]byte("music:\n  MUS_ROUTE1: route1\n"))
	require.NoError(t, err)
	assert.NotNil(t, m.Map.ID)
	assert.NotNil(t, m.NPCs)
	_, ok := m.PrimaryPalette("anything")
	assert.False(t, ok)
}

func TestParse_OverlongOverride(t *testing.T) {
	_, err := mapping.Parse([]byte(`
map:
  id:
    MAP_X:
      index: THIS_INDEX_IS_FAR_TOO_LONG
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAP_X")
}

func TestLoad_MissingFile(t *testing.T) {
	m, found, err := mapping.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.False(t, found)
	assert.NotNil(t, m)
	assert.Empty(t, m.Music)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mappings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(mappingsYAML), 0644))
	m, found, err := mapping.Load(path)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Len(t, m.NPCs, 1)
}

func TestLoad_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mappings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("music: [oops"), 0644))
	_, _, err := mapping.Load(path)
	assert.Error(t, err)
}

func TestLoad_ShippedMappings(t *testing.T) {
	m, found, err := mapping.Load(filepath.Join("..", "..", "configs", "mappings.yaml"))
	require.NoError(t, err)
	require.True(t, found)
	loc, ok := m.LocationOverride("MAP_ROUTE1")
	require.True(t, ok)
	assert.Equal(t, world.Location{Map: "kanto", Index: "route_1"}, loc)
	typeID, ok := m.NPCType("OBJ_EVENT_GFX_MOM")
	require.True(t, ok)
	assert.Equal(t, "mom", typeID)
}
