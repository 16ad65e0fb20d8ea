package world

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func validTestMap() WorldMap {
	return WorldMap{
		ID:   Location{Map: DefaultNamespace, Index: "PALLET_TOWN"},
		Name: "Pallet Town",
		Chunk: &Chunk{Connections: map[Direction]Connection{
			Up: {Location: Location{Map: DefaultNamespace, Index: "ROUTE1"}, Offset: 0},
		}},
		Warps: map[string]WarpEntry{
			"warp_0": {
				Area: TileBox(Coordinate{X: 6, Y: 7}),
				Destination: WarpDestination{
					Location:   Location{Map: DefaultNamespace, Index: "PALLET_TOWN_HOU"},
					Position:   Destination{Coords: Coordinate{X: 3, Y: 7}},
					Transition: WarpTransition{WarpOnTile: true, ChangeMusic: true},
				},
			},
		},
		NPCs:      map[string]NPC{},
		Width:     2,
		Height:    2,
		Palettes:  [2]uint8{0, 13},
		Music:     "pallet",
		Tiles:     []uint16{1, 2, 3, 4},
		Movements: []uint8{0, 1, 0, 1},
		Border:    [4]uint16{5, 6, 7, 8},
	}
}

func TestLocation_String(t *testing.T) {
	assert.Equal(t, "unnamed:PALLET_TOWN", Location{Map: "unnamed", Index: "PALLET_TOWN"}.String())
	assert.Equal(t, "PALLET_TOWN", Location{Index: "PALLET_TOWN"}.String())
}

func TestLocation_Validate(t *testing.T) {
	assert.NoError(t, Location{Map: "unnamed", Index: "ABCDEFGHIJKLMNOP"}.Validate())
	assert.Error(t, Location{Map: "unnamed"}.Validate())
	assert.Error(t, Location{Index: "ABCDEFGHIJKLMNOPQ"}.Validate())
	assert.Error(t, Location{Map: "a_namespace_too_long", Index: "X"}.Validate())
}

func TestParseDirection(t *testing.T) {
	for _, d := range Directions {
		got, err := ParseDirection(string(d))
		require.NoError(t, err)
		assert.Equal(t, d, got)
	}
}

func TestParseDirection_Unknown(t *testing.T) {
	for _, s := range []string{"", "Up", "north", "dive", "emerge"} {
		_, err := ParseDirection(s)
		assert.True(t, errors.Is(err, ErrUnknownDirection), "input %q", s)
	}
}

func TestDirection_OppositeInvolution(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		d := rapid.SampledFrom(Directions).Draw(t, "dir")
		assert.NotEqual(t, d, d.Opposite())
		assert.Equal(t, d, d.Opposite().Opposite())
	})
}

func TestTileBox_ContainsOnlyItsTile(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		x := rapid.Int16Range(-100, 100).Draw(t, "x")
		y := rapid.Int16Range(-100, 100).Draw(t, "y")
		dx := rapid.Int16Range(-2, 2).Draw(t, "dx")
		dy := rapid.Int16Range(-2, 2).Draw(t, "dy")
		box := TileBox(Coordinate{X: x, Y: y})
		inside := box.Contains(Coordinate{X: x + dx, Y: y + dy})
		assert.Equal(t, dx == 0 && dy == 0, inside)
	})
}

func TestWorldMap_Validate(t *testing.T) {
	m := validTestMap()
	assert.NoError(t, m.Validate())
}

func TestWorldMap_Validate_TileCountMismatch(t *testing.T) {
	m := validTestMap()
	m.Tiles = m.Tiles[:3]
	err := m.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tiles")
}

func TestWorldMap_Validate_EmptyChunk(t *testing.T) {
	m := validTestMap()
	m.Chunk = &Chunk{Connections: map[Direction]Connection{}}
	assert.Error(t, m.Validate())
}

func TestWorldMap_Validate_NilChunk(t *testing.T) {
	m := validTestMap()
	m.Chunk = nil
	assert.NoError(t, m.Validate())
}
