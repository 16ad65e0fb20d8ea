package blockdata_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/worldgen/internal/blockdata"
)

func TestDecode_Known(t *testing.T) {
	// 0x0C05: movement 3, tile 5. 0x0401: movement 1, tile 1.
	tiles := []byte{0x05, 0x0C, 0x01, 0x04}
	border := []byte{0x10, 0x00, 0x11, 0x00, 0x12, 0x04, 0x13, 0x00}

	d, ok := blockdata.Decode(tiles, border, 2)
	require.True(t, ok)
	assert.Equal(t, []uint16{5, 1}, d.Tiles)
	assert.Equal(t, []uint8{3, 1}, d.Movements)
	assert.Equal(t, [4]uint16{0x10, 0x11, 0x12, 0x13}, d.Border)
}

func TestDecode_WrongLength(t *testing.T) {
	border := make([]byte, 8)
	_, ok := blockdata.Decode(make([]byte, 6), border, 2)
	assert.False(t, ok)
	_, ok = blockdata.Decode(make([]byte, 3), border, 2)
	assert.False(t, ok)
}

func TestDecode_ShortBorder(t *testing.T) {
	_, ok := blockdata.Decode(make([]byte, 4), make([]byte, 6), 2)
	assert.False(t, ok)
}

func TestDecode_EncodeRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 64).Draw(t, "n")
		d := &blockdata.Data{
			Tiles:     rapid.SliceOfN(rapid.Uint16Range(0, 0x3FF), n, n).Draw(t, "tiles"),
			Movements: rapid.SliceOfN(rapid.Uint8Range(0, 0x3F), n, n).Draw(t, "movements"),
		}
		for i := range d.Border {
			d.Border[i] = rapid.Uint16Range(0, 0x3FF).Draw(t, "border")
		}
		tiles, border := blockdata.Encode(d)
		got, ok := blockdata.Decode(tiles, border, n)
		require.True(t, ok)
		assert.Equal(t, d.Tiles, got.Tiles)
		assert.Equal(t, d.Movements, got.Movements)
		assert.Equal(t, d.Border, got.Border)
	})
}
