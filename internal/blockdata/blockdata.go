// Package blockdata decodes the binary metatile layouts used by map layouts:
// a little-endian uint16 per tile carrying a 10-bit metatile id and a 6-bit
// movement permission.
package blockdata

import "encoding/binary"

const (
	tileMask      = 0x03FF
	movementShift = 10
	// BorderTiles is the number of metatiles in a border block.
	BorderTiles = 4
)

// Data is a decoded layout.
type Data struct {
	Tiles     []uint16
	Movements []uint8
	Border    [BorderTiles]uint16
}

// Decode splits a blockdata blob and a border blob into tile and movement
// arrays.
//
// Precondition: count is the layout's width * height.
// Postcondition: Returns (data, true) when tiles holds exactly count entries
// and border holds at least BorderTiles entries; (nil, false) otherwise.
func Decode(tiles, border []byte, count int) (*Data, bool) {
	if count < 0 || len(tiles) != count*2 || len(border) < BorderTiles*2 {
		return nil, false
	}
	d := &Data{
		Tiles:     make([]uint16, count),
		Movements: make([]uint8, count),
	}
	for i := 0; i < count; i++ {
		v := binary.LittleEndian.Uint16(tiles[i*2:])
		d.Tiles[i] = v & tileMask
		d.Movements[i] = uint8(v >> movementShift)
	}
	for i := 0; i < BorderTiles; i++ {
		d.Border[i] = binary.LittleEndian.Uint16(border[i*2:]) & tileMask
	}
	return d, true
}

// Encode is the inverse of Decode for well-formed data.
func Encode(d *Data) (tiles, border []byte) {
	tiles = make([]byte, len(d.Tiles)*2)
	for i, t := range d.Tiles {
		binary.LittleEndian.PutUint16(tiles[i*2:], t&tileMask|uint16(d.Movements[i])<<movementShift)
	}
	border = make([]byte, BorderTiles*2)
	for i, t := range d.Border {
		binary.LittleEndian.PutUint16(border[i*2:], t&tileMask)
	}
	return tiles, border
}
