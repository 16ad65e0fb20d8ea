// Package world provides the resolved world model: locations, maps, warps,
// directional chunks, and NPC placements.
package world

import (
	"errors"
	"fmt"
)

// DefaultNamespace is the namespace tag given to derived locations.
const DefaultNamespace = "unnamed"

// MaxIDLen is the fixed width of location indices and other short identifiers.
const MaxIDLen = 16

// ErrUnknownDirection is returned when a direction string is not one of the
// four cardinal directions.
var ErrUnknownDirection = errors.New("unknown direction")

// Location is the canonical, graph-wide identifier of a map.
type Location struct {
	// Map is the optional namespace tag. Empty means no namespace.
	Map string `yaml:"map,omitempty"`
	// Index identifies the map within its namespace. At most MaxIDLen bytes.
	Index string `yaml:"index"`
}

// String returns "map:index", or just the index when there is no namespace.
func (l Location) String() string {
	if l.Map == "" {
		return l.Index
	}
	return l.Map + ":" + l.Index
}

// Validate checks the fixed-width invariants of the location.
//
// Postcondition: Returns nil if both fields fit the fixed width and Index is non-empty.
func (l Location) Validate() error {
	if l.Index == "" {
		return errors.New("location index must not be empty")
	}
	if len(l.Index) > MaxIDLen {
		return fmt.Errorf("location index %q exceeds %d bytes", l.Index, MaxIDLen)
	}
	if len(l.Map) > MaxIDLen {
		return fmt.Errorf("location map %q exceeds %d bytes", l.Map, MaxIDLen)
	}
	return nil
}

// Direction is one of the four cardinal directions.
type Direction string

// Cardinal directions.
const (
	Up    Direction = "up"
	Down  Direction = "down"
	Left  Direction = "left"
	Right Direction = "right"
)

// Directions contains all four cardinal directions.
var Directions = []Direction{Up, Down, Left, Right}

// ParseDirection maps a source direction string to a Direction.
//
// Postcondition: Returns the direction, or an error wrapping ErrUnknownDirection.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "up":
		return Up, nil
	case "down":
		return Down, nil
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDirection, s)
	}
}

// Opposite returns the opposite direction.
func (d Direction) Opposite() Direction {
	switch d {
	case Up:
		return Down
	case Down:
		return Up
	case Left:
		return Right
	case Right:
		return Left
	default:
		return ""
	}
}

// Facing is an optional Direction. The zero value means no fixed facing.
type Facing = Direction

// NoFacing is the zero Facing.
const NoFacing Facing = ""

// Coordinate is a tile position within a map.
type Coordinate struct {
	X int16 `yaml:"x"`
	Y int16 `yaml:"y"`
}

// BoundingBox is an inclusive tile rectangle.
type BoundingBox struct {
	Min Coordinate `yaml:"min"`
	Max Coordinate `yaml:"max"`
}

// Contains reports whether c lies inside the box.
func (b BoundingBox) Contains(c Coordinate) bool {
	return c.X >= b.Min.X && c.X <= b.Max.X && c.Y >= b.Min.Y && c.Y <= b.Max.Y
}

// TileBox returns the single-tile box at c.
func TileBox(c Coordinate) BoundingBox {
	return BoundingBox{Min: c, Max: c}
}

// Connection links a map edge to a neighbouring map, shifted by Offset tiles.
type Connection struct {
	Location Location `yaml:"location"`
	Offset   int32    `yaml:"offset"`
}

// Chunk holds the directional neighbours of a map.
type Chunk struct {
	Connections map[Direction]Connection `yaml:"connections"`
}

// WarpTransition holds the policy flags applied when a warp fires.
type WarpTransition struct {
	MoveOnExit  bool `yaml:"move_on_exit"`
	WarpOnTile  bool `yaml:"warp_on_tile"`
	ChangeMusic bool `yaml:"change_music"`
}

// Destination is where a warp places the player.
type Destination struct {
	Coords Coordinate `yaml:"coords"`
	Facing Facing     `yaml:"facing,omitempty"`
}

// WarpDestination is the resolved target of a warp.
type WarpDestination struct {
	Location   Location       `yaml:"location"`
	Position   Destination    `yaml:"position"`
	Transition WarpTransition `yaml:"transition"`
}

// WarpEntry is a trigger region bound to a resolved destination.
type WarpEntry struct {
	Area        BoundingBox     `yaml:"area"`
	Destination WarpDestination `yaml:"destination"`
}

// Movement is the stance of a placed NPC.
type Movement string

// NPC stances. MovementNeutral is the default for unrecognised behaviours.
const (
	MovementNeutral Movement = "neutral"
	MovementStill   Movement = "still"
)

// Position is a coordinate plus an optional facing.
type Position struct {
	Coords Coordinate `yaml:"coords"`
	Facing Facing     `yaml:"facing,omitempty"`
}

// NPC is a resolved character placement.
type NPC struct {
	Name     string   `yaml:"name"`
	TypeID   string   `yaml:"type_id"`
	Movement Movement `yaml:"movement"`
	Position Position `yaml:"position"`
}

// WorldMap is one fully resolved map.
type WorldMap struct {
	// ID is the canonical location of this map.
	ID Location `yaml:"id"`
	// Name is the display name.
	Name string `yaml:"name"`
	// Chunk is nil when the map has no connections.
	Chunk *Chunk `yaml:"chunk,omitempty"`
	// Warps is keyed by synthesized names of the form warp_<n>.
	Warps map[string]WarpEntry `yaml:"warps"`
	// NPCs is keyed by synthesized names of the form npc_<n>.
	NPCs      map[string]NPC `yaml:"npcs"`
	Width     uint16         `yaml:"width"`
	Height    uint16         `yaml:"height"`
	Palettes  [2]uint8       `yaml:"palettes,flow"`
	Music     string         `yaml:"music"`
	Tiles     []uint16       `yaml:"tiles,flow"`
	Movements []uint8        `yaml:"movements,flow"`
	Border    [4]uint16      `yaml:"border,flow"`
}

// Validate checks structural invariants of the map.
//
// Postcondition: Returns nil if the map is internally consistent.
func (m *WorldMap) Validate() error {
	if err := m.ID.Validate(); err != nil {
		return fmt.Errorf("map %q: %w", m.Name, err)
	}
	area := int(m.Width) * int(m.Height)
	if len(m.Tiles) != area {
		return fmt.Errorf("map %s: %d tiles for %dx%d", m.ID, len(m.Tiles), m.Width, m.Height)
	}
	if len(m.Movements) != area {
		return fmt.Errorf("map %s: %d movements for %dx%d", m.ID, len(m.Movements), m.Width, m.Height)
	}
	if m.Chunk != nil {
		if len(m.Chunk.Connections) == 0 {
			return fmt.Errorf("map %s: chunk present without connections", m.ID)
		}
		for dir, conn := range m.Chunk.Connections {
			if _, err := ParseDirection(string(dir)); err != nil {
				return fmt.Errorf("map %s: %w", m.ID, err)
			}
			if err := conn.Location.Validate(); err != nil {
				return fmt.Errorf("map %s: connection %s: %w", m.ID, dir, err)
			}
		}
	}
	for name, w := range m.Warps {
		if err := w.Destination.Location.Validate(); err != nil {
			return fmt.Errorf("map %s: warp %s: %w", m.ID, name, err)
		}
	}
	return nil
}
