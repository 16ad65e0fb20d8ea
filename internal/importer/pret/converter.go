package pret

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/worldgen/internal/blockdata"
	"github.com/cory-johannsen/worldgen/internal/importer"
	"github.com/cory-johannsen/worldgen/internal/mapping"
	"github.com/cory-johannsen/worldgen/internal/world"
)

// ErrWarpIndexOutOfRange is returned when a warp names a destination index
// beyond the end of its target map's warp list.
var ErrWarpIndexOutOfRange = errors.New("warp destination index out of range")

// warpTransition is applied to every resolved warp.
var warpTransition = world.WarpTransition{
	MoveOnExit:  false,
	WarpOnTile:  true,
	ChangeMusic: true,
}

// stillFacing maps the fixed-facing movement behaviours to their direction.
// Any other behaviour resolves to a neutral stance with no facing.
var stillFacing = map[string]world.Direction{
	"MOVEMENT_TYPE_FACE_LEFT":  world.Left,
	"MOVEMENT_TYPE_FACE_RIGHT": world.Right,
	"MOVEMENT_TYPE_FACE_UP":    world.Up,
	"MOVEMENT_TYPE_FACE_DOWN":  world.Down,
}

// Resolver resolves the cross references of one raw record against the full
// raw table. It only reads shared state and is safe for concurrent use.
type Resolver struct {
	table    *importer.RawTable
	deriver  *importer.Deriver
	mappings *mapping.Mappings
	logger   *zap.Logger
}

// NewResolver constructs a Resolver.
//
// Precondition: table, deriver, and mappings must be non-nil.
func NewResolver(table *importer.RawTable, deriver *importer.Deriver, mappings *mapping.Mappings, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{table: table, deriver: deriver, mappings: mappings, logger: logger}
}

// ResolveChunk resolves a record's connections.
//
// Postcondition: Returns nil when there are no connections; otherwise a chunk
// with one entry per direction. Unknown directions and malformed targets are errors.
func (r *Resolver) ResolveChunk(connections []importer.RawConnection) (*world.Chunk, error) {
	if len(connections) == 0 {
		return nil, nil
	}
	chunk := &world.Chunk{Connections: make(map[world.Direction]world.Connection, len(connections))}
	for _, c := range connections {
		dir, err := world.ParseDirection(c.Direction)
		if err != nil {
			return nil, fmt.Errorf("connection to %s: %w", c.Map, err)
		}
		loc, err := r.deriver.Derive(c.Map)
		if err != nil {
			return nil, fmt.Errorf("connection %s: %w", dir, err)
		}
		chunk.Connections[dir] = world.Connection{Location: loc, Offset: c.Offset}
	}
	return chunk, nil
}

// ResolveWarps resolves a record's warps, keyed warp_<index>. A warp whose
// target record is absent from the table is logged and dropped.
//
// Postcondition: Returns the resolved warps, or an error wrapping
// ErrWarpIndexOutOfRange naming owner when a target has too few warps.
func (r *Resolver) ResolveWarps(owner *importer.RawMapData) (map[string]world.WarpEntry, error) {
	warps := make(map[string]world.WarpEntry, len(owner.Warps))
	for i, w := range owner.Warps {
		dest, err := r.deriver.Derive(w.Destination)
		if err != nil {
			return nil, fmt.Errorf("warp %d: %w", i, err)
		}
		target, ok := r.table.Get(w.Destination)
		if !ok {
			r.logger.Warn("warp target not found; dropping warp",
				zap.String("map", owner.Name),
				zap.Int("warp", i),
				zap.String("target", w.Destination),
			)
			continue
		}
		idx := int(w.DestWarpID)
		if idx < 0 || idx >= len(target.Data.Warps) {
			return nil, fmt.Errorf("%w: map %q warp %d targets warp %d of %q, which has %d warps",
				ErrWarpIndexOutOfRange, owner.Name, i, idx, target.Data.Name, len(target.Data.Warps))
		}
		tw := target.Data.Warps[idx]
		warps[fmt.Sprintf("warp_%d", i)] = world.WarpEntry{
			Area: world.TileBox(world.Coordinate{X: w.X, Y: w.Y}),
			Destination: world.WarpDestination{
				Location: dest,
				Position: world.Destination{
					Coords: world.Coordinate{X: tw.X, Y: tw.Y},
					Facing: world.NoFacing,
				},
				Transition: warpTransition,
			},
		}
	}
	return warps, nil
}

// ResolveNPCs resolves object events whose sprite has an NPC type, keyed
// npc_<index>. Other events are scenery and are dropped.
func (r *Resolver) ResolveNPCs(events []importer.RawObjectEvent) map[string]world.NPC {
	npcs := make(map[string]world.NPC)
	for i, e := range events {
		typeID, ok := r.mappings.NPCType(e.GraphicsID)
		if !ok {
			r.logger.Debug("object is not an npc; dropping", zap.String("graphics_id", e.GraphicsID))
			continue
		}
		movement, facing := world.MovementNeutral, world.NoFacing
		if dir, still := stillFacing[e.MovementType]; still {
			movement, facing = world.MovementStill, dir
		}
		npcs[fmt.Sprintf("npc_%d", i)] = world.NPC{
			Name:     fmt.Sprintf("NPC %d-%d", e.X, e.Y),
			TypeID:   typeID,
			Movement: movement,
			Position: world.Position{
				Coords: world.Coordinate{X: e.X, Y: e.Y},
				Facing: facing,
			},
		}
	}
	return npcs
}

// ResolvePalettes returns the palette ids for a layout's tilesets,
// substituting the documented defaults for unknown tilesets.
func (r *Resolver) ResolvePalettes(primary, secondary string) [2]uint8 {
	p, ok := r.mappings.PrimaryPalette(primary)
	if !ok {
		r.logger.Warn("unknown primary tileset", zap.String("tileset", primary))
		p = mapping.DefaultPrimaryPalette
	}
	s, ok := r.mappings.SecondaryPalette(secondary)
	if !ok {
		r.logger.Warn("unknown secondary tileset", zap.String("tileset", secondary))
		s = mapping.DefaultSecondaryPalette
	}
	return [2]uint8{p, s}
}

// ResolveMusic returns the music id for a track, or the default track.
func (r *Resolver) ResolveMusic(track string) string {
	id, ok := r.mappings.MusicID(track)
	if !ok {
		r.logger.Warn("cannot find music", zap.String("track", track))
		return mapping.DefaultMusic
	}
	return id
}

// ResolveName returns the display-name override for name, or name itself.
func (r *Resolver) ResolveName(name string) string {
	if n, ok := r.mappings.DisplayName(name); ok {
		return n
	}
	return name
}

// Resolve builds the map for raw from decoded tile data.
//
// Postcondition: Returns the resolved map or an error that must abort the run.
func (r *Resolver) Resolve(raw *importer.RawMap, tiles *blockdata.Data) (world.WorldMap, error) {
	id, err := r.deriver.Derive(raw.Data.ID)
	if err != nil {
		return world.WorldMap{}, err
	}
	chunk, err := r.ResolveChunk(raw.Data.Connections)
	if err != nil {
		return world.WorldMap{}, fmt.Errorf("map %q: %w", raw.Data.Name, err)
	}
	warps, err := r.ResolveWarps(&raw.Data)
	if err != nil {
		return world.WorldMap{}, err
	}
	return world.WorldMap{
		ID:        id,
		Name:      r.ResolveName(raw.Data.Name),
		Chunk:     chunk,
		Warps:     warps,
		NPCs:      r.ResolveNPCs(raw.Data.Objects),
		Width:     raw.Layout.Width,
		Height:    raw.Layout.Height,
		Palettes:  r.ResolvePalettes(raw.Layout.PrimaryTileset, raw.Layout.SecondaryTileset),
		Music:     r.ResolveMusic(raw.Data.Music),
		Tiles:     tiles.Tiles,
		Movements: tiles.Movements,
		Border:    tiles.Border,
	}, nil
}

// BlobFetcher retrieves binary layout blobs.
type BlobFetcher interface {
	FetchBlob(ctx context.Context, path string) ([]byte, error)
}

var _ importer.Converter = (*Converter)(nil)

// Converter implements importer.Converter: it fetches and decodes a record's
// layout blobs, then resolves its references.
type Converter struct {
	blobs    BlobFetcher
	resolver *Resolver
}

// NewConverter constructs a Converter.
func NewConverter(blobs BlobFetcher, resolver *Resolver) *Converter {
	return &Converter{blobs: blobs, resolver: resolver}
}

// Convert implements importer.Converter. Blob retrieval failures are fatal;
// undecodable blobs skip the record.
func (c *Converter) Convert(ctx context.Context, raw *importer.RawMap) (world.WorldMap, bool, error) {
	tileData, err := c.blobs.FetchBlob(ctx, raw.Layout.BlockdataPath)
	if err != nil {
		return world.WorldMap{}, false, err
	}
	borderData, err := c.blobs.FetchBlob(ctx, raw.Layout.BorderPath)
	if err != nil {
		return world.WorldMap{}, false, err
	}
	tiles, ok := blockdata.Decode(tileData, borderData, int(raw.Layout.Width)*int(raw.Layout.Height))
	if !ok {
		return world.WorldMap{}, false, nil
	}
	m, err := c.resolver.Resolve(raw, tiles)
	if err != nil {
		return world.WorldMap{}, false, err
	}
	return m, true, nil
}
