package importer

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
)

// ErrDuplicateRawID is returned when two records share a raw identifier.
var ErrDuplicateRawID = errors.New("duplicate raw map identifier")

// RawConnection is an unresolved link to a neighbouring map.
type RawConnection struct {
	Direction string `json:"direction" msgpack:"direction" validate:"required"`
	Map       string `json:"map" msgpack:"map" validate:"required"`
	Offset    int32  `json:"offset" msgpack:"offset"`
}

// WarpIndex is a position in a target map's warp list. The source encodes it
// as either a JSON number or a numeric string.
type WarpIndex int

// UnmarshalJSON accepts 3 and "3".
func (w *WarpIndex) UnmarshalJSON(data []byte) error {
	s := string(data)
	if unq, err := strconv.Unquote(s); err == nil {
		s = unq
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("warp index %s: %w", string(data), err)
	}
	*w = WarpIndex(n)
	return nil
}

// RawWarp is an unresolved warp event.
type RawWarp struct {
	X           int16     `json:"x" msgpack:"x"`
	Y           int16     `json:"y" msgpack:"y"`
	Elevation   int       `json:"elevation" msgpack:"elevation"`
	Destination string    `json:"dest_map" msgpack:"dest_map" validate:"required"`
	DestWarpID  WarpIndex `json:"dest_warp_id" msgpack:"dest_warp_id" validate:"min=0"`
}

// RawObjectEvent is an unresolved object placement.
type RawObjectEvent struct {
	GraphicsID   string `json:"graphics_id" msgpack:"graphics_id"`
	X            int16  `json:"x" msgpack:"x"`
	Y            int16  `json:"y" msgpack:"y"`
	MovementType string `json:"movement_type" msgpack:"movement_type"`
}

// RawMapData is the parsed form of a data/maps/<name>/map.json document.
type RawMapData struct {
	ID          string           `json:"id" msgpack:"id" validate:"required"`
	Name        string           `json:"name" msgpack:"name" validate:"required"`
	Layout      string           `json:"layout" msgpack:"layout" validate:"required"`
	Music       string           `json:"music" msgpack:"music"`
	Connections []RawConnection  `json:"connections" msgpack:"connections" validate:"dive"`
	Warps       []RawWarp        `json:"warp_events" msgpack:"warp_events" validate:"dive"`
	Objects     []RawObjectEvent `json:"object_events" msgpack:"object_events"`
}

// RawLayout is one entry of data/layouts/layouts.json.
type RawLayout struct {
	ID               string `json:"id" msgpack:"id" validate:"required"`
	Name             string `json:"name" msgpack:"name"`
	Width            uint16 `json:"width" msgpack:"width" validate:"gt=0"`
	Height           uint16 `json:"height" msgpack:"height" validate:"gt=0"`
	PrimaryTileset   string `json:"primary_tileset" msgpack:"primary_tileset"`
	SecondaryTileset string `json:"secondary_tileset" msgpack:"secondary_tileset"`
	BorderPath       string `json:"border_filepath" msgpack:"border_filepath" validate:"required"`
	BlockdataPath    string `json:"blockdata_filepath" msgpack:"blockdata_filepath" validate:"required"`
}

// RawMap is a map record together with its layout.
type RawMap struct {
	Data   RawMapData `msgpack:"data"`
	Layout RawLayout  `msgpack:"layout"`
}

// RawTable is the complete, read-only set of raw records keyed by raw
// identifier. It is never mutated after TableBuilder.Build and may be read
// from any number of goroutines without locking.
type RawTable struct {
	records map[string]*RawMap
	ids     []string
}

// Get returns the record with the given raw identifier.
//
// Postcondition: Returns (record, true) if found, or (nil, false) otherwise.
func (t *RawTable) Get(rawID string) (*RawMap, bool) {
	r, ok := t.records[rawID]
	return r, ok
}

// Len returns the number of records.
func (t *RawTable) Len() int { return len(t.records) }

// IDs returns the raw identifiers in sorted order.
func (t *RawTable) IDs() []string {
	return append([]string(nil), t.ids...)
}

// Records returns every record ordered by raw identifier.
func (t *RawTable) Records() []*RawMap {
	out := make([]*RawMap, 0, len(t.ids))
	for _, id := range t.ids {
		out = append(out, t.records[id])
	}
	return out
}

// TableBuilder accumulates records sequentially before freezing them into a
// RawTable. It is not safe for concurrent use.
type TableBuilder struct {
	records map[string]*RawMap
}

// NewTableBuilder creates an empty builder.
func NewTableBuilder() *TableBuilder {
	return &TableBuilder{records: make(map[string]*RawMap)}
}

// Insert adds r under r.Data.ID.
//
// Postcondition: Returns an error wrapping ErrDuplicateRawID naming the
// existing record when the identifier is already present.
func (b *TableBuilder) Insert(r *RawMap) error {
	if existing, ok := b.records[r.Data.ID]; ok {
		return fmt.Errorf("%w: %q is used by both %q and %q",
			ErrDuplicateRawID, r.Data.ID, existing.Data.Name, r.Data.Name)
	}
	b.records[r.Data.ID] = r
	return nil
}

// Build freezes the accumulated records. The builder must not be used afterwards.
func (b *TableBuilder) Build() *RawTable {
	ids := make([]string, 0, len(b.records))
	for id := range b.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	t := &RawTable{records: b.records, ids: ids}
	b.records = nil
	return t
}

// NewTable builds a RawTable from records, failing on duplicate identifiers.
func NewTable(records []*RawMap) (*RawTable, error) {
	b := NewTableBuilder()
	for _, r := range records {
		if err := b.Insert(r); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}
