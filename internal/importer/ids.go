package importer

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/worldgen/internal/world"
)

// NamespacePrefixLen is the length of the namespace prefix ("MAP_") carried
// by every raw map identifier.
const NamespacePrefixLen = 4

// truncHead and truncTail split the fixed width of an over-long identifier.
const (
	truncHead = 12
	truncTail = 4
)

// ErrMalformedID is returned when a raw identifier cannot be expressed as a
// fixed-width location index.
var ErrMalformedID = errors.New("malformed map identifier")

// LocationOverrides supplies explicit raw id → location overrides.
type LocationOverrides interface {
	LocationOverride(rawID string) (world.Location, bool)
}

// TruncateID strips the namespace prefix from rawID and fits the remainder
// into world.MaxIDLen bytes. Remainders of MaxIDLen bytes or more keep their
// first 12 and last 4 bytes; shorter remainders are returned unchanged.
//
// Postcondition: Returns a non-empty printable ASCII string of at most
// world.MaxIDLen bytes, or an error wrapping ErrMalformedID.
func TruncateID(rawID string) (string, error) {
	if len(rawID) <= NamespacePrefixLen {
		return "", fmt.Errorf("%w: %q has no content after its prefix", ErrMalformedID, rawID)
	}
	id := rawID[NamespacePrefixLen:]
	for i := 0; i < len(id); i++ {
		if id[i] <= ' ' || id[i] > '~' {
			return "", fmt.Errorf("%w: %q contains byte 0x%02x", ErrMalformedID, rawID, id[i])
		}
	}
	if len(id) >= world.MaxIDLen {
		return id[:truncHead] + id[len(id)-truncTail:], nil
	}
	return id, nil
}

// Deriver maps raw map identifiers to canonical locations.
// It holds no mutable state and is safe for concurrent use.
type Deriver struct {
	overrides LocationOverrides
	logger    *zap.Logger
}

// NewDeriver constructs a Deriver. overrides may be nil.
func NewDeriver(overrides LocationOverrides, logger *zap.Logger) *Deriver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Deriver{overrides: overrides, logger: logger}
}

// Derive returns the canonical location for rawID. An override always wins;
// otherwise the location is TruncateID(rawID) in world.DefaultNamespace.
//
// Postcondition: Returns a valid Location, or an error wrapping ErrMalformedID.
func (d *Deriver) Derive(rawID string) (world.Location, error) {
	if d.overrides != nil {
		if loc, ok := d.overrides.LocationOverride(rawID); ok {
			return loc, nil
		}
	}
	d.logger.Debug("no location override; deriving", zap.String("raw_id", rawID))
	index, err := TruncateID(rawID)
	if err != nil {
		return world.Location{}, err
	}
	return world.Location{Map: world.DefaultNamespace, Index: index}, nil
}
