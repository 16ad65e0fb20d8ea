// Package mapping loads the read-only name dictionaries that translate source
// names (map ids, tilesets, music tracks, sprites) into world values.
package mapping

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/worldgen/internal/world"
)

// Documented fallbacks applied by callers on a dictionary miss.
const (
	DefaultPrimaryPalette   uint8 = 0
	DefaultSecondaryPalette uint8 = 13
	DefaultMusic                  = "pallet"
)

// MapNames holds the per-map overrides.
type MapNames struct {
	// ID overrides the derived location for a raw map id.
	ID map[string]world.Location `yaml:"id"`
	// Name overrides the display name.
	Name map[string]string `yaml:"name"`
}

// Palettes maps tileset names to palette ids.
type Palettes struct {
	Primary   map[string]uint8 `yaml:"primary"`
	Secondary map[string]uint8 `yaml:"secondary"`
}

// Mappings is the full set of name dictionaries.
// It is never mutated after Load returns and may be shared across goroutines.
type Mappings struct {
	Map      MapNames          `yaml:"map"`
	Palettes Palettes          `yaml:"palettes"`
	Music    map[string]string `yaml:"music"`
	NPCs     map[string]string `yaml:"npcs"`
}

// Empty returns Mappings with every dictionary present and empty.
func Empty() *Mappings {
	m := &Mappings{}
	m.fill()
	return m
}

func (m *Mappings) fill() {
	if m.Map.ID == nil {
		m.Map.ID = map[string]world.Location{}
	}
	if m.Map.Name == nil {
		m.Map.Name = map[string]string{}
	}
	if m.Palettes.Primary == nil {
		m.Palettes.Primary = map[string]uint8{}
	}
	if m.Palettes.Secondary == nil {
		m.Palettes.Secondary = map[string]uint8{}
	}
	if m.Music == nil {
		m.Music = map[string]string{}
	}
	if m.NPCs == nil {
		m.NPCs = map[string]string{}
	}
}

// Validate checks that every override fits the fixed identifier width.
func (m *Mappings) Validate() error {
	for raw, loc := range m.Map.ID {
		if err := loc.Validate(); err != nil {
			return fmt.Errorf("map.id[%q]: %w", raw, err)
		}
	}
	for track, id := range m.Music {
		if id == "" || len(id) > world.MaxIDLen {
			return fmt.Errorf("music[%q]: id %q must be 1-%d bytes", track, id, world.MaxIDLen)
		}
	}
	for sprite, id := range m.NPCs {
		if id == "" || len(id) > world.MaxIDLen {
			return fmt.Errorf("npcs[%q]: type %q must be 1-%d bytes", sprite, id, world.MaxIDLen)
		}
	}
	return nil
}

// Parse decodes and validates a mappings YAML document.
//
// Postcondition: Returns Mappings with every dictionary non-nil, or a non-nil error.
func Parse(data []byte) (*Mappings, error) {
	var m Mappings
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing mappings: %w", err)
	}
	m.fill()
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("validating mappings: %w", err)
	}
	return &m, nil
}

// Load reads the mappings file at path. A missing file yields Empty() and
// found == false so the caller can warn.
//
// Postcondition: Returns non-nil Mappings, or a non-nil error.
func Load(path string) (m *Mappings, found bool, err error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Empty(), false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading mappings file %s: %w", path, err)
	}
	m, err = Parse(data)
	if err != nil {
		return nil, true, fmt.Errorf("%s: %w", path, err)
	}
	return m, true, nil
}

// LocationOverride returns the location override for a raw map id.
func (m *Mappings) LocationOverride(rawID string) (world.Location, bool) {
	loc, ok := m.Map.ID[rawID]
	return loc, ok
}

// DisplayName returns the display-name override for name.
func (m *Mappings) DisplayName(name string) (string, bool) {
	n, ok := m.Map.Name[name]
	return n, ok
}

// PrimaryPalette returns the palette id for a primary tileset.
func (m *Mappings) PrimaryPalette(tileset string) (uint8, bool) {
	id, ok := m.Palettes.Primary[tileset]
	return id, ok
}

// SecondaryPalette returns the palette id for a secondary tileset.
func (m *Mappings) SecondaryPalette(tileset string) (uint8, bool) {
	id, ok := m.Palettes.Secondary[tileset]
	return id, ok
}

// MusicID returns the music id for a track name.
func (m *Mappings) MusicID(track string) (string, bool) {
	id, ok := m.Music[track]
	return id, ok
}

// NPCType returns the placement type for a sprite reference.
func (m *Mappings) NPCType(graphicsID string) (string, bool) {
	id, ok := m.NPCs[graphicsID]
	return id, ok
}
