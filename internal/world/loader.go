package world

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// mapFile is the top-level YAML structure for map files.
type mapFile struct {
	Map WorldMap `yaml:"map"`
}

// MarshalMap encodes a map as a YAML map file.
//
// Postcondition: Returns bytes accepted by LoadMapFromBytes, or a non-nil error.
func MarshalMap(m WorldMap) ([]byte, error) {
	data, err := yaml.Marshal(mapFile{Map: m})
	if err != nil {
		return nil, fmt.Errorf("serialising map %s: %w", m.ID, err)
	}
	return data, nil
}

// LoadMapFromFile reads and validates a single map YAML file.
//
// Precondition: path must point to a valid YAML map file.
// Postcondition: Returns a validated WorldMap or a non-nil error.
func LoadMapFromFile(path string) (*WorldMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading map file %s: %w", path, err)
	}
	return LoadMapFromBytes(data)
}

// LoadMapFromBytes parses and validates a map from YAML bytes.
//
// Precondition: data must be valid YAML conforming to the map schema.
// Postcondition: Returns a validated WorldMap or a non-nil error.
func LoadMapFromBytes(data []byte) (*WorldMap, error) {
	var file mapFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing map YAML: %w", err)
	}
	m := file.Map
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("validating map: %w", err)
	}
	return &m, nil
}
