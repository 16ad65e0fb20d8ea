package pret

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/cory-johannsen/worldgen/internal/importer"
)

// Source repository paths.
const (
	LayoutsPath   = "data/layouts/layouts.json"
	MapGroupsPath = "data/maps/map_groups.json"
)

// MapPath returns the map.json path for a map directory name.
func MapPath(name string) string {
	return "data/maps/" + name + "/map.json"
}

// layoutsFile is the shape of data/layouts/layouts.json. Some entries are
// empty placeholder objects; they decode with an empty ID.
type layoutsFile struct {
	Layouts []importer.RawLayout `json:"layouts"`
}

// ParseLayouts parses layouts.json into a table keyed by layout id.
// Placeholder entries are dropped.
//
// Postcondition: Returns a non-nil map or a non-nil error.
func ParseLayouts(data []byte) (map[string]importer.RawLayout, error) {
	var f layoutsFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing layouts: %w", err)
	}
	out := make(map[string]importer.RawLayout, len(f.Layouts))
	for _, l := range f.Layouts {
		if l.ID == "" {
			continue
		}
		out[l.ID] = l
	}
	return out, nil
}

// ParseMapGroups parses map_groups.json and returns every map directory name
// in group_order order.
//
// Postcondition: Returns the names or a non-nil error.
func ParseMapGroups(data []byte) ([]string, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing map groups: %w", err)
	}
	rawOrder, ok := doc["group_order"]
	if !ok {
		return nil, fmt.Errorf("parsing map groups: missing group_order")
	}
	var order []string
	if err := json.Unmarshal(rawOrder, &order); err != nil {
		return nil, fmt.Errorf("parsing map groups: group_order: %w", err)
	}

	var names []string
	for _, group := range order {
		rawGroup, ok := doc[group]
		if !ok {
			return nil, fmt.Errorf("parsing map groups: group %q listed in group_order is missing", group)
		}
		var members []string
		if err := json.Unmarshal(rawGroup, &members); err != nil {
			return nil, fmt.Errorf("parsing map groups: group %q: %w", group, err)
		}
		names = append(names, members...)
	}
	return names, nil
}

// ParseMap parses a map.json document.
//
// Postcondition: Returns a non-nil RawMapData or a non-nil error.
func ParseMap(data []byte) (*importer.RawMapData, error) {
	var m importer.RawMapData
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing map: %w", err)
	}
	return &m, nil
}
