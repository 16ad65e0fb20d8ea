package world

import (
	"sort"

	cmap "github.com/orcaman/concurrent-map/v2"
)

// Graph maps canonical locations to resolved maps.
// It is safe for concurrent use; inserts on different keys do not serialise
// unless their keys share a shard.
type Graph struct {
	maps cmap.ConcurrentMap[string, WorldMap]
}

// NewGraph creates an empty Graph.
func NewGraph() *Graph {
	return &Graph{maps: cmap.New[WorldMap]()}
}

// InsertIfAbsent stores m under m.ID unless that key is already present.
//
// Postcondition: Exactly one of any set of racing inserts on the same key
// returns inserted == true. Losers receive the stored map as existing.
func (g *Graph) InsertIfAbsent(m WorldMap) (existing WorldMap, inserted bool) {
	key := m.ID.String()
	if g.maps.SetIfAbsent(key, m) {
		return WorldMap{}, true
	}
	// Entries are never removed, so the winner is visible here.
	existing, _ = g.maps.Get(key)
	return existing, false
}

// Get returns the map stored at loc.
//
// Postcondition: Returns (map, true) if found, or (WorldMap{}, false) otherwise.
func (g *Graph) Get(loc Location) (WorldMap, bool) {
	return g.maps.Get(loc.String())
}

// Len returns the number of maps in the graph.
func (g *Graph) Len() int {
	return g.maps.Count()
}

// Keys returns every location key in sorted order.
func (g *Graph) Keys() []string {
	keys := g.maps.Keys()
	sort.Strings(keys)
	return keys
}

// Maps returns every map ordered by location key.
func (g *Graph) Maps() []WorldMap {
	keys := g.Keys()
	out := make([]WorldMap, 0, len(keys))
	for _, k := range keys {
		if m, ok := g.maps.Get(k); ok {
			out = append(out, m)
		}
	}
	return out
}

// DanglingConnection is a chunk connection whose target is not in the graph.
type DanglingConnection struct {
	From      Location
	Direction Direction
	Target    Location
}

// DanglingConnections lists chunk connections that target locations missing
// from the graph, typically maps whose tile data failed to decode.
//
// Precondition: Assembly must be complete.
// Postcondition: Result is ordered by source location then direction.
func (g *Graph) DanglingConnections() []DanglingConnection {
	var out []DanglingConnection
	for _, m := range g.Maps() {
		if m.Chunk == nil {
			continue
		}
		for _, dir := range Directions {
			conn, ok := m.Chunk.Connections[dir]
			if !ok {
				continue
			}
			if _, found := g.Get(conn.Location); !found {
				out = append(out, DanglingConnection{From: m.ID, Direction: dir, Target: conn.Location})
			}
		}
	}
	return out
}
