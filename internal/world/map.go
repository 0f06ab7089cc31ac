package world

import (
	"context"
	"fmt"
	"time"
)

// Map holds the complete territory set in memory. It satisfies the
// rules engine's store interface, so whole campaigns can be resolved
// without a database (tests, dry runs, score previews).
type Map struct {
	Radius int `json:"radius"`

	tiles   []*Territory // ordered by id
	byID    map[int64]*Territory
	byCoord map[HexCoord]*Territory
}

// NewMap creates an empty map with the given radius.
// A hex grid of radius R contains hexes where max(|q|, |r|, |s|) <= R.
func NewMap(radius int) *Map {
	return &Map{
		Radius:  radius,
		byID:    make(map[int64]*Territory),
		byCoord: make(map[HexCoord]*Territory),
	}
}

// FromTerritories builds a map from an already-seeded territory list.
func FromTerritories(radius int, ts []Territory) *Map {
	m := NewMap(radius)
	for _, t := range ts {
		m.Add(t)
	}
	return m
}

// RadiusOf returns the smallest radius whose disc contains every territory.
func RadiusOf(ts []Territory) int {
	r := 0
	for _, t := range ts {
		r = max(r, Distance(t.Coord, HexCoord{}))
	}
	return r
}

// Add places a territory on the map. A zero ID is replaced with the next
// sequential id. Adding a second tile at an occupied coordinate replaces nothing
// and returns the existing tile.
func (m *Map) Add(t Territory) *Territory {
	if existing, ok := m.byCoord[t.Coord]; ok {
		return existing
	}
	if t.ID == 0 {
		t.ID = int64(len(m.tiles) + 1)
	}
	tile := &t
	m.tiles = append(m.tiles, tile)
	m.byID[tile.ID] = tile
	m.byCoord[tile.Coord] = tile
	return tile
}

// Get returns the territory at the given coordinate, or nil if there is none.
func (m *Map) Get(coord HexCoord) *Territory {
	return m.byCoord[coord]
}

// ByID returns the territory with the given id, or nil.
func (m *Map) ByID(id int64) *Territory {
	return m.byID[id]
}

// ByName returns the first territory with the given display name, or nil.
func (m *Map) ByName(name string) *Territory {
	for _, t := range m.tiles {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// Territories returns a copy of every tile in id order.
func (m *Map) Territories() []Territory {
	out := make([]Territory, len(m.tiles))
	for i, t := range m.tiles {
		out[i] = *t
	}
	return out
}

// Planets returns the planet tiles in id order.
func (m *Map) Planets() []Territory {
	var out []Territory
	for _, t := range m.tiles {
		if t.IsPlanet {
			out = append(out, *t)
		}
	}
	return out
}

// Clone returns a deep copy of the map.
func (m *Map) Clone() *Map {
	return FromTerritories(m.Radius, m.Territories())
}

// ControlValues returns id -> cp for every tile.
func (m *Map) ControlValues() map[int64]int {
	out := make(map[int64]int, len(m.tiles))
	for _, t := range m.tiles {
		out[t.ID] = t.CP
	}
	return out
}

// Count returns the total number of territories on the map.
func (m *Map) Count() int {
	return len(m.tiles)
}

// String returns a summary of the map.
func (m *Map) String() string {
	return fmt.Sprintf("Map(radius=%d, territories=%d, planets=%d)", m.Radius, m.Count(), len(m.Planets()))
}

// Territory looks a tile up by id.
func (m *Map) Territory(_ context.Context, id int64) (Territory, bool, error) {
	t, ok := m.byID[id]
	if !ok {
		return Territory{}, false, nil
	}
	return *t, true, nil
}

// TerritoryAt looks a tile up by coordinate.
func (m *Map) TerritoryAt(_ context.Context, coord HexCoord) (Territory, bool, error) {
	t, ok := m.byCoord[coord]
	if !ok {
		return Territory{}, false, nil
	}
	return *t, true, nil
}

// SetControl stores a new control value. Unknown ids are ignored.
func (m *Map) SetControl(_ context.Context, id int64, cp int, at time.Time) error {
	if t, ok := m.byID[id]; ok {
		t.CP = cp
		t.UpdatedAt = at
	}
	return nil
}

// ListTerritories returns every tile in id order.
func (m *Map) ListTerritories(_ context.Context) ([]Territory, error) {
	return m.Territories(), nil
}

// ResetControl sets every tile back to neutral.
func (m *Map) ResetControl(_ context.Context, at time.Time) error {
	for _, t := range m.tiles {
		t.CP = 0
		t.UpdatedAt = at
	}
	return nil
}
