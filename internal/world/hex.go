// Package world provides the hex grid, territories, and map seeding.
// Uses axial coordinates (q, r) for the hex grid.
package world

import (
	"fmt"
	"time"
)

// HexCoord represents a position on the hex grid using axial coordinates.
// The third cube coordinate s is derived: s = -q - r.
type HexCoord struct {
	Q int `json:"q"`
	R int `json:"r"`
}

// S returns the implicit third cube coordinate.
func (h HexCoord) S() int {
	return -h.Q - h.R
}

func (h HexCoord) String() string {
	return fmt.Sprintf("%d,%d", h.Q, h.R)
}

// HexNeighborDirections defines the six neighbor offsets in axial coordinates.
var HexNeighborDirections = [6]HexCoord{
	{Q: 1, R: 0},
	{Q: -1, R: 0},
	{Q: 0, R: 1},
	{Q: 0, R: -1},
	{Q: 1, R: -1},
	{Q: -1, R: 1},
}

// Neighbors returns the six adjacent hex coordinates.
func (h HexCoord) Neighbors() [6]HexCoord {
	var result [6]HexCoord
	for i, dir := range HexNeighborDirections {
		result[i] = HexCoord{Q: h.Q + dir.Q, R: h.R + dir.R}
	}
	return result
}

// Adjacent reports whether a and b share an edge.
func Adjacent(a, b HexCoord) bool {
	return Distance(a, b) == 1
}

// Distance returns the hex distance between two coordinates.
func Distance(a, b HexCoord) int {
	return max(abs(a.Q-b.Q), abs(a.R-b.R), abs(a.S()-b.S()))
}

// InRadius reports whether c lies within radius steps of the origin.
func InRadius(c HexCoord, radius int) bool {
	return Distance(c, HexCoord{}) <= radius
}

// Disc returns every coordinate within radius of the origin, q-major then r.
// Territory ids are assigned in this order when a map is seeded.
func Disc(radius int) []HexCoord {
	var coords []HexCoord
	for q := -radius; q <= radius; q++ {
		r1 := max(-radius, -q-radius)
		r2 := min(radius, -q+radius)
		for r := r1; r <= r2; r++ {
			coords = append(coords, HexCoord{Q: q, R: r})
		}
	}
	return coords
}

// Territory is a single tile of the campaign map.
// IsPlanet is fixed at seeding time; CP is the signed control value in [-6, 6].
type Territory struct {
	ID        int64     `json:"id"`
	Coord     HexCoord  `json:"coord"`
	Name      string    `json:"name"`
	IsPlanet  bool      `json:"is_planet"`
	CP        int       `json:"cp"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Kind returns "planet" or "void".
func (t Territory) Kind() string {
	if t.IsPlanet {
		return "planet"
	}
	return "void"
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
