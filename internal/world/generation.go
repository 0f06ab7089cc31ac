// Map seeding: the fixed campaign layout and a noise-generated sector.
package world

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// DefaultRadius is the radius of the standard campaign map.
const DefaultRadius = 4

// DefaultPlanets names the planets of the standard campaign map.
var DefaultPlanets = map[HexCoord]string{
	{Q: 0, R: 0}:  "Terra (Anchor)",
	{Q: 2, R: -1}: "Cthonia",
	{Q: -2, R: 1}: "Isstvan System",
	{Q: 1, R: 2}:  "Paramar",
	{Q: -3, R: 0}: "Beta-Garmon",
	{Q: 0, R: -3}: "Molech",
}

// VoidName is the display name given to an unnamed void tile.
func VoidName(c HexCoord) string {
	return fmt.Sprintf("Void %d,%d", c.Q, c.R)
}

// DefaultLayout builds the standard map: a disc of the given radius with the
// six named planets; every other tile is void. All control values start at 0.
func DefaultLayout(radius int) *Map {
	m := NewMap(radius)
	for _, c := range Disc(radius) {
		name, isPlanet := DefaultPlanets[c]
		if !isPlanet {
			name = VoidName(c)
		}
		m.Add(Territory{Coord: c, Name: name, IsPlanet: isPlanet})
	}
	return m
}

// GenConfig holds sector generation parameters.
type GenConfig struct {
	Radius        int     // Hex grid radius
	Seed          int64   // Noise seed (0 = random)
	PlanetDensity float64 // Fraction of tiles that become planets (0.0–1.0)
}

// DefaultGenConfig returns a reasonable starting configuration.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Radius:        DefaultRadius,
		Seed:          0,
		PlanetDensity: 0.12,
	}
}

// Generate creates a sector whose planets sit on the strongest points of a
// simplex noise field. The origin is always a planet, and no two planets
// are adjacent, so every planet has void orbit around it. The same seed
// always yields the same map.
func Generate(cfg GenConfig) *Map {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	if cfg.Radius <= 0 {
		cfg.Radius = DefaultRadius
	}
	density := cfg.PlanetDensity
	if density <= 0 {
		density = DefaultGenConfig().PlanetDensity
	}

	noise := opensimplex.NewNormalized(seed)
	rng := rand.New(rand.NewSource(seed + 200))

	coords := Disc(cfg.Radius)

	type scored struct {
		coord HexCoord
		score float64
	}
	candidates := make([]scored, 0, len(coords))
	for _, c := range coords {
		// Hex axial → cartesian: x = q + r*0.5, y = r * sqrt(3)/2
		x := float64(c.Q) + float64(c.R)*0.5
		y := float64(c.R) * math.Sqrt(3.0) / 2.0
		candidates = append(candidates, scored{c, octaveNoise(noise, x, y, 3, 0.35, 0.5)})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	want := int(math.Round(float64(len(coords)) * density))
	planets := []HexCoord{{}}
	for _, c := range candidates {
		if len(planets) >= want {
			break
		}
		if tooClose(c.coord, planets, 2) {
			continue
		}
		planets = append(planets, c.coord)
	}

	names := generateNames(rng, len(planets))
	planetNames := make(map[HexCoord]string, len(planets))
	for i, c := range planets {
		planetNames[c] = names[i]
	}

	m := NewMap(cfg.Radius)
	for _, c := range coords {
		name, isPlanet := planetNames[c]
		if !isPlanet {
			name = VoidName(c)
		}
		m.Add(Territory{Coord: c, Name: name, IsPlanet: isPlanet})
	}
	return m
}

// octaveNoise samples multi-octave simplex noise normalized to 0..1.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

func tooClose(coord HexCoord, existing []HexCoord, minDist int) bool {
	for _, c := range existing {
		if Distance(coord, c) < minDist {
			return true
		}
	}
	return false
}

// generateNames produces procedural world names by combining syllables.
func generateNames(rng *rand.Rand, count int) []string {
	prefixes := []string{
		"Ar", "Bel", "Cad", "Dra", "Esh", "Fen", "Gal", "Hyd", "Ist",
		"Kor", "Lux", "Mor", "Nov", "Ose", "Pyr", "Quin", "Rho", "Sar",
		"Tal", "Ul", "Vor", "Xan", "Yr", "Zeph",
	}
	suffixes := []string{
		"adon", "eria", "ixis", "ova", "undus", "athis", "enor", "philon",
		"oth", "ulus", "arra", "emnos", "isca", "orum", "yx", "antine",
	}
	numerals := []string{"Prime", "Secundus", "Tertius", "IV", "V", "VII"}

	used := make(map[string]bool)
	names := make([]string, 0, count)

	for len(names) < count {
		name := prefixes[rng.Intn(len(prefixes))] + suffixes[rng.Intn(len(suffixes))]
		if rng.Intn(3) == 0 {
			name += " " + numerals[rng.Intn(len(numerals))]
		}
		if !used[name] {
			used[name] = true
			names = append(names, name)
		}
	}

	return names
}

// KindCounts returns how many planet and void tiles a map has.
func KindCounts(m *Map) (planets, voids int) {
	for _, t := range m.tiles {
		if t.IsPlanet {
			planets++
		} else {
			voids++
		}
	}
	return planets, voids
}

// Layout builds the named map layout: "fixed" for the standard campaign
// map, "generated" for a noise-generated sector from seed.
func Layout(kind string, radius int, seed int64) (*Map, error) {
	switch kind {
	case "fixed", "":
		return DefaultLayout(radius), nil
	case "generated":
		cfg := DefaultGenConfig()
		cfg.Radius = radius
		cfg.Seed = seed
		return Generate(cfg), nil
	default:
		return nil, fmt.Errorf("unknown map layout %q", kind)
	}
}
