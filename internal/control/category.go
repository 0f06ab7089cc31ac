// Package control implements the territory control rules: battle impact,
// siege resistance, blockade capping, and score aggregation.
package control

import (
	"math"
	"strings"

	"github.com/talgya/ashes-void/internal/apperr"
)

// CP bounds and tier thresholds.
const (
	MinCP = -6
	MaxCP = 6

	// HeldCP is the magnitude at which a side controls a tile.
	HeldCP = 3
	// SecureCP is the magnitude of a fully secured tile.
	SecureCP = 6
)

// Placement is where a battle category may be fought.
type Placement uint8

const (
	PlacementPlanet Placement = iota // Ground battles
	PlacementVoid                    // Fleet battles
)

func (p Placement) String() string {
	if p == PlacementVoid {
		return "void"
	}
	return "planet"
}

// Category enumerates the supported battle systems.
type Category uint8

const (
	Heresy30k Category = iota
	LegionsImperialis
	AdeptusTitanicus
	GothicArmada
)

// categoryInfo carries the per-category constants.
type categoryInfo struct {
	Key        string
	Label      string
	BaseImpact int
	Placement  Placement
}

// Adding a battle system is an edit to this table.
var categoryTable = [...]categoryInfo{
	Heresy30k:         {Key: "heresy30k", Label: "Heresy (30k)", BaseImpact: 2, Placement: PlacementPlanet},
	LegionsImperialis: {Key: "legions_imperialis", Label: "Legions Imperialis", BaseImpact: 3, Placement: PlacementPlanet},
	AdeptusTitanicus:  {Key: "adeptus_titanicus", Label: "Adeptus Titanicus", BaseImpact: 3, Placement: PlacementPlanet},
	GothicArmada:      {Key: "gothic_armada", Label: "Gothic Armada", BaseImpact: 2, Placement: PlacementVoid},
}

// ErrUnknownCategory is returned for battle keys outside the table.
var ErrUnknownCategory = apperr.New(apperr.CodeUnknownCategory, "unknown battle type")

// Categories returns every category in table order.
func Categories() []Category {
	out := make([]Category, len(categoryTable))
	for i := range categoryTable {
		out[i] = Category(i)
	}
	return out
}

// ParseCategory resolves a stored or submitted battle key.
func ParseCategory(key string) (Category, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	for i, info := range categoryTable {
		if info.Key == key {
			return Category(i), nil
		}
	}
	return 0, apperr.WithMetadata(apperr.CodeUnknownCategory, "unknown battle type "+key, map[string]string{"battle_type": key})
}

func (c Category) info() categoryInfo {
	if int(c) < len(categoryTable) {
		return categoryTable[c]
	}
	return categoryInfo{Key: "unknown", Label: "Unknown"}
}

// Key is the stable identifier persisted in the battle log.
func (c Category) Key() string { return c.info().Key }

// Label is the display name.
func (c Category) Label() string { return c.info().Label }

// BaseImpact is the impact of a normal victory.
func (c Category) BaseImpact() int { return c.info().BaseImpact }

// Placement is where battles of this category are fought.
func (c Category) Placement() Placement { return c.info().Placement }

// IsVoid reports whether the category is fought in void tiles.
func (c Category) IsVoid() bool { return c.Placement() == PlacementVoid }

func (c Category) String() string { return c.Key() }

// MarshalText encodes the category as its key.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.Key()), nil
}

// UnmarshalText decodes a category key.
func (c *Category) UnmarshalText(b []byte) error {
	parsed, err := ParseCategory(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Impact returns the impact points of a victory. Crushing victories
// multiply by 1.5, rounding half to even (3 → 4.5 → 4), and never drop a
// nonzero base below 1.
func Impact(base int, crushing bool) int {
	if base <= 0 {
		return 0
	}
	if !crushing {
		return base
	}
	v := int(math.RoundToEven(float64(base) * 1.5))
	return max(1, v)
}

// Side is the winner of a battle.
type Side uint8

const (
	Draw Side = iota
	Loyalist
	Traitor
)

var sideKeys = [...]string{Draw: "draw", Loyalist: "loyalist", Traitor: "traitor"}

// ParseSide resolves "loyalist", "traitor" or "draw".
func ParseSide(s string) (Side, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, k := range sideKeys {
		if k == s {
			return Side(i), nil
		}
	}
	return Draw, apperr.WithMetadata(apperr.CodeUnknownSide, "winning side must be loyalist, traitor or draw", map[string]string{"side": s})
}

// Sign is +1 for loyalist, -1 for traitor, 0 for a draw.
func (s Side) Sign() int {
	switch s {
	case Loyalist:
		return 1
	case Traitor:
		return -1
	default:
		return 0
	}
}

func (s Side) String() string {
	if int(s) < len(sideKeys) {
		return sideKeys[s]
	}
	return "draw"
}

// MarshalText encodes the side as its key.
func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a side key.
func (s *Side) UnmarshalText(b []byte) error {
	parsed, err := ParseSide(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
