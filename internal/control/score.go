package control

import "github.com/talgya/ashes-void/internal/world"

// Status is the control-strength tier of a tile.
type Status string

const (
	Contested Status = "Contested"
	Held      Status = "Held"
	Secure    Status = "Secure"
)

// StatusFromCP classifies |cp| <= 2 as Contested, 3..5 as Held and 6 as Secure.
func StatusFromCP(cp int) Status {
	a := abs(cp)
	switch {
	case a < HeldCP:
		return Contested
	case a < SecureCP:
		return Held
	default:
		return Secure
	}
}

// Allegiance is the side a tile leans towards.
type Allegiance string

const (
	AllegianceLoyalist Allegiance = "Loyalist"
	AllegianceTraitor  Allegiance = "Traitor"
	AllegianceNeutral  Allegiance = "Neutral"
)

// SideFromCP returns the side the control value leans towards.
func SideFromCP(cp int) Allegiance {
	switch {
	case cp > 0:
		return AllegianceLoyalist
	case cp < 0:
		return AllegianceTraitor
	default:
		return AllegianceNeutral
	}
}

// IsControlled reports whether a tile is Held or Secure.
func IsControlled(cp int) bool {
	return abs(cp) >= HeldCP
}

// Tally is a campaign score.
type Tally struct {
	Loyalist int `json:"loyalist"`
	Traitor  int `json:"traitor"`
	Lead     int `json:"lead"` // positive favors loyalist
}

// Sub returns the per-field difference t - prev.
func (t Tally) Sub(prev Tally) Tally {
	return Tally{
		Loyalist: t.Loyalist - prev.Loyalist,
		Traitor:  t.Traitor - prev.Traitor,
		Lead:     t.Lead - prev.Lead,
	}
}

// Leader names the side ahead, or "Tied".
func (t Tally) Leader() string {
	switch {
	case t.Lead > 0:
		return string(AllegianceLoyalist)
	case t.Lead < 0:
		return string(AllegianceTraitor)
	default:
		return "Tied"
	}
}

// Points is what one controlled tile is worth: planets 3 (Secure) or 2
// (Held), void tiles 2 or 1. Contested tiles are worth nothing.
func Points(isPlanet bool, cp int) int {
	switch StatusFromCP(cp) {
	case Secure:
		if isPlanet {
			return 3
		}
		return 2
	case Held:
		if isPlanet {
			return 2
		}
		return 1
	default:
		return 0
	}
}

// Score totals the points each side earns from the territories it controls.
func Score(territories []world.Territory) Tally {
	var t Tally
	for _, tile := range territories {
		pts := Points(tile.IsPlanet, tile.CP)
		switch {
		case pts == 0:
		case tile.CP > 0:
			t.Loyalist += pts
		default:
			t.Traitor += pts
		}
	}
	t.Lead = t.Loyalist - t.Traitor
	return t
}
