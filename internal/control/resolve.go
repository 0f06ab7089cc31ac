package control

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/talgya/ashes-void/internal/apperr"
	"github.com/talgya/ashes-void/internal/world"
)

// Store is the territory state the rules read and write.
// Every lookup reads current state, so a change applied by one battle is
// visible to the adjacency checks of the next.
type Store interface {
	Territory(ctx context.Context, id int64) (world.Territory, bool, error)
	TerritoryAt(ctx context.Context, coord world.HexCoord) (world.Territory, bool, error)
	SetControl(ctx context.Context, id int64, cp int, at time.Time) error
}

var (
	// ErrInvalidPlacement is returned when a battle is logged on the wrong kind of tile.
	ErrInvalidPlacement = apperr.New(apperr.CodeInvalidPlacement, "invalid battle placement")
	// ErrUnknownTerritory is returned when the battle location does not exist.
	ErrUnknownTerritory = apperr.New(apperr.CodeTerritoryNotFound, "unknown territory")
	// ErrInvalidTarget is returned for a splash or pressure target that is not an adjacent tile of the right kind.
	ErrInvalidTarget = apperr.New(apperr.CodeInvalidTarget, "invalid secondary target")
)

// Outcome is one battle result as the rules see it.
type Outcome struct {
	Category   Category
	LocationID int64
	Winner     Side
	Crushing   bool
	SplashID   *int64 // planetary battles: adjacent void tile
	PressureID *int64 // void battles: adjacent planet
}

// Secondary returns the secondary target that applies to the category, if any.
// A splash target on a void battle (or pressure on a planetary one) is ignored.
func (o Outcome) Secondary() *int64 {
	if o.Category.IsVoid() {
		return o.PressureID
	}
	return o.SplashID
}

// Change records the effect of one delta on one territory.
type Change struct {
	TerritoryID int64 `json:"territory_id"`
	Requested   int   `json:"requested"`
	Old         int   `json:"old"`
	New         int   `json:"new"`
	Siege       bool  `json:"siege_resisted,omitempty"`
	Blockade    bool  `json:"blockade_capped,omitempty"`
}

// Applied is the net change to the territory's control value.
func (c Change) Applied() int {
	return c.New - c.Old
}

// Result lists the changes a resolved battle made, in application order.
type Result struct {
	Changes []Change `json:"changes"`
}

// Resolver applies battle outcomes to a Store.
type Resolver struct {
	Now func() time.Time
}

// NewResolver returns a Resolver stamping changes with the UTC wall clock.
func NewResolver() Resolver {
	return Resolver{Now: func() time.Time { return time.Now().UTC() }}
}

func (r Resolver) now() time.Time {
	if r.Now == nil {
		return time.Now().UTC()
	}
	return r.Now()
}

// CheckPlacement loads the battle location and verifies it matches the
// category's placement. Nothing is written.
func CheckPlacement(ctx context.Context, st Store, o Outcome) (world.Territory, error) {
	loc, ok, err := st.Territory(ctx, o.LocationID)
	if err != nil {
		return world.Territory{}, fmt.Errorf("load location %d: %w", o.LocationID, err)
	}
	if !ok {
		return world.Territory{}, apperr.WithMetadata(apperr.CodeTerritoryNotFound, "invalid location territory",
			map[string]string{"territory_id": strconv.FormatInt(o.LocationID, 10)})
	}
	if o.Category.IsVoid() && loc.IsPlanet {
		return loc, apperr.WithMetadata(apperr.CodeInvalidPlacement,
			o.Category.Label()+" battles must be logged in a void tile", map[string]string{"territory": loc.Name})
	}
	if !o.Category.IsVoid() && !loc.IsPlanet {
		return loc, apperr.WithMetadata(apperr.CodeInvalidPlacement,
			"planetary battles must be logged on a planet", map[string]string{"territory": loc.Name})
	}
	return loc, nil
}

// CheckTargets verifies the optional splash/pressure target: it must be
// adjacent to the location, void for planetary battles and a planet for
// void battles, and only the field matching the category may be set.
func CheckTargets(ctx context.Context, st Store, o Outcome) error {
	if o.Category.IsVoid() && o.SplashID != nil {
		return apperr.New(apperr.CodeInvalidTarget, "void battles take a pressure target, not a splash target")
	}
	if !o.Category.IsVoid() && o.PressureID != nil {
		return apperr.New(apperr.CodeInvalidTarget, "planetary battles take a splash target, not a pressure target")
	}
	target := o.Secondary()
	if target == nil {
		return nil
	}
	loc, ok, err := st.Territory(ctx, o.LocationID)
	if err != nil {
		return fmt.Errorf("load location %d: %w", o.LocationID, err)
	}
	t, tok, err := st.Territory(ctx, *target)
	if err != nil {
		return fmt.Errorf("load target %d: %w", *target, err)
	}
	if !ok || !tok || !world.Adjacent(loc.Coord, t.Coord) {
		return apperr.WithMetadata(apperr.CodeInvalidTarget, "secondary target must be adjacent to the battle location",
			map[string]string{"territory_id": strconv.FormatInt(*target, 10)})
	}
	if o.Category.IsVoid() && !t.IsPlanet {
		return apperr.New(apperr.CodeInvalidTarget, "pressure target must be a planet")
	}
	if !o.Category.IsVoid() && t.IsPlanet {
		return apperr.New(apperr.CodeInvalidTarget, "splash target must be a void tile")
	}
	return nil
}

// Deltas returns the signed (territory, delta) pairs a battle produces
// before adjacency modifiers. A draw produces none.
func Deltas(o Outcome) []Delta {
	sign := o.Winner.Sign()
	if sign == 0 {
		return nil
	}
	out := []Delta{{TerritoryID: o.LocationID, Amount: Impact(o.Category.BaseImpact(), o.Crushing) * sign}}
	if target := o.Secondary(); target != nil {
		out = append(out, Delta{TerritoryID: *target, Amount: sign})
	}
	return out
}

// Delta is a signed control change aimed at one territory.
type Delta struct {
	TerritoryID int64
	Amount      int
}

// Resolve validates the battle placement and applies its deltas in order.
// An invalid placement returns before anything is written.
func (r Resolver) Resolve(ctx context.Context, st Store, o Outcome) (Result, error) {
	if _, err := CheckPlacement(ctx, st, o); err != nil {
		return Result{}, err
	}

	var res Result
	for _, d := range Deltas(o) {
		ch, applied, err := r.ApplyDelta(ctx, st, d.TerritoryID, d.Amount)
		if err != nil {
			return res, err
		}
		if applied {
			res.Changes = append(res.Changes, ch)
		}
	}
	return res, nil
}

// ApplyDelta moves one territory's control value by delta.
//
// A Secure planet attacked by a side holding none of its adjacent void
// tiles takes one less point (minimum 1). A planet that would become
// Secure while the opposing side holds two or more adjacent void tiles is
// capped at 5. Void tiles are subject to neither rule. A zero delta or an
// unknown territory is a no-op and reports applied=false.
func (r Resolver) ApplyDelta(ctx context.Context, st Store, id int64, delta int) (Change, bool, error) {
	if delta == 0 {
		return Change{}, false, nil
	}
	t, ok, err := st.Territory(ctx, id)
	if err != nil {
		return Change{}, false, fmt.Errorf("load territory %d: %w", id, err)
	}
	if !ok {
		return Change{}, false, nil
	}

	ch := Change{TerritoryID: id, Requested: delta, Old: t.CP}
	adjusted := delta

	if t.IsPlanet && abs(t.CP) == SecureCP {
		attacker := sign(delta)
		if attacker != sign(t.CP) {
			held, err := countControlledVoid(ctx, st, t.Coord, attacker)
			if err != nil {
				return Change{}, false, err
			}
			if held == 0 {
				adjusted = max(1, abs(delta)-1) * attacker
				ch.Siege = adjusted != delta
			}
		}
	}

	next := Clamp(t.CP + adjusted)

	if t.IsPlanet && abs(next) == SecureCP {
		owner := sign(next)
		hostile, err := countControlledVoid(ctx, st, t.Coord, -owner)
		if err != nil {
			return Change{}, false, err
		}
		if hostile >= 2 {
			next = (SecureCP - 1) * owner
			ch.Blockade = true
		}
	}

	ch.New = next
	if err := st.SetControl(ctx, id, next, r.now()); err != nil {
		return Change{}, false, fmt.Errorf("set control %d: %w", id, err)
	}
	return ch, true, nil
}

// countControlledVoid counts the void tiles around coord held by the side with the given sign.
func countControlledVoid(ctx context.Context, st Store, coord world.HexCoord, side int) (int, error) {
	n := 0
	for _, nc := range coord.Neighbors() {
		nt, ok, err := st.TerritoryAt(ctx, nc)
		if err != nil {
			return 0, fmt.Errorf("load neighbor %s: %w", nc, err)
		}
		if !ok || nt.IsPlanet {
			continue
		}
		if IsControlled(nt.CP) && sign(nt.CP) == side {
			n++
		}
	}
	return n, nil
}

// Clamp bounds a control value to [MinCP, MaxCP].
func Clamp(cp int) int {
	return min(MaxCP, max(MinCP, cp))
}

func sign(x int) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
