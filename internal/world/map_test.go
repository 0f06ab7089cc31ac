package world

import (
	"context"
	"testing"
	"time"
)

func TestDefaultLayout(t *testing.T) {
	m := DefaultLayout(DefaultRadius)

	if m.Count() != 61 {
		t.Fatalf("Count() = %d, want 61", m.Count())
	}
	planets, voids := KindCounts(m)
	if planets != 6 || voids != 55 {
		t.Fatalf("planets=%d voids=%d, want 6 and 55", planets, voids)
	}

	terra := m.Get(HexCoord{})
	if terra == nil || terra.Name != "Terra (Anchor)" || !terra.IsPlanet {
		t.Fatalf("origin tile = %+v, want Terra (Anchor) planet", terra)
	}
	void := m.Get(HexCoord{Q: 1, R: 0})
	if void == nil || void.IsPlanet || void.Name != "Void 1,0" {
		t.Fatalf("tile 1,0 = %+v, want void", void)
	}
	for _, tile := range m.Territories() {
		if tile.CP != 0 {
			t.Fatalf("tile %s seeded with cp %d", tile.Name, tile.CP)
		}
	}
}

func TestMapIDsFollowSeedOrder(t *testing.T) {
	m := DefaultLayout(1)
	for i, c := range Disc(1) {
		tile := m.Get(c)
		if tile.ID != int64(i+1) {
			t.Fatalf("tile %v id = %d, want %d", c, tile.ID, i+1)
		}
		if m.ByID(tile.ID) != tile {
			t.Fatalf("ByID(%d) mismatch", tile.ID)
		}
	}
}

func TestMapStoreOperations(t *testing.T) {
	ctx := context.Background()
	m := DefaultLayout(2)
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	terra := m.Get(HexCoord{})
	if err := m.SetControl(ctx, terra.ID, 4, at); err != nil {
		t.Fatalf("SetControl: %v", err)
	}
	got, ok, err := m.Territory(ctx, terra.ID)
	if err != nil || !ok {
		t.Fatalf("Territory: ok=%v err=%v", ok, err)
	}
	if got.CP != 4 || !got.UpdatedAt.Equal(at) {
		t.Fatalf("Territory = %+v, want cp 4 at %v", got, at)
	}

	if _, ok, _ := m.Territory(ctx, 9999); ok {
		t.Fatal("expected unknown id to be missing")
	}
	if err := m.SetControl(ctx, 9999, 3, at); err != nil {
		t.Fatalf("SetControl on unknown id should be a no-op, got %v", err)
	}

	clone := m.Clone()
	if err := m.ResetControl(ctx, at); err != nil {
		t.Fatalf("ResetControl: %v", err)
	}
	if m.Get(HexCoord{}).CP != 0 {
		t.Fatal("expected reset to neutral")
	}
	if clone.Get(HexCoord{}).CP != 4 {
		t.Fatal("clone should not share tiles with the original")
	}
}

func TestAddIgnoresDuplicateCoordinate(t *testing.T) {
	m := NewMap(1)
	first := m.Add(Territory{Coord: HexCoord{}, Name: "A"})
	second := m.Add(Territory{Coord: HexCoord{}, Name: "B"})
	if first != second || m.Count() != 1 || m.Get(HexCoord{}).Name != "A" {
		t.Fatalf("duplicate coordinate replaced tile: %+v", m.Territories())
	}
}

func TestRadiusOf(t *testing.T) {
	m := DefaultLayout(3)
	if got := RadiusOf(m.Territories()); got != 3 {
		t.Errorf("RadiusOf = %d, want 3", got)
	}
	if got := RadiusOf(nil); got != 0 {
		t.Errorf("RadiusOf(nil) = %d, want 0", got)
	}
}
