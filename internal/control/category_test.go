package control

import (
	"errors"
	"testing"
)

func TestImpact(t *testing.T) {
	tests := []struct {
		name     string
		base     int
		crushing bool
		want     int
	}{
		{"base 3 crushing rounds 4.5 to even", 3, true, 4},
		{"base 2 crushing", 2, true, 3},
		{"base 1 crushing rounds 1.5 to even", 1, true, 2},
		{"base 5 crushing rounds 7.5 to even", 5, true, 8},
		{"base 3", 3, false, 3},
		{"base 2", 2, false, 2},
		{"zero base", 0, true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Impact(tt.base, tt.crushing); got != tt.want {
				t.Fatalf("Impact(%d, %v) = %d, want %d", tt.base, tt.crushing, got, tt.want)
			}
		})
	}
}

func TestImpactNeverRoundsNonzeroBaseToZero(t *testing.T) {
	for base := 1; base <= 10; base++ {
		for _, crushing := range []bool{false, true} {
			if Impact(base, crushing) < 1 {
				t.Fatalf("Impact(%d, %v) < 1", base, crushing)
			}
		}
	}
}

func TestCategoryTable(t *testing.T) {
	tests := []struct {
		key       string
		base      int
		placement Placement
	}{
		{"heresy30k", 2, PlacementPlanet},
		{"legions_imperialis", 3, PlacementPlanet},
		{"adeptus_titanicus", 3, PlacementPlanet},
		{"gothic_armada", 2, PlacementVoid},
	}
	for _, tt := range tests {
		c, err := ParseCategory(tt.key)
		if err != nil {
			t.Fatalf("ParseCategory(%q): %v", tt.key, err)
		}
		if c.Key() != tt.key || c.BaseImpact() != tt.base || c.Placement() != tt.placement {
			t.Errorf("%s = {base %d, %s}, want {base %d, %s}", tt.key, c.BaseImpact(), c.Placement(), tt.base, tt.placement)
		}
	}
	if len(Categories()) != len(tests) {
		t.Fatalf("Categories() has %d entries, want %d", len(Categories()), len(tests))
	}
}

func TestParseCategoryUnknown(t *testing.T) {
	_, err := ParseCategory("necromunda")
	if !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
}

func TestParseSide(t *testing.T) {
	tests := []struct {
		in   string
		want Side
		sign int
	}{
		{"loyalist", Loyalist, 1},
		{" Traitor ", Traitor, -1},
		{"draw", Draw, 0},
	}
	for _, tt := range tests {
		got, err := ParseSide(tt.in)
		if err != nil {
			t.Fatalf("ParseSide(%q): %v", tt.in, err)
		}
		if got != tt.want || got.Sign() != tt.sign {
			t.Errorf("ParseSide(%q) = %v (sign %d), want %v (sign %d)", tt.in, got, got.Sign(), tt.want, tt.sign)
		}
	}
	if _, err := ParseSide("xenos"); err == nil {
		t.Fatal("expected error for unknown side")
	}
}

func TestTextRoundTripUsesKeys(t *testing.T) {
	b, _ := AdeptusTitanicus.MarshalText()
	if string(b) != "adeptus_titanicus" {
		t.Fatalf("MarshalText = %q", b)
	}
	var c Category
	if err := c.UnmarshalText([]byte("gothic_armada")); err != nil || c != GothicArmada {
		t.Fatalf("UnmarshalText = %v, %v", c, err)
	}
	var s Side
	if err := s.UnmarshalText([]byte("traitor")); err != nil || s != Traitor {
		t.Fatalf("UnmarshalText side = %v, %v", s, err)
	}
}
