package world

import "testing"

func TestNeighborsAreTheSixAxialOffsets(t *testing.T) {
	got := HexCoord{Q: 2, R: -1}.Neighbors()
	want := [6]HexCoord{
		{Q: 3, R: -1}, {Q: 1, R: -1}, {Q: 2, R: 0},
		{Q: 2, R: -2}, {Q: 3, R: -2}, {Q: 1, R: 0},
	}
	if got != want {
		t.Fatalf("Neighbors() = %v, want %v", got, want)
	}
	for _, n := range got {
		if Distance(n, HexCoord{Q: 2, R: -1}) != 1 {
			t.Errorf("neighbor %v is not at distance 1", n)
		}
	}
}

func TestAdjacencyIsSymmetric(t *testing.T) {
	for _, c := range Disc(3) {
		for _, n := range c.Neighbors() {
			found := false
			for _, back := range n.Neighbors() {
				if back == c {
					found = true
				}
			}
			if !found {
				t.Fatalf("%v lists %v as neighbor but not the reverse", c, n)
			}
			if !Adjacent(c, n) || !Adjacent(n, c) {
				t.Fatalf("Adjacent(%v, %v) = false", c, n)
			}
		}
	}
}

func TestDistance(t *testing.T) {
	tests := []struct {
		a, b HexCoord
		want int
	}{
		{HexCoord{0, 0}, HexCoord{0, 0}, 0},
		{HexCoord{0, 0}, HexCoord{1, -1}, 1},
		{HexCoord{-3, 0}, HexCoord{0, -3}, 3},
		{HexCoord{-2, 1}, HexCoord{1, 2}, 4},
	}
	for _, tt := range tests {
		if got := Distance(tt.a, tt.b); got != tt.want {
			t.Errorf("Distance(%v, %v) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestDiscCount(t *testing.T) {
	// A disc of radius R holds 3R(R+1)+1 hexes.
	for r := 0; r <= 5; r++ {
		coords := Disc(r)
		if len(coords) != 3*r*(r+1)+1 {
			t.Errorf("len(Disc(%d)) = %d, want %d", r, len(coords), 3*r*(r+1)+1)
		}
		for _, c := range coords {
			if !InRadius(c, r) {
				t.Errorf("Disc(%d) contains %v outside radius", r, c)
			}
		}
	}
}
