package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/talgya/ashes-void/internal/apperr"
	"github.com/talgya/ashes-void/internal/campaign"
	"github.com/talgya/ashes-void/internal/control"
	"github.com/talgya/ashes-void/internal/world"
)

// hexEntry is a territory as the map renderer sees it.
type hexEntry struct {
	ID     int64              `json:"id"`
	Q      int                `json:"q"`
	R      int                `json:"r"`
	Name   string             `json:"name"`
	Kind   string             `json:"kind"`
	CP     int                `json:"cp"`
	Side   control.Allegiance `json:"side"`
	Status control.Status     `json:"status"`
	Points int                `json:"points"`
}

func newHexEntry(t world.Territory) hexEntry {
	return hexEntry{
		ID:     t.ID,
		Q:      t.Coord.Q,
		R:      t.Coord.R,
		Name:   t.Name,
		Kind:   t.Kind(),
		CP:     t.CP,
		Side:   control.SideFromCP(t.CP),
		Status: control.StatusFromCP(t.CP),
		Points: control.Points(t.IsPlanet, t.CP),
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	season, err := s.Service.Latest(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	m, err := s.Service.Map(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ts := m.Territories()
	score := control.Score(ts)
	planets, voids := world.KindCounts(m)

	held := 0
	for _, t := range ts {
		if control.IsControlled(t.CP) {
			held++
		}
	}

	status := map[string]any{
		"name":        "Ashes Across the Void",
		"season":      season,
		"banner":      campaign.Banner(season, s.Service.Clock()),
		"score":       score,
		"leader":      score.Leader(),
		"territories": len(ts),
		"planets":     planets,
		"void":        voids,
		"controlled":  held,
	}
	if s.Eng != nil {
		status["scheduler_tick"] = s.Eng.Tick()
	}
	writeJSON(w, status)
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	score, err := s.Service.Score(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{
		"loyalist": score.Loyalist,
		"traitor":  score.Traitor,
		"lead":     score.Lead,
		"leader":   score.Leader(),
	})
}

// handleMapRoutes dispatches between bulk map (GET /api/v1/map) and hex detail (GET /api/v1/map/:q/:r).
func (s *Server) handleMapRoutes(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/map")
	if path == "" || path == "/" {
		s.handleBulkMap(w, r)
		return
	}
	s.handleHexDetail(w, r)
}

// handleBulkMap returns all territories for the hex map renderer.
func (s *Server) handleBulkMap(w http.ResponseWriter, r *http.Request) {
	m, err := s.Service.Map(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	ts := m.Territories()
	hexes := make([]hexEntry, 0, len(ts))
	for _, t := range ts {
		hexes = append(hexes, newHexEntry(t))
	}
	writeJSON(w, map[string]any{
		"radius": m.Radius,
		"hexes":  hexes,
	})
}

func (s *Server) handleHexDetail(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	// api/v1/map/:q/:r → parts[0]="api" [1]="v1" [2]="map" [3]=q [4]=r
	if len(parts) != 5 {
		writeError(w, r, apperr.New(apperr.CodeInvalidArgument, "usage: /api/v1/map/:q/:r"))
		return
	}
	q, err1 := strconv.Atoi(parts[3])
	rr, err2 := strconv.Atoi(parts[4])
	if err1 != nil || err2 != nil {
		writeError(w, r, apperr.New(apperr.CodeInvalidArgument, "invalid coordinates"))
		return
	}

	m, err := s.Service.Map(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	coord := world.HexCoord{Q: q, R: rr}
	hex := m.Get(coord)
	if hex == nil {
		writeError(w, r, apperr.New(apperr.CodeTerritoryNotFound, "hex not found"))
		return
	}

	neighbors := make([]hexEntry, 0, 6)
	orbit := map[control.Allegiance]int{}
	for _, nc := range coord.Neighbors() {
		n := m.Get(nc)
		if n == nil {
			continue
		}
		neighbors = append(neighbors, newHexEntry(*n))
		if !n.IsPlanet && control.IsControlled(n.CP) {
			orbit[control.SideFromCP(n.CP)]++
		}
	}

	writeJSON(w, map[string]any{
		"hex":        newHexEntry(*hex),
		"updated_at": hex.UpdatedAt,
		"neighbors":  neighbors,
		// Controlled adjacent void tiles per side, which drive siege
		// resistance and the blockade cap on planets.
		"orbit": map[string]int{
			"loyalist": orbit[control.AllegianceLoyalist],
			"traitor":  orbit[control.AllegianceTraitor],
		},
	})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	type categoryEntry struct {
		Key         string `json:"key"`
		Label       string `json:"label"`
		Placement   string `json:"placement"`
		BaseImpact  int    `json:"base_impact"`
		CrushImpact int    `json:"crushing_impact"`
		Secondary   string `json:"secondary"`
	}
	cats := control.Categories()
	out := make([]categoryEntry, 0, len(cats))
	for _, c := range cats {
		secondary := "splash"
		if c.IsVoid() {
			secondary = "pressure"
		}
		out = append(out, categoryEntry{
			Key:         c.Key(),
			Label:       c.Label(),
			Placement:   c.Placement().String(),
			BaseImpact:  c.BaseImpact(),
			CrushImpact: control.Impact(c.BaseImpact(), true),
			Secondary:   secondary,
		})
	}
	writeJSON(w, map[string]any{
		"categories": out,
		"cp_range":   []int{control.MinCP, control.MaxCP},
		"held_at":    control.HeldCP,
		"secure_at":  control.SecureCP,
	})
}
