package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/talgya/ashes-void/internal/apperr"
	"github.com/talgya/ashes-void/internal/auth"
	"github.com/talgya/ashes-void/internal/campaign"
)

type battleEntry struct {
	campaign.Battle
	CanDelete bool `json:"can_delete"`
}

// campaignID returns the explicit id when given, else the latest season's.
// Read paths use it so an ended season's log stays visible.
func (s *Server) campaignID(r *http.Request, explicit int64) (int64, error) {
	return s.pickCampaign(r, explicit, s.Service.Latest)
}

// activeCampaignID is campaignID for writes: the default is the active
// season, and there is none once a season has ended.
func (s *Server) activeCampaignID(r *http.Request, explicit int64) (int64, error) {
	return s.pickCampaign(r, explicit, s.Service.Current)
}

func (s *Server) pickCampaign(r *http.Request, explicit int64, fallback func(context.Context) (campaign.Season, error)) (int64, error) {
	if explicit > 0 {
		return explicit, nil
	}
	if v := r.URL.Query().Get("campaign"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return 0, apperr.New(apperr.CodeInvalidArgument, "invalid campaign id")
		}
		return id, nil
	}
	season, err := fallback(r.Context())
	if err != nil {
		return 0, err
	}
	return season.ID, nil
}

func (s *Server) handleBattles(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListBattles(w, r)
	case http.MethodPost:
		s.authenticated(s.handleSubmitBattle)(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeJSONStatus(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (s *Server) handleListBattles(w http.ResponseWriter, r *http.Request) {
	id, err := s.campaignID(r, 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, r, apperr.New(apperr.CodeInvalidArgument, "limit must be a positive integer"))
			return
		}
		limit = n
	}

	battles, err := s.Service.Recent(r.Context(), id, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, perr := s.principal(r)
	entries := make([]battleEntry, 0, len(battles))
	for _, b := range battles {
		entries = append(entries, battleEntry{Battle: b, CanDelete: perr == nil && s.Service.CanDelete(p, b)})
	}
	writeJSON(w, map[string]any{
		"campaign_id": id,
		"battles":     entries,
	})
}

func (s *Server) handleSubmitBattle(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	var in campaign.BattleInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.Service.Submit(r.Context(), p, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, map[string]any{
		"battle":       res.Battle,
		"changes":      res.Changes,
		"score_before": res.Before,
		"score_after":  res.After,
		"score_delta":  res.Delta(),
	})
}

func (s *Server) handleDeleteBattles(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	var req struct {
		CampaignID int64   `json:"campaign_id"`
		IDs        []int64 `json:"ids"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	id, err := s.activeCampaignID(r, req.CampaignID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.Service.Delete(r.Context(), p, id, req.IDs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, res)
}

func (s *Server) handleRecalculate(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	var req struct {
		CampaignID int64 `json:"campaign_id"`
	}
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
	}
	id, err := s.activeCampaignID(r, req.CampaignID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	n, err := s.Service.Recalculate(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	score, err := s.Service.Score(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{
		"campaign_id": id,
		"replayed":    n,
		"score":       score,
		"by":          p.Email,
	})
}

func (s *Server) handleSeasons(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		seasons, err := s.Service.Seasons(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, map[string]any{"seasons": seasons})
	case http.MethodPost:
		s.adminOnly(s.handleStartSeason)(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeJSONStatus(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (s *Server) handleStartSeason(w http.ResponseWriter, r *http.Request, _ auth.Principal) {
	var req campaign.SeasonRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	season, err := s.Service.StartSeason(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, map[string]any{
		"season": season,
		"banner": campaign.Banner(season, s.Service.Clock()),
	})
}
