package campaign

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/talgya/ashes-void/internal/apperr"
	"github.com/talgya/ashes-void/internal/control"
	"github.com/talgya/ashes-void/internal/world"
)

// FirstSeasonName names the season created on an empty database.
const FirstSeasonName = "Campaign Season 1"

// DefaultSeasonLength is the span of the first season when none is configured.
const DefaultSeasonLength = 90 * 24 * time.Hour

// Bootstrap describes the initial state of a fresh database.
type Bootstrap struct {
	Map          *world.Map
	SeasonName   string
	SeasonStart  time.Time
	SeasonLength time.Duration
}

// EnsureBootstrap seeds the map if no territories exist and creates the
// first active season if no season has ever been created. It is safe to
// call on every start.
func (s *Service) EnsureBootstrap(ctx context.Context, b Bootstrap) error {
	return s.Repo.InTx(ctx, func(tx Tx) error {
		n, err := tx.CountTerritories(ctx)
		if err != nil {
			return fmt.Errorf("count territories: %w", err)
		}
		if n == 0 && b.Map != nil {
			if err := tx.SeedTerritories(ctx, b.Map.Territories()); err != nil {
				return fmt.Errorf("seed territories: %w", err)
			}
			slog.Info("seeded map", "territories", b.Map.Count(), "radius", b.Map.Radius)
		}

		seasons, err := tx.ListSeasons(ctx)
		if err != nil {
			return fmt.Errorf("list seasons: %w", err)
		}
		if len(seasons) > 0 {
			return nil
		}
		name := b.SeasonName
		if name == "" {
			name = FirstSeasonName
		}
		start := b.SeasonStart
		if start.IsZero() {
			start = s.now()
		}
		length := b.SeasonLength
		if length <= 0 {
			length = DefaultSeasonLength
		}
		season := Season{
			Name:      name,
			StartDate: civilDate(start),
			EndDate:   civilDate(start.Add(length)),
			Status:    SeasonActive,
			CreatedAt: s.now(),
		}
		if _, err := tx.InsertSeason(ctx, &season); err != nil {
			return fmt.Errorf("insert season: %w", err)
		}
		slog.Info("created first season", "name", name,
			"start", season.StartDate.Format(DateLayout), "end", season.EndDate.Format(DateLayout))
		return nil
	})
}

// Current returns the active season, or ErrNoActiveSeason.
func (s *Service) Current(ctx context.Context) (Season, error) {
	season, ok, err := s.Repo.ActiveSeason(ctx)
	if err != nil {
		return Season{}, fmt.Errorf("load active season: %w", err)
	}
	if !ok {
		return Season{}, ErrNoActiveSeason
	}
	return season, nil
}

// Latest returns the active season or, failing that, the most recently
// created one. Read paths use it so an ended season still shows its result.
func (s *Service) Latest(ctx context.Context) (Season, error) {
	season, ok, err := s.Repo.ActiveSeason(ctx)
	if err != nil {
		return Season{}, fmt.Errorf("load active season: %w", err)
	}
	if ok {
		return season, nil
	}
	seasons, err := s.Repo.ListSeasons(ctx)
	if err != nil {
		return Season{}, fmt.Errorf("list seasons: %w", err)
	}
	if len(seasons) == 0 {
		return Season{}, ErrNoActiveSeason
	}
	return seasons[0], nil
}

// Seasons lists every season, newest first.
func (s *Service) Seasons(ctx context.Context) ([]Season, error) {
	seasons, err := s.Repo.ListSeasons(ctx)
	if err != nil {
		return nil, fmt.Errorf("list seasons: %w", err)
	}
	return seasons, nil
}

// Conclude ends the active season once its end date has passed, freezing
// the current score as its final result. It reports whether a season was
// concluded.
func (s *Service) Conclude(ctx context.Context) (bool, error) {
	now := s.now()
	var concluded Season
	var final control.Tally
	err := s.Repo.InTx(ctx, func(tx Tx) error {
		season, ok, err := tx.ActiveSeason(ctx)
		if err != nil {
			return fmt.Errorf("load active season: %w", err)
		}
		if !ok || !season.PastEnd(now) {
			return nil
		}
		if final, err = s.conclude(ctx, tx, season, now); err != nil {
			return err
		}
		concluded = season
		return nil
	})
	if err != nil {
		return false, err
	}
	if concluded.ID == 0 {
		return false, nil
	}
	slog.Info("season concluded", "campaign", concluded.ID, "name", concluded.Name,
		"loyalist", final.Loyalist, "traitor", final.Traitor, "lead", final.Lead)
	return true, nil
}

func (s *Service) conclude(ctx context.Context, tx Tx, season Season, now time.Time) (control.Tally, error) {
	ts, err := tx.ListTerritories(ctx)
	if err != nil {
		return control.Tally{}, fmt.Errorf("list territories: %w", err)
	}
	final := control.Score(ts)
	if err := tx.ConcludeSeason(ctx, season.ID, now, final); err != nil {
		return control.Tally{}, fmt.Errorf("conclude season %d: %w", season.ID, err)
	}
	return final, nil
}

// SeasonRequest is an administrator's request to start a new season.
type SeasonRequest struct {
	Name  string `json:"name"`
	Start string `json:"start_date"`
	End   string `json:"end_date"`
	// Force concludes a season that is still running instead of refusing.
	Force bool `json:"force"`
}

// StartSeason archives ended seasons, starts a new active season and
// resets every territory to 0, all in one transaction. The battle log is
// kept; the new season starts an empty partition of it.
func (s *Service) StartSeason(ctx context.Context, req SeasonRequest) (Season, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return Season{}, apperr.New(apperr.CodeInvalidArgument, "season name is required")
	}
	start, err := ParseDate(req.Start)
	if err != nil {
		return Season{}, apperr.Wrap(apperr.CodeInvalidArgument, "start date must be YYYY-MM-DD", err)
	}
	end, err := ParseDate(req.End)
	if err != nil {
		return Season{}, apperr.Wrap(apperr.CodeInvalidArgument, "end date must be YYYY-MM-DD", err)
	}
	if end.Before(start) {
		return Season{}, ErrInvalidSpan
	}

	now := s.now()
	season := Season{Name: name, StartDate: start, EndDate: end, Status: SeasonActive, CreatedAt: now}
	err = s.Repo.InTx(ctx, func(tx Tx) error {
		current, ok, err := tx.ActiveSeason(ctx)
		if err != nil {
			return fmt.Errorf("load active season: %w", err)
		}
		if ok {
			if !current.PastEnd(now) && !req.Force {
				return ErrSeasonStillActive
			}
			if _, err := s.conclude(ctx, tx, current, now); err != nil {
				return err
			}
		}
		if _, err := tx.ArchiveEnded(ctx); err != nil {
			return fmt.Errorf("archive seasons: %w", err)
		}
		id, err := tx.InsertSeason(ctx, &season)
		if err != nil {
			return fmt.Errorf("insert season: %w", err)
		}
		season.ID = id
		if err := tx.ResetControl(ctx, now); err != nil {
			return fmt.Errorf("reset control: %w", err)
		}
		return nil
	})
	if err != nil {
		return Season{}, err
	}
	slog.Info("season started", "campaign", season.ID, "name", season.Name,
		"start", req.Start, "end", req.End)
	return season, nil
}
