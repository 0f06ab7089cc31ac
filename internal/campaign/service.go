package campaign

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/talgya/ashes-void/internal/apperr"
	"github.com/talgya/ashes-void/internal/auth"
	"github.com/talgya/ashes-void/internal/control"
	"github.com/talgya/ashes-void/internal/world"
)

// MaxNotes bounds the free-text notes stored with a battle.
const MaxNotes = 2000

// Service runs battle submission, deletion, replay, and the season
// lifecycle against a Repository.
type Service struct {
	Repo     Repository
	Resolver control.Resolver
	Admins   auth.AdminList
	Now      func() time.Time
}

// NewService returns a Service using the UTC wall clock.
func NewService(repo Repository, admins auth.AdminList) *Service {
	return &Service{Repo: repo, Admins: admins}
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

// Clock returns the service's current time in UTC.
func (s *Service) Clock() time.Time {
	return s.now()
}

func (s *Service) resolver() control.Resolver {
	r := s.Resolver
	if r.Now == nil {
		r.Now = s.now
	}
	return r
}

// Submit validates a battle and, in one transaction, appends it to the
// active season's log and applies it to the map. An invalid placement or
// target is rejected before anything is written. The season is read inside
// the transaction, so a battle always lands in the log of the season whose
// map it changes.
func (s *Service) Submit(ctx context.Context, actor auth.Principal, in BattleInput) (Processed, error) {
	if actor.Email == "" {
		return Processed{}, ErrUnauthenticated
	}
	if _, err := s.Conclude(ctx); err != nil {
		return Processed{}, err
	}

	b, err := s.newBattle(actor, in)
	if err != nil {
		return Processed{}, err
	}
	o := b.Outcome()
	if _, err := control.CheckPlacement(ctx, s.Repo, o); err != nil {
		return Processed{}, err
	}
	if err := control.CheckTargets(ctx, s.Repo, o); err != nil {
		return Processed{}, err
	}

	var out Processed
	err = s.Repo.InTx(ctx, func(tx Tx) error {
		season, err := s.openSeason(ctx, tx)
		if err != nil {
			return err
		}
		b.CampaignID = season.ID

		before, err := tx.ListTerritories(ctx)
		if err != nil {
			return fmt.Errorf("list territories: %w", err)
		}
		id, err := tx.AppendBattle(ctx, &b)
		if err != nil {
			return fmt.Errorf("append battle: %w", err)
		}
		b.ID = id
		res, err := s.resolver().Resolve(ctx, tx, o)
		if err != nil {
			return err
		}
		after, err := tx.ListTerritories(ctx)
		if err != nil {
			return fmt.Errorf("list territories: %w", err)
		}
		out = Processed{
			Battle:  b,
			Changes: res.Changes,
			Before:  control.Score(before),
			After:   control.Score(after),
		}
		return nil
	})
	if err != nil {
		return Processed{}, err
	}
	slog.Info("battle logged", "campaign", b.CampaignID, "battle", b.ID,
		"type", b.Category.Key(), "winner", b.Winner.String(), "changes", len(out.Changes))
	return out, nil
}

// openSeason returns the season whose log may be written, read through tx.
// A season past its end date is treated as ended even if it has not been
// concluded yet.
func (s *Service) openSeason(ctx context.Context, tx Reader) (Season, error) {
	season, ok, err := tx.ActiveSeason(ctx)
	if err != nil {
		return Season{}, fmt.Errorf("load active season: %w", err)
	}
	if ok {
		if season.PastEnd(s.now()) {
			return Season{}, ErrSeasonEnded
		}
		return season, nil
	}
	seasons, err := tx.ListSeasons(ctx)
	if err != nil {
		return Season{}, fmt.Errorf("list seasons: %w", err)
	}
	if len(seasons) > 0 && seasons[0].Status == SeasonEnded {
		return Season{}, ErrSeasonEnded
	}
	return Season{}, ErrNoActiveSeason
}

// currentLog checks that campaignID is the season whose log may be
// changed. Every season shares one map, so rewriting any other log would
// overwrite the active season's state.
func (s *Service) currentLog(ctx context.Context, tx Reader, campaignID int64) error {
	season, err := s.openSeason(ctx, tx)
	if err != nil {
		return err
	}
	if season.ID != campaignID {
		return apperr.WithMetadata(apperr.CodeSeasonNotCurrent, ErrNotCurrentSeason.Message, map[string]string{
			"campaign_id":        strconv.FormatInt(campaignID, 10),
			"active_campaign_id": strconv.FormatInt(season.ID, 10),
		})
	}
	return nil
}

func (s *Service) newBattle(actor auth.Principal, in BattleInput) (Battle, error) {
	cat, err := control.ParseCategory(in.BattleType)
	if err != nil {
		return Battle{}, err
	}
	side, err := control.ParseSide(in.WinningSide)
	if err != nil {
		return Battle{}, err
	}
	notes := strings.TrimSpace(in.Notes)
	if len(notes) > MaxNotes {
		return Battle{}, apperr.New(apperr.CodeInvalidArgument, fmt.Sprintf("notes must be at most %d characters", MaxNotes))
	}
	b := Battle{
		CreatedAt:  s.now(),
		CreatedBy:  Author{UserID: actor.UserID, Email: actor.Email},
		Category:   cat,
		LocationID: in.LocationID,
		Winner:     side,
		Crushing:   in.Crushing,
		SplashID:   in.SplashID,
		PressureID: in.PressureID,
		Notes:      notes,
		Status:     BattleApproved,
	}
	return b, nil
}

// Delete removes the battles the actor may delete, then replays the
// campaign in the same transaction. Only the active season's log may be
// changed. Ids the actor may not delete are reported as denied; if none
// may be deleted nothing changes and the call fails with
// ErrPermissionDenied.
func (s *Service) Delete(ctx context.Context, actor auth.Principal, campaignID int64, ids []int64) (DeleteResult, error) {
	if actor.Email == "" {
		return DeleteResult{}, ErrUnauthenticated
	}
	ids = dedupe(ids)
	if len(ids) == 0 {
		return DeleteResult{}, apperr.New(apperr.CodeInvalidArgument, "select at least one battle to delete")
	}
	if _, err := s.Conclude(ctx); err != nil {
		return DeleteResult{}, err
	}

	var res DeleteResult
	err := s.Repo.InTx(ctx, func(tx Tx) error {
		if err := s.currentLog(ctx, tx, campaignID); err != nil {
			return err
		}
		rows, err := tx.BattlesByID(ctx, campaignID, ids)
		if err != nil {
			return fmt.Errorf("load battles: %w", err)
		}
		owners := make(map[int64]string, len(rows))
		for _, b := range rows {
			owners[b.ID] = b.CreatedBy.Email
		}

		res = DeleteResult{}
		for _, id := range ids {
			owner, ok := owners[id]
			switch {
			case !ok:
				res.Missing = append(res.Missing, id)
			case auth.CanDeleteBattle(actor, owner, s.Admins):
				res.Deleted = append(res.Deleted, id)
			default:
				res.Denied = append(res.Denied, id)
			}
		}

		if len(res.Deleted) == 0 {
			if len(res.Denied) > 0 {
				return apperr.WithMetadata(apperr.CodePermissionDenied, ErrPermissionDenied.Message,
					map[string]string{"battle_ids": joinIDs(res.Denied)})
			}
			return apperr.WithMetadata(apperr.CodeNotFound, ErrBattleNotFound.Message,
				map[string]string{"battle_ids": joinIDs(res.Missing)})
		}

		if _, err := tx.DeleteBattles(ctx, campaignID, res.Deleted); err != nil {
			return fmt.Errorf("delete battles: %w", err)
		}
		res.Replay, err = s.replay(ctx, tx, campaignID)
		return err
	})
	if err != nil {
		return DeleteResult{}, err
	}
	slog.Info("battles deleted", "campaign", campaignID, "by", actor.Email,
		"deleted", len(res.Deleted), "denied", len(res.Denied), "replayed", res.Replay)
	return res, nil
}

// Recent lists the campaign's most recent battles, newest first.
func (s *Service) Recent(ctx context.Context, campaignID int64, limit int) ([]Battle, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	bs, err := s.Repo.RecentBattles(ctx, campaignID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent battles: %w", err)
	}
	return bs, nil
}

// Score returns the current score of the shared map.
func (s *Service) Score(ctx context.Context) (control.Tally, error) {
	ts, err := s.Repo.ListTerritories(ctx)
	if err != nil {
		return control.Tally{}, fmt.Errorf("list territories: %w", err)
	}
	return control.Score(ts), nil
}

// Map loads the committed territory set.
func (s *Service) Map(ctx context.Context) (*world.Map, error) {
	ts, err := s.Repo.ListTerritories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list territories: %w", err)
	}
	return world.FromTerritories(world.RadiusOf(ts), ts), nil
}

// CanDelete reports whether actor may delete b.
func (s *Service) CanDelete(actor auth.Principal, b Battle) bool {
	return auth.CanDeleteBattle(actor, b.CreatedBy.Email, s.Admins)
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func joinIDs(ids []int64) string {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	parts := make([]string, len(sorted))
	for i, id := range sorted {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}
