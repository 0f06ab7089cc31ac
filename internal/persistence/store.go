package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/talgya/ashes-void/internal/campaign"
	"github.com/talgya/ashes-void/internal/control"
	"github.com/talgya/ashes-void/internal/world"
)

// store holds the queries shared by DB (autocommit) and Tx.
type store struct {
	q sqlx.ExtContext
}

func (s store) get(ctx context.Context, dest any, query string, args ...any) error {
	return sqlx.GetContext(ctx, s.q, dest, s.q.Rebind(query), args...)
}

func (s store) selectAll(ctx context.Context, dest any, query string, args ...any) error {
	return sqlx.SelectContext(ctx, s.q, dest, s.q.Rebind(query), args...)
}

func (s store) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := s.q.ExecContext(ctx, s.q.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// insert runs an INSERT ... RETURNING id.
func (s store) insert(ctx context.Context, query string, args ...any) (int64, error) {
	var id int64
	if err := s.q.QueryRowxContext(ctx, s.q.Rebind(query+" RETURNING id"), args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// --- territories ---

type territoryRow struct {
	ID        int64  `db:"id"`
	Q         int    `db:"q"`
	R         int    `db:"r"`
	Name      string `db:"name"`
	IsPlanet  int    `db:"is_planet"`
	CP        int    `db:"cp"`
	UpdatedAt string `db:"updated_at"`
}

const territoryCols = "id, q, r, name, is_planet, cp, updated_at"

func (r territoryRow) territory() world.Territory {
	return world.Territory{
		ID:        r.ID,
		Coord:     world.HexCoord{Q: r.Q, R: r.R},
		Name:      r.Name,
		IsPlanet:  r.IsPlanet != 0,
		CP:        r.CP,
		UpdatedAt: parseTime(r.UpdatedAt),
	}
}

// Territory loads one territory by id.
func (s store) Territory(ctx context.Context, id int64) (world.Territory, bool, error) {
	var row territoryRow
	err := s.get(ctx, &row, "SELECT "+territoryCols+" FROM territories WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return world.Territory{}, false, nil
	}
	if err != nil {
		return world.Territory{}, false, err
	}
	return row.territory(), true, nil
}

// TerritoryAt loads the territory at a coordinate.
func (s store) TerritoryAt(ctx context.Context, c world.HexCoord) (world.Territory, bool, error) {
	var row territoryRow
	err := s.get(ctx, &row, "SELECT "+territoryCols+" FROM territories WHERE q = ? AND r = ?", c.Q, c.R)
	if errors.Is(err, sql.ErrNoRows) {
		return world.Territory{}, false, nil
	}
	if err != nil {
		return world.Territory{}, false, err
	}
	return row.territory(), true, nil
}

// SetControl writes a territory's control value. Unknown ids are ignored.
func (s store) SetControl(ctx context.Context, id int64, cp int, at time.Time) error {
	_, err := s.exec(ctx, "UPDATE territories SET cp = ?, updated_at = ? WHERE id = ?", cp, formatTime(at), id)
	return err
}

// ListTerritories returns every territory in id order.
func (s store) ListTerritories(ctx context.Context) ([]world.Territory, error) {
	var rows []territoryRow
	if err := s.selectAll(ctx, &rows, "SELECT "+territoryCols+" FROM territories ORDER BY id"); err != nil {
		return nil, err
	}
	out := make([]world.Territory, len(rows))
	for i, r := range rows {
		out[i] = r.territory()
	}
	return out, nil
}

// CountTerritories returns the number of seeded territories.
func (s store) CountTerritories(ctx context.Context) (int, error) {
	var n int
	err := s.get(ctx, &n, "SELECT COUNT(*) FROM territories")
	return n, err
}

// ResetControl sets every territory's control value to 0.
func (s store) ResetControl(ctx context.Context, at time.Time) error {
	_, err := s.exec(ctx, "UPDATE territories SET cp = 0, updated_at = ?", formatTime(at))
	return err
}

// SeedTerritories inserts territories with their ids.
func (s store) SeedTerritories(ctx context.Context, ts []world.Territory) error {
	for _, t := range ts {
		_, err := s.exec(ctx, "INSERT INTO territories ("+territoryCols+") VALUES (?, ?, ?, ?, ?, ?, ?)",
			t.ID, t.Coord.Q, t.Coord.R, t.Name, boolInt(t.IsPlanet), t.CP, formatTime(t.UpdatedAt))
		if err != nil {
			return fmt.Errorf("insert territory %d: %w", t.ID, err)
		}
	}
	return nil
}

// --- battles ---

type battleRow struct {
	ID          int64         `db:"id"`
	CampaignID  int64         `db:"campaign_id"`
	CreatedAt   string        `db:"created_at"`
	CreatedByID int64         `db:"created_by_user_id"`
	CreatedBy   string        `db:"created_by_email"`
	BattleType  string        `db:"battle_type"`
	LocationID  int64         `db:"location_id"`
	WinningSide string        `db:"winning_side"`
	IsCrushing  int           `db:"is_crushing"`
	SplashID    sql.NullInt64 `db:"splash_id"`
	PressureID  sql.NullInt64 `db:"pressure_id"`
	Notes       string        `db:"notes"`
	Status      string        `db:"status"`
}

const battleCols = "id, campaign_id, created_at, created_by_user_id, created_by_email, battle_type, location_id, winning_side, is_crushing, splash_id, pressure_id, notes, status"

func (r battleRow) battle() (campaign.Battle, error) {
	cat, err := control.ParseCategory(r.BattleType)
	if err != nil {
		return campaign.Battle{}, fmt.Errorf("battle %d: %w", r.ID, err)
	}
	side, err := control.ParseSide(r.WinningSide)
	if err != nil {
		return campaign.Battle{}, fmt.Errorf("battle %d: %w", r.ID, err)
	}
	return campaign.Battle{
		ID:         r.ID,
		CampaignID: r.CampaignID,
		CreatedAt:  parseTime(r.CreatedAt),
		CreatedBy:  campaign.Author{UserID: r.CreatedByID, Email: r.CreatedBy},
		Category:   cat,
		LocationID: r.LocationID,
		Winner:     side,
		Crushing:   r.IsCrushing != 0,
		SplashID:   nullID(r.SplashID),
		PressureID: nullID(r.PressureID),
		Notes:      r.Notes,
		Status:     campaign.BattleStatus(r.Status),
	}, nil
}

func battles(rows []battleRow) ([]campaign.Battle, error) {
	out := make([]campaign.Battle, 0, len(rows))
	for _, r := range rows {
		b, err := r.battle()
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// ListApprovedBattles returns the campaign's approved battles in ascending id order.
func (s store) ListApprovedBattles(ctx context.Context, campaignID int64) ([]campaign.Battle, error) {
	var rows []battleRow
	err := s.selectAll(ctx, &rows, "SELECT "+battleCols+" FROM battles WHERE campaign_id = ? AND status = ? ORDER BY id ASC",
		campaignID, string(campaign.BattleApproved))
	if err != nil {
		return nil, err
	}
	return battles(rows)
}

// RecentBattles returns up to limit battles of the campaign, newest first.
func (s store) RecentBattles(ctx context.Context, campaignID int64, limit int) ([]campaign.Battle, error) {
	var rows []battleRow
	err := s.selectAll(ctx, &rows, "SELECT "+battleCols+" FROM battles WHERE campaign_id = ? ORDER BY id DESC LIMIT ?",
		campaignID, limit)
	if err != nil {
		return nil, err
	}
	return battles(rows)
}

// AppendBattle inserts a battle and returns its id.
func (s store) AppendBattle(ctx context.Context, b *campaign.Battle) (int64, error) {
	id, err := s.insert(ctx, `INSERT INTO battles
		(campaign_id, created_at, created_by_user_id, created_by_email, battle_type, location_id,
		 winning_side, is_crushing, splash_id, pressure_id, notes, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.CampaignID, formatTime(b.CreatedAt), b.CreatedBy.UserID, b.CreatedBy.Email, b.Category.Key(), b.LocationID,
		b.Winner.String(), boolInt(b.Crushing), idArg(b.SplashID), idArg(b.PressureID), b.Notes, string(b.Status))
	if err != nil {
		return 0, err
	}
	b.ID = id
	return id, nil
}

// BattlesByID loads the requested battles that belong to the campaign.
func (s store) BattlesByID(ctx context.Context, campaignID int64, ids []int64) ([]campaign.Battle, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In("SELECT "+battleCols+" FROM battles WHERE campaign_id = ? AND id IN (?) ORDER BY id", campaignID, ids)
	if err != nil {
		return nil, err
	}
	var rows []battleRow
	if err := s.selectAll(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return battles(rows)
}

// DeleteBattles removes the given battles of the campaign.
func (s store) DeleteBattles(ctx context.Context, campaignID int64, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In("DELETE FROM battles WHERE campaign_id = ? AND id IN (?)", campaignID, ids)
	if err != nil {
		return 0, err
	}
	return s.exec(ctx, query, args...)
}

// --- seasons ---

type seasonRow struct {
	ID            int64          `db:"id"`
	Name          string         `db:"name"`
	StartDate     string         `db:"start_date"`
	EndDate       string         `db:"end_date"`
	Status        string         `db:"status"`
	CreatedAt     string         `db:"created_at"`
	ConcludedAt   sql.NullString `db:"concluded_at"`
	FinalLoyalist sql.NullInt64  `db:"final_loyalist"`
	FinalTraitor  sql.NullInt64  `db:"final_traitor"`
	FinalLead     sql.NullInt64  `db:"final_lead"`
}

const seasonCols = "id, name, start_date, end_date, status, created_at, concluded_at, final_loyalist, final_traitor, final_lead"

func (r seasonRow) season() campaign.Season {
	s := campaign.Season{
		ID:        r.ID,
		Name:      r.Name,
		StartDate: parseDate(r.StartDate),
		EndDate:   parseDate(r.EndDate),
		Status:    campaign.SeasonStatus(r.Status),
		CreatedAt: parseTime(r.CreatedAt),
	}
	if r.ConcludedAt.Valid {
		at := parseTime(r.ConcludedAt.String)
		s.ConcludedAt = &at
	}
	if r.FinalLoyalist.Valid {
		s.Final = &control.Tally{
			Loyalist: int(r.FinalLoyalist.Int64),
			Traitor:  int(r.FinalTraitor.Int64),
			Lead:     int(r.FinalLead.Int64),
		}
	}
	return s
}

// ActiveSeason returns the most recent active season.
func (s store) ActiveSeason(ctx context.Context) (campaign.Season, bool, error) {
	var row seasonRow
	err := s.get(ctx, &row, "SELECT "+seasonCols+" FROM campaigns WHERE status = ? ORDER BY id DESC LIMIT 1",
		string(campaign.SeasonActive))
	if errors.Is(err, sql.ErrNoRows) {
		return campaign.Season{}, false, nil
	}
	if err != nil {
		return campaign.Season{}, false, err
	}
	return row.season(), true, nil
}

// ListSeasons returns every season, newest first.
func (s store) ListSeasons(ctx context.Context) ([]campaign.Season, error) {
	var rows []seasonRow
	if err := s.selectAll(ctx, &rows, "SELECT "+seasonCols+" FROM campaigns ORDER BY id DESC"); err != nil {
		return nil, err
	}
	out := make([]campaign.Season, len(rows))
	for i, r := range rows {
		out[i] = r.season()
	}
	return out, nil
}

// InsertSeason creates a season and returns its id.
func (s store) InsertSeason(ctx context.Context, season *campaign.Season) (int64, error) {
	id, err := s.insert(ctx, "INSERT INTO campaigns (name, start_date, end_date, status, created_at) VALUES (?, ?, ?, ?, ?)",
		season.Name, season.StartDate.Format(campaign.DateLayout), season.EndDate.Format(campaign.DateLayout),
		string(season.Status), formatTime(season.CreatedAt))
	if err != nil {
		return 0, err
	}
	season.ID = id
	return id, nil
}

// ConcludeSeason marks a season ended with its frozen final score.
func (s store) ConcludeSeason(ctx context.Context, id int64, at time.Time, final control.Tally) error {
	_, err := s.exec(ctx, `UPDATE campaigns
		SET status = ?, concluded_at = ?, final_loyalist = ?, final_traitor = ?, final_lead = ?
		WHERE id = ?`,
		string(campaign.SeasonEnded), formatTime(at), final.Loyalist, final.Traitor, final.Lead, id)
	return err
}

// ArchiveEnded moves ended seasons to archived.
func (s store) ArchiveEnded(ctx context.Context) (int64, error) {
	return s.exec(ctx, "UPDATE campaigns SET status = ? WHERE status = ?",
		string(campaign.SeasonArchived), string(campaign.SeasonEnded))
}

// --- encoding helpers ---

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseDate(s string) time.Time {
	t, err := campaign.ParseDate(s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func idArg(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

func nullID(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}
