// Package campaign owns the battle log, the replay driver that rebuilds
// territory control from it, and the season lifecycle around both.
package campaign

import (
	"time"

	"github.com/talgya/ashes-void/internal/control"
)

// BattleStatus is the moderation state of a logged battle.
type BattleStatus string

// Only approved battles are replayed.
const BattleApproved BattleStatus = "approved"

// Author identifies who logged a battle.
type Author struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
}

// Battle is one immutable entry of the battle log. IDs are assigned in
// creation order and define the replay order.
type Battle struct {
	ID         int64            `json:"id"`
	CampaignID int64            `json:"campaign_id"`
	CreatedAt  time.Time        `json:"created_at"`
	CreatedBy  Author           `json:"created_by"`
	Category   control.Category `json:"battle_type"`
	LocationID int64            `json:"location_id"`
	Winner     control.Side     `json:"winning_side"`
	Crushing   bool             `json:"is_crushing"`
	SplashID   *int64           `json:"splash_id,omitempty"`
	PressureID *int64           `json:"pressure_id,omitempty"`
	Notes      string           `json:"notes,omitempty"`
	Status     BattleStatus     `json:"status"`
}

// Outcome returns the fields the rules engine resolves.
func (b Battle) Outcome() control.Outcome {
	return control.Outcome{
		Category:   b.Category,
		LocationID: b.LocationID,
		Winner:     b.Winner,
		Crushing:   b.Crushing,
		SplashID:   b.SplashID,
		PressureID: b.PressureID,
	}
}

// BattleInput is a battle as submitted by a player.
type BattleInput struct {
	BattleType  string `json:"battle_type"`
	LocationID  int64  `json:"location_id"`
	WinningSide string `json:"winning_side"`
	Crushing    bool   `json:"is_crushing"`
	SplashID    *int64 `json:"splash_id,omitempty"`
	PressureID  *int64 `json:"pressure_id,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

// Processed is the result of a submission.
type Processed struct {
	Battle  Battle           `json:"battle"`
	Changes []control.Change `json:"changes"`
	Before  control.Tally    `json:"score_before"`
	After   control.Tally    `json:"score_after"`
}

// Delta is the score movement caused by the battle.
func (p Processed) Delta() control.Tally {
	return p.After.Sub(p.Before)
}

// DeleteResult reports what a deletion batch did with each requested id.
type DeleteResult struct {
	Deleted []int64 `json:"deleted"`
	Denied  []int64 `json:"denied"`
	Missing []int64 `json:"missing"`
	Replay  int     `json:"replayed"`
}
