package campaign

import (
	"context"
	"time"

	"github.com/talgya/ashes-void/internal/control"
	"github.com/talgya/ashes-void/internal/world"
)

// Reader is the committed-state view shared by the repository and its transactions.
type Reader interface {
	control.Store
	ListTerritories(ctx context.Context) ([]world.Territory, error)
	CountTerritories(ctx context.Context) (int, error)
	ActiveSeason(ctx context.Context) (Season, bool, error)
	ListSeasons(ctx context.Context) ([]Season, error)
	RecentBattles(ctx context.Context, campaignID int64, limit int) ([]Battle, error)
}

// Tx is a unit of work. Writes become visible to other callers only when
// the enclosing InTx callback returns nil.
type Tx interface {
	Reader
	ResetControl(ctx context.Context, at time.Time) error
	SeedTerritories(ctx context.Context, ts []world.Territory) error

	// ListApprovedBattles returns the campaign's approved battles in ascending id order.
	ListApprovedBattles(ctx context.Context, campaignID int64) ([]Battle, error)
	AppendBattle(ctx context.Context, b *Battle) (int64, error)
	BattlesByID(ctx context.Context, campaignID int64, ids []int64) ([]Battle, error)
	DeleteBattles(ctx context.Context, campaignID int64, ids []int64) (int64, error)

	InsertSeason(ctx context.Context, s *Season) (int64, error)
	ConcludeSeason(ctx context.Context, id int64, at time.Time, final control.Tally) error
	ArchiveEnded(ctx context.Context) (int64, error)
}

// Repository is the storage collaborator.
type Repository interface {
	Reader
	// InTx runs fn in a transaction, committing if it returns nil and
	// rolling back otherwise.
	InTx(ctx context.Context, fn func(Tx) error) error
}
