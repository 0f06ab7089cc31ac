package campaign

import (
	"context"
	"fmt"
	"log/slog"
)

// Recalculate rebuilds every territory's control value from the campaign's
// approved battle log. Only the active season may be replayed. It runs in
// a single transaction: on any failure the prior state is left intact.
// Running it twice gives the same state.
func (s *Service) Recalculate(ctx context.Context, campaignID int64) (int, error) {
	if _, err := s.Conclude(ctx); err != nil {
		return 0, err
	}
	var n int
	err := s.Repo.InTx(ctx, func(tx Tx) error {
		if err := s.currentLog(ctx, tx, campaignID); err != nil {
			return err
		}
		var err error
		n, err = s.replay(ctx, tx, campaignID)
		return err
	})
	if err != nil {
		return 0, err
	}
	slog.Info("recalculated control", "campaign", campaignID, "battles", n)
	return n, nil
}

// replay resets all control to 0 and resolves the approved battles in id
// order, each seeing the state left by the ones before it.
func (s *Service) replay(ctx context.Context, tx Tx, campaignID int64) (int, error) {
	if err := tx.ResetControl(ctx, s.now()); err != nil {
		return 0, fmt.Errorf("reset control: %w", err)
	}
	battles, err := tx.ListApprovedBattles(ctx, campaignID)
	if err != nil {
		return 0, fmt.Errorf("list battles: %w", err)
	}
	for _, b := range battles {
		if _, err := s.resolver().Resolve(ctx, tx, b.Outcome()); err != nil {
			return 0, fmt.Errorf("replay battle %d: %w", b.ID, err)
		}
	}
	return len(battles), nil
}
