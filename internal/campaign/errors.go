package campaign

import "github.com/talgya/ashes-void/internal/apperr"

var (
	// ErrNoActiveSeason is returned when no season has been started.
	ErrNoActiveSeason = apperr.New(apperr.CodeNoActiveSeason, "no active campaign season")
	// ErrSeasonEnded is returned for submissions after the season's end date.
	ErrSeasonEnded = apperr.New(apperr.CodeSeasonEnded, "this campaign season has ended, battles are locked")
	// ErrSeasonStillActive is returned when starting a season over one that is still running.
	ErrSeasonStillActive = apperr.New(apperr.CodeSeasonStillActive, "the current season has not ended yet")
	// ErrNotCurrentSeason is returned when changing the log of a season other than the active one.
	ErrNotCurrentSeason = apperr.New(apperr.CodeSeasonNotCurrent, "only the active season's battle log can be changed")
	// ErrInvalidSpan is returned when a season ends before it starts.
	ErrInvalidSpan = apperr.New(apperr.CodeSeasonInvalidSpan, "end date must be on or after start date")
	// ErrPermissionDenied is returned when none of the requested battles may be deleted by the caller.
	ErrPermissionDenied = apperr.New(apperr.CodePermissionDenied, "you can only delete battles you logged")
	// ErrBattleNotFound is returned when none of the requested battles exist.
	ErrBattleNotFound = apperr.New(apperr.CodeNotFound, "no such battles")
	// ErrUnauthenticated is returned for operations that need a signed-in player.
	ErrUnauthenticated = apperr.New(apperr.CodeUnauthenticated, "please log in to do that")
)
