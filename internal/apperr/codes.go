package apperr

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Battle submission errors
	CodeInvalidPlacement Code = "BATTLE_INVALID_PLACEMENT"
	CodeUnknownCategory  Code = "BATTLE_UNKNOWN_CATEGORY"
	CodeUnknownSide      Code = "BATTLE_UNKNOWN_SIDE"
	CodeInvalidTarget    Code = "BATTLE_INVALID_TARGET"

	// Territory errors
	CodeTerritoryNotFound Code = "TERRITORY_NOT_FOUND"

	// Season errors
	CodeNoActiveSeason    Code = "SEASON_NONE_ACTIVE"
	CodeSeasonEnded       Code = "SEASON_ENDED"
	CodeSeasonStillActive Code = "SEASON_STILL_ACTIVE"
	CodeSeasonInvalidSpan Code = "SEASON_INVALID_SPAN"
	CodeSeasonNotCurrent  Code = "SEASON_NOT_CURRENT"

	// Account errors
	CodeInvalidEmail       Code = "ACCOUNT_INVALID_EMAIL"
	CodeInvalidDisplayName Code = "ACCOUNT_INVALID_DISPLAY_NAME"
	CodeWeakPassword       Code = "ACCOUNT_WEAK_PASSWORD"
	CodeEmailTaken         Code = "ACCOUNT_EMAIL_TAKEN"
	CodeBadCredentials     Code = "ACCOUNT_BAD_CREDENTIALS"

	// Access errors
	CodeUnauthenticated  Code = "UNAUTHENTICATED"
	CodePermissionDenied Code = "PERMISSION_DENIED"

	// Generic errors
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeInternal        Code = "INTERNAL"
)

// HTTPStatus maps the code to the status the API responds with.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeInvalidPlacement, CodeUnknownCategory, CodeUnknownSide, CodeInvalidTarget,
		CodeSeasonInvalidSpan, CodeInvalidEmail, CodeInvalidDisplayName, CodeWeakPassword,
		CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeTerritoryNotFound, CodeNotFound:
		return http.StatusNotFound
	case CodeNoActiveSeason, CodeSeasonEnded, CodeSeasonStillActive, CodeSeasonNotCurrent:
		return http.StatusConflict
	case CodeEmailTaken:
		return http.StatusConflict
	case CodeBadCredentials, CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodePermissionDenied:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
