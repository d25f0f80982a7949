package proximity

import "bloodsync/utils"

var (
	// ErrQueryUnavailable means the record store could not be reached. Callers
	// may retry, or retry without a center.
	ErrQueryUnavailable = utils.NewAppError(utils.CodeQueryUnavailable, "nearby search is temporarily unavailable")
	ErrInvalidQuery     = utils.NewAppError(utils.CodeValidation, "invalid proximity query")
)
