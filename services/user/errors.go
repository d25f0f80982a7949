package user

import "bloodsync/utils"

var (
	ErrProfileNotFound     = utils.NewAppError(utils.CodeNotFound, "profile not found")
	ErrInvalidProfile      = utils.NewAppError(utils.CodeValidation, "invalid profile")
	ErrInvalidAvailability = utils.NewAppError(utils.CodeValidation, "availability must be Available or Unavailable")
)
