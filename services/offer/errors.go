package offer

import "bloodsync/utils"

var (
	ErrSelfDonation      = utils.NewAppError(utils.CodeSelfDonation, "you cannot offer to donate to your own request")
	ErrRequestNotPending = utils.NewAppError(utils.CodeRequestNotPending, "this request is no longer open")
	ErrOfferNotPending   = utils.NewAppError(utils.CodeOfferNotPending, "this offer has already been answered")
	ErrDuplicateOffer    = utils.NewAppError(utils.CodeDuplicateOffer, "you already have a pending offer on this request")
	ErrNotRequestOwner   = utils.NewAppError(utils.CodeForbidden, "only the request owner can do this")
	ErrOfferNotFound     = utils.NewAppError(utils.CodeNotFound, "offer not found")
	ErrRequestNotFound   = utils.NewAppError(utils.CodeNotFound, "blood request not found")
	ErrInvalidDecision   = utils.NewAppError(utils.CodeValidation, "decision must be accept or reject")
)
