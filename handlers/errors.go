package handlers

import (
	"context"
	"errors"
	"net/http"

	"bloodsync/middleware"
	"bloodsync/models"
	"bloodsync/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var codeStatus = map[string]int{
	utils.CodeValidation:        http.StatusBadRequest,
	utils.CodeUnauthorized:      http.StatusUnauthorized,
	utils.CodeForbidden:         http.StatusForbidden,
	utils.CodeNotFound:          http.StatusNotFound,
	utils.CodeQueryUnavailable:  http.StatusServiceUnavailable,
	utils.CodeSelfDonation:      http.StatusUnprocessableEntity,
	utils.CodeRequestNotPending: http.StatusConflict,
	utils.CodeOfferNotPending:   http.StatusConflict,
	utils.CodeDuplicateOffer:    http.StatusConflict,
	utils.CodeTimeout:           http.StatusGatewayTimeout,
}

// respondError maps service errors onto status codes and the {error, code} body.
func respondError(c *gin.Context, err error) {
	var appErr *utils.AppError
	switch {
	case errors.As(err, &appErr):
		status, ok := codeStatus[appErr.Code]
		if !ok {
			status = http.StatusInternalServerError
		}
		utils.JSONError(c, status, appErr.Code, appErr.Message)
	case errors.Is(err, context.DeadlineExceeded):
		utils.JSONError(c, http.StatusGatewayTimeout, utils.CodeTimeout, "The request timed out, please retry")
	case errors.Is(err, context.Canceled):
		utils.JSONError(c, http.StatusServiceUnavailable, utils.CodeTimeout, "The request was cancelled")
	default:
		utils.GetLogger().Error("Unhandled error", zap.String("path", c.Request.URL.Path), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, utils.CodeInternal, "Something went wrong, please try again later")
	}
}

// requireCaller returns the authenticated caller or writes a 401.
func requireCaller(c *gin.Context) (models.Caller, bool) {
	caller, ok := middleware.CallerFrom(c)
	if !ok || caller.UserID == "" {
		utils.JSONError(c, http.StatusUnauthorized, utils.CodeUnauthorized, "Authentication required")
		return models.Caller{}, false
	}
	return caller, true
}
