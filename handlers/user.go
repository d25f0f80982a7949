package handlers

import (
	"net/http"

	"bloodsync/models"
	"bloodsync/services/proximity"
	"bloodsync/services/user"
	"bloodsync/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type UserHandler struct {
	Users     user.UserService
	Proximity proximity.ProximityService
}

func NewUserHandler(users user.UserService, prox proximity.ProximityService) *UserHandler {
	return &UserHandler{Users: users, Proximity: prox}
}

// UpsertProfileHandler handles POST /api/users/profile.
func (h *UserHandler) UpsertProfileHandler(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	var input user.ProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, utils.CodeValidation, "Invalid profile payload")
		return
	}
	person, err := h.Users.UpsertProfile(c.Request.Context(), caller, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, person)
}

// GetMyProfileHandler handles GET /api/users/me.
func (h *UserHandler) GetMyProfileHandler(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	person, err := h.Users.GetProfile(c.Request.Context(), caller.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, person)
}

// SetAvailabilityHandler handles PATCH /api/users/me/availability.
func (h *UserHandler) SetAvailabilityHandler(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	var req struct {
		Availability models.Availability `json:"availability" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, utils.CodeValidation, "availability is required")
		return
	}
	person, err := h.Users.SetAvailability(c.Request.Context(), caller, req.Availability)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.GetLogger().Info("Availability changed", zap.String("userID", caller.UserID), zap.String("availability", string(person.Availability)))
	c.JSON(http.StatusOK, person)
}

// NearbyDonorsHandler handles GET /api/donors/nearby.
func (h *UserHandler) NearbyDonorsHandler(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	params, err := parseNearby(c.Query("lat"), c.Query("lng"), c.Query("radiusKm"), c.Query("bloodType"))
	if err != nil {
		respondError(c, err)
		return
	}
	results, err := h.Proximity.NearbyDonors(c.Request.Context(), caller, params)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}

// ListMyDonationsHandler handles GET /api/donations/mine.
func (h *UserHandler) ListMyDonationsHandler(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	donations, err := h.Users.ListDonations(c.Request.Context(), caller)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, donations)
}
