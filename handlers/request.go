package handlers

import (
	"net/http"

	"bloodsync/services/offer"
	"bloodsync/services/proximity"
	"bloodsync/services/request"
	"bloodsync/utils"

	"github.com/gin-gonic/gin"
)

type RequestHandler struct {
	Requests  request.RequestService
	Offers    offer.OfferService
	Proximity proximity.ProximityService
}

func NewRequestHandler(requests request.RequestService, offers offer.OfferService, prox proximity.ProximityService) *RequestHandler {
	return &RequestHandler{Requests: requests, Offers: offers, Proximity: prox}
}

// CreateRequestHandler handles POST /api/requests.
func (h *RequestHandler) CreateRequestHandler(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	var input request.CreateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, utils.CodeValidation, "Invalid request payload")
		return
	}
	req, err := h.Requests.Create(c.Request.Context(), caller, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, req)
}

// ListMyRequestsHandler handles GET /api/requests/mine.
func (h *RequestHandler) ListMyRequestsHandler(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	reqs, err := h.Requests.ListMine(c.Request.Context(), caller)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reqs)
}

// NearbyRequestsHandler handles GET /api/requests/nearby. Without lat/lng it
// lists every pending request, newest first.
func (h *RequestHandler) NearbyRequestsHandler(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	params, err := parseNearby(c.Query("lat"), c.Query("lng"), c.Query("radiusKm"), c.Query("bloodType"))
	if err != nil {
		respondError(c, err)
		return
	}
	results, err := h.Proximity.NearbyRequests(c.Request.Context(), caller, params)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}

// GetRequestHandler handles GET /api/requests/:id.
func (h *RequestHandler) GetRequestHandler(c *gin.Context) {
	if _, ok := requireCaller(c); !ok {
		return
	}
	req, err := h.Requests.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// CancelRequestHandler handles POST /api/requests/:id/cancel.
func (h *RequestHandler) CancelRequestHandler(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	out, err := h.Offers.CancelRequest(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcomeResponse(out))
}
