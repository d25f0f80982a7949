package handlers

import (
	"net/http"

	"bloodsync/models"
	"bloodsync/services/offer"
	"bloodsync/utils"

	"github.com/gin-gonic/gin"
)

type OfferHandler struct {
	Offers offer.OfferService
}

func NewOfferHandler(offers offer.OfferService) *OfferHandler {
	return &OfferHandler{Offers: offers}
}

// CreateOfferHandler handles POST /api/requests/:id/offers. The caller is the donor.
func (h *OfferHandler) CreateOfferHandler(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	out, err := h.Offers.CreateOffer(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, outcomeResponse(out))
}

// ListRequestOffersHandler handles GET /api/requests/:id/offers.
func (h *OfferHandler) ListRequestOffersHandler(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	offers, err := h.Offers.ListOffersForRequest(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, offers)
}

// ListMyOffersHandler handles GET /api/offers/mine.
func (h *OfferHandler) ListMyOffersHandler(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	offers, err := h.Offers.ListOffersByDonor(c.Request.Context(), caller)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, offers)
}

// RespondToOfferHandler handles POST /api/offers/:id/respond.
func (h *OfferHandler) RespondToOfferHandler(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	var req struct {
		Decision models.Decision `json:"decision" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, utils.CodeValidation, "decision is required")
		return
	}
	out, err := h.Offers.RespondToOffer(c.Request.Context(), caller, c.Param("id"), req.Decision)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcomeResponse(out))
}

// outcomeResponse reports the committed transition. Failed external sends
// appear as warnings; the transition itself succeeded.
func outcomeResponse(out *offer.Outcome) gin.H {
	body := gin.H{}
	if out.Offer != nil {
		body["offer"] = out.Offer
	}
	if out.Request != nil {
		body["request"] = out.Request
	}
	if out.Donation != nil {
		body["donation"] = out.Donation
	}
	if len(out.AutoRejected) > 0 {
		body["autoRejected"] = out.AutoRejected
	}
	if warnings := out.Delivery.Warnings(); len(warnings) > 0 {
		body["warnings"] = warnings
		body["warningCode"] = utils.CodeNotificationSendFailed
	}
	return body
}
