package handlers

import (
	"net/http"

	"bloodsync/services/admin"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	Admin admin.AdminService
}

func NewAdminHandler(svc admin.AdminService) *AdminHandler {
	return &AdminHandler{Admin: svc}
}

// StatsHandler handles GET /api/admin/stats.
func (h *AdminHandler) StatsHandler(c *gin.Context) {
	stats, err := h.Admin.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *AdminHandler) AllRequestsHandler(c *gin.Context) {
	reqs, err := h.Admin.AllRequests(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reqs)
}

func (h *AdminHandler) AllDonationsHandler(c *gin.Context) {
	donations, err := h.Admin.AllDonations(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, donations)
}
