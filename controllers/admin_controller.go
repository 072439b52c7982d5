package controllers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/opunath26/idea-arena-server/utils"
)

// AdminStats GET /admin-stats
func (h *Handler) AdminStats(c *gin.Context) {
	stats, err := h.Stats.AdminStats(c.Request.Context())
	if err != nil {
		slog.Error("admin stats failed", "err", err)
		utils.Error(c, http.StatusInternalServerError, "failed to load admin stats")
		return
	}
	utils.Success(c, "success", stats)
}

// TrackingLogs GET /trackings/:trackingId/logs
func (h *Handler) TrackingLogs(c *gin.Context) {
	logs, err := h.Tracking.ListByTracking(c.Request.Context(), c.Param("trackingId"))
	if err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, "success", logs)
}
