package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HandleHealthCheck handles GET /api/v1/health
func (h *Handler) HandleHealthCheck(c *gin.Context) {
	status := "ok"
	storeStatus := "connected"

	if h.Store != nil {
		if err := h.Store.HealthCheck(c.Request.Context()); err != nil {
			status = "degraded"
			storeStatus = "error"
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  status,
		"version": "1.0.0",
		"cache":   storeStatus,
	})
}
