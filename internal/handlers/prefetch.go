package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"field-survey-router/internal/routing"
)

// HandlePrefetchStatus handles GET /api/v1/prefetch
func (h *Handler) HandlePrefetchStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"running": h.Routes.PrefetchRunning()})
}

// HandleStartPrefetch handles POST /api/v1/prefetch.
// The run continues after the response; a previous run is replaced.
func (h *Handler) HandleStartPrefetch(c *gin.Context) {
	if _, err := h.Routes.StartPrefetch(c.Request.Context()); err != nil {
		var unavailable *routing.ErrPrefetchUnavailable
		if errors.As(err, &unavailable) {
			h.writeError(c, http.StatusServiceUnavailable, "PREFETCH_UNAVAILABLE", unavailable.Reason, nil)
			return
		}
		h.handleInternalError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "started"})
}

// HandleCancelPrefetch handles DELETE /api/v1/prefetch
func (h *Handler) HandleCancelPrefetch(c *gin.Context) {
	h.Routes.CancelPrefetch()
	c.Status(http.StatusNoContent)
}
