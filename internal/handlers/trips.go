package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HandleListTrips handles GET /api/v1/trips
func (h *Handler) HandleListTrips(c *gin.Context) {
	statuses, err := h.Routes.TripStatuses(c.Request.Context())
	if err != nil {
		h.handleInternalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"trips": statuses})
}

// HandleGetTripRoute handles GET /api/v1/trips/:id/route.
// Routing failures still answer 200 with a fallback route.
func (h *Handler) HandleGetTripRoute(c *gin.Context) {
	tripID := c.Param("id")

	view, err := h.Routes.TripRoute(c.Request.Context(), tripID)
	if err != nil {
		if h.checkNotFound(err) {
			h.handleNotFound(c, "Trip not found")
			return
		}
		h.handleInternalError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// HandleInvalidateTripRoute handles DELETE /api/v1/trips/:id/route
func (h *Handler) HandleInvalidateTripRoute(c *gin.Context) {
	tripID := c.Param("id")

	if err := h.Routes.InvalidateTrip(c.Request.Context(), tripID); err != nil {
		if h.checkNotFound(err) {
			h.handleNotFound(c, "Trip not found")
			return
		}
		h.handleInternalError(c, err)
		return
	}

	h.Logger.Info("route cache invalidated", zap.String("trip_id", tripID))
	c.Status(http.StatusNoContent)
}
