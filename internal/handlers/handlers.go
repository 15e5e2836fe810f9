package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"field-survey-router/internal/database"
	"field-survey-router/internal/models"
	"field-survey-router/internal/routing"
)

// RouteService is what the handlers need from the route subsystem
type RouteService interface {
	TripRoute(ctx context.Context, tripID string) (*models.RouteView, error)
	TripStatuses(ctx context.Context) ([]models.TripStatus, error)
	InvalidateTrip(ctx context.Context, tripID string) error
	StartPrefetch(ctx context.Context) (*routing.PrefetchRun, error)
	CancelPrefetch() bool
	PrefetchRunning() bool
}

// HealthChecker reports whether the cache store is usable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Handler provides common handler utilities and dependencies
type Handler struct {
	Routes RouteService
	Store  HealthChecker
	Logger *zap.Logger
}

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// RegisterRoutes registers the API routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	api := r.Group("/api/v1")
	{
		api.GET("/health", h.HandleHealthCheck)

		api.GET("/trips", h.HandleListTrips)
		api.GET("/trips/:id/route", h.HandleGetTripRoute)
		api.DELETE("/trips/:id/route", h.HandleInvalidateTripRoute)

		api.GET("/prefetch", h.HandlePrefetchStatus)
		api.POST("/prefetch", h.HandleStartPrefetch)
		api.DELETE("/prefetch", h.HandleCancelPrefetch)
	}
}

// writeError writes a JSON error response
func (h *Handler) writeError(c *gin.Context, status int, code, message string, details interface{}) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// handleNotFound handles 404 errors
func (h *Handler) handleNotFound(c *gin.Context, message string) {
	h.writeError(c, http.StatusNotFound, "NOT_FOUND", message, nil)
}

// handleInternalError handles 500 errors
func (h *Handler) handleInternalError(c *gin.Context, err error) {
	h.Logger.Error("internal error",
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	h.writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "An error occurred. Please try again.", nil)
}

// checkNotFound checks if an error is a not found error
func (h *Handler) checkNotFound(err error) bool {
	return errors.Is(err, database.ErrNotFound)
}
