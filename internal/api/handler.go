package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"timetable-ical-backend/config"
	"timetable-ical-backend/internal/builder"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	cfg      *config.Config
	services map[string]*builder.Service
}

// NewHandler creates a new API handler over the per-account services.
func NewHandler(cfg *config.Config, services map[string]*builder.Service) *Handler {
	return &Handler{
		cfg:      cfg,
		services: services,
	}
}

// Health handles GET /healthz.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "accounts": len(h.services)})
}
