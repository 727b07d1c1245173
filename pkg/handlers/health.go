package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/schemasense/schemasense-engine/pkg/config"
	"github.com/schemasense/schemasense-engine/pkg/services"
)

// HealthResponse reports service status and whether the optional description
// augmenter is currently usable. No analysis is performed.
type HealthResponse struct {
	Status             string `json:"status"`
	AugmenterAvailable bool   `json:"augmenter_available"`
	Version            string `json:"version"`
}

// HealthHandler handles the health check endpoint.
type HealthHandler struct {
	cfg          *config.Config
	descriptions services.DescriptionService
	logger       *zap.Logger
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(cfg *config.Config, descriptions services.DescriptionService, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{cfg: cfg, descriptions: descriptions, logger: logger.Named("health-handler")}
}

// RegisterRoutes registers the health handler's routes on the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", h.Health)
}

// Health handles GET /api/health requests.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:             "healthy",
		AugmenterAvailable: h.descriptions.Available(),
		Version:            h.cfg.Version,
	}

	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode health response", zap.Error(err))
	}
}
