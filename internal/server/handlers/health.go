package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/iudanet/notifsync/pkg/api"
)

// HealthHandler обрабатывает health check запросы
type HealthHandler struct {
	logger  *zap.Logger
	version string
}

// NewHealthHandler создает новый handler для health check
func NewHealthHandler(logger *zap.Logger, version string) *HealthHandler {
	if version == "" {
		version = "dev"
	}
	return &HealthHandler{
		logger:  logger,
		version: version,
	}
}

// Health обрабатывает GET /api/v1/health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := api.HealthResponse{
		Status:  "ok",
		Version: h.version,
	}

	if err := WriteJSON(w, http.StatusOK, resp); err != nil {
		h.logger.Error("failed to encode health response", zap.Error(err))
	}
}
