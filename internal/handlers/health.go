package handlers

import (
	"net/http"

	"aiindex-backend/internal/config"
	"aiindex-backend/internal/models"
)

const appName = "The Practical AI Index Backend"

type HealthHandler struct {
	cfg *config.Config
}

func NewHealthHandler(cfg *config.Config) *HealthHandler {
	return &HealthHandler{cfg: cfg}
}

func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.StatusResponse{
		Status:               "running",
		App:                  appName,
		OpenRouterConfigured: h.cfg.OpenRouterConfigured(),
	})
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	origins := h.cfg.CORSOrigins
	if origins == nil {
		origins = []string{}
	}

	writeJSON(w, http.StatusOK, models.HealthResponse{
		Status: "healthy",
		OpenRouter: models.OpenRouterHealth{
			Configured:   h.cfg.OpenRouterConfigured(),
			APIURL:       h.cfg.OpenRouterAPIURL,
			DefaultModel: h.cfg.OpenRouterModel,
		},
		CORS: models.CORSHealth{AllowedOrigins: origins},
	})
}
