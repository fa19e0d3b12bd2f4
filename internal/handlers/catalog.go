package handlers

import (
	"context"
	"net/http"

	"aiindex-backend/internal/models"
	"aiindex-backend/internal/services"
)

type modelLister interface {
	ListModels(ctx context.Context) ([]models.ModelInfo, error)
}

type ModelsHandler struct {
	catalog *services.FreeModelCatalog
	lister  modelLister
}

// NewModelsHandler accepts a nil lister when OpenRouter is not configured.
func NewModelsHandler(catalog *services.FreeModelCatalog, lister modelLister) *ModelsHandler {
	return &ModelsHandler{catalog: catalog, lister: lister}
}

// Free serves the static free-tier catalog. It never calls upstream.
func (h *ModelsHandler) Free(w http.ResponseWriter, r *http.Request) {
	list := h.catalog.Models()
	writeJSON(w, http.StatusOK, models.FreeModelsResponse{
		Success: true,
		Count:   len(list),
		Models:  list,
	})
}

// List forwards the upstream model listing.
func (h *ModelsHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.lister == nil {
		handleClientError(w, r, services.ErrNotConfigured)
		return
	}

	list, err := h.lister.ListModels(r.Context())
	if err != nil {
		handleClientError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.ModelListResponse{
		Success: true,
		Count:   len(list),
		Models:  list,
	})
}
