package handlers

import (
	"net/http"

	"aiindex-backend/internal/models"
	"aiindex-backend/internal/services"
)

type ChatHandler struct {
	client       services.Completer
	defaultModel string
}

// NewChatHandler accepts a nil client; every request then fails with a
// not-configured error without touching the network.
func NewChatHandler(client services.Completer, defaultModel string) *ChatHandler {
	return &ChatHandler{
		client:       client,
		defaultModel: defaultModel,
	}
}

func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	if h.client == nil {
		handleClientError(w, r, services.ErrNotConfigured)
		return
	}

	var req models.ChatRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeRequestError(w, r, err)
		return
	}

	model := req.Model
	if model == "" {
		model = h.defaultModel
	}

	completion, err := h.client.Complete(r.Context(), model, models.UserMessage(req.Message),
		models.TemperatureOrDefault(req.Temperature), req.Options())
	if err != nil {
		handleClientError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.ChatResponse{
		Success:  true,
		Model:    model,
		Response: completion.Content,
		Usage:    completion.Usage,
	})
}
