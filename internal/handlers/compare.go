package handlers

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"aiindex-backend/internal/models"
	"aiindex-backend/internal/services"
	"aiindex-backend/internal/websocket"
)

// streamReadTimeout bounds the wait for the compare request on a new socket.
const streamReadTimeout = 30 * time.Second

// writeHeadroom is added to the fan-out budget when extending the write deadline.
const writeHeadroom = 15 * time.Second

type CompareHandler struct {
	compare  *services.CompareService
	upgrader *websocket.Upgrader
	log      *zap.Logger
}

func NewCompareHandler(compare *services.CompareService, upgrader *websocket.Upgrader, log *zap.Logger) *CompareHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &CompareHandler{
		compare:  compare,
		upgrader: upgrader,
		log:      log,
	}
}

func (h *CompareHandler) Compare(w http.ResponseWriter, r *http.Request) {
	if !h.compare.Configured() {
		handleClientError(w, r, services.ErrNotConfigured)
		return
	}

	var req models.CompareRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeRequestError(w, r, err)
		return
	}

	modelIDs := services.ResolveModels(req.Models)
	if budget := h.compare.Budget(len(modelIDs)); budget > 0 {
		h.extendWriteDeadline(w, budget+writeHeadroom)
	}
	results := h.compare.Compare(r.Context(), &req, modelIDs, nil)

	writeJSON(w, http.StatusOK, models.CompareResponse{
		Success: true,
		Prompt:  req.Prompt,
		Results: results,
	})
}

// Stream is the WebSocket variant of Compare: the client sends one compare
// request, receives a result event per model as soon as it finishes, then a
// completed event carrying the ordered response.
func (h *CompareHandler) Stream(w http.ResponseWriter, r *http.Request) {
	sess, err := h.upgrader.Upgrade(w, r)
	if err != nil {
		h.log.Warn("compare stream upgrade failed", zap.Error(err))
		return
	}
	defer sess.Close()

	if !h.compare.Configured() {
		sess.Send(errorEvent(notConfiguredMessage))
		return
	}

	var req models.CompareRequest
	if err := sess.ReadJSON(&req, streamReadTimeout); err != nil {
		sess.Send(errorEvent("Invalid request body"))
		return
	}
	if err := validateRequest(&req); err != nil {
		var reqErr *requestError
		if errors.As(err, &reqErr) {
			sess.Send(errorEvent(reqErr.message))
		} else {
			sess.Send(errorEvent(err.Error()))
		}
		return
	}

	modelIDs := services.ResolveModels(req.Models)
	results := h.compare.Compare(r.Context(), &req, modelIDs, func(i int, res models.CompletionResult) {
		if err := sess.Send(models.WSMessage{
			Type:    models.WSTypeResult,
			Payload: models.ResultEvent{Index: i, Result: res},
		}); err != nil {
			h.log.Debug("compare stream send failed", zap.Error(err))
		}
	})

	sess.Send(models.WSMessage{
		Type: models.WSTypeCompleted,
		Payload: models.CompareResponse{
			Success: true,
			Prompt:  req.Prompt,
			Results: results,
		},
	})
}

// extendWriteDeadline overrides the server-wide WriteTimeout for this response,
// which is sized for a single upstream call.
func (h *CompareHandler) extendWriteDeadline(w http.ResponseWriter, d time.Duration) {
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Now().Add(d)); err != nil && !errors.Is(err, http.ErrNotSupported) {
		h.log.Warn("compare write deadline not extended", zap.Error(err))
	}
}

func errorEvent(message string) models.WSMessage {
	return models.WSMessage{Type: models.WSTypeError, Payload: models.ErrorEvent{Error: message}}
}
